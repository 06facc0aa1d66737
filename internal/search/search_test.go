package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetoven/pastry_shop/internal/catalog"
)

func scanCatalog() []catalog.Product {
	return []catalog.Product{
		{Code: "CRX", Name: "Butter Croissant", Description: "laminated dough"},
		{Code: "ECL", Name: "Chocolate Eclair", Description: "choux pastry"},
		{Code: "PNS", Name: "Pain Suisse", Description: "brioche with chocolate chips"},
	}
}

func TestScan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		codes []string
	}{
		{name: "matches name", query: "croissant", codes: []string{"CRX"}},
		{name: "matches description", query: "brioche", codes: []string{"PNS"}},
		{name: "case blind", query: "CHOCOLATE", codes: []string{"ECL", "PNS"}},
		{name: "no hits", query: "sourdough", codes: nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			total, hits := Scan(scanCatalog(), tt.query, 0, 10)
			require.Equal(t, int64(len(tt.codes)), total)
			var codes []string
			for _, h := range hits {
				codes = append(codes, h.Code)
			}
			assert.Equal(t, tt.codes, codes)
		})
	}
}

func TestScan_Pagination(t *testing.T) {
	t.Parallel()

	total, hits := Scan(scanCatalog(), "chocolate", 1, 1)
	assert.Equal(t, int64(2), total)
	require.Len(t, hits, 1)
	assert.Equal(t, "PNS", hits[0].Code)

	total, hits = Scan(scanCatalog(), "chocolate", 5, 1)
	assert.Equal(t, int64(2), total)
	assert.Empty(t, hits, "pages past the end are empty")
}
