// Package search indexes catalog products in Elasticsearch and serves
// full-text queries. The whole package is optional: with a nil client the
// handler layer falls back to scanning the catalog.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/velvetoven/pastry_shop/internal/catalog"
)

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: %s: %s", res.Status(), body)
	}
	return client, nil
}

// IndexProduct upserts the product document keyed by its code.
func IndexProduct(ctx context.Context, es *elasticsearch.Client, index string, p catalog.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	res, err := es.Index(
		index,
		bytes.NewReader(data),
		es.Index.WithDocumentID(p.Code),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %s: %s", p.Code, res.Status())
	}
	return nil
}

// DeleteProduct removes the product document; a missing document is fine.
func DeleteProduct(ctx context.Context, es *elasticsearch.Client, index, code string) error {
	res, err := es.Delete(index, code, es.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// Query runs a fuzzy multi_match over name/description with pagination.
func Query(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []catalog.Product, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source catalog.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	prods := make([]catalog.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return r.Hits.Total.Value, prods, nil
}

// Scan is the fallback when no Elasticsearch is configured: a case-blind
// substring match over the catalog.
func Scan(products []catalog.Product, query string, from, size int) (int64, []catalog.Product) {
	q := strings.ToLower(strings.TrimSpace(query))
	var hits []catalog.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			hits = append(hits, p)
		}
	}
	total := int64(len(hits))
	if from >= len(hits) {
		return total, nil
	}
	end := from + size
	if end > len(hits) {
		end = len(hits)
	}
	return total, hits[from:end]
}
