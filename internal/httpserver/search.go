package httpserver

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/velvetoven/pastry_shop/internal/catalog"
	"github.com/velvetoven/pastry_shop/internal/logging"
	"github.com/velvetoven/pastry_shop/internal/search"
	"github.com/velvetoven/pastry_shop/internal/util"
)

type SearchHandler struct {
	Catalog *catalog.Service

	// ES is optional; nil falls back to a catalog scan.
	ES      *elasticsearch.Client
	ESIndex string
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	ctx := c.Request().Context()

	if h.ES != nil {
		total, products, err := search.Query(ctx, h.ES, h.ESIndex, q, from, limit)
		if err != nil {
			logging.FromContext(ctx).Error("search failed", "query", q, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "search error")
		}
		return c.JSON(http.StatusOK, echo.Map{"total": total, "products": products})
	}

	total, products := search.Scan(h.Catalog.Products(), q, from, limit)
	return c.JSON(http.StatusOK, echo.Map{"total": total, "products": products})
}
