package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/velvetoven/pastry_shop/internal/catalog"
	"github.com/velvetoven/pastry_shop/internal/events"
	"github.com/velvetoven/pastry_shop/internal/logging"
	"github.com/velvetoven/pastry_shop/internal/search"
	"github.com/velvetoven/pastry_shop/internal/transport"
	"github.com/velvetoven/pastry_shop/internal/util"
)

type ProductHandler struct {
	Catalog  *catalog.Service
	Producer *events.Producer

	// ES is optional; nil disables indexing.
	ES      *elasticsearch.Client
	ESIndex string
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	items := h.Catalog.Products()
	total := len(items)

	if from >= total {
		items = nil
	} else {
		end := from + limit
		if end > total {
			end = total
		}
		items = items[from:end]
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + limit - 1) / limit,
			"has_prev":    page > 1,
			"has_next":    from+limit < total,
		},
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	code := c.Param("code")
	prod, ok := h.Catalog.FindByCode(code)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) indexProduct(c echo.Context, p catalog.Product) {
	if h.ES == nil {
		return
	}
	ctx := c.Request().Context()
	if err := search.IndexProduct(ctx, h.ES, h.ESIndex, p); err != nil {
		logging.FromContext(ctx).Error("index product failed", "code", p.Code, "error", err)
	}
}

// UpsertProduct creates or replaces a catalog product (admin).
func (h *ProductHandler) UpsertProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.upsert")

	var req transport.UpsertProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("upsert_product_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod := req.Product()
	if err := h.Catalog.Upsert(prod); err != nil {
		l.Warn("upsert_product_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "code required and price must be non-negative")
	}

	h.indexProduct(c, prod)
	h.Producer.Publish(ctx, events.TopicProduct, prod.Code, map[string]any{
		"type": "product_upserted",
		"code": prod.Code,
		"name": prod.Name,
	})

	l.Info("product upserted", "code", prod.Code)
	return c.JSON(http.StatusCreated, prod)
}

// PatchStock adjusts a product's stock ceiling (admin). Cart operations pick
// the new ceiling up immediately since stock is resolved per operation.
func (h *ProductHandler) PatchStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch_stock")

	code := c.Param("code")
	var req struct {
		Stock *int `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, ok := h.Catalog.FindByCode(code)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	prod.Stock = req.Stock
	if err := h.Catalog.Upsert(*prod); err != nil {
		l.Error("patch_stock_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.indexProduct(c, *prod)
	h.Producer.Publish(ctx, events.TopicProduct, code, map[string]any{
		"type":  "product_stock_changed",
		"code":  code,
		"stock": req.Stock,
	})

	l.Info("stock patched", "code", code)
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	code := c.Param("code")
	if err := h.Catalog.Delete(code); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("delete_product_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if h.ES != nil {
		if err := search.DeleteProduct(ctx, h.ES, h.ESIndex, code); err != nil {
			l.Error("unindex product failed", "code", code, "error", err)
		}
	}
	h.Producer.Publish(ctx, events.TopicProduct, code, map[string]any{
		"type": "product_deleted",
		"code": code,
	})

	l.Info("product deleted", "code", code)
	return c.NoContent(http.StatusNoContent)
}
