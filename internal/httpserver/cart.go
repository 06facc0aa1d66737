package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/velvetoven/pastry_shop/internal/cart"
	"github.com/velvetoven/pastry_shop/internal/catalog"
	"github.com/velvetoven/pastry_shop/internal/events"
	"github.com/velvetoven/pastry_shop/internal/identity"
	"github.com/velvetoven/pastry_shop/internal/kvstore"
	"github.com/velvetoven/pastry_shop/internal/logging"
	"github.com/velvetoven/pastry_shop/internal/orders"
	"github.com/velvetoven/pastry_shop/internal/tokens"
	"github.com/velvetoven/pastry_shop/internal/transport"
)

const guestCookie = "guestID"

type CartHandler struct {
	Store     *kvstore.Store
	Catalog   *catalog.Service
	Orders    *orders.Service
	Producer  *events.Producer
	JWTSecret []byte
}

// session resolves the cart of the caller: the authenticated account's cart
// when a valid access token rides along, otherwise the browser's guest slot
// (handing out a guest cookie on first contact).
func (h *CartHandler) session(c echo.Context) (*cart.Ledger, string) {
	if cookie, err := c.Cookie(accessCookie); err == nil && cookie.Value != "" {
		if claims, err := tokens.AccessClaimsFromToken(cookie.Value, h.JWTSecret); err == nil {
			acct := &identity.Account{Name: claims.Name, Email: claims.Email}
			key := identity.CartKey(acct)
			return cart.Load(h.Store, h.Catalog, key), key
		}
	}

	var guestID string
	if cookie, err := c.Cookie(guestCookie); err == nil && cookie.Value != "" {
		guestID = cookie.Value
	} else {
		guestID = uuid.NewString()
		c.SetCookie(tokens.CreateCookie(guestCookie, guestID, "/", time.Now().Add(30*24*time.Hour)))
	}
	key := identity.GuestCartKey(guestID)
	return cart.Load(h.Store, h.Catalog, key), key
}

func (h *CartHandler) publish(c echo.Context, key string, event map[string]any) {
	h.Producer.Publish(c.Request().Context(), events.TopicCart, key, event)
}

func cartResponse(l *cart.Ledger) transport.CartResponse {
	return transport.CartResponse{Items: l.Items(), Subtotal: l.Subtotal()}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ledger, _ := h.session(c)
	return c.JSON(http.StatusOK, cartResponse(ledger))
}

// AddToCart adds units of one product, personalized or not. A stock-capped
// request is not an error: the response carries how many units fit.
func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code required")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	prod, ok := h.Catalog.FindByCode(req.Code)
	if !ok {
		l.Warn("add_to_cart_error", "status", 404, "code", req.Code)
		return echo.NewHTTPError(http.StatusNotFound, "unknown product")
	}

	ledger, key := h.session(c)
	added := ledger.AddMany(cart.Item{
		Code:    prod.Code,
		Name:    prod.Name,
		Price:   prod.Price,
		Image:   prod.Image,
		Message: req.Message,
	}, req.Quantity)

	if added > 0 {
		h.publish(c, key, map[string]any{
			"type":     "cart_items_added",
			"cart":     key,
			"code":     req.Code,
			"quantity": added,
		})
	}

	resp := cartResponse(ledger)
	resp.Added = added
	resp.Requested = req.Quantity
	l.Info("add_to_cart", "code", req.Code, "requested", req.Quantity, "added", added)
	return c.JSON(http.StatusOK, resp)
}

// AddBatch adds one unit per personalization message, prefix-greedy against
// the product's remaining stock.
func (h *CartHandler) AddBatch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_batch")

	var req transport.BatchAddRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_batch_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Code == "" || len(req.Messages) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "code and messages required")
	}

	prod, ok := h.Catalog.FindByCode(req.Code)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown product")
	}

	ledger, key := h.session(c)
	added := ledger.AddPersonalizedBatch(cart.Item{
		Code:  prod.Code,
		Name:  prod.Name,
		Price: prod.Price,
		Image: prod.Image,
	}, req.Messages)

	if added > 0 {
		h.publish(c, key, map[string]any{
			"type":     "cart_items_added",
			"cart":     key,
			"code":     req.Code,
			"quantity": added,
		})
	}

	resp := cartResponse(ledger)
	resp.Added = added
	resp.Requested = len(req.Messages)
	l.Info("add_batch", "code", req.Code, "requested", len(req.Messages), "added", added)
	return c.JSON(http.StatusOK, resp)
}

// SetQuantity pins a line to an exact quantity, clamped by stock; zero
// removes the line.
func (h *CartHandler) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	var req transport.SetQuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_quantity_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code required")
	}

	ledger, key := h.session(c)
	qty := ledger.SetQuantity(req.Code, req.Message, req.Quantity)

	h.publish(c, key, map[string]any{
		"type":     "cart_quantity_set",
		"cart":     key,
		"code":     req.Code,
		"quantity": qty,
	})

	resp := cartResponse(ledger)
	resp.Quantity = qty
	resp.Requested = req.Quantity
	l.Info("set_quantity", "code", req.Code, "requested", req.Quantity, "result", qty)
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	var req transport.RemoveItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code required")
	}

	ledger, key := h.session(c)
	ledger.Remove(req.Code, req.Message)

	h.publish(c, key, map[string]any{
		"type": "cart_item_removed",
		"cart": key,
		"code": req.Code,
	})
	return c.JSON(http.StatusOK, cartResponse(ledger))
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ledger, key := h.session(c)
	ledger.Clear()

	h.publish(c, key, map[string]any{
		"type": "cart_cleared",
		"cart": key,
	})
	return c.JSON(http.StatusOK, cartResponse(ledger))
}

// Checkout turns the active cart into an order.
func (h *CartHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	ledger, key := h.session(c)
	order, err := h.Orders.Checkout(key, ledger)
	if err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.Producer.Publish(ctx, events.TopicOrder, key, map[string]any{
		"type":    "order_created",
		"cart":    key,
		"orderID": order.ID,
		"total":   order.Total,
	})

	l.Info("checkout", "orderID", order.ID, "total", order.Total)
	return c.JSON(http.StatusOK, order)
}

// ListOrders returns the caller's order history.
func (h *CartHandler) ListOrders(c echo.Context) error {
	_, key := h.session(c)
	return c.JSON(http.StatusOK, h.Orders.List(key))
}

// ListCarts reports every populated cart slot for the back office.
func (h *CartHandler) ListCarts(c echo.Context) error {
	type slot struct {
		Key      string  `json:"key"`
		Lines    int     `json:"lines"`
		Subtotal float64 `json:"subtotal"`
	}

	var out []slot
	for _, key := range h.Store.Keys("cart:") {
		l := cart.Load(h.Store, h.Catalog, key)
		if l.Len() == 0 {
			continue
		}
		out = append(out, slot{Key: key, Lines: l.Len(), Subtotal: l.Subtotal()})
	}
	return c.JSON(http.StatusOK, out)
}
