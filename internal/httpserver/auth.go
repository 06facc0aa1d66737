package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/velvetoven/pastry_shop/internal/catalog"
	"github.com/velvetoven/pastry_shop/internal/events"
	"github.com/velvetoven/pastry_shop/internal/identity"
	"github.com/velvetoven/pastry_shop/internal/kvstore"
	"github.com/velvetoven/pastry_shop/internal/logging"
	"github.com/velvetoven/pastry_shop/internal/tokens"
	"github.com/velvetoven/pastry_shop/internal/transport"
	"github.com/velvetoven/pastry_shop/internal/users"
)

type AuthHandler struct {
	Users     *users.Repo
	Store     *kvstore.Store
	Catalog   *catalog.Service
	Producer  *events.Producer
	JWTSecret []byte
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	u, err := h.Users.Register(req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrValidation):
			l.Warn("register_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "email and password required")
		case errors.Is(err, users.ErrExists):
			l.Warn("register_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "user already exists")
		default:
			l.Error("register_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	h.Producer.Publish(ctx, events.TopicUser, u.Email, map[string]any{
		"type":  "user_registered",
		"email": u.Email,
		"name":  u.Name,
	})

	l.Info("user registered", "email", u.Email)
	return c.JSON(http.StatusCreated, u)
}

// Login authenticates, issues the access cookie and performs the
// guest-to-user cart transition: whatever the browser's guest slot holds is
// merged into the account's cart and the guest slot is cleared.
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	u, err := h.Users.Authenticate(req.Email, req.Password)
	if err != nil {
		l.Warn("login_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	acct := &identity.Account{Name: u.Name, Email: u.Email}
	subject := identity.Sanitize(u.Email)
	exp := time.Now().Add(tokens.AccessTTL)
	token, err := tokens.CreateAccessToken(h.JWTSecret, subject, u.Name, u.Email, u.Role, exp)
	if err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create token")
	}
	c.SetCookie(tokens.CreateCookie(accessCookie, token, "/", exp))

	userKey := identity.CartKey(acct)
	if cookie, err := c.Cookie(guestCookie); err == nil && cookie.Value != "" {
		guestKey := identity.GuestCartKey(cookie.Value)
		merged := identity.MergeOnLogin(h.Store, h.Catalog, guestKey, userKey)
		c.SetCookie(tokens.DeleteCookie(guestCookie, "/"))
		l.Info("guest cart merged", "guest", guestKey, "user", userKey, "lines", merged.Len())
	}

	h.Producer.Publish(ctx, events.TopicUser, u.Email, map[string]any{
		"type":  "user_logged_in",
		"email": u.Email,
	})

	l.Info("login", "email", u.Email)
	return c.JSON(http.StatusOK, u)
}

// Logout drops the access cookie and hands the browser a fresh, empty guest
// slot. The account's cart stays persisted under its own key.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	c.SetCookie(tokens.DeleteCookie(accessCookie, "/"))

	guestID := uuid.NewString()
	c.SetCookie(tokens.CreateCookie(guestCookie, guestID, "/", time.Now().Add(30*24*time.Hour)))
	identity.ResetGuest(h.Store, h.Catalog, identity.GuestCartKey(guestID))

	l.Info("logout")
	return c.JSON(http.StatusOK, echo.Map{"status": "logged out"})
}
