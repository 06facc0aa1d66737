package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velvetoven/pastry_shop/internal/identity"
	"github.com/velvetoven/pastry_shop/internal/tokens"
)

const accessCookie = "accessToken"

// AuthMW guards routes with the access token cookie.
type AuthMW struct {
	Secret []byte
}

func (m *AuthMW) claims(c echo.Context) (*tokens.AccessClaims, error) {
	cookie, err := c.Cookie(accessCookie)
	if err != nil || cookie.Value == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	claims, err := tokens.AccessClaimsFromToken(cookie.Value, m.Secret)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
	}
	return claims, nil
}

func (m *AuthMW) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.claims(c)
		if err != nil {
			return err
		}
		setAccountContext(c, claims)
		return next(c)
	}
}

func (m *AuthMW) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.claims(c)
		if err != nil {
			return err
		}
		if claims.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		setAccountContext(c, claims)
		return next(c)
	}
}

func setAccountContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set("account", &identity.Account{Name: claims.Name, Email: claims.Email})
	c.Set("role", claims.Role)
}

// accountFromContext returns the authenticated account, or nil for guests.
func accountFromContext(c echo.Context) *identity.Account {
	if v := c.Get("account"); v != nil {
		if acct, ok := v.(*identity.Account); ok {
			return acct
		}
	}
	return nil
}
