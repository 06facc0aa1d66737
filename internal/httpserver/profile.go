package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velvetoven/pastry_shop/internal/logging"
	"github.com/velvetoven/pastry_shop/internal/transport"
	"github.com/velvetoven/pastry_shop/internal/users"
)

type ProfileHandler struct {
	Users *users.Repo
}

func (h *ProfileHandler) account(c echo.Context) (string, error) {
	acct := accountFromContext(c)
	if acct == nil || acct.Email == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return acct.Email, nil
}

func (h *ProfileHandler) GetProfile(c echo.Context) error {
	email, err := h.account(c)
	if err != nil {
		return err
	}

	u, err := h.Users.FindByEmail(email)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	email, err := h.account(c)
	if err != nil {
		return err
	}

	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	u, err := h.Users.UpdateProfile(email, req.Name)
	if err != nil {
		if errors.Is(err, users.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, "name required")
		}
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}

	logging.FromContext(c.Request().Context()).Info("profile updated", "email", email)
	return c.JSON(http.StatusOK, u)
}

func (h *ProfileHandler) AddAddress(c echo.Context) error {
	email, err := h.account(c)
	if err != nil {
		return err
	}

	var req transport.AddAddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	u, err := h.Users.AddAddress(email, users.Address{
		Label:  req.Label,
		Street: req.Street,
		City:   req.City,
		Zip:    req.Zip,
		Phone:  req.Phone,
	})
	if err != nil {
		if errors.Is(err, users.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, "street and city required")
		}
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *ProfileHandler) RemoveAddress(c echo.Context) error {
	email, err := h.account(c)
	if err != nil {
		return err
	}

	u, err := h.Users.RemoveAddress(email, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	return c.JSON(http.StatusOK, u)
}
