package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/library-manager/internal/model"
)

func (h *Handler) BorrowBook(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	bookID, err := idParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	checkout, err := h.checkoutSvc.CheckoutBook(c.Request().Context(), identity.ID, bookID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, checkout)
}

func (h *Handler) ReturnBook(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	checkoutID, err := idParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	checkout, err := h.checkoutSvc.ReturnBook(c.Request().Context(), identity.ID, checkoutID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, checkout)
}

func (h *Handler) MyCheckouts(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	page, err := pageFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	checkouts, err := h.checkoutSvc.ListUserCheckouts(c.Request().Context(), identity.ID, page)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, checkouts)
}

func (h *Handler) ListCheckouts(c echo.Context) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	checkouts, err := h.checkoutSvc.ListCheckouts(c.Request().Context(), model.CheckoutFilter{}, page)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, checkouts)
}

func (h *Handler) ListOverdueCheckouts(c echo.Context) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	checkouts, err := h.checkoutSvc.ListCheckouts(c.Request().Context(), model.CheckoutFilter{Overdue: true}, page)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, checkouts)
}
