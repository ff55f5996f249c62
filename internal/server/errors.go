package server

import (
	"errors"
	"net/http"

	"example/waxroom/internal/logger"
	"example/waxroom/internal/service"

	"github.com/labstack/echo/v4"
)

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func success(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// fail writes the response for a service error. Anything not recognized is
// logged and reported as fallback with a 500.
func fail(c echo.Context, err error, fallback string) error {
	var v *service.ValidationError
	switch {
	case errors.As(err, &v):
		return c.JSON(http.StatusBadRequest, errorBody(v.Message))
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusBadRequest, errorBody("Invalid credentials"))
	case errors.Is(err, service.ErrDuplicateEmail):
		return c.JSON(http.StatusBadRequest, errorBody("Email already exists"))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody("Not found"))
	case errors.Is(err, service.ErrEmptyCart):
		return c.JSON(http.StatusBadRequest, errorBody("Cart is empty"))
	case errors.Is(err, service.ErrPaymentNotConfirmed):
		return c.JSON(http.StatusBadRequest, errorBody("Payment not confirmed"))
	case errors.Is(err, service.ErrPaymentsDisabled):
		return c.JSON(http.StatusBadRequest, errorBody("Stripe not configured"))
	case errors.Is(err, service.ErrCheckoutInProgress):
		return c.JSON(http.StatusBadRequest, errorBody("Checkout already in progress"))
	}

	logger.Log.Errorw("Request failed",
		"method", c.Request().Method,
		"route", c.Path(),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"error", err)
	return c.JSON(http.StatusInternalServerError, errorBody(fallback))
}

const serverError = "Server error"
