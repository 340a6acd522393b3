// Package handler contains the echo handlers of the HTTP API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/gateway"
	"github.com/iliyamo/seating-plan/internal/middleware"
	"github.com/iliyamo/seating-plan/internal/model"
)

const requestTimeout = 5 * time.Second

// currentUser returns the authenticated user id or "".
func currentUser(c echo.Context) string { return middleware.UserID(c) }

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// statusFor maps the error taxonomy to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrStaleResponse),
		errors.Is(err, model.ErrAvailability):
		return http.StatusConflict
	case errors.Is(err, model.ErrCapacity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, gateway.ErrQueueFull),
		errors.Is(err, gateway.ErrSyncerClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// errorBody renders err as {"error": ..., "kind": ...}.  Unclassified
// errors are reported as a sync failure without their text.
func errorBody(c echo.Context, err error) (int, echo.Map) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		middleware.RecordError(c, err)
		return status, echo.Map{"error": "sync failed", "kind": "sync_failed"}
	}
	body := echo.Map{"error": err.Error()}
	if k := model.Kind(err); k != "" {
		body["kind"] = k
	}
	return status, body
}

func writeError(c echo.Context, err error) error {
	status, body := errorBody(c, err)
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "kind": "validation"})
}
