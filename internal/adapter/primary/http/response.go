package http

import (
	"errors"
	"net/http"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/labstack/echo/v4"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// respondError sends an error response with the status mapped from err
func respondError(c echo.Context, err error) error {
	code := mapErrorToHTTPStatus(err)
	resp := ErrorResponse{Error: err.Error()}

	var gwErr *core.GatewayError
	if errors.As(err, &gwErr) {
		resp.Details = gwErr.Details()
	}
	if code == http.StatusInternalServerError {
		c.Logger().Error(err)
		resp = ErrorResponse{Error: "Internal server error"}
	}
	return c.JSON(code, resp)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrGatewayUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrGatewayRejected):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
