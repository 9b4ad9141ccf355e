package http

import (
	"errors"
	"net/http"

	"privylend-backend/internal/domain/ledger"
	"privylend-backend/internal/domain/lifecycle"
	"privylend-backend/internal/usecase/lending"

	"github.com/labstack/echo/v4"
)

const (
	codeBadRequest  = "BadRequest"
	codeValidation  = "ValidationFailed"
	codeInFlight    = "RequestInFlight"
	codeNotFound    = "NotFound"
	codeUnavailable = "LedgerUnavailable"
	codeRejected    = "LedgerRejected"
	codeInternal    = "Internal"
)

// statusFor maps a use case error onto an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	var le *lifecycle.Error
	switch {
	case errors.As(err, &le):
		if le.Kind == lifecycle.KindValidation {
			return http.StatusUnprocessableEntity, string(le.Code)
		}
		return http.StatusConflict, string(le.Code)
	case errors.Is(err, lending.ErrRequestInFlight):
		return http.StatusConflict, codeInFlight
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, ledger.ErrConnectivity):
		return http.StatusServiceUnavailable, codeUnavailable
	case errors.Is(err, ledger.ErrRejected):
		return http.StatusBadGateway, codeRejected
	}
	return http.StatusInternalServerError, codeInternal
}

func (h *Handler) fail(c echo.Context, err error) error {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithField("route", c.Path()).Error("request failed")
		msg = "internal error"
	}
	return c.JSON(status, ErrorResponse{Error: msg, Code: code})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: codeBadRequest})
}

func invalid(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Code:    codeValidation,
		Details: ToFieldErrors(err),
	})
}
