package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Register mounts the API. idem guards the mutating routes; metrics may be
// nil when metrics are disabled.
func Register(e *echo.Echo, h *Handler, idem echo.MiddlewareFunc, metrics http.Handler) {
	e.GET("/health", h.Health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}

	var guard []echo.MiddlewareFunc
	if idem != nil {
		guard = append(guard, idem)
	}

	v1 := e.Group("/v1")
	v1.GET("/protocol", h.Protocol)
	v1.GET("/portfolio", h.Portfolio)
	v1.GET("/counterparties", h.Counterparties)

	v1.GET("/collateral", h.ListCollateral)
	v1.POST("/collateral", h.Deposit, guard...)
	v1.DELETE("/collateral/:collateral_id", h.Withdraw, guard...)

	v1.GET("/loans", h.ListLoans)
	v1.POST("/loans/quote", h.Quote)
	v1.POST("/loans", h.RequestLoan, guard...)
	v1.POST("/loans/:loan_id/repay", h.Repay, guard...)
	v1.POST("/loans/:loan_id/default", h.MarkDefault, guard...)
}
