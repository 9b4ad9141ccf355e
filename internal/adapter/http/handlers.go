package http

import (
	"net/http"
	"strings"
	"time"

	"privylend-backend/internal/adapter/middleware"
	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/usecase/lending"
	"privylend-backend/pkg/money"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	uc  *lending.Usecase
	log *logrus.Entry
	now func() time.Time
}

func NewHandler(uc *lending.Usecase, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{uc: uc, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   h.now().Format(time.RFC3339Nano),
	})
}

// party reads the caller's ledger party from Ax-Party-Id.
func party(c echo.Context) (string, bool) {
	p := strings.TrimSpace(c.Request().Header.Get(middleware.HeaderPartyID))
	return p, middleware.ValidParty(p)
}

func (h *Handler) Protocol(c echo.Context) error {
	return c.JSON(http.StatusOK, h.uc.Protocol())
}

func (h *Handler) Portfolio(c echo.Context) error {
	p, ok := party(c)
	if !ok {
		return badRequest(c, "missing or invalid "+middleware.HeaderPartyID)
	}
	dto, err := h.uc.Portfolio(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *Handler) ListCollateral(c echo.Context) error {
	p, ok := party(c)
	if !ok {
		return badRequest(c, "missing or invalid "+middleware.HeaderPartyID)
	}
	dto, err := h.uc.Collateral(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type depositReq struct {
	AssetType string  `json:"assetType" validate:"required,assettype"`
	Value     float64 `json:"value" validate:"dec2"`
}

func (h *Handler) Deposit(c echo.Context) error {
	p, ok := party(c)
	if !ok {
		return badRequest(c, "missing or invalid "+middleware.HeaderPartyID)
	}
	var req depositReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	asset, _ := collateral.ParseAssetTag(req.AssetType)
	dto, err := h.uc.Deposit(c.Request().Context(), lending.DepositInput{
		Owner:     p,
		AssetType: string(asset),
		Value:     money.FromFloat(req.Value),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *Handler) Withdraw(c echo.Context) error {
	p, ok := party(c)
	if !ok {
		return badRequest(c, "missing or invalid "+middleware.HeaderPartyID)
	}
	id := c.Param("collateral_id")
	if err := h.uc.Withdraw(c.Request().Context(), p, id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"collateralId": id, "status": "withdrawn"})
}

// MarkDefault is called by the lender of the loan, not the borrower.
func (h *Handler) MarkDefault(c echo.Context) error {
	p, ok := party(c)
	if !ok {
		return badRequest(c, "missing or invalid "+middleware.HeaderPartyID)
	}
	id := c.Param("loan_id")
	if err := h.uc.Default(c.Request().Context(), lending.DefaultInput{Lender: p, LoanID: id}); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"loanId": id, "status": "Defaulted"})
}

func (h *Handler) ListLoans(c echo.Context) error {
	p, ok := party(c)
	if !ok {
		return badRequest(c, "missing or invalid "+middleware.HeaderPartyID)
	}
	dto, err := h.uc.Loans(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type quoteReq struct {
	CollateralID    string   `json:"collateralId"`
	CollateralValue float64  `json:"collateralValue" validate:"gte=0,dec2"`
	Amount          float64  `json:"amount" validate:"gte=0,dec2"`
	TermDays        int      `json:"termDays"`
	InterestRate    *float64 `json:"interestRate" validate:"omitempty,dec2"`
}

func (h *Handler) Quote(c echo.Context) error {
	p, ok := party(c)
	if !ok {
		return badRequest(c, "missing or invalid "+middleware.HeaderPartyID)
	}
	var req quoteReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	dto, err := h.uc.Quote(c.Request().Context(), lending.QuoteInput{
		Party:           p,
		CollateralID:    req.CollateralID,
		CollateralValue: money.FromFloat(req.CollateralValue),
		Amount:          money.FromFloat(req.Amount),
		TermDays:        req.TermDays,
		InterestRate:    rate(req.InterestRate),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type loanReq struct {
	CollateralID string   `json:"collateralId" validate:"required"`
	Amount       float64  `json:"amount" validate:"dec2"`
	TermDays     int      `json:"termDays"`
	InterestRate *float64 `json:"interestRate" validate:"omitempty,dec2"`
	Lender       string   `json:"lender" validate:"omitempty,party"`
}

func (h *Handler) RequestLoan(c echo.Context) error {
	p, ok := party(c)
	if !ok {
		return badRequest(c, "missing or invalid "+middleware.HeaderPartyID)
	}
	var req loanReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	dto, err := h.uc.RequestLoan(c.Request().Context(), lending.LoanInput{
		Borrower:     p,
		CollateralID: req.CollateralID,
		Amount:       money.FromFloat(req.Amount),
		TermDays:     req.TermDays,
		InterestRate: rate(req.InterestRate),
		Lender:       req.Lender,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

type repayReq struct {
	// zero or absent repays the full amount owed
	Amount float64 `json:"amount" validate:"gte=0,dec2"`
}

func (h *Handler) Repay(c echo.Context) error {
	p, ok := party(c)
	if !ok {
		return badRequest(c, "missing or invalid "+middleware.HeaderPartyID)
	}
	var req repayReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	dto, err := h.uc.Repay(c.Request().Context(), lending.RepayInput{
		Borrower: p,
		LoanID:   c.Param("loan_id"),
		Amount:   money.FromFloat(req.Amount),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *Handler) Counterparties(c echo.Context) error {
	pools, err := h.uc.Counterparties(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": pools})
}

func rate(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := money.FromFloat(*f)
	return &d
}
