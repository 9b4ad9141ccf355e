package metrics

import (
	"context"
	"time"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/counterparty"
	"privylend-backend/internal/domain/ledger"
	"privylend-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type instrumentedGateway struct {
	next ledger.Gateway
	m    *Metrics
}

// InstrumentGateway wraps g so every call is counted and timed.
func InstrumentGateway(g ledger.Gateway, m *Metrics) ledger.Gateway {
	return &instrumentedGateway{next: g, m: m}
}

func (g *instrumentedGateway) observe(op string, start time.Time, err error) {
	g.m.gatewayCalls.WithLabelValues(op, Outcome(err)).Inc()
	g.m.gatewayTime.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (g *instrumentedGateway) ListCollateralAccounts(ctx context.Context, owner string) (out []collateral.Account, err error) {
	defer func(t time.Time) { g.observe("list_collateral", t, err) }(time.Now())
	return g.next.ListCollateralAccounts(ctx, owner)
}

func (g *instrumentedGateway) ListLoans(ctx context.Context, borrower string) (out []loan.Loan, err error) {
	defer func(t time.Time) { g.observe("list_loans", t, err) }(time.Now())
	return g.next.ListLoans(ctx, borrower)
}

func (g *instrumentedGateway) CreateCollateralAccount(ctx context.Context, p ledger.NewCollateral) (id string, err error) {
	defer func(t time.Time) { g.observe("create_collateral", t, err) }(time.Now())
	return g.next.CreateCollateralAccount(ctx, p)
}

func (g *instrumentedGateway) CreateLoanRequest(ctx context.Context, p ledger.LoanRequest) (id string, err error) {
	defer func(t time.Time) { g.observe("create_loan_request", t, err) }(time.Now())
	return g.next.CreateLoanRequest(ctx, p)
}

func (g *instrumentedGateway) Repay(ctx context.Context, loanID string, amount decimal.Decimal) (err error) {
	defer func(t time.Time) { g.observe("repay", t, err) }(time.Now())
	return g.next.Repay(ctx, loanID, amount)
}

func (g *instrumentedGateway) WithdrawCollateral(ctx context.Context, collateralID string) (err error) {
	defer func(t time.Time) { g.observe("withdraw_collateral", t, err) }(time.Now())
	return g.next.WithdrawCollateral(ctx, collateralID)
}

func (g *instrumentedGateway) MarkDefault(ctx context.Context, lender, loanID string) (err error) {
	defer func(t time.Time) { g.observe("mark_default", t, err) }(time.Now())
	return g.next.MarkDefault(ctx, lender, loanID)
}

func (g *instrumentedGateway) PendingOrigination() bool { return g.next.PendingOrigination() }

func (g *instrumentedGateway) ListLendingCounterparties(ctx context.Context) (out []counterparty.Pool, err error) {
	defer func(t time.Time) { g.observe("list_counterparties", t, err) }(time.Now())
	return g.next.ListLendingCounterparties(ctx)
}
