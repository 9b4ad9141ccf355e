package lifecycle

import (
	"time"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// Quote is the loan calculator shown next to the request form.
type Quote struct {
	CollateralValue   decimal.Decimal
	MaxLoan           decimal.Decimal
	RequestedAmount   decimal.Decimal
	LTV               decimal.Decimal
	TermDays          int
	InterestRate      decimal.Decimal
	EstimatedInterest decimal.Decimal
	TotalRepayment    decimal.Decimal
	Validation        Validation
}

func (e *Engine) Quote(collateralValue, amount decimal.Decimal, termDays int, ratePct decimal.Decimal) Quote {
	return Quote{
		CollateralValue:   collateralValue,
		MaxLoan:           e.MaxLoanCapacity(collateralValue),
		RequestedAmount:   amount,
		LTV:               CurrentLTV(amount, collateralValue),
		TermDays:          termDays,
		InterestRate:      ratePct,
		EstimatedInterest: AccruedInterest(amount, ratePct, termDays),
		TotalRepayment:    TotalOwed(amount, ratePct, termDays),
		Validation:        e.ValidateLoanRequest(amount, collateralValue),
	}
}

type Summary struct {
	TotalCollateral     decimal.Decimal
	AvailableCollateral decimal.Decimal
	LockedCollateral    decimal.Decimal
	BorrowingCapacity   decimal.Decimal
	OutstandingLoans    int
	DueSoonLoans        int
	TotalOwed           decimal.Decimal
	AvgInterestRate     decimal.Decimal
}

// Summarize aggregates a party's book. Loan statuses are derived at now;
// only Active and DueSoon loans count as outstanding.
func (e *Engine) Summarize(accounts []collateral.Account, loans []loan.Loan, now time.Time) Summary {
	s := Summary{
		TotalCollateral:     decimal.Zero,
		AvailableCollateral: decimal.Zero,
		LockedCollateral:    decimal.Zero,
		BorrowingCapacity:   decimal.Zero,
		TotalOwed:           decimal.Zero,
		AvgInterestRate:     decimal.Zero,
	}
	for _, a := range accounts {
		s.TotalCollateral = s.TotalCollateral.Add(a.Value)
		if a.IsLocked() {
			s.LockedCollateral = s.LockedCollateral.Add(a.Value)
			continue
		}
		s.AvailableCollateral = s.AvailableCollateral.Add(a.Value)
		s.BorrowingCapacity = s.BorrowingCapacity.Add(e.MaxLoanCapacity(a.Value))
	}

	rateSum := decimal.Zero
	for _, l := range loans {
		st := e.DeriveLoanStatus(l, now)
		if !st.Outstanding() {
			continue
		}
		s.OutstandingLoans++
		if st == loan.StatusDueSoon {
			s.DueSoonLoans++
		}
		s.TotalOwed = s.TotalOwed.Add(l.TotalOwed)
		rateSum = rateSum.Add(l.InterestRate)
	}
	if s.OutstandingLoans > 0 {
		s.AvgInterestRate = rateSum.Div(decimal.NewFromInt(int64(s.OutstandingLoans)))
	}
	return s
}
