package lending

import (
	"errors"
	"time"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/counterparty"
	"privylend-backend/internal/domain/ledger"
	"privylend-backend/internal/domain/lifecycle"
	"privylend-backend/internal/domain/loan"
	"privylend-backend/pkg/dateutil"
	"privylend-backend/pkg/money"

	"github.com/shopspring/decimal"
)

func formatMoney(d decimal.Decimal) string   { return money.FormatCurrency(d) }
func formatPercent(d decimal.Decimal) string { return money.FormatPercent(d) }

func isConnectivity(err error) bool { return errors.Is(err, ledger.ErrConnectivity) }
func isNotFound(err error) bool     { return errors.Is(err, ledger.ErrNotFound) }

func (u *Usecase) collateralDTO(a collateral.Account) CollateralDTO {
	dto := CollateralDTO{
		ID:           a.CollateralID,
		Owner:        a.Owner,
		AssetType:    string(a.AssetType),
		AssetLabel:   a.AssetType.Label(),
		Value:        a.Value.InexactFloat64(),
		ValueDisplay: formatMoney(a.Value),
		Status:       string(a.Status),
	}
	if a.IsLocked() {
		if a.LockDate != nil {
			dto.LockDate = dateutil.ISO(*a.LockDate)
			dto.LockDateDisplay = dateutil.Format(*a.LockDate)
		}
	} else {
		dto.MaxLoan = u.engine.MaxLoanCapacity(a.Value).InexactFloat64()
	}
	return dto
}

// loanDTO presents l with its status derived at now.
func (u *Usecase) loanDTO(l loan.Loan, now time.Time) LoanDTO {
	st := u.engine.DeriveLoanStatus(l, now)
	return LoanDTO{
		ID:               l.LoanID,
		CollateralID:     l.CollateralID,
		Borrower:         l.Borrower,
		Lender:           l.Lender,
		Principal:        l.Principal.InexactFloat64(),
		PrincipalDisplay: formatMoney(l.Principal),
		InterestRate:     l.InterestRate.InexactFloat64(),
		TermDays:         l.TermDays,
		StartDate:        dateutil.ISO(l.StartDate),
		DueDate:          dateutil.ISO(l.DueDate),
		DueDateDisplay:   dateutil.Format(l.DueDate),
		DaysUntilDue:     dateutil.DaysUntil(l.DueDate, now),
		Status:           string(st),
		StatusLabel:      st.Label(),
		TotalOwed:        l.TotalOwed.Round(2).InexactFloat64(),
		TotalOwedDisplay: formatMoney(l.TotalOwed),
	}
}

func poolDTO(p counterparty.Pool) PoolDTO {
	return PoolDTO{
		ID:                    p.PoolID,
		Owner:                 p.Owner,
		Name:                  p.Name,
		AvailableFunds:        p.AvailableFunds.InexactFloat64(),
		AvailableFundsDisplay: formatMoney(p.AvailableFunds),
	}
}

func summaryDTO(s lifecycle.Summary) SummaryDTO {
	return SummaryDTO{
		TotalCollateral:     s.TotalCollateral.InexactFloat64(),
		AvailableCollateral: s.AvailableCollateral.InexactFloat64(),
		LockedCollateral:    s.LockedCollateral.InexactFloat64(),
		BorrowingCapacity:   s.BorrowingCapacity.InexactFloat64(),
		OutstandingLoans:    s.OutstandingLoans,
		DueSoonLoans:        s.DueSoonLoans,
		TotalOwed:           s.TotalOwed.Round(2).InexactFloat64(),
		TotalOwedDisplay:    formatMoney(s.TotalOwed),
		AvgInterestRate:     s.AvgInterestRate.Round(2).InexactFloat64(),
		AvgInterestDisplay:  formatPercent(s.AvgInterestRate),
	}
}
