package lifecycle

import (
	"time"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/loan"
	"privylend-backend/pkg/dateutil"

	"github.com/shopspring/decimal"
)

// Engine binds the pure functions to a set of protocol Params.
type Engine struct {
	Params Params
}

// New returns an engine bound to p. Config validation keeps the LTV ratio and
// ceiling in step; New does not re-check them.
func New(p Params) *Engine { return &Engine{Params: p} }

func (e *Engine) MaxLoanCapacity(collateralValue decimal.Decimal) decimal.Decimal {
	return MaxLoanCapacity(collateralValue, e.Params.LTVRatio)
}

func (e *Engine) ValidateLoanRequest(requested, collateralValue decimal.Decimal) Validation {
	return ValidateLoanRequest(requested, collateralValue, e.Params.LTVCeilingPct)
}

func (e *Engine) DeriveLoanStatus(l loan.Loan, now time.Time) loan.Status {
	return DeriveLoanStatus(l.Status, l.DueDate, now, e.Params.DueSoonThresholdDays)
}

// WithDerivedStatus returns a copy of l whose Status is the derived one.
func (e *Engine) WithDerivedStatus(l loan.Loan, now time.Time) loan.Loan {
	l.Status = e.DeriveLoanStatus(l, now)
	return l
}

// ApplyDeposit builds a new Available account. The gateway assigns its id.
func (e *Engine) ApplyDeposit(assetType collateral.AssetType, value decimal.Decimal) (collateral.Account, error) {
	if !assetType.Valid() {
		return collateral.Account{}, validation(CodeUnknownAssetType, "asset type %q is not supported", assetType)
	}
	if value.LessThan(e.Params.MinDeposit) {
		return collateral.Account{}, validation(CodeBelowMinimumDeposit, "deposit %s is below the minimum of %s", value, e.Params.MinDeposit)
	}
	return collateral.Account{
		AssetType: assetType,
		Value:     value,
		Status:    collateral.StatusAvailable,
	}, nil
}

// ApplyLoanOrigination creates an Active loan against an Available account and
// locks the account. Neither input is modified.
func (e *Engine) ApplyLoanOrigination(acct collateral.Account, amount decimal.Decimal, termDays int, ratePct decimal.Decimal, now time.Time) (loan.Loan, collateral.Account, error) {
	if acct.Status != collateral.StatusAvailable {
		return loan.Loan{}, acct, state(CodeCollateralUnavailable, "collateral %s is %s", acct.CollateralID, acct.Status)
	}
	if termDays <= 0 {
		return loan.Loan{}, acct, validation(CodeInvalidTerm, "term of %d days must be positive", termDays)
	}
	if ratePct.IsNegative() {
		return loan.Loan{}, acct, validation(CodeInvalidInterestRate, "interest rate %s%% must not be negative", ratePct)
	}
	if !acct.Value.IsPositive() {
		return loan.Loan{}, acct, validation(CodeLtvExceeded, "collateral %s has no value to borrow against", acct.CollateralID)
	}
	if v := e.ValidateLoanRequest(amount, acct.Value); !v.Valid {
		return loan.Loan{}, acct, v.Reason
	}

	start := dateutil.StartOfDay(now)
	l := loan.Loan{
		CollateralID: acct.CollateralID,
		Borrower:     acct.Owner,
		Principal:    amount,
		InterestRate: ratePct,
		TermDays:     termDays,
		StartDate:    start,
		DueDate:      dateutil.AddDays(start, termDays),
		Status:       loan.StatusActive,
		TotalOwed:    TotalOwed(amount, ratePct, termDays),
	}
	locked := acct
	locked.Status = collateral.StatusLocked
	locked.LockDate = &start
	return l, locked, nil
}

// ApplyRepayment settles a loan in full and unlocks its collateral. It is the
// only transition that makes a Locked account Available again.
func (e *Engine) ApplyRepayment(l loan.Loan, acct collateral.Account, amount decimal.Decimal, now time.Time) (loan.Loan, collateral.Account, error) {
	if st := e.DeriveLoanStatus(l, now); !st.Outstanding() {
		return l, acct, state(CodeLoanNotActive, "loan %s is %s", l.LoanID, st)
	}
	if acct.CollateralID != l.CollateralID {
		return l, acct, state(CodeCollateralMismatch, "loan %s is secured by %s, not %s", l.LoanID, l.CollateralID, acct.CollateralID)
	}
	if !amount.IsPositive() {
		return l, acct, validation(CodeAmountNonPositive, "repayment amount %s must be positive", amount)
	}
	// loans written before amounts were kept in cents may carry more digits
	if owed := l.TotalOwed.Round(2); amount.LessThan(owed) {
		return l, acct, state(CodePartialRepaymentUnsupported, "repayment %s is less than the %s owed", amount, owed)
	}

	repaid := l
	repaid.Status = loan.StatusRepaid
	at := now.UTC()
	repaid.RepaidAt = &at
	unlocked := acct
	unlocked.Status = collateral.StatusAvailable
	unlocked.LockDate = nil
	return repaid, unlocked, nil
}

// ApplyWithdrawal checks that an account may leave the protocol. Locked
// collateral cannot be withdrawn.
func (e *Engine) ApplyWithdrawal(acct collateral.Account) error {
	if acct.Status != collateral.StatusAvailable {
		return state(CodeCollateralUnavailable, "collateral %s is %s and cannot be withdrawn", acct.CollateralID, acct.Status)
	}
	return nil
}

// ApplyDefault marks an outstanding loan Defaulted. The collateral stays
// Locked; releasing it to the lender happens on the ledger.
func (e *Engine) ApplyDefault(l loan.Loan, now time.Time) (loan.Loan, error) {
	if st := e.DeriveLoanStatus(l, now); !st.Outstanding() {
		return l, state(CodeLoanNotActive, "loan %s is %s", l.LoanID, st)
	}
	l.Status = loan.StatusDefaulted
	return l, nil
}
