package daml

import (
	"context"
	"fmt"
	"strings"
	"time"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/counterparty"
	"privylend-backend/internal/domain/ledger"
	"privylend-backend/internal/domain/lifecycle"
	"privylend-backend/internal/domain/loan"
	"privylend-backend/pkg/dateutil"
	"privylend-backend/pkg/money"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// tagOf reads a Daml enum or variant, encoded either as a bare string or as
// {"tag": "..."}.
func tagOf(r gjson.Result) string {
	if r.IsObject() {
		return r.Get("tag").String()
	}
	return r.String()
}

func decimalOf(r gjson.Result, field string) (decimal.Decimal, error) {
	d, err := money.Parse(r.Get(field).String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("field %s: %w", field, err)
	}
	return d, nil
}

func dateOf(r gjson.Result, field string) (time.Time, error) {
	t, err := dateutil.ParseISO(r.Get(field).String())
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s: %w", field, err)
	}
	return t, nil
}

func (c *Client) assetType(contractID, tag string) (collateral.AssetType, error) {
	if c.strict {
		return collateral.ParseAssetTag(tag)
	}
	a, defaulted := collateral.MapAssetTag(tag)
	if defaulted {
		c.log.WithFields(logrus.Fields{"contract_id": contractID, "tag": tag, "mapped": a}).
			Warn("unrecognised asset tag mapped to default")
	}
	return a, nil
}

func (c *Client) loanStatus(contractID, tag string) (loan.Status, error) {
	if c.strict {
		return loan.ParseStatusTag(tag)
	}
	s, defaulted := loan.MapStatusTag(tag)
	if defaulted {
		c.log.WithFields(logrus.Fields{"contract_id": contractID, "tag": tag, "mapped": s}).
			Warn("unrecognised loan status tag mapped to default")
	}
	return s, nil
}

func (c *Client) decodeAccount(ev gjson.Result) (collateral.Account, error) {
	cid := ev.Get("contractId").String()
	p := ev.Get("payload")

	at, err := c.assetType(cid, tagOf(p.Get("assetType")))
	if err != nil {
		return collateral.Account{}, err
	}
	value, err := decimalOf(p, "value")
	if err != nil {
		return collateral.Account{}, err
	}
	a := collateral.Account{
		CollateralID: cid,
		Owner:        p.Get("owner").String(),
		AssetType:    at,
		Value:        value,
		Status:       collateral.StatusAvailable,
	}
	if strings.Contains(tagOf(p.Get("status")), string(collateral.StatusLocked)) {
		a.Status = collateral.StatusLocked
	}
	if ld := p.Get("lockDate"); ld.Exists() && ld.Type != gjson.Null {
		t, err := dateOf(p, "lockDate")
		if err != nil {
			return collateral.Account{}, err
		}
		a.LockDate = &t
	}
	return a, nil
}

func (c *Client) decodeLoan(ev gjson.Result) (loan.Loan, error) {
	cid := ev.Get("contractId").String()
	p := ev.Get("payload")

	st, err := c.loanStatus(cid, tagOf(p.Get("status")))
	if err != nil {
		return loan.Loan{}, err
	}
	principal, err := decimalOf(p, "principal")
	if err != nil {
		return loan.Loan{}, err
	}
	rate, err := decimalOf(p, "interestRate")
	if err != nil {
		return loan.Loan{}, err
	}
	start, err := dateOf(p, "startDate")
	if err != nil {
		return loan.Loan{}, err
	}
	due, err := dateOf(p, "dueDate")
	if err != nil {
		return loan.Loan{}, err
	}
	// the contract carries dates, not a term
	term := dateutil.DaysBetween(start, due)
	return loan.Loan{
		LoanID:       cid,
		CollateralID: p.Get("collateralId").String(),
		Borrower:     p.Get("borrower").String(),
		Lender:       p.Get("lender").String(),
		Principal:    principal,
		InterestRate: rate,
		TermDays:     term,
		StartDate:    start,
		DueDate:      due,
		Status:       st,
		TotalOwed:    lifecycle.TotalOwed(principal, rate, term),
	}, nil
}

func (c *Client) ListCollateralAccounts(ctx context.Context, owner string) ([]collateral.Account, error) {
	evs, err := c.query(ctx, tplCollateralAccount, map[string]any{"owner": owner})
	if err != nil {
		return nil, err
	}
	out := make([]collateral.Account, 0, len(evs))
	for _, ev := range evs {
		a, err := c.decodeAccount(ev)
		if err != nil {
			return nil, malformed(ev.Get("contractId").String(), err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (c *Client) ListLoans(ctx context.Context, borrower string) ([]loan.Loan, error) {
	evs, err := c.query(ctx, tplLoan, map[string]any{"borrower": borrower})
	if err != nil {
		return nil, err
	}
	out := make([]loan.Loan, 0, len(evs))
	for _, ev := range evs {
		l, err := c.decodeLoan(ev)
		if err != nil {
			return nil, malformed(ev.Get("contractId").String(), err)
		}
		out = append(out, l)
	}
	return out, nil
}

func (c *Client) ListLendingCounterparties(ctx context.Context) ([]counterparty.Pool, error) {
	evs, err := c.query(ctx, tplLendingPool, nil)
	if err != nil {
		return nil, err
	}
	out := make([]counterparty.Pool, 0, len(evs))
	for _, ev := range evs {
		p := ev.Get("payload")
		funds, err := decimalOf(p, "availableFunds")
		if err != nil {
			return nil, malformed(ev.Get("contractId").String(), err)
		}
		out = append(out, counterparty.Pool{
			PoolID:         ev.Get("contractId").String(),
			Owner:          p.Get("owner").String(),
			Name:           p.Get("name").String(),
			AvailableFunds: funds,
		})
	}
	return out, nil
}

func (c *Client) CreateCollateralAccount(ctx context.Context, n ledger.NewCollateral) (string, error) {
	return c.create(ctx, tplCollateralAccount, map[string]any{
		"owner":     n.Owner,
		"assetType": collateral.ToLedgerAssetTag(n.AssetType),
		"value":     n.Value.String(),
		"status":    string(collateral.StatusAvailable),
	})
}

// CreateLoanRequest files a LoanRequest contract. The lender's acceptance on
// the ledger is what locks the collateral and creates the Loan.
func (c *Client) CreateLoanRequest(ctx context.Context, r ledger.LoanRequest) (string, error) {
	return c.create(ctx, tplLoanRequest, map[string]any{
		"borrower":     r.Borrower,
		"lender":       r.Lender,
		"collateralId": r.CollateralID,
		"amount":       r.Amount.String(),
		"termDays":     r.TermDays,
		"interestRate": r.InterestRate.String(),
	})
}

func (c *Client) Repay(ctx context.Context, loanID string, amount decimal.Decimal) error {
	return c.exercise(ctx, tplLoan, loanID, choiceRepay, map[string]any{"amount": amount.String()})
}

// MarkDefault exercises the lender's choice on the Loan. The ledger checks
// that the token's party is the loan's lender.
func (c *Client) MarkDefault(ctx context.Context, lender, loanID string) error {
	return c.exercise(ctx, tplLoan, loanID, choiceMarkDefault, nil)
}

// PendingOrigination is always true: a LoanRequest becomes a Loan only when
// the lender accepts it on the ledger.
func (c *Client) PendingOrigination() bool { return true }

func (c *Client) WithdrawCollateral(ctx context.Context, collateralID string) error {
	return c.exercise(ctx, tplCollateralAccount, collateralID, choiceWithdraw, nil)
}
