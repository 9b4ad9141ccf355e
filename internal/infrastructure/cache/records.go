package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/counterparty"
	"privylend-backend/internal/domain/ledger"
	"privylend-backend/internal/domain/loan"
	"privylend-backend/pkg/dateutil"

	"github.com/shopspring/decimal"
)

// Stored snapshots carry amounts as JSON numbers and dates as "YYYY-MM-DD".
// json.Number keeps the decimal digits exact on both sides.

type snapshotRecord struct {
	Collateral []collateralRecord `json:"collateral"`
	Loans      []loanRecord       `json:"loans"`
	Pools      []poolRecord       `json:"pools"`
	FetchedAt  time.Time          `json:"fetchedAt"`
}

type collateralRecord struct {
	ID        string      `json:"id"`
	Owner     string      `json:"owner"`
	AssetType string      `json:"assetType"`
	Value     json.Number `json:"value"`
	Status    string      `json:"status"`
	LockDate  string      `json:"lockDate,omitempty"`
}

type loanRecord struct {
	ID           string      `json:"id"`
	CollateralID string      `json:"collateralId"`
	Borrower     string      `json:"borrower"`
	Lender       string      `json:"lender,omitempty"`
	Principal    json.Number `json:"principal"`
	InterestRate json.Number `json:"interestRate"`
	TermDays     int         `json:"termDays"`
	StartDate    string      `json:"startDate"`
	DueDate      string      `json:"dueDate"`
	Status       string      `json:"status"`
	TotalOwed    json.Number `json:"totalOwed"`
}

type poolRecord struct {
	ID             string      `json:"id"`
	Owner          string      `json:"owner"`
	Name           string      `json:"name"`
	AvailableFunds json.Number `json:"availableFunds"`
}

func number(d decimal.Decimal) json.Number { return json.Number(d.String()) }

func toRecord(s Snapshot) snapshotRecord {
	r := snapshotRecord{
		Collateral: make([]collateralRecord, 0, len(s.Collateral)),
		Loans:      make([]loanRecord, 0, len(s.Loans)),
		Pools:      make([]poolRecord, 0, len(s.Pools)),
		FetchedAt:  s.FetchedAt.UTC(),
	}
	for _, a := range s.Collateral {
		c := collateralRecord{
			ID: a.CollateralID, Owner: a.Owner, AssetType: string(a.AssetType),
			Value: number(a.Value), Status: string(a.Status),
		}
		if a.LockDate != nil {
			c.LockDate = dateutil.ISO(*a.LockDate)
		}
		r.Collateral = append(r.Collateral, c)
	}
	for _, l := range s.Loans {
		r.Loans = append(r.Loans, loanRecord{
			ID: l.LoanID, CollateralID: l.CollateralID, Borrower: l.Borrower, Lender: l.Lender,
			Principal: number(l.Principal), InterestRate: number(l.InterestRate), TermDays: l.TermDays,
			StartDate: dateutil.ISO(l.StartDate), DueDate: dateutil.ISO(l.DueDate),
			Status: string(l.Status), TotalOwed: number(l.TotalOwed),
		})
	}
	for _, p := range s.Pools {
		r.Pools = append(r.Pools, poolRecord{
			ID: p.PoolID, Owner: p.Owner, Name: p.Name, AvailableFunds: number(p.AvailableFunds),
		})
	}
	return r
}

func decimalOf(n json.Number, field, id string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s of %s: %w", field, id, err)
	}
	return d, nil
}

func dateOf(s, field, id string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := dateutil.ParseISO(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s of %s: %w", field, id, err)
	}
	return t, nil
}

func (r snapshotRecord) snapshot() (Snapshot, error) {
	s := Snapshot{
		Dataset: ledger.Dataset{
			Collateral: make([]collateral.Account, 0, len(r.Collateral)),
			Loans:      make([]loan.Loan, 0, len(r.Loans)),
			Pools:      make([]counterparty.Pool, 0, len(r.Pools)),
		},
		FetchedAt: r.FetchedAt,
	}
	for _, c := range r.Collateral {
		value, err := decimalOf(c.Value, "value", c.ID)
		if err != nil {
			return Snapshot{}, err
		}
		a := collateral.Account{
			CollateralID: c.ID, Owner: c.Owner, AssetType: collateral.AssetType(c.AssetType),
			Value: value, Status: collateral.Status(c.Status),
		}
		if c.LockDate != "" {
			lock, err := dateOf(c.LockDate, "lockDate", c.ID)
			if err != nil {
				return Snapshot{}, err
			}
			a.LockDate = &lock
		}
		s.Collateral = append(s.Collateral, a)
	}
	for _, l := range r.Loans {
		principal, err := decimalOf(l.Principal, "principal", l.ID)
		if err != nil {
			return Snapshot{}, err
		}
		rate, err := decimalOf(l.InterestRate, "interestRate", l.ID)
		if err != nil {
			return Snapshot{}, err
		}
		owed, err := decimalOf(l.TotalOwed, "totalOwed", l.ID)
		if err != nil {
			return Snapshot{}, err
		}
		start, err := dateOf(l.StartDate, "startDate", l.ID)
		if err != nil {
			return Snapshot{}, err
		}
		due, err := dateOf(l.DueDate, "dueDate", l.ID)
		if err != nil {
			return Snapshot{}, err
		}
		s.Loans = append(s.Loans, loan.Loan{
			LoanID: l.ID, CollateralID: l.CollateralID, Borrower: l.Borrower, Lender: l.Lender,
			Principal: principal, InterestRate: rate, TermDays: l.TermDays,
			StartDate: start, DueDate: due, Status: loan.Status(l.Status), TotalOwed: owed,
		})
	}
	for _, p := range r.Pools {
		funds, err := decimalOf(p.AvailableFunds, "availableFunds", p.ID)
		if err != nil {
			return Snapshot{}, err
		}
		s.Pools = append(s.Pools, counterparty.Pool{PoolID: p.ID, Owner: p.Owner, Name: p.Name, AvailableFunds: funds})
	}
	return s, nil
}
