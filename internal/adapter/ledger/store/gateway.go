// Package store implements the ledger gateway on the relational store. Every
// write is one transaction that locks the rows it touches and re-runs the
// lifecycle transition under that lock.
package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/counterparty"
	"privylend-backend/internal/domain/ledger"
	"privylend-backend/internal/domain/lifecycle"
	"privylend-backend/internal/domain/loan"
	"privylend-backend/internal/domain/uow"
	"privylend-backend/pkg/id"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var _ ledger.Gateway = (*Gateway)(nil)

type Gateway struct {
	uow    uow.UnitOfWork
	repos  uow.Repos
	engine *lifecycle.Engine
	now    func() time.Time
	log    *logrus.Entry
}

type Option func(*Gateway)

func WithClock(now func() time.Time) Option { return func(g *Gateway) { g.now = now } }

func WithLogger(l *logrus.Entry) Option { return func(g *Gateway) { g.log = l } }

func New(tx uow.UnitOfWork, repos uow.Repos, engine *lifecycle.Engine, opts ...Option) *Gateway {
	g := &Gateway{
		uow:    tx,
		repos:  repos,
		engine: engine,
		now:    func() time.Time { return time.Now().UTC() },
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, o := range opts {
		o(g)
	}
	g.log = g.log.WithField("gateway", "store")
	return g
}

func (g *Gateway) ListCollateralAccounts(ctx context.Context, owner string) ([]collateral.Account, error) {
	out, err := g.repos.Collateral.ListByOwner(ctx, owner)
	return out, classify(err)
}

func (g *Gateway) ListLoans(ctx context.Context, borrower string) ([]loan.Loan, error) {
	out, err := g.repos.Loans.ListByBorrower(ctx, borrower)
	return out, classify(err)
}

func (g *Gateway) ListLendingCounterparties(ctx context.Context) ([]counterparty.Pool, error) {
	out, err := g.repos.Pools.List(ctx)
	return out, classify(err)
}

func (g *Gateway) CreateCollateralAccount(ctx context.Context, p ledger.NewCollateral) (string, error) {
	acct, err := g.engine.ApplyDeposit(p.AssetType, p.Value)
	if err != nil {
		return "", err
	}
	acct.CollateralID = id.New()
	acct.Owner = p.Owner
	if err := g.repos.Collateral.Create(ctx, &acct); err != nil {
		return "", classify(err)
	}
	g.log.WithFields(logrus.Fields{"collateral_id": acct.CollateralID, "owner": acct.Owner}).Info("collateral deposited")
	return acct.CollateralID, nil
}

func (g *Gateway) CreateLoanRequest(ctx context.Context, p ledger.LoanRequest) (string, error) {
	var loanID string
	err := g.uow.WithinCollateralTx(ctx, p.CollateralID, func(r uow.Repos, a *collateral.Account) error {
		if a.Owner != p.Borrower {
			return fmt.Errorf("%w: collateral %s", ledger.ErrNotFound, p.CollateralID)
		}
		l, locked, err := g.engine.ApplyLoanOrigination(*a, p.Amount, p.TermDays, p.InterestRate, g.now())
		if err != nil {
			return err
		}
		if cur, err := outstandingOn(ctx, r, a.CollateralID); err != nil {
			return err
		} else if cur != nil {
			return fmt.Errorf("%w: collateral %s already backs loan %s", lifecycle.ErrCollateralUnavailable, a.CollateralID, cur.LoanID)
		}
		l.LoanID = id.New()
		l.Lender = p.Lender
		if err := r.Loans.Create(ctx, &l); err != nil {
			return err
		}
		if err := r.Collateral.Save(ctx, &locked); err != nil {
			return err
		}
		loanID = l.LoanID
		return nil
	})
	if err != nil {
		return "", classify(err)
	}
	g.log.WithFields(logrus.Fields{"loan_id": loanID, "collateral_id": p.CollateralID}).Info("loan originated")
	return loanID, nil
}

func (g *Gateway) Repay(ctx context.Context, loanID string, amount decimal.Decimal) error {
	err := g.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		a, err := r.Collateral.GetByCollateralIDForUpdate(ctx, l.CollateralID)
		if err != nil {
			return err
		}
		repaid, unlocked, err := g.engine.ApplyRepayment(*l, *a, amount, g.now())
		if err != nil {
			return err
		}
		if cur, err := outstandingOn(ctx, r, l.CollateralID); err != nil {
			return err
		} else if cur != nil && cur.LoanID != l.LoanID {
			return fmt.Errorf("%w: collateral %s is held by loan %s", lifecycle.ErrCollateralMismatch, l.CollateralID, cur.LoanID)
		}
		if err := r.Loans.Save(ctx, &repaid); err != nil {
			return err
		}
		return r.Collateral.Save(ctx, &unlocked)
	})
	if err != nil {
		return classify(err)
	}
	g.log.WithField("loan_id", loanID).Info("loan repaid")
	return nil
}

func (g *Gateway) WithdrawCollateral(ctx context.Context, collateralID string) error {
	err := g.uow.WithinCollateralTx(ctx, collateralID, func(r uow.Repos, a *collateral.Account) error {
		if err := g.engine.ApplyWithdrawal(*a); err != nil {
			return err
		}
		if cur, err := outstandingOn(ctx, r, collateralID); err != nil {
			return err
		} else if cur != nil {
			return fmt.Errorf("%w: collateral %s still backs loan %s", lifecycle.ErrCollateralUnavailable, collateralID, cur.LoanID)
		}
		return r.Collateral.Delete(ctx, a)
	})
	if err != nil {
		return classify(err)
	}
	g.log.WithField("collateral_id", collateralID).Info("collateral withdrawn")
	return nil
}

// MarkDefault defaults an outstanding loan. Only the loan's lender may do so;
// to anyone else the loan does not exist. The collateral stays Locked.
func (g *Gateway) MarkDefault(ctx context.Context, lender, loanID string) error {
	err := g.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if l.Lender == "" || l.Lender != lender {
			return fmt.Errorf("%w: loan %s", ledger.ErrNotFound, loanID)
		}
		defaulted, err := g.engine.ApplyDefault(*l, g.now())
		if err != nil {
			return err
		}
		return r.Loans.Save(ctx, &defaulted)
	})
	if err != nil {
		return classify(err)
	}
	g.log.WithFields(logrus.Fields{"loan_id": loanID, "lender": lender}).Warn("loan defaulted")
	return nil
}

// PendingOrigination is false: the store commits the loan immediately.
func (g *Gateway) PendingOrigination() bool { return false }

// Seed loads the default dataset for owner when the store is empty.
func (g *Gateway) Seed(ctx context.Context, owner string) error {
	return g.uow.WithinTx(ctx, func(r uow.Repos) error {
		n, err := r.Collateral.Count(ctx)
		if err != nil || n > 0 {
			return err
		}
		ds := ledger.DefaultDataset(owner)
		for i := range ds.Collateral {
			if err := r.Collateral.Create(ctx, &ds.Collateral[i]); err != nil {
				return err
			}
		}
		for i := range ds.Loans {
			if err := r.Loans.Create(ctx, &ds.Loans[i]); err != nil {
				return err
			}
		}
		for i := range ds.Pools {
			if err := r.Pools.Create(ctx, &ds.Pools[i]); err != nil {
				return err
			}
		}
		g.log.WithField("owner", owner).Info("seeded default dataset")
		return nil
	})
}

// outstandingOn returns the loan the collateral currently secures, or nil.
// A Locked account has exactly one; an Available account has none.
func outstandingOn(ctx context.Context, r uow.Repos, collateralID string) (*loan.Loan, error) {
	l, err := r.Loans.GetOutstandingByCollateralID(ctx, collateralID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// classify maps store failures onto the gateway's error vocabulary. Engine
// errors pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var lerr *lifecycle.Error
	if errors.As(err, &lerr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ledger.ErrNotFound, err)
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ledger.ErrConnectivity, err)
	}
	return err
}
