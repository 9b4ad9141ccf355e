// Package lending orchestrates the borrower flows: the engine decides, the
// ledger gateway commits.
package lending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/ledger"
	"privylend-backend/internal/domain/lifecycle"
	"privylend-backend/internal/domain/loan"
	"privylend-backend/internal/infrastructure/cache"

	"github.com/sirupsen/logrus"
)

const noticePendingAcceptance = "Loan request submitted; pending lender acceptance."

// SnapshotStore keeps the last good ledger read per party.
type SnapshotStore interface {
	Get(ctx context.Context, party string) (*cache.Snapshot, error)
	Put(ctx context.Context, party string, s cache.Snapshot) error
	TrackParty(ctx context.Context, party string) error
}

// Recorder receives transition and fallback events.
type Recorder interface {
	Transition(name string, err error)
	Fallback(source string)
}

type nopRecorder struct{}

func (nopRecorder) Transition(string, error) {}
func (nopRecorder) Fallback(string)          {}

type Usecase struct {
	gw            ledger.Gateway
	engine        *lifecycle.Engine
	snapshots     SnapshotStore
	rec           Recorder
	now           func() time.Time
	log           *logrus.Entry
	guard         *inflight
	defaultLender string
}

type Option func(*Usecase)

func WithSnapshots(s SnapshotStore) Option { return func(u *Usecase) { u.snapshots = s } }
func WithRecorder(r Recorder) Option       { return func(u *Usecase) { u.rec = r } }
func WithClock(now func() time.Time) Option {
	return func(u *Usecase) { u.now = now }
}
func WithLogger(l *logrus.Entry) Option     { return func(u *Usecase) { u.log = l } }
func WithDefaultLender(party string) Option { return func(u *Usecase) { u.defaultLender = party } }

func NewUsecase(gw ledger.Gateway, engine *lifecycle.Engine, opts ...Option) *Usecase {
	u := &Usecase{
		gw:     gw,
		engine: engine,
		rec:    nopRecorder{},
		now:    func() time.Time { return time.Now().UTC() },
		log:    logrus.NewEntry(logrus.StandardLogger()),
		guard:  newInflight(),
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Usecase) Protocol() ProtocolDTO {
	p := u.engine.Params
	types := make([]string, 0, len(collateral.AssetTypes))
	for _, a := range collateral.AssetTypes {
		types = append(types, string(a))
	}
	return ProtocolDTO{
		LTVRatio:             p.LTVRatio.InexactFloat64(),
		LTVCeilingPct:        p.LTVCeilingPct.InexactFloat64(),
		MinDeposit:           p.MinDeposit.InexactFloat64(),
		DueSoonThresholdDays: p.DueSoonThresholdDays,
		DefaultInterestRate:  p.DefaultInterestRatePct.InexactFloat64(),
		TermPresets:          append([]int(nil), p.TermPresets...),
		AssetTypes:           types,
	}
}

func (u *Usecase) Deposit(ctx context.Context, in DepositInput) (*CollateralDTO, error) {
	release, err := u.guard.acquire("deposit", in.Owner, "")
	if err != nil {
		return nil, err
	}
	defer release()

	acct, err := u.engine.ApplyDeposit(collateral.AssetType(in.AssetType), in.Value)
	u.rec.Transition("deposit", err)
	if err != nil {
		return nil, err
	}
	id, err := u.gw.CreateCollateralAccount(ctx, ledger.NewCollateral{Owner: in.Owner, AssetType: acct.AssetType, Value: acct.Value})
	if err != nil {
		return nil, err
	}
	acct.CollateralID = id
	acct.Owner = in.Owner
	u.log.WithFields(logrus.Fields{"party": in.Owner, "collateral_id": id, "asset_type": acct.AssetType}).Info("collateral deposited")
	dto := u.collateralDTO(acct)
	return &dto, nil
}

func (u *Usecase) RequestLoan(ctx context.Context, in LoanInput) (*LoanDTO, error) {
	release, err := u.guard.acquire("loan", in.Borrower, in.CollateralID)
	if err != nil {
		return nil, err
	}
	defer release()

	acct, err := u.findAccount(ctx, in.Borrower, in.CollateralID)
	if err != nil {
		return nil, err
	}
	rate := u.engine.Params.DefaultInterestRatePct
	if in.InterestRate != nil {
		rate = *in.InterestRate
	}
	now := u.now()

	l, _, err := u.engine.ApplyLoanOrigination(acct, in.Amount, in.TermDays, rate, now)
	u.rec.Transition("origination", err)
	if err != nil {
		return nil, err
	}

	lender := u.lenderFor(ctx, in.Lender)
	id, err := u.gw.CreateLoanRequest(ctx, ledger.LoanRequest{
		Borrower:     in.Borrower,
		Lender:       lender,
		CollateralID: acct.CollateralID,
		Amount:       l.Principal,
		TermDays:     l.TermDays,
		InterestRate: l.InterestRate,
	})
	if err != nil {
		return nil, err
	}
	l.LoanID = id
	l.Lender = lender
	u.log.WithFields(logrus.Fields{"party": in.Borrower, "loan_id": id, "collateral_id": acct.CollateralID}).Info("loan requested")
	dto := u.loanDTO(l, now)
	if u.gw.PendingOrigination() {
		dto.PendingAcceptance = true
		dto.Notice = noticePendingAcceptance
	}
	return &dto, nil
}

func (u *Usecase) Repay(ctx context.Context, in RepayInput) (*LoanDTO, error) {
	release, err := u.guard.acquire("repay", in.Borrower, in.LoanID)
	if err != nil {
		return nil, err
	}
	defer release()

	l, err := u.findLoan(ctx, in.Borrower, in.LoanID)
	if err != nil {
		return nil, err
	}
	// the loan's collateral may be missing; the engine then reports a mismatch
	acct, err := u.findAccount(ctx, in.Borrower, l.CollateralID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	amount := in.Amount
	if amount.IsZero() {
		amount = l.TotalOwed
	}
	now := u.now()
	repaid, _, err := u.engine.ApplyRepayment(l, acct, amount, now)
	u.rec.Transition("repayment", err)
	if err != nil {
		return nil, err
	}
	if err := u.gw.Repay(ctx, l.LoanID, amount); err != nil {
		return nil, err
	}
	u.log.WithFields(logrus.Fields{"party": in.Borrower, "loan_id": l.LoanID, "amount": amount.String()}).Info("loan repaid")
	dto := u.loanDTO(repaid, now)
	return &dto, nil
}

func (u *Usecase) Withdraw(ctx context.Context, owner, collateralID string) error {
	release, err := u.guard.acquire("withdraw", owner, collateralID)
	if err != nil {
		return err
	}
	defer release()

	acct, err := u.findAccount(ctx, owner, collateralID)
	if err != nil {
		return err
	}
	err = u.engine.ApplyWithdrawal(acct)
	u.rec.Transition("withdrawal", err)
	if err != nil {
		return err
	}
	if err := u.gw.WithdrawCollateral(ctx, collateralID); err != nil {
		return err
	}
	u.log.WithFields(logrus.Fields{"party": owner, "collateral_id": collateralID}).Info("collateral withdrawn")
	return nil
}

// Default lets a lender mark one of its outstanding loans Defaulted. The
// gateway decides under its own lock; the borrower's collateral stays Locked.
func (u *Usecase) Default(ctx context.Context, in DefaultInput) error {
	release, err := u.guard.acquire("default", in.Lender, in.LoanID)
	if err != nil {
		return err
	}
	defer release()

	err = u.gw.MarkDefault(ctx, in.Lender, in.LoanID)
	var lerr *lifecycle.Error
	if err == nil || errors.As(err, &lerr) {
		u.rec.Transition("default", err)
	}
	if err != nil {
		return err
	}
	u.log.WithFields(logrus.Fields{"party": in.Lender, "loan_id": in.LoanID}).Warn("loan defaulted by lender")
	return nil
}

func (u *Usecase) Quote(ctx context.Context, in QuoteInput) (*QuoteDTO, error) {
	if in.TermDays <= 0 {
		return nil, fmt.Errorf("%w: term of %d days", lifecycle.ErrInvalidTerm, in.TermDays)
	}
	value := in.CollateralValue
	if in.CollateralID != "" {
		acct, err := u.findAccount(ctx, in.Party, in.CollateralID)
		if err != nil {
			return nil, err
		}
		value = acct.Value
	}
	rate := u.engine.Params.DefaultInterestRatePct
	if in.InterestRate != nil {
		rate = *in.InterestRate
	}
	if rate.IsNegative() {
		return nil, fmt.Errorf("%w: %s%%", lifecycle.ErrInvalidInterestRate, rate)
	}

	q := u.engine.Quote(value, in.Amount, in.TermDays, rate)
	dto := &QuoteDTO{
		CollateralValue:   q.CollateralValue.InexactFloat64(),
		MaxLoan:           q.MaxLoan.InexactFloat64(),
		MaxLoanDisplay:    formatMoney(q.MaxLoan),
		RequestedAmount:   q.RequestedAmount.InexactFloat64(),
		LTV:               q.LTV.Round(2).InexactFloat64(),
		LTVDisplay:        formatPercent(q.LTV),
		TermDays:          q.TermDays,
		InterestRate:      q.InterestRate.InexactFloat64(),
		EstimatedInterest: q.EstimatedInterest.Round(2).InexactFloat64(),
		TotalRepayment:    q.TotalRepayment.Round(2).InexactFloat64(),
		TotalDisplay:      formatMoney(q.TotalRepayment),
		Valid:             q.Validation.Valid,
	}
	if r := q.Validation.Reason; r != nil {
		dto.ReasonCode = string(r.Code)
		dto.Reason = r.Error()
	}
	return dto, nil
}

// Counterparties lists lending pools, falling back to the default pools when
// the ledger is unreachable.
func (u *Usecase) Counterparties(ctx context.Context) ([]PoolDTO, error) {
	pools, err := u.gw.ListLendingCounterparties(ctx)
	if isConnectivity(err) {
		u.log.WithError(err).Warn("ledger unreachable, serving default lending pools")
		u.rec.Fallback("defaults")
		pools, err = ledger.DefaultPools(), nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]PoolDTO, 0, len(pools))
	for _, p := range pools {
		out = append(out, poolDTO(p))
	}
	return out, nil
}

func (u *Usecase) findAccount(ctx context.Context, owner, collateralID string) (collateral.Account, error) {
	accts, err := u.gw.ListCollateralAccounts(ctx, owner)
	if err != nil {
		return collateral.Account{}, err
	}
	for _, a := range accts {
		if a.CollateralID == collateralID {
			return a, nil
		}
	}
	return collateral.Account{}, fmt.Errorf("%w: collateral %s", ledger.ErrNotFound, collateralID)
}

func (u *Usecase) findLoan(ctx context.Context, borrower, loanID string) (loan.Loan, error) {
	loans, err := u.gw.ListLoans(ctx, borrower)
	if err != nil {
		return loan.Loan{}, err
	}
	for _, l := range loans {
		if l.LoanID == loanID {
			return l, nil
		}
	}
	return loan.Loan{}, fmt.Errorf("%w: loan %s", ledger.ErrNotFound, loanID)
}

func (u *Usecase) lenderFor(ctx context.Context, requested string) string {
	if requested != "" {
		return requested
	}
	if u.defaultLender != "" {
		return u.defaultLender
	}
	pools, err := u.gw.ListLendingCounterparties(ctx)
	if err != nil || len(pools) == 0 {
		return ""
	}
	return pools[0].Owner
}
