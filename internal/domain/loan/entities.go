package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("loan not found")
	ErrUnknownStatusTag = errors.New("unknown loan status tag")
)

// Status is a loan's lifecycle state. DueSoon is derived on read and never
// stored; Repaid and Defaulted are terminal.
type Status string

const (
	StatusActive    Status = "Active"
	StatusDueSoon   Status = "DueSoon"
	StatusRepaid    Status = "Repaid"
	StatusDefaulted Status = "Defaulted"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDueSoon, StatusRepaid, StatusDefaulted:
		return true
	}
	return false
}

// Terminal statuses are set by explicit actions and never recomputed from dates.
func (s Status) Terminal() bool { return s == StatusRepaid || s == StatusDefaulted }

// Outstanding reports whether the loan can still be repaid.
func (s Status) Outstanding() bool { return s == StatusActive || s == StatusDueSoon }

func (s Status) Label() string {
	if s == StatusDueSoon {
		return "Due Soon"
	}
	return string(s)
}

// Loan holds a back-reference to the collateral it locks. Status as stored is
// Active, Repaid or Defaulted; DueSoon is only ever derived.
type Loan struct {
	ID           uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID       string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"id"`
	CollateralID string          `gorm:"size:32;index:idx_loans_collateral" json:"collateralId"`
	Borrower     string          `gorm:"size:255;index:idx_loans_borrower" json:"borrower"`
	Lender       string          `gorm:"size:255" json:"lender,omitempty"`
	Principal    decimal.Decimal `gorm:"type:decimal(20,2)" json:"principal"`
	InterestRate decimal.Decimal `gorm:"type:decimal(8,4)" json:"interestRate"`
	TermDays     int             `json:"termDays"`
	StartDate    time.Time       `gorm:"type:date" json:"startDate"`
	DueDate      time.Time       `gorm:"type:date" json:"dueDate"`
	Status       Status          `gorm:"type:enum('Active','DueSoon','Repaid','Defaulted');default:'Active'" json:"status"`
	TotalOwed    decimal.Decimal `gorm:"type:decimal(24,8)" json:"totalOwed"`
	RepaidAt     *time.Time      `json:"-"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"-"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"-"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }
