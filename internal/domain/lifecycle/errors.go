package lifecycle

import "fmt"

// Kind separates bad input (validation) from a request the current state
// forbids (state). The HTTP layer maps them to 422 and 409.
type Kind string

const (
	KindValidation Kind = "validation"
	KindState      Kind = "state"
)

// Code names a rejection reason. Clients match on it; messages may change.
type Code string

const (
	CodeAmountNonPositive           Code = "AmountNonPositive"
	CodeLtvExceeded                 Code = "LtvExceeded"
	CodeBelowMinimumDeposit         Code = "BelowMinimumDeposit"
	CodeInvalidTerm                 Code = "InvalidTerm"
	CodeInvalidInterestRate         Code = "InvalidInterestRate"
	CodeUnknownAssetType            Code = "UnknownAssetType"
	CodeCollateralUnavailable       Code = "CollateralUnavailable"
	CodeCollateralMismatch          Code = "CollateralMismatch"
	CodeLoanNotActive               Code = "LoanNotActive"
	CodePartialRepaymentUnsupported Code = "PartialRepaymentUnsupported"
)

// Error is a deterministic rejection of an engine operation. It is always
// returned before any entity is changed.
type Error struct {
	Kind Kind
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is matches on Code so callers can compare against the sentinels below
// regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func validation(code Code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func state(code Code, format string, args ...any) *Error {
	return &Error{Kind: KindState, Code: code, Msg: fmt.Sprintf(format, args...)}
}

var (
	ErrAmountNonPositive   = &Error{Kind: KindValidation, Code: CodeAmountNonPositive}
	ErrLtvExceeded         = &Error{Kind: KindValidation, Code: CodeLtvExceeded}
	ErrBelowMinimumDeposit = &Error{Kind: KindValidation, Code: CodeBelowMinimumDeposit}
	ErrInvalidTerm         = &Error{Kind: KindValidation, Code: CodeInvalidTerm}
	ErrInvalidInterestRate = &Error{Kind: KindValidation, Code: CodeInvalidInterestRate}
	ErrUnknownAssetType    = &Error{Kind: KindValidation, Code: CodeUnknownAssetType}

	ErrCollateralUnavailable       = &Error{Kind: KindState, Code: CodeCollateralUnavailable}
	ErrCollateralMismatch          = &Error{Kind: KindState, Code: CodeCollateralMismatch}
	ErrLoanNotActive               = &Error{Kind: KindState, Code: CodeLoanNotActive}
	ErrPartialRepaymentUnsupported = &Error{Kind: KindState, Code: CodePartialRepaymentUnsupported}
)
