package token

import (
	"errors"

	"github.com/LeJamon/goListingd/internal/core/tx"
)

// ErrorKind identifies a kind of error that can be used to define new errors
// via const SomeError = token.ErrorKind("something").
type ErrorKind string

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error pairs an error with details.
type Error struct {
	wrapped error
	detail  string
}

// Error satisfies the error interface, combining the wrapped error message with
// the details.
func (e Error) Error() string {
	return e.wrapped.Error() + ": " + e.detail
}

// Unwrap returns the wrapped error, allowing errors.Is and errors.As to work.
func (e Error) Unwrap() error {
	return e.wrapped
}

// NewError wraps the provided Error with details in a Error, facilitating the
// use of errors.Is and errors.As via errors.Unwrap.
func NewError(err error, detail string) Error {
	return Error{
		wrapped: err,
		detail:  detail,
	}
}

const (
	ErrInsufficientFunds   = ErrorKind("insufficient funds")
	ErrAssetMismatch       = ErrorKind("asset mismatch")
	ErrOwnerMismatch       = ErrorKind("owner does not match")
	ErrMissingAuthority    = ErrorKind("authority did not sign")
	ErrOverflow            = ErrorKind("amount overflow")
	ErrNonZeroBalance      = ErrorKind("balance not empty")
	ErrNoEntry             = ErrorKind("no such entry")
	ErrAlreadyExists       = ErrorKind("entry already exists")
	ErrInsufficientDeposit = ErrorKind("payer cannot cover deposit")
	ErrBadAssociation      = ErrorKind("address is not the associated balance")
	ErrNoMintAuthority     = ErrorKind("asset has no mint authority")
	ErrProgramOwned        = ErrorKind("balance is owned by a derived address")
)

// ResultOf maps an asset service error to the result the invocation fails with.
func ResultOf(err error) tx.Result {
	var kind ErrorKind
	if !errors.As(err, &kind) {
		return tx.ResultFromError(err)
	}
	switch kind {
	case ErrInsufficientFunds:
		return tx.TecUNFUNDED
	case ErrAssetMismatch:
		return tx.TefINVALID_ASSET
	case ErrOwnerMismatch:
		return tx.TefINVALID_OWNER
	case ErrMissingAuthority, ErrNoMintAuthority, ErrProgramOwned:
		return tx.TefUNAUTHORIZED
	case ErrOverflow:
		return tx.TecOVERFLOW
	case ErrNonZeroBalance:
		return tx.TecHAS_BALANCE
	case ErrNoEntry:
		return tx.TecNO_ENTRY
	case ErrAlreadyExists:
		return tx.TecDUPLICATE
	case ErrInsufficientDeposit:
		return tx.TecINSUFFICIENT_DEPOSIT
	case ErrBadAssociation:
		return tx.TefBAD_DERIVATION
	default:
		return tx.TefFAILURE
	}
}
