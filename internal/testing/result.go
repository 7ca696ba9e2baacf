package testing

import (
	"github.com/LeJamon/goListingd/internal/core/tx"
)

// TxResult represents the result of submitting an invocation.
type TxResult struct {
	// Result is the result code; Code is its name (e.g., "tesSUCCESS").
	Result tx.Result
	Code   string

	// Success indicates whether the invocation was applied.
	Success bool

	// Message provides additional details about the result.
	Message string

	Hash     [32]byte
	Metadata *tx.Metadata
}

func resultFrom(res tx.ApplyResult) TxResult {
	return TxResult{
		Result:   res.Result,
		Code:     res.Result.String(),
		Success:  res.Applied,
		Message:  res.Message,
		Hash:     res.Hash,
		Metadata: res.Metadata,
	}
}

// IsMalformed reports a tem result.
func (r TxResult) IsMalformed() bool {
	return r.Result.IsTem()
}
