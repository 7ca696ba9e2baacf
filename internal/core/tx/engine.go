package tx

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goListingd/internal/core/lock"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/types"
)

// EngineConfig holds configuration for the invocation engine
type EngineConfig struct {
	// ProgramID is the marketplace address every listing is derived under
	ProgramID types.Address

	// DepositPerByte prices stored bytes, see sle.MinimumDeposit
	DepositPerByte uint64

	// SkipSignatureVerification treats every declared signer as signed (for testing)
	SkipSignatureVerification bool

	// Standalone enables the fund instruction
	Standalone bool
}

// DefaultEngineConfig returns the configuration used when nothing is set.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ProgramID:      types.DefaultMarketplaceID,
		DepositPerByte: sle.DefaultDepositPerByte,
	}
}

// LedgerView is the state an engine reads from.
type LedgerView interface {
	sle.LedgerView

	// ForEach iterates over all state entries
	// If fn returns false, iteration stops early
	ForEach(fn func(key [32]byte, data []byte) bool) error
}

// View is a LedgerView that accepts the writes of a successful invocation.
// Commit must apply all changes or none.
type View interface {
	LedgerView
	Commit(changes []StateChange) error
}

// ApplyResult contains the result of applying an invocation
type ApplyResult struct {
	// Result is the result code
	Result Result

	// Applied indicates if state was changed
	Applied bool

	// Hash identifies the invocation
	Hash [32]byte

	// Metadata contains the changes made by the invocation
	Metadata *Metadata

	// Message is a human-readable result message
	Message string
}

// Engine processes invocations against a ledger
type Engine struct {
	view     View
	config   EngineConfig
	locker   *lock.AccountLocker
	transfer AssetTransfer
	log      logging.Logger
}

// NewEngine creates a new invocation engine
func NewEngine(view View, config EngineConfig, transfer AssetTransfer, log logging.Logger) *Engine {
	if config.DepositPerByte == 0 {
		config.DepositPerByte = sle.DefaultDepositPerByte
	}
	if config.ProgramID.IsZero() {
		config.ProgramID = types.DefaultMarketplaceID
	}
	if log == nil {
		log = logging.Disabled
	}
	return &Engine{
		view:     view,
		config:   config,
		locker:   lock.NewAccountLocker(),
		transfer: transfer,
		log:      log,
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Apply processes an invocation, blocking until its accounts are free.
func (e *Engine) Apply(env *Envelope) ApplyResult {
	res, _ := e.ApplyContext(context.Background(), env)
	return res
}

// ApplyContext is Apply with cancellation while waiting for account locks.
// The error is non-nil only if ctx ended before the invocation ran.
func (e *Engine) ApplyContext(ctx context.Context, env *Envelope) (ApplyResult, error) {
	if env == nil || env.Tx == nil {
		return failed(TemMALFORMED, [32]byte{}), nil
	}
	hash, err := env.Hash(e.config.ProgramID)
	if err != nil {
		return failed(TemMALFORMED, hash), nil
	}

	// Step 1: Preflight checks (syntax validation)
	if result := e.preflight(env.Tx); !result.IsSuccess() {
		return failed(result, hash), nil
	}

	// Step 2: Signatures
	signers, result := e.verify(env)
	if !result.IsSuccess() {
		return failed(result, hash), nil
	}

	// Step 3: Exclusive access to written accounts, shared to read ones
	writes, reads := AccessSets(env.Tx)
	unlock, err := e.locker.LockAccess(ctx, writes, reads)
	if err != nil {
		return failed(TelLOCAL_ERROR, hash), err
	}
	defer unlock()

	// Step 4: Run against a sandbox and commit only on success. The nonce is
	// consumed in the sandbox, so only an applied invocation uses it up.
	table := NewApplyStateTable(e.view, env.Tx.Accounts())
	result = checkSequence(table, env)
	if result.IsSuccess() {
		result = e.doApply(env.Tx, table, signers, hash)
	}

	metadata := &Metadata{TransactionResult: result}
	if result.IsApplied() {
		changes, meta, err := table.Apply()
		if err != nil {
			e.log.Errorf("Failed to build changes for %x: %v", hash, err)
			return failed(TefINTERNAL, hash), nil
		}
		if err := e.view.Commit(changes); err != nil {
			e.log.Errorf("Failed to commit %x: %v", hash, err)
			return failed(TefINTERNAL, hash), nil
		}
		meta.TransactionResult = result
		metadata = meta
	}

	e.log.Debugf("%s %x -> %s", env.Tx.TxType(), hash[:8], result)

	return ApplyResult{
		Result:   result,
		Applied:  result.IsApplied(),
		Hash:     hash,
		Metadata: metadata,
		Message:  result.Message(),
	}, nil
}

func failed(result Result, hash [32]byte) ApplyResult {
	return ApplyResult{
		Result:   result,
		Hash:     hash,
		Metadata: &Metadata{TransactionResult: result},
		Message:  result.Message(),
	}
}

// preflight performs stateless validation.
func (e *Engine) preflight(t Transaction) Result {
	if t.TxType() == TypeFund && !e.config.Standalone {
		return TemDISABLED
	}
	if _, ok := t.(Appliable); !ok {
		return TemUNKNOWN_TYPE
	}
	if err := t.Validate(); err != nil {
		return parseValidationError(err)
	}
	if len(t.Accounts()) == 0 {
		return TemMALFORMED
	}
	return TesSUCCESS
}

func (e *Engine) verify(env *Envelope) (AddressSet, Result) {
	if e.config.SkipSignatureVerification {
		set := make(AddressSet)
		for _, s := range Signers(env.Tx) {
			set[s] = struct{}{}
		}
		return set, TesSUCCESS
	}
	return env.VerifySignatures(e.config.ProgramID)
}

// checkSequence advances the sequence of the first signer to the envelope
// nonce. Envelopes without signers have no sequence.
func checkSequence(view *ApplyStateTable, env *Envelope) Result {
	signers := Signers(env.Tx)
	if len(signers) == 0 {
		return TesSUCCESS
	}
	err := sle.AdvanceSequence(view, signers[0], env.Nonce)
	switch {
	case errors.Is(err, sle.ErrPastSequence):
		return TefPAST_SEQ
	case errors.Is(err, sle.ErrFutureSequence):
		return TefPRE_SEQ
	}
	return ResultFromError(err)
}

// doApply runs the instruction. A panic inside an instruction fails the
// invocation with TefINTERNAL and leaves state untouched.
func (e *Engine) doApply(t Transaction, view *ApplyStateTable, signers AddressSet, hash [32]byte) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("Instruction %s panicked: %v", t.TxType(), r)
			result = TefINTERNAL
		}
	}()

	ctx := &ApplyContext{
		View:     view,
		Signers:  signers,
		Config:   e.config,
		TxHash:   hash,
		Transfer: e.transfer,
		Log:      e.log,
	}
	return t.(Appliable).Apply(ctx)
}

// ResultFromError maps the errors the sandbox itself produces to results.
// Errors it does not recognize become TefINTERNAL.
func ResultFromError(err error) Result {
	switch {
	case err == nil:
		return TesSUCCESS
	case errors.Is(err, ErrUndeclaredAccount), errors.Is(err, ErrReadOnlyAccount):
		return TefUNDECLARED
	case errors.Is(err, sle.ErrEntryNotFound):
		return TecNO_ENTRY
	case errors.Is(err, ErrEntryExists):
		return TecDUPLICATE
	case errors.Is(err, sle.ErrLamportsShort):
		return TecINSUFFICIENT_DEPOSIT
	case errors.Is(err, sle.ErrLamportOverflow):
		return TecOVERFLOW
	default:
		return TefINTERNAL
	}
}

// parseValidationError maps a Validate error to a result by its code prefix.
func parseValidationError(err error) Result {
	msg := err.Error()

	terCodes := map[string]Result{
		"temMALFORMED":      TemMALFORMED,
		"temINVALID_AMOUNT": TemINVALID_AMOUNT,
		"temINVALID_PRICE":  TemINVALID_PRICE,
		"temBAD_SIGNATURE":  TemBAD_SIGNATURE,
		"temUNKNOWN_TYPE":   TemUNKNOWN_TYPE,
		"temDISABLED":       TemDISABLED,
		"temINVALID":        TemINVALID,
	}

	for code, result := range terCodes {
		if len(msg) >= len(code) && msg[:len(code)] == code {
			if len(msg) == len(code) || msg[len(code)] == ':' || msg[len(code)] == ' ' {
				return result
			}
		}
	}
	return TemINVALID
}

// ValidationError builds an error Validate can return for result r.
func ValidationError(r Result, format string, args ...any) error {
	return fmt.Errorf("%s: %s", r, fmt.Sprintf(format, args...))
}
