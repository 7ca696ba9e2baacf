package tx

import "fmt"

// Result represents an invocation result code
type Result int

// Result codes are organized by category: tes, tec, tef, tel, tem.
// No code other than tesSUCCESS commits any state.
const (
	// tesSUCCESS (0)
	TesSUCCESS Result = 0

	// tec: the invocation was well formed but ledger state did not allow it (100-199)
	TecUNFUNDED             Result = 129
	TecNO_ENTRY             Result = 140
	TecINSUFFICIENT_DEPOSIT Result = 141
	TecDUPLICATE            Result = 149
	TecHAS_BALANCE          Result = 151
	TecLISTING_NOT_ACTIVE   Result = 174
	TecINSUFFICIENT_STOCK   Result = 175
	TecOVERFLOW             Result = 176

	// tef: authorization and runtime failures (-199 to -100)
	TefFAILURE        Result = -199
	TefINTERNAL       Result = -190
	TefUNAUTHORIZED   Result = -189
	TefINVALID_ASSET  Result = -188
	TefINVALID_OWNER  Result = -187
	TefINVALID_SELLER Result = -186
	TefBAD_DERIVATION Result = -185
	TefMISSING_SIGNER Result = -184
	TefUNDECLARED     Result = -183
	TefPAST_SEQ       Result = -182
	TefPRE_SEQ        Result = -181

	// tem: malformed invocation (-299 to -200)
	TemMALFORMED      Result = -299
	TemINVALID_AMOUNT Result = -298
	TemINVALID_PRICE  Result = -297
	TemBAD_SIGNATURE  Result = -296
	TemUNKNOWN_TYPE   Result = -295
	TemDISABLED       Result = -273
	TemINVALID        Result = -250

	// tel: rejected locally (-399 to -300)
	TelLOCAL_ERROR  Result = -399
	TelDUPLICATE_TX Result = -398
)

// Category groups results by what went wrong.
type Category string

const (
	CategorySuccess       Category = "success"
	CategoryValidation    Category = "validation"
	CategoryState         Category = "state"
	CategoryArithmetic    Category = "arithmetic"
	CategoryAuthorization Category = "authorization"
	CategoryRuntime       Category = "runtime"
)

// String returns the string representation of the result
func (r Result) String() string {
	switch r {
	case TesSUCCESS:
		return "tesSUCCESS"
	case TecUNFUNDED:
		return "tecUNFUNDED"
	case TecNO_ENTRY:
		return "tecNO_ENTRY"
	case TecINSUFFICIENT_DEPOSIT:
		return "tecINSUFFICIENT_DEPOSIT"
	case TecDUPLICATE:
		return "tecDUPLICATE"
	case TecHAS_BALANCE:
		return "tecHAS_BALANCE"
	case TecLISTING_NOT_ACTIVE:
		return "tecLISTING_NOT_ACTIVE"
	case TecINSUFFICIENT_STOCK:
		return "tecINSUFFICIENT_STOCK"
	case TecOVERFLOW:
		return "tecOVERFLOW"
	case TefFAILURE:
		return "tefFAILURE"
	case TefINTERNAL:
		return "tefINTERNAL"
	case TefUNAUTHORIZED:
		return "tefUNAUTHORIZED"
	case TefINVALID_ASSET:
		return "tefINVALID_ASSET"
	case TefINVALID_OWNER:
		return "tefINVALID_OWNER"
	case TefINVALID_SELLER:
		return "tefINVALID_SELLER"
	case TefBAD_DERIVATION:
		return "tefBAD_DERIVATION"
	case TefMISSING_SIGNER:
		return "tefMISSING_SIGNER"
	case TefUNDECLARED:
		return "tefUNDECLARED"
	case TefPAST_SEQ:
		return "tefPAST_SEQ"
	case TefPRE_SEQ:
		return "tefPRE_SEQ"
	case TemMALFORMED:
		return "temMALFORMED"
	case TemINVALID_AMOUNT:
		return "temINVALID_AMOUNT"
	case TemINVALID_PRICE:
		return "temINVALID_PRICE"
	case TemBAD_SIGNATURE:
		return "temBAD_SIGNATURE"
	case TemUNKNOWN_TYPE:
		return "temUNKNOWN_TYPE"
	case TemDISABLED:
		return "temDISABLED"
	case TemINVALID:
		return "temINVALID"
	case TelLOCAL_ERROR:
		return "telLOCAL_ERROR"
	case TelDUPLICATE_TX:
		return "telDUPLICATE_TX"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// IsSuccess returns true if the result is tesSUCCESS
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec code
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTef returns true if this is a tef (failure) code
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTel returns true if this is a tel (local error) code
func (r Result) IsTel() bool {
	return r >= -399 && r <= -300
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// IsApplied returns true if the invocation's writes were committed
func (r Result) IsApplied() bool {
	return r.IsSuccess()
}

// Category returns the failure category of the result.
func (r Result) Category() Category {
	switch {
	case r.IsSuccess():
		return CategorySuccess
	case r == TecOVERFLOW:
		return CategoryArithmetic
	case r.IsTem():
		return CategoryValidation
	case r.IsTec():
		return CategoryState
	case r == TefINTERNAL || r == TefFAILURE || r == TefUNDECLARED || r.IsTel():
		return CategoryRuntime
	case r.IsTef():
		return CategoryAuthorization
	}
	return CategoryRuntime
}

// ProgramCode maps the result onto the numeric error codes used by the
// on-chain program this ledger is compatible with. ok is false for results
// that program had no code for.
func (r Result) ProgramCode() (code uint32, ok bool) {
	switch r {
	case TecLISTING_NOT_ACTIVE:
		return 6000, true
	case TefUNAUTHORIZED:
		return 6001, true
	case TemINVALID_AMOUNT:
		return 6002, true
	case TemINVALID_PRICE:
		return 6003, true
	case TecINSUFFICIENT_STOCK:
		return 6004, true
	case TecOVERFLOW:
		return 6005, true
	case TefINVALID_ASSET:
		return 6006, true
	case TefINVALID_OWNER:
		return 6007, true
	case TefINVALID_SELLER:
		return 6008, true
	}
	return 0, false
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The invocation was applied."
	case TecUNFUNDED:
		return "Insufficient balance to complete the transfer."
	case TecNO_ENTRY:
		return "No entry exists at the referenced address."
	case TecINSUFFICIENT_DEPOSIT:
		return "Insufficient native balance to fund the storage deposit."
	case TecDUPLICATE:
		return "An entry already exists at the referenced address."
	case TecHAS_BALANCE:
		return "The balance must be empty before it can be closed."
	case TecLISTING_NOT_ACTIVE:
		return "Listing is not active."
	case TecINSUFFICIENT_STOCK:
		return "Insufficient tokens in listing."
	case TecOVERFLOW:
		return "Arithmetic overflow."
	case TefINTERNAL:
		return "Internal error."
	case TefUNAUTHORIZED:
		return "Unauthorized."
	case TefINVALID_ASSET:
		return "Invalid asset."
	case TefINVALID_OWNER:
		return "Invalid balance owner."
	case TefINVALID_SELLER:
		return "Invalid seller."
	case TefBAD_DERIVATION:
		return "Address does not match its derivation."
	case TefMISSING_SIGNER:
		return "A required signature is missing."
	case TefUNDECLARED:
		return "Accessed an account the invocation did not declare."
	case TefPAST_SEQ:
		return "The nonce has already been used by this signer."
	case TefPRE_SEQ:
		return "The nonce is ahead of the signer's sequence."
	case TemMALFORMED:
		return "Malformed invocation."
	case TemINVALID_AMOUNT:
		return "Amount must be greater than zero."
	case TemINVALID_PRICE:
		return "Price must be greater than zero."
	case TemBAD_SIGNATURE:
		return "Signature is invalid."
	case TemUNKNOWN_TYPE:
		return "Unknown instruction type."
	case TemDISABLED:
		return "The instruction is disabled on this node."
	case TelDUPLICATE_TX:
		return "The invocation was already submitted."
	default:
		return r.String()
	}
}

// ResultFromString parses the String form of a result.
func ResultFromString(s string) (Result, bool) {
	for _, r := range allResults {
		if r.String() == s {
			return r, true
		}
	}
	return 0, false
}

var allResults = []Result{
	TesSUCCESS,
	TecUNFUNDED, TecNO_ENTRY, TecINSUFFICIENT_DEPOSIT, TecDUPLICATE, TecHAS_BALANCE,
	TecLISTING_NOT_ACTIVE, TecINSUFFICIENT_STOCK, TecOVERFLOW,
	TefFAILURE, TefINTERNAL, TefUNAUTHORIZED, TefINVALID_ASSET, TefINVALID_OWNER,
	TefINVALID_SELLER, TefBAD_DERIVATION, TefMISSING_SIGNER, TefUNDECLARED,
	TefPAST_SEQ, TefPRE_SEQ,
	TemMALFORMED, TemINVALID_AMOUNT, TemINVALID_PRICE, TemBAD_SIGNATURE, TemUNKNOWN_TYPE,
	TemDISABLED, TemINVALID,
	TelLOCAL_ERROR, TelDUPLICATE_TX,
}
