package rpc_types

import (
	"errors"

	"github.com/LeJamon/goListingd/internal/core/ledger/service"
	"github.com/LeJamon/goListingd/internal/core/tx/listing"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
)

// RpcError represents an RPC error with code and message
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Type        string `json:"type"`
	Message     string `json:"error_message,omitempty"`
}

func (e RpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorString
}

// Error codes
const (
	// Universal errors
	RpcUNKNOWN          = -1
	RpcMETHOD_NOT_FOUND = -32601
	RpcINVALID_PARAMS   = -32602
	RpcINTERNAL         = -32603
	RpcPARSE_ERROR      = -32700

	// General purpose errors
	RpcMISSING_COMMAND   = 2
	RpcCOMMAND_UNTRUSTED = 3
	RpcTOO_BUSY          = 6

	// Service state
	RpcNOT_STANDALONE = 10
	RpcSHUT_DOWN      = 11

	// Lookups
	RpcENTRY_NOT_FOUND      = 19
	RpcINVOCATION_NOT_FOUND = 24
	RpcACT_MALFORMED        = 50

	// Subscriptions
	RpcSTREAM_MALFORMED = 26

	// Features
	RpcNOT_ENABLED         = 31
	RpcINVALID_API_VERSION = 38

	// Listing errors
	RpcLISTING_NOT_ACTIVE  = 60
	RpcINSUFFICIENT_STOCK  = 61
	RpcINVALID_HASH        = 44
	RpcINVALID_INSTRUCTION = 42
)

// NewRpcError is the standard error constructor
func NewRpcError(code int, error, errorType, message string) *RpcError {
	return &RpcError{
		Code:        code,
		ErrorString: error,
		Type:        errorType,
		Message:     message,
	}
}

func RpcErrorUnknown(message string) *RpcError {
	return NewRpcError(RpcUNKNOWN, "unknown", "unknown", message)
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", message)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "unknownCmd", "unknownCmd", "Unknown method: "+method)
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", "internal", message)
}

func RpcErrorMissingCommand() *RpcError {
	return NewRpcError(RpcMISSING_COMMAND, "missingCommand", "missingCommand", "Missing method field")
}

func RpcErrorParse(message string) *RpcError {
	return NewRpcError(RpcPARSE_ERROR, "jsonInvalid", "jsonInvalid", message)
}

func RpcErrorActMalformed(message string) *RpcError {
	return NewRpcError(RpcACT_MALFORMED, "actMalformed", "actMalformed", message)
}

func RpcErrorEntryNotFound(message string) *RpcError {
	return NewRpcError(RpcENTRY_NOT_FOUND, "entryNotFound", "entryNotFound", message)
}

func RpcErrorInvocationNotFound(message string) *RpcError {
	return NewRpcError(RpcINVOCATION_NOT_FOUND, "txnNotFound", "txnNotFound", message)
}

func RpcErrorNotStandalone() *RpcError {
	return NewRpcError(RpcNOT_STANDALONE, "notStandAlone", "notStandAlone", "Operation valid in debug mode only.")
}

func RpcErrorShutDown() *RpcError {
	return NewRpcError(RpcSHUT_DOWN, "shutDown", "shutDown", "The server is shutting down.")
}

func RpcErrorNotEnabled(message string) *RpcError {
	return NewRpcError(RpcNOT_ENABLED, "notEnabled", "notEnabled", message)
}

func RpcErrorInvalidApiVersion(version string) *RpcError {
	return NewRpcError(RpcINVALID_API_VERSION, "invalid_API_version", "invalid_API_version", "Unsupported API version: "+version)
}

func RpcErrorStreamMalformed(message string) *RpcError {
	return NewRpcError(RpcSTREAM_MALFORMED, "malformedStream", "malformedStream", message)
}

func RpcErrorInvalidInstruction(message string) *RpcError {
	return NewRpcError(RpcINVALID_INSTRUCTION, "invalidTransaction", "invalidTransaction", message)
}

func RpcErrorInvalidHash(message string) *RpcError {
	return NewRpcError(RpcINVALID_HASH, "invalidHash", "invalidHash", message)
}

func RpcErrorCommandUntrusted(method string) *RpcError {
	return NewRpcError(RpcCOMMAND_UNTRUSTED, "commandUntrusted", "commandUntrusted", "Method '"+method+"' requires higher privileges")
}

// RpcErrorFromService maps a service error onto an RPC error.
func RpcErrorFromService(err error) *RpcError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrNotFound):
		return RpcErrorEntryNotFound(err.Error())
	case errors.Is(err, relationaldb.ErrInvocationNotFound):
		return RpcErrorInvocationNotFound(err.Error())
	case errors.Is(err, service.ErrNotStandalone):
		return RpcErrorNotStandalone()
	case errors.Is(err, service.ErrHistoryDisabled):
		return RpcErrorNotEnabled(err.Error())
	case errors.Is(err, service.ErrClosed):
		return RpcErrorShutDown()
	case errors.Is(err, listing.ErrNotActive):
		return NewRpcError(RpcLISTING_NOT_ACTIVE, "listingNotActive", "listingNotActive", err.Error())
	case errors.Is(err, listing.ErrInsufficientStock):
		return NewRpcError(RpcINSUFFICIENT_STOCK, "insufficientStock", "insufficientStock", err.Error())
	case errors.Is(err, listing.ErrPriceOverflow):
		return RpcErrorInvalidParams(err.Error())
	case errors.Is(err, relationaldb.ErrInvalidLimit):
		return RpcErrorInvalidParams(err.Error())
	default:
		return RpcErrorInternal(err.Error())
	}
}
