package xerr

import (
	"errors"
	"fmt"
)

// Error codes for the simulation core. Codes are stable so callers can switch
// on the category instead of matching message strings.
const (
	OK = 200

	// Validation: bad construction arguments. Raised at the call that
	// introduced the bad state, never deferred.
	RequestParamsError = 400

	// Missing entity: "never existed" vs "existed, now dead" must stay
	// distinguishable.
	RecordNotFound = 404
	RecordDead     = 410

	// Insolvency: raised by the ledger before any mutation.
	InsufficientFunds     = 461
	InsufficientFreeFunds = 462
	NegativeReserve       = 463
	InventoryShortfall    = 464
	InventoryReserveError = 465

	// Fatal collaborator misuse. Not recoverable at runtime.
	ServerCommonError = 500
	UnregisteredKind  = 501
	ActionOverflow    = 508
)

type CodeError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("ErrCode:%d, Msg:%s", e.Code, e.Msg)
}

func New(code int, msg string) error {
	return &CodeError{Code: code, Msg: msg}
}

func Newf(code int, format string, args ...interface{}) error {
	return &CodeError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func NewErrCode(code int) error {
	return &CodeError{Code: code, Msg: MapErrMsg(code)}
}

func MapErrMsg(code int) string {
	switch code {
	case RequestParamsError:
		return "invalid parameters"
	case RecordNotFound:
		return "entity does not exist"
	case RecordDead:
		return "entity is dead"
	case InsufficientFunds:
		return "insufficient funds"
	case InsufficientFreeFunds:
		return "insufficient free funds"
	case NegativeReserve:
		return "reserve would go negative"
	case InventoryShortfall:
		return "insufficient inventory"
	case InventoryReserveError:
		return "inventory reserve out of range"
	case UnregisteredKind:
		return "unregistered kind"
	case ActionOverflow:
		return "action limit exceeded"
	default:
		return "internal error"
	}
}

// IsCode reports whether err (or anything it wraps) carries the given code.
func IsCode(err error, code int) bool {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
