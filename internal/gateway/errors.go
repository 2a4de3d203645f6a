package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource conflict")
	ErrWeakPassword       = errors.New("password does not meet strength rules")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrStockConflict      = errors.New("cart items exceed current stock")
	ErrEmptyCart          = errors.New("nothing to purchase")
	ErrServerFault        = errors.New("backend server error")
	ErrUnexpectedStatus   = errors.New("unexpected backend status")
	ErrTransport          = errors.New("backend unreachable")
)

// StatusError is a non-success backend response classified into one of the sentinels above.
type StatusError struct {
	Op     string
	Status int
	Kind   error
}

func (e *StatusError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Kind)
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}

// statusKinds maps operation-specific statuses onto sentinels
type statusKinds map[int]error

func classify(op string, status int, kinds statusKinds) error {
	if status == 200 {
		return nil
	}
	if kind, ok := kinds[status]; ok {
		return &StatusError{Op: op, Status: status, Kind: kind}
	}
	if status >= 500 {
		return &StatusError{Op: op, Status: status, Kind: ErrServerFault}
	}
	return &StatusError{Op: op, Status: status, Kind: ErrUnexpectedStatus}
}

// IsServerSide reports whether err should be surfaced as a generic retry message.
func IsServerSide(err error) bool {
	return errors.Is(err, ErrServerFault) || errors.Is(err, ErrTransport) || errors.Is(err, ErrUnexpectedStatus)
}
