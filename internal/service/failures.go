package service

import (
	"errors"

	"duck-storefront/internal/gateway"
	"duck-storefront/internal/session"
)

var (
	ErrCheckoutInFlight = errors.New("a checkout is already in progress for this account")
	ErrFlowAbandoned    = errors.New("flow abandoned before the result arrived")
	ErrInvalidForm      = errors.New("checkout form is invalid")
	ErrLoginFailed      = errors.New("login failed")
	ErrPaymentDeclined  = errors.New("payment declined")
	ErrUnavailable      = errors.New("duck is no longer available")
)

// FailureKind is how a failure is presented to the user
type FailureKind string

const (
	FailureNone           FailureKind = ""
	FailureAuthentication FailureKind = "AuthenticationFailure"
	FailureValidation     FailureKind = "ValidationFailure"
	FailureStockConflict  FailureKind = "StockConflict"
	FailureNotFound       FailureKind = "ResourceNotFound"
	FailureServer         FailureKind = "ServerFault"
)

// ClassifyFailure maps an error onto the user-facing taxonomy
func ClassifyFailure(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, gateway.ErrInvalidCredentials), errors.Is(err, ErrLoginFailed),
		errors.Is(err, session.ErrUnauthenticated), errors.Is(err, session.ErrForbidden):
		return FailureAuthentication
	case errors.Is(err, ErrInvalidForm), errors.Is(err, ErrPaymentDeclined), errors.Is(err, gateway.ErrWeakPassword),
		errors.Is(err, gateway.ErrDuplicateUsername):
		return FailureValidation
	case errors.Is(err, gateway.ErrStockConflict), errors.Is(err, ErrUnavailable):
		return FailureStockConflict
	case errors.Is(err, gateway.ErrNotFound), errors.Is(err, gateway.ErrEmptyCart):
		return FailureNotFound
	default:
		return FailureServer
	}
}
