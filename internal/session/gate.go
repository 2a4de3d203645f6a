package session

import (
	"errors"

	"duck-storefront/internal/models"

	"github.com/samber/mo"
)

var (
	// ErrUnauthenticated means the browsing context has no session; send it to the login entry point.
	ErrUnauthenticated = errors.New("not logged in")
	// ErrForbidden means the session's account may not view the page.
	ErrForbidden = errors.New("not authorized")
)

// Role is what a protected page demands of its account
type Role int

const (
	RoleAny Role = iota
	RoleBuyer
	RoleAdmin
)

// Require is the one gate every protected operation passes before doing anything else
func Require(current mo.Option[Session], role Role) (Session, error) {
	s, ok := current.Get()
	if !ok {
		return Session{}, ErrUnauthenticated
	}
	if err := Authorize(&s.Account, role); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Authorize checks a freshly loaded account against the role. A missing account is unauthenticated.
func Authorize(account *models.Account, role Role) error {
	if account == nil {
		return ErrUnauthenticated
	}
	switch role {
	case RoleBuyer:
		if !account.IsBuyer() {
			return ErrForbidden
		}
	case RoleAdmin:
		if !account.AdminStatus {
			return ErrForbidden
		}
	}
	return nil
}
