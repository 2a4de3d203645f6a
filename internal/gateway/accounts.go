package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"duck-storefront/internal/models"

	"github.com/samber/mo"
)

// AccountGateway fetches, creates and updates account records
type AccountGateway struct {
	client *Client
}

// NewAccountGateway creates an account gateway
func NewAccountGateway(client *Client) *AccountGateway {
	return &AccountGateway{client: client}
}

// Login looks an account up by credentials. Unknown users and wrong passwords both come
// back as an absent account with no error; only transport and server faults are errors.
func (g *AccountGateway) Login(ctx context.Context, username, password string) (mo.Option[models.Account], error) {
	query := url.Values{}
	query.Set("username", username)
	query.Set("password", password)

	var account models.Account
	res := g.client.fetch(ctx, "Login", http.MethodGet, "/login?"+query.Encode(), nil, &account, statusKinds{
		http.StatusNotFound: ErrInvalidCredentials,
		http.StatusConflict: ErrInvalidCredentials,
	})
	if errors.Is(res.Err, ErrInvalidCredentials) {
		return mo.None[models.Account](), nil
	}
	if res.Err != nil {
		return mo.None[models.Account](), res.Err
	}
	return mo.Some(account), nil
}

// GetAccount fetches an account by id
func (g *AccountGateway) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	res := g.client.fetch(ctx, "GetAccount", http.MethodGet, fmt.Sprintf("/accounts/%d", id), nil, &account, statusKinds{
		http.StatusNotFound: ErrNotFound,
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return &account, nil
}

// ListAccounts fetches every account (used by password reset)
func (g *AccountGateway) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	res := g.client.fetch(ctx, "ListAccounts", http.MethodGet, "/accounts", nil, &accounts, nil)
	if res.Err != nil {
		return nil, res.Err
	}
	return accounts, nil
}

// CreateUser registers a new account
func (g *AccountGateway) CreateUser(ctx context.Context, account *models.Account) (*models.Account, Result) {
	var created models.Account
	res := g.client.fetch(ctx, "CreateUser", http.MethodPost, "/accounts", account, &created, statusKinds{
		http.StatusNotAcceptable: ErrWeakPassword,
		http.StatusConflict:      ErrDuplicateUsername,
	})
	if res.Err != nil {
		return nil, res
	}
	return &created, res
}

// UpdateAccount persists profile and password changes
func (g *AccountGateway) UpdateAccount(ctx context.Context, account *models.Account) Result {
	return g.client.exec(ctx, "UpdateAccount", http.MethodPut, "/accounts", account, statusKinds{
		http.StatusNotFound:            ErrNotFound,
		http.StatusUnprocessableEntity: ErrWeakPassword,
	})
}
