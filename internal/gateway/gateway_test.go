package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"duck-storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second)
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		switch r.URL.Query().Get("username") {
		case "mallard":
			if r.URL.Query().Get("password") != "Quack1234" {
				w.WriteHeader(http.StatusConflict)
				return
			}
			_ = json.NewEncoder(w).Encode(models.Account{ID: 7, Username: "mallard", Type: models.AccountTypeUser})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	accounts := NewAccountGateway(client)
	ctx := context.Background()

	account, err := accounts.Login(ctx, "mallard", "Quack1234")
	require.NoError(t, err)
	require.True(t, account.IsPresent())
	assert.Equal(t, int64(7), account.MustGet().ID)

	wrongPassword, err := accounts.Login(ctx, "mallard", "nope")
	require.NoError(t, err)
	assert.True(t, wrongPassword.IsAbsent())

	unknown, err := accounts.Login(ctx, "teal", "whatever")
	require.NoError(t, err)
	assert.True(t, unknown.IsAbsent())
}

func TestLoginServerFault(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	account, err := NewAccountGateway(client).Login(context.Background(), "mallard", "Quack1234")
	assert.ErrorIs(t, err, ErrServerFault)
	assert.True(t, account.IsAbsent())
}

func TestCreateUserStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"weak password", http.StatusNotAcceptable, ErrWeakPassword},
		{"duplicate username", http.StatusConflict, ErrDuplicateUsername},
		{"server error", http.StatusInternalServerError, ErrServerFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				w.WriteHeader(tt.status)
			})

			created, res := NewAccountGateway(client).CreateUser(context.Background(), models.NewUserAccount("teal", "x"))
			assert.Nil(t, created)
			assert.False(t, res.OK())
			assert.Equal(t, tt.status, res.Status)
			assert.ErrorIs(t, res.Err, tt.want)
		})
	}
}

func TestUpdateAccountStatuses(t *testing.T) {
	status := http.StatusOK
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(status)
	})
	accounts := NewAccountGateway(client)

	assert.True(t, accounts.UpdateAccount(context.Background(), &models.Account{ID: 1}).OK())

	status = http.StatusUnprocessableEntity
	assert.ErrorIs(t, accounts.UpdateAccount(context.Background(), &models.Account{ID: 1}).Err, ErrWeakPassword)

	status = http.StatusNotFound
	assert.ErrorIs(t, accounts.UpdateAccount(context.Background(), &models.Account{ID: 1}).Err, ErrNotFound)
}

func TestGetProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products/5" {
			_, _ = io.WriteString(w, `{"id":5,"name":"Rubber","quantity":10,"price":12.5,"size":"SMALL","color":"YELLOW"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	inventory := NewInventoryGateway(client)

	duck, err := inventory.GetProduct(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, duck.IsPresent())
	assert.True(t, decimal.NewFromFloat(12.5).Equal(duck.MustGet().Price))
	assert.Equal(t, "$12.50", duck.MustGet().DisplayPrice())

	missing, err := inventory.GetProduct(context.Background(), 6)
	require.NoError(t, err)
	assert.True(t, missing.IsAbsent())
}

func TestDeleteProductOutcomes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/1":
			w.WriteHeader(http.StatusOK)
		case "/products/2":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	inventory := NewInventoryGateway(client)
	ctx := context.Background()

	assert.True(t, inventory.DeleteProduct(ctx, 1).OK())
	assert.ErrorIs(t, inventory.DeleteProduct(ctx, 2).Err, ErrNotFound)
	assert.ErrorIs(t, inventory.DeleteProduct(ctx, 3).Err, ErrServerFault)
}

func TestGetOrCreateCartIsIdempotent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cart/1", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":1,"items":{"5":2,"9":1}}`)
	})
	carts := NewCartGateway(client)

	first, err := carts.GetOrCreateCart(context.Background(), 1)
	require.NoError(t, err)
	second, err := carts.GetOrCreateCart(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, map[int64]int{5: 2, 9: 1}, first.Items)
	assert.Equal(t, first.Items, second.Items)
}

func TestAddItemIsLocal(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})
	carts := NewCartGateway(client)

	cart := &models.Cart{ID: 1}
	carts.AddItem(cart, 5, 1)
	carts.AddItem(cart, 5, 2)
	carts.AddItem(cart, 9, 1)

	assert.Equal(t, map[int64]int{5: 3, 9: 1}, cart.Items)
	assert.Zero(t, calls)
}

func TestUpdateCartRequiresExplicitOK(t *testing.T) {
	status := http.StatusOK
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var cart models.Cart
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&cart))
		assert.Equal(t, map[int64]int{5: 2}, cart.Items)
		w.WriteHeader(status)
	})
	carts := NewCartGateway(client)
	cart := &models.Cart{ID: 1, Items: map[int64]int{5: 2}}

	assert.True(t, carts.UpdateCart(context.Background(), cart).OK())

	status = http.StatusAccepted
	res := carts.UpdateCart(context.Background(), cart)
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, ErrUnexpectedStatus)
}

func TestValidateCart(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		valid     bool
		adjusted  bool
		corrected map[int64]int
		err       error
	}{
		{name: "valid with empty body", status: http.StatusOK, valid: true},
		{name: "valid with null body", status: http.StatusOK, body: "null", valid: true},
		{name: "adjusted", status: http.StatusOK, body: `{"id":1,"items":{"5":1}}`, adjusted: true, corrected: map[int64]int{5: 1}},
		{name: "empty cart", status: http.StatusNotFound, err: ErrEmptyCart},
		{name: "server error", status: http.StatusInternalServerError, err: ErrServerFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/cart/1/validate", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			v := NewCartGateway(client).ValidateCart(context.Background(), 1)
			assert.Equal(t, tt.valid, v.Valid())
			assert.Equal(t, tt.adjusted, v.Adjusted())
			if tt.corrected != nil {
				require.NotNil(t, v.Corrected)
				assert.Equal(t, tt.corrected, v.Corrected.Items)
			}
			if tt.err != nil {
				assert.ErrorIs(t, v.Err, tt.err)
			}
		})
	}
}

func TestCheckoutCartStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnprocessableEntity, ErrStockConflict},
		{http.StatusNotFound, ErrEmptyCart},
		{http.StatusInternalServerError, ErrServerFault},
	}

	for _, tt := range tests {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/cart/1/checkout", r.URL.Path)
			w.WriteHeader(tt.status)
		})

		res := NewCartGateway(client).CheckoutCart(context.Background(), 1)
		assert.False(t, res.OK())
		assert.ErrorIs(t, res.Err, tt.want)
	}
}

func TestTransportFailureIsNotSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	res := NewCartGateway(NewClient(srv.URL, time.Second)).CheckoutCart(context.Background(), 1)
	assert.False(t, res.OK())
	assert.Zero(t, res.Status)
	assert.ErrorIs(t, res.Err, ErrTransport)
	assert.True(t, IsServerSide(res.Err))
}

func TestCustomDucks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/custom-ducks/1":
			_, _ = io.WriteString(w, `[{"id":31,"accountId":1,"name":"Captain","price":20}]`)
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/custom-ducks/1/31":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	customs := NewCustomDuckGateway(client)
	ctx := context.Background()

	ducks, err := customs.ListCustomDucks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ducks, 1)
	assert.Equal(t, int64(31), ducks[0].ID)

	none, err := customs.ListCustomDucks(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.True(t, customs.DeleteCustomDuck(ctx, 1, 31).OK())
	assert.False(t, customs.DeleteCustomDuck(ctx, 1, 32).OK())
}
