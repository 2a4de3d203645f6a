package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"duck-storefront/internal/gateway"
	"duck-storefront/internal/models"
	"duck-storefront/internal/notify"
	"duck-storefront/internal/session"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loaderFixture struct {
	log       *callLog
	accounts  *stubAccounts
	inventory *stubInventory
	carts     *stubCarts
	customs   *stubCustoms
	loader    *PageLoader
	sink      *notify.Recorder
}

func newLoaderFixture() *loaderFixture {
	log := &callLog{}
	f := &loaderFixture{
		log:       log,
		accounts:  &stubAccounts{log: log, accounts: map[int64]models.Account{buyer.ID: buyer, admin.ID: admin}, updateRes: okResult(), createRes: okResult()},
		inventory: &stubInventory{log: log, ducks: []models.Duck{rubberDuck, soldOut}, deleteRes: okResult()},
		carts:     &stubCarts{log: log, updateRes: okResult()},
		customs:   &stubCustoms{log: log},
		sink:      notify.NewRecorder(),
	}
	f.loader = NewPageLoader(f.accounts, f.inventory, f.carts, f.customs)
	return f
}

func sessionFor(account models.Account) mo.Option[session.Session] {
	return mo.Some(*session.New(account))
}

func TestBuyerPageLoadsInDependencyOrder(t *testing.T) {
	f := newLoaderFixture()
	f.carts.cart = &models.Cart{ID: buyer.ID, Items: map[int64]int{5: 1}}

	ctx := context.Background()
	page, err := f.loader.LoadBuyerPage(ctx, NewFlow(ctx), sessionFor(buyer), "/catalog", f.sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"GetAccount", "GetOrCreateCart", "ListProducts"}, f.log.list())
	assert.Equal(t, buyer.ID, page.Account.ID)
	assert.Equal(t, map[int64]int{5: 1}, page.Cart.Items)
	assert.Equal(t, []models.Duck{rubberDuck}, page.Catalog)
	assert.Empty(t, f.sink.Notifications())
}

func TestBuyerPageStopsWhenAccountFails(t *testing.T) {
	f := newLoaderFixture()
	f.accounts.getErr = &gateway.StatusError{Op: "GetAccount", Status: http.StatusInternalServerError, Kind: gateway.ErrServerFault}

	ctx := context.Background()
	_, err := f.loader.LoadBuyerPage(ctx, NewFlow(ctx), sessionFor(buyer), "/catalog", f.sink)

	assert.ErrorIs(t, err, gateway.ErrServerFault)
	assert.Equal(t, []string{"GetAccount"}, f.log.list())
	assert.Equal(t, []string{msgGenericFailure}, f.sink.Messages(notify.LevelError))
}

func TestBuyerPageCartFailure(t *testing.T) {
	f := newLoaderFixture()
	f.carts.getErr = errors.New("boom")

	ctx := context.Background()
	_, err := f.loader.LoadBuyerPage(ctx, NewFlow(ctx), sessionFor(buyer), "/catalog", f.sink)

	assert.Error(t, err)
	assert.Equal(t, []string{"GetAccount", "GetOrCreateCart"}, f.log.list())
	assert.Equal(t, []string{msgCartLoadFailed}, f.sink.Messages(notify.LevelError))
}

func TestBuyerPageGate(t *testing.T) {
	tests := []struct {
		name    string
		current mo.Option[session.Session]
		want    error
		calls   []string
	}{
		{"no session", mo.None[session.Session](), session.ErrUnauthenticated, nil},
		{"admin on buyer page", sessionFor(admin), session.ErrForbidden, []string{"GetAccount"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLoaderFixture()
			ctx := context.Background()
			_, err := f.loader.LoadBuyerPage(ctx, NewFlow(ctx), tt.current, "/catalog", f.sink)

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.calls, f.log.list())
			assert.Equal(t, []string{fmt.Sprintf(msgNotAuthorized, "/catalog")}, f.sink.Messages(notify.LevelError))
		})
	}
}

func TestBuyerPageAbandoned(t *testing.T) {
	f := newLoaderFixture()
	ctx, cancel := context.WithCancel(context.Background())
	flow := NewFlow(ctx)
	cancel()
	flow.Abandon()

	_, err := f.loader.LoadBuyerPage(context.Background(), flow, sessionFor(buyer), "/catalog", f.sink)

	assert.ErrorIs(t, err, ErrFlowAbandoned)
	assert.Equal(t, []string{"GetAccount"}, f.log.list())
	assert.Empty(t, f.sink.Notifications())
}

func TestCheckoutPageIncludesCustomDucks(t *testing.T) {
	f := newLoaderFixture()
	f.customs.ducks = []models.CustomDuck{customDuck(7, "3.00")}

	ctx := context.Background()
	page, err := f.loader.LoadCheckoutPage(ctx, NewFlow(ctx), sessionFor(buyer), "/checkout", f.sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"GetAccount", "GetOrCreateCart", "ListProducts", "ListCustomDucks"}, f.log.list())
	data := page.CheckoutData()
	assert.Len(t, data.CustomDucks, 1)
	assert.Equal(t, buyer.ID, data.Cart.ID)
}

func TestAdminPageListsEverything(t *testing.T) {
	f := newLoaderFixture()

	ctx := context.Background()
	page, err := f.loader.LoadAdminPage(ctx, NewFlow(ctx), sessionFor(admin), "/inventory", f.sink)
	require.NoError(t, err)

	assert.Equal(t, []models.Duck{rubberDuck, soldOut}, page.Inventory)

	_, err = f.loader.LoadAdminPage(ctx, NewFlow(ctx), sessionFor(buyer), "/inventory", f.sink)
	assert.ErrorIs(t, err, session.ErrForbidden)
	assert.Equal(t, []string{fmt.Sprintf(msgNotAuthorized, "/inventory")}, f.sink.Messages(notify.LevelError))
}
