package service

import (
	"context"
	"errors"
	"fmt"

	"duck-storefront/internal/gateway"
	"duck-storefront/internal/models"
	"duck-storefront/internal/notify"
	"duck-storefront/internal/session"
	"duck-storefront/internal/util"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

// BuyerPage is a loaded buyer-facing page
type BuyerPage struct {
	Session     session.Session     `json:"-"`
	Account     *models.Account     `json:"account"`
	Cart        *models.Cart        `json:"cart"`
	Catalog     []models.Duck       `json:"catalog"`
	CustomDucks []models.CustomDuck `json:"customDucks,omitempty"`
}

// CheckoutData snapshots the page for the checkout engine
func (p *BuyerPage) CheckoutData() *models.CheckoutData {
	return &models.CheckoutData{
		Account:     p.Account,
		Cart:        p.Cart.Clone(),
		CustomDucks: p.CustomDucks,
		Catalog:     p.Catalog,
	}
}

// AdminPage is the loaded inventory management page
type AdminPage struct {
	Session   session.Session `json:"-"`
	Account   *models.Account `json:"account"`
	Inventory []models.Duck   `json:"inventory"`
}

// loadError carries the message shown when a step fails
type loadError struct {
	msg string
	err error
}

func (e *loadError) Error() string { return e.msg + ": " + e.err.Error() }
func (e *loadError) Unwrap() error { return e.err }

// step is one stage of a page load; each stage may rely on what earlier stages stored in the page
type step[T any] func(ctx context.Context, page *T) error

// runSteps runs stages strictly in order and stops at the first failure
func runSteps[T any](ctx context.Context, flow *Flow, page *T, steps ...step[T]) error {
	for _, s := range steps {
		err := s(ctx, page)
		if !flow.Alive() {
			return ErrFlowAbandoned
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// PageLoader loads protected pages in dependency order: account, then cart, then catalog
type PageLoader struct {
	accounts  AccountGateway
	inventory InventoryGateway
	carts     CartGateway
	customs   CustomDuckGateway
	logger    *zap.Logger
}

// NewPageLoader creates a page loader
func NewPageLoader(accounts AccountGateway, inventory InventoryGateway, carts CartGateway, customs CustomDuckGateway) *PageLoader {
	return &PageLoader{
		accounts:  accounts,
		inventory: inventory,
		carts:     carts,
		customs:   customs,
		logger:    util.GetLogger(),
	}
}

// LoadBuyerPage loads the catalog page for a buyer
func (pl *PageLoader) LoadBuyerPage(ctx context.Context, flow *Flow, current mo.Option[session.Session], path string, sink notify.Sink) (*BuyerPage, error) {
	ctx, span := util.StartSpan(ctx, "PageLoader.LoadBuyerPage")
	defer span.End()

	page := &BuyerPage{}
	err := runSteps(ctx, flow, page,
		buyerAccountStep(pl, current),
		pl.cartStep,
		pl.catalogStep,
	)
	if err != nil {
		util.FailSpan(span, err)
		pl.report(sink, path, err)
		return nil, err
	}
	return page, nil
}

// LoadCheckoutPage loads the buyer page plus pending custom ducks
func (pl *PageLoader) LoadCheckoutPage(ctx context.Context, flow *Flow, current mo.Option[session.Session], path string, sink notify.Sink) (*BuyerPage, error) {
	ctx, span := util.StartSpan(ctx, "PageLoader.LoadCheckoutPage")
	defer span.End()

	page := &BuyerPage{}
	err := runSteps(ctx, flow, page,
		buyerAccountStep(pl, current),
		pl.cartStep,
		pl.catalogStep,
		pl.customDucksStep,
	)
	if err != nil {
		util.FailSpan(span, err)
		pl.report(sink, path, err)
		return nil, err
	}
	return page, nil
}

// LoadAdminPage loads the full inventory, out-of-stock ducks included
func (pl *PageLoader) LoadAdminPage(ctx context.Context, flow *Flow, current mo.Option[session.Session], path string, sink notify.Sink) (*AdminPage, error) {
	ctx, span := util.StartSpan(ctx, "PageLoader.LoadAdminPage")
	defer span.End()

	page := &AdminPage{}
	err := runSteps(ctx, flow, page,
		func(ctx context.Context, page *AdminPage) error {
			s, account, err := pl.loadAccount(ctx, current, session.RoleAdmin)
			page.Session, page.Account = s, account
			return err
		},
		func(ctx context.Context, page *AdminPage) error {
			ducks, err := pl.inventory.ListProducts(ctx)
			if err != nil {
				return &loadError{msg: msgGenericFailure, err: err}
			}
			page.Inventory = ducks
			return nil
		},
	)
	if err != nil {
		util.FailSpan(span, err)
		pl.report(sink, path, err)
		return nil, err
	}
	return page, nil
}

func buyerAccountStep(pl *PageLoader, current mo.Option[session.Session]) step[BuyerPage] {
	return func(ctx context.Context, page *BuyerPage) error {
		s, account, err := pl.loadAccount(ctx, current, session.RoleBuyer)
		page.Session, page.Account = s, account
		return err
	}
}

// loadAccount passes the gate and then fetches the account fresh so role changes apply
func (pl *PageLoader) loadAccount(ctx context.Context, current mo.Option[session.Session], role session.Role) (session.Session, *models.Account, error) {
	s, err := session.Require(current, session.RoleAny)
	if err != nil {
		return session.Session{}, nil, err
	}
	account, err := pl.accounts.GetAccount(ctx, s.AccountID())
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return s, nil, &loadError{msg: msgAccountMissing, err: err}
		}
		return s, nil, &loadError{msg: msgGenericFailure, err: err}
	}
	if err := session.Authorize(account, role); err != nil {
		return s, nil, err
	}
	return s, account, nil
}

func (pl *PageLoader) cartStep(ctx context.Context, page *BuyerPage) error {
	cart, err := pl.carts.GetOrCreateCart(ctx, page.Account.ID)
	if err != nil {
		return &loadError{msg: msgCartLoadFailed, err: err}
	}
	page.Cart = cart
	return nil
}

func (pl *PageLoader) catalogStep(ctx context.Context, page *BuyerPage) error {
	ducks, err := pl.inventory.ListProducts(ctx)
	if err != nil {
		return &loadError{msg: msgGenericFailure, err: err}
	}
	page.Catalog = lo.Filter(ducks, func(d models.Duck, _ int) bool { return d.InStock() })
	return nil
}

func (pl *PageLoader) customDucksStep(ctx context.Context, page *BuyerPage) error {
	ducks, err := pl.customs.ListCustomDucks(ctx, page.Account.ID)
	if err != nil {
		return &loadError{msg: msgGenericFailure, err: err}
	}
	page.CustomDucks = ducks
	return nil
}

func (pl *PageLoader) report(sink notify.Sink, path string, err error) {
	var le *loadError
	switch {
	case errors.Is(err, ErrFlowAbandoned):
	case errors.Is(err, session.ErrUnauthenticated), errors.Is(err, session.ErrForbidden):
		sink.Error(fmt.Sprintf(msgNotAuthorized, path))
	case errors.As(err, &le):
		pl.logger.Error("Page load failed", zap.String("path", path), zap.Error(err))
		sink.Error(le.msg)
	default:
		sink.Error(msgGenericFailure)
	}
}
