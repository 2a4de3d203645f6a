package service

import (
	"context"
	"time"

	"duck-storefront/internal/gateway"
	"duck-storefront/internal/models"

	"github.com/samber/mo"
)

// AccountGateway is the account side of the backend
type AccountGateway interface {
	Login(ctx context.Context, username, password string) (mo.Option[models.Account], error)
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	CreateUser(ctx context.Context, account *models.Account) (*models.Account, gateway.Result)
	UpdateAccount(ctx context.Context, account *models.Account) gateway.Result
}

// InventoryGateway is the catalog side of the backend
type InventoryGateway interface {
	ListProducts(ctx context.Context) ([]models.Duck, error)
	GetProduct(ctx context.Context, id int64) (mo.Option[models.Duck], error)
	DeleteProduct(ctx context.Context, id int64) gateway.Result
}

// CartGateway is the cart side of the backend, including the validate/checkout protocol
type CartGateway interface {
	GetOrCreateCart(ctx context.Context, accountID int64) (*models.Cart, error)
	AddItem(cart *models.Cart, productID int64, quantity int)
	UpdateCart(ctx context.Context, cart *models.Cart) gateway.Result
	ValidateCart(ctx context.Context, accountID int64) gateway.Validation
	CheckoutCart(ctx context.Context, accountID int64) gateway.Result
}

// CustomDuckGateway manages account-scoped custom ducks
type CustomDuckGateway interface {
	ListCustomDucks(ctx context.Context, accountID int64) ([]models.CustomDuck, error)
	DeleteCustomDuck(ctx context.Context, accountID, duckID int64) gateway.Result
}

// EventPublisher emits storefront events
type EventPublisher interface {
	PublishReceiptIssued(ctx context.Context, event *models.ReceiptIssuedEvent) error
	PublishCartAdjusted(ctx context.Context, event *models.CartAdjustedEvent) error
}

// Locker is a distributed lock keyed by name and held by an owner token
type Locker interface {
	AcquireLock(ctx context.Context, lockKey, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey, owner string) error
}

var (
	_ AccountGateway    = (*gateway.AccountGateway)(nil)
	_ InventoryGateway  = (*gateway.InventoryGateway)(nil)
	_ CartGateway       = (*gateway.CartGateway)(nil)
	_ CustomDuckGateway = (*gateway.CustomDuckGateway)(nil)
)
