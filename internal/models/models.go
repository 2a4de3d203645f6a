package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// The backend speaks plain JSON numbers for prices.
	decimal.MarshalJSONWithoutQuotes = true
}

// Account types as the backend names them
const (
	AccountTypeUser  = "UserAccount"
	AccountTypeOwner = "OwnerAccount"
)

// Account represents a storefront account as held by the backend
type Account struct {
	Type          string `json:"type"`
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	PlainPassword string `json:"plainPassword"`
	AdminStatus   bool   `json:"adminStatus"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Address       string `json:"address"`
	City          string `json:"city"`
	ZipCode       string `json:"zipCode"`
	Card          string `json:"card"`
	ExpDate       string `json:"expDate"`
	CVV           int    `json:"cvv"`
}

// NewUserAccount builds the registration payload. The backend assigns id and type.
func NewUserAccount(username, password string) *Account {
	return &Account{
		Type:          AccountTypeUser,
		ID:            -1,
		Username:      username,
		PlainPassword: password,
		CVV:           -1,
	}
}

// IsBuyer reports whether the account may own a cart.
func (a *Account) IsBuyer() bool {
	return a != nil && !a.AdminStatus
}

// Outfit holds accessory ids; zero means no accessory.
type Outfit struct {
	HatUID      int `json:"hatUID"`
	ShirtUID    int `json:"shirtUID"`
	ShoesUID    int `json:"shoesUID"`
	HandItemUID int `json:"handItemUID"`
	JewelryUID  int `json:"jewelryUID"`
}

// Duck is a catalog product
type Duck struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Size     string          `json:"size"`
	Color    string          `json:"color"`
	Outfit   Outfit          `json:"outfit"`
}

// InStock reports whether the duck belongs in buyer-facing listings.
func (d Duck) InStock() bool {
	return d.Quantity > 0
}

// DisplayPrice formats the price as $x.xx
func (d Duck) DisplayPrice() string {
	return fmt.Sprintf("$%s", d.Price.StringFixed(2))
}

// CustomDuck is an account-scoped duck built outside the catalog
type CustomDuck struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"accountId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Outfit    Outfit          `json:"outfit"`
}

// Cart maps product ids to requested quantities. ID is the owning account id.
type Cart struct {
	ID    int64         `json:"id"`
	Items map[int64]int `json:"items"`
}

// NewCart returns an empty cart for the account
func NewCart(accountID int64) *Cart {
	return &Cart{ID: accountID, Items: make(map[int64]int)}
}

// IsEmpty reports whether the cart holds no catalog items.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Clone returns a deep copy so snapshots never alias live state.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	items := make(map[int64]int, len(c.Items))
	for id, qty := range c.Items {
		items[id] = qty
	}
	return &Cart{ID: c.ID, Items: items}
}

// CheckoutData is the snapshot handed to the checkout engine when the dialog opens.
// It is not kept in sync with the backend.
type CheckoutData struct {
	Account     *Account
	Cart        *Cart
	CustomDucks []CustomDuck
	Catalog     []Duck
}

// ReceiptLine is one catalog item on a receipt
type ReceiptLine struct {
	ProductID int64           `json:"product_id" db:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Receipt is what the buyer sees once settlement completes
type Receipt struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   int64           `json:"account_id"`
	Cart        *Cart           `json:"cart"`
	Lines       []ReceiptLine   `json:"lines"`
	CustomDucks []CustomDuck    `json:"custom_ducks"`
	Total       decimal.Decimal `json:"total"`
	PaymentRef  string          `json:"payment_ref,omitempty"`
	IssuedAt    time.Time       `json:"issued_at"`
}

// IsEmpty reports whether nothing at all was purchased.
func (r *Receipt) IsEmpty() bool {
	return len(r.Lines) == 0 && len(r.CustomDucks) == 0
}

// StoredReceipt is a receipt row in the history table
type StoredReceipt struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	AccountID int64           `db:"account_id" json:"account_id"`
	Body      []byte          `db:"body" json:"-"`
	Total     decimal.Decimal `db:"total" json:"total"`
	IssuedAt  time.Time       `db:"issued_at" json:"issued_at"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
