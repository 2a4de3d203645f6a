package gateway

import (
	"context"
	"fmt"
	"net/http"

	"duck-storefront/internal/models"
)

// CartGateway manages the per-account cart and the validate/checkout protocol
type CartGateway struct {
	client *Client
}

// NewCartGateway creates a cart gateway
func NewCartGateway(client *Client) *CartGateway {
	return &CartGateway{client: client}
}

// Validation is the reply to a pre-checkout validation
type Validation struct {
	Result
	// Corrected is the server-computed cart when items exceeded stock; nil when the cart is valid.
	Corrected *models.Cart
}

// Valid reports a 200 with no correction
func (v Validation) Valid() bool {
	return v.OK() && v.Corrected == nil
}

// Adjusted reports a 200 carrying a corrected cart
func (v Validation) Adjusted() bool {
	return v.OK() && v.Corrected != nil
}

// GetOrCreateCart fetches the account's cart; the backend creates an empty one if none exists
func (g *CartGateway) GetOrCreateCart(ctx context.Context, accountID int64) (*models.Cart, error) {
	var cart models.Cart
	res := g.client.fetch(ctx, "GetOrCreateCart", http.MethodGet, fmt.Sprintf("/cart/%d", accountID), nil, &cart, statusKinds{
		http.StatusNotFound: ErrNotFound,
	})
	if res.Err != nil {
		return nil, res.Err
	}
	if cart.Items == nil {
		cart.Items = make(map[int64]int)
	}
	return &cart, nil
}

// AddItem mutates the in-memory cart only; persist it with UpdateCart
func (g *CartGateway) AddItem(cart *models.Cart, productID int64, quantity int) {
	if cart.Items == nil {
		cart.Items = make(map[int64]int)
	}
	cart.Items[productID] += quantity
}

// UpdateCart persists the full item mapping. Anything but 200 is a failure.
func (g *CartGateway) UpdateCart(ctx context.Context, cart *models.Cart) Result {
	return g.client.exec(ctx, "UpdateCart", http.MethodPut, "/cart", cart, nil)
}

// ValidateCart checks the stored cart against live stock
func (g *CartGateway) ValidateCart(ctx context.Context, accountID int64) Validation {
	const op = "ValidateCart"
	resp, err := g.client.do(ctx, op, http.MethodGet, fmt.Sprintf("/cart/%d/validate", accountID), nil)
	if err != nil {
		return Validation{Result: Result{Err: err}}
	}

	res := Result{Status: resp.status, Err: classify(op, resp.status, statusKinds{
		http.StatusNotFound: ErrEmptyCart,
	})}
	if res.Err != nil || !resp.hasBody() {
		return Validation{Result: res}
	}

	var corrected models.Cart
	if err := resp.decode(op, &corrected); err != nil {
		return Validation{Result: Result{Status: resp.status, Err: err}}
	}
	if corrected.Items == nil {
		corrected.Items = make(map[int64]int)
	}
	return Validation{Result: res, Corrected: &corrected}
}

// CheckoutCart commits the validated cart: 200, 422 ErrStockConflict, 404 ErrEmptyCart, 500 ErrServerFault
func (g *CartGateway) CheckoutCart(ctx context.Context, accountID int64) Result {
	return g.client.exec(ctx, "CheckoutCart", http.MethodPost, fmt.Sprintf("/cart/%d/checkout", accountID), nil, statusKinds{
		http.StatusUnprocessableEntity: ErrStockConflict,
		http.StatusNotFound:            ErrEmptyCart,
	})
}
