package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"duck-storefront/internal/models"

	"github.com/samber/mo"
)

// InventoryGateway reads and deletes catalog ducks
type InventoryGateway struct {
	client *Client
}

// NewInventoryGateway creates an inventory gateway
func NewInventoryGateway(client *Client) *InventoryGateway {
	return &InventoryGateway{client: client}
}

// ListProducts fetches the whole catalog, including ducks with no stock
func (g *InventoryGateway) ListProducts(ctx context.Context) ([]models.Duck, error) {
	var ducks []models.Duck
	res := g.client.fetch(ctx, "ListProducts", http.MethodGet, "/products", nil, &ducks, nil)
	if res.Err != nil {
		return nil, res.Err
	}
	return ducks, nil
}

// GetProduct fetches one duck; a 404 is an absent result, not an error
func (g *InventoryGateway) GetProduct(ctx context.Context, id int64) (mo.Option[models.Duck], error) {
	var duck models.Duck
	res := g.client.fetch(ctx, "GetProduct", http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &duck, statusKinds{
		http.StatusNotFound: ErrNotFound,
	})
	if errors.Is(res.Err, ErrNotFound) {
		return mo.None[models.Duck](), nil
	}
	if res.Err != nil {
		return mo.None[models.Duck](), res.Err
	}
	return mo.Some(duck), nil
}

// DeleteProduct removes a duck from the catalog: 200 deleted, 404 ErrNotFound, 500 ErrServerFault
func (g *InventoryGateway) DeleteProduct(ctx context.Context, id int64) Result {
	return g.client.exec(ctx, "DeleteProduct", http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, statusKinds{
		http.StatusNotFound: ErrNotFound,
	})
}
