package gateway

import (
	"context"
	"fmt"
	"net/http"

	"duck-storefront/internal/models"
)

// CustomDuckGateway manages account-scoped custom ducks
type CustomDuckGateway struct {
	client *Client
}

// NewCustomDuckGateway creates a custom duck gateway
func NewCustomDuckGateway(client *Client) *CustomDuckGateway {
	return &CustomDuckGateway{client: client}
}

// ListCustomDucks fetches the account's pending custom ducks. No ducks is an empty slice.
func (g *CustomDuckGateway) ListCustomDucks(ctx context.Context, accountID int64) ([]models.CustomDuck, error) {
	resp, err := g.client.do(ctx, "ListCustomDucks", http.MethodGet, fmt.Sprintf("/custom-ducks/%d", accountID), nil)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNoContent || resp.status == http.StatusNotFound {
		return []models.CustomDuck{}, nil
	}
	if err := classify("ListCustomDucks", resp.status, nil); err != nil {
		return nil, err
	}

	ducks := []models.CustomDuck{}
	if !resp.hasBody() {
		return ducks, nil
	}
	if err := resp.decode("ListCustomDucks", &ducks); err != nil {
		return nil, err
	}
	return ducks, nil
}

// DeleteCustomDuck removes one custom duck. Anything but 200 is a failure.
func (g *CustomDuckGateway) DeleteCustomDuck(ctx context.Context, accountID, duckID int64) Result {
	return g.client.exec(ctx, "DeleteCustomDuck", http.MethodDelete, fmt.Sprintf("/custom-ducks/%d/%d", accountID, duckID), nil, nil)
}
