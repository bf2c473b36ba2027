// Package gateway talks to the remote commerce backend: the cart and auth
// endpoints and the shared transport used by the catalog client.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/domain"
	apperrors "github.com/Sahilbhanushali/GharGrocerProd/pkg/errors"
)

// CartGateway is the remote cart. Every call carries the session token that
// was current when the caller decided to make it.
type CartGateway interface {
	// Get returns the server's cart.
	Get(ctx context.Context, token string) ([]RemoteItem, error)

	// Add sets the product's server-side line to qty (an upsert, not a delta).
	Add(ctx context.Context, token string, productID domain.ProductID, qty int) error

	// Remove deletes the product's server-side line.
	Remove(ctx context.Context, token string, productID domain.ProductID) error
}

// TokenValidator checks a session token with the backend.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (bool, error)
}

// RemoteItem is one line of the server's cart.
type RemoteItem struct {
	ID        domain.LineID
	ProductID domain.ProductID
	Quantity  int
	UnitPrice decimal.Decimal
	Product   json.RawMessage
}

// Line converts the item to a cart line.
func (it RemoteItem) Line() domain.CartLine {
	return domain.CartLine{
		ProductID:    it.ProductID,
		Quantity:     it.Quantity,
		UnitPrice:    it.UnitPrice,
		RemoteLineID: it.ID,
		Product:      it.Product,
	}
}

// UnmarshalJSON applies the backend's loose typing: qty defaults to 1 when
// absent, an unparseable unit_price counts as 0, and product_id falls back
// to the embedded product's id.
func (it *RemoteItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        domain.LineID    `json:"id"`
		ProductID domain.ProductID `json:"product_id"`
		Qty       json.RawMessage  `json:"qty"`
		UnitPrice json.RawMessage  `json:"unit_price"`
		Product   json.RawMessage  `json:"product"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode cart item: %w", err)
	}

	*it = RemoteItem{
		ID:        raw.ID,
		ProductID: raw.ProductID,
		Quantity:  parseQty(raw.Qty),
		Product:   raw.Product,
	}
	it.UnitPrice, _ = domain.ParsePrice(raw.UnitPrice)

	if it.ProductID == "" && len(raw.Product) > 0 {
		if p, err := domain.ProductFromJSON(raw.Product); err == nil {
			it.ProductID = p.ID
		}
	}
	return nil
}

func parseQty(raw json.RawMessage) int {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := strconv.Atoi(n.String()); err == nil {
			return v
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return 1
}

// HTTPClient implements CartGateway and TokenValidator over the backend REST API.
type HTTPClient struct {
	backend *Backend
}

var (
	_ CartGateway    = (*HTTPClient)(nil)
	_ TokenValidator = (*HTTPClient)(nil)
)

// NewHTTPClient creates a gateway on top of backend.
func NewHTTPClient(backend *Backend) *HTTPClient {
	return &HTTPClient{backend: backend}
}

type cartResponse struct {
	Data struct {
		Items []RemoteItem `json:"items"`
	} `json:"data"`
}

type addRequest struct {
	ProductID domain.ProductID `json:"product_id"`
	Qty       int              `json:"qty"`
}

type removeRequest struct {
	ProductID domain.ProductID `json:"product_id"`
}

func requireToken(token string) error {
	if token == "" {
		return apperrors.Unauthorized("session token required")
	}
	return nil
}

// Get fetches GET /cart.
func (c *HTTPClient) Get(ctx context.Context, token string) ([]RemoteItem, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}

	var resp cartResponse
	err := c.backend.Do(ctx, Call{Op: "cart.get", Method: http.MethodGet, Path: "/cart", Token: token}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data.Items == nil {
		return []RemoteItem{}, nil
	}
	return resp.Data.Items, nil
}

// Add posts to /cart/add.
func (c *HTTPClient) Add(ctx context.Context, token string, productID domain.ProductID, qty int) error {
	if err := requireToken(token); err != nil {
		return err
	}
	return c.backend.Do(ctx, Call{
		Op:     "cart.add",
		Method: http.MethodPost,
		Path:   "/cart/add",
		Token:  token,
		Body:   addRequest{ProductID: productID, Qty: qty},
	}, nil)
}

// Remove posts to /cart/remove.
func (c *HTTPClient) Remove(ctx context.Context, token string, productID domain.ProductID) error {
	if err := requireToken(token); err != nil {
		return err
	}
	return c.backend.Do(ctx, Call{
		Op:     "cart.remove",
		Method: http.MethodPost,
		Path:   "/cart/remove",
		Token:  token,
		Body:   removeRequest{ProductID: productID},
	}, nil)
}

// ValidateToken calls GET /auth/validate. A 401 means the token is no longer
// valid and is not an error.
func (c *HTTPClient) ValidateToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	var resp struct {
		Valid bool `json:"valid"`
	}
	err := c.backend.Do(ctx, Call{Op: "auth.validate", Method: http.MethodGet, Path: "/auth/validate", Token: token}, &resp)
	if apperrors.HTTPStatus(err) == http.StatusUnauthorized {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}
