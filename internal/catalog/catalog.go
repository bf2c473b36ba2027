// Package catalog reads products from the commerce backend and pages
// through listings for lazy-loading views.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/domain"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/gateway"
	apperrors "github.com/Sahilbhanushali/GharGrocerProd/pkg/errors"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/pagination"
)

// ListParams filters a product listing.
type ListParams struct {
	pagination.Params
	CategoryID string
	BrandID    string
	Search     string
	Discounted bool
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	p.Params.Encode(q)
	if p.CategoryID != "" {
		q.Set("category_id", p.CategoryID)
	}
	if p.BrandID != "" {
		q.Set("brand_id", p.BrandID)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Discounted {
		q.Set("discounted_product", "1")
	}
	return q
}

// page is the backend's paginator envelope.
type page struct {
	Data        []json.RawMessage `json:"data"`
	CurrentPage int               `json:"current_page"`
	PerPage     int               `json:"per_page"`
	Total       int               `json:"total"`
	LastPage    int               `json:"last_page"`
}

// Client fetches catalog data.
type Client struct {
	backend *gateway.Backend
	logger  *slog.Logger
}

// NewClient creates a catalog client.
func NewClient(backend *gateway.Backend, logger *slog.Logger) *Client {
	return &Client{backend: backend, logger: logger}
}

// ListProducts fetches one page of products. Entries without an id are
// skipped and logged.
func (c *Client) ListProducts(ctx context.Context, params ListParams) (pagination.Result[domain.Product], error) {
	if params.Page < 1 || params.PerPage < 1 {
		def := pagination.DefaultParams()
		if params.Page < 1 {
			params.Page = def.Page
		}
		if params.PerPage < 1 {
			params.PerPage = def.PerPage
		}
	}

	var resp struct {
		Data page `json:"data"`
	}
	err := c.backend.Do(ctx, gateway.Call{
		Op:     "product.list",
		Method: http.MethodGet,
		Path:   "/product",
		Query:  params.query(),
	}, &resp)
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}

	products := make([]domain.Product, 0, len(resp.Data.Data))
	for _, raw := range resp.Data.Data {
		p, err := domain.ProductFromJSON(raw)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping malformed product", slog.String("error", err.Error()))
			continue
		}
		products = append(products, p)
	}

	got := pagination.Params{Page: resp.Data.CurrentPage, PerPage: resp.Data.PerPage}
	if got.Page < 1 {
		got.Page = params.Page
	}
	if got.PerPage < 1 {
		got.PerPage = params.PerPage
	}

	result := pagination.NewResult(products, resp.Data.Total, got)
	if resp.Data.LastPage > 0 {
		result.TotalPages = resp.Data.LastPage
		result.HasNext = got.Page < resp.Data.LastPage
	}
	return result, nil
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	if id == "" {
		return domain.Product{}, apperrors.InvalidInput("product id is required")
	}

	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	err := c.backend.Do(ctx, gateway.Call{
		Op:     "product.show",
		Method: http.MethodGet,
		Path:   "/product/show",
		Query:  url.Values{"id": {string(id)}},
	}, &resp)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}

	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return domain.Product{}, apperrors.NotFound("product", string(id))
	}

	p, err := domain.ProductFromJSON(resp.Data)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// Lister fetches one page of the product listing. *Client implements it.
type Lister interface {
	ListProducts(ctx context.Context, params ListParams) (pagination.Result[domain.Product], error)
}

// Pager walks a listing one page at a time, for infinite-scroll views.
type Pager struct {
	lister Lister
	params ListParams
	done   bool
}

// NewPager starts at params.Page (or the first page).
func NewPager(l Lister, params ListParams) *Pager {
	if params.Page < 1 {
		params.Page = 1
	}
	return &Pager{lister: l, params: params}
}

// NewPager starts a pager over this client's listing.
func (c *Client) NewPager(params ListParams) *Pager {
	return NewPager(c, params)
}

// NextPage is the page the following call to Next will fetch.
func (p *Pager) NextPage() int { return p.params.Page }

// HasMore reports whether Next may return more products.
func (p *Pager) HasMore() bool { return !p.done }

// Next fetches the next page. It returns an empty slice once the listing is
// exhausted. A failed fetch can be retried by calling Next again.
func (p *Pager) Next(ctx context.Context) ([]domain.Product, error) {
	if p.done {
		return []domain.Product{}, nil
	}

	res, err := p.lister.ListProducts(ctx, p.params)
	if err != nil {
		return nil, err
	}

	if !res.HasNext || len(res.Data) == 0 {
		p.done = true
	}
	p.params.Page = res.Page + 1
	return res.Data, nil
}
