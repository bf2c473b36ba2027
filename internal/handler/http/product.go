package http

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/catalog"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/domain"
	apperrors "github.com/Sahilbhanushali/GharGrocerProd/pkg/errors"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/httputil"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/pagination"
)

// FeedResponse is one batch of an infinite-scroll product feed. NextCursor
// is only set while HasMore is true.
type FeedResponse struct {
	Items      []domain.Product `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

// ListProducts handles GET /api/v1/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.products.ListProducts(r.Context(), listParams(r.URL.Query()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// GetProduct handles GET /api/v1/products/{productId}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), productIDParam(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, product)
}

// ProductFeed handles GET /api/v1/products/feed
//
// The cursor is opaque to callers; pass back next_cursor to load more.
func (h *Handler) ProductFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := listParams(q)
	params.Page = 1
	if c := q.Get("cursor"); c != "" {
		page, err := strconv.Atoi(c)
		if err != nil || page < 1 {
			httputil.WriteError(w, r, apperrors.InvalidInput("invalid cursor"), h.logger)
			return
		}
		params.Page = page
	}

	pager := catalog.NewPager(h.products, params)
	items, err := pager.Next(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	resp := FeedResponse{Items: items, HasMore: pager.HasMore()}
	if resp.HasMore {
		resp.NextCursor = strconv.Itoa(pager.NextPage())
	}
	httputil.WriteData(w, http.StatusOK, resp)
}

func listParams(q url.Values) catalog.ListParams {
	return catalog.ListParams{
		Params:     pagination.FromQuery(q),
		CategoryID: q.Get("category_id"),
		BrandID:    q.Get("brand_id"),
		Search:     q.Get("search"),
		Discounted: q.Get("discounted") == "1" || q.Get("discounted") == "true",
	}
}
