package http

import (
	"context"
	"log/slog"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/cart"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/catalog"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/domain"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/session"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/wishlist"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/pagination"
)

// ProductSource looks products up in the catalog.
type ProductSource interface {
	ListProducts(ctx context.Context, params catalog.ListParams) (pagination.Result[domain.Product], error)
	GetProduct(ctx context.Context, id domain.ProductID) (domain.Product, error)
}

// Handler serves the storefront API used by the UI layer.
type Handler struct {
	cart     *cart.Store
	wishlist *wishlist.Store
	session  *session.Provider
	products ProductSource
	logger   *slog.Logger
}

// NewHandler creates the storefront API handler.
func NewHandler(c *cart.Store, w *wishlist.Store, s *session.Provider, products ProductSource, logger *slog.Logger) *Handler {
	return &Handler{
		cart:     c,
		wishlist: w,
		session:  s,
		products: products,
		logger:   logger,
	}
}
