package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/cart"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/domain"
	apperrors "github.com/Sahilbhanushali/GharGrocerProd/pkg/errors"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/httputil"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/validator"
)

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart
// or the wishlist. Either the full product payload or just its id is sent;
// a bare id is resolved through the catalog.
type AddItemRequest struct {
	Product   json.RawMessage `json:"product"`
	ProductID string          `json:"product_id" validate:"omitempty,max=64"`
	Quantity  *int            `json:"quantity" validate:"omitempty,gte=1,lte=1000"`
}

// UpdateQuantityRequest is the JSON request body for setting a quantity.
// The quantity is required; values below one remove the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,lte=1000"`
}

// ItemResponse describes one product's presence in a list.
type ItemResponse struct {
	ProductID domain.ProductID `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Present   bool             `json:"present"`
}

// HydrateResponse is returned by POST /api/v1/cart/hydrate.
type HydrateResponse struct {
	Result string        `json:"result"`
	Cart   cart.Snapshot `json:"cart"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.cart.Snapshot())
}

// HydrateCart handles POST /api/v1/cart/hydrate
func (h *Handler) HydrateCart(w http.ResponseWriter, r *http.Request) {
	result := h.cart.Hydrate(r.Context())
	httputil.WriteData(w, http.StatusOK, HydrateResponse{
		Result: result.String(),
		Cart:   h.cart.Snapshot(),
	})
}

// ResetCart handles DELETE /api/v1/cart
func (h *Handler) ResetCart(w http.ResponseWriter, r *http.Request) {
	h.cart.ResetCart(r.Context())
	httputil.WriteData(w, http.StatusOK, h.cart.Snapshot())
}

// AddCartItem handles POST /api/v1/cart/items
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	product, qty, ok := h.decodeAddItem(w, r)
	if !ok {
		return
	}
	h.cart.AddToCart(r.Context(), product, qty)
	httputil.WriteData(w, http.StatusOK, h.cart.Snapshot())
}

// GetCartItem handles GET /api/v1/cart/items/{productId}
func (h *Handler) GetCartItem(w http.ResponseWriter, r *http.Request) {
	id := productIDParam(r)
	httputil.WriteData(w, http.StatusOK, ItemResponse{
		ProductID: id,
		Quantity:  h.cart.ItemQuantity(id),
		Present:   h.cart.IsInCart(id),
	})
}

// UpdateCartItem handles PUT /api/v1/cart/items/{productId}
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	h.cart.UpdateQuantity(r.Context(), productIDParam(r), *req.Quantity)
	httputil.WriteData(w, http.StatusOK, h.cart.Snapshot())
}

// RemoveCartItem handles DELETE /api/v1/cart/items/{productId}
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.cart.RemoveFromCart(r.Context(), productIDParam(r))
	httputil.WriteData(w, http.StatusOK, h.cart.Snapshot())
}

// --- Helpers ---

func productIDParam(r *http.Request) domain.ProductID {
	return domain.ProductID(chi.URLParam(r, "productId"))
}

// decodeAddItem reads an AddItemRequest and resolves its product. It writes
// the error response itself and reports whether the caller may continue.
func (h *Handler) decodeAddItem(w http.ResponseWriter, r *http.Request) (domain.Product, int, bool) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return domain.Product{}, 0, false
	}

	if len(req.Product) == 0 && req.ProductID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("product or product_id is required"), h.logger)
		return domain.Product{}, 0, false
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	product, err := h.resolveProduct(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return domain.Product{}, 0, false
	}
	return product, qty, true
}

func (h *Handler) resolveProduct(ctx context.Context, req AddItemRequest) (domain.Product, error) {
	if len(req.Product) > 0 {
		p, err := domain.ProductFromJSON(req.Product)
		if err != nil {
			return domain.Product{}, apperrors.InvalidInput("product: " + err.Error())
		}
		return p, nil
	}
	return h.products.GetProduct(ctx, domain.ProductID(req.ProductID))
}
