package http

import (
	"net/http"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/domain"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/httputil"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/validator"
)

// WishlistResponse is the wishlist as returned by the API.
type WishlistResponse struct {
	Items domain.Lines `json:"items"`
	Count int          `json:"count"`
}

func (h *Handler) wishlistResponse() WishlistResponse {
	lines := h.wishlist.Lines()
	return WishlistResponse{Items: lines, Count: lines.Count()}
}

// GetWishlist handles GET /api/v1/wishlist
func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.wishlistResponse())
}

// ClearWishlist handles DELETE /api/v1/wishlist
func (h *Handler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	h.wishlist.Clear(r.Context())
	httputil.WriteData(w, http.StatusOK, h.wishlistResponse())
}

// AddWishlistItem handles POST /api/v1/wishlist/items
func (h *Handler) AddWishlistItem(w http.ResponseWriter, r *http.Request) {
	product, qty, ok := h.decodeAddItem(w, r)
	if !ok {
		return
	}
	h.wishlist.Add(r.Context(), product, qty)
	httputil.WriteData(w, http.StatusOK, h.wishlistResponse())
}

// GetWishlistItem handles GET /api/v1/wishlist/items/{productId}
func (h *Handler) GetWishlistItem(w http.ResponseWriter, r *http.Request) {
	id := productIDParam(r)
	httputil.WriteData(w, http.StatusOK, ItemResponse{
		ProductID: id,
		Quantity:  h.wishlist.ItemQuantity(id),
		Present:   h.wishlist.IsInWishlist(id),
	})
}

// UpdateWishlistItem handles PUT /api/v1/wishlist/items/{productId}
func (h *Handler) UpdateWishlistItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	h.wishlist.UpdateQuantity(r.Context(), productIDParam(r), *req.Quantity)
	httputil.WriteData(w, http.StatusOK, h.wishlistResponse())
}

// RemoveWishlistItem handles DELETE /api/v1/wishlist/items/{productId}
func (h *Handler) RemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	h.wishlist.Remove(r.Context(), productIDParam(r))
	httputil.WriteData(w, http.StatusOK, h.wishlistResponse())
}
