// Package wishlist is the customer's saved-for-later list. It follows the
// cart's add, remove and update rules but lives only in the mirror.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/domain"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/mirror"
)

// Store holds the wishlist. All methods are safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	lines  domain.Lines
	mirror mirror.Store
	logger *slog.Logger
}

// New restores the wishlist from the mirror. Corrupt content starts an empty
// list; an unreachable mirror is an error.
func New(ctx context.Context, m mirror.Store, logger *slog.Logger) (*Store, error) {
	s := &Store{lines: domain.Lines{}, mirror: m, logger: logger}

	var lines domain.Lines
	if _, err := mirror.LoadJSON(ctx, m, mirror.SlotWishlist, &lines); err != nil {
		var decodeErr *mirror.DecodeError
		if !errors.As(err, &decodeErr) {
			return nil, fmt.Errorf("restore wishlist: %w", err)
		}
		logger.WarnContext(ctx, "discarding corrupt wishlist mirror", slog.String("error", err.Error()))
		lines = nil
	}
	s.lines = lines.Normalize()

	logger.DebugContext(ctx, "wishlist restored", slog.Int("count", s.lines.Count()))
	return s, nil
}

// Add saves qty of product, merging into an existing line. A qty below one
// is ignored.
func (s *Store) Add(ctx context.Context, product domain.Product, qty int) {
	if qty < 1 || product.ID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.lines.Find(product.ID); i >= 0 {
		s.lines[i].Quantity += qty
	} else {
		s.lines = append(s.lines, domain.NewLine(product, qty))
	}
	s.persistLocked(ctx)
}

// Remove deletes the product's line. Removing an absent product does nothing.
func (s *Store) Remove(ctx context.Context, productID domain.ProductID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.lines.Find(productID)
	if i < 0 {
		return
	}
	s.lines = slices.Delete(s.lines, i, i+1)
	s.persistLocked(ctx)
}

// UpdateQuantity sets the product's quantity. A quantity below one removes
// the line. Unknown products and unchanged quantities are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID domain.ProductID, qty int) {
	if qty < 1 {
		s.Remove(ctx, productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.lines.Find(productID)
	if i < 0 || s.lines[i].Quantity == qty {
		return
	}
	s.lines[i].Quantity = qty
	s.persistLocked(ctx)
}

// Clear empties the wishlist and deletes its mirror slot.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = domain.Lines{}
	if err := s.mirror.Delete(ctx, mirror.SlotWishlist); err != nil {
		mirror.WriteFailures.WithLabelValues(mirror.SlotWishlist).Inc()
		s.logger.ErrorContext(ctx, "failed to clear wishlist mirror", slog.String("error", err.Error()))
	}
}

func (s *Store) IsInWishlist(productID domain.ProductID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.Find(productID) >= 0
}

// ItemQuantity returns the product's quantity, or 0.
func (s *Store) ItemQuantity(productID domain.ProductID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.lines.Find(productID); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.Count()
}

// Lines returns a copy of the wishlist in the order products were saved.
func (s *Store) Lines() domain.Lines {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.Clone()
}

func (s *Store) persistLocked(ctx context.Context) {
	if err := mirror.SaveJSON(ctx, s.mirror, mirror.SlotWishlist, s.lines); err != nil {
		mirror.WriteFailures.WithLabelValues(mirror.SlotWishlist).Inc()
		s.logger.ErrorContext(ctx, "failed to write wishlist mirror", slog.String("error", err.Error()))
	}
}
