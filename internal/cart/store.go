// Package cart is the storefront's cart: an in-memory list that is mutated
// optimistically, mirrored to durable storage on every change and pushed to
// the remote cart in the background while a customer is signed in.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/domain"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/gateway"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/mirror"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/logger"
)

// DefaultRemoteTimeout bounds each background write to the backend.
const DefaultRemoteTimeout = 10 * time.Second

const (
	opAdd    = "add"
	opRemove = "remove"
)

// TokenSource reports the current session token, or "" for a guest.
type TokenSource interface {
	Token() string
}

// Option configures a Store.
type Option func(*Store)

// WithRemoteTimeout sets the timeout of each background remote write.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.remoteTimeout = d
		}
	}
}

// Store holds the cart. All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	lines   domain.Lines
	phase   Phase
	epoch   uint64
	version uint64

	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int

	writes sync.WaitGroup

	mirror        mirror.Store
	remote        gateway.CartGateway
	tokens        TokenSource
	logger        *slog.Logger
	remoteTimeout time.Duration
}

// New returns an empty, unhydrated store.
func New(m mirror.Store, remote gateway.CartGateway, tokens TokenSource, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		lines:         domain.Lines{},
		listeners:     make(map[int]Listener),
		mirror:        m,
		remote:        remote,
		tokens:        tokens,
		logger:        logger,
		remoteTimeout: DefaultRemoteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate fills the store once per session. A guest cart comes from the
// mirror. A signed-in cart comes from the server and replaces whatever was
// held locally; if the server cannot be read the mirror is used instead.
// Calls made while the store is loading or ready return Skipped without
// touching the backend.
func (s *Store) Hydrate(ctx context.Context) HydrateResult {
	s.mu.Lock()
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "cart hydration skipped", slog.String("phase", s.Phase().String()))
		return Skipped
	}

	token := s.tokens.Token()
	if token == "" {
		s.lines = s.loadMirrorLocked(ctx)
		s.phase = PhaseReady
		snap := s.commitLocked()
		s.mu.Unlock()

		s.finishHydration(ctx, FromMirror, snap)
		return FromMirror
	}

	s.phase = PhaseLoading
	epoch := s.epoch
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)

	items, err := s.remote.Get(ctx, token)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.InfoContext(ctx, "discarding cart hydration overtaken by reset")
		hydrationsTotal.WithLabelValues("discarded").Inc()
		return Skipped
	}

	result := FromRemote
	if err != nil {
		logger.WithContext(ctx, s.logger).WarnContext(ctx, "remote cart unavailable, using mirror",
			slog.String("error", err.Error()),
		)
		s.lines = s.loadMirrorLocked(ctx)
		result = RemoteFallback
	} else {
		lines := make(domain.Lines, 0, len(items))
		for _, it := range items {
			lines = append(lines, it.Line())
		}
		s.lines = lines.Normalize()
		s.persistLocked(ctx)
	}
	s.phase = PhaseReady
	snap = s.commitLocked()
	s.mu.Unlock()

	s.finishHydration(ctx, result, snap)
	return result
}

func (s *Store) finishHydration(ctx context.Context, result HydrateResult, snap Snapshot) {
	hydrationsTotal.WithLabelValues(result.String()).Inc()
	s.logger.InfoContext(ctx, "cart hydrated",
		slog.String("source", result.String()),
		slog.Int("count", snap.Count),
	)
	s.notify(snap)
}

// AddToCart adds qty of product, merging into an existing line. A qty below
// one is ignored. An existing line keeps its unit price.
func (s *Store) AddToCart(ctx context.Context, product domain.Product, qty int) {
	if qty < 1 || product.ID == "" {
		s.logger.DebugContext(ctx, "ignoring add to cart",
			slog.String("product_id", product.ID.String()),
			slog.Int("quantity", qty),
		)
		return
	}

	s.mu.Lock()
	var newQty int
	if i := s.lines.Find(product.ID); i >= 0 {
		newQty = s.lines[i].Quantity + qty
		if newQty == s.lines[i].Quantity {
			s.mu.Unlock()
			return
		}
		s.lines[i].Quantity = newQty
	} else {
		newQty = qty
		s.lines = append(s.lines, domain.NewLine(product, qty))
	}
	token := s.tokens.Token()
	s.persistLocked(ctx)
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	s.push(ctx, token, opAdd, product.ID, newQty)
}

// RemoveFromCart deletes the product's line. Removing an absent product does
// nothing.
func (s *Store) RemoveFromCart(ctx context.Context, productID domain.ProductID) {
	s.mu.Lock()
	i := s.lines.Find(productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.lines = slices.Delete(s.lines, i, i+1)
	token := s.tokens.Token()
	s.persistLocked(ctx)
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	s.push(ctx, token, opRemove, productID, 0)
}

// UpdateQuantity sets the product's quantity. A quantity below one removes
// the line. Unknown products and unchanged quantities are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID domain.ProductID, qty int) {
	if qty < 1 {
		s.RemoveFromCart(ctx, productID)
		return
	}

	s.mu.Lock()
	i := s.lines.Find(productID)
	if i < 0 || s.lines[i].Quantity == qty {
		s.mu.Unlock()
		return
	}
	s.lines[i].Quantity = qty
	token := s.tokens.Token()
	s.persistLocked(ctx)
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	s.push(ctx, token, opAdd, productID, qty)
}

// ResetCart empties the cart, deletes the mirror slot and returns the store
// to PhaseIdle so the next session hydrates again. A hydration in flight
// when ResetCart runs is discarded when it returns. Background writes
// already dispatched are not cancelled.
func (s *Store) ResetCart(ctx context.Context) {
	s.mu.Lock()
	s.lines = domain.Lines{}
	s.phase = PhaseIdle
	s.epoch++
	if err := s.mirror.Delete(ctx, mirror.SlotCart); err != nil {
		mirror.WriteFailures.WithLabelValues(mirror.SlotCart).Inc()
		s.logger.ErrorContext(ctx, "failed to clear cart mirror", slog.String("error", err.Error()))
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "cart reset")
	s.notify(snap)
}

// IsInCart reports whether the product has a line.
func (s *Store) IsInCart(productID domain.ProductID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.Find(productID) >= 0
}

// ItemQuantity returns the product's quantity, or 0 if it is not in the cart.
func (s *Store) ItemQuantity(productID domain.ProductID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.lines.Find(productID); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

// Count is the number of distinct products in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.Count()
}

// TotalItems is the sum of all quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.TotalItems()
}

// TotalPrice is the sum of quantity times unit price over all lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.TotalPrice()
}

// Lines returns a copy of the cart lines in the order they were added.
func (s *Store) Lines() domain.Lines {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.Clone()
}

// Phase returns the hydration phase.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Initialized reports whether hydration has completed this session.
func (s *Store) Initialized() bool { return s.Phase() == PhaseReady }

// Loading reports whether a remote hydration is in flight.
func (s *Store) Loading() bool { return s.Phase() == PhaseLoading }

// Snapshot returns the whole cart state at one instant.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every committed change and returns a function
// that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// Wait blocks until every background remote write has finished or ctx is
// done.
func (s *Store) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.writes.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// push sends the change to the remote cart on its own goroutine when token,
// read while the mutation held the lock, belongs to a session. The write
// outlives ctx's cancellation but not the store's remote timeout; its
// outcome is only logged.
func (s *Store) push(ctx context.Context, token, op string, productID domain.ProductID, qty int) {
	if token == "" {
		return
	}

	log := logger.WithContext(ctx, s.logger)
	wctx := context.WithoutCancel(ctx)

	s.writes.Add(1)
	remoteWritesInFlight.Inc()
	go func() {
		defer s.writes.Done()
		defer remoteWritesInFlight.Dec()

		ctx, cancel := context.WithTimeout(wctx, s.remoteTimeout)
		defer cancel()

		var err error
		switch op {
		case opAdd:
			err = s.remote.Add(ctx, token, productID, qty)
		case opRemove:
			err = s.remote.Remove(ctx, token, productID)
		}

		if err != nil {
			remoteWritesTotal.WithLabelValues(op, "error").Inc()
			log.ErrorContext(ctx, "remote cart write failed",
				slog.String("op", op),
				slog.String("product_id", productID.String()),
				slog.Int("quantity", qty),
				slog.String("error", err.Error()),
			)
			return
		}
		remoteWritesTotal.WithLabelValues(op, "success").Inc()
	}()
}

// loadMirrorLocked reads the mirrored cart. Missing, unreadable or corrupt
// content yields an empty cart.
func (s *Store) loadMirrorLocked(ctx context.Context) domain.Lines {
	var lines domain.Lines
	if _, err := mirror.LoadJSON(ctx, s.mirror, mirror.SlotCart, &lines); err != nil {
		var decodeErr *mirror.DecodeError
		if errors.As(err, &decodeErr) {
			s.logger.WarnContext(ctx, "discarding corrupt cart mirror", slog.String("error", err.Error()))
		} else {
			s.logger.ErrorContext(ctx, "failed to read cart mirror", slog.String("error", err.Error()))
		}
		return domain.Lines{}
	}
	return lines.Normalize()
}

func (s *Store) persistLocked(ctx context.Context) {
	if err := mirror.SaveJSON(ctx, s.mirror, mirror.SlotCart, s.lines); err != nil {
		mirror.WriteFailures.WithLabelValues(mirror.SlotCart).Inc()
		s.logger.ErrorContext(ctx, "failed to write cart mirror", slog.String("error", err.Error()))
	}
}

func (s *Store) commitLocked() Snapshot {
	s.version++
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:       s.lines.Clone(),
		Count:       s.lines.Count(),
		TotalItems:  s.lines.TotalItems(),
		TotalPrice:  s.lines.TotalPrice(),
		Initialized: s.phase == PhaseReady,
		Loading:     s.phase == PhaseLoading,
		Version:     s.version,
	}
}

func (s *Store) notify(snap Snapshot) {
	s.listenersMu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
