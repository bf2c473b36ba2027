package cart

import (
	"github.com/shopspring/decimal"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/domain"
)

// Phase is where the store is in its hydration lifecycle.
type Phase int

const (
	// PhaseIdle means the store has not been hydrated this session.
	PhaseIdle Phase = iota
	// PhaseLoading means a remote fetch is in flight.
	PhaseLoading
	// PhaseReady means hydration finished, from any source.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// HydrateResult says what a call to Hydrate did.
type HydrateResult int

const (
	// Skipped means the store was already hydrated or hydrating, or a reset
	// discarded the fetched result.
	Skipped HydrateResult = iota
	// FromMirror means a guest cart was loaded from the mirror.
	FromMirror
	// FromRemote means the server's cart replaced the local one.
	FromRemote
	// RemoteFallback means the server could not be read and the mirror was
	// used instead.
	RemoteFallback
)

func (r HydrateResult) String() string {
	switch r {
	case Skipped:
		return "skipped"
	case FromMirror:
		return "mirror"
	case FromRemote:
		return "remote"
	case RemoteFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent, immutable view of the cart.
type Snapshot struct {
	Items       domain.Lines    `json:"items"`
	Count       int             `json:"count"`
	TotalItems  int             `json:"total_items"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Initialized bool            `json:"initialized"`
	Loading     bool            `json:"loading"`

	// Version increases with every committed change. Listeners may receive
	// snapshots out of order and should drop older versions.
	Version uint64 `json:"version"`
}

// Listener receives a snapshot after each committed change. It must not
// block for long; it runs on the goroutine that made the change.
type Listener func(Snapshot)
