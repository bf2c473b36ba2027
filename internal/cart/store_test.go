package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/domain"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/gateway"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/mirror"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/mirror/memory"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/logger"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type remoteCall struct {
	op    string
	token string
	id    domain.ProductID
	qty   int
}

type fakeGateway struct {
	mu       sync.Mutex
	items    []gateway.RemoteItem
	getErr   error
	writeErr error
	getCalls int
	calls    []remoteCall

	// When set, Get signals started and then waits for release.
	started chan struct{}
	release chan struct{}
}

func (g *fakeGateway) Get(ctx context.Context, token string) ([]gateway.RemoteItem, error) {
	g.mu.Lock()
	g.getCalls++
	items, err := g.items, g.getErr
	started, release := g.started, g.release
	g.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return items, err
}

func (g *fakeGateway) Add(_ context.Context, token string, id domain.ProductID, qty int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, remoteCall{op: opAdd, token: token, id: id, qty: qty})
	return g.writeErr
}

func (g *fakeGateway) Remove(_ context.Context, token string, id domain.ProductID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, remoteCall{op: opRemove, token: token, id: id})
	return g.writeErr
}

func (g *fakeGateway) Calls() []remoteCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]remoteCall(nil), g.calls...)
}

func (g *fakeGateway) GetCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.getCalls
}

type tokenBox struct{ v atomic.Value }

func newTokenBox(token string) *tokenBox {
	b := &tokenBox{}
	b.Set(token)
	return b
}

func (b *tokenBox) Set(token string) { b.v.Store(token) }
func (b *tokenBox) Token() string    { return b.v.Load().(string) }

type mockGateway struct {
	mock.Mock
}

func (g *mockGateway) Get(ctx context.Context, token string) ([]gateway.RemoteItem, error) {
	args := g.Called(ctx, token)
	items, _ := args.Get(0).([]gateway.RemoteItem)
	return items, args.Error(1)
}

func (g *mockGateway) Add(ctx context.Context, token string, id domain.ProductID, qty int) error {
	return g.Called(ctx, token, id, qty).Error(0)
}

func (g *mockGateway) Remove(ctx context.Context, token string, id domain.ProductID) error {
	return g.Called(ctx, token, id).Error(0)
}

// switchingMirror changes the session token on every write once armed,
// landing a login or logout between a mutation and its remote push.
type switchingMirror struct {
	*memory.Store
	armed  atomic.Bool
	tokens *tokenBox
	next   string
}

func (m *switchingMirror) Set(ctx context.Context, key string, value []byte) error {
	if err := m.Store.Set(ctx, key, value); err != nil {
		return err
	}
	if m.armed.Load() {
		m.tokens.Set(m.next)
	}
	return nil
}

type failingMirror struct{ *memory.Store }

func (failingMirror) Set(context.Context, string, []byte) error { return errors.New("disk full") }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func product(id, price string) domain.Product {
	raw, _ := json.Marshal(map[string]string{"id": id, "price": price, "name": "Product " + id})
	return domain.Product{
		ID:    domain.ProductID(id),
		Price: decimal.RequireFromString(price),
		Raw:   raw,
	}
}

type fixture struct {
	store  *Store
	mirror *memory.Store
	remote *fakeGateway
	tokens *tokenBox
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	f := &fixture{
		mirror: memory.New(),
		remote: &fakeGateway{},
		tokens: newTokenBox(token),
	}
	f.store = New(f.mirror, f.remote, f.tokens, logger.Discard(), WithRemoteTimeout(time.Second))
	return f
}

func (f *fixture) drain(t *testing.T) {
	t.Helper()
	waitWrites(t, f.store)
}

func waitWrites(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func (f *fixture) mirrored(t *testing.T) domain.Lines {
	t.Helper()
	var lines domain.Lines
	found, err := mirror.LoadJSON(context.Background(), f.mirror, mirror.SlotCart, &lines)
	require.NoError(t, err)
	require.True(t, found, "cart slot should be written")
	return lines
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

func TestAddToCart_MergesIntoExistingLine(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	f.store.AddToCart(ctx, product("p1", "10"), 2)
	f.store.AddToCart(ctx, product("p1", "10"), 3)

	lines := f.store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, domain.ProductID("p1"), lines[0].ProductID)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(50).Equal(f.store.TotalPrice()))
	assert.Equal(t, 1, f.store.Count())
	assert.Equal(t, 5, f.store.TotalItems())
}

func TestAddToCart_KeepsInsertionOrderAndPayload(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	f.store.AddToCart(ctx, product("b", "1"), 1)
	f.store.AddToCart(ctx, product("a", "2"), 1)
	f.store.AddToCart(ctx, product("b", "1"), 1)

	lines := f.store.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, domain.ProductID("b"), lines[0].ProductID)
	assert.Equal(t, domain.ProductID("a"), lines[1].ProductID)
	assert.JSONEq(t, `{"id":"b","price":"1","name":"Product b"}`, string(lines[0].Product))
}

func TestAddToCart_IgnoresNonPositiveQuantity(t *testing.T) {
	f := newFixture(t, "tok")
	ctx := context.Background()
	f.store.AddToCart(ctx, product("p1", "10"), 1)
	f.drain(t)
	before := f.store.Snapshot()

	f.store.AddToCart(ctx, product("p1", "10"), 0)
	f.store.AddToCart(ctx, product("p1", "10"), -4)
	f.store.AddToCart(ctx, product("p2", "10"), 0)
	f.drain(t)

	assert.Equal(t, before, f.store.Snapshot())
	assert.Len(t, f.remote.Calls(), 1)
}

func TestAddToCart_IgnoresProductWithoutID(t *testing.T) {
	f := newFixture(t, "")
	f.store.AddToCart(context.Background(), domain.Product{Price: decimal.NewFromInt(1)}, 1)
	assert.Zero(t, f.store.Count())
	assert.False(t, f.mirror.Has(mirror.SlotCart))
}

func TestAddToCart_GuestWritesMirrorOnly(t *testing.T) {
	f := newFixture(t, "")
	f.store.AddToCart(context.Background(), product("p1", "10"), 2)
	f.drain(t)

	assert.Empty(t, f.remote.Calls())
	mirrored := f.mirrored(t)
	require.Len(t, mirrored, 1)
	assert.Equal(t, 2, mirrored[0].Quantity)
	assert.True(t, decimal.NewFromInt(10).Equal(mirrored[0].UnitPrice))
}

func TestAddToCart_SignedInPushesResultingQuantity(t *testing.T) {
	f := newFixture(t, "tok")
	ctx := context.Background()

	f.store.AddToCart(ctx, product("p1", "10"), 2)
	f.store.AddToCart(ctx, product("p1", "10"), 3)
	f.drain(t)

	calls := f.remote.Calls()
	require.Len(t, calls, 2)
	assert.ElementsMatch(t, []remoteCall{
		{op: opAdd, token: "tok", id: "p1", qty: 2},
		{op: opAdd, token: "tok", id: "p1", qty: 5},
	}, calls)
	assert.Equal(t, 5, f.mirrored(t)[0].Quantity)
}

func TestAddToCart_RemoteFailureKeepsLocalState(t *testing.T) {
	f := newFixture(t, "tok")
	f.remote.writeErr = errors.New("backend 500")
	failed := remoteWritesTotal.WithLabelValues(opAdd, "error")
	before := testutil.ToFloat64(failed)

	f.store.AddToCart(context.Background(), product("p1", "10"), 1)
	f.drain(t)

	assert.True(t, f.store.IsInCart("p1"))
	assert.Equal(t, 1, f.mirrored(t)[0].Quantity)
	assert.Len(t, f.remote.Calls(), 1)
	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestAddToCart_MirrorFailureKeepsMemoryState(t *testing.T) {
	failures := mirror.WriteFailures.WithLabelValues(mirror.SlotCart)
	before := testutil.ToFloat64(failures)

	store := New(failingMirror{memory.New()}, &fakeGateway{}, newTokenBox(""), logger.Discard())
	store.AddToCart(context.Background(), product("p1", "3.50"), 2)

	assert.Equal(t, 2, store.ItemQuantity("p1"))
	assert.True(t, decimal.RequireFromString("7").Equal(store.TotalPrice()))
	assert.Equal(t, before+1, testutil.ToFloat64(failures))
}

func TestAddToCart_CallerCancellationDoesNotAbortWrite(t *testing.T) {
	f := newFixture(t, "tok")
	ctx, cancel := context.WithCancel(context.Background())

	f.store.AddToCart(ctx, product("p1", "10"), 1)
	cancel()
	f.drain(t)

	assert.Len(t, f.remote.Calls(), 1)
}

func TestMutations_PushWithTokenFromMutationTime(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ctx context.Context, s *Store)
		expect func(g *mockGateway)
	}{
		{
			name:   "add",
			mutate: func(ctx context.Context, s *Store) { s.AddToCart(ctx, product("p1", "10"), 2) },
			expect: func(g *mockGateway) {
				g.On("Add", mock.Anything, "tok-a", domain.ProductID("p1"), 3).Return(nil).Once()
			},
		},
		{
			name:   "update",
			mutate: func(ctx context.Context, s *Store) { s.UpdateQuantity(ctx, "p1", 7) },
			expect: func(g *mockGateway) {
				g.On("Add", mock.Anything, "tok-a", domain.ProductID("p1"), 7).Return(nil).Once()
			},
		},
		{
			name:   "remove",
			mutate: func(ctx context.Context, s *Store) { s.RemoveFromCart(ctx, "p1") },
			expect: func(g *mockGateway) {
				g.On("Remove", mock.Anything, "tok-a", domain.ProductID("p1")).Return(nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tokens := newTokenBox("tok-a")
			m := &switchingMirror{Store: memory.New(), tokens: tokens, next: "tok-b"}
			remote := &mockGateway{}
			remote.On("Add", mock.Anything, "tok-a", domain.ProductID("p1"), 1).Return(nil).Once()
			tt.expect(remote)

			s := New(m, remote, tokens, logger.Discard(), WithRemoteTimeout(time.Second))
			s.AddToCart(ctx, product("p1", "10"), 1)
			waitWrites(t, s)

			m.armed.Store(true)
			tt.mutate(ctx, s)
			waitWrites(t, s)

			assert.Equal(t, "tok-b", tokens.Token())
			remote.AssertExpectations(t)
		})
	}
}

func TestAddToCart_GuestChangeIsNotPushedAfterLogin(t *testing.T) {
	tokens := newTokenBox("")
	m := &switchingMirror{Store: memory.New(), tokens: tokens, next: "tok-new"}
	m.armed.Store(true)
	remote := &mockGateway{}
	remote.On("Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	s := New(m, remote, tokens, logger.Discard(), WithRemoteTimeout(time.Second))
	s.AddToCart(context.Background(), product("p1", "10"), 1)
	waitWrites(t, s)

	assert.Equal(t, "tok-new", tokens.Token())
	assert.True(t, s.IsInCart("p1"))
	remote.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveFromCart(t *testing.T) {
	f := newFixture(t, "tok")
	ctx := context.Background()
	f.store.AddToCart(ctx, product("p1", "10"), 1)
	f.store.AddToCart(ctx, product("p2", "5"), 2)

	f.store.RemoveFromCart(ctx, "p1")
	f.drain(t)

	assert.False(t, f.store.IsInCart("p1"))
	assert.Equal(t, 1, f.store.Count())
	assert.True(t, decimal.NewFromInt(10).Equal(f.store.TotalPrice()))
	assert.Contains(t, f.remote.Calls(), remoteCall{op: opRemove, token: "tok", id: "p1"})
	require.Len(t, f.mirrored(t), 1)
}

func TestRemoveFromCart_Idempotent(t *testing.T) {
	f := newFixture(t, "tok")
	ctx := context.Background()
	f.store.AddToCart(ctx, product("p1", "10"), 1)
	f.store.AddToCart(ctx, product("p2", "10"), 1)

	f.store.RemoveFromCart(ctx, "p1")
	f.drain(t)
	once := f.store.Snapshot()
	callsAfterOnce := len(f.remote.Calls())

	f.store.RemoveFromCart(ctx, "p1")
	f.drain(t)

	assert.Equal(t, once, f.store.Snapshot())
	assert.Len(t, f.remote.Calls(), callsAfterOnce)
}

func TestUpdateQuantity_BelowOneBehavesAsRemove(t *testing.T) {
	for _, qty := range []int{0, -1} {
		t.Run(fmt.Sprintf("qty %d", qty), func(t *testing.T) {
			viaUpdate := newFixture(t, "tok")
			viaRemove := newFixture(t, "tok")
			ctx := context.Background()

			for _, f := range []*fixture{viaUpdate, viaRemove} {
				f.store.AddToCart(ctx, product("p1", "10"), 3)
				f.store.AddToCart(ctx, product("p2", "4"), 1)
			}

			viaUpdate.store.UpdateQuantity(ctx, "p1", qty)
			viaRemove.store.RemoveFromCart(ctx, "p1")
			viaUpdate.drain(t)
			viaRemove.drain(t)

			assert.Equal(t, viaRemove.store.Lines(), viaUpdate.store.Lines())
			assert.Equal(t, viaRemove.mirrored(t), viaUpdate.mirrored(t))
			assert.ElementsMatch(t, viaRemove.remote.Calls(), viaUpdate.remote.Calls())
		})
	}
}

func TestUpdateQuantity_SetsAbsoluteQuantity(t *testing.T) {
	f := newFixture(t, "tok")
	ctx := context.Background()
	f.store.AddToCart(ctx, product("p1", "2.25"), 1)

	f.store.UpdateQuantity(ctx, "p1", 4)
	f.drain(t)

	assert.Equal(t, 4, f.store.ItemQuantity("p1"))
	assert.True(t, decimal.RequireFromString("9").Equal(f.store.TotalPrice()))
	assert.Contains(t, f.remote.Calls(), remoteCall{op: opAdd, token: "tok", id: "p1", qty: 4})
	assert.Equal(t, 4, f.mirrored(t)[0].Quantity)
}

func TestUpdateQuantity_NoOps(t *testing.T) {
	f := newFixture(t, "tok")
	ctx := context.Background()
	f.store.AddToCart(ctx, product("p1", "10"), 2)
	f.drain(t)
	before := f.store.Snapshot()

	f.store.UpdateQuantity(ctx, "p1", 2)
	f.store.UpdateQuantity(ctx, "missing", 3)
	f.store.UpdateQuantity(ctx, "missing", 0)
	f.drain(t)

	assert.Equal(t, before, f.store.Snapshot())
	assert.Len(t, f.remote.Calls(), 1)
	assert.Zero(t, f.store.ItemQuantity("missing"))
}

func TestResetCart(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.store.Hydrate(ctx)
	f.store.AddToCart(ctx, product("p1", "10"), 2)
	require.True(t, f.mirror.Has(mirror.SlotCart))

	f.store.ResetCart(ctx)

	snap := f.store.Snapshot()
	assert.Empty(t, snap.Items)
	assert.NotNil(t, snap.Items)
	assert.Zero(t, snap.Count)
	assert.True(t, snap.TotalPrice.IsZero())
	assert.False(t, snap.Initialized)
	assert.False(t, snap.Loading)
	assert.False(t, f.mirror.Has(mirror.SlotCart))
	assert.Equal(t, PhaseIdle, f.store.Phase())
}

func TestResetCart_OnEmptyStore(t *testing.T) {
	f := newFixture(t, "")
	f.store.ResetCart(context.Background())
	assert.Zero(t, f.store.Count())
	assert.False(t, f.mirror.Has(mirror.SlotCart))
}

// ---------------------------------------------------------------------------
// Hydration
// ---------------------------------------------------------------------------

func TestHydrate_GuestLoadsMirror(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	require.NoError(t, mirror.SaveJSON(ctx, f.mirror, mirror.SlotCart, domain.Lines{
		{ProductID: "a", Quantity: 2, UnitPrice: decimal.NewFromInt(5)},
		{ProductID: "b", Quantity: 0, UnitPrice: decimal.NewFromInt(5)},
		{ProductID: "a", Quantity: 9, UnitPrice: decimal.NewFromInt(5)},
	}))

	assert.Equal(t, FromMirror, f.store.Hydrate(ctx))

	assert.True(t, f.store.Initialized())
	assert.False(t, f.store.Loading())
	assert.Equal(t, 1, f.store.Count())
	assert.Equal(t, 2, f.store.ItemQuantity("a"))
	assert.Zero(t, f.remote.GetCalls())
}

func TestHydrate_GuestCorruptMirrorIsEmpty(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	require.NoError(t, f.mirror.Set(ctx, mirror.SlotCart, []byte(`[{"product_id":`)))

	assert.Equal(t, FromMirror, f.store.Hydrate(ctx))
	assert.True(t, f.store.Initialized())
	assert.Zero(t, f.store.Count())
}

func TestHydrate_RemoteReplacesLocalLines(t *testing.T) {
	f := newFixture(t, "tok")
	ctx := context.Background()
	f.store.AddToCart(ctx, product("local-only", "99"), 1)
	f.drain(t)
	f.remote.items = []gateway.RemoteItem{
		{ID: "l1", ProductID: "A", Quantity: 2, UnitPrice: decimal.NewFromInt(50), Product: json.RawMessage(`{"id":"A","name":"Rice"}`)},
		{ID: "l2", ProductID: "B", Quantity: 1, UnitPrice: decimal.RequireFromString("12.5")},
	}

	assert.Equal(t, FromRemote, f.store.Hydrate(ctx))

	lines := f.store.Lines()
	require.Len(t, lines, 2)
	assert.False(t, f.store.IsInCart("local-only"))
	assert.Equal(t, domain.LineID("l1"), lines[0].RemoteLineID)
	assert.JSONEq(t, `{"id":"A","name":"Rice"}`, string(lines[0].Product))
	assert.True(t, decimal.RequireFromString("112.5").Equal(f.store.TotalPrice()))
	assert.Equal(t, lines, f.mirrored(t))
	assert.Equal(t, 1, f.remote.GetCalls())
}

func TestHydrate_RemoteFailureFallsBackToMirror(t *testing.T) {
	f := newFixture(t, "tok")
	ctx := context.Background()
	require.NoError(t, mirror.SaveJSON(ctx, f.mirror, mirror.SlotCart, domain.Lines{
		{ProductID: "m1", Quantity: 3, UnitPrice: decimal.NewFromInt(2)},
	}))
	f.remote.getErr = errors.New("connection refused")

	assert.Equal(t, RemoteFallback, f.store.Hydrate(ctx))

	assert.True(t, f.store.Initialized())
	assert.False(t, f.store.Loading())
	assert.Equal(t, 3, f.store.ItemQuantity("m1"))
}

func TestHydrate_AtMostOncePerSession(t *testing.T) {
	f := newFixture(t, "tok")
	ctx := context.Background()

	assert.Equal(t, FromRemote, f.store.Hydrate(ctx))
	assert.Equal(t, Skipped, f.store.Hydrate(ctx))
	assert.Equal(t, 1, f.remote.GetCalls())
}

func TestHydrate_ConcurrentCallsFetchOnce(t *testing.T) {
	f := newFixture(t, "tok")
	f.remote.started = make(chan struct{}, 1)
	f.remote.release = make(chan struct{})
	f.remote.items = []gateway.RemoteItem{{ProductID: "A", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}}
	ctx := context.Background()

	first := make(chan HydrateResult, 1)
	go func() { first <- f.store.Hydrate(ctx) }()
	<-f.remote.started

	assert.True(t, f.store.Loading())
	assert.False(t, f.store.Initialized())
	assert.Equal(t, Skipped, f.store.Hydrate(ctx))

	close(f.remote.release)
	assert.Equal(t, FromRemote, <-first)
	assert.Equal(t, 1, f.remote.GetCalls())
	assert.True(t, f.store.Initialized())
}

func TestHydrate_ResetDuringFetchDiscardsResult(t *testing.T) {
	f := newFixture(t, "tok")
	f.remote.started = make(chan struct{}, 1)
	f.remote.release = make(chan struct{})
	f.remote.items = []gateway.RemoteItem{{ProductID: "stale", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}}
	ctx := context.Background()

	result := make(chan HydrateResult, 1)
	go func() { result <- f.store.Hydrate(ctx) }()
	<-f.remote.started

	f.store.ResetCart(ctx)
	close(f.remote.release)

	assert.Equal(t, Skipped, <-result)
	assert.Zero(t, f.store.Count())
	assert.Equal(t, PhaseIdle, f.store.Phase())
	assert.False(t, f.mirror.Has(mirror.SlotCart))
}

func TestScenario_GuestCartThenLogin(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	assert.Equal(t, FromMirror, f.store.Hydrate(ctx))
	f.store.AddToCart(ctx, product("A", "50"), 1)
	f.drain(t)

	assert.Equal(t, 1, f.store.Count())
	assert.True(t, decimal.NewFromInt(50).Equal(f.store.TotalPrice()))
	assert.Len(t, f.mirrored(t), 1)
	assert.Empty(t, f.remote.Calls())
	assert.Zero(t, f.remote.GetCalls())

	f.tokens.Set("tok")
	assert.Equal(t, Skipped, f.store.Hydrate(ctx))
	assert.Zero(t, f.remote.GetCalls())

	f.remote.items = []gateway.RemoteItem{{ProductID: "A", Quantity: 1, UnitPrice: decimal.NewFromInt(50)}}
	f.store.ResetCart(ctx)
	assert.Equal(t, FromRemote, f.store.Hydrate(ctx))

	lines := f.store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, domain.ProductID("A"), lines[0].ProductID)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(50).Equal(lines[0].UnitPrice))
	assert.True(t, decimal.NewFromInt(50).Equal(f.store.TotalPrice()))
}

// ---------------------------------------------------------------------------
// Subscriptions and shutdown
// ---------------------------------------------------------------------------

func TestSubscribe(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	var got []Snapshot
	unsubscribe := f.store.Subscribe(func(s Snapshot) { got = append(got, s) })

	f.store.AddToCart(ctx, product("p1", "10"), 1)
	f.store.UpdateQuantity(ctx, "p1", 1)
	f.store.UpdateQuantity(ctx, "p1", 3)

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].TotalItems)
	assert.Equal(t, 3, got[1].TotalItems)
	assert.Greater(t, got[1].Version, got[0].Version)

	unsubscribe()
	f.store.RemoveFromCart(ctx, "p1")
	assert.Len(t, got, 2)
}

func TestSnapshot_IsDetached(t *testing.T) {
	f := newFixture(t, "")
	f.store.AddToCart(context.Background(), product("p1", "10"), 1)

	snap := f.store.Snapshot()
	snap.Items[0].Quantity = 99

	assert.Equal(t, 1, f.store.ItemQuantity("p1"))
}

type blockingGateway struct {
	fakeGateway
	unblock chan struct{}
}

func (g *blockingGateway) Add(ctx context.Context, _ string, _ domain.ProductID, _ int) error {
	select {
	case <-g.unblock:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestWait_HonoursContext(t *testing.T) {
	remote := &blockingGateway{unblock: make(chan struct{})}
	store := New(memory.New(), remote, newTokenBox("tok"), logger.Discard(), WithRemoteTimeout(time.Minute))
	store.AddToCart(context.Background(), product("p1", "1"), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, store.Wait(ctx), context.DeadlineExceeded)

	close(remote.unblock)
	require.NoError(t, store.Wait(context.Background()))
}

func TestRemoteWriteTimeout(t *testing.T) {
	remote := &blockingGateway{unblock: make(chan struct{})}
	store := New(memory.New(), remote, newTokenBox("tok"), logger.Discard(), WithRemoteTimeout(10*time.Millisecond))
	store.AddToCart(context.Background(), product("p1", "1"), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, store.Wait(ctx))
	assert.Equal(t, 1, store.ItemQuantity("p1"))
}

func TestPhaseAndResultStrings(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "ready", PhaseReady.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "mirror", FromMirror.String())
	assert.Equal(t, "remote", FromRemote.String())
	assert.Equal(t, "fallback", RemoteFallback.String())
}
