package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"voice-order-service/internal/cart"
	"voice-order-service/internal/catalog"
	"voice-order-service/internal/dto"
	"voice-order-service/internal/metrics"
	"voice-order-service/internal/model"
	"voice-order-service/internal/repository"
)

// MockPublisher es mock de EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderPlaced(ctx context.Context, ev dto.OrderPlacedEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockPublisher) PublishStatusChanged(ctx context.Context, ev dto.StatusChangedEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newClock() *fixedClock {
	return &fixedClock{t: time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC)}
}

func newRepo(t *testing.T) *repository.FileOrderRepository {
	repo, err := repository.NewFileOrderRepository(filepath.Join(t.TempDir(), "orders"))
	require.NoError(t, err)
	return repo
}

func catalogItem(id, price string) model.CatalogItem {
	return model.CatalogItem{ID: id, Name: id, Price: decimal.RequireFromString(price), Unit: "each"}
}

func filledCart() *cart.Cart {
	c := cart.New()
	c.Add(catalogItem("bread_whole_wheat", "3.00"), 2)
	c.Add(catalogItem("peanut_butter", "4.50"), 1)
	return c
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc := NewOrderService(newRepo(t))
	c := cart.New()

	o, err := svc.Checkout(context.Background(), c, "Ana", "")
	assert.Nil(t, o)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.ErrorIs(t, err, model.ErrInvalidState)
	assert.Equal(t, 0, c.Len())
}

func TestCheckout_DefaultsToGuestAndClearsCart(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	clock := newClock()
	svc := NewOrderService(repo, WithClock(clock.now))
	c := filledCart()

	o, err := svc.Checkout(ctx, c, "  ", "")
	require.NoError(t, err)

	assert.Equal(t, "Guest", o.CustomerName)
	assert.Equal(t, "order_Guest_20251124100001", o.ID)
	assert.Equal(t, model.StatusPlaced, o.Status)
	require.Len(t, o.StatusHistory, 1)
	assert.Equal(t, model.StatusPlaced, o.StatusHistory[0].Status)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("10.50")))
	assert.Equal(t, 0, c.Len())

	stored, err := repo.FindByOrderID(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
}

func TestCheckout_SnapshotIndependentOfCart(t *testing.T) {
	svc := NewOrderService(newRepo(t))
	c := filledCart()

	o, err := svc.Checkout(context.Background(), c, "Ana", "Calle 1")
	require.NoError(t, err)

	c.Add(catalogItem("bread_whole_wheat", "99.00"), 5)

	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.Items[0].UnitPrice.Equal(decimal.RequireFromString("3.00")))
	assert.True(t, o.Items[0].LineTotal.Equal(decimal.RequireFromString("6.00")))
}

func TestCheckout_SameSecondGetsSuffix(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC)
	svc := NewOrderService(newRepo(t), WithClock(func() time.Time { return at }))

	first, err := svc.Checkout(ctx, filledCart(), "John Doe", "")
	require.NoError(t, err)
	second, err := svc.Checkout(ctx, filledCart(), "John Doe", "")
	require.NoError(t, err)

	assert.Equal(t, "order_John_Doe_20251124100000", first.ID)
	assert.Equal(t, "order_John_Doe_20251124100000-2", second.ID)
}

func TestCheckout_PublishesEvent(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishOrderPlaced", mock.Anything, mock.MatchedBy(func(ev dto.OrderPlacedEvent) bool {
		return ev.CustomerName == "Ana" && len(ev.Items) == 2 && ev.CorrelationID != ""
	})).Return(nil).Once()

	svc := NewOrderService(newRepo(t), WithEvents(pub))
	_, err := svc.Checkout(context.Background(), filledCart(), "Ana", "")
	require.NoError(t, err)

	pub.AssertExpectations(t)
}

func TestCheckout_PublishFailureIsNotFatal(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishOrderPlaced", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := NewOrderService(newRepo(t), WithEvents(pub))
	o, err := svc.Checkout(context.Background(), filledCart(), "Ana", "")
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
}

func TestAdvance_FollowsProgression(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := NewOrderService(newRepo(t), WithClock(newClock().now), WithMetrics(m))

	o, err := svc.Checkout(ctx, filledCart(), "Ana", "")
	require.NoError(t, err)

	want := []string{model.StatusPreparing, model.StatusOutForDelivery, model.StatusDelivered}
	for i, status := range want {
		got, err := svc.Advance(ctx, o.ID, "")
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
		assert.Len(t, got.StatusHistory, i+2)
		assert.Equal(t, status, got.StatusHistory[len(got.StatusHistory)-1].Status)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitions.WithLabelValues(model.StatusDelivered, "progression")))
}

func TestAdvance_PreparingToOutForDeliveryAppendsOneEntry(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewOrderService(repo)

	o, err := svc.Checkout(ctx, filledCart(), "Ana", "")
	require.NoError(t, err)
	_, err = svc.Advance(ctx, o.ID, "")
	require.NoError(t, err)

	before, err := repo.FindByOrderID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPreparing, before.Status)

	after, err := svc.Advance(ctx, o.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOutForDelivery, after.Status)
	assert.Len(t, after.StatusHistory, len(before.StatusHistory)+1)
}

func TestAdvance_TerminalIsIdempotentButAppendsHistory(t *testing.T) {
	ctx := context.Background()
	svc := NewOrderService(newRepo(t))

	o, err := svc.Checkout(ctx, filledCart(), "Ana", "")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.Advance(ctx, o.ID, "")
		require.NoError(t, err)
	}

	for i := 0; i < 2; i++ {
		got, err := svc.Advance(ctx, o.ID, "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusDelivered, got.Status)
		assert.Len(t, got.StatusHistory, 5+i)
	}
}

func TestAdvance_UnknownStatusResetsToPlaced(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewOrderService(repo)

	o, err := svc.Checkout(ctx, filledCart(), "Ana", "")
	require.NoError(t, err)
	o.Status = "lost_in_space"
	require.NoError(t, repo.Save(ctx, o))

	got, err := svc.Advance(ctx, o.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPlaced, got.Status)
}

func TestAdvance_ExplicitStatusIsVerbatim(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	pub := new(MockPublisher)
	pub.On("PublishOrderPlaced", mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishStatusChanged", mock.Anything, mock.MatchedBy(func(ev dto.StatusChangedEvent) bool {
		return ev.OldStatus == model.StatusPlaced && ev.NewStatus == model.StatusDelivered && ev.Override
	})).Return(nil).Once()
	pub.On("PublishStatusChanged", mock.Anything, mock.MatchedBy(func(ev dto.StatusChangedEvent) bool {
		return ev.NewStatus == model.StatusPlaced && ev.Override
	})).Return(nil).Once()

	svc := NewOrderService(newRepo(t), WithMetrics(m), WithEvents(pub))
	o, err := svc.Checkout(ctx, filledCart(), "Ana", "")
	require.NoError(t, err)

	got, err := svc.Advance(ctx, o.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, got.Status)

	// hacia atrás también se acepta
	got, err = svc.Advance(ctx, o.ID, "placed")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPlaced, got.Status)
	assert.Len(t, got.StatusHistory, 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitions.WithLabelValues(model.StatusPlaced, "override")))
	pub.AssertExpectations(t)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	svc := NewOrderService(newRepo(t), WithClock(clock.now))

	alice1, err := svc.Checkout(ctx, filledCart(), "Alice", "")
	require.NoError(t, err)
	_, err = svc.Checkout(ctx, filledCart(), "Alice", "")
	require.NoError(t, err)
	bob, err := svc.Checkout(ctx, filledCart(), "Bob", "")
	require.NoError(t, err)

	t.Run("exact with json suffix", func(t *testing.T) {
		o, err := svc.Get(ctx, alice1.ID+".json")
		require.NoError(t, err)
		assert.Equal(t, alice1.ID, o.ID)
	})

	t.Run("unique prefix", func(t *testing.T) {
		status, history, err := svc.Status(ctx, "order_Bob")
		require.NoError(t, err)
		assert.Equal(t, model.StatusPlaced, status)
		assert.Len(t, history, 1)
		_ = bob
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, err := svc.Get(ctx, "order_Alice")
		assert.ErrorIs(t, err, ErrAmbiguousOrderID)
		assert.ErrorIs(t, err, model.ErrValidation)

		var amb *AmbiguousOrderIDError
		require.ErrorAs(t, err, &amb)
		assert.Len(t, amb.Candidates, 2)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Advance(ctx, "order_Zed", "")
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.ErrorIs(t, err, model.ErrNotFound)

		_, err = svc.Get(ctx, "   ")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestAdvanceAll(t *testing.T) {
	ctx := context.Background()
	svc := NewOrderService(newRepo(t), WithClock(newClock().now))

	_, err := svc.Checkout(ctx, filledCart(), "Ana", "")
	require.NoError(t, err)
	_, err = svc.Checkout(ctx, filledCart(), "Bob", "")
	require.NoError(t, err)

	res, err := svc.AdvanceAll(ctx)
	require.NoError(t, err)
	require.Len(t, res, 2)
	for _, r := range res {
		assert.NoError(t, r.Err)
		assert.Equal(t, model.StatusPreparing, r.NewStatus)
	}

	ids, err := svc.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{res[0].OrderID, res[1].OrderID}, ids)
}

// failingStore guarda en memoria pero falla Save cuando failSave está activo.
type failingStore struct {
	*cart.MemoryStore
	failSave bool
}

func (f *failingStore) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	if f.failSave {
		return errors.New("redis: connection refused")
	}
	return f.MemoryStore.Save(ctx, sessionID, c)
}

func TestCartService_PlaceOrderReturnsOrderWhenCartSaveFails(t *testing.T) {
	ctx := context.Background()
	cat := catalog.New([]model.CatalogItem{catalogItem("peanut_butter", "4.50")})
	store := &failingStore{MemoryStore: cart.NewMemoryStore()}
	orders := NewOrderService(newRepo(t), WithClock(newClock().now))
	svc := NewCartService(cat, store, orders, nil)

	_, err := svc.AddItem(ctx, "s1", "peanut_butter", 2)
	require.NoError(t, err)

	store.failSave = true
	o, err := svc.PlaceOrder(ctx, "s1", "Ana", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCartNotCleared)
	require.NotNil(t, o)
	assert.Equal(t, "order_Ana_20251124100001", o.ID)
	assert.Contains(t, err.Error(), o.ID)

	stored, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.RequireFromString("9.00")))
}

func TestCheckout_TimestampsSurviveBSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 11, 24, 10, 0, 0, 123456789, time.UTC)
	svc := NewOrderService(newRepo(t), WithClock(func() time.Time {
		clock = clock.Add(time.Second + 987*time.Nanosecond)
		return clock
	}))

	o, err := svc.Checkout(ctx, filledCart(), "Ana", "")
	require.NoError(t, err)
	o, err = svc.Advance(ctx, o.ID, "")
	require.NoError(t, err)
	assert.Zero(t, o.Timestamp.Nanosecond()%int(time.Millisecond))

	reg := repository.NewBSONRegistry()
	raw, err := bson.MarshalWithRegistry(reg, o)
	require.NoError(t, err)
	var back model.Order
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &back))

	assert.True(t, o.Timestamp.Equal(back.Timestamp))
	require.Len(t, back.StatusHistory, 2)
	for i, h := range o.StatusHistory {
		assert.True(t, h.Timestamp.Equal(back.StatusHistory[i].Timestamp), "history %d", i)
	}
	assert.True(t, o.Total.Equal(back.Total))
}

func TestCartService(t *testing.T) {
	ctx := context.Background()
	cat := catalog.New([]model.CatalogItem{
		catalogItem("bread_whole_wheat", "3.00"),
		catalogItem("peanut_butter", "4.50"),
	})
	store := cart.NewMemoryStore()
	orders := NewOrderService(newRepo(t))
	svc := NewCartService(cat, store, orders, nil)

	_, err := svc.AddItem(ctx, "s1", "caviar", 1)
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)

	_, err = svc.PlaceOrder(ctx, "s1", "Ana", "")
	assert.ErrorIs(t, err, ErrEmptyCart)

	added, c, err := svc.AddRecipe(ctx, "s1", "peanut butter sandwich", 2)
	require.NoError(t, err)
	assert.Len(t, added, 2)
	assert.True(t, c.Total().Equal(decimal.RequireFromString("15.00")))

	// otra sesión no ve el carrito
	other, err := svc.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Len())

	_, err = svc.RemoveItem(ctx, "s1", "caviar")
	assert.ErrorIs(t, err, cart.ErrItemNotInCart)

	c, err = svc.UpdateQuantity(ctx, "s1", "peanut_butter", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	o, err := svc.PlaceOrder(ctx, "s1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Guest", o.CustomerName)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("6.00")))

	after, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, after.Len())
}
