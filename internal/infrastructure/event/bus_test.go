package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderEvent struct {
	shared.BaseDomainEvent
}

func newOrderEvent(eventType string) *orderEvent {
	return &orderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Order", uuid.New()),
	}
}

// recordingHandler collects every event it receives.
type recordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	seen       []shared.DomainEvent
	err        error
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.eventTypes }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panickingHandler) EventTypes() []string                             { return nil }

func TestInMemoryEventBus_DeliversByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	placed := newRecordingHandler("order.placed")
	paid := newRecordingHandler("order.paid")
	bus.Subscribe(placed)
	bus.Subscribe(paid)

	require.NoError(t, bus.Publish(context.Background(), newOrderEvent("order.placed")))

	assert.Equal(t, 1, placed.count())
	assert.Zero(t, paid.count())
}

func TestInMemoryEventBus_MultipleEventsAndHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	first := newRecordingHandler("order.paid")
	second := newRecordingHandler("order.paid")
	bus.Subscribe(first)
	bus.Subscribe(second)

	require.NoError(t, bus.Publish(context.Background(),
		newOrderEvent("order.paid"), newOrderEvent("order.paid")))

	assert.Equal(t, 2, first.count())
	assert.Equal(t, 2, second.count())
}

func TestInMemoryEventBus_CatchAllHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	audit := newRecordingHandler()
	bus.Subscribe(audit)

	require.NoError(t, bus.Publish(context.Background(),
		newOrderEvent("order.placed"), newOrderEvent("listing.sold_out")))

	assert.Equal(t, 2, audit.count())
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newRecordingHandler("order.cancelled")
	failing.err = errors.New("restock failed")
	next := newRecordingHandler("order.cancelled")
	bus.Subscribe(failing)
	bus.Subscribe(next)

	require.NoError(t, bus.Publish(context.Background(), newOrderEvent("order.cancelled")))

	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, next.count())
}

func TestInMemoryEventBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	bus.Subscribe(panickingHandler{}, "order.paid")
	after := newRecordingHandler("order.paid")
	bus.Subscribe(after)

	require.NoError(t, bus.Publish(context.Background(), newOrderEvent("order.paid")))
	assert.Equal(t, 1, after.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newRecordingHandler("order.placed")
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newOrderEvent("order.placed")))
	bus.Unsubscribe(handler)
	require.NoError(t, bus.Publish(context.Background(), newOrderEvent("order.placed")))

	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))

	handler := newRecordingHandler("order.placed")
	bus.Subscribe(handler)
	require.NoError(t, bus.Publish(ctx, newOrderEvent("order.placed")))
	assert.Equal(t, 1, handler.count())

	require.NoError(t, bus.Stop(ctx))
}
