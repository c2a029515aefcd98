package messaging

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
	"github.com/viditkulsh/CyberTrek/internal/infrastructure/persistence/memory"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

func quietBusConfig() InMemoryEventBusConfig {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.Logger = logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
	return cfg
}

type countingHandler struct {
	mu    sync.Mutex
	types []shared.EventType
	seen  []shared.Event
	err   error
}

func (h *countingHandler) Handle(event shared.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, event)
	return h.err
}

func (h *countingHandler) InterestedIn() []shared.EventType {
	return h.types
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func newTestRecord(t *testing.T) *progress.ProgressRecord {
	t.Helper()
	record, err := progress.NewProgressRecord("0xWalletAlpha", time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return record
}

func TestInMemoryEventBus(t *testing.T) {
	t.Run("routes by event type", func(t *testing.T) {
		bus := NewInMemoryEventBus(quietBusConfig())
		defer bus.Close()

		xpHandler := &countingHandler{types: []shared.EventType{shared.EventXPGained}}
		allHandler := &countingHandler{}
		require.NoError(t, bus.Subscribe(xpHandler))
		require.NoError(t, bus.Subscribe(allHandler))

		record := newTestRecord(t)
		require.NoError(t, bus.Publish(progress.NewCreatedEvent(record)))

		levels, err := record.AddXP(300, time.Now())
		require.NoError(t, err)
		require.NoError(t, bus.Publish(progress.NewXPGainedEvent(record, 300, levels)))

		assert.Equal(t, 1, xpHandler.count())
		assert.Equal(t, 2, allHandler.count())
	})

	t.Run("handler errors are swallowed", func(t *testing.T) {
		bus := NewInMemoryEventBus(quietBusConfig())
		defer bus.Close()

		failing := &countingHandler{err: errors.New("projection down")}
		require.NoError(t, bus.Subscribe(failing))

		err := bus.Publish(progress.NewCreatedEvent(newTestRecord(t)))
		assert.NoError(t, err)
		assert.Equal(t, 1, failing.count())
	})

	t.Run("handler panic is contained", func(t *testing.T) {
		bus := NewInMemoryEventBus(quietBusConfig())
		defer bus.Close()

		require.NoError(t, bus.Subscribe(shared.EventHandlerFunc{
			Fn: func(shared.Event) error { panic("boom") },
		}))

		assert.NoError(t, bus.Publish(progress.NewCreatedEvent(newTestRecord(t))))
	})

	t.Run("closed bus rejects publish and subscribe", func(t *testing.T) {
		bus := NewInMemoryEventBus(quietBusConfig())
		require.NoError(t, bus.Close())

		assert.ErrorIs(t, bus.Publish(progress.NewCreatedEvent(newTestRecord(t))), ErrEventBusClosed)
		assert.ErrorIs(t, bus.Subscribe(&countingHandler{}), ErrEventBusClosed)
	})

	t.Run("nil handler and nil event rejected", func(t *testing.T) {
		bus := NewInMemoryEventBus(quietBusConfig())
		defer bus.Close()

		assert.Error(t, bus.Subscribe(nil))
		assert.Error(t, bus.Publish(nil))
	})
}

func TestLeaderboardProjector(t *testing.T) {
	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
	board := memory.NewLeaderboard()
	projector := NewLeaderboardProjector(board, log)

	bus := NewInMemoryEventBus(quietBusConfig())
	defer bus.Close()
	require.NoError(t, bus.Subscribe(projector))

	record := newTestRecord(t)
	require.NoError(t, bus.Publish(progress.NewCreatedEvent(record)))

	levels, err := record.AddXP(1200, time.Now())
	require.NoError(t, err)
	require.NoError(t, bus.Publish(progress.NewXPGainedEvent(record, 1200, levels)))

	top, err := board.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, progress.WalletAddress("0xWalletAlpha"), top[0].Wallet)
	assert.Equal(t, 1200, top[0].LifetimeXP)

	t.Run("float payload after a json round trip", func(t *testing.T) {
		event := &remoteEvent{
			eventType:   shared.EventXPGained,
			aggregateID: "0xWalletBeta",
			occurredAt:  time.Now(),
			payload:     map[string]interface{}{"lifetime_xp": float64(900)},
		}
		require.NoError(t, projector.Handle(event))

		entry, err := board.Rank(context.Background(), "0xWalletBeta")
		require.NoError(t, err)
		assert.Equal(t, 900, entry.LifetimeXP)
	})

	t.Run("missing lifetime_xp is an error", func(t *testing.T) {
		event := &remoteEvent{
			eventType:   shared.EventXPGained,
			aggregateID: "0xWalletBeta",
			occurredAt:  time.Now(),
			payload:     map[string]interface{}{},
		}
		assert.Error(t, projector.Handle(event))
	})
}

// recordingCache tracks invalidated wallets.
type recordingCache struct {
	mu          sync.Mutex
	invalidated []progress.WalletAddress
}

func (c *recordingCache) Get(_ context.Context, _ progress.WalletAddress) (*progress.ProgressRecord, error) {
	return nil, progress.ErrRecordNotFound
}

func (c *recordingCache) Set(_ context.Context, _ *progress.ProgressRecord, _ time.Duration) error {
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, wallet progress.WalletAddress) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, wallet)
	return nil
}

func (c *recordingCache) InvalidateAll(_ context.Context) error {
	return nil
}

func TestCacheInvalidator(t *testing.T) {
	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
	cache := &recordingCache{}
	invalidator := NewCacheInvalidator(cache, log)

	bus := NewInMemoryEventBus(quietBusConfig())
	defer bus.Close()
	require.NoError(t, bus.Subscribe(invalidator))

	record := newTestRecord(t)
	require.NoError(t, bus.Publish(progress.NewCreatedEvent(record)))
	_, err := record.AddXP(300, time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, bus.Publish(progress.NewXPGainedEvent(record, 300, 0)))

	cache.mu.Lock()
	defer cache.mu.Unlock()
	assert.Equal(t, []progress.WalletAddress{"0xWalletAlpha", "0xWalletAlpha"}, cache.invalidated)
}
