package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DeferredWriter batches character state saves off the game loop. Saves are
// keyed by character ID, so a burst of updates for the same character
// collapses to the latest one. Failed flushes are retried on the next
// interval with the pending state kept.
type DeferredWriter struct {
	store    CharacterStore
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[int64]StateUpdate

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewDeferredWriter creates and starts a writer flushing every interval.
//
// Precondition: store must be non-nil; interval > 0.
// Postcondition: the flush goroutine runs until Stop is called.
func NewDeferredWriter(store CharacterStore, interval time.Duration, logger *zap.Logger) *DeferredWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &DeferredWriter{
		store:    store,
		interval: interval,
		logger:   logger,
		pending:  make(map[int64]StateUpdate),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue records a state update for the next flush, replacing any pending
// update for the same character.
func (w *DeferredWriter) Enqueue(upd StateUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[upd.CharacterID] = upd
}

// Flush writes out every pending update immediately. Updates that fail stay
// pending for the next attempt.
func (w *DeferredWriter) Flush(ctx context.Context) {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[int64]StateUpdate, len(batch))
	w.mu.Unlock()

	for id, upd := range batch {
		if err := w.store.SaveState(ctx, upd); err != nil {
			w.logger.Warn("character save failed, retrying next flush",
				zap.Int64("character_id", id),
				zap.Error(err))
			w.mu.Lock()
			// A newer update enqueued during the flush wins.
			if _, exists := w.pending[id]; !exists {
				w.pending[id] = upd
			}
			w.mu.Unlock()
		}
	}
}

// PendingCount returns how many characters have unsaved state.
func (w *DeferredWriter) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Stop flushes once more and stops the background goroutine. Safe to call
// multiple times.
func (w *DeferredWriter) Stop(ctx context.Context) {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.Flush(ctx)
	})
}

func (w *DeferredWriter) run() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.Flush(context.Background())
		case <-w.stop:
			return
		}
	}
}
