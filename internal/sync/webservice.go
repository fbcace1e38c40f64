package sync

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"recordings/internal/domain"
	"recordings/internal/store"
)

const queueLocation = "queue.json"

const exchangeTimeout = 30 * time.Second

// outcome classifies one completed exchange.
type outcome int

const (
	// outcomeSuccess: the server applied the change.
	outcomeSuccess outcome = iota
	// outcomeResolved: a definitive domain error; the pending item is
	// spent but the local tree already matches the desired end state.
	outcomeResolved
	// outcomeRollback: a definitive domain error that invalidates the
	// local change; the local item must go so client and server agree.
	outcomeRollback
	// outcomeTransient: no structured response at all; the item stays
	// queued for retry.
	outcomeTransient
)

// Webservice drains the pending-change queue against the server,
// strictly in FIFO order with at most one exchange in flight. Local
// store mutations feed the queue via the store's event bus; replays
// are triggered by new mutations, by explicit ProcessChanges calls
// (the app-foreground analog) and by a bounded exponential backoff
// timer after transient failures.
type Webservice struct {
	store     *store.Store
	client    *http.Client
	remoteURL string
	logger    *slog.Logger

	mu          sync.Mutex
	processing  bool
	queue       *queue
	retry       *backoff.ExponentialBackOff
	retryTimer  *time.Timer
	unsubscribe func()
}

func New(st *store.Store, remoteURL string, logger *slog.Logger) *Webservice {
	q, err := loadQueue(filepath.Join(st.DataDir(), queueLocation))
	if err != nil {
		logger.Warn("starting with empty change queue", "error", err)
	}

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = 2 * time.Second
	retry.MaxInterval = 2 * time.Minute
	retry.MaxElapsedTime = 0 // keep retrying until the server comes back

	w := &Webservice{
		store:     st,
		client:    &http.Client{Timeout: exchangeTimeout},
		remoteURL: remoteURL,
		logger:    logger,
		queue:     q,
		retry:     retry,
	}
	w.unsubscribe = st.Subscribe(w.storeChanged)
	return w
}

// RemoteURL is the server base URL this webservice replays against.
func (w *Webservice) RemoteURL() string { return w.remoteURL }

// Close stops observing the store and cancels any scheduled retry.
// Queued work stays persisted for the next launch.
func (w *Webservice) Close() {
	w.unsubscribe()
	w.mu.Lock()
	if w.retryTimer != nil {
		w.retryTimer.Stop()
	}
	w.mu.Unlock()
}

// storeChanged captures a local mutation as a PendingItem. It runs
// synchronously inside the store's notification, so the replay kicks
// off on its own goroutine.
func (w *Webservice) storeChanged(ev store.Event) {
	var verb domain.Verb
	switch ev.Reason {
	case store.Added:
		verb = domain.VerbCreate
	case store.Removed:
		verb = domain.VerbDelete
	case store.Renamed:
		verb = domain.VerbUpdate
	default:
		return
	}

	p := PendingItem{Change: verb, UUIDPath: ev.UUIDPath, Name: ev.Name, IsFolder: ev.IsFolder}
	if verb == domain.VerbCreate && !ev.IsFolder {
		p.RecordingPath = w.store.FilePath(ev.UUID)
	}

	w.mu.Lock()
	w.queue.push(p)
	if err := w.queue.save(); err != nil {
		w.logger.Error("could not persist change queue", "error", err)
	}
	w.mu.Unlock()

	go w.ProcessChanges()
}

// ProcessChanges replays queued changes head-first until the queue
// drains or a transient failure halts progress. Re-entrant calls and
// calls while an exchange is in flight are no-ops.
func (w *Webservice) ProcessChanges() {
	for {
		w.mu.Lock()
		if w.processing || w.queue.empty() {
			w.mu.Unlock()
			return
		}
		w.processing = true
		pending := w.queue.head()
		w.mu.Unlock()

		result := w.exchange(pending)

		w.mu.Lock()
		w.processing = false
		if result == outcomeTransient {
			w.scheduleRetryLocked()
			w.mu.Unlock()
			return
		}
		// The pop is persisted before anyone hears the change was
		// confirmed, so a crash here can neither replay nor lose it.
		w.queue.pop()
		if err := w.queue.save(); err != nil {
			w.logger.Error("could not persist change queue", "error", err)
		}
		w.retry.Reset()
		w.mu.Unlock()

		switch result {
		case outcomeSuccess:
			if item, ok := w.store.ItemAt(pending.UUIDPath); ok {
				w.store.NotifyReloaded(item.UUID)
			}
		case outcomeRollback:
			// The local change could not be validated by the server;
			// drop the optimistic local item to re-converge.
			if item, ok := w.store.ItemAt(pending.UUIDPath); ok {
				if err := w.store.Remove(item.UUID); err != nil {
					w.logger.Warn("rollback failed", "uuid", item.UUID, "error", err)
				}
			}
		}
	}
}

func (w *Webservice) exchange(pending PendingItem) outcome {
	ctx, cancel := context.WithTimeout(context.Background(), exchangeTimeout)
	defer cancel()

	_, err := Load(ctx, w.client, pending.resource(w.remoteURL))

	var ce domain.ChangeError
	switch {
	case err == nil:
		w.logger.Debug("change confirmed", "change", pending.Change, "name", pending.Name)
		return outcomeSuccess
	case errors.As(err, &ce):
		if ce == domain.ErrInvalidResponse {
			// Not a structured verdict, e.g. a proxy error page.
			w.logger.Debug("undecodable response, keeping queued", "change", pending.Change)
			return outcomeTransient
		}
		w.logger.Info("change rejected by server", "change", pending.Change, "name", pending.Name, "code", ce)
		if ce == domain.ErrItemAlreadyExists {
			// The item already matches the desired end state.
			return outcomeResolved
		}
		return outcomeRollback
	default:
		w.logger.Debug("change delivery failed, keeping queued", "change", pending.Change, "error", err)
		return outcomeTransient
	}
}

func (w *Webservice) scheduleRetryLocked() {
	d := w.retry.NextBackOff()
	if d == backoff.Stop {
		return
	}
	if w.retryTimer != nil {
		w.retryTimer.Stop()
	}
	w.retryTimer = time.AfterFunc(d, w.ProcessChanges)
}

// Flush replays queued changes and waits for the drain to settle. It
// returns the number of changes still queued, which is zero after a
// clean drain and non-zero when a transient failure halted progress.
func (w *Webservice) Flush(ctx context.Context) (int, error) {
	for {
		w.ProcessChanges()

		w.mu.Lock()
		remaining := len(w.queue.items)
		busy := w.processing
		w.mu.Unlock()

		if !busy {
			return remaining, nil
		}
		select {
		case <-ctx.Done():
			return remaining, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// NextChange returns the first queued change for the item path, if any.
// UIs use it to decorate rows whose state the server has not confirmed.
func (w *Webservice) NextChange(path []uuid.UUID) (domain.Verb, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.next(path)
}

// LatestChange returns the last queued change for the item path.
func (w *Webservice) LatestChange(path []uuid.UUID) (domain.Verb, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.latest(path)
}

// Pending snapshots the queue in order.
func (w *Webservice) Pending() []PendingItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]PendingItem, len(w.queue.items))
	copy(out, w.queue.items)
	return out
}
