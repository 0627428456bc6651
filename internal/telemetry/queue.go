package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/squareft/authbridge/internal/config"
	"github.com/squareft/authbridge/internal/logger"
	"go.uber.org/zap"
)

// Writer persists a batch of events. A nil error means the whole batch is
// durable; any error means none of it may be considered written.
type Writer interface {
	Write(ctx context.Context, batch []Event) error
}

// Recorder is the batching activity queue. Enqueue never blocks on storage:
// events accumulate in memory and a debounce timer (or a full batch) triggers
// an asynchronous write. Only one write is in flight at a time; a queue that
// grows during a write gets exactly one follow-up flush.
type Recorder struct {
	writer  Writer
	metrics *Metrics

	batchDelay   time.Duration
	maxBatchSize int
	maxAttempts  int
	maxBackoff   time.Duration

	mu       sync.Mutex
	queue    []Event
	timer    *time.Timer
	busy     bool
	attempts int
	userID   string
	orgID    string
}

func NewRecorder(cfg *config.Config, writer Writer, metrics *Metrics) *Recorder {
	t := cfg.Telemetry
	if t.BatchDelay <= 0 {
		t.BatchDelay = time.Second
	}
	if t.MaxBatchSize <= 0 {
		t.MaxBatchSize = 10
	}
	if t.MaxAttempts <= 0 {
		t.MaxAttempts = 5
	}
	if t.MaxBackoff <= 0 {
		t.MaxBackoff = 30 * time.Second
	}
	return &Recorder{
		writer:       writer,
		metrics:      metrics,
		batchDelay:   t.BatchDelay,
		maxBatchSize: t.MaxBatchSize,
		maxAttempts:  t.MaxAttempts,
		maxBackoff:   t.MaxBackoff,
	}
}

// SetUser attributes subsequent events to the signed-in identity. Call after
// login.
func (r *Recorder) SetUser(userID, organizationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userID = userID
	r.orgID = organizationID
}

// ClearUser drops the attribution. Call on logout.
func (r *Recorder) ClearUser() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userID = ""
	r.orgID = ""
}

// Log builds an event from the catalog and enqueues it.
func (r *Recorder) Log(t EventType, data Data) {
	r.Enqueue(Event{Type: t, Data: data})
}

// Enqueue appends the event to the queue and arms a flush. Category,
// description, attribution and timestamp are filled in when absent. Never
// blocks on storage.
func (r *Recorder) Enqueue(e Event) {
	if e.Category == "" {
		e.Category = e.Type.Category()
	}
	if e.Description == "" {
		e.Description = Describe(e.Type, e.Data)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	if e.UserID == "" {
		e.UserID = r.userID
	}
	if e.OrganizationID == "" {
		e.OrganizationID = r.orgID
	}
	r.queue = append(r.queue, e)
	r.metrics.enqueued.Inc()
	r.scheduleLocked(0)
	r.mu.Unlock()
}

// scheduleLocked arms a flush unless one is already pending. A full queue
// flushes immediately, bypassing the debounce. The extra delay is the retry
// backoff; zero means the normal debounce applies.
func (r *Recorder) scheduleLocked(backoff time.Duration) {
	if r.timer != nil {
		return
	}
	delay := r.batchDelay
	if backoff > 0 {
		delay = backoff
	} else if len(r.queue) >= r.maxBatchSize {
		delay = 0
	}
	r.timer = time.AfterFunc(delay, r.flush)
}

func (r *Recorder) flush() {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.busy || len(r.queue) == 0 {
		r.mu.Unlock()
		return
	}
	r.busy = true
	batch := r.takeLocked()
	r.mu.Unlock()

	err := r.writer.Write(context.Background(), batch)

	r.mu.Lock()
	r.busy = false
	backoff := r.settleLocked(batch, err)
	if len(r.queue) > 0 {
		r.scheduleLocked(backoff)
	}
	r.mu.Unlock()
}

// takeLocked removes and returns the head batch.
func (r *Recorder) takeLocked() []Event {
	n := min(len(r.queue), r.maxBatchSize)
	batch := make([]Event, n)
	copy(batch, r.queue[:n])
	r.queue = append([]Event(nil), r.queue[n:]...)
	return batch
}

// settleLocked applies the write outcome. A failed batch goes back to the
// front so replay order is preserved; after maxAttempts consecutive failures
// the batch is dropped instead of wedging the queue forever. Returns the
// backoff to use for the next flush, zero after a success.
func (r *Recorder) settleLocked(batch []Event, err error) time.Duration {
	if err == nil {
		r.attempts = 0
		r.metrics.flushSuccess.Inc()
		return 0
	}

	r.attempts++
	r.metrics.flushFailure.Inc()
	if r.attempts >= r.maxAttempts {
		logger.Error("dropping event batch after repeated write failures",
			zap.Int("events", len(batch)),
			zap.Int("attempts", r.attempts),
			zap.Error(err),
		)
		r.metrics.dropped.Add(float64(len(batch)))
		r.attempts = 0
		return 0
	}

	logger.Warn("event batch write failed, requeued at front",
		zap.Int("events", len(batch)),
		zap.Int("attempt", r.attempts),
		zap.Error(err),
	)
	r.queue = append(batch, r.queue...)

	backoff := r.batchDelay << r.attempts
	if backoff > r.maxBackoff {
		backoff = r.maxBackoff
	}
	return backoff
}

// FlushNow drains the queue synchronously, best effort. Used on teardown.
// Stops on the first failed write, leaving the failed batch at the front.
func (r *Recorder) FlushNow(ctx context.Context) {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.busy {
		r.mu.Unlock()
		return
	}
	r.busy = true
	for len(r.queue) > 0 {
		batch := r.takeLocked()
		r.mu.Unlock()
		err := r.writer.Write(ctx, batch)
		r.mu.Lock()
		if err != nil {
			r.metrics.flushFailure.Inc()
			r.queue = append(batch, r.queue...)
			logger.Warn("teardown flush failed", zap.Int("events", len(r.queue)), zap.Error(err))
			break
		}
		r.metrics.flushSuccess.Inc()
	}
	r.busy = false
	r.mu.Unlock()
}

// Pending reports how many events are queued.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}
