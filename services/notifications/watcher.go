package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/R3E-Network/complaint_client/internal/metrics"
	"github.com/R3E-Network/complaint_client/pkg/logger"
)

// DefaultPollInterval paces the watcher when no interval is configured.
const DefaultPollInterval = 30 * time.Second

// Fetcher loads the current notification page.
type Fetcher interface {
	GetNotifications(ctx context.Context) (*Page, error)
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Interval time.Duration
	// Buffer is the capacity of the output channel.
	Buffer  int
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

// Watcher polls for notifications and emits each unread one the first time
// it is seen. It never retries: the first error ends the watch.
type Watcher struct {
	fetcher Fetcher
	limiter *rate.Limiter
	buffer  int
	metrics *metrics.Metrics
	log     *logger.Logger

	mu   sync.Mutex
	seen map[int64]struct{}
}

// NewWatcher creates a watcher over fetcher.
func NewWatcher(fetcher Fetcher, cfg WatcherConfig) *Watcher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 16
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Watcher{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		buffer:  buffer,
		metrics: cfg.Metrics,
		log:     log.Named("notifications-watcher"),
		seen:    make(map[int64]struct{}),
	}
}

// Watch polls until ctx is done or a fetch fails. Newly seen unread
// notifications are sent on the returned channel, which is closed when the
// watch ends. The error channel receives at most one value: the fetch error,
// or nil when ctx was cancelled.
func (w *Watcher) Watch(ctx context.Context) (<-chan Notification, <-chan error) {
	out := make(chan Notification, w.buffer)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)
		errc <- w.run(ctx, out)
	}()
	return out, errc
}

func (w *Watcher) run(ctx context.Context, out chan<- Notification) error {
	for {
		// Wait only fails when ctx ends before the next slot.
		if err := w.limiter.Wait(ctx); err != nil {
			return nil
		}

		fresh, err := w.Poll(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			w.log.WithContext(ctx).WithError(err).Warn("notification poll failed, stopping watch")
			return err
		}

		for _, n := range fresh {
			select {
			case out <- n:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Poll runs one round and returns unread notifications not seen before.
func (w *Watcher) Poll(ctx context.Context) ([]Notification, error) {
	page, err := w.fetcher.GetNotifications(ctx)
	if err != nil {
		w.metrics.PollRound("error")
		return nil, err
	}
	w.metrics.PollRound("ok")

	w.mu.Lock()
	defer w.mu.Unlock()

	var fresh []Notification
	for _, n := range page.Data {
		if n.Read {
			continue
		}
		if _, ok := w.seen[n.ID]; ok {
			continue
		}
		w.seen[n.ID] = struct{}{}
		fresh = append(fresh, n)
	}
	if len(fresh) > 0 {
		w.log.WithContext(ctx).WithField("count", len(fresh)).Debug("new notifications")
	}
	return fresh, nil
}
