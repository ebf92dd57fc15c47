package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/complaint_client/internal/metrics"
)

// scriptedFetcher returns pages in order, then repeats the last one.
type scriptedFetcher struct {
	mu    sync.Mutex
	pages []*Page
	errAt int
	err   error
	calls int
}

func (f *scriptedFetcher) GetNotifications(ctx context.Context) (*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil && f.calls == f.errAt {
		return nil, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.pages) {
		idx = len(f.pages) - 1
	}
	return f.pages[idx], nil
}

func page(items ...Notification) *Page {
	return &Page{Data: items}
}

func TestWatcher_Poll(t *testing.T) {
	fetcher := &scriptedFetcher{pages: []*Page{
		page(Notification{ID: 1}, Notification{ID: 2, Read: true}),
		page(Notification{ID: 1}, Notification{ID: 3}),
	}}
	m := metrics.New()
	w := NewWatcher(fetcher, WatcherConfig{Interval: time.Millisecond, Metrics: m})

	fresh, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, int64(1), fresh[0].ID)

	fresh, err = w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, int64(3), fresh[0].ID)

	fresh, err = w.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestWatcher_WatchStopsOnError(t *testing.T) {
	boom := errors.New("request failed with status 500")
	fetcher := &scriptedFetcher{
		pages: []*Page{page(Notification{ID: 1}), page(Notification{ID: 1}, Notification{ID: 2})},
		errAt: 3,
		err:   boom,
	}
	w := NewWatcher(fetcher, WatcherConfig{Interval: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, errc := w.Watch(ctx)

	var ids []int64
	for n := range out {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []int64{1, 2}, ids)
	assert.ErrorIs(t, <-errc, boom)
	assert.Equal(t, 3, fetcher.calls)
}

func TestWatcher_WatchStopsOnCancel(t *testing.T) {
	fetcher := &scriptedFetcher{pages: []*Page{page()}}
	w := NewWatcher(fetcher, WatcherConfig{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	out, errc := w.Watch(ctx)
	cancel()

	for range out {
	}
	assert.NoError(t, <-errc)
}
