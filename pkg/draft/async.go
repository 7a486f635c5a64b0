package draft

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

// AsyncSaver writes drafts on a background goroutine. Save never blocks on
// storage; when several snapshots for the same schema queue up before the
// worker runs, only the latest is written.
type AsyncSaver struct {
	store   *Store
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]model.Answers
	closed  bool

	wake  chan struct{}
	flush chan chan struct{}
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// AsyncOption configures an AsyncSaver.
type AsyncOption func(*AsyncSaver)

// WithWriteTimeout bounds each background write. Default: 5s.
func WithWriteTimeout(timeout time.Duration) AsyncOption {
	return func(a *AsyncSaver) {
		if timeout > 0 {
			a.timeout = timeout
		}
	}
}

// NewAsyncSaver starts the background writer for store.
func NewAsyncSaver(store *Store, options ...AsyncOption) *AsyncSaver {
	if store == nil {
		store = NewStore(nil)
	}
	a := &AsyncSaver{
		store:   store,
		timeout: 5 * time.Second,
		pending: make(map[string]model.Answers),
		wake:    make(chan struct{}, 1),
		flush:   make(chan chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}
	go a.run()
	return a
}

// Store exposes the underlying store for synchronous loads and saves.
func (a *AsyncSaver) Store() *Store {
	return a.store
}

// Save queues a snapshot of answers. After Close it writes synchronously.
func (a *AsyncSaver) Save(schemaID string, answers model.Answers) {
	snapshot := answers.Clone()

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.write(schemaID, snapshot)
		return
	}
	a.pending[schemaID] = snapshot
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every snapshot queued before the call is written or ctx
// is done.
func (a *AsyncSaver) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case a.flush <- reply:
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes anything still queued and stops the worker. It is safe to call
// more than once.
func (a *AsyncSaver) Close() error {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		close(a.stop)
	})
	<-a.done
	return nil
}

func (a *AsyncSaver) run() {
	defer close(a.done)
	for {
		select {
		case <-a.wake:
			a.drain()
		case reply := <-a.flush:
			a.drain()
			close(reply)
		case <-a.stop:
			a.drain()
			return
		}
	}
}

func (a *AsyncSaver) drain() {
	for {
		a.mu.Lock()
		if len(a.pending) == 0 {
			a.mu.Unlock()
			return
		}
		batch := a.pending
		a.pending = make(map[string]model.Answers)
		a.mu.Unlock()

		for schemaID, answers := range batch {
			a.write(schemaID, answers)
		}
	}
}

func (a *AsyncSaver) write(schemaID string, answers model.Answers) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	a.store.Save(ctx, schemaID, answers)
}
