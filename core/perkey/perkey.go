// Package perkey provides a scheduler that serializes work per key while
// allowing work for different keys to execute concurrently.
//
// The host uses it to give every actor identity exactly one turn at a
// time. A key's worker goroutine exits as soon as its queue drains, so the
// number of goroutines tracks the number of busy keys rather than the
// number of keys ever seen.
package perkey

import (
	"context"
	"errors"
	"sync"
)

// ErrSchedulerClosed is returned when Do is called on a closed scheduler.
var ErrSchedulerClosed = errors.New("scheduler is closed")

// Option configures a Scheduler.
type Option func(*config)

type config struct {
	bufferSize int
}

// WithBufferSize sets the task buffer size per worker (default: 64).
func WithBufferSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

// Scheduler runs tasks such that for any given key tasks execute
// sequentially, in submission order.
type Scheduler[K comparable] struct {
	mu         sync.Mutex
	workers    map[K]*worker
	closed     bool
	wg         sync.WaitGroup // tracks in-flight Do operations
	bufferSize int
}

type worker struct {
	tasks   chan *task
	pending int // queued or running tasks, guarded by Scheduler.mu
}

type task struct {
	fn   func() error
	done chan error
}

func New[K comparable](opts ...Option) *Scheduler[K] {
	cfg := &config{bufferSize: 64}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Scheduler[K]{
		workers:    make(map[K]*worker),
		bufferSize: cfg.bufferSize,
	}
}

// Do runs fn for key and blocks until it returns.
func (s *Scheduler[K]) Do(key K, fn func() error) error {
	return s.DoContext(context.Background(), key, fn)
}

// DoContext is like Do but stops waiting when ctx ends. A task that was
// already enqueued still runs.
func (s *Scheduler[K]) DoContext(ctx context.Context, key K, fn func() error) error {
	t, err := s.enqueue(ctx, key, fn)
	if err != nil {
		return err
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit enqueues fn for key without waiting for it to run. Tasks
// submitted by one goroutine run in submission order.
func (s *Scheduler[K]) Submit(ctx context.Context, key K, fn func() error) error {
	_, err := s.enqueue(ctx, key, fn)
	return err
}

func (s *Scheduler[K]) enqueue(ctx context.Context, key K, fn func() error) (*task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSchedulerClosed
	}
	s.wg.Add(1)
	defer s.wg.Done()
	w := s.acquireLocked(key)
	s.mu.Unlock()

	t := &task{fn: fn, done: make(chan error, 1)}

	select {
	case w.tasks <- t:
		return t, nil
	case <-ctx.Done():
		s.mu.Lock()
		s.releaseLocked(key, w)
		s.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Workers returns the number of keys with queued or running tasks.
func (s *Scheduler[K]) Workers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

// Close stops accepting tasks. Queued tasks still run.
func (s *Scheduler[K]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	// wait for Do calls that are still enqueueing
	s.wg.Wait()

	s.mu.Lock()
	for _, w := range s.workers {
		close(w.tasks)
	}
	s.workers = nil
	s.mu.Unlock()
}

func (s *Scheduler[K]) acquireLocked(key K) *worker {
	w, ok := s.workers[key]
	if !ok {
		w = &worker{tasks: make(chan *task, s.bufferSize)}
		s.workers[key] = w
		go s.run(key, w)
	}
	w.pending++
	return w
}

// releaseLocked drops a reservation that never reached the queue.
func (s *Scheduler[K]) releaseLocked(key K, w *worker) {
	w.pending--
	if w.pending == 0 && s.workers[key] == w {
		delete(s.workers, key)
		close(w.tasks)
	}
}

func (s *Scheduler[K]) run(key K, w *worker) {
	for t := range w.tasks {
		t.done <- t.fn()

		s.mu.Lock()
		w.pending--
		if w.pending == 0 && s.workers[key] == w {
			delete(s.workers, key)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}
