// Package worker runs codec operations off the caller's goroutine while
// keeping at most one operation in flight per file.
//
// Decode and encode passes are synchronous and hold no locks of their own, so
// a File must not be used by two passes at once. Pool serialises work by key
// (normally the file path or a stored file id): Do waits its turn, TryDo
// fails fast with ErrBusy, and Submit runs the work on a new goroutine and
// reports through a channel. Work on different keys runs concurrently.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned by TryDo when the key already has work running.
var ErrBusy = errors.New("operation already running for this file")

// Task is one unit of work.
type Task func(ctx context.Context) error

// Pool serialises tasks per key.
type Pool struct {
	mutex  sync.Mutex
	slots  map[string]*slot
	logger *slog.Logger
	wg     sync.WaitGroup
}

type slot struct {
	sem  *semaphore.Weighted
	refs int
	busy bool // guarded by Pool.mutex
}

// NewPool creates a pool. A nil logger discards log output.
func NewPool(logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pool{
		slots:  make(map[string]*slot),
		logger: logger,
	}
}

// Do runs task once no other task holds key, or returns ctx's error if the
// context ends first.
func (p *Pool) Do(ctx context.Context, key string, task Task) error {
	s := p.acquireSlot(key)
	defer p.releaseSlot(key)

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for %s: %w", key, err)
	}
	p.hold(s)
	defer p.unhold(s)

	return p.run(ctx, key, task)
}

// TryDo runs task only if key is idle; otherwise it returns ErrBusy without
// waiting.
func (p *Pool) TryDo(ctx context.Context, key string, task Task) error {
	s := p.acquireSlot(key)
	defer p.releaseSlot(key)

	if !s.sem.TryAcquire(1) {
		return ErrBusy
	}
	p.hold(s)
	defer p.unhold(s)

	return p.run(ctx, key, task)
}

// Submit runs task on its own goroutine, after any earlier task for key. The
// returned channel receives the result and is then closed. Callers that stop
// caring about the result may simply stop reading; the task still runs to
// completion.
func (p *Pool) Submit(ctx context.Context, key string, task Task) <-chan error {
	done := make(chan error, 1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(done)
		done <- p.Do(ctx, key, task)
	}()
	return done
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Busy reports whether a task currently holds key. It never touches the
// key's semaphore, so it cannot make a concurrent TryDo fail.
func (p *Pool) Busy(key string) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	s, ok := p.slots[key]
	return ok && s.busy
}

// hold marks s busy once its semaphore is taken; unhold clears the flag
// before handing the semaphore back.
func (p *Pool) hold(s *slot) {
	p.mutex.Lock()
	s.busy = true
	p.mutex.Unlock()
}

func (p *Pool) unhold(s *slot) {
	p.mutex.Lock()
	s.busy = false
	p.mutex.Unlock()
	s.sem.Release(1)
}

func (p *Pool) run(ctx context.Context, key string, task Task) error {
	start := time.Now()
	err := task(ctx)
	if err != nil {
		p.logger.Warn("task failed", "key", key, "elapsed", time.Since(start), "error", err)
		return err
	}
	p.logger.Debug("task finished", "key", key, "elapsed", time.Since(start))
	return nil
}

func (p *Pool) acquireSlot(key string) *slot {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	s, ok := p.slots[key]
	if !ok {
		s = &slot{sem: semaphore.NewWeighted(1)}
		p.slots[key] = s
	}
	s.refs++
	return s
}

// releaseSlot drops the key's entry once nobody is using or waiting on it.
func (p *Pool) releaseSlot(key string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	s := p.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(p.slots, key)
	}
}
