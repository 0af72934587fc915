package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_TryDoBusy(t *testing.T) {
	p := NewPool(nil)
	started := make(chan struct{})
	release := make(chan struct{})

	done := p.Submit(context.Background(), "Spell.dbc", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	assert.True(t, p.Busy("Spell.dbc"))
	err := p.TryDo(context.Background(), "Spell.dbc", func(ctx context.Context) error {
		t.Error("busy key must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrBusy)

	ran := false
	require.NoError(t, p.TryDo(context.Background(), "Item.dbc", func(ctx context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran, "other keys run concurrently")

	close(release)
	require.NoError(t, <-done)
	assert.False(t, p.Busy("Spell.dbc"))
}

func TestPool_BusyLeavesTryDoAlone(t *testing.T) {
	p := NewPool(nil)
	stop := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					p.Busy("Item.dbc")
				}
			}
		}()
	}

	var runs int
	for i := 0; i < 2000; i++ {
		err := p.TryDo(context.Background(), "Item.dbc", func(ctx context.Context) error {
			runs++
			return nil
		})
		if !assert.NoError(t, err, "idle key refused on attempt %d", i) {
			break
		}
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, 2000, runs)
	assert.False(t, p.Busy("Item.dbc"))
}

func TestPool_BusyDuringDo(t *testing.T) {
	p := NewPool(nil)
	var seen bool
	require.NoError(t, p.Do(context.Background(), "Map.dbc", func(ctx context.Context) error {
		seen = p.Busy("Map.dbc")
		return nil
	}))
	assert.True(t, seen)
	assert.False(t, p.Busy("Map.dbc"))
}

func TestPool_DoSerialisesPerKey(t *testing.T) {
	p := NewPool(nil)
	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Do(context.Background(), "same", func(ctx context.Context) error {
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Empty(t, p.slots, "idle keys are forgotten")
}

func TestPool_DoContextCancelled(t *testing.T) {
	p := NewPool(nil)
	release := make(chan struct{})
	started := make(chan struct{})

	first := p.Submit(context.Background(), "k", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := p.Do(ctx, "k", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	assert.NoError(t, <-first)
}

func TestPool_SubmitReturnsTaskError(t *testing.T) {
	p := NewPool(nil)
	boom := errors.New("boom")

	err := <-p.Submit(context.Background(), "k", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, open := <-p.Submit(context.Background(), "k", func(ctx context.Context) error { return nil })
	assert.True(t, open)
	p.Wait()
}
