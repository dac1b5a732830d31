package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrDuplicateKey is returned when a key is submitted twice to one pool
	ErrDuplicateKey = errors.New("duplicate task key")

	// ErrPoolClosed is returned when submitting after Wait
	ErrPoolClosed = errors.New("pool already waited")
)

// Task is a unit of work executed by the pool
type Task[V any] func(ctx context.Context) (V, error)

// Result is the outcome of one task
type Result[V any] struct {
	Value    V
	Err      error
	Duration time.Duration
}

// Pool runs keyed tasks with bounded concurrency and joins them at a single
// barrier. A failing or panicking task never cancels its siblings.
//
// Submit and Wait must be called from one goroutine. Tasks only write their
// own result slot, so no locking is needed.
type Pool[K comparable, V any] struct {
	workers int
	ctx     context.Context
	g       errgroup.Group
	keys    []K
	slots   map[K]*Result[V]
	waited  bool
}

// NewPool creates a pool running at most workers tasks at once
func NewPool[K comparable, V any](ctx context.Context, workers int) *Pool[K, V] {
	if workers <= 0 {
		workers = 1
	}

	p := &Pool[K, V]{
		workers: workers,
		ctx:     ctx,
		slots:   make(map[K]*Result[V]),
	}
	p.g.SetLimit(workers)
	return p
}

// Submit schedules a task under key. It blocks while the pool is full.
func (p *Pool[K, V]) Submit(key K, task Task[V]) error {
	if p.waited {
		return ErrPoolClosed
	}
	if _, dup := p.slots[key]; dup {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, key)
	}

	slot := &Result[V]{}
	p.slots[key] = slot
	p.keys = append(p.keys, key)

	p.g.Go(func() error {
		run(p.ctx, task, slot)
		return nil
	})
	return nil
}

// Wait blocks until every submitted task has finished and returns the results
// keyed by submission key.
func (p *Pool[K, V]) Wait() map[K]Result[V] {
	p.waited = true
	_ = p.g.Wait()

	results := make(map[K]Result[V], len(p.slots))
	for k, slot := range p.slots {
		results[k] = *slot
	}
	return results
}

// Keys returns the submitted keys in submission order
func (p *Pool[K, V]) Keys() []K {
	return append([]K(nil), p.keys...)
}

// Workers returns the concurrency bound
func (p *Pool[K, V]) Workers() int {
	return p.workers
}

func run[V any](ctx context.Context, task Task[V], slot *Result[V]) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slot.Err = fmt.Errorf("task panicked: %v", r)
		}
		slot.Duration = time.Since(start)
	}()

	slot.Value, slot.Err = task(ctx)
}
