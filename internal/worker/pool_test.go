package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	p1 := NewPool[string, int](context.Background(), 5)
	if p1.Workers() != 5 {
		t.Errorf("expected 5 workers, got %d", p1.Workers())
	}

	p2 := NewPool[string, int](context.Background(), 0)
	if p2.Workers() != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p2.Workers())
	}

	p3 := NewPool[string, int](context.Background(), -1)
	if p3.Workers() != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p3.Workers())
	}
}

func TestPool_Execution(t *testing.T) {
	pool := NewPool[int, int](context.Background(), 2)

	var executed int32
	count := 10

	for i := 0; i < count; i++ {
		i := i
		if err := pool.Submit(i, func(ctx context.Context) (int, error) {
			atomic.AddInt32(&executed, 1)
			return i * i, nil
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	results := pool.Wait()

	if len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}
	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executed tasks, got %d", count, executed)
	}
	for i := 0; i < count; i++ {
		if results[i].Value != i*i {
			t.Errorf("expected result %d for key %d, got %d", i*i, i, results[i].Value)
		}
	}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 10
	pool := NewPool[int, struct{}](context.Background(), workers)

	var current int32
	var maxConcurrent int32
	var completed int32
	var mu sync.Mutex

	totalTasks := 50

	for i := 0; i < totalTasks; i++ {
		_ = pool.Submit(i, func(ctx context.Context) (struct{}, error) {
			curr := atomic.AddInt32(&current, 1)
			mu.Lock()
			if curr > maxConcurrent {
				maxConcurrent = curr
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			atomic.AddInt32(&current, -1)
			atomic.AddInt32(&completed, 1)
			return struct{}{}, nil
		})
	}

	pool.Wait()

	if atomic.LoadInt32(&completed) != int32(totalTasks) {
		t.Errorf("expected %d completed tasks, got %d", totalTasks, completed)
	}

	mu.Lock()
	max := maxConcurrent
	mu.Unlock()

	if max > int32(workers) {
		t.Errorf("max concurrency %d exceeded workers %d", max, workers)
	}
	if max <= 1 {
		t.Logf("Warning: max concurrency was %d, expected > 1", max)
	}
}

func TestPool_ErrorIsolation(t *testing.T) {
	pool := NewPool[string, string](context.Background(), 2)

	_ = pool.Submit("bad", func(ctx context.Context) (string, error) {
		return "", errors.New("task error")
	})
	_ = pool.Submit("panics", func(ctx context.Context) (string, error) {
		panic("boom")
	})
	_ = pool.Submit("slow", func(ctx context.Context) (string, error) {
		// A sibling failure must not cancel this task
		select {
		case <-time.After(20 * time.Millisecond):
			return "ok", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	results := pool.Wait()
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results["bad"].Err == nil {
		t.Error("expected error for failing task")
	}
	if results["panics"].Err == nil {
		t.Error("expected panic to be recovered as an error")
	}
	if results["slow"].Err != nil || results["slow"].Value != "ok" {
		t.Errorf("expected sibling to finish, got %+v", results["slow"])
	}
}

func TestPool_DuplicateKey(t *testing.T) {
	pool := NewPool[string, int](context.Background(), 1)
	task := func(ctx context.Context) (int, error) { return 1, nil }

	if err := pool.Submit("a", task); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	if err := pool.Submit("a", task); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	pool.Wait()
}

func TestPool_SubmitAfterWait(t *testing.T) {
	pool := NewPool[string, int](context.Background(), 1)
	pool.Wait()

	err := pool.Submit("late", func(ctx context.Context) (int, error) { return 0, nil })
	if !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPool_KeysKeepSubmissionOrder(t *testing.T) {
	pool := NewPool[string, int](context.Background(), 4)
	want := []string{"c", "a", "b"}
	for _, k := range want {
		_ = pool.Submit(k, func(ctx context.Context) (int, error) { return 0, nil })
	}
	pool.Wait()

	if got := fmt.Sprint(pool.Keys()); got != fmt.Sprint(want) {
		t.Errorf("expected keys %v, got %v", want, got)
	}
}
