package workqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNew_InvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		if _, err := New[int](c); !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("capacity %d: expected ErrInvalidCapacity, got %v", c, err)
		}
	}
}

func TestQueue_FIFO(t *testing.T) {
	q, err := New[int](5)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := q.Put(ctx, i); err != nil {
			t.Fatalf("Put %d failed: %v", i, err)
		}
	}
	if q.Len() != 5 || q.Cap() != 5 {
		t.Fatalf("expected len 5 cap 5, got len %d cap %d", q.Len(), q.Cap())
	}

	for i := 0; i < 5; i++ {
		got, err := q.Take(ctx)
		if err != nil {
			t.Fatalf("Take failed: %v", err)
		}
		if got != i {
			t.Errorf("expected %d, got %d", i, got)
		}
	}
}

func TestQueue_FIFOAcrossWrap(t *testing.T) {
	q, _ := New[int](3)
	ctx := context.Background()

	next := 0
	want := 0
	for round := 0; round < 10; round++ {
		for q.Len() < q.Cap() {
			q.Put(ctx, next)
			next++
		}
		for i := 0; i < 2; i++ {
			got, _ := q.Take(ctx)
			if got != want {
				t.Fatalf("round %d: expected %d, got %d", round, want, got)
			}
			want++
		}
	}
}

func TestQueue_TryPutFull(t *testing.T) {
	q, _ := New[string](2)

	if err := q.TryPut("a"); err != nil {
		t.Fatalf("TryPut failed: %v", err)
	}
	if err := q.TryPut("b"); err != nil {
		t.Fatalf("TryPut failed: %v", err)
	}
	if err := q.TryPut("c"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	// Nothing was dropped or reordered
	items := q.Drain()
	if len(items) != 2 || items[0] != "a" || items[1] != "b" {
		t.Errorf("unexpected queue contents: %v", items)
	}
}

func TestQueue_PutBlocksUntilSpace(t *testing.T) {
	q, _ := New[int](1)
	ctx := context.Background()
	q.Put(ctx, 1)

	done := make(chan error, 1)
	go func() {
		done <- q.Put(ctx, 2)
	}()

	select {
	case err := <-done:
		t.Fatalf("Put returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if got, _ := q.Take(ctx); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Put did not unblock after Take")
	}

	if got, _ := q.Take(ctx); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestQueue_PutContextCancelled(t *testing.T) {
	q, _ := New[int](1)
	q.Put(context.Background(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := q.Put(ctx, 2); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("expected the cancelled item not to be enqueued, len=%d", q.Len())
	}
}

func TestQueue_TakeContextCancelled(t *testing.T) {
	q, _ := New[int](1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Take(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Canceled, got %v", err)
	}
}

func TestQueue_CloseDrainsThenReportsClosed(t *testing.T) {
	q, _ := New[int](3)
	ctx := context.Background()
	q.Put(ctx, 1)
	q.Put(ctx, 2)
	q.Close()
	q.Close() // idempotent

	if !q.Closed() {
		t.Fatal("expected queue to be closed")
	}
	if err := q.Put(ctx, 3); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Put, got %v", err)
	}
	if err := q.TryPut(3); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from TryPut, got %v", err)
	}

	for _, want := range []int{1, 2} {
		got, err := q.Take(ctx)
		if err != nil || got != want {
			t.Fatalf("expected %d, got %d (%v)", want, got, err)
		}
	}
	if _, err := q.Take(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed once drained, got %v", err)
	}
}

func TestQueue_CloseWakesBlockedCallers(t *testing.T) {
	ctx := context.Background()

	empty, _ := New[int](1)
	takeErr := make(chan error, 1)
	go func() {
		_, err := empty.Take(ctx)
		takeErr <- err
	}()

	full, _ := New[int](1)
	full.Put(ctx, 1)
	putErr := make(chan error, 1)
	go func() {
		putErr <- full.Put(ctx, 2)
	}()

	time.Sleep(20 * time.Millisecond)
	empty.Close()
	full.Close()

	for name, ch := range map[string]chan error{"Take": takeErr, "Put": putErr} {
		select {
		case err := <-ch:
			if !errors.Is(err, ErrClosed) {
				t.Errorf("%s: expected ErrClosed, got %v", name, err)
			}
		case <-time.After(time.Second):
			t.Errorf("%s was not woken by Close", name)
		}
	}
}

func TestQueue_Drain(t *testing.T) {
	q, _ := New[int](4)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		q.Put(ctx, i)
	}

	items := q.Drain()
	if len(items) != 3 {
		t.Fatalf("expected 3 drained items, got %d", len(items))
	}
	for i, v := range items {
		if v != i {
			t.Errorf("drained[%d] = %d, want %d", i, v, i)
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue after Drain, len=%d", q.Len())
	}
}

func TestQueue_ConcurrentProducerConsumer(t *testing.T) {
	q, _ := New[int](4)
	ctx := context.Background()
	const total = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			if err := q.Put(ctx, i); err != nil {
				t.Errorf("Put failed: %v", err)
				return
			}
			if l := q.Len(); l > q.Cap() {
				t.Errorf("len %d exceeds capacity %d", l, q.Cap())
			}
		}
		q.Close()
	}()

	want := 0
	for {
		got, err := q.Take(ctx)
		if errors.Is(err, ErrClosed) {
			break
		}
		if err != nil {
			t.Fatalf("Take failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
		want++
	}
	wg.Wait()

	if want != total {
		t.Errorf("expected %d items, got %d", total, want)
	}
}
