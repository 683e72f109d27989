// File: internal/infra/worker/queue_test.go
package worker

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(10, newTestLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		q.Enqueue(fmt.Sprintf("conv-%d", i))
	}
	if q.Size() != 5 {
		t.Fatalf("expected size 5, got %d", q.Size())
	}

	for i := 0; i < 5; i++ {
		id, ok := q.Dequeue(ctx, time.Second)
		if !ok {
			t.Fatalf("dequeue %d: expected item", i)
		}
		if want := fmt.Sprintf("conv-%d", i); id != want {
			t.Errorf("dequeue %d: got %s, want %s", i, id, want)
		}
	}
	if q.Size() != 0 {
		t.Errorf("expected empty queue, got size %d", q.Size())
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(2, newTestLogger())

	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c") // dropped, must not block

	if q.Size() != 2 {
		t.Fatalf("expected size 2 after overflow, got %d", q.Size())
	}

	id, _ := q.TryDequeue()
	if id != "a" {
		t.Errorf("expected oldest item to survive, got %s", id)
	}
}

func TestQueueDequeueTimeout(t *testing.T) {
	q := NewQueue(1, newTestLogger())

	start := time.Now()
	_, ok := q.Dequeue(context.Background(), 20*time.Millisecond)
	if ok {
		t.Fatal("expected timeout on empty queue")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("dequeue returned before the timeout elapsed")
	}
}

func TestQueueDequeueCancelled(t *testing.T) {
	q := NewQueue(1, newTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := q.Dequeue(ctx, time.Minute)
	if ok {
		t.Fatal("expected failure on cancelled context")
	}
}

func TestQueueTryDequeueEmpty(t *testing.T) {
	q := NewQueue(1, newTestLogger())
	if _, ok := q.TryDequeue(); ok {
		t.Fatal("expected TryDequeue to miss on empty queue")
	}
}
