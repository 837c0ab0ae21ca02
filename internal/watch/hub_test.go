package watch

import (
	"context"
	"testing"
	"time"
)

func TestHub_DeliversSnapshots(t *testing.T) {
	hub := NewHub[[]string]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := hub.Subscribe(ctx)
	hub.Publish([]string{"a"})

	select {
	case got := <-ch:
		if len(got) != 1 || got[0] != "a" {
			t.Errorf("got %v, want [a]", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}

func TestHub_SlowSubscriberGetsLatest(t *testing.T) {
	hub := NewHub[int]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := hub.Subscribe(ctx)

	// Not consuming between publishes: the stale snapshot is replaced.
	hub.Publish(1)
	hub.Publish(2)
	hub.Publish(3)

	select {
	case got := <-ch:
		if got != 3 {
			t.Errorf("got %d, want latest snapshot 3", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}

func TestHub_FanOut(t *testing.T) {
	hub := NewHub[int]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := hub.Subscribe(ctx)
	b := hub.Subscribe(ctx)
	hub.Publish(7)

	for _, ch := range []<-chan int{a, b} {
		select {
		case got := <-ch:
			if got != 7 {
				t.Errorf("got %d, want 7", got)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestHub_UnsubscribeOnContextCancel(t *testing.T) {
	hub := NewHub[int]()
	ctx, cancel := context.WithCancel(context.Background())

	ch := hub.Subscribe(ctx)
	if hub.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", hub.Subscribers())
	}

	cancel()

	deadline := time.After(time.Second)
	for hub.Subscribers() != 0 {
		select {
		case <-deadline:
			t.Fatal("subscriber not removed after cancel")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if _, ok := <-ch; ok {
		t.Error("channel not closed after cancel")
	}
}
