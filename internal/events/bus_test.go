package events

import (
	"errors"
	"testing"
	"time"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("expected non-nil bus")
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
}

func TestBusSubscribe(t *testing.T) {
	bus := NewBus()

	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	if bus.SubscriberCount() != 2 {
		t.Errorf("expected 2 subscribers, got %d", bus.SubscriberCount())
	}
	if ch1 == nil || ch2 == nil {
		t.Error("expected non-nil channels")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	ch := bus.Subscribe()
	bus.Unsubscribe(ch)
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}

	// Unsubscribing twice is a no-op
	bus.Unsubscribe(ch)
}

func TestBusPublish(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()

	bus.Publish(NewPhaseStartedEvent("basic", "lpush", "lpush", 1, 4))

	select {
	case received := <-ch:
		if received.Type != EventPhaseStarted {
			t.Errorf("expected type %s, got %s", EventPhaseStarted, received.Type)
		}
		if received.Phase != "lpush" {
			t.Errorf("expected phase lpush, got %s", received.Phase)
		}
		if received.Data.PhaseCount != 4 {
			t.Errorf("expected phase count 4, got %d", received.Data.PhaseCount)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for event")
	}
}

func TestBusPublishMultipleSubscribers(t *testing.T) {
	bus := NewBus()

	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()

	bus.Publish(NewRunStartedEvent("basic", 4))

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case received := <-ch:
			if received.Type != EventRunStarted {
				t.Errorf("subscriber %d: expected type %s, got %s", i, EventRunStarted, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("subscriber %d: timeout waiting for event", i)
		}
	}
}

func TestBusPublishNonBlocking(t *testing.T) {
	bus := NewBus()
	bus.bufferSize = 1 // Small buffer for testing

	ch := bus.Subscribe()

	bus.Publish(NewRunStartedEvent("a", 1))
	bus.Publish(NewRunStartedEvent("b", 1))
	bus.Publish(NewRunStartedEvent("c", 1))

	select {
	case ev := <-ch:
		if ev.Scenario != "a" {
			t.Errorf("expected first event to be kept, got %s", ev.Scenario)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for first event")
	}

	select {
	case ev := <-ch:
		t.Errorf("expected overflow events to be dropped, got %s", ev.Scenario)
	default:
	}
}

func TestBusClose(t *testing.T) {
	bus := NewBus()

	ch := bus.Subscribe()
	bus.Close()

	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after close, got %d", bus.SubscriberCount())
	}
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}

	// Publish and Subscribe after close must not panic
	bus.Publish(NewRunStartedEvent("basic", 1))
	if _, ok := <-bus.Subscribe(); ok {
		t.Error("expected subscription on closed bus to be closed")
	}
}

func TestEventCreation(t *testing.T) {
	t.Run("RunCompletedEvent", func(t *testing.T) {
		ok := NewRunCompletedEvent("basic", 2*time.Second, nil)
		if ok.Type != EventRunCompleted {
			t.Errorf("expected %s, got %s", EventRunCompleted, ok.Type)
		}
		if ok.Data.Error != "" {
			t.Errorf("expected no error, got %s", ok.Data.Error)
		}
		if ok.Data.Duration != "2s" {
			t.Errorf("expected 2s, got %s", ok.Data.Duration)
		}

		failed := NewRunCompletedEvent("basic", time.Second, errors.New("connection refused"))
		if failed.Data.Error != "connection refused" {
			t.Errorf("expected error text, got %s", failed.Data.Error)
		}
	})

	t.Run("CommandFailedEvent", func(t *testing.T) {
		event := NewCommandFailedEvent("extended", "del", "del", 7, errors.New("EOF"))
		if event.Type != EventCommandFailed {
			t.Errorf("expected %s, got %s", EventCommandFailed, event.Type)
		}
		if event.Data.Iteration != 7 {
			t.Errorf("expected iteration 7, got %d", event.Data.Iteration)
		}
	})

	t.Run("PhaseCompletedAndMismatch", func(t *testing.T) {
		done := NewPhaseCompletedEvent("basic", "mget", "mget", 999, time.Millisecond)
		if done.Data.Calls != 999 {
			t.Errorf("expected 999 calls, got %d", done.Data.Calls)
		}

		mm := NewMismatchEvent("basic", "mget", "mget", 2, "foo1")
		if mm.Type != EventMismatch || mm.Data.Mismatches != 2 {
			t.Errorf("unexpected mismatch event %+v", mm)
		}
	})
}
