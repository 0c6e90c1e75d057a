package stream

import (
	"testing"
	"time"
)

func TestMemoryBrokerPublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe(TopicDispatch)

	evt := Event{Type: EventTicketCreated, Data: map[string]any{"ticket_id": int64(7)}}
	b.Publish(TopicDispatch, evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["ticket_id"].(int64) != 7 {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(TopicDispatch, ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
}

func TestMemoryBrokerTopicsIsolated(t *testing.T) {
	b := NewMemoryBroker()
	dispatch := b.Subscribe(TopicDispatch)
	tracked := b.Subscribe(TicketTopic("abc"))

	b.Publish(TicketTopic("abc"), Event{Type: EventTicketStatus})

	select {
	case <-tracked:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("tracking subscriber missed its event")
	}
	select {
	case evt := <-dispatch:
		t.Fatalf("dispatch subscriber got event from another topic: %+v", evt)
	default:
	}
}

func TestMemoryBrokerFanOut(t *testing.T) {
	b := NewMemoryBroker()
	first := b.Subscribe(TopicDispatch)
	second := b.Subscribe(TopicDispatch)

	b.Publish(TopicDispatch, Event{Type: EventWorkerLocation})

	for _, ch := range []chan Event{first, second} {
		select {
		case <-ch:
		case <-time.After(200 * time.Millisecond):
			t.Fatal("subscriber missed fan-out event")
		}
	}
}

func TestMemoryBrokerSlowSubscriberDrops(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe(TopicDispatch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(TopicDispatch, Event{Type: EventWorkerLocation})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffer holds %d events, want full %d", len(ch), cap(ch))
	}
}
