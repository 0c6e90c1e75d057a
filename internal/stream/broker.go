// Package stream fans dispatch events out to live subscribers. The dashboard
// and the public tracking page both consume it over SSE.
package stream

import (
	"sync"
)

type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Event types published by the handlers and the SLA monitor.
const (
	EventTicketCreated    = "ticket.created"
	EventTicketStatus     = "ticket.status"
	EventTicketAssigned   = "ticket.assigned"
	EventWorkerLocation   = "worker.location"
	EventAssignmentStatus = "assignment.status"
	EventSLAWarning       = "sla.warning"
)

// TopicDispatch carries every event; the dashboard live feed subscribes here.
const TopicDispatch = "dispatch"

// TicketTopic is the per-ticket channel used by the public tracking page.
func TicketTopic(token string) string {
	return "ticket:" + token
}

type Broker interface {
	Subscribe(topic string) chan Event
	Unsubscribe(topic string, ch chan Event)
	Publish(topic string, evt Event)
}

// MemoryBroker is the single-process default. Slow subscribers drop events
// rather than stall publishers.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *MemoryBroker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = map[chan Event]struct{}{}
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *MemoryBroker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	if m := b.subs[topic]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, topic)
		}
	}
	b.mu.Unlock()
	close(ch)
}

func (b *MemoryBroker) Publish(topic string, evt Event) {
	b.mu.Lock()
	for ch := range b.subs[topic] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
