package engine

import "sync"

// MemoryPublisher stores events in memory. The HTTP layer exposes the most
// recent ones and tests assert on them.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	max    int
}

// NewMemoryPublisher keeps at most max events (0 keeps everything).
func NewMemoryPublisher(max int) *MemoryPublisher { return &MemoryPublisher{max: max} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	if p.max > 0 && len(p.events) > p.max {
		p.events = append([]Event(nil), p.events[len(p.events)-p.max:]...)
	}
	p.mu.Unlock()
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
