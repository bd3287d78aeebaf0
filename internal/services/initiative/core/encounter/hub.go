package encounter

import (
	"context"
	"errors"
	"sync"

	"github.com/louisbranch/initiative/internal/services/initiative/storage"
)

// subscriptionBuffer bounds how far a subscriber may lag before it is dropped.
const subscriptionBuffer = 8

var (
	// ErrSubscriberLagging ends a stream whose subscriber fell too far behind.
	ErrSubscriberLagging = errors.New("subscriber fell behind")
	// ErrEncounterRetired ends the streams of a deleted encounter.
	ErrEncounterRetired = errors.New("encounter retired")
	// ErrHubClosed ends every stream when the hub shuts down.
	ErrHubClosed = errors.New("hub closed")
	// ErrUnsubscribed ends a stream closed by its own subscriber.
	ErrUnsubscribed = errors.New("unsubscribed")
)

// Publisher receives committed encounters.
type Publisher interface {
	// Publish broadcasts a committed encounter snapshot.
	Publish(ctx context.Context, encounter storage.Encounter)
	// Retire ends every stream of a deleted encounter.
	Retire(ctx context.Context, encounterID string)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, storage.Encounter) {}
func (nopPublisher) Retire(context.Context, string)             {}

// Hub fans committed encounters out to in-process subscribers.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[*Subscription]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Subscription]struct{})}
}

// Subscription streams committed snapshots of one encounter. The channel is
// closed when the subscriber falls behind, the encounter is deleted or Close
// is called; Err then reports which.
type Subscription struct {
	hub         *Hub
	encounterID string
	updates     chan storage.Encounter
	once        sync.Once
	err         error
}

// Subscribe registers interest in an encounter.
func (h *Hub) Subscribe(encounterID string) *Subscription {
	sub := &Subscription{
		hub:         h,
		encounterID: encounterID,
		updates:     make(chan storage.Encounter, subscriptionBuffer),
	}
	h.mu.Lock()
	if h.closed {
		sub.end(ErrHubClosed)
		h.mu.Unlock()
		return sub
	}
	room, ok := h.rooms[encounterID]
	if !ok {
		room = make(map[*Subscription]struct{})
		h.rooms[encounterID] = room
	}
	room[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Updates returns the snapshot stream.
func (s *Subscription) Updates() <-chan storage.Encounter {
	return s.updates
}

// Err returns why the stream ended, or nil while it is open.
func (s *Subscription) Err() error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.err
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	s.hub.remove(s, ErrUnsubscribed)
	s.hub.mu.Unlock()
}

// end records the first close reason and closes the stream; callers hold
// the hub lock.
func (s *Subscription) end(reason error) {
	s.once.Do(func() {
		s.err = reason
		close(s.updates)
	})
}

// remove drops a subscriber; callers hold h.mu.
func (h *Hub) remove(sub *Subscription, reason error) {
	if room, ok := h.rooms[sub.encounterID]; ok {
		delete(room, sub)
		if len(room) == 0 {
			delete(h.rooms, sub.encounterID)
		}
	}
	sub.end(reason)
}

// Publish implements Publisher.
func (h *Hub) Publish(_ context.Context, encounter storage.Encounter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.rooms[encounter.ID] {
		select {
		case sub.updates <- encounter:
		default:
			h.remove(sub, ErrSubscriberLagging)
		}
	}
}

// Retire implements Publisher.
func (h *Hub) Retire(_ context.Context, encounterID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.rooms[encounterID] {
		h.remove(sub, ErrEncounterRetired)
	}
}

// Subscribers reports how many streams watch an encounter.
func (h *Hub) Subscribers(encounterID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[encounterID])
}

// Close ends every stream. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, room := range h.rooms {
		for sub := range room {
			h.remove(sub, ErrHubClosed)
		}
	}
}
