package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"aulanet/internal/core/domain"
)

// CalendarRepository keeps events and their participant lists.
type CalendarRepository struct {
	mu     sync.RWMutex
	events map[int64]*domain.CalendarEvent
	nextID int64
}

func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{
		events: make(map[int64]*domain.CalendarEvent),
		nextID: 1,
	}
}

func cloneEvent(e *domain.CalendarEvent) *domain.CalendarEvent {
	clone := *e
	clone.Participants = make([]domain.EventParticipant, len(e.Participants))
	copy(clone.Participants, e.Participants)
	return &clone
}

func (r *CalendarRepository) Create(ctx context.Context, event *domain.CalendarEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.ID = r.nextID
	r.nextID++
	r.events[event.ID] = cloneEvent(event)
	return nil
}

func (r *CalendarRepository) GetByID(ctx context.Context, id int64) (*domain.CalendarEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return cloneEvent(event), nil
}

func (r *CalendarRepository) List(ctx context.Context) ([]*domain.CalendarEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(*domain.CalendarEvent) bool { return true }), nil
}

func (r *CalendarRepository) ListByUser(ctx context.Context, id domain.UserID) ([]*domain.CalendarEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(e *domain.CalendarEvent) bool {
		for _, p := range e.Participants {
			if p.UserID == id {
				return true
			}
		}
		return false
	}), nil
}

func (r *CalendarRepository) collect(keep func(*domain.CalendarEvent) bool) []*domain.CalendarEvent {
	out := make([]*domain.CalendarEvent, 0)
	for _, event := range r.events {
		if keep(event) {
			out = append(out, cloneEvent(event))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *CalendarRepository) Update(ctx context.Context, event *domain.CalendarEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.events[event.ID]
	if !ok {
		return domain.ErrEventNotFound
	}
	clone := cloneEvent(event)
	if len(event.Participants) == 0 {
		clone.Participants = stored.Participants
	}
	r.events[event.ID] = clone
	return nil
}

func (r *CalendarRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *CalendarRepository) HasOverlap(ctx context.Context, user domain.UserID, start, end time.Time, excludeID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, event := range r.events {
		if event.ID == excludeID || !event.Overlaps(start, end) {
			continue
		}
		for _, p := range event.Participants {
			if p.UserID == user {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *CalendarRepository) CallKeyExists(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, event := range r.events {
		if event.CallKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *CalendarRepository) AddParticipant(ctx context.Context, eventID int64, p domain.EventParticipant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	for _, existing := range event.Participants {
		if existing.UserID == p.UserID {
			return nil
		}
	}
	event.Participants = append(event.Participants, p)
	return nil
}

func (r *CalendarRepository) RemoveParticipant(ctx context.Context, eventID int64, user domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	kept := event.Participants[:0]
	for _, p := range event.Participants {
		if p.UserID != user {
			kept = append(kept, p)
		}
	}
	event.Participants = kept
	return nil
}

func (r *CalendarRepository) ListParticipants(ctx context.Context, eventID int64) ([]domain.EventParticipant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	out := make([]domain.EventParticipant, len(event.Participants))
	copy(out, event.Participants)
	return out, nil
}
