package realtime

import "sync"

// RoomRegistry tracks which sessions are subscribed to which rooms.
// Chat rooms and call rooms share the namespace. A room exists only
// while it has members: the last leave removes the entry.
type RoomRegistry struct {
	mu      sync.RWMutex
	rooms   map[string]map[string]struct{}
	bySess  map[string]map[string]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]map[string]struct{}),
		bySess: make(map[string]map[string]struct{}),
	}
}

func (r *RoomRegistry) Join(room, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]struct{})
	}
	r.rooms[room][sessionID] = struct{}{}

	if r.bySess[sessionID] == nil {
		r.bySess[sessionID] = make(map[string]struct{})
	}
	r.bySess[sessionID][room] = struct{}{}
}

// Leave removes the session from the room and reports whether the
// room became empty.
func (r *RoomRegistry) Leave(room, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(room, sessionID)
}

func (r *RoomRegistry) leaveLocked(room, sessionID string) bool {
	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	delete(members, sessionID)
	empty := len(members) == 0
	if empty {
		delete(r.rooms, room)
	}

	if joined, ok := r.bySess[sessionID]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(r.bySess, sessionID)
		}
	}
	return empty
}

// Members returns every session currently in the room.
func (r *RoomRegistry) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.rooms[room]))
	for id := range r.rooms[room] {
		out = append(out, id)
	}
	return out
}

// Others returns every session in the room except the given one.
func (r *RoomRegistry) Others(room, sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.rooms[room]))
	for id := range r.rooms[room] {
		if id != sessionID {
			out = append(out, id)
		}
	}
	return out
}

// Rooms returns the rooms the session has joined.
func (r *RoomRegistry) Rooms(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.bySess[sessionID]))
	for room := range r.bySess[sessionID] {
		out = append(out, room)
	}
	return out
}

// DropSession removes the session from every room it joined and
// returns those rooms so the caller can notify remaining members.
func (r *RoomRegistry) DropSession(sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined := r.bySess[sessionID]
	rooms := make([]string, 0, len(joined))
	for room := range joined {
		rooms = append(rooms, room)
	}
	for _, room := range rooms {
		r.leaveLocked(room, sessionID)
	}
	return rooms
}

// RoomCount reports the number of rooms with at least one member.
func (r *RoomRegistry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
