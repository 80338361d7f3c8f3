package http

import (
	"quickchallenge/internal/domain"
	"sync"
)

// Conn is the transport connection surface the room manager needs. Implemented
// by wsConn for real traffic and by fakes in tests. WriteJSON must be safe for
// concurrent use and must fail once the connection is closed.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// RoomTracker mirrors room liveness into an external store (Redis). Optional.
type RoomTracker interface {
	MarkRoom(accessCode string, size int)
	ClearRoom(accessCode string)
}

// Rooms maps each access code to its set of live connections, with a reverse
// map for cleanup. Rebuilt from scratch on process restart; nothing here is
// persisted.
type Rooms struct {
	mu      sync.RWMutex
	rooms   map[string]map[Conn]struct{}
	byConn  map[Conn]string
	tracker RoomTracker
}

func NewRooms() *Rooms {
	return &Rooms{
		rooms:  make(map[string]map[Conn]struct{}),
		byConn: make(map[Conn]string),
	}
}

// NewRoomsWithTracker attaches a liveness tracker to the room manager.
func NewRoomsWithTracker(tracker RoomTracker) *Rooms {
	r := NewRooms()
	r.tracker = tracker
	return r
}

// Join registers the connection under the access code and returns the roster
// size. A connection already in another room is moved. Quiz existence and
// lifecycle checks happen upstream, before the room is touched.
func (r *Rooms) Join(accessCode string, conn Conn) int {
	accessCode = domain.NormalizeAccessCode(accessCode)

	r.mu.Lock()
	if prev, ok := r.byConn[conn]; ok && prev != accessCode {
		r.removeLocked(prev, conn)
	}
	room, ok := r.rooms[accessCode]
	if !ok {
		room = make(map[Conn]struct{})
		r.rooms[accessCode] = room
	}
	room[conn] = struct{}{}
	r.byConn[conn] = accessCode
	size := len(room)
	r.mu.Unlock()

	if r.tracker != nil {
		r.tracker.MarkRoom(accessCode, size)
	}
	return size
}

// Leave removes the connection from whatever room it is in. Idempotent: a
// second call, or a call for an unregistered connection, is a no-op.
func (r *Rooms) Leave(conn Conn) {
	r.mu.Lock()
	accessCode, ok := r.byConn[conn]
	if !ok {
		r.mu.Unlock()
		return
	}
	r.removeLocked(accessCode, conn)
	empty := len(r.rooms[accessCode]) == 0
	if empty {
		delete(r.rooms, accessCode)
	}
	r.mu.Unlock()

	if r.tracker != nil && empty {
		r.tracker.ClearRoom(accessCode)
	}
}

func (r *Rooms) removeLocked(accessCode string, conn Conn) {
	if room, ok := r.rooms[accessCode]; ok {
		delete(room, conn)
	}
	delete(r.byConn, conn)
}

// Contains reports whether the connection is currently in the given room.
func (r *Rooms) Contains(accessCode string, conn Conn) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byConn[conn] == domain.NormalizeAccessCode(accessCode)
}

// Size returns the current roster count for the access code.
func (r *Rooms) Size(accessCode string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[domain.NormalizeAccessCode(accessCode)])
}

// Broadcast delivers the message to every connection in the room except the
// optionally excluded one. Best effort: connections whose write fails are
// dropped from the room and closed, with no retry.
func (r *Rooms) Broadcast(accessCode string, msg any, exclude Conn) {
	accessCode = domain.NormalizeAccessCode(accessCode)

	r.mu.RLock()
	conns := make([]Conn, 0, len(r.rooms[accessCode]))
	for conn := range r.rooms[accessCode] {
		if conn != exclude {
			conns = append(conns, conn)
		}
	}
	r.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			r.Leave(conn)
			_ = conn.Close()
		}
	}
}

// Unicast sends to exactly one connection if still open; otherwise a no-op.
func (r *Rooms) Unicast(conn Conn, msg any) {
	if err := conn.WriteJSON(msg); err != nil {
		r.Leave(conn)
		_ = conn.Close()
	}
}
