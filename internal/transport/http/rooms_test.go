package http

import (
	"errors"
	"testing"
)

type fakeConn struct {
	messages []any
	writeErr error
	closed   bool
}

func (c *fakeConn) WriteJSON(v any) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.messages = append(c.messages, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type recordingTracker struct {
	marks  map[string]int
	clears []string
}

func newRecordingTracker() *recordingTracker {
	return &recordingTracker{marks: make(map[string]int)}
}

func (t *recordingTracker) MarkRoom(accessCode string, size int) { t.marks[accessCode] = size }
func (t *recordingTracker) ClearRoom(accessCode string)          { t.clears = append(t.clears, accessCode) }

func TestRoomsJoinAndSize(t *testing.T) {
	rooms := NewRooms()
	a, b := &fakeConn{}, &fakeConn{}

	if got := rooms.Join("abc123", a); got != 1 {
		t.Fatalf("expected roster size 1, got %d", got)
	}
	// Access codes are normalized, so a differently-cased join lands in the
	// same room.
	if got := rooms.Join("ABC123", b); got != 2 {
		t.Fatalf("expected roster size 2, got %d", got)
	}
	if !rooms.Contains("abc123", a) || !rooms.Contains("ABC123", b) {
		t.Fatalf("expected both connections tracked in the room")
	}
	if got := rooms.Size("Abc123"); got != 2 {
		t.Fatalf("expected size 2, got %d", got)
	}
}

func TestRoomsJoinMovesBetweenRooms(t *testing.T) {
	rooms := NewRooms()
	conn := &fakeConn{}

	rooms.Join("AAA111", conn)
	rooms.Join("BBB222", conn)

	if rooms.Contains("AAA111", conn) {
		t.Fatalf("expected connection removed from previous room")
	}
	if !rooms.Contains("BBB222", conn) {
		t.Fatalf("expected connection in new room")
	}
	if got := rooms.Size("AAA111"); got != 0 {
		t.Fatalf("expected old room empty, got %d", got)
	}
}

func TestRoomsLeaveIsIdempotent(t *testing.T) {
	tracker := newRecordingTracker()
	rooms := NewRoomsWithTracker(tracker)
	conn := &fakeConn{}

	rooms.Join("AAA111", conn)
	rooms.Leave(conn)
	rooms.Leave(conn)
	rooms.Leave(&fakeConn{})

	if rooms.Contains("AAA111", conn) {
		t.Fatalf("expected connection gone after leave")
	}
	if len(tracker.clears) != 1 || tracker.clears[0] != "AAA111" {
		t.Fatalf("expected one clear for AAA111, got %v", tracker.clears)
	}
}

func TestBroadcastExcludesSenderAndDropsDeadConns(t *testing.T) {
	rooms := NewRooms()
	sender := &fakeConn{}
	healthy := &fakeConn{}
	dead := &fakeConn{writeErr: errors.New("broken pipe")}

	rooms.Join("AAA111", sender)
	rooms.Join("AAA111", healthy)
	rooms.Join("AAA111", dead)

	rooms.Broadcast("AAA111", "hello", sender)

	if len(sender.messages) != 0 {
		t.Fatalf("expected sender excluded, got %v", sender.messages)
	}
	if len(healthy.messages) != 1 {
		t.Fatalf("expected one message delivered, got %d", len(healthy.messages))
	}
	if !dead.closed {
		t.Fatalf("expected dead connection closed")
	}
	if rooms.Contains("AAA111", dead) {
		t.Fatalf("expected dead connection removed from room")
	}
	if got := rooms.Size("AAA111"); got != 2 {
		t.Fatalf("expected 2 live connections, got %d", got)
	}
}

func TestUnicastDropsFailedConn(t *testing.T) {
	rooms := NewRooms()
	dead := &fakeConn{writeErr: errors.New("use of closed connection")}
	rooms.Join("AAA111", dead)

	rooms.Unicast(dead, "hello")

	if !dead.closed {
		t.Fatalf("expected failed connection closed")
	}
	if rooms.Contains("AAA111", dead) {
		t.Fatalf("expected failed connection removed")
	}
}

func TestRoomTrackerSeesRosterSizes(t *testing.T) {
	tracker := newRecordingTracker()
	rooms := NewRoomsWithTracker(tracker)

	rooms.Join("AAA111", &fakeConn{})
	rooms.Join("AAA111", &fakeConn{})

	if tracker.marks["AAA111"] != 2 {
		t.Fatalf("expected tracked size 2, got %d", tracker.marks["AAA111"])
	}
}
