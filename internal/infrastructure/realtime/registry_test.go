package realtime

import (
	"sort"
	"testing"
)

func TestRoomRegistry_JoinLeave(t *testing.T) {
	reg := NewRoomRegistry()

	reg.Join("sala", "s1")
	reg.Join("sala", "s2")
	reg.Join("otra", "s1")

	members := reg.Members("sala")
	sort.Strings(members)
	if len(members) != 2 || members[0] != "s1" || members[1] != "s2" {
		t.Fatalf("members = %v", members)
	}

	others := reg.Others("sala", "s1")
	if len(others) != 1 || others[0] != "s2" {
		t.Fatalf("others = %v", others)
	}

	if empty := reg.Leave("sala", "s1"); empty {
		t.Fatal("room still has s2, should not be empty")
	}
	if empty := reg.Leave("sala", "s2"); !empty {
		t.Fatal("last leave should report empty room")
	}
	if got := reg.Members("sala"); len(got) != 0 {
		t.Fatalf("emptied room still has members: %v", got)
	}
	if reg.RoomCount() != 1 {
		t.Fatalf("room count = %d, want 1", reg.RoomCount())
	}
}

func TestRoomRegistry_LeaveUnknown(t *testing.T) {
	reg := NewRoomRegistry()

	if empty := reg.Leave("nope", "s1"); empty {
		t.Fatal("leaving an unknown room must not report empty")
	}
}

func TestRoomRegistry_DropSession(t *testing.T) {
	reg := NewRoomRegistry()

	reg.Join("sala", "s1")
	reg.Join("otra", "s1")
	reg.Join("sala", "s2")

	rooms := reg.DropSession("s1")
	sort.Strings(rooms)
	if len(rooms) != 2 || rooms[0] != "otra" || rooms[1] != "sala" {
		t.Fatalf("dropped rooms = %v", rooms)
	}
	if got := reg.Rooms("s1"); len(got) != 0 {
		t.Fatalf("s1 still joined to %v", got)
	}
	if got := reg.Members("sala"); len(got) != 1 || got[0] != "s2" {
		t.Fatalf("sala members = %v", got)
	}
	if got := reg.Members("otra"); len(got) != 0 {
		t.Fatalf("otra should be gone, members = %v", got)
	}
}

func TestPeerDirectory(t *testing.T) {
	peers := NewPeerDirectory()

	if _, ok := peers.Get("s1"); ok {
		t.Fatal("unregistered session has a peer")
	}

	peers.Register("s1", "peer-a")
	if id, ok := peers.Get("s1"); !ok || id != "peer-a" {
		t.Fatalf("get = %q %v", id, ok)
	}

	// Last registration wins.
	peers.Register("s1", "peer-b")
	if id, _ := peers.Get("s1"); id != "peer-b" {
		t.Fatalf("re-register: got %q", id)
	}

	peers.Remove("s1")
	if _, ok := peers.Get("s1"); ok {
		t.Fatal("peer survived removal")
	}
}
