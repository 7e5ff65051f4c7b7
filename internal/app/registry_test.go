package app

import (
	"sync"
	"testing"
)

func TestRegistry_JoinReturnsExistingInJoinOrder(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	existing, created := reg.Join("standup", "peer-alice-01", "Alice", &fakeConn{})
	if !created {
		t.Error("first join: created=false, want true")
	}
	if len(existing) != 0 {
		t.Errorf("first join: existing=%v, want empty", existing)
	}

	reg.Join("standup", "peer-bob-02", "Bob", &fakeConn{})
	existing, created = reg.Join("standup", "peer-carol-3", "Carol", &fakeConn{})
	if created {
		t.Error("third join: created=true, want false")
	}
	want := []string{"peer-alice-01", "peer-bob-02"}
	if len(existing) != len(want) {
		t.Fatalf("existing=%v, want %d peers", existing, len(want))
	}
	for i, sid := range want {
		if existing[i].SID != sid {
			t.Errorf("existing[%d].SID=%s, want %s (join order)", i, existing[i].SID, sid)
		}
	}
}

func TestRegistry_NamelessPeerGetsFallback(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Join("standup", "0123456789abcdef", "", &fakeConn{})

	p, ok := reg.Peer("standup", "0123456789abcdef")
	if !ok {
		t.Fatal("Peer: not found")
	}
	if p.Name != "User 01234567" {
		t.Errorf("name=%q, want truncated session-id fallback", p.Name)
	}
}

func TestRegistry_LeaveIsIdempotentAndPrunesEmptyRooms(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Join("standup", "peer-a", "Alice", &fakeConn{})
	reg.Join("standup", "peer-b", "Bob", &fakeConn{})

	removed, empty := reg.Leave("standup", "peer-a")
	if !removed || empty {
		t.Fatalf("first leave: (removed=%v, empty=%v), want (true, false)", removed, empty)
	}
	removed, empty = reg.Leave("standup", "peer-a")
	if removed || empty {
		t.Fatalf("repeated leave: (removed=%v, empty=%v), want no-op", removed, empty)
	}

	removed, empty = reg.Leave("standup", "peer-b")
	if !removed || !empty {
		t.Fatalf("last leave: (removed=%v, empty=%v), want (true, true)", removed, empty)
	}
	if peers := reg.Lookup("standup"); peers != nil {
		t.Errorf("Lookup after last leave=%v, want nil (room discarded)", peers)
	}
	if _, ok := reg.RoomOf("peer-b"); ok {
		t.Error("RoomOf still resolves a departed peer")
	}
}

func TestRegistry_RoomsAreIsolated(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Join("standup", "peer-a", "Alice", &fakeConn{})
	reg.Join("retro", "peer-b", "Bob", &fakeConn{})

	if room, _ := reg.RoomOf("peer-a"); room != "standup" {
		t.Errorf("RoomOf(peer-a)=%s, want standup", room)
	}
	if room, _ := reg.RoomOf("peer-b"); room != "retro" {
		t.Errorf("RoomOf(peer-b)=%s, want retro", room)
	}

	reg.Leave("standup", "peer-a")
	if peers := reg.Lookup("retro"); len(peers) != 1 {
		t.Errorf("retro peers=%v, want unaffected by standup leave", peers)
	}
}

func TestRegistry_ConnsSkipsSender(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Join("standup", "peer-a", "Alice", &fakeConn{})
	reg.Join("standup", "peer-b", "Bob", &fakeConn{})
	reg.Join("standup", "peer-c", "Carol", &fakeConn{})

	if got := len(reg.Conns("standup", "peer-b")); got != 2 {
		t.Errorf("Conns skipping peer-b: len=%d, want 2", got)
	}
	if got := len(reg.Conns("standup", "")); got != 3 {
		t.Errorf("Conns skipping none: len=%d, want 3", got)
	}
	if got := reg.Conns("ghost-room", ""); got != nil {
		t.Errorf("Conns for unknown room=%v, want nil", got)
	}
}

func TestRegistry_ConnResolvesTarget(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	want := &fakeConn{}
	reg.Join("standup", "peer-a", "Alice", want)

	got, ok := reg.Conn("standup", "peer-a")
	if !ok || got != want {
		t.Errorf("Conn=(%v, %v), want the registered connection", got, ok)
	}
	if _, ok := reg.Conn("standup", "peer-ghost"); ok {
		t.Error("Conn resolved an unregistered peer")
	}
}

func TestRegistry_JoinRacingLastLeave(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	// A join racing the leave of the only member must never land in the
	// member set the leave discards.
	for i := 0; i < 2000; i++ {
		reg.Join("r", "peer-a", "Alice", &fakeConn{})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.Leave("r", "peer-a")
		}()
		go func() {
			defer wg.Done()
			reg.Join("r", "peer-b", "Bob", &fakeConn{})
		}()
		wg.Wait()

		found := false
		for _, p := range reg.Lookup("r") {
			if p.SID == "peer-b" {
				found = true
			}
		}
		if !found {
			t.Fatalf("iteration %d: peer-b joined and never left but Lookup does not list it", i)
		}
		if room, ok := reg.RoomOf("peer-b"); !ok || room != "r" {
			t.Fatalf("iteration %d: RoomOf(peer-b)=(%q, %v), want (r, true)", i, room, ok)
		}

		reg.Leave("r", "peer-b")
		if peers := reg.Lookup("r"); peers != nil {
			t.Fatalf("iteration %d: room still lists %v after both peers left", i, peers)
		}
		if _, ok := reg.RoomOf("peer-b"); ok {
			t.Fatalf("iteration %d: RoomOf(peer-b) still resolves after leave", i)
		}
	}
}

func TestRegistry_Counts(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Join("standup", "peer-a", "Alice", &fakeConn{})
	reg.Join("standup", "peer-b", "Bob", &fakeConn{})
	reg.Join("retro", "peer-c", "Carol", &fakeConn{})

	rooms, peers := reg.Counts()
	if rooms != 2 || peers != 3 {
		t.Errorf("Counts=(%d, %d), want (2, 3)", rooms, peers)
	}
}
