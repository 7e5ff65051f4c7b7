package app

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agamai/meet/internal/core"
	"github.com/agamai/meet/internal/domain"
)

type memberEntry struct {
	peer     domain.Peer
	conn     core.SignalConnection
	joinedAt time.Time
	seq      int
}

// roomMembers is one room's peer set. Mutations are serialized by its own
// lock so concurrent joins never observe an inconsistent set and
// unrelated rooms never block on each other.
type roomMembers struct {
	mu      sync.Mutex
	members map[core.SessionID]*memberEntry
	nextSeq int

	// dead marks a member set discarded by its last leave. A join that
	// fetched the set before the leave unlinked it must not resurrect it.
	dead bool
}

// Registry maps rooms to their connected peers. It is the only structure
// shared across rooms; the outer lock guards the room map alone, so all
// peer operations stay room-scoped.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]*roomMembers
	byPeer map[core.SessionID]domain.RoomID
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[domain.RoomID]*roomMembers),
		byPeer: make(map[core.SessionID]domain.RoomID),
	}
}

// Join registers the peer under the room, creating the room if absent.
// It returns the peers already present in join order, so the newcomer can
// initiate negotiation with each, and whether this peer created the room.
// A join racing the last member's leave retries against a fresh room
// instead of landing in a member set the leave is discarding.
func (r *Registry) Join(room domain.RoomID, sid core.SessionID, name string, conn core.SignalConnection) (existing []domain.Peer, created bool) {
	for {
		r.mu.Lock()
		rm, ok := r.rooms[room]
		if !ok {
			rm = &roomMembers{members: make(map[core.SessionID]*memberEntry)}
			r.rooms[room] = rm
		}
		r.mu.Unlock()
		created = !ok

		rm.mu.Lock()
		if rm.dead {
			rm.mu.Unlock()
			r.mu.Lock()
			if r.rooms[room] == rm {
				delete(r.rooms, room)
			}
			r.mu.Unlock()
			continue
		}
		existing = rm.snapshotLocked(sid)
		rm.members[sid] = &memberEntry{
			peer:     domain.Peer{SID: string(sid), Name: domain.DisplayName(name, string(sid))},
			conn:     conn,
			joinedAt: time.Now(),
			seq:      rm.nextSeq,
		}
		rm.nextSeq++
		rm.mu.Unlock()

		r.mu.Lock()
		r.byPeer[sid] = room
		r.mu.Unlock()

		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Msg("peer joined")
		return existing, created
	}
}

// Leave removes the peer. Removing a peer that already left is a no-op.
// empty reports whether the room was discarded because it has no peers
// left.
func (r *Registry) Leave(room domain.RoomID, sid core.SessionID) (removed, empty bool) {
	r.mu.RLock()
	rm, ok := r.rooms[room]
	r.mu.RUnlock()
	if !ok {
		return false, false
	}

	rm.mu.Lock()
	if _, ok := rm.members[sid]; ok {
		delete(rm.members, sid)
		removed = true
	}
	empty = removed && len(rm.members) == 0
	if empty {
		// Sealed while still holding the member lock, so a concurrent
		// join observes the discard and retries instead of joining a
		// set about to be unlinked.
		rm.dead = true
	}
	rm.mu.Unlock()

	if removed {
		r.mu.Lock()
		if r.byPeer[sid] == room {
			delete(r.byPeer, sid)
		}
		if empty && r.rooms[room] == rm {
			delete(r.rooms, room)
		}
		r.mu.Unlock()
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Bool("room_empty", empty).Msg("peer left")
	}
	return removed, empty
}

// RoomOf resolves which room a connection currently belongs to.
func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.byPeer[sid]
	return room, ok
}

// Lookup is a read-only snapshot of a room's peers in join order.
func (r *Registry) Lookup(room domain.RoomID) []domain.Peer {
	r.mu.RLock()
	rm, ok := r.rooms[room]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.snapshotLocked("")
}

// Peer returns the registered identity of one member.
func (r *Registry) Peer(room domain.RoomID, sid core.SessionID) (domain.Peer, bool) {
	r.mu.RLock()
	rm, ok := r.rooms[room]
	r.mu.RUnlock()
	if !ok {
		return domain.Peer{}, false
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if e, ok := rm.members[sid]; ok {
		return e.peer, true
	}
	return domain.Peer{}, false
}

// Conn returns the signaling channel of one member, used by the relay to
// resolve a specific target.
func (r *Registry) Conn(room domain.RoomID, sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	rm, ok := r.rooms[room]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if e, ok := rm.members[sid]; ok {
		return e.conn, true
	}
	return nil, false
}

// Conns returns the signaling channels of every member except skip.
func (r *Registry) Conns(room domain.RoomID, skip core.SessionID) []core.SignalConnection {
	r.mu.RLock()
	rm, ok := r.rooms[room]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	out := make([]core.SignalConnection, 0, len(rm.members))
	for sid, e := range rm.members {
		if sid == skip {
			continue
		}
		out = append(out, e.conn)
	}
	return out
}

// Counts reports active rooms and total participants for the health probe.
func (r *Registry) Counts() (rooms, peers int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms = len(r.rooms)
	for _, rm := range r.rooms {
		rm.mu.Lock()
		peers += len(rm.members)
		rm.mu.Unlock()
	}
	return rooms, peers
}

// snapshotLocked copies the member set (minus skip) ordered by join seq.
func (rm *roomMembers) snapshotLocked(skip core.SessionID) []domain.Peer {
	entries := make([]*memberEntry, 0, len(rm.members))
	for sid, e := range rm.members {
		if sid == skip {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	peers := make([]domain.Peer, len(entries))
	for i, e := range entries {
		peers[i] = e.peer
	}
	return peers
}
