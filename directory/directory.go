package directory

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Alexyali/rtc-signal-server/domain"
)

type session struct {
	userID string
	roomID string
}

// Directory is the authoritative mapping between rooms, the users occupying
// them, and the connections those users arrived on. Both maps are guarded by
// one mutex; outbound events are built and recipients snapshotted under the
// lock, and all sends happen after it is released.
type Directory struct {
	mu       sync.Mutex
	rooms    map[string]map[string]domain.Connection
	sessions map[string]session
}

func New() *Directory {
	return &Directory{
		rooms:    make(map[string]map[string]domain.Connection),
		sessions: make(map[string]session),
	}
}

func (d *Directory) Join(conn domain.Connection, userID, roomID string) error {
	if userID == "" || roomID == "" {
		return domain.ErrValidation
	}

	d.mu.Lock()
	members, exists := d.rooms[roomID]
	if !exists {
		members = make(map[string]domain.Connection)
		d.rooms[roomID] = members
		slog.Info("room created", "room", roomID)
	}

	// Same userId joining again replaces the stale connection (last write
	// wins). A prior session for a different room is left untouched; callers
	// must leave explicitly before switching rooms.
	members[userID] = conn
	d.sessions[conn.ID()] = session{userID: userID, roomID: roomID}

	users := make([]string, 0, len(members))
	for u := range members {
		users = append(users, u)
	}
	peers := others(members, conn)
	d.mu.Unlock()

	slog.Info("user joined", "user", userID, "room", roomID, "members", len(users))

	send(conn, domain.Event{Type: "joined", UserID: userID, RoomID: roomID, Users: users})
	fanout(peers, domain.Event{Type: "user-joined", UserID: userID, RoomID: roomID})
	return nil
}

func (d *Directory) Leave(conn domain.Connection, userID, roomID string) error {
	if userID == "" || roomID == "" {
		return domain.ErrValidation
	}

	d.mu.Lock()
	peers, removed := d.remove(conn, userID, roomID)
	d.mu.Unlock()

	send(conn, domain.Event{Type: "leaved", UserID: userID, RoomID: roomID})
	if removed {
		slog.Info("user left", "user", userID, "room", roomID)
		fanout(peers, domain.Event{Type: "user-left", UserID: userID, RoomID: roomID})
	}
	return nil
}

func (d *Directory) Disconnect(conn domain.Connection) {
	d.mu.Lock()
	sess, ok := d.sessions[conn.ID()]
	if !ok {
		d.mu.Unlock()
		return
	}
	peers, removed := d.remove(conn, sess.userID, sess.roomID)
	d.mu.Unlock()

	slog.Info("connection cleaned up", "connection", conn.ID(), "user", sess.userID, "room", sess.roomID)
	if removed {
		fanout(peers, domain.Event{Type: "user-left", UserID: sess.userID, RoomID: sess.roomID})
	}
}

// Relay fans the frame out verbatim to every room member except the sender.
// No membership check: delivery is best effort and per-recipient failures are
// left to that recipient's own disconnect cleanup.
func (d *Directory) Relay(conn domain.Connection, roomID string, frame []byte) {
	if roomID == "" {
		return
	}

	d.mu.Lock()
	var peers []domain.Connection
	if members, ok := d.rooms[roomID]; ok {
		peers = others(members, conn)
	}
	d.mu.Unlock()

	for _, c := range peers {
		c.Send(frame)
	}
}

func (d *Directory) Members(roomID string) ([]string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, ok := d.rooms[roomID]
	if !ok {
		return nil, false
	}
	users := make([]string, 0, len(members))
	for u := range members {
		users = append(users, u)
	}
	return users, true
}

func (d *Directory) Stats() (rooms, members int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rooms = len(d.rooms)
	for _, m := range d.rooms {
		members += len(m)
	}
	return rooms, members
}

// remove deletes userID from roomID if present, destroying the room when it
// empties, and unconditionally clears the connection's session. It returns
// the pre-removal member snapshot minus the leaver and whether a membership
// was actually removed. Caller must hold d.mu.
func (d *Directory) remove(conn domain.Connection, userID, roomID string) ([]domain.Connection, bool) {
	var peers []domain.Connection
	removed := false

	if members, ok := d.rooms[roomID]; ok {
		if _, ok := members[userID]; ok {
			peers = others(members, conn)
			delete(members, userID)
			removed = true
			if len(members) == 0 {
				delete(d.rooms, roomID)
				slog.Info("room destroyed", "room", roomID)
			}
		}
	}
	delete(d.sessions, conn.ID())
	return peers, removed
}

func others(members map[string]domain.Connection, except domain.Connection) []domain.Connection {
	peers := make([]domain.Connection, 0, len(members))
	for _, c := range members {
		if c.ID() == except.ID() {
			continue
		}
		peers = append(peers, c)
	}
	return peers
}

func send(conn domain.Connection, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	conn.Send(data)
}

func fanout(peers []domain.Connection, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	for _, c := range peers {
		c.Send(data)
	}
}
