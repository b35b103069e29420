package chat

import (
	"fmt"
	"sort"
	"sync"
)

// RoomInfo is one line of the /rooms listing.
type RoomInfo struct {
	Name    string
	Members int
}

// Departure describes a user leaving a room, either by /leave, by joining
// another room, by disconnecting or by being kicked.
type Departure struct {
	Room string
	// Remaining lists the members still in the room, in join order.
	Remaining []string
	// Deleted is true when the departure emptied the room and it was evicted.
	Deleted bool
}

// JoinResult describes a successful join.
type JoinResult struct {
	Room    string
	Created bool
	// Members lists the room after the join, the joiner included.
	Members []string
	// Left is set when the user had to leave another room first.
	Left *Departure
}

// KickResult describes a successful kick.
type KickResult struct {
	Departure
	// Audience lists the members before the target was removed, so the
	// target also hears about the kick.
	Audience []string
}

// RoomRegistry maps room names to rooms and user names to the room they
// occupy. A single mutex guards all of it: every compound read-check-write
// sequence runs under the lock and returns copies, so callers can fan out
// network sends after the lock is released.
type RoomRegistry struct {
	mu        sync.Mutex
	rooms     map[string]*Room
	occupancy map[string]string
}

// NewRoomRegistry creates an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:     make(map[string]*Room),
		occupancy: make(map[string]string),
	}
}

// Join moves user into room, leaving any room the user is in first. The room
// is created with user as founder-moderator if it does not exist.
func (rr *RoomRegistry) Join(room, user string) (JoinResult, error) {
	if err := ValidateName("room name", room); err != nil {
		return JoinResult{}, err
	}

	rr.mu.Lock()
	defer rr.mu.Unlock()

	if current, ok := rr.occupancy[user]; ok && current == room {
		return JoinResult{}, &ValidationError{Reason: fmt.Sprintf("You are already in %s.", room)}
	}

	var result JoinResult
	if _, ok := rr.occupancy[user]; ok {
		left := rr.leaveLocked(user)
		result.Left = &left
	}

	r, ok := rr.rooms[room]
	if ok {
		r.join(user)
	} else {
		r = newRoom(room, user)
		rr.rooms[room] = r
		result.Created = true
	}
	rr.occupancy[user] = room

	result.Room = room
	result.Members = r.snapshot()
	return result, nil
}

// Leave removes user from its current room, evicting the room if it is now
// empty.
func (rr *RoomRegistry) Leave(user string) (Departure, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if _, ok := rr.occupancy[user]; !ok {
		return Departure{}, &StateError{Command: "/leave"}
	}
	return rr.leaveLocked(user), nil
}

func (rr *RoomRegistry) leaveLocked(user string) Departure {
	name := rr.occupancy[user]
	delete(rr.occupancy, user)

	r, ok := rr.rooms[name]
	if !ok {
		return Departure{Room: name, Deleted: true}
	}

	d := Departure{Room: name}
	if r.leave(user) == 0 {
		delete(rr.rooms, name)
		d.Deleted = true
	}
	d.Remaining = r.snapshot()
	return d
}

// Kick removes target from the room occupied by actor. actor must be a
// moderator of that room and target a member.
func (rr *RoomRegistry) Kick(actor, target string) (KickResult, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	r, err := rr.moderatedRoomLocked(actor, "/kick")
	if err != nil {
		return KickResult{}, err
	}
	if !r.hasMember(target) {
		return KickResult{}, errNotMember(target)
	}

	audience := r.snapshot()
	return KickResult{
		Departure: rr.leaveLocked(target),
		Audience:  audience,
	}, nil
}

// GiveMod grants moderator rights on actor's current room to target. It
// returns the room name and its members.
func (rr *RoomRegistry) GiveMod(actor, target string) (string, []string, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	r, err := rr.moderatedRoomLocked(actor, "/mod")
	if err != nil {
		return "", nil, err
	}
	if !r.giveMod(target) {
		return "", nil, errNotMember(target)
	}
	return r.name, r.snapshot(), nil
}

func (rr *RoomRegistry) moderatedRoomLocked(actor, command string) (*Room, error) {
	name, ok := rr.occupancy[actor]
	if !ok {
		return nil, &StateError{Command: command}
	}
	r := rr.rooms[name]
	if !r.hasMod(actor) {
		return nil, &PermissionError{Command: command, Room: name}
	}
	return r, nil
}

// RoomOf returns the room user currently occupies.
func (rr *RoomRegistry) RoomOf(user string) (string, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	name, ok := rr.occupancy[user]
	return name, ok
}

// Members returns the room user occupies and a snapshot of its members.
func (rr *RoomRegistry) Members(user string) (string, []string, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	name, ok := rr.occupancy[user]
	if !ok {
		return "", nil, &StateError{}
	}
	return name, rr.rooms[name].snapshot(), nil
}

// HasMod reports whether user moderates room.
func (rr *RoomRegistry) HasMod(room, user string) bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	r, ok := rr.rooms[room]
	return ok && r.hasMod(user)
}

// Moderators returns the moderators of room in join order.
func (rr *RoomRegistry) Moderators(room string) []string {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	r, ok := rr.rooms[room]
	if !ok {
		return nil
	}
	var mods []string
	for _, name := range r.order {
		if r.hasMod(name) {
			mods = append(mods, name)
		}
	}
	return mods
}

// Rooms lists every live room sorted by name.
func (rr *RoomRegistry) Rooms() []RoomInfo {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	infos := make([]RoomInfo, 0, len(rr.rooms))
	for name, r := range rr.rooms {
		infos = append(infos, RoomInfo{Name: name, Members: len(r.members)})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}
