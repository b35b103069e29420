package chat

// Room is a named broadcast group. Members are kept as a set with a
// join-ordered listing; moderators is always a subset of members.
//
// Room has no lock of its own. Every access goes through RoomRegistry,
// which holds its mutex for the whole operation.
type Room struct {
	name       string
	order      []string
	members    map[string]struct{}
	moderators map[string]struct{}
}

// newRoom creates a room with founder as its only member and moderator.
func newRoom(name, founder string) *Room {
	r := &Room{
		name:       name,
		members:    make(map[string]struct{}),
		moderators: make(map[string]struct{}),
	}
	r.join(founder)
	r.moderators[founder] = struct{}{}
	return r
}

// Name returns the room name.
func (r *Room) Name() string {
	return r.name
}

// join adds user to the room and reports whether it was not already a member.
func (r *Room) join(user string) bool {
	if _, ok := r.members[user]; ok {
		return false
	}
	r.members[user] = struct{}{}
	r.order = append(r.order, user)
	return true
}

// leave drops user from members and moderators and returns the remaining
// member count.
func (r *Room) leave(user string) int {
	if _, ok := r.members[user]; ok {
		delete(r.members, user)
		delete(r.moderators, user)
		for i, name := range r.order {
			if name == user {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	return len(r.members)
}

// giveMod grants moderator rights to a current member.
func (r *Room) giveMod(user string) bool {
	if _, ok := r.members[user]; !ok {
		return false
	}
	r.moderators[user] = struct{}{}
	return true
}

func (r *Room) hasMod(user string) bool {
	_, ok := r.moderators[user]
	return ok
}

func (r *Room) hasMember(user string) bool {
	_, ok := r.members[user]
	return ok
}

// snapshot copies the member listing so it can be used after the registry
// lock is released.
func (r *Room) snapshot() []string {
	return append([]string(nil), r.order...)
}
