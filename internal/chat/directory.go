package chat

import (
	"errors"
	"sync"
)

// ErrNameTaken is returned by UserDirectory.Register for a name already in use.
var ErrNameTaken = errors.New("chat: name taken")

// Peer is anything a line can be delivered to.
type Peer interface {
	Send(line string) error
}

// UserDirectory maps login names to live sessions. It has its own lock,
// independent of RoomRegistry; callers never hold it while taking the
// registry lock.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]Peer
}

// NewUserDirectory creates an empty directory.
func NewUserDirectory() *UserDirectory {
	return &UserDirectory{users: make(map[string]Peer)}
}

// Register claims name for peer. Check and insert are atomic, so of two
// concurrent registrations of one name exactly one succeeds.
func (d *UserDirectory) Register(name string, peer Peer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[name]; ok {
		return ErrNameTaken
	}
	d.users[name] = peer
	return nil
}

// Unregister releases name if it is still held by peer.
func (d *UserDirectory) Unregister(name string, peer Peer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if current, ok := d.users[name]; ok && current == peer {
		delete(d.users, name)
	}
}

// Taken reports whether name is registered.
func (d *UserDirectory) Taken(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.users[name]
	return ok
}

// Lookup resolves name to its session.
func (d *UserDirectory) Lookup(name string) (Peer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.users[name]
	return p, ok
}

// Len returns the number of logged-in users.
func (d *UserDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.users)
}
