// Package chat defines the error taxonomy shared by sessions and registries.
// Every error here is session-local: it is rendered as one line back to the
// session that caused it and never affects another connection.
package chat

import (
	"errors"
	"fmt"
)

// ErrQuit is returned by Session.HandleLine after the user typed /quit.
// The transport should flush pending output and close the connection.
var ErrQuit = errors.New("chat: session quit")

// ValidationError reports a malformed login name, room name or argument list.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NotFoundError reports an unknown user or room.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case "member":
		return fmt.Sprintf("%s is not in this room.", e.Name)
	case "room":
		return fmt.Sprintf("Can't find room: %s", e.Name)
	default:
		return fmt.Sprintf("Can't find user: %s", e.Name)
	}
}

// PermissionError reports a moderator-only command issued by a regular member.
type PermissionError struct {
	Command string
	Room    string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("Sorry, only moderators of %s can use %s.", e.Room, e.Command)
}

// StateError reports a room-scoped command issued outside any room.
type StateError struct {
	Command string
}

func (e *StateError) Error() string {
	if e.Command == "" {
		return "You must join a room first. Try /rooms or /join <room>."
	}
	return fmt.Sprintf("You must join a room before using %s.", e.Command)
}

func errUnknownUser(name string) error {
	return &NotFoundError{Kind: "user", Name: name}
}

func errNotMember(name string) error {
	return &NotFoundError{Kind: "member", Name: name}
}

func errUsage(usage string) error {
	return &ValidationError{Reason: "Usage: " + usage}
}
