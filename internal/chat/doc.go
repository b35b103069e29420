// Package chat implements the transport-independent core of the line chat
// server: the per-connection Session state machine, the command parser, and
// the two shared registries sessions coordinate through.
//
// RoomRegistry owns every room and records which room each user occupies.
// UserDirectory owns the login names. Both are plain objects injected into
// each Session, so tests can build isolated instances. When both locks are
// needed the registry is always consulted first, and neither is held while a
// line is sent.
package chat
