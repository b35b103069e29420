package chat

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// State is the phase of a session.
type State int

const (
	// StateLogin waits for an acceptable login name.
	StateLogin State = iota
	// StateChat interprets commands and chat lines until disconnect.
	StateChat
)

func (s State) String() string {
	switch s {
	case StateLogin:
		return "LOGIN"
	case StateChat:
		return "CHAT"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the server side of one connected client. HandleLine and
// Disconnect must be called from a single goroutine, the one reading the
// connection. Other sessions only reach this one through the UserDirectory,
// and only to call Send.
type Session struct {
	conn  Peer
	rooms *RoomRegistry
	users *UserDirectory
	log   log.FieldLogger

	state State
	name  string
	gone  bool
}

// NewSession creates a session in StateLogin writing to conn.
func NewSession(conn Peer, rooms *RoomRegistry, users *UserDirectory, logger log.FieldLogger) *Session {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Session{
		conn:  conn,
		rooms: rooms,
		users: users,
		log:   logger,
		state: StateLogin,
	}
}

// Name returns the login name, or "" before login completes.
func (s *Session) Name() string {
	return s.name
}

// State returns the current phase.
func (s *Session) State() State {
	return s.state
}

// CurrentRoom returns the room this session occupies. The registry is the
// source of truth, so a kick by another session is visible immediately.
func (s *Session) CurrentRoom() (string, bool) {
	if s.state != StateChat {
		return "", false
	}
	return s.rooms.RoomOf(s.name)
}

// Send delivers one line to the client.
func (s *Session) Send(line string) error {
	return s.conn.Send(line)
}

// Start greets a freshly accepted connection.
func (s *Session) Start() {
	s.reply(Banner)
}

// HandleLine advances the state machine with one inbound line. It returns
// ErrQuit when the client asked to disconnect; every other problem is
// reported to the client and yields nil.
func (s *Session) HandleLine(line string) error {
	switch s.state {
	case StateLogin:
		s.login(line)
		return nil
	case StateChat:
		return s.chat(line)
	default:
		return fmt.Errorf("chat: session in invalid state %v", s.state)
	}
}

// Disconnect runs the leave path for the current room, if any, and releases
// the login name. It is safe to call more than once.
func (s *Session) Disconnect() {
	if s.gone {
		return
	}
	s.gone = true

	switch s.state {
	case StateLogin:
		return
	case StateChat:
		if d, err := s.rooms.Leave(s.name); err == nil {
			s.deliver(d.Room, d.Remaining, leftLine(d.Room, s.name))
			s.logDeparture(d)
		}
		s.users.Unregister(s.name, s)
		s.log.Info("User disconnected")
	}
}

func (s *Session) login(candidate string) {
	if s.users.Taken(candidate) {
		s.reply(NameTaken)
		return
	}
	if err := ValidateName("name", candidate); err != nil {
		s.reply(nameRejected(err.Error()))
		return
	}
	if err := s.users.Register(candidate, s); err != nil {
		s.reply(NameTaken)
		return
	}

	s.name = candidate
	s.state = StateChat
	s.log = s.log.WithField("user", candidate)
	s.log.WithField("users", s.users.Len()).Info("User logged in")
	s.reply(welcome(candidate))
}

func (s *Session) chat(line string) error {
	cmd := ParseCommand(line)

	err := s.dispatch(cmd)
	if errors.Is(err, ErrQuit) {
		return err
	}
	if err != nil {
		s.log.WithFields(log.Fields{
			"command": cmd.Name,
			"error":   err,
		}).Debug("Command rejected")
		s.reply(err.Error())
	}
	return nil
}

func (s *Session) dispatch(cmd Command) error {
	switch cmd.Verb {
	case VerbMessage:
		return s.say(cmd.Arg)
	case VerbHelp:
		s.reply(strings.Split(helpText, "\n")...)
		return nil
	case VerbRooms:
		s.reply(roomListing(s.rooms.Rooms())...)
		return nil
	case VerbJoin:
		return s.join(cmd.Arg)
	case VerbLeave:
		return s.leave()
	case VerbUsers:
		return s.listUsers()
	case VerbMe:
		return s.emote(cmd.Arg)
	case VerbWhisper:
		return s.whisper(cmd.Arg)
	case VerbMod:
		return s.mod(cmd.Arg)
	case VerbKick:
		return s.kick(cmd.Arg)
	case VerbQuit:
		s.reply(Bye)
		return ErrQuit
	default:
		s.reply(unknownCommand(cmd.Name))
		return nil
	}
}

func (s *Session) say(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	room, members, err := s.rooms.Members(s.name)
	if err != nil {
		return err
	}
	s.deliver(room, members, chatLine(s.name, text))
	return nil
}

func (s *Session) join(room string) error {
	if room == "" {
		return errUsage("/join <room>")
	}
	res, err := s.rooms.Join(room, s.name)
	if err != nil {
		return err
	}
	if res.Left != nil {
		s.announceDeparture(*res.Left)
	}

	s.reply(memberListing("entering room: "+res.Room, res.Members, s.name)...)
	s.deliver(res.Room, others(res.Members, s.name), joinedLine(res.Room, s.name))

	s.log.WithFields(log.Fields{
		"room":    res.Room,
		"created": res.Created,
	}).Info("User joined room")
	return nil
}

func (s *Session) leave() error {
	d, err := s.rooms.Leave(s.name)
	if err != nil {
		return err
	}
	s.announceDeparture(d)
	return nil
}

func (s *Session) announceDeparture(d Departure) {
	line := leftLine(d.Room, s.name)
	s.deliver(d.Room, d.Remaining, line)
	s.reply(line + selfMarker)
	s.logDeparture(d)
}

func (s *Session) logDeparture(d Departure) {
	s.log.WithFields(log.Fields{
		"room":    d.Room,
		"deleted": d.Deleted,
	}).Info("User left room")
}

func (s *Session) listUsers() error {
	room, members, err := s.rooms.Members(s.name)
	if err != nil {
		return &StateError{Command: "/users"}
	}
	s.reply(memberListing("users in "+room+":", members, s.name)...)
	return nil
}

func (s *Session) emote(text string) error {
	if text == "" {
		return errUsage("/me <action>")
	}
	room, members, err := s.rooms.Members(s.name)
	if err != nil {
		return &StateError{Command: "/me"}
	}
	s.deliver(room, members, emoteLine(s.name, text))
	return nil
}

func (s *Session) whisper(arg string) error {
	target, text := splitTarget(arg)
	if target == "" || text == "" {
		return errUsage("/whisper <user> <message>")
	}
	peer, ok := s.users.Lookup(target)
	if !ok {
		return errUnknownUser(target)
	}
	if err := peer.Send(whisperLine(s.name, text)); err != nil {
		return errUnknownUser(target)
	}
	s.reply(whisperSentLine(target, text))
	return nil
}

func (s *Session) mod(arg string) error {
	target, _ := splitTarget(arg)
	if target == "" {
		return errUsage("/mod <user>")
	}
	room, members, err := s.rooms.GiveMod(s.name, target)
	if err != nil {
		return s.resolveTarget(err, target)
	}
	s.deliver(room, members, modLine(target, s.name))
	s.log.WithFields(log.Fields{
		"room":   room,
		"target": target,
	}).Info("Moderator granted")
	return nil
}

func (s *Session) kick(arg string) error {
	target, reason, err := parseKick(arg)
	if err != nil {
		return err
	}
	res, err := s.rooms.Kick(s.name, target)
	if err != nil {
		return s.resolveTarget(err, target)
	}
	line := kickedLine(target, s.name, reason)
	s.deliver(res.Room, others(res.Audience, target), line)
	s.deliver("", []string{target}, line)
	s.log.WithFields(log.Fields{
		"room":    res.Room,
		"target":  target,
		"deleted": res.Deleted,
	}).Info("User kicked")
	return nil
}

// resolveTarget turns "not a member" into "unknown user" when the target is
// not logged in at all.
func (s *Session) resolveTarget(err error, target string) error {
	var nf *NotFoundError
	if errors.As(err, &nf) && !s.users.Taken(target) {
		return errUnknownUser(target)
	}
	return err
}

// deliver sends line to each named user still logged in. names is a
// snapshot taken under the registry lock, so by now a name may have been
// released and claimed by a new login. When room is set, users no longer in
// it are skipped.
func (s *Session) deliver(room string, names []string, line string) {
	for _, name := range names {
		if room != "" {
			if current, ok := s.rooms.RoomOf(name); !ok || current != room {
				continue
			}
		}
		peer, ok := s.users.Lookup(name)
		if !ok {
			continue
		}
		if err := peer.Send(line); err != nil {
			s.log.WithFields(log.Fields{
				"peer":  name,
				"error": err,
			}).Debug("Dropped line for peer")
		}
	}
}

func (s *Session) reply(lines ...string) {
	for _, line := range lines {
		if err := s.conn.Send(line); err != nil {
			s.log.WithError(err).Debug("Reply not delivered")
			return
		}
	}
}

func others(members []string, self string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m != self {
			out = append(out, m)
		}
	}
	return out
}
