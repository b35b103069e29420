package chat

import (
	"strings"

	"github.com/google/shlex"
)

// Verb identifies a chat-mode command.
type Verb int

// Recognized verbs. VerbMessage marks a plain chat line.
const (
	VerbMessage Verb = iota
	VerbUnknown
	VerbHelp
	VerbRooms
	VerbJoin
	VerbLeave
	VerbUsers
	VerbMe
	VerbWhisper
	VerbMod
	VerbKick
	VerbQuit
)

var verbs = map[string]Verb{
	"/help":    VerbHelp,
	"/rooms":   VerbRooms,
	"/join":    VerbJoin,
	"/leave":   VerbLeave,
	"/users":   VerbUsers,
	"/me":      VerbMe,
	"/whisper": VerbWhisper,
	"/w":       VerbWhisper,
	"/mod":     VerbMod,
	"/kick":    VerbKick,
	"/quit":    VerbQuit,
}

// Command is a parsed chat-mode line.
type Command struct {
	Verb Verb
	// Name is the verb as typed, e.g. "/w". Empty for plain messages.
	Name string
	// Arg is the rest of the line after the verb and one space. For a plain
	// message it is the whole line.
	Arg string
}

// ParseCommand maps a chat-mode line to a command. Verbs are case-sensitive
// and must be followed by end of line or a space.
func ParseCommand(line string) Command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed[0] != CommandPrefix {
		return Command{Verb: VerbMessage, Arg: line}
	}

	name, arg, _ := strings.Cut(trimmed, " ")
	verb, ok := verbs[name]
	if !ok {
		verb = VerbUnknown
	}
	return Command{Verb: verb, Name: name, Arg: strings.TrimSpace(arg)}
}

// splitTarget separates "<user> <rest>".
func splitTarget(arg string) (string, string) {
	target, rest, _ := strings.Cut(strings.TrimSpace(arg), " ")
	return target, strings.TrimSpace(rest)
}

// parseKick splits "/kick" arguments into the target and the rest of the
// line. A reason wrapped in one pair of double quotes is unquoted.
func parseKick(arg string) (target, reason string, err error) {
	target, reason = splitTarget(arg)
	if target == "" {
		return "", "", errUsage(`/kick <user> ["reason"]`)
	}
	return target, unquoteReason(reason), nil
}

func unquoteReason(reason string) string {
	if len(reason) < 2 || reason[0] != '"' || reason[len(reason)-1] != '"' {
		return reason
	}
	if fields, err := shlex.Split(reason); err == nil && len(fields) == 1 {
		return fields[0]
	}
	return reason[1 : len(reason)-1]
}
