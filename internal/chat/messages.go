package chat

import "fmt"

// Fixed server strings. Clients and tests match these byte for byte.
const (
	Banner        = "Welcome to the fenfiresong chat server\nLogin Name?"
	NameTaken     = "Sorry, name taken.\nLogin Name?"
	EndOfList     = "end of list."
	Bye           = "BYE"
	selfMarker    = " (** this is you)"
	roomsHeader   = "Active rooms are:"
	helpText      = `Available commands:
/help                     show this list
/rooms                    list active rooms
/join <room>              enter a room, leaving the current one
/leave                    leave the current room
/users                    list the members of the current room
/me <action>              emote, e.g. /me waves
/whisper <user> <msg>     private message (alias /w)
/mod <user>               make a room member a moderator (moderators only)
/kick <user> ["reason"]   remove a member from the room (moderators only)
/quit                     disconnect`
)

func nameRejected(reason string) string {
	return fmt.Sprintf("Sorry, %s.\nLogin Name?", reason)
}

func welcome(name string) string {
	return fmt.Sprintf("Welcome, %s!", name)
}

func chatLine(name, text string) string {
	return fmt.Sprintf("<%s> %s", name, text)
}

func emoteLine(name, text string) string {
	return fmt.Sprintf("* %s %s", name, text)
}

func joinedLine(room, name string) string {
	return fmt.Sprintf(" * new user joined %s: %s", room, name)
}

func leftLine(room, name string) string {
	return fmt.Sprintf(" * user has left %s: %s", room, name)
}

func kickedLine(user, moderator, reason string) string {
	if reason != "" {
		reason = ` "` + reason + `"`
	}
	return fmt.Sprintf(" * %s was kicked by moderator %s.%s", user, moderator, reason)
}

func modLine(user, moderator string) string {
	return fmt.Sprintf(" * %s was made a moderator by %s.", user, moderator)
}

func whisperLine(from, text string) string {
	return fmt.Sprintf("%s whispers: %s", from, text)
}

func whisperSentLine(to, text string) string {
	return fmt.Sprintf("you whisper to %s: %s", to, text)
}

func unknownCommand(name string) string {
	return fmt.Sprintf("Unknown command: %s (try /help)", name)
}

// memberListing renders a room's members, marking self, and terminates the
// list with EndOfList.
func memberListing(header string, members []string, self string) []string {
	lines := make([]string, 0, len(members)+2)
	lines = append(lines, header)
	for _, m := range members {
		line := " * " + m
		if m == self {
			line += selfMarker
		}
		lines = append(lines, line)
	}
	return append(lines, EndOfList)
}

func roomListing(rooms []RoomInfo) []string {
	lines := make([]string, 0, len(rooms)+2)
	lines = append(lines, roomsHeader)
	for _, r := range rooms {
		lines = append(lines, fmt.Sprintf(" * %s (%d)", r.Name, r.Members))
	}
	return append(lines, EndOfList)
}
