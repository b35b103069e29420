package chat

import (
	"unicode"
	"unicode/utf8"
)

// MaxNameLength is the longest login or room name accepted, in runes.
const MaxNameLength = 64

// CommandPrefix starts every chat-mode command.
const CommandPrefix = '/'

// ValidateName applies the name policy shared by login names and room names:
// non-empty, not starting with the command prefix, letters and digits only,
// at most MaxNameLength runes. kind is "name" or "room name" and only shapes
// the message.
func ValidateName(kind, name string) error {
	if name == "" {
		return &ValidationError{Reason: kind + " must not be empty"}
	}
	if name[0] == CommandPrefix {
		return &ValidationError{Reason: kind + " must not start with /"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return &ValidationError{Reason: kind + " is too long"}
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return &ValidationError{Reason: kind + " must contain only letters and numbers"}
		}
	}
	return nil
}
