package types

import (
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidID checks room and user id format before they are sent over the
// wire. 1-64 characters, alphanumeric plus underscore and hyphen.
func IsValidID(id string) bool {
	if len(id) < 1 || len(id) > 64 {
		return false
	}
	return idRegex.MatchString(id)
}

// IsValidStatus checks a presence status value.
func IsValidStatus(status string) bool {
	switch status {
	case StatusOnline, StatusOffline, StatusAway, StatusBusy:
		return true
	default:
		return false
	}
}

// IsValidMessageKind checks a message kind value.
func IsValidMessageKind(kind string) bool {
	switch kind {
	case MessageKindText, MessageKindFile, MessageKindImage, MessageKindSystem:
		return true
	default:
		return false
	}
}

// ValidateOutgoing ensures a message about to be sent meets wire requirements.
// Kind defaults to text when unset so callers can leave it empty.
func (m *Message) ValidateOutgoing() error {
	if !IsValidID(m.RoomID) {
		return ErrInvalidRoomID
	}
	if m.Kind == "" {
		m.Kind = MessageKindText
	}
	if !IsValidMessageKind(m.Kind) {
		return ErrInvalidKind
	}
	if len(m.Body) == 0 && len(m.Attachments) == 0 {
		return ErrEmptyBody
	}
	if len(m.Body) > 65536 {
		return ErrBodyTooLarge
	}
	return nil
}
