// Package chat holds the domain values exchanged by the relay: events,
// event types and conversation keys.
package chat

import (
	"errors"
	"strings"
	"time"
)

// EventType classifies a chat event.
type EventType string

// Event types.
const (
	EventChat  EventType = "CHAT"
	EventJoin  EventType = "JOIN"
	EventLeave EventType = "LEAVE"
	EventLog   EventType = "LOG"
)

// Event is the unit exchanged between clients and the relay. Timestamps are
// stamped server-side at processing time, never taken from the client.
type Event struct {
	Content   string    `json:"content,omitempty"`
	Sender    string    `json:"sender"`
	Type      EventType `json:"type"`
	Timestamp string    `json:"timestamp,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
}

const (
	// PublicRecipient is the sentinel recipient for public messages.
	PublicRecipient = "public"

	// PublicConversation is the history key of the single public
	// conversation. Pair keys always contain KeySeparator, so no user
	// pair can collide with it.
	PublicConversation = "public"

	// KeySeparator joins the two usernames of a pair key.
	KeySeparator = ":"
)

// ErrUsernameBlank is returned when a conversation key is derived from a
// blank or empty username.
var ErrUsernameBlank = errors.New("username cannot be blank")

// NormalizeRecipient maps an absent or blank recipient to PublicRecipient.
// Any other value is returned as given.
func NormalizeRecipient(recipient string) string {
	if strings.TrimSpace(recipient) == "" {
		return PublicRecipient
	}
	return recipient
}

// IsPublicRecipient reports whether the recipient addresses the public
// conversation. The match is case-insensitive.
func IsPublicRecipient(recipient string) bool {
	return strings.EqualFold(NormalizeRecipient(recipient), PublicRecipient)
}

// ConversationKey derives the canonical history key for the direct
// conversation between two users: the usernames sorted lexicographically and
// joined with KeySeparator, so the key is identical regardless of which user
// is sender or recipient.
func ConversationKey(userA, userB string) (string, error) {
	if strings.TrimSpace(userA) == "" || strings.TrimSpace(userB) == "" {
		return "", ErrUsernameBlank
	}
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + KeySeparator + userB, nil
}

// Timestamp formats the current time as an ISO-8601 (RFC 3339) string.
func Timestamp() string {
	return time.Now().Format(time.RFC3339Nano)
}
