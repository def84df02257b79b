package relay

import (
	chat "github.com/example/chat-relay/domain/chat"
	"github.com/go-monolith/mono/pkg/helper"
)

// RelayedEvent is the payload placed on the event bus for fan-out to
// connected clients.
type RelayedEvent struct {
	Topic string     `json:"topic"`
	Event chat.Event `json:"event"`
}

// Event definitions for the relay module.
var (
	// ChatMessageV1 is published when a chat message is relayed.
	ChatMessageV1 = helper.EventDefinition[RelayedEvent](
		"relay",
		"ChatMessage",
		"v1",
	)

	// UserJoinedV1 is published when a user declares presence.
	UserJoinedV1 = helper.EventDefinition[RelayedEvent](
		"relay",
		"UserJoined",
		"v1",
	)

	// UserLeftV1 is published when a user disconnects.
	UserLeftV1 = helper.EventDefinition[RelayedEvent](
		"relay",
		"UserLeft",
		"v1",
	)
)
