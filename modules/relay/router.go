package relay

import (
	"fmt"

	chat "github.com/example/chat-relay/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
)

// TopicPublic is the broadcast topic every connected client subscribes to.
// All events go here, including direct messages; clients filter locally.
const TopicPublic = "public"

// attrUsername is the identity-slot key the router uses to remember which
// username a connection declared on join.
const attrUsername = "username"

// Broadcaster pushes a serialized event to all subscribers of a topic.
// Fire-and-forget: the router never checks delivery.
type Broadcaster interface {
	Broadcast(topic string, evt chat.Event)
}

// IdentitySlot is the per-connection key/value scratch space owned by the
// transport layer. The router stores the username there on join and reads it
// back on disconnect.
type IdentitySlot interface {
	Attr(key string) (string, bool)
	SetAttr(key, value string)
}

// Router classifies inbound chat events, stamps them, maintains history and
// presence, and emits broadcasts. History and presence are always updated
// before the broadcast attempt, so a broadcast failure never leaves them
// inconsistent.
type Router struct {
	history     *HistoryStore
	presence    *PresenceTracker
	broadcaster Broadcaster
	logger      types.Logger
}

// NewRouter creates a router over the given shared stores.
func NewRouter(history *HistoryStore, presence *PresenceTracker, broadcaster Broadcaster, logger types.Logger) *Router {
	return &Router{
		history:     history,
		presence:    presence,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// HandleChatIntent processes an inbound CHAT event: stamps it, decides public
// vs. direct routing, appends it to the matching history and broadcasts it on
// the public topic.
func (r *Router) HandleChatIntent(evt chat.Event) error {
	evt.Timestamp = chat.Timestamp()
	evt.Type = chat.EventChat

	recipient := chat.NormalizeRecipient(evt.Recipient)
	if chat.IsPublicRecipient(recipient) {
		evt.Recipient = chat.PublicRecipient
		r.history.Append(chat.PublicConversation, evt)
		r.logger.Debug("stored public message",
			"sender", evt.Sender,
			"history", r.history.Len(chat.PublicConversation))
		r.broadcaster.Broadcast(TopicPublic, evt)
		return nil
	}

	// Direct message: history goes under the canonical pair key, the
	// recipient field stays as given.
	evt.Recipient = recipient
	key, err := chat.ConversationKey(evt.Sender, recipient)
	if err != nil {
		return fmt.Errorf("derive conversation key: %w", err)
	}
	r.history.Append(key, evt)
	r.logger.Debug("stored direct message",
		"sender", evt.Sender,
		"recipient", recipient,
		"key", key)

	// Direct messages are still broadcast on the public topic; clients
	// filter by sender/recipient on their side.
	r.broadcaster.Broadcast(TopicPublic, evt)
	return nil
}

// HandleJoinIntent processes an inbound JOIN event: remembers the username in
// the connection's identity slot, tracks presence and broadcasts the join.
// Join events are ephemeral presence notifications and never written to
// history. The broadcast goes out even when the username was already online.
func (r *Router) HandleJoinIntent(evt chat.Event, slot IdentitySlot) {
	username := evt.Sender
	slot.SetAttr(attrUsername, username)

	if r.presence.Join(username) {
		r.logger.Info("user joined", "username", username, "online", r.presence.Count())
	} else {
		r.logger.Warn("join for user already online", "username", username)
	}

	evt.Timestamp = chat.Timestamp()
	evt.Type = chat.EventJoin
	r.broadcaster.Broadcast(TopicPublic, evt)
}

// HandleLogIntent records a frontend LOG event. Any other event type arriving
// here is a protocol anomaly: recorded as a warning, never broadcast.
func (r *Router) HandleLogIntent(evt chat.Event) {
	if evt.Type == chat.EventLog {
		r.logger.Info("frontend log", "sender", evt.Sender, "content", evt.Content)
		return
	}
	r.logger.Warn("non-LOG event on log entry point",
		"type", string(evt.Type),
		"sender", evt.Sender)
}

// HandleDisconnect reacts to a connection-lifecycle notification: reads the
// username back from the identity slot, removes it from presence and
// broadcasts a LEAVE event. Duplicate or anonymous disconnects only warn.
func (r *Router) HandleDisconnect(slot IdentitySlot) {
	username, ok := slot.Attr(attrUsername)
	if !ok || username == "" {
		r.logger.Warn("disconnect without identified user")
		return
	}

	if !r.presence.Leave(username) {
		r.logger.Warn("disconnect for user not online", "username", username)
		return
	}
	r.logger.Info("user disconnected", "username", username, "online", r.presence.Count())

	r.broadcaster.Broadcast(TopicPublic, chat.Event{
		Type:      chat.EventLeave,
		Sender:    username,
		Timestamp: chat.Timestamp(),
	})
}

// PublicHistory returns a snapshot of the public conversation, oldest-first.
func (r *Router) PublicHistory() []chat.Event {
	return r.history.Snapshot(chat.PublicConversation)
}

// PrivateHistory returns a snapshot of the direct conversation between the
// two users, oldest-first. Empty if none exists yet.
func (r *Router) PrivateHistory(userA, userB string) ([]chat.Event, error) {
	key, err := chat.ConversationKey(userA, userB)
	if err != nil {
		return nil, fmt.Errorf("derive conversation key: %w", err)
	}
	return r.history.Snapshot(key), nil
}

// OnlineUsers returns a snapshot of the online usernames in join order.
func (r *Router) OnlineUsers() []string {
	return r.presence.Snapshot()
}
