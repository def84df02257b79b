package relay

import (
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "github.com/example/chat-relay/domain/chat"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)         {}
func (m *mockLogger) Info(msg string, args ...any)          {}
func (m *mockLogger) Warn(msg string, args ...any)          {}
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// recordingBroadcaster captures every broadcast for assertion
type recordingBroadcaster struct {
	topics []string
	events []chat.Event
}

func (r *recordingBroadcaster) Broadcast(topic string, evt chat.Event) {
	r.topics = append(r.topics, topic)
	r.events = append(r.events, evt)
}

// fakeSlot is an in-memory identity slot standing in for a connection
type fakeSlot struct {
	attrs map[string]string
}

func newFakeSlot() *fakeSlot {
	return &fakeSlot{attrs: make(map[string]string)}
}

func (f *fakeSlot) Attr(key string) (string, bool) {
	v, ok := f.attrs[key]
	return v, ok
}

func (f *fakeSlot) SetAttr(key, value string) {
	f.attrs[key] = value
}

func newTestRouter() (*Router, *HistoryStore, *PresenceTracker, *recordingBroadcaster) {
	history := NewHistoryStore(DefaultHistoryCap)
	presence := NewPresenceTracker()
	bc := &recordingBroadcaster{}
	router := NewRouter(history, presence, bc, &mockLogger{})
	return router, history, presence, bc
}

func TestRouter_PublicChat(t *testing.T) {
	router, history, _, bc := newTestRouter()

	err := router.HandleChatIntent(chat.Event{
		Sender:  "alice",
		Content: "hello everyone",
	})
	require.NoError(t, err)

	stored := history.Snapshot(chat.PublicConversation)
	require.Len(t, stored, 1)
	assert.Equal(t, "alice", stored[0].Sender)
	assert.Equal(t, chat.EventChat, stored[0].Type)
	assert.Equal(t, chat.PublicRecipient, stored[0].Recipient)
	assert.NotEmpty(t, stored[0].Timestamp)

	_, parseErr := time.Parse(time.RFC3339Nano, stored[0].Timestamp)
	assert.NoError(t, parseErr, "timestamp should be RFC 3339")

	require.Len(t, bc.events, 1)
	assert.Equal(t, TopicPublic, bc.topics[0])
	assert.Equal(t, stored[0], bc.events[0])
}

func TestRouter_PublicRecipientCaseInsensitive(t *testing.T) {
	router, history, _, _ := newTestRouter()

	err := router.HandleChatIntent(chat.Event{
		Sender:    "alice",
		Content:   "shouting",
		Recipient: "PUBLIC",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, history.Len(chat.PublicConversation))
}

func TestRouter_DirectChat(t *testing.T) {
	router, history, _, bc := newTestRouter()

	err := router.HandleChatIntent(chat.Event{
		Sender:    "bob",
		Content:   "psst",
		Recipient: "alice",
	})
	require.NoError(t, err)

	// Stored under the pair key, never under the public conversation.
	stored := history.Snapshot("alice:bob")
	require.Len(t, stored, 1)
	assert.Equal(t, "alice", stored[0].Recipient)
	assert.Empty(t, history.Snapshot(chat.PublicConversation))

	// Still fanned out on the shared topic; clients filter on recipient.
	require.Len(t, bc.events, 1)
	assert.Equal(t, TopicPublic, bc.topics[0])
	assert.Equal(t, "alice", bc.events[0].Recipient)
}

func TestRouter_DirectChatBlankSender(t *testing.T) {
	router, history, _, bc := newTestRouter()

	err := router.HandleChatIntent(chat.Event{
		Sender:    "   ",
		Content:   "anonymous",
		Recipient: "alice",
	})
	require.Error(t, err)

	assert.Zero(t, history.Conversations())
	assert.Empty(t, bc.events)
}

func TestRouter_JoinIntent(t *testing.T) {
	router, history, presence, bc := newTestRouter()
	slot := newFakeSlot()

	router.HandleJoinIntent(chat.Event{Sender: "alice"}, slot)

	username, ok := slot.Attr(attrUsername)
	require.True(t, ok)
	assert.Equal(t, "alice", username)

	assert.Equal(t, []string{"alice"}, presence.Snapshot())

	// Joins are announced but never recorded.
	assert.Zero(t, history.Conversations())

	require.Len(t, bc.events, 1)
	assert.Equal(t, TopicPublic, bc.topics[0])
	assert.Equal(t, chat.EventJoin, bc.events[0].Type)
	assert.Equal(t, "alice", bc.events[0].Sender)
	assert.NotEmpty(t, bc.events[0].Timestamp)
}

func TestRouter_JoinIntentDuplicate(t *testing.T) {
	router, _, presence, bc := newTestRouter()

	router.HandleJoinIntent(chat.Event{Sender: "alice"}, newFakeSlot())
	router.HandleJoinIntent(chat.Event{Sender: "alice"}, newFakeSlot())

	assert.Equal(t, 1, presence.Count())
	// The announcement still goes out for the second connection.
	assert.Len(t, bc.events, 2)
}

func TestRouter_LogIntent(t *testing.T) {
	router, history, _, bc := newTestRouter()

	router.HandleLogIntent(chat.Event{
		Sender:  "alice",
		Content: "render took 120ms",
		Type:    chat.EventLog,
	})

	// Log entries never reach history or the wire.
	assert.Zero(t, history.Conversations())
	assert.Empty(t, bc.events)
}

func TestRouter_Disconnect(t *testing.T) {
	router, _, presence, bc := newTestRouter()
	slot := newFakeSlot()

	router.HandleJoinIntent(chat.Event{Sender: "carol"}, slot)
	router.HandleDisconnect(slot)

	assert.Zero(t, presence.Count())

	require.Len(t, bc.events, 2)
	leave := bc.events[1]
	assert.Equal(t, chat.EventLeave, leave.Type)
	assert.Equal(t, "carol", leave.Sender)
	assert.Empty(t, leave.Content)
	assert.Empty(t, leave.Recipient)
	assert.NotEmpty(t, leave.Timestamp)
}

func TestRouter_DisconnectTwice(t *testing.T) {
	router, _, _, bc := newTestRouter()
	slot := newFakeSlot()

	router.HandleJoinIntent(chat.Event{Sender: "carol"}, slot)
	router.HandleDisconnect(slot)
	router.HandleDisconnect(slot)

	// Only one departure announcement for a user who already left.
	leaves := 0
	for _, evt := range bc.events {
		if evt.Type == chat.EventLeave {
			leaves++
		}
	}
	assert.Equal(t, 1, leaves)
}

func TestRouter_DisconnectWithoutJoin(t *testing.T) {
	router, _, _, bc := newTestRouter()

	router.HandleDisconnect(newFakeSlot())

	assert.Empty(t, bc.events)
}

func TestRouter_PrivateHistoryOrderIndependent(t *testing.T) {
	router, _, _, _ := newTestRouter()

	err := router.HandleChatIntent(chat.Event{
		Sender:    "bob",
		Content:   "hi",
		Recipient: "alice",
	})
	require.NoError(t, err)

	forward, err := router.PrivateHistory("alice", "bob")
	require.NoError(t, err)
	reversed, err := router.PrivateHistory("bob", "alice")
	require.NoError(t, err)

	assert.Equal(t, forward, reversed)
	require.Len(t, forward, 1)
	assert.Equal(t, "hi", forward[0].Content)
}

func TestRouter_PrivateHistoryBlankUser(t *testing.T) {
	router, _, _, _ := newTestRouter()

	_, err := router.PrivateHistory("", "bob")
	assert.Error(t, err)
}

func TestRouter_OnlineUsers(t *testing.T) {
	router, _, _, _ := newTestRouter()

	router.HandleJoinIntent(chat.Event{Sender: "alice"}, newFakeSlot())
	router.HandleJoinIntent(chat.Event{Sender: "bob"}, newFakeSlot())

	assert.Equal(t, []string{"alice", "bob"}, router.OnlineUsers())
}

func TestRouter_PublicHistoryEmpty(t *testing.T) {
	router, _, _, _ := newTestRouter()

	got := router.PublicHistory()
	require.NotNil(t, got)
	assert.Empty(t, got)
}
