package relay

import chat "github.com/example/chat-relay/domain/chat"

// Request/reply service names registered by the relay module.
const (
	ServicePublicHistory  = "get-public-history"
	ServicePrivateHistory = "get-private-history"
	ServiceOnlineUsers    = "get-online-users"
)

// PublicHistoryRequest asks for the public conversation snapshot.
type PublicHistoryRequest struct{}

// PrivateHistoryRequest asks for the snapshot of the direct conversation
// between two users.
type PrivateHistoryRequest struct {
	UserA string `json:"user_a"`
	UserB string `json:"user_b"`
}

// HistoryResponse carries a conversation snapshot, oldest-first.
type HistoryResponse struct {
	Events []chat.Event `json:"events"`
}

// OnlineUsersRequest asks for the online users snapshot.
type OnlineUsersRequest struct{}

// OnlineUsersResponse carries the online usernames in join order.
type OnlineUsersResponse struct {
	Users []string `json:"users"`
}
