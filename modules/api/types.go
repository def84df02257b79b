package api

import chat "github.com/example/chat-relay/domain/chat"

// HistoryResponse is the API response for a conversation snapshot.
type HistoryResponse struct {
	Messages []chat.Event `json:"messages"`
	Total    int          `json:"total"`
}

// UsersResponse is the API response for the online users snapshot.
type UsersResponse struct {
	Users []string `json:"users"`
	Total int      `json:"total"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// wsError is the error frame sent over a WebSocket connection.
type wsError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
