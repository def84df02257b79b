package relay

import (
	"context"
	"encoding/json"
	"fmt"

	chat "github.com/example/chat-relay/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// RelayPort defines the snapshot reads exposed to other modules.
type RelayPort interface {
	PublicHistory(ctx context.Context) ([]chat.Event, error)
	PrivateHistory(ctx context.Context, userA, userB string) ([]chat.Event, error)
	OnlineUsers(ctx context.Context) ([]string, error)
}

// RelayAdapter implements RelayPort over the relay module's service
// container.
type RelayAdapter struct {
	container mono.ServiceContainer
}

// NewRelayAdapter creates a new RelayAdapter.
func NewRelayAdapter(container mono.ServiceContainer) RelayPort {
	if container == nil {
		panic("relay: ServiceContainer is nil")
	}
	return &RelayAdapter{container: container}
}

// PublicHistory returns the public conversation snapshot, oldest-first.
func (a *RelayAdapter) PublicHistory(ctx context.Context) ([]chat.Event, error) {
	req := PublicHistoryRequest{}
	var resp HistoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServicePublicHistory,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get public history: %w", err)
	}
	return resp.Events, nil
}

// PrivateHistory returns the direct conversation snapshot between two users.
func (a *RelayAdapter) PrivateHistory(ctx context.Context, userA, userB string) ([]chat.Event, error) {
	req := PrivateHistoryRequest{UserA: userA, UserB: userB}
	var resp HistoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServicePrivateHistory,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get private history: %w", err)
	}
	return resp.Events, nil
}

// OnlineUsers returns the online usernames in join order.
func (a *RelayAdapter) OnlineUsers(ctx context.Context) ([]string, error) {
	req := OnlineUsersRequest{}
	var resp OnlineUsersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceOnlineUsers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get online users: %w", err)
	}
	return resp.Users, nil
}
