// Package relay implements the message-routing and presence-tracking core of
// the chat relay: bounded per-conversation history, an ordered online-user
// set, and the router that classifies inbound events and fans them out over
// the event bus.
package relay

import (
	"context"
	"encoding/json"
	"fmt"

	chat "github.com/example/chat-relay/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Module wires the router into the mono framework: it emits broadcast events
// and provides request/reply services for the snapshot reads.
type Module struct {
	router   *Router
	history  *HistoryStore
	presence *PresenceTracker
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ Broadcaster                = (*Module)(nil)
)

// NewModule creates the relay module with fresh in-memory stores.
func NewModule(logger types.Logger) *Module {
	m := &Module{
		history:  NewHistoryStore(DefaultHistoryCap),
		presence: NewPresenceTracker(),
		logger:   logger,
	}
	m.router = NewRouter(m.history, m.presence, m, logger)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		ChatMessageV1.ToBase(),
		UserJoinedV1.ToBase(),
		UserLeftV1.ToBase(),
	}
}

// Start initializes the relay module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Relay module started", "historyCap", DefaultHistoryCap)
	return nil
}

// Stop gracefully shuts down the module. All state is in-memory and simply
// dropped.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Relay module stopped",
		"conversations", m.history.Conversations(),
		"online", m.presence.Count())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"online_users":  m.presence.Count(),
			"conversations": m.history.Conversations(),
		},
	}
}

// Router returns the router handle for the transport layer.
func (m *Module) Router() *Router {
	return m.router
}

// Broadcast implements Broadcaster by publishing the event on the bus.
// Fire-and-forget: publish failures only lose the live notification, history
// and presence are already committed by the router.
func (m *Module) Broadcast(topic string, evt chat.Event) {
	def := ChatMessageV1
	switch evt.Type {
	case chat.EventJoin:
		def = UserJoinedV1
	case chat.EventLeave:
		def = UserLeftV1
	}

	if err := def.Publish(m.eventBus, RelayedEvent{Topic: topic, Event: evt}, nil); err != nil {
		m.logger.Warn("Failed to publish broadcast event",
			"type", string(evt.Type),
			"topic", topic,
			"error", err)
	}
}

// RegisterServices registers the request/reply snapshot services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := container.RegisterRequestReplyService(ServicePublicHistory, m.handlePublicHistory); err != nil {
		return fmt.Errorf("failed to register %s: %w", ServicePublicHistory, err)
	}
	if err := container.RegisterRequestReplyService(ServicePrivateHistory, m.handlePrivateHistory); err != nil {
		return fmt.Errorf("failed to register %s: %w", ServicePrivateHistory, err)
	}
	if err := container.RegisterRequestReplyService(ServiceOnlineUsers, m.handleOnlineUsers); err != nil {
		return fmt.Errorf("failed to register %s: %w", ServiceOnlineUsers, err)
	}

	m.logger.Info("Registered relay snapshot services")
	return nil
}

func (m *Module) handlePublicHistory(_ context.Context, _ *mono.Msg) ([]byte, error) {
	events := m.router.PublicHistory()
	m.logger.Info("Public history requested", "messages", len(events))
	return json.Marshal(HistoryResponse{Events: events})
}

func (m *Module) handlePrivateHistory(_ context.Context, msg *mono.Msg) ([]byte, error) {
	var req PrivateHistoryRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	events, err := m.router.PrivateHistory(req.UserA, req.UserB)
	if err != nil {
		return nil, err
	}
	m.logger.Info("Private history requested",
		"userA", req.UserA,
		"userB", req.UserB,
		"messages", len(events))
	return json.Marshal(HistoryResponse{Events: events})
}

func (m *Module) handleOnlineUsers(_ context.Context, _ *mono.Msg) ([]byte, error) {
	users := m.router.OnlineUsers()
	m.logger.Info("Online users requested", "count", len(users))
	return json.Marshal(OnlineUsersResponse{Users: users})
}
