package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/chat-relay/modules/api"
	"github.com/example/chat-relay/modules/broadcast"
	"github.com/example/chat-relay/modules/relay"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Chat Relay - Fiber + EventBus Pubsub ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	relayModule := relay.NewModule(app.Logger())
	broadcastModule := broadcast.NewModule(app.Logger())
	apiModule := api.NewModule(app.Logger())

	// Inject the hub and router into the API module. The router carries the
	// per-connection identity slot, which cannot cross the ServiceContainer
	// boundary; the snapshot reads go through the container instead.
	apiModule.SetHub(broadcastModule.GetHub())
	apiModule.SetRouter(relayModule.Router())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - relay: Core routing/presence (ServiceProviderModule + EventEmitterModule)
	// - broadcast: Event consumer (WebSocket hub fan-out)
	// - api: Driving adapter (Fiber HTTP/WebSocket server, depends on relay)
	app.Register(relayModule)
	app.Register(broadcastModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Printf("  - NATS URL: %s", natsURL)
	log.Println("")
	log.Println("Event-Driven Relay:")
	log.Println("  - ChatMessage events -> broadcast module -> WebSocket clients")
	log.Println("  - UserJoined events  -> broadcast module -> WebSocket clients")
	log.Println("  - UserLeft events    -> broadcast module -> WebSocket clients")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                          - Health check")
	log.Println("  GET    /api/v1/history                  - Public message history")
	log.Println("  GET    /api/v1/history/:user1/:user2    - Direct message history")
	log.Println("  GET    /api/v1/users                    - Online users in join order")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Send JSON events with type CHAT, JOIN or LOG")
	log.Println("  All events are broadcast on the public topic; clients filter")
	log.Println("  direct messages by sender/recipient locally")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
