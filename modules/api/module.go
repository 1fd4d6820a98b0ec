package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr               string
	CORSAllowedOrigins string
	// AccessLog enables the per-request access log.
	AccessLog bool
}

// APIModule is the driving adapter that exposes REST and WebSocket endpoints.
// It reaches the core domain through TaskPort and ActivityPort.
type APIModule struct {
	cfg          Config
	app          *fiber.App
	taskPort     task.TaskPort
	activityPort activity.ActivityPort
	hub          *Hub
	stopHub      context.CancelFunc
	logger       types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*APIModule)(nil)
	_ mono.DependentModule       = (*APIModule)(nil)
	_ mono.EventConsumerModule   = (*APIModule)(nil)
	_ mono.HealthCheckableModule = (*APIModule)(nil)
)

// NewModule creates a new APIModule.
func NewModule(cfg Config, logger types.Logger) *APIModule {
	if cfg.Addr == "" {
		cfg.Addr = ":3000"
	}
	logger = logger.WithModule("api")
	return &APIModule{
		cfg:    cfg,
		hub:    NewHub(logger),
		logger: logger,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"task", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.taskPort = task.NewTaskAdapter(container)
	case "activity":
		m.activityPort = activity.NewActivityAdapter(container)
	}
}

// Start builds the Fiber app and starts serving.
func (m *APIModule) Start(_ context.Context) error {
	if m.taskPort == nil {
		return errors.New("taskPort dependency not set")
	}
	if m.activityPort == nil {
		return errors.New("activityPort dependency not set")
	}

	hubCtx, cancel := context.WithCancel(context.Background())
	m.stopHub = cancel
	go m.hub.Run(hubCtx)

	m.app = m.newApp()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.cfg.Addr); err != nil {
			errCh <- err
		}
	}()

	// Wait briefly to catch immediate startup errors (port in use, permission denied)
	select {
	case err := <-errCh:
		cancel()
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", m.cfg.Addr)
	return nil
}

// newApp creates the Fiber app with middleware and routes.
func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Task Tracker",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if m.cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	if m.cfg.CORSAllowedOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: m.cfg.CORSAllowedOrigins,
			AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			AllowHeaders: "Content-Type",
		}))
	}

	m.setupRoutes(app)
	return app
}

// Stop shuts down the HTTP server and the stream hub.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.stopHub != nil {
		m.stopHub()
		m.hub.Wait()
	}
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr":           m.cfg.Addr,
			"stream_clients": m.hub.ClientCount(),
		},
	}
}

// errorHandler handles errors Fiber raises itself, such as unknown routes.
func (m *APIModule) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	label := "request_error"
	if code >= fiber.StatusInternalServerError {
		label = "server_error"
		m.logger.Error("HTTP error", "code", code, "error", err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   label,
		Message: message,
	})
}
