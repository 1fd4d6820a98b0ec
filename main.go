package main

import (
	"context"
	"log"
	"os"

	"github.com/example/task-tracker/config"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/cache"
	"github.com/example/task-tracker/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Task Tracker - Fiber + mono modular monolith ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logLevel := mono.LogLevelInfo
	if cfg.LogLevel == "error" {
		logLevel = mono.LogLevelError
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	logger := app.Logger()

	var taskOpts []task.Option
	if cfg.CacheEnabled() {
		c, err := cache.Connect(context.Background(), cfg.Cache())
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		taskOpts = append(taskOpts, task.WithCache(c))
	}

	activityModule, err := activity.NewModule(cfg.ActivityLimit, logger)
	if err != nil {
		log.Fatalf("Failed to create activity module: %v", err)
	}

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - activity: Event consumer (subscribes to task events)
	// - task: Core domain (store, validator, emits events)
	// - api: Driving adapter (Fiber HTTP + WebSocket, depends on task and activity)
	if err := app.Register(activityModule); err != nil {
		log.Fatalf("Failed to register activity module: %v", err)
	}
	if err := app.Register(task.NewModule(cfg.Store, logger, taskOpts...)); err != nil {
		log.Fatalf("Failed to register task module: %v", err)
	}
	if err := app.Register(api.NewModule(cfg.API(), logger)); err != nil {
		log.Fatalf("Failed to register api module: %v", err)
	}

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
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

func printStartupInfo(cfg config.Config) {
	storage := cfg.Store.Driver
	switch cfg.Store.Driver {
	case task.DriverSQLite:
		storage += " (" + cfg.Store.DBPath + ")"
	case task.DriverPostgres:
		storage += " (DATABASE_URL)"
	}
	cacheInfo := "disabled"
	if cfg.CacheEnabled() {
		cacheInfo = "Redis at " + cfg.RedisAddr + ", TTL " + cfg.CacheTTL.String()
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber")
	log.Printf("  - Task Store: %s", storage)
	log.Printf("  - Lookup Cache: %s", cacheInfo)
	log.Println("")
	log.Println("Event-Driven Modules:")
	log.Println("  - TaskCreated/TaskUpdated/TaskDeleted events -> activity module")
	log.Println("  - TaskCreated/TaskUpdated/TaskDeleted events -> WebSocket stream")
	log.Println("")
	log.Printf("REST API Endpoints (%s):", cfg.HTTPAddr)
	log.Println("  GET    /tasks                  - List tasks")
	log.Println("  POST   /tasks                  - Create a task")
	log.Println("  GET    /tasks/:id              - Get a task")
	log.Println("  PUT    /tasks/:id              - Replace a task (PATCH also accepted)")
	log.Println("  DELETE /tasks/:id              - Delete a task")
	log.Println("  GET    /activity?limit=n       - Recent task activity")
	log.Println("  GET    /ws/tasks               - WebSocket change stream")
	log.Println("  GET    /health                 - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
