package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"skillswap/backend/src/config"
	"skillswap/backend/src/connections"
	"skillswap/backend/src/controllers"
	"skillswap/backend/src/lib"
	"skillswap/backend/src/middleware"
	"skillswap/backend/src/realtime"
	"skillswap/backend/src/routes"
	"skillswap/backend/src/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := lib.ConnectDB(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		slog.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	if err := lib.EnsureIndexes(ctx, db); err != nil {
		slog.Error("failed to ensure indexes", "error", err)
		os.Exit(1)
	}

	users := store.NewMongoUserStore(db)
	notifications := store.NewMongoNotificationStore(db)
	messages := store.NewMongoMessageStore(db)

	// The real-time transport is optional: without it every publish is a
	// silent no-op and clients fall back to polling the notification log.
	var publisher realtime.Publisher
	if cfg.NatsURL != "" {
		natsPub, err := realtime.NewNatsPublisher(cfg.NatsURL)
		if err != nil {
			slog.Warn("real-time transport unavailable, fan-out disabled", "error", err)
		} else {
			defer natsPub.Close()
			publisher = natsPub
		}
	} else {
		slog.Warn("NATS_URL not set, fan-out disabled")
	}
	fanout := realtime.NewBestEffort(publisher, slog.Default())

	svc := connections.NewService(users, notifications, fanout, slog.Default())
	connections.NewSweeper(users, slog.Default(), cfg.SweepInterval).Start(ctx)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CorsOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	protect := middleware.Protect(users, cfg.JWTSecret)
	routes.UserRoutes(app, controllers.NewUserController(users, cfg.JWTSecret), protect)
	routes.ConnectionRoutes(app, controllers.NewConnectionController(svc, users), protect)
	routes.NotificationRoutes(app, controllers.NewNotificationController(notifications, users), protect)
	routes.MessageRoutes(app, controllers.NewMessageController(messages, users, fanout), protect)
	routes.RealtimeRoutes(app, controllers.NewRealtimeController(cfg.JWTSecret, cfg.NatsURL), protect)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down")
		cancel()
		_ = app.Shutdown()
	}()

	slog.Info("server starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
