package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"inventory-order-service/app/client"
	handler "inventory-order-service/app/handler/api"
	"inventory-order-service/app/middleware"
	"inventory-order-service/app/repository/broker"
	"inventory-order-service/app/repository/db"
	"inventory-order-service/app/usecase"
	"inventory-order-service/config"
	"inventory-order-service/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	slogfiber "github.com/samber/slog-fiber"
)

func main() {
	// init logger
	logger.InitLogger()

	ctx := context.Background()
	// init config
	cfg, err := config.InitConfig(ctx)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		return
	}
	if cfg.InventoryApiUrl == "" {
		slog.Error("INVENTORY_API_URL is required for the order service")
		return
	}

	// init database
	dbConn, err := db.NewPostgres(cfg.Db)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		return
	}
	defer dbConn.Close()

	// Connect to NATS server
	nc, err := nats.Connect(cfg.Nats.Url)
	if err != nil {
		slog.Error("Error connecting to NATS", "error", err)
		return
	}
	defer nc.Drain()

	js, err := jetstream.New(nc)
	if err != nil {
		slog.Error("Error creating JetStream context", "error", err)
		return
	}
	if _, err := broker.EnsureStream(ctx, js, cfg); err != nil {
		slog.Error("create stock stream failed", "error", err)
		return
	}

	reqValidator := validator.New()
	orderRepo := db.NewOrderRepository(dbConn)
	productReader := client.NewProductClient(cfg)
	stockPublisher := broker.NewStockChangePublisher(js, cfg)

	orderUsecase := usecase.NewOrderUsecase(orderRepo, productReader, stockPublisher, cfg)
	orderHandler := handler.NewOrderHandler(orderUsecase, reqValidator)

	// Initialize HTTP web framework
	app := fiber.New()
	app.Use(healthcheck.New(healthcheck.Config{
		LivenessProbe: func(c *fiber.Ctx) bool {
			return true
		},
		LivenessEndpoint: "/live",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			return true
		},
		ReadinessEndpoint: "/ready",
	}))
	webLogger := slog.New(&logger.RequestIDHandler{Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})})
	app.Use(slogfiber.New(webLogger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(middleware.RequestIDMiddleware())

	handler.SetupOrderRouter(app, orderHandler, cfg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Failed to listen", "port", cfg.Port)
			return
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("Gracefully shutdown")
	err = app.Shutdown()
	if err != nil {
		slog.Warn("Unfortunately the shutdown wasn't smooth", "err", err)
	}
}
