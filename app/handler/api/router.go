package handler

import (
	"inventory-order-service/app/middleware"
	"inventory-order-service/config"

	"github.com/gofiber/fiber/v2"
)

func SetupOrderRouter(app *fiber.App, orderHandler *OrderHandler, cfg *config.Config) {

	api := app.Group("/order-service").Use(middleware.Auth(cfg.Jwt.SecretKey))

	api.Post("/orders", orderHandler.Create)
	api.Get("/orders/stats", orderHandler.GetStats)
	api.Get("/orders", orderHandler.GetList)
	api.Get("/orders/:id", orderHandler.GetByID)
	api.Put("/orders/:id", orderHandler.Update)
}

func SetupInventoryRouter(app *fiber.App, productHandler *ProductHandler, cfg *config.Config) {

	api := app.Group("/inventory-service").Use(middleware.Auth(cfg.Jwt.SecretKey))

	api.Post("/products", productHandler.Create)
	api.Get("/products/stats", productHandler.GetStats)
	api.Get("/products", productHandler.GetList)
	api.Get("/products/:id", productHandler.GetByID)
	api.Put("/products/:id", productHandler.Update)
	api.Patch("/products/:id/write-down", productHandler.WriteDown)

	internal := app.Group("/internal/inventory-service").Use(middleware.AuthInternal(cfg))
	internal.Get("/products/:id", productHandler.GetByID)
}
