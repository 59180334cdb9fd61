package handler

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/middleware"
)

// NewApp creates the fiber app with the shared error shape and base middleware.
func NewApp(allowOrigins string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "mstc-ledger",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.AdminKeyHeader,
	}))

	return app
}
