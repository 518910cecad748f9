package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows the configured frontend origin. Credentials are only allowed for an explicit
// origin; an empty origin allows any origin without credentials.
func CORS(origin string) fiber.Handler {
	cfg := cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, " + RequestIDHeader,
		ExposeHeaders: RequestIDHeader,
	}
	if origin != "" && origin != "*" {
		cfg.AllowOrigins = origin
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
