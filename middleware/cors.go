package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS admits the given browser origins with credentials (the access_token
// cookie). With no origins configured any origin is allowed, without credentials.
func CORS(origins []string) fiber.Handler {
	cfg := cors.Config{
		AllowMethods:  "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization,X-Requested-With",
		ExposeHeaders: "Content-Length",
		MaxAge:        3600,
	}
	if len(origins) > 0 {
		cfg.AllowOrigins = strings.Join(origins, ",")
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
