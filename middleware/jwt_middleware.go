package middleware

import (
	"errors"
	"strings"

	"devsync/models"
	"devsync/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	errNoToken       = errors.New("authorization required")
	errBadAuthHeader = errors.New("invalid authorization format")
)

// bearerToken reads the token from the Authorization header, falling back to
// the access_token cookie set for browser clients.
func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		if token := c.Cookies("access_token"); token != "" {
			return token, nil
		}
		return "", errNoToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", errBadAuthHeader
	}
	return token, nil
}

func deny(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}

// Protected resolves the access token to an active user and stores it in
// Locals("user"). Services receive that user explicitly as the actor.
func Protected(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c)
		if err != nil {
			return deny(c, fiber.StatusUnauthorized, err.Error())
		}

		claims, err := utils.ParseJWTToken(raw)
		if err != nil || claims.TokenType != "access" {
			return deny(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
			return deny(c, fiber.StatusUnauthorized, "User not found")
		}
		switch {
		case !user.IsActive:
			return deny(c, fiber.StatusForbidden, "Account is not active")
		case claims.TokenVersion != user.TokenVersion:
			// logout and password changes bump the version
			return deny(c, fiber.StatusUnauthorized, "Token has been revoked")
		}

		c.Locals("user", &user)
		c.Locals("sessionID", claims.SessionID)
		return c.Next()
	}
}
