package middlewares

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// HeaderAuthorization bearer token header
	HeaderAuthorization = "Authorization"

	// LocalUserID verified user id, set on c.Locals
	LocalUserID = "UserID"
)

// VerifyFunc checks a token with the identity service and returns the id of
// the user it belongs to.
type VerifyFunc func(ctx context.Context, token string) (string, error)

// Auth validates the bearer token of every request through the auth service
func Auth(verify VerifyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Get(HeaderAuthorization)
		tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
			})
		}

		userID, err := verify(c.Context(), tokenStr)
		if err != nil || userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(LocalUserID, userID)
		return c.Next()
	}
}
