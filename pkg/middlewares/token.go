package middlewares

import (
	"github.com/gofiber/fiber/v2"
)

const (
	//TokenUsername requester identity resolved from the token, set c.locals name
	TokenUsername = "Username"
	//TokenAdmin admin flag from the token, set c.locals name
	TokenAdmin = "Admin"
)

// TokenValidator checks an Authorization header against the external auth service
type TokenValidator interface {
	Validate(authorization string) (username string, admin bool, err error)
}

// ValidateToken validates the bearer token before the handler runs.
// Token issuance and verification live in the auth service, this middleware
// only forwards the header and attaches the resolved identity to the context.
func ValidateToken(validator TokenValidator, requireAdmin bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return c.Status(fiber.StatusUnauthorized).JSON("not authorized")
		}

		username, admin, err := validator.Validate(authorization)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON("not authorized")
		}

		if requireAdmin && !admin {
			return c.Status(fiber.StatusUnauthorized).JSON("not authorized")
		}

		c.Locals(TokenUsername, username)
		c.Locals(TokenAdmin, admin)

		return c.Next()
	}
}
