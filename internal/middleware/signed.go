package middleware

import (
	"strconv"

	"parley/internal/auth"
	"parley/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AuthContextKey is the Fiber local under which the parsed auth tuple is
// stored for handlers.
const AuthContextKey = "authContext"

// SignedRequest extracts the four authentication fields (ts, nonce,
// uid_hash, sig) from the query string and stores them in locals. The
// signature itself is verified by the handler once it has parsed the
// business params the canonical string is built from.
func SignedRequest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tsRaw := c.Query("ts")
		nonce := c.Query("nonce")
		uidHash := c.Query("uid_hash")
		sig := c.Query("sig")

		if tsRaw == "" || nonce == "" || uidHash == "" || sig == "" {
			return c.Status(fiber.StatusUnauthorized).
				JSON(models.Fail(models.NewInvalidError("missing authentication parameters")))
		}

		ts, err := strconv.ParseInt(tsRaw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).
				JSON(models.Fail(models.NewInvalidError("malformed timestamp")))
		}

		c.Locals(AuthContextKey, auth.AuthContext{
			Timestamp: ts,
			Nonce:     nonce,
			UIDHash:   uidHash,
			Signature: sig,
		})
		return c.Next()
	}
}
