package server

import (
	"strconv"

	"parley/internal/auth"
	"parley/internal/middleware"
	"parley/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondOK wraps data in the success envelope.
func respondOK(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(models.OK(data))
}

// respondError converts an error into the envelope shape. Every response,
// including failures, still goes out as HTTP with the envelope code
// mirroring the status.
func respondError(c *fiber.Ctx, err error) error {
	env := models.Fail(err)
	return c.Status(env.Code).JSON(env)
}

// parseID parses a path parameter into an ID.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("Invalid " + param)
	}
	return uint(id), nil
}

// verifySigned checks the request signature over the handler's business
// params. The auth tuple was extracted by middleware.SignedRequest.
func (s *Server) verifySigned(c *fiber.Ctx, params map[string]string) error {
	ac, ok := c.Locals(middleware.AuthContextKey).(auth.AuthContext)
	if !ok {
		return models.NewInvalidError("Missing request signature")
	}
	return s.authenticator.Verify(c.UserContext(), params, ac)
}

// uintField formats an ID for canonical-string maps.
func uintField(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

// int16Field formats an enum discriminant for canonical-string maps.
func int16Field(v int16) string {
	return strconv.FormatInt(int64(v), 10)
}
