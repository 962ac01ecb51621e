package server

import (
	"github.com/gofiber/fiber/v2"

	"parley/internal/notifications"
)

// GetPostStatus handles GET /api/posts/:id/status
func (s *Server) GetPostStatus(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	status, err := s.postService.Status(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, status)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := s.verifySigned(c, map[string]string{"post_id": uintField(postID)}); err != nil {
		return respondError(c, err)
	}

	if err := s.postService.DeletePost(c.UserContext(), postID); err != nil {
		return respondError(c, err)
	}

	s.publishEvent(c, notifications.EventPostDeleted, map[string]interface{}{
		"post_id": postID,
	})
	return respondOK(c, fiber.Map{"deleted": true})
}
