package server

import (
	"github.com/gofiber/fiber/v2"

	"parley/internal/models"
	"parley/internal/notifications"
	"parley/internal/service"
)

// CreateCommentRequest is the body of POST /api/comments.
type CreateCommentRequest struct {
	PostID         uint   `json:"post_id"`
	AuthorID       uint   `json:"author_id"`
	Content        string `json:"content"`
	ParentID       *uint  `json:"parent_comment_id"`
	AtUserID       *uint  `json:"at_user_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

// canonicalParams rebuilds the map the client signed. Optional fields are
// included only when present, matching the client side.
func (r CreateCommentRequest) canonicalParams() map[string]string {
	params := map[string]string{
		"post_id":         uintField(r.PostID),
		"author_id":       uintField(r.AuthorID),
		"content":         r.Content,
		"idempotency_key": r.IdempotencyKey,
	}
	if r.ParentID != nil {
		params["parent_comment_id"] = uintField(*r.ParentID)
	}
	if r.AtUserID != nil {
		params["at_user_id"] = uintField(*r.AtUserID)
	}
	return params
}

// CreateComment handles POST /api/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}
	if err := s.verifySigned(c, req.canonicalParams()); err != nil {
		return respondError(c, err)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		PostID:         req.PostID,
		AuthorID:       req.AuthorID,
		Content:        req.Content,
		ParentID:       req.ParentID,
		AtUserID:       req.AtUserID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishEvent(c, notifications.EventCommentCreated, map[string]interface{}{
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"author_id":  comment.AuthorID,
	})
	return respondOK(c, comment)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, comments)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := s.verifySigned(c, map[string]string{"comment_id": uintField(commentID)}); err != nil {
		return respondError(c, err)
	}

	if err := s.commentService.DeleteComment(c.UserContext(), commentID); err != nil {
		return respondError(c, err)
	}

	s.publishEvent(c, notifications.EventCommentDeleted, map[string]interface{}{
		"comment_id": commentID,
	})
	return respondOK(c, fiber.Map{"deleted": true})
}
