package server

import (
	"github.com/gofiber/fiber/v2"

	"parley/internal/models"
	"parley/internal/notifications"
	"parley/internal/service"
)

// AddReactionRequest is the body of POST /api/reactions.
type AddReactionRequest struct {
	ResourceType   int16  `json:"resource_type"`
	ResourceID     uint   `json:"resource_id"`
	ReactorID      uint   `json:"reactor_id"`
	ReactionType   int16  `json:"reaction_type"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (r AddReactionRequest) canonicalParams() map[string]string {
	return map[string]string{
		"resource_type":   int16Field(r.ResourceType),
		"resource_id":     uintField(r.ResourceID),
		"reactor_id":      uintField(r.ReactorID),
		"reaction_type":   int16Field(r.ReactionType),
		"idempotency_key": r.IdempotencyKey,
	}
}

// AddReaction handles POST /api/reactions
func (s *Server) AddReaction(c *fiber.Ctx) error {
	var req AddReactionRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}
	if err := s.verifySigned(c, req.canonicalParams()); err != nil {
		return respondError(c, err)
	}

	reaction, err := s.reactionService.AddReaction(c.UserContext(), service.AddReactionInput{
		ResourceType:   req.ResourceType,
		ResourceID:     req.ResourceID,
		ReactorID:      req.ReactorID,
		ReactionType:   req.ReactionType,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishEvent(c, notifications.EventReactionAdded, map[string]interface{}{
		"reaction_id":   reaction.ID,
		"resource_type": reaction.ResourceType,
		"resource_id":   reaction.ResourceID,
		"reactor_id":    reaction.ReactorID,
	})
	return respondOK(c, reaction)
}
