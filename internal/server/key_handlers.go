package server

import (
	"github.com/gofiber/fiber/v2"

	"parley/internal/models"
)

// GenerateTempKeyRequest is the body of POST /api/keys/temp/generate.
type GenerateTempKeyRequest struct {
	Subject  uint   `json:"subject"`
	KeyType  string `json:"key_type"`
	Metadata string `json:"metadata"`
}

func (r GenerateTempKeyRequest) canonicalParams() map[string]string {
	params := map[string]string{
		"subject":  uintField(r.Subject),
		"key_type": r.KeyType,
	}
	if r.Metadata != "" {
		params["metadata"] = r.Metadata
	}
	return params
}

// GenerateTempKey handles POST /api/keys/temp/generate
func (s *Server) GenerateTempKey(c *fiber.Ctx) error {
	var req GenerateTempKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}
	if req.Subject == 0 {
		return respondError(c, models.NewValidationError("Subject is required"))
	}
	if err := s.verifySigned(c, req.canonicalParams()); err != nil {
		return respondError(c, err)
	}

	issued, err := s.keyVault.GenerateTempKey(c.UserContext(), req.Subject, req.KeyType, req.Metadata)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, issued)
}

// ValidateTempKeyRequest is the body of POST /api/keys/temp/validate.
type ValidateTempKeyRequest struct {
	KeyValue string `json:"key_value"`
	Subject  uint   `json:"subject"`
}

// ValidateTempKey handles POST /api/keys/temp/validate
func (s *Server) ValidateTempKey(c *fiber.Ctx) error {
	var req ValidateTempKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}
	if req.KeyValue == "" {
		return respondError(c, models.NewValidationError("Key value is required"))
	}
	params := map[string]string{
		"key_value": req.KeyValue,
		"subject":   uintField(req.Subject),
	}
	if err := s.verifySigned(c, params); err != nil {
		return respondError(c, err)
	}

	key, err := s.keyVault.ValidateTempKey(c.UserContext(), req.KeyValue, req.Subject)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{
		"valid":    true,
		"subject":  key.Subject,
		"key_type": key.KeyType,
		"metadata": key.Metadata,
	})
}

// GenerateWsKeyRequest is the body of POST /api/keys/ws/generate.
type GenerateWsKeyRequest struct {
	ConversationID uint `json:"conversation_id"`
}

// GenerateWsKey handles POST /api/keys/ws/generate
func (s *Server) GenerateWsKey(c *fiber.Ctx) error {
	var req GenerateWsKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}
	if req.ConversationID == 0 {
		return respondError(c, models.NewValidationError("Conversation ID is required"))
	}
	params := map[string]string{"conversation_id": uintField(req.ConversationID)}
	if err := s.verifySigned(c, params); err != nil {
		return respondError(c, err)
	}

	key, err := s.keyVault.GenerateWsKey(c.UserContext(), req.ConversationID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{
		"conversation_id": req.ConversationID,
		"key":             key,
	})
}
