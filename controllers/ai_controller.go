package controller

import (
	"devsync/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AIController answers polls for background summaries.
type AIController struct {
	Services *services.Services
	Logger   *logrus.Entry
}

func NewAIController(svc *services.Services, logger *logrus.Entry) *AIController {
	return &AIController{Services: svc, Logger: logger}
}

// GetStatus serves GET /ai/:kind/:id/status.
func (ac *AIController) GetStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	result, err := ac.Services.AIStatus(c.UserContext(), currentUser(c), c.Params("kind"), id)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return c.JSON(result)
}
