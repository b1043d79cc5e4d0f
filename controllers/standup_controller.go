package controller

import (
	"devsync/services"
	"devsync/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type StandupController struct {
	Standups *services.StandupService
	Logger   *logrus.Entry
}

func NewStandupController(standups *services.StandupService, logger *logrus.Entry) *StandupController {
	return &StandupController{Standups: standups, Logger: logger}
}

func (sc *StandupController) MyStandups(c *fiber.Ctx) error {
	standups, err := sc.Standups.Mine(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, sc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(standups))
}

func (sc *StandupController) SubmitStandup(c *fiber.Ctx) error {
	var req services.SubmitStandupInput
	if err := bind(c, &req); err != nil {
		return respondError(c, sc.Logger, err)
	}
	standup, err := sc.Standups.Submit(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondError(c, sc.Logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(standup))
}

func (sc *StandupController) RegenerateSummary(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, sc.Logger, err)
	}
	if err := sc.Standups.RegenerateSummary(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, sc.Logger, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"success": true, "status": services.AIStatusProcessing})
}
