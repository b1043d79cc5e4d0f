package controller

import (
	"devsync/services"
	"devsync/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ProfileController struct {
	Profiles *services.ProfileService
	Logger   *logrus.Entry
}

func NewProfileController(profiles *services.ProfileService, logger *logrus.Entry) *ProfileController {
	return &ProfileController{Profiles: profiles, Logger: logger}
}

func (pc *ProfileController) GetProfile(c *fiber.Ctx) error {
	profile, err := pc.Profiles.Get(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, pc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(profile))
}

func (pc *ProfileController) UpdateProfile(c *fiber.Ctx) error {
	var req services.UpdateProfileInput
	if err := bind(c, &req); err != nil {
		return respondError(c, pc.Logger, err)
	}
	user, err := pc.Profiles.Update(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondError(c, pc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(user))
}
