package controller

import (
	"devsync/services"
	"devsync/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type DashboardController struct {
	Dashboard *services.DashboardService
	Logger    *logrus.Entry
}

func NewDashboardController(dashboard *services.DashboardService, logger *logrus.Entry) *DashboardController {
	return &DashboardController{Dashboard: dashboard, Logger: logger}
}

func (dc *DashboardController) GetDashboard(c *fiber.Ctx) error {
	dashboard, err := dc.Dashboard.Get(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, dc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(dashboard))
}

// GetActivity pages through the actor's feed, 20 entries at a time.
func (dc *DashboardController) GetActivity(c *fiber.Ctx) error {
	page, err := dc.Dashboard.Activity(c.UserContext(), currentUser(c), c.QueryInt("page", 1))
	if err != nil {
		return respondError(c, dc.Logger, err)
	}
	return c.JSON(page)
}
