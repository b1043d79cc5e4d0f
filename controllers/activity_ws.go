package controller

import (
	"devsync/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type ActivityStreamController struct {
	Projects *services.ProjectService
	Hub      *services.ActivityHub
	Logger   *logrus.Entry
}

func NewActivityStreamController(projects *services.ProjectService, hub *services.ActivityHub, logger *logrus.Entry) *ActivityStreamController {
	return &ActivityStreamController{Projects: projects, Hub: hub, Logger: logger}
}

// Upgrade admits websocket requests from users who can view the project.
func (ac *ActivityStreamController) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	if _, err := ac.Projects.View(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, ac.Logger, err)
	}
	c.Locals("projectID", id)
	return c.Next()
}

// Stream pushes each new activity entry of the project to the socket.
func (ac *ActivityStreamController) Stream(c *websocket.Conn) {
	defer c.Close()

	projectID := c.Locals("projectID").(uint)
	entries, cancel := ac.Hub.Subscribe(projectID)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if err := c.WriteJSON(entry); err != nil {
				ac.Logger.WithError(err).WithField("project_id", projectID).Debug("Activity stream write failed")
				return
			}
		}
	}
}
