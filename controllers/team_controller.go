package controller

import (
	"devsync/services"
	"devsync/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type TeamController struct {
	Teams  *services.TeamService
	Logger *logrus.Entry
}

func NewTeamController(teams *services.TeamService, logger *logrus.Entry) *TeamController {
	return &TeamController{Teams: teams, Logger: logger}
}

type InviteRequest struct {
	Emails string `json:"emails" validate:"required"`
}

type JoinRequest struct {
	InviteCode string `json:"invite_code" validate:"required,invitecode"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (tc *TeamController) ListTeams(c *fiber.Ctx) error {
	teams, err := tc.Teams.List(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(teams))
}

func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	var req services.CreateTeamInput
	if err := bind(c, &req); err != nil {
		return respondError(c, tc.Logger, err)
	}
	team, err := tc.Teams.Create(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(team))
}

func (tc *TeamController) GetTeam(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	detail, err := tc.Teams.Get(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(detail))
}

func (tc *TeamController) UpdateTeam(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	var req services.UpdateTeamInput
	if err := bind(c, &req); err != nil {
		return respondError(c, tc.Logger, err)
	}
	team, err := tc.Teams.Update(c.UserContext(), currentUser(c), id, req)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(team))
}

func (tc *TeamController) DeleteTeam(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	if err := tc.Teams.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (tc *TeamController) ListMembers(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	members, err := tc.Teams.Members(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(members))
}

func (tc *TeamController) AddMember(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	var req services.AddMemberInput
	if err := bind(c, &req); err != nil {
		return respondError(c, tc.Logger, err)
	}
	member, err := tc.Teams.AddMember(c.UserContext(), currentUser(c), id, req)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(member))
}

func (tc *TeamController) RemoveMember(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	userID, err := idParam(c, "userId")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	if err := tc.Teams.RemoveMember(c.UserContext(), currentUser(c), id, userID); err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (tc *TeamController) InviteMembers(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	var req InviteRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, tc.Logger, err)
	}
	report, err := tc.Teams.Invite(c.UserContext(), currentUser(c), id, utils.SplitEmails(req.Emails))
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(report))
}

func (tc *TeamController) PendingInvites(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	invites, err := tc.Teams.PendingInvites(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(invites))
}

func (tc *TeamController) JoinTeam(c *fiber.Ctx) error {
	var req JoinRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, tc.Logger, err)
	}
	team, err := tc.Teams.Join(c.UserContext(), currentUser(c), req.InviteCode)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(team))
}

func (tc *TeamController) UpdateStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, tc.Logger, err)
	}
	member, err := tc.Teams.UpdateStatus(c.UserContext(), currentUser(c), id, req.Status)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(member))
}

// AnalyzeVibe queues a team vibe analysis; poll /ai/team-vibe/:id/status.
func (tc *TeamController) AnalyzeVibe(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	if err := tc.Teams.AnalyzeVibe(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"success": true, "status": services.AIStatusProcessing})
}
