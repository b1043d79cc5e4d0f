package controller

import (
	"context"

	"devsync/models"
	"devsync/services"
	"devsync/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ProjectController struct {
	Projects *services.ProjectService
	Tasks    *services.TaskService
	Logger   *logrus.Entry
}

func NewProjectController(projects *services.ProjectService, tasks *services.TaskService, logger *logrus.Entry) *ProjectController {
	return &ProjectController{Projects: projects, Tasks: tasks, Logger: logger}
}

func (pc *ProjectController) ListProjects(c *fiber.Ctx) error {
	projects, err := pc.Projects.List(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, pc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(projects))
}

func (pc *ProjectController) CreateProject(c *fiber.Ctx) error {
	var req services.CreateProjectInput
	if err := bind(c, &req); err != nil {
		return respondError(c, pc.Logger, err)
	}
	project, err := pc.Projects.Create(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondError(c, pc.Logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(project))
}

// withProject resolves :id and runs fn, answering with its result.
func (pc *ProjectController) withProject(c *fiber.Ctx, fn func(ctx context.Context, actor *models.User, id uint) (interface{}, error)) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, pc.Logger, err)
	}
	result, err := fn(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, pc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(result))
}

func (pc *ProjectController) GetProject(c *fiber.Ctx) error {
	return pc.withProject(c, func(ctx context.Context, actor *models.User, id uint) (interface{}, error) {
		return pc.Projects.Get(ctx, actor, id)
	})
}

func (pc *ProjectController) UpdateProject(c *fiber.Ctx) error {
	var req services.UpdateProjectInput
	if err := bind(c, &req); err != nil {
		return respondError(c, pc.Logger, err)
	}
	return pc.withProject(c, func(ctx context.Context, actor *models.User, id uint) (interface{}, error) {
		return pc.Projects.Update(ctx, actor, id, req)
	})
}

func (pc *ProjectController) ArchiveProject(c *fiber.Ctx) error {
	return pc.withProject(c, func(ctx context.Context, actor *models.User, id uint) (interface{}, error) {
		return pc.Projects.Archive(ctx, actor, id)
	})
}

func (pc *ProjectController) CompleteProject(c *fiber.Ctx) error {
	return pc.withProject(c, func(ctx context.Context, actor *models.User, id uint) (interface{}, error) {
		return pc.Projects.Complete(ctx, actor, id)
	})
}

func (pc *ProjectController) ReactivateProject(c *fiber.Ctx) error {
	return pc.withProject(c, func(ctx context.Context, actor *models.User, id uint) (interface{}, error) {
		return pc.Projects.Reactivate(ctx, actor, id)
	})
}

func (pc *ProjectController) AddMember(c *fiber.Ctx) error {
	var req services.AddProjectMemberInput
	if err := bind(c, &req); err != nil {
		return respondError(c, pc.Logger, err)
	}
	return pc.withProject(c, func(ctx context.Context, actor *models.User, id uint) (interface{}, error) {
		return pc.Projects.AddMember(ctx, actor, id, req)
	})
}

func (pc *ProjectController) RemoveMember(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, pc.Logger, err)
	}
	userID, err := idParam(c, "userId")
	if err != nil {
		return respondError(c, pc.Logger, err)
	}
	if err := pc.Projects.RemoveMember(c.UserContext(), currentUser(c), id, userID); err != nil {
		return respondError(c, pc.Logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (pc *ProjectController) GetBoard(c *fiber.Ctx) error {
	return pc.withProject(c, func(ctx context.Context, actor *models.User, id uint) (interface{}, error) {
		return pc.Projects.Board(ctx, actor, id)
	})
}

func (pc *ProjectController) GetInbox(c *fiber.Ctx) error {
	return pc.withProject(c, func(ctx context.Context, actor *models.User, id uint) (interface{}, error) {
		return pc.Projects.Inbox(ctx, actor, id)
	})
}

func (pc *ProjectController) GetInsights(c *fiber.Ctx) error {
	return pc.withProject(c, func(ctx context.Context, actor *models.User, id uint) (interface{}, error) {
		return pc.Projects.Insights(ctx, actor, id)
	})
}

func (pc *ProjectController) ListTasks(c *fiber.Ctx) error {
	return pc.withProject(c, func(ctx context.Context, actor *models.User, id uint) (interface{}, error) {
		return pc.Tasks.ForProject(ctx, actor, id)
	})
}

func (pc *ProjectController) PlanFeature(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, pc.Logger, err)
	}
	var req services.FeaturePlanInput
	if err := bind(c, &req); err != nil {
		return respondError(c, pc.Logger, err)
	}
	plan, err := pc.Projects.PlanFeature(c.UserContext(), currentUser(c), id, req)
	if err != nil {
		return respondError(c, pc.Logger, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"status":  services.AIStatusProcessing,
		"data":    plan,
	})
}

func (pc *ProjectController) ListFeaturePlans(c *fiber.Ctx) error {
	return pc.withProject(c, func(ctx context.Context, actor *models.User, id uint) (interface{}, error) {
		return pc.Projects.FeaturePlans(ctx, actor, id)
	})
}
