package controller

import (
	"devsync/services"
	"devsync/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type TaskController struct {
	Tasks  *services.TaskService
	Logger *logrus.Entry
}

func NewTaskController(tasks *services.TaskService, logger *logrus.Entry) *TaskController {
	return &TaskController{Tasks: tasks, Logger: logger}
}

type AssignRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

func (tc *TaskController) MyTasks(c *fiber.Ctx) error {
	tasks, err := tc.Tasks.Mine(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(tasks))
}

func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	var req services.CreateTaskInput
	if err := bind(c, &req); err != nil {
		return respondError(c, tc.Logger, err)
	}
	task, err := tc.Tasks.Create(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(task))
}

func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	view, err := tc.Tasks.Get(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(view))
}

func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	var req services.UpdateTaskInput
	if err := bind(c, &req); err != nil {
		return respondError(c, tc.Logger, err)
	}
	task, err := tc.Tasks.Update(c.UserContext(), currentUser(c), id, req)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(task))
}

func (tc *TaskController) CompleteTask(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	task, err := tc.Tasks.Complete(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(task))
}

func (tc *TaskController) AssignTask(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	var req AssignRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, tc.Logger, err)
	}
	task, err := tc.Tasks.Assign(c.UserContext(), currentUser(c), id, req.UserID)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(task))
}
