package controller

import (
	"errors"
	"fmt"

	"devsync/models"
	"devsync/services"
	"devsync/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func currentUser(c *fiber.Ctx) *models.User {
	return c.Locals("user").(*models.User)
}

// idParam reads a positive numeric route parameter.
func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, &models.FieldError{Field: name, Message: fmt.Sprintf("invalid %s", name)}
	}
	return uint(id), nil
}

// bind parses and validates the request body into v.
func bind(c *fiber.Ctx, v interface{}) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return utils.ValidateStruct(v)
}

var badRequestErrors = []error{
	models.ErrCommentRequired,
	models.ErrInvalidInviteCode,
	models.ErrInviteNotFound,
	models.ErrInviteExpired,
	models.ErrNotTeamMember,
	models.ErrLeaderRemoval,
	models.ErrInvalidEnum,
}

// respondError maps a service error onto its HTTP status.
func respondError(c *fiber.Ctx, log *logrus.Entry, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return utils.ErrorResponse(c, fiberErr.Code, fiberErr.Message, nil)
	}

	var fieldErr *models.FieldError
	if errors.As(err, &fieldErr) && !errors.Is(err, models.ErrInvalidEnum) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error":   fieldErr.Message,
			"field":   fieldErr.Field,
		})
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Resource not found", nil)
	case errors.Is(err, models.ErrPermissionDenied):
		return utils.ErrorResponse(c, fiber.StatusForbidden, err.Error(), nil)
	case errors.Is(err, models.ErrAlreadyMember), errors.Is(err, models.ErrConflict):
		return utils.ErrorResponse(c, fiber.StatusConflict, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, err.Error(), nil)
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
		}
	}

	utils.CaptureError(log, "http_handler", err, map[string]interface{}{
		"method": c.Method(),
		"path":   c.Path(),
	})
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error", nil)
}
