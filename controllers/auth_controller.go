package controller

import (
	"devsync/models"
	"devsync/services"
	"devsync/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthController struct {
	DB     *gorm.DB
	Auth   *services.AuthService
	Logger *logrus.Entry
}

func NewAuthController(db *gorm.DB, auth *services.AuthService, logger *logrus.Entry) *AuthController {
	return &AuthController{DB: db, Auth: auth, Logger: logger}
}

func (ac *AuthController) issue(c *fiber.Ctx, status int, user *models.User) error {
	accessToken, refreshToken, err := utils.GenerateJWTToken(user)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return c.Status(status).JSON(AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return respondError(c, ac.Logger, err)
	}

	user, err := ac.Auth.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return ac.issue(c, fiber.StatusCreated, user)
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return respondError(c, ac.Logger, err)
	}

	user, err := ac.Auth.Authenticate(c.UserContext(), req)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return ac.issue(c, fiber.StatusOK, user)
}

func (ac *AuthController) RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	accessToken, refreshToken, err := utils.RefreshTokens(ac.DB.WithContext(c.UserContext()), req.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, err.Error(), nil)
	}
	return c.JSON(fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (ac *AuthController) Logout(c *fiber.Ctx) error {
	if err := ac.Auth.Logout(c.UserContext(), currentUser(c)); err != nil {
		return respondError(c, ac.Logger, err)
	}
	c.ClearCookie("access_token")
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	var req services.ChangePasswordInput
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return respondError(c, ac.Logger, err)
	}
	if err := ac.Auth.ChangePassword(c.UserContext(), currentUser(c), req); err != nil {
		return respondError(c, ac.Logger, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

func (ac *AuthController) GetCurrentUser(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}
