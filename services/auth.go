package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devsync/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewAuthService(db *gorm.DB, log *logrus.Entry) *AuthService {
	return &AuthService{db: db, log: log}
}

type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func userWriteError(err error) error {
	constraint, ok := models.UniqueViolation(err)
	if !ok {
		return models.TranslateError(err)
	}
	switch {
	case strings.Contains(constraint, "email"):
		return &models.FieldError{Field: "email", Message: "A user with this email already exists.", Err: models.ErrConflict}
	case strings.Contains(constraint, "username"):
		return &models.FieldError{Field: "username", Message: "A user with this username already exists.", Err: models.ErrConflict}
	}
	return models.TranslateError(err)
}

// Register creates the user together with an empty developer profile.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return err
		}
		profile := &models.DeveloperProfile{UserID: user.ID}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, userWriteError(err)
	}
	s.log.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// Authenticate accepts a username or email with the password.
func (s *AuthService) Authenticate(ctx context.Context, in LoginInput) (*models.User, error) {
	var user models.User
	login := strings.TrimSpace(in.Username)
	err := s.db.WithContext(ctx).Where("username = ? OR email = ?", login, login).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, models.TranslateError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is not active", models.ErrPermissionDenied)
	}
	return &user, nil
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword replaces the password and revokes every issued token.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, in ChangePasswordInput) error {
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return &models.FieldError{Field: "current_password", Message: "Invalid current password"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.bumpTokenVersion(ctx, user, map[string]interface{}{"password_hash": string(hash)})
}

// Logout revokes every token issued to the user.
func (s *AuthService) Logout(ctx context.Context, user *models.User) error {
	return s.bumpTokenVersion(ctx, user, map[string]interface{}{})
}

func (s *AuthService) bumpTokenVersion(ctx context.Context, user *models.User, updates map[string]interface{}) error {
	updates["token_version"] = gorm.Expr("token_version + 1")
	if err := s.db.WithContext(ctx).Model(user).Omit("Profile").Updates(updates).Error; err != nil {
		return models.TranslateError(err)
	}
	return nil
}
