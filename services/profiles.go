package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"devsync/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ProfileService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewProfileService(db *gorm.DB, log *logrus.Entry) *ProfileService {
	return &ProfileService{db: db, log: log}
}

type UpdateProfileInput struct {
	Username       *string  `json:"username" validate:"omitempty,min=3,max=150"`
	Email          *string  `json:"email" validate:"omitempty,email"`
	FirstName      *string  `json:"first_name" validate:"omitempty,max=150"`
	LastName       *string  `json:"last_name" validate:"omitempty,max=150"`
	Bio            *string  `json:"bio"`
	GithubUsername *string  `json:"github_username" validate:"omitempty,max=100"`
	CurrentVibe    *string  `json:"current_vibe"`
	Skills         []string `json:"skills"`
}

// Get returns the actor's profile, creating it on first access.
func (s *ProfileService) Get(ctx context.Context, actor *models.User) (*models.DeveloperProfile, error) {
	return s.getOrCreate(s.db.WithContext(ctx), actor)
}

func (s *ProfileService) getOrCreate(db *gorm.DB, actor *models.User) (*models.DeveloperProfile, error) {
	var profile models.DeveloperProfile
	err := db.Where("user_id = ?", actor.ID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.DeveloperProfile{UserID: actor.ID}
		err = db.Create(&profile).Error
	}
	if err != nil {
		return nil, models.TranslateError(err)
	}
	return &profile, nil
}

// Update writes the user fields and the profile fields together.
func (s *ProfileService) Update(ctx context.Context, actor *models.User, in UpdateProfileInput) (*models.User, error) {
	var vibe models.Mood
	if in.CurrentVibe != nil {
		v, err := models.ParseMood(*in.CurrentVibe)
		if err != nil {
			return nil, err
		}
		vibe = v
	}

	user := *actor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userUpdates := map[string]interface{}{}
		if in.Username != nil {
			userUpdates["username"] = strings.TrimSpace(*in.Username)
		}
		if in.Email != nil {
			userUpdates["email"] = strings.TrimSpace(*in.Email)
		}
		if in.FirstName != nil {
			userUpdates["first_name"] = *in.FirstName
		}
		if in.LastName != nil {
			userUpdates["last_name"] = *in.LastName
		}
		if len(userUpdates) > 0 {
			if err := tx.Model(&user).Omit("Profile").Updates(userUpdates).Error; err != nil {
				return err
			}
		}

		profile, err := s.getOrCreate(tx, &user)
		if err != nil {
			return err
		}
		if in.Bio != nil {
			profile.Bio = *in.Bio
		}
		if in.GithubUsername != nil {
			profile.GithubUsername = strings.TrimSpace(*in.GithubUsername)
		}
		if in.Skills != nil {
			profile.Skills = in.Skills
		}
		if vibe != "" && vibe != profile.CurrentVibe {
			profile.CurrentVibe = vibe
			profile.LastVibeUpdate = time.Now()
		}
		if err := tx.Save(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, userWriteError(err)
	}
	return &user, nil
}
