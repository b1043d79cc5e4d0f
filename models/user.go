package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User represents a user account in the system
type User struct {
	gorm.Model

	// Authentication fields
	Username     string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	TokenVersion int    `gorm:"default:0" json:"-"`

	// Profile information
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// Relations
	Profile *DeveloperProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// DisplayName returns "First Last", falling back to the username.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// DeveloperProfile holds per-user working preferences and the latest mood.
type DeveloperProfile struct {
	Model
	UserID            uint                        `gorm:"not null;uniqueIndex" json:"user_id"`
	Bio               string                      `gorm:"type:text" json:"bio"`
	GithubUsername    string                      `gorm:"size:100" json:"github_username"`
	Skills            datatypes.JSONSlice[string] `json:"skills"`
	CurrentVibe       Mood                        `gorm:"size:20;not null;default:good" json:"current_vibe"`
	LastVibeUpdate    time.Time                   `json:"last_vibe_update"`
	ProductivityScore float64                     `gorm:"default:0" json:"productivity_score"`
}

func (p *DeveloperProfile) BeforeSave(tx *gorm.DB) error {
	if p.CurrentVibe == "" {
		p.CurrentVibe = MoodGood
	}
	if p.Skills == nil {
		p.Skills = datatypes.JSONSlice[string]{}
	}
	if p.LastVibeUpdate.IsZero() {
		p.LastVibeUpdate = time.Now()
	}
	return checkEnum("mood", p.CurrentVibe, moods)
}
