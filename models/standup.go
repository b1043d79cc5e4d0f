package models

import (
	"time"

	"gorm.io/gorm"
)

// Standup is one developer's daily report; at most one per developer per date.
type Standup struct {
	Model
	DeveloperID   uint      `gorm:"not null;uniqueIndex:idx_standups_developer_date" json:"developer_id"`
	ProjectID     uint      `gorm:"not null;index" json:"project_id"`
	Date          time.Time `gorm:"type:date;not null;uniqueIndex:idx_standups_developer_date" json:"date"`
	YesterdayWork string    `gorm:"type:text;not null" json:"yesterday_work"`
	TodayPlan     string    `gorm:"type:text;not null" json:"today_plan"`
	Blockers      string    `gorm:"type:text" json:"blockers"`
	Mood          Mood      `gorm:"size:20;not null;default:good" json:"mood"`
	AISummary     string    `gorm:"type:text" json:"ai_summary"`

	// Relations
	Developer *User    `gorm:"constraint:OnDelete:CASCADE" json:"developer,omitempty"`
	Project   *Project `gorm:"constraint:OnDelete:CASCADE" json:"project,omitempty"`
}

func (s *Standup) BeforeSave(tx *gorm.DB) error {
	if s.Mood == "" {
		s.Mood = MoodGood
	}
	s.Date = DateOnly(s.Date)
	return checkEnum("mood", s.Mood, moods)
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
