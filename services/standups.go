package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"devsync/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type StandupService struct {
	db         *gorm.DB
	activity   *ActivityLogger
	dispatcher Dispatcher
	log        *logrus.Entry

	Now func() time.Time
}

func NewStandupService(db *gorm.DB, activity *ActivityLogger, dispatcher Dispatcher, log *logrus.Entry) *StandupService {
	return &StandupService{db: db, activity: activity, dispatcher: dispatcher, log: log, Now: time.Now}
}

type SubmitStandupInput struct {
	ProjectID     uint   `json:"project_id" validate:"required"`
	Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	YesterdayWork string `json:"yesterday_work" validate:"required"`
	TodayPlan     string `json:"today_plan" validate:"required"`
	Blockers      string `json:"blockers"`
	Mood          string `json:"mood"`
}

// Submit records the actor's standup for the date and queues its summary.
// A second standup for the same date is a conflict.
func (s *StandupService) Submit(ctx context.Context, actor *models.User, in SubmitStandupInput) (*models.Standup, error) {
	db := s.db.WithContext(ctx)
	project, err := loadProject(db, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireView(db, project, actor); err != nil {
		return nil, err
	}

	date := models.DateOnly(s.Now())
	if in.Date != "" {
		d, err := parseDate("date", in.Date)
		if err != nil {
			return nil, err
		}
		date = *d
	}
	mood := models.MoodGood
	if in.Mood != "" {
		if mood, err = models.ParseMood(in.Mood); err != nil {
			return nil, err
		}
	}

	standup := &models.Standup{
		DeveloperID:   actor.ID,
		ProjectID:     project.ID,
		Date:          date,
		YesterdayWork: strings.TrimSpace(in.YesterdayWork),
		TodayPlan:     strings.TrimSpace(in.TodayPlan),
		Blockers:      strings.TrimSpace(in.Blockers),
		Mood:          mood,
	}
	if err := db.Create(standup).Error; err != nil {
		if _, dup := models.UniqueViolation(err); dup {
			return nil, fmt.Errorf("%w: standup already submitted for %s", models.ErrConflict, date.Format(time.DateOnly))
		}
		return nil, models.TranslateError(err)
	}

	s.activity.Record(ctx, actor, projectActivity(models.ActionSubmittedStandup, project, date.Format(time.DateOnly)))
	enqueue(ctx, s.dispatcher, s.log, models.AIJobStandupSummary, standup.ID)
	return standup, nil
}

// Mine lists the actor's standups, newest first.
func (s *StandupService) Mine(ctx context.Context, actor *models.User) ([]models.Standup, error) {
	var standups []models.Standup
	err := s.db.WithContext(ctx).
		Preload("Project").
		Where("developer_id = ?", actor.ID).
		Order("date DESC").
		Find(&standups).Error
	return standups, models.TranslateError(err)
}

func (s *StandupService) own(ctx context.Context, actor *models.User, id uint) (*models.Standup, error) {
	standup, err := findByID[models.Standup](s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if standup.DeveloperID != actor.ID {
		return nil, fmt.Errorf("%w: this standup belongs to another developer", models.ErrPermissionDenied)
	}
	return standup, nil
}

// RegenerateSummary clears the summary and queues a new job.
func (s *StandupService) RegenerateSummary(ctx context.Context, actor *models.User, id uint) error {
	standup, err := s.own(ctx, actor, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&models.Standup{}).Where("id = ?", standup.ID).
		Session(&gorm.Session{SkipHooks: true}).
		Update("ai_summary", "").Error
	if err != nil {
		return models.TranslateError(err)
	}
	enqueue(ctx, s.dispatcher, s.log, models.AIJobStandupSummary, standup.ID)
	return nil
}
