// Package services holds the DevSync workflows. Every operation takes the
// acting user explicitly, checks permissions before writing, and records one
// activity entry after a successful commit.
package services

import (
	"context"
	"fmt"
	"time"

	"devsync/models"
	"devsync/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dispatcher hands an entity id to the background AI summarizer.
type Dispatcher interface {
	Enqueue(ctx context.Context, kind models.AIJobKind, id uint) error
}

// Deps are the collaborators shared by every service.
type Deps struct {
	DB         *gorm.DB
	Logger     *logrus.Logger
	Mailer     utils.Mailer
	Dispatcher Dispatcher
	Hub        *ActivityHub
	BaseURL    string
}

type Services struct {
	Activity  *ActivityLogger
	Auth      *AuthService
	Teams     *TeamService
	Projects  *ProjectService
	Tasks     *TaskService
	Reviews   *ReviewService
	Standups  *StandupService
	Profiles  *ProfileService
	Dashboard *DashboardService
}

func New(d Deps) *Services {
	if d.Hub == nil {
		d.Hub = NewActivityHub()
	}
	if d.Mailer == nil {
		d.Mailer = utils.LogMailer{Log: utils.Component(d.Logger, "mailer")}
	}
	if d.Dispatcher == nil {
		d.Dispatcher = noopDispatcher{}
	}
	activity := NewActivityLogger(d.DB, d.Hub, utils.Component(d.Logger, "activity"))
	return &Services{
		Activity:  activity,
		Auth:      NewAuthService(d.DB, utils.Component(d.Logger, "auth")),
		Teams:     NewTeamService(d.DB, activity, d.Mailer, d.Dispatcher, d.BaseURL, utils.Component(d.Logger, "teams")),
		Projects:  NewProjectService(d.DB, activity, d.Dispatcher, utils.Component(d.Logger, "projects")),
		Tasks:     NewTaskService(d.DB, activity, utils.Component(d.Logger, "tasks")),
		Reviews:   NewReviewService(d.DB, activity, d.Dispatcher, utils.Component(d.Logger, "reviews")),
		Standups:  NewStandupService(d.DB, activity, d.Dispatcher, utils.Component(d.Logger, "standups")),
		Profiles:  NewProfileService(d.DB, utils.Component(d.Logger, "profiles")),
		Dashboard: NewDashboardService(d.DB, utils.Component(d.Logger, "dashboard")),
	}
}

type noopDispatcher struct{}

func (noopDispatcher) Enqueue(context.Context, models.AIJobKind, uint) error { return nil }

func findByID[T any](db *gorm.DB, id uint) (*T, error) {
	var v T
	if err := db.First(&v, id).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	return &v, nil
}

func loadProject(db *gorm.DB, id uint) (*models.Project, error) {
	return findByID[models.Project](db, id)
}

type projectCheck func(p *models.Project, db *gorm.DB, user *models.User) (bool, error)

func require(db *gorm.DB, p *models.Project, user *models.User, check projectCheck, what string) error {
	ok, err := check(p, db, user)
	if err != nil {
		return models.TranslateError(err)
	}
	if !ok {
		return fmt.Errorf("%w: you do not have permission to %s this project", models.ErrPermissionDenied, what)
	}
	return nil
}

func requireView(db *gorm.DB, p *models.Project, user *models.User) error {
	return require(db, p, user, (*models.Project).CanUserView, "view")
}

func requireEdit(db *gorm.DB, p *models.Project, user *models.User) error {
	return require(db, p, user, (*models.Project).CanUserEdit, "edit")
}

// parseDate accepts YYYY-MM-DD for field; empty input yields nil.
func parseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, &models.FieldError{Field: field, Message: "must be a date in the form YYYY-MM-DD", Err: err}
	}
	return &t, nil
}

// enqueue dispatches a job. Failures are logged and the entity stays "processing".
func enqueue(ctx context.Context, d Dispatcher, log *logrus.Entry, kind models.AIJobKind, id uint) {
	if err := d.Enqueue(ctx, kind, id); err != nil {
		utils.AIJobs.WithLabelValues(string(kind), "enqueue_failed").Inc()
		utils.CaptureError(log, "ai_enqueue", err, map[string]interface{}{"kind": string(kind), "id": id})
		return
	}
	utils.AIJobs.WithLabelValues(string(kind), "enqueued").Inc()
}
