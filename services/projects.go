package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"devsync/models"
	"devsync/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectService struct {
	db         *gorm.DB
	activity   *ActivityLogger
	dispatcher Dispatcher
	log        *logrus.Entry
}

func NewProjectService(db *gorm.DB, activity *ActivityLogger, dispatcher Dispatcher, log *logrus.Entry) *ProjectService {
	return &ProjectService{db: db, activity: activity, dispatcher: dispatcher, log: log}
}

type CreateProjectInput struct {
	TeamID      uint            `json:"team_id" validate:"required"`
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"required"`
	Type        string          `json:"project_type" validate:"required"`
	Status      string          `json:"status"`
	GithubURL   string          `json:"github_url" validate:"omitempty,url"`
	Tags        json.RawMessage `json:"tags"`
}

type UpdateProjectInput struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string         `json:"description"`
	Type        *string         `json:"project_type"`
	Status      *string         `json:"status"`
	GithubURL   *string         `json:"github_url" validate:"omitempty,url"`
	Tags        json.RawMessage `json:"tags"`
}

type FeaturePlanInput struct {
	Idea string `json:"idea" validate:"required"`
}

type AddProjectMemberInput struct {
	UserID uint   `json:"user_id" validate:"required"`
	Role   string `json:"role"`
}

// Create inserts the project and its board, insight tracker and review inbox
// in one transaction.
func (s *ProjectService) Create(ctx context.Context, actor *models.User, in CreateProjectInput) (*models.Project, error) {
	db := s.db.WithContext(ctx)
	team, err := findByID[models.Team](db, in.TeamID)
	if err != nil {
		return nil, err
	}
	member, err := team.IsMember(db, actor.ID)
	if err != nil {
		return nil, models.TranslateError(err)
	}
	if !member {
		return nil, fmt.Errorf("%w: you are not a member of this team", models.ErrPermissionDenied)
	}

	projectType, err := models.ParseProjectType(in.Type)
	if err != nil {
		return nil, err
	}
	status := models.ProjectActive
	if in.Status != "" {
		if status, err = models.ParseProjectStatus(in.Status); err != nil {
			return nil, err
		}
	}

	project := &models.Project{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        projectType,
		Status:      status,
		TeamID:      team.ID,
		CreatedByID: &actor.ID,
		GithubURL:   in.GithubURL,
		Tags:        datatypes.JSONSlice[string](utils.ParseTags(in.Tags)),
	}
	if err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		return models.CreateProjectScaffold(tx, project)
	}); err != nil {
		return nil, models.TranslateError(err)
	}

	s.activity.Record(ctx, actor, projectActivity(models.ActionCreatedProject, project, ""))
	return project, nil
}

type Permissions struct {
	CanEdit         bool `json:"can_edit"`
	CanReviewCode   bool `json:"can_review_code"`
	CanSubmitReview bool `json:"can_submit_review"`
}

type ProjectDetail struct {
	Project              *models.Project        `json:"project"`
	Tasks                []models.Task          `json:"tasks"`
	CodeReviews          []models.CodeReview    `json:"code_reviews"`
	TeamMembers          []models.TeamMember    `json:"team_members"`
	ProjectMembers       []models.ProjectMember `json:"project_members"`
	Activities           []models.ActivityLog   `json:"recent_activities"`
	TaskStats            models.TaskStats       `json:"task_stats"`
	ReviewStats          models.ReviewStats     `json:"review_stats"`
	MemberStats          models.MemberStats     `json:"member_stats"`
	CompletionPercentage int                    `json:"completion_percentage"`
	Permissions
}

func (s *ProjectService) viewable(ctx context.Context, actor *models.User, id uint) (*models.Project, error) {
	db := s.db.WithContext(ctx)
	project, err := loadProject(db, id)
	if err != nil {
		return nil, err
	}
	if err := requireView(db, project, actor); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) editable(ctx context.Context, actor *models.User, id uint) (*models.Project, error) {
	db := s.db.WithContext(ctx)
	project, err := loadProject(db, id)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(db, project, actor); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, actor *models.User, id uint) (*ProjectDetail, error) {
	project, err := s.viewable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := db.Preload("Team").Preload("CreatedBy").First(project, project.ID).Error; err != nil {
		return nil, models.TranslateError(err)
	}

	d := &ProjectDetail{Project: project}
	steps := []func() error{
		func() error {
			return db.Preload("AssignedTo").Scopes(models.OrderTasks).Where("project_id = ?", project.ID).Find(&d.Tasks).Error
		},
		func() error {
			return db.Preload("Author").Preload("Reviewer").Where("project_id = ?", project.ID).Order("created_at DESC").Find(&d.CodeReviews).Error
		},
		func() error {
			return db.Preload("User").Where("team_id = ?", project.TeamID).Order("created_at").Find(&d.TeamMembers).Error
		},
		func() error {
			return db.Preload("User").Where("project_id = ?", project.ID).Order("created_at").Find(&d.ProjectMembers).Error
		},
		func() error {
			return db.Preload("User").Where("project_id = ?", project.ID).Order("timestamp DESC").Order("id DESC").Limit(10).Find(&d.Activities).Error
		},
		func() (err error) { d.TaskStats, err = project.TaskStats(db); return },
		func() (err error) { d.ReviewStats, err = project.ReviewStats(db); return },
		func() (err error) { d.MemberStats, err = project.MemberStats(db); return },
		func() (err error) { d.CanEdit, err = project.CanUserEdit(db, actor); return },
		func() (err error) { d.CanReviewCode, err = project.CanUserReviewCode(db, actor); return },
		func() (err error) { d.CanSubmitReview, err = project.CanUserSubmitReview(db, actor); return },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, models.TranslateError(err)
		}
	}
	d.CompletionPercentage = models.CompletionPercent(d.TaskStats.Completed, d.TaskStats.Total)
	return d, nil
}

type ProjectList struct {
	Active    []models.Project `json:"active_projects"`
	Completed []models.Project `json:"completed_projects"`
	Archived  []models.Project `json:"archived_projects"`
	Teams     []models.Team    `json:"teams"`
}

// List groups every project of the actor's teams by status.
func (s *ProjectService) List(ctx context.Context, actor *models.User) (*ProjectList, error) {
	db := s.db.WithContext(ctx)
	teamIDs := db.Model(&models.TeamMember{}).Select("team_id").Where("user_id = ?", actor.ID)

	var projects []models.Project
	if err := db.Preload("Team").Where("team_id IN (?)", teamIDs).Order("updated_at DESC").Find(&projects).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	out := &ProjectList{Active: []models.Project{}, Completed: []models.Project{}, Archived: []models.Project{}}
	for _, p := range projects {
		switch p.Status {
		case models.ProjectCompleted:
			out.Completed = append(out.Completed, p)
		case models.ProjectArchived:
			out.Archived = append(out.Archived, p)
		default:
			out.Active = append(out.Active, p)
		}
	}
	if err := db.Where("id IN (?)", teamIDs).Order("name").Find(&out.Teams).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	return out, nil
}

func (s *ProjectService) Update(ctx context.Context, actor *models.User, id uint, in UpdateProjectInput) (*models.Project, error) {
	project, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		project.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.Type != nil {
		if project.Type, err = models.ParseProjectType(*in.Type); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if project.Status, err = models.ParseProjectStatus(*in.Status); err != nil {
			return nil, err
		}
	}
	if in.GithubURL != nil {
		project.GithubURL = *in.GithubURL
	}
	if in.Tags != nil {
		project.Tags = utils.ParseTags(in.Tags)
	}
	if err := s.db.WithContext(ctx).Omit("Team", "CreatedBy").Save(project).Error; err != nil {
		return nil, models.TranslateError(err)
	}

	s.activity.Record(ctx, actor, projectActivity(models.ActionUpdatedProject, project, ""))
	return project, nil
}

func (s *ProjectService) transition(ctx context.Context, actor *models.User, id uint, action string, apply func(*models.Project, *gorm.DB) error) (*models.Project, error) {
	project, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := apply(project, s.db.WithContext(ctx)); err != nil {
		return nil, models.TranslateError(err)
	}
	s.activity.Record(ctx, actor, projectActivity(action, project, ""))
	return project, nil
}

func (s *ProjectService) Archive(ctx context.Context, actor *models.User, id uint) (*models.Project, error) {
	return s.transition(ctx, actor, id, models.ActionArchivedProject, (*models.Project).Archive)
}

func (s *ProjectService) Complete(ctx context.Context, actor *models.User, id uint) (*models.Project, error) {
	return s.transition(ctx, actor, id, models.ActionCompletedProject, (*models.Project).Complete)
}

func (s *ProjectService) Reactivate(ctx context.Context, actor *models.User, id uint) (*models.Project, error) {
	return s.transition(ctx, actor, id, models.ActionReactivatedProject, (*models.Project).Reactivate)
}

// AddMember grants a project role. A user outside the owning team is first
// added to it as a contributor.
func (s *ProjectService) AddMember(ctx context.Context, actor *models.User, projectID uint, in AddProjectMemberInput) (*models.ProjectMember, error) {
	project, err := s.editable(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	role := models.ProjectRoleContributor
	if in.Role != "" {
		if role, err = models.ParseProjectRole(in.Role); err != nil {
			return nil, err
		}
	}
	db := s.db.WithContext(ctx)
	user, err := findByID[models.User](db, in.UserID)
	if err != nil {
		return nil, err
	}

	member := &models.ProjectMember{ProjectID: project.ID, UserID: user.ID, Role: role}
	err = db.Transaction(func(tx *gorm.DB) error {
		var tm models.TeamMember
		err := tx.Where("team_id = ? AND user_id = ?", project.TeamID, user.ID).First(&tm).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = tx.Create(&models.TeamMember{TeamID: project.TeamID, UserID: user.ID, Role: models.TeamRoleContributor}).Error
		}
		if err != nil {
			return err
		}
		return tx.Create(member).Error
	})
	if err != nil {
		if _, dup := models.UniqueViolation(err); dup {
			return nil, fmt.Errorf("%w: user is already a member of this project", models.ErrConflict)
		}
		return nil, models.TranslateError(err)
	}
	member.User = user

	s.activity.Record(ctx, actor, projectActivity(models.ActionAddedProjectMember, project,
		fmt.Sprintf("added %s as %s", user.DisplayName(), role)))
	return member, nil
}

// RemoveMember drops the project role only; team membership is kept.
func (s *ProjectService) RemoveMember(ctx context.Context, actor *models.User, projectID, userID uint) error {
	project, err := s.editable(ctx, actor, projectID)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("project_id = ? AND user_id = ?", project.ID, userID).Delete(&models.ProjectMember{})
	if res.Error != nil {
		return models.TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	s.activity.Record(ctx, actor, projectActivity(models.ActionRemovedProjectMember, project, fmt.Sprintf("removed user #%d", userID)))
	return nil
}

func (s *ProjectService) Board(ctx context.Context, actor *models.User, projectID uint) (*models.TaskBoard, error) {
	project, err := s.viewable(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	var board models.TaskBoard
	err = s.db.WithContext(ctx).
		Preload("Columns", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("project_id = ?", project.ID).
		First(&board).Error
	if err != nil {
		return nil, models.TranslateError(err)
	}
	return &board, nil
}

type InboxView struct {
	Inbox   *models.CodeReviewInbox `json:"inbox"`
	Pending []models.CodeReview     `json:"pending_reviews"`
	Recent  []models.CodeReview     `json:"recent_reviews"`
	Stats   models.ReviewStats      `json:"stats"`
}

// Inbox returns the project's review inbox with pending and recent reviews.
func (s *ProjectService) Inbox(ctx context.Context, actor *models.User, projectID uint) (*InboxView, error) {
	project, err := s.viewable(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	view := &InboxView{}
	if view.Inbox, err = findByProject[models.CodeReviewInbox](db, project.ID); err != nil {
		return nil, err
	}
	reviews := db.Preload("Author").Preload("Reviewer").Where("project_id = ?", project.ID)
	if err := reviews.Session(&gorm.Session{}).Where("status = ?", models.ReviewPending).Order("created_at DESC").Find(&view.Pending).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	if err := reviews.Session(&gorm.Session{}).Order("created_at DESC").Limit(10).Find(&view.Recent).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	if view.Stats, err = project.ReviewStats(db); err != nil {
		return nil, models.TranslateError(err)
	}
	return view, nil
}

// Insights returns the latest five categorized insights for the project.
func (s *ProjectService) Insights(ctx context.Context, actor *models.User, projectID uint) ([]models.AIInsight, error) {
	project, err := s.viewable(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	tracker, err := findByProject[models.AIInsightTracker](db, project.ID)
	if err != nil {
		return nil, err
	}
	var insights []models.AIInsight
	err = db.Where("tracker_id = ? AND insight_type <> ?", tracker.ID, models.InsightOther).
		Order("created_at DESC").Limit(5).Find(&insights).Error
	return insights, models.TranslateError(err)
}

func findByProject[T any](db *gorm.DB, projectID uint) (*T, error) {
	var v T
	if err := db.Where("project_id = ?", projectID).First(&v).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	return &v, nil
}

// View loads the project if the actor may see it.
func (s *ProjectService) View(ctx context.Context, actor *models.User, id uint) (*models.Project, error) {
	return s.viewable(ctx, actor, id)
}
