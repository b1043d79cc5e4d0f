package services

import (
	"context"
	"fmt"
	"strings"

	"devsync/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TaskService struct {
	db       *gorm.DB
	activity *ActivityLogger
	log      *logrus.Entry
}

func NewTaskService(db *gorm.DB, activity *ActivityLogger, log *logrus.Entry) *TaskService {
	return &TaskService{db: db, activity: activity, log: log}
}

type CreateTaskInput struct {
	ProjectID    uint   `json:"project_id" validate:"required"`
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description"`
	AssignedToID *uint  `json:"assigned_to_id"`
	Status       string `json:"status"`
	Priority     string `json:"priority"`
	DueDate      string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateTaskInput struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description"`
	AssignedToID *uint   `json:"assigned_to_id"`
	Status       *string `json:"status"`
	Priority     *string `json:"priority"`
	DueDate      *string `json:"due_date"`
}

// requireTeamMember checks that userID belongs to the project's team.
func requireTeamMember(db *gorm.DB, project *models.Project, userID uint) (*models.User, error) {
	user, err := findByID[models.User](db, userID)
	if err != nil {
		return nil, err
	}
	ok, err := project.CanUserView(db, user)
	if err != nil {
		return nil, models.TranslateError(err)
	}
	if !ok {
		return nil, models.ErrNotTeamMember
	}
	return user, nil
}

func (s *TaskService) Create(ctx context.Context, actor *models.User, in CreateTaskInput) (*models.Task, error) {
	db := s.db.WithContext(ctx)
	project, err := loadProject(db, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireView(db, project, actor); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		ProjectID:   project.ID,
		Status:      models.TaskPending,
		Priority:    models.PriorityMedium,
	}
	if in.Status != "" {
		if task.Status, err = models.ParseTaskStatus(in.Status); err != nil {
			return nil, err
		}
	}
	if in.Priority != "" {
		if task.Priority, err = models.ParseTaskPriority(in.Priority); err != nil {
			return nil, err
		}
	}
	if task.DueDate, err = parseDate("due_date", in.DueDate); err != nil {
		return nil, err
	}
	if in.AssignedToID != nil {
		if _, err := requireTeamMember(db, project, *in.AssignedToID); err != nil {
			return nil, err
		}
		task.AssignedToID = in.AssignedToID
	}

	if err := db.Create(task).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	s.activity.Record(ctx, actor, projectActivity(models.ActionCreatedTask, project, task.Title))
	return task, nil
}

type TaskView struct {
	Task    *models.Task `json:"task"`
	CanEdit bool         `json:"can_edit"`
}

// load fetches a task and its project, then applies check.
func (s *TaskService) load(ctx context.Context, actor *models.User, id uint, check func(*gorm.DB, *models.Project, *models.User) error) (*models.Task, error) {
	db := s.db.WithContext(ctx)
	task, err := findByID[models.Task](db, id)
	if err != nil {
		return nil, err
	}
	if task.Project, err = loadProject(db, task.ProjectID); err != nil {
		return nil, err
	}
	if err := check(db, task.Project, actor); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, actor *models.User, id uint) (*TaskView, error) {
	task, err := s.load(ctx, actor, id, requireView)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if task.AssignedToID != nil {
		if task.AssignedTo, err = findByID[models.User](db, *task.AssignedToID); err != nil && err != models.ErrNotFound {
			return nil, err
		}
	}
	canEdit, err := task.Project.CanUserEdit(db, actor)
	if err != nil {
		return nil, models.TranslateError(err)
	}
	return &TaskView{Task: task, CanEdit: canEdit}, nil
}

func (s *TaskService) Update(ctx context.Context, actor *models.User, id uint, in UpdateTaskInput) (*models.Task, error) {
	task, err := s.load(ctx, actor, id, requireEdit)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if in.Title != nil {
		task.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Status != nil {
		if task.Status, err = models.ParseTaskStatus(*in.Status); err != nil {
			return nil, err
		}
	}
	if in.Priority != nil {
		if task.Priority, err = models.ParseTaskPriority(*in.Priority); err != nil {
			return nil, err
		}
	}
	if in.DueDate != nil {
		if task.DueDate, err = parseDate("due_date", *in.DueDate); err != nil {
			return nil, err
		}
	}
	if in.AssignedToID != nil {
		if _, err := requireTeamMember(db, task.Project, *in.AssignedToID); err != nil {
			return nil, err
		}
		task.AssignedToID = in.AssignedToID
	}

	if err := db.Omit("Project", "AssignedTo").Save(task).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	s.activity.Record(ctx, actor, projectActivity(models.ActionUpdatedTask, task.Project, task.Title))
	return task, nil
}

// Complete is open to anyone who can view the project and works from any status.
func (s *TaskService) Complete(ctx context.Context, actor *models.User, id uint) (*models.Task, error) {
	task, err := s.load(ctx, actor, id, requireView)
	if err != nil {
		return nil, err
	}
	if err := task.Complete(s.db.WithContext(ctx)); err != nil {
		return nil, models.TranslateError(err)
	}
	s.activity.Record(ctx, actor, projectActivity(models.ActionCompletedTask, task.Project, task.Title))
	return task, nil
}

// Assign sets the assignee, who must belong to the project's team.
func (s *TaskService) Assign(ctx context.Context, actor *models.User, id, assigneeID uint) (*models.Task, error) {
	task, err := s.load(ctx, actor, id, requireEdit)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	assignee, err := requireTeamMember(db, task.Project, assigneeID)
	if err != nil {
		return nil, err
	}
	if err := task.AssignTo(db, assignee); err != nil {
		return nil, models.TranslateError(err)
	}
	s.activity.Record(ctx, actor, projectActivity(models.ActionAssignedTask, task.Project,
		fmt.Sprintf("%s assigned to %s", task.Title, assignee.DisplayName())))
	return task, nil
}

// Mine lists the actor's assigned tasks in canonical order.
func (s *TaskService) Mine(ctx context.Context, actor *models.User) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Preload("Project").
		Scopes(models.OrderTasks).
		Where("assigned_to_id = ?", actor.ID).
		Find(&tasks).Error
	return tasks, models.TranslateError(err)
}

func (s *TaskService) ForProject(ctx context.Context, actor *models.User, projectID uint) ([]models.Task, error) {
	db := s.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireView(db, project, actor); err != nil {
		return nil, err
	}
	var tasks []models.Task
	err = db.Preload("AssignedTo").Scopes(models.OrderTasks).Where("project_id = ?", project.ID).Find(&tasks).Error
	return tasks, models.TranslateError(err)
}
