package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Project is a unit of work owned by exactly one team.
type Project struct {
	Model
	Name        string                      `gorm:"size:100;not null" json:"name"`
	Description string                      `gorm:"type:text" json:"description"`
	Type        ProjectType                 `gorm:"column:project_type;size:20;not null" json:"project_type"`
	Status      ProjectStatus               `gorm:"size:20;not null;default:active;index" json:"status"`
	TeamID      uint                        `gorm:"not null;index" json:"team_id"`
	CreatedByID *uint                       `gorm:"index" json:"created_by_id"`
	GithubURL   string                      `gorm:"size:255" json:"github_url"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`

	// Relations
	Team        *Team             `gorm:"constraint:OnDelete:CASCADE" json:"team,omitempty"`
	CreatedBy   *User             `gorm:"constraint:OnDelete:SET NULL" json:"created_by,omitempty"`
	Members     []ProjectMember   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	TaskBoard   *TaskBoard        `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"task_board,omitempty"`
	AITracker   *AIInsightTracker `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"ai_tracker,omitempty"`
	ReviewInbox *CodeReviewInbox  `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"review_inbox,omitempty"`
}

func (p *Project) BeforeSave(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = ProjectActive
	}
	if p.Tags == nil {
		p.Tags = datatypes.JSONSlice[string]{}
	}
	if err := checkEnum("project type", p.Type, projectTypes); err != nil {
		return err
	}
	return checkEnum("project status", p.Status, projectStatuses)
}

// CanUserView reports whether user belongs to the owning team.
func (p *Project) CanUserView(db *gorm.DB, user *User) (bool, error) {
	if user == nil {
		return false, nil
	}
	return hasTeamRole(db, p.TeamID, user.ID)
}

// CanUserEdit grants maintainers of the project and admins or leaders of the team.
// The two grants are independent.
func (p *Project) CanUserEdit(db *gorm.DB, user *User) (bool, error) {
	if user == nil {
		return false, nil
	}
	ok, err := p.hasProjectRole(db, user.ID, ProjectRoleMaintainer)
	if err != nil || ok {
		return ok, err
	}
	return hasTeamRole(db, p.TeamID, user.ID, TeamRoleAdmin, TeamRoleLeader)
}

func (p *Project) CanUserReviewCode(db *gorm.DB, user *User) (bool, error) {
	if user == nil {
		return false, nil
	}
	return p.hasProjectRole(db, user.ID, ProjectRoleMaintainer, ProjectRoleReviewer)
}

func (p *Project) CanUserSubmitReview(db *gorm.DB, user *User) (bool, error) {
	if user == nil {
		return false, nil
	}
	return p.hasProjectRole(db, user.ID, ProjectRoleMaintainer, ProjectRoleContributor)
}

func (p *Project) hasProjectRole(db *gorm.DB, userID uint, roles ...ProjectRole) (bool, error) {
	var n int64
	err := db.Model(&ProjectMember{}).
		Where("project_id = ? AND user_id = ? AND role IN ?", p.ID, userID, roles).
		Count(&n).Error
	return n > 0, err
}

// Archive, Complete and Reactivate set the status unconditionally.
func (p *Project) Archive(db *gorm.DB) error    { return p.setStatus(db, ProjectArchived) }
func (p *Project) Complete(db *gorm.DB) error   { return p.setStatus(db, ProjectCompleted) }
func (p *Project) Reactivate(db *gorm.DB) error { return p.setStatus(db, ProjectActive) }

func (p *Project) setStatus(db *gorm.DB, status ProjectStatus) error {
	if err := db.Model(p).Omit(clause.Associations).Update("status", status).Error; err != nil {
		return err
	}
	p.Status = status
	return nil
}

// CompletionPercent is the floor of completed/total as a percentage, 0 when total is 0.
func CompletionPercent(completed, total int64) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return int(completed * 100 / total)
}

type TaskStats struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	InProgress int64 `json:"in_progress"`
	Pending    int64 `json:"pending"`
}

type ReviewStats struct {
	Total            int64 `json:"total"`
	Approved         int64 `json:"approved"`
	Pending          int64 `json:"pending"`
	ChangesRequested int64 `json:"changes_requested"`
}

type MemberStats struct {
	Total        int64 `json:"total"`
	Maintainers  int64 `json:"maintainers"`
	Contributors int64 `json:"contributors"`
	Reviewers    int64 `json:"reviewers"`
}

type bucketCount struct {
	Bucket string
	N      int64
}

func countBy(db *gorm.DB, model any, column, where string, args ...any) (map[string]int64, int64, error) {
	var rows []bucketCount
	err := db.Model(model).
		Select(column+" AS bucket, COUNT(*) AS n").
		Where(where, args...).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	out := make(map[string]int64, len(rows))
	var total int64
	for _, r := range rows {
		out[r.Bucket] = r.N
		total += r.N
	}
	return out, total, nil
}

func (p *Project) TaskStats(db *gorm.DB) (TaskStats, error) {
	by, total, err := countBy(db, &Task{}, "status", "project_id = ?", p.ID)
	if err != nil {
		return TaskStats{}, err
	}
	return TaskStats{
		Total:      total,
		Completed:  by[string(TaskCompleted)],
		InProgress: by[string(TaskInProgress)],
		Pending:    by[string(TaskPending)],
	}, nil
}

func (p *Project) ReviewStats(db *gorm.DB) (ReviewStats, error) {
	by, total, err := countBy(db, &CodeReview{}, "status", "project_id = ?", p.ID)
	if err != nil {
		return ReviewStats{}, err
	}
	return ReviewStats{
		Total:            total,
		Approved:         by[string(ReviewApproved)],
		Pending:          by[string(ReviewPending)],
		ChangesRequested: by[string(ReviewChangesRequested)],
	}, nil
}

func (p *Project) MemberStats(db *gorm.DB) (MemberStats, error) {
	by, total, err := countBy(db, &ProjectMember{}, "role", "project_id = ?", p.ID)
	if err != nil {
		return MemberStats{}, err
	}
	return MemberStats{
		Total:        total,
		Maintainers:  by[string(ProjectRoleMaintainer)],
		Contributors: by[string(ProjectRoleContributor)],
		Reviewers:    by[string(ProjectRoleReviewer)],
	}, nil
}

// CompletionPercentage derives from the project's current task counts.
func (p *Project) CompletionPercentage(db *gorm.DB) (int, error) {
	stats, err := p.TaskStats(db)
	if err != nil {
		return 0, err
	}
	return CompletionPercent(stats.Completed, stats.Total), nil
}

// ProjectMember is a project-scoped role, independent of team roles.
type ProjectMember struct {
	Model
	ProjectID uint        `gorm:"not null;uniqueIndex:idx_project_members_project_user" json:"project_id"`
	UserID    uint        `gorm:"not null;uniqueIndex:idx_project_members_project_user;index" json:"user_id"`
	Role      ProjectRole `gorm:"size:20;not null;default:contributor" json:"role"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (m *ProjectMember) BeforeSave(tx *gorm.DB) error {
	if m.Role == "" {
		m.Role = ProjectRoleContributor
	}
	return checkEnum("project role", m.Role, projectRoles)
}
