package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Target types for activity entries that are not scoped to a project.
const (
	TargetTeam       = "team"
	TargetProject    = "project"
	TargetTask       = "task"
	TargetCodeReview = "code-review"
	TargetStandup    = "standup"
)

// Activity verbs.
const (
	ActionCreatedTeam          = "created team"
	ActionUpdatedTeam          = "updated team"
	ActionDeletedTeam          = "deleted team"
	ActionInvitedMembers       = "invited members"
	ActionJoinedTeam           = "joined team"
	ActionAddedTeamMember      = "added team member"
	ActionRemovedTeamMember    = "removed team member"
	ActionCreatedProject       = "created project"
	ActionUpdatedProject       = "updated project"
	ActionArchivedProject      = "archived project"
	ActionCompletedProject     = "completed project"
	ActionReactivatedProject   = "reactivated project"
	ActionAddedProjectMember   = "added project member"
	ActionRemovedProjectMember = "removed project member"
	ActionCreatedTask          = "created task"
	ActionUpdatedTask          = "updated task"
	ActionAssignedTask         = "assigned task"
	ActionCompletedTask        = "completed task"
	ActionCreatedCodeReview    = "created code review"
	ActionUpdatedCodeReview    = "updated code review"
	ActionAssignedReviewer     = "assigned as reviewer"
	ActionApprovedCodeReview   = "approved code review"
	ActionRequestedChanges     = "requested changes"
	ActionCommentedCodeReview  = "commented on code review"
	ActionSubmittedStandup     = "submitted standup"
	ActionRequestedFeaturePlan = "requested feature plan"
)

// ActivityLog is append-only. Rows disappear only through cascading deletes.
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ProjectID  *uint     `gorm:"index" json:"project_id"`
	Action     string    `gorm:"size:100;not null" json:"action"`
	Details    string    `gorm:"type:text" json:"details,omitempty"`
	TargetType string    `gorm:"size:50;index:idx_activity_target" json:"target_type,omitempty"`
	TargetID   *uint     `gorm:"index:idx_activity_target" json:"target_id,omitempty"`
	TargetName string    `gorm:"size:255" json:"target_name,omitempty"`
	Timestamp  time.Time `gorm:"autoCreateTime;index" json:"timestamp"`

	// Relations
	User    *User    `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Project *Project `gorm:"constraint:OnDelete:CASCADE" json:"project,omitempty"`
}

func (a *ActivityLog) BeforeUpdate(tx *gorm.DB) error { return ErrActivityLogImmutable }
func (a *ActivityLog) BeforeDelete(tx *gorm.DB) error { return ErrActivityLogImmutable }

// Summary renders the entry as "<user> <action> <object>".
func (a *ActivityLog) Summary() string {
	who := fmt.Sprintf("user #%d", a.UserID)
	if a.User != nil {
		who = a.User.DisplayName()
	}
	switch {
	case a.Project != nil:
		return fmt.Sprintf("%s %s in %s", who, a.Action, a.Project.Name)
	case a.TargetName != "":
		return fmt.Sprintf("%s %s %s", who, a.Action, a.TargetName)
	}
	return who + " " + a.Action
}
