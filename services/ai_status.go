package services

import (
	"context"
	"fmt"

	"devsync/models"

	"gorm.io/gorm"
)

const (
	AIStatusReady      = "ready"
	AIStatusProcessing = "processing"
)

// AIResult is the poll answer for an AI job: an empty field means processing.
type AIResult struct {
	Status string `json:"status"`
	Data   string `json:"data,omitempty"`
}

func aiStatus(field string) string {
	if field == "" {
		return AIStatusProcessing
	}
	return AIStatusReady
}

// AIStatus reports whether the AI text for a standup, code review, team vibe
// or feature plan is ready.
func (s *Services) AIStatus(ctx context.Context, actor *models.User, kind string, id uint) (*AIResult, error) {
	db := s.Standups.db.WithContext(ctx)
	var field string
	switch kind {
	case "standup":
		standup, err := findByID[models.Standup](db, id)
		if err != nil {
			return nil, err
		}
		if standup.DeveloperID != actor.ID {
			if err := viewByProjectID(db, standup.ProjectID, actor); err != nil {
				return nil, err
			}
		}
		field = standup.AISummary
	case "code-review":
		review, err := s.Reviews.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.Reviews.canSee(db, review, actor); err != nil {
			return nil, err
		}
		field = review.AISuggestions
	case "team-vibe":
		team, err := s.Teams.loadWith(ctx, actor, id, (*models.Team).IsMember, "you are not a member of this team")
		if err != nil {
			return nil, err
		}
		field = team.VibeSummary
	case "feature-plan":
		plan, err := findByID[models.FeaturePlan](db, id)
		if err != nil {
			return nil, err
		}
		if plan.RequestedByID != actor.ID {
			if err := viewByProjectID(db, plan.ProjectID, actor); err != nil {
				return nil, err
			}
		}
		field = plan.Plan
	default:
		return nil, &models.FieldError{Field: "kind", Message: fmt.Sprintf("unknown AI job kind %q", kind), Err: models.ErrInvalidEnum}
	}
	return &AIResult{Status: aiStatus(field), Data: field}, nil
}

func viewByProjectID(db *gorm.DB, projectID uint, actor *models.User) error {
	project, err := loadProject(db, projectID)
	if err != nil {
		return err
	}
	return requireView(db, project, actor)
}
