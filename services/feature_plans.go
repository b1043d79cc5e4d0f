package services

import (
	"context"
	"strings"

	"devsync/models"
)

// PlanFeature stores an idea against the project and queues the planning job.
// The plan is polled through AIStatus with kind "feature-plan".
func (s *ProjectService) PlanFeature(ctx context.Context, actor *models.User, projectID uint, in FeaturePlanInput) (*models.FeaturePlan, error) {
	project, err := s.viewable(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	idea := strings.TrimSpace(in.Idea)
	if idea == "" {
		return nil, &models.FieldError{Field: "idea", Message: "no idea provided"}
	}

	plan := &models.FeaturePlan{ProjectID: project.ID, RequestedByID: actor.ID, Idea: idea}
	if err := s.db.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, models.TranslateError(err)
	}

	s.activity.Record(ctx, actor, projectActivity(models.ActionRequestedFeaturePlan, project, firstWords(idea, 80)))
	enqueue(ctx, s.dispatcher, s.log, models.AIJobFeaturePlan, plan.ID)
	return plan, nil
}

// FeaturePlans lists the project's plans, newest first.
func (s *ProjectService) FeaturePlans(ctx context.Context, actor *models.User, projectID uint) ([]models.FeaturePlan, error) {
	project, err := s.viewable(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	var plans []models.FeaturePlan
	err = s.db.WithContext(ctx).
		Preload("RequestedBy").
		Where("project_id = ?", project.ID).
		Order("created_at DESC").
		Find(&plans).Error
	return plans, models.TranslateError(err)
}

func firstWords(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := strings.LastIndexByte(s[:n], ' ')
	if cut <= 0 {
		cut = n
	}
	return s[:cut] + "..."
}
