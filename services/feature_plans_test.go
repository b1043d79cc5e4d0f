package services_test

import (
	"strings"
	"testing"

	"devsync/models"
	"devsync/services"
	"devsync/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFeature(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)

	_, err := e.svc.Projects.PlanFeature(ctx, f.outsider, f.project.ID, services.FeaturePlanInput{Idea: "dark mode"})
	require.ErrorIs(t, err, models.ErrPermissionDenied)

	_, err = e.svc.Projects.PlanFeature(ctx, f.developer, f.project.ID, services.FeaturePlanInput{Idea: "   "})
	var fe *models.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "idea", fe.Field)

	_, err = e.svc.Projects.PlanFeature(ctx, f.developer, 9999, services.FeaturePlanInput{Idea: "dark mode"})
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, e.dispatcher.Jobs)

	plan, err := e.svc.Projects.PlanFeature(ctx, f.developer, f.project.ID, services.FeaturePlanInput{Idea: " dark mode "})
	require.NoError(t, err)
	assert.Equal(t, "dark mode", plan.Idea)
	assert.Empty(t, plan.Plan)
	assert.Equal(t, f.developer.ID, plan.RequestedByID)
	assert.Equal(t, []testutil.Job{{Kind: models.AIJobFeaturePlan, ID: plan.ID}}, e.dispatcher.Jobs)
	assert.Equal(t, []string{models.ActionRequestedFeaturePlan}, e.activities(t))

	plans, err := e.svc.Projects.FeaturePlans(ctx, f.leader, f.project.ID)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, plan.ID, plans[0].ID)
	require.NotNil(t, plans[0].RequestedBy)
	assert.Equal(t, f.developer.ID, plans[0].RequestedBy.ID)

	_, err = e.svc.Projects.FeaturePlans(ctx, f.outsider, f.project.ID)
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
}

func TestPlanFeatureTrimsLongIdeaInActivity(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	idea := strings.Repeat("word ", 40)

	_, err := e.svc.Projects.PlanFeature(ctx, f.leader, f.project.ID, services.FeaturePlanInput{Idea: idea})
	require.NoError(t, err)

	var entry models.ActivityLog
	require.NoError(t, e.db.Where("action = ?", models.ActionRequestedFeaturePlan).First(&entry).Error)
	assert.True(t, strings.HasSuffix(entry.Details, "..."))
	assert.LessOrEqual(t, len(entry.Details), 83)
}
