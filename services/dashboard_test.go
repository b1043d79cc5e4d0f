package services_test

import (
	"fmt"
	"testing"

	"devsync/models"
	"devsync/services"
	"devsync/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	review := e.review(t, f)

	d, err := e.svc.Dashboard.Get(ctx, f.reviewer)
	require.NoError(t, err)
	require.Len(t, d.ActiveProjects, 1)
	assert.Equal(t, f.project.ID, d.ActiveProjects[0].ID)
	assert.EqualValues(t, 5, d.TeamMemberCount)
	require.Len(t, d.PendingReviews, 1)
	assert.Equal(t, review.ID, d.PendingReviews[0].ID)
	require.Len(t, d.RecentActivities, 1)
	assert.False(t, d.ShowOnboarding)

	d, err = e.svc.Dashboard.Get(ctx, f.outsider)
	require.NoError(t, err)
	assert.Empty(t, d.ActiveProjects)
	assert.Empty(t, d.RecentActivities)
	assert.True(t, d.ShowOnboarding)
}

func TestActivityPagination(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	for i := 0; i < services.ActivityPageSize+5; i++ {
		require.NoError(t, e.db.Create(&models.ActivityLog{UserID: f.developer.ID, Action: fmt.Sprintf("action %d", i)}).Error)
	}
	// team-targeted entries by others are visible to members
	team, err := e.svc.Teams.Update(ctx, f.leader, f.team.ID, services.UpdateTeamInput{Description: ptr("platform team")})
	require.NoError(t, err)

	page, err := e.svc.Dashboard.Activity(ctx, f.developer, 1)
	require.NoError(t, err)
	assert.EqualValues(t, services.ActivityPageSize+6, page.Total)
	assert.Equal(t, services.ActivityPageSize, page.Limit)
	entries := page.Data.([]models.ActivityLog)
	require.Len(t, entries, services.ActivityPageSize)
	assert.Equal(t, models.ActionUpdatedTeam, entries[0].Action)
	assert.Equal(t, team.Name, entries[0].TargetName)

	page, err = e.svc.Dashboard.Activity(ctx, f.developer, 2)
	require.NoError(t, err)
	assert.Len(t, page.Data.([]models.ActivityLog), 6)

	page, err = e.svc.Dashboard.Activity(ctx, f.outsider, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Empty(t, page.Data)

	other := testutil.SeedUser(t, e.db, "other")
	page, err = e.svc.Dashboard.Activity(ctx, other, 1)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}
