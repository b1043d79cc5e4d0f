package models_test

import (
	"testing"

	"devsync/models"
	"devsync/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityLogIsAppendOnly(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.SeedUser(t, db, "writer")

	entry := &models.ActivityLog{UserID: user.ID, Action: models.ActionCreatedTeam, TargetType: models.TargetTeam, TargetName: "Core"}
	require.NoError(t, db.Create(entry).Error)
	assert.False(t, entry.Timestamp.IsZero())

	err := db.Model(entry).Update("action", "rewritten").Error
	assert.ErrorIs(t, err, models.ErrActivityLogImmutable)

	err = db.Delete(entry).Error
	assert.ErrorIs(t, err, models.ErrActivityLogImmutable)

	var reloaded models.ActivityLog
	require.NoError(t, db.First(&reloaded, entry.ID).Error)
	assert.Equal(t, models.ActionCreatedTeam, reloaded.Action)
}

func TestActivityLogCascadesWithProject(t *testing.T) {
	db := testutil.NewDB(t)
	leader := testutil.SeedUser(t, db, "leader")
	team := testutil.SeedTeam(t, db, "Gone", leader)
	project := testutil.SeedProject(t, db, team, "Temp")

	require.NoError(t, db.Create(&models.ActivityLog{UserID: leader.ID, ProjectID: &project.ID, Action: models.ActionCreatedProject}).Error)
	require.NoError(t, db.Delete(project).Error)

	var n int64
	require.NoError(t, db.Model(&models.ActivityLog{}).Where("project_id = ?", project.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestActivityLogSummary(t *testing.T) {
	entry := models.ActivityLog{
		UserID:  1,
		Action:  models.ActionCreatedProject,
		User:    &models.User{Username: "ada", FirstName: "Ada", LastName: "Lovelace"},
		Project: &models.Project{Name: "Engine"},
	}
	assert.Equal(t, "Ada Lovelace created project in Engine", entry.Summary())

	entry = models.ActivityLog{UserID: 7, Action: models.ActionJoinedTeam, TargetName: "Core"}
	assert.Equal(t, "user #7 joined team Core", entry.Summary())
}
