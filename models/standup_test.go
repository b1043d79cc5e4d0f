package models_test

import (
	"testing"
	"time"

	"devsync/models"
	"devsync/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOnly(t *testing.T) {
	in := time.Date(2024, 6, 3, 23, 59, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), models.DateOnly(in))
}

func TestStandupOnePerDeveloperPerDay(t *testing.T) {
	db := testutil.NewDB(t)
	dev := testutil.SeedUser(t, db, "dev")
	team := testutil.SeedTeam(t, db, "Daily", dev)
	project := testutil.SeedProject(t, db, team, "Sprint")

	day := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	first := &models.Standup{DeveloperID: dev.ID, ProjectID: project.ID, Date: day, YesterdayWork: "a", TodayPlan: "b"}
	require.NoError(t, db.Create(first).Error)
	assert.Equal(t, models.MoodGood, first.Mood)

	second := &models.Standup{DeveloperID: dev.ID, ProjectID: project.ID, Date: day.Add(5 * time.Hour), YesterdayWork: "c", TodayPlan: "d"}
	err := db.Create(second).Error
	require.Error(t, err)
	assert.ErrorIs(t, models.TranslateError(err), models.ErrConflict)

	next := &models.Standup{DeveloperID: dev.ID, ProjectID: project.ID, Date: day.AddDate(0, 0, 1), YesterdayWork: "e", TodayPlan: "f"}
	require.NoError(t, db.Create(next).Error)
}

func TestInvalidEnumRejectedOnSave(t *testing.T) {
	db := testutil.NewDB(t)
	dev := testutil.SeedUser(t, db, "dev")
	team := testutil.SeedTeam(t, db, "Enums", dev)

	err := db.Create(&models.Project{Name: "bad", Type: "spaceship", TeamID: team.ID}).Error
	assert.ErrorIs(t, err, models.ErrInvalidEnum)
}
