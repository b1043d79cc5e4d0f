package models_test

import (
	"testing"
	"time"

	"devsync/models"
	"devsync/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &d
}

func titles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestSortTasks(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{Model: models.Model{ID: 1, CreatedAt: base}, Title: "low-dated", Priority: models.PriorityLow, DueDate: date("2024-03-02")},
		{Model: models.Model{ID: 2, CreatedAt: base}, Title: "high-undated", Priority: models.PriorityHigh},
		{Model: models.Model{ID: 3, CreatedAt: base}, Title: "high-late", Priority: models.PriorityHigh, DueDate: date("2024-04-01")},
		{Model: models.Model{ID: 4, CreatedAt: base}, Title: "high-early", Priority: models.PriorityHigh, DueDate: date("2024-03-05")},
		{Model: models.Model{ID: 5, CreatedAt: base.Add(time.Hour)}, Title: "medium-newer", Priority: models.PriorityMedium},
		{Model: models.Model{ID: 6, CreatedAt: base}, Title: "medium-older", Priority: models.PriorityMedium},
		{Model: models.Model{ID: 7, CreatedAt: base}, Title: "medium-older-higher-id", Priority: models.PriorityMedium},
	}

	models.SortTasks(tasks)

	assert.Equal(t, []string{
		"high-early", "high-late", "high-undated",
		"medium-newer", "medium-older-higher-id", "medium-older",
		"low-dated",
	}, titles(tasks))
}

func TestOrderTasksMatchesSortTasks(t *testing.T) {
	db := testutil.NewDB(t)
	leader := testutil.SeedUser(t, db, "leader")
	team := testutil.SeedTeam(t, db, "Order", leader)
	project := testutil.SeedProject(t, db, team, "Queue")

	fixtures := []models.Task{
		{Title: "a", Priority: models.PriorityLow},
		{Title: "b", Priority: models.PriorityHigh},
		{Title: "c", Priority: models.PriorityHigh, DueDate: date("2024-05-01")},
		{Title: "d", Priority: models.PriorityMedium, DueDate: date("2024-01-01")},
		{Title: "e", Priority: models.PriorityHigh, DueDate: date("2024-02-01")},
	}
	for i := range fixtures {
		fixtures[i].ProjectID = project.ID
		require.NoError(t, db.Create(&fixtures[i]).Error)
	}

	var fromDB []models.Task
	require.NoError(t, db.Scopes(models.OrderTasks).Where("project_id = ?", project.ID).Find(&fromDB).Error)

	inMemory := append([]models.Task(nil), fromDB...)
	models.SortTasks(inMemory)

	assert.Equal(t, []string{"e", "c", "b", "d", "a"}, titles(fromDB))
	assert.Equal(t, titles(inMemory), titles(fromDB))
}

func TestTaskCompleteFromAnyStatus(t *testing.T) {
	db := testutil.NewDB(t)
	leader := testutil.SeedUser(t, db, "leader")
	team := testutil.SeedTeam(t, db, "Done", leader)
	project := testutil.SeedProject(t, db, team, "Finish")

	for _, st := range []models.TaskStatus{models.TaskPending, models.TaskReview, models.TaskCompleted} {
		task := &models.Task{Title: string(st), ProjectID: project.ID, Status: st}
		require.NoError(t, db.Create(task).Error)
		require.NoError(t, task.Complete(db))

		var reloaded models.Task
		require.NoError(t, db.First(&reloaded, task.ID).Error)
		assert.Equal(t, models.TaskCompleted, reloaded.Status)
	}
}

func TestTaskAssignKeepsStatus(t *testing.T) {
	db := testutil.NewDB(t)
	leader := testutil.SeedUser(t, db, "leader")
	team := testutil.SeedTeam(t, db, "Assign", leader)
	project := testutil.SeedProject(t, db, team, "Work")

	task := &models.Task{Title: "x", ProjectID: project.ID, Status: models.TaskInProgress}
	require.NoError(t, db.Create(task).Error)
	require.NoError(t, task.AssignTo(db, leader))

	var reloaded models.Task
	require.NoError(t, db.First(&reloaded, task.ID).Error)
	require.NotNil(t, reloaded.AssignedToID)
	assert.Equal(t, leader.ID, *reloaded.AssignedToID)
	assert.Equal(t, models.TaskInProgress, reloaded.Status)
}
