package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"devsync/models"
	"devsync/testutil"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedStandup(t *testing.T, db *gorm.DB) *models.Standup {
	t.Helper()
	user := testutil.SeedUser(t, db, "ada")
	team := testutil.SeedTeam(t, db, "Platform", user)
	project := testutil.SeedProject(t, db, team, "API")
	standup := &models.Standup{
		DeveloperID:   user.ID,
		ProjectID:     project.ID,
		Date:          time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
		YesterdayWork: "Auth flow.\nAlso docs",
		TodayPlan:     "Billing",
		Blockers:      "Waiting on keys",
		Mood:          models.MoodStressed,
	}
	require.NoError(t, db.Create(standup).Error)
	return standup
}

func TestProcessWritesStandupSummary(t *testing.T) {
	db := testutil.NewDB(t)
	standup := seedStandup(t, db)
	w := NewAIWorker(db, TemplateSummarizer{}, testutil.Entry())

	require.NoError(t, w.Process(context.Background(), models.AIJobStandupSummary, standup.ID))

	var got models.Standup
	require.NoError(t, db.First(&got, standup.ID).Error)
	assert.Equal(t,
		"Worked on: Auth flow. Planned: Billing. Blocked by: Waiting on keys. Mood is stressed, consider checking in.",
		got.AISummary)
}

func TestProcessWritesReviewSuggestions(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.SeedUser(t, db, "ada")
	project := testutil.SeedProject(t, db, testutil.SeedTeam(t, db, "Platform", user), "API")
	review := &models.CodeReview{Title: "Cache", Description: "adds cache", ProjectID: project.ID, AuthorID: user.ID}
	require.NoError(t, db.Create(review).Error)

	w := NewAIWorker(db, TemplateSummarizer{}, testutil.Entry())
	require.NoError(t, w.Process(context.Background(), models.AIJobCodeReviewSuggest, review.ID))

	var got models.CodeReview
	require.NoError(t, db.First(&got, review.ID).Error)
	assert.Contains(t, got.AISuggestions, `"Cache"`)
	assert.Contains(t, got.AISuggestions, "Link the pull request")
}

func TestProcessWritesTeamVibe(t *testing.T) {
	db := testutil.NewDB(t)
	standup := seedStandup(t, db)
	var project models.Project
	require.NoError(t, db.First(&project, standup.ProjectID).Error)
	bob := testutil.SeedUser(t, db, "bob")
	testutil.AddTeamMember(t, db, &models.Team{Model: models.Model{ID: project.TeamID}}, bob, models.TeamRoleDeveloper)
	old := &models.Standup{DeveloperID: bob.ID, ProjectID: project.ID, Date: time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC), YesterdayWork: "x", TodayPlan: "y", Mood: models.MoodGreat}
	require.NoError(t, db.Create(old).Error)

	now := time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)
	w := NewAIWorker(db, TemplateSummarizer{}, testutil.Entry())
	w.Now = func() time.Time { return now }
	require.NoError(t, w.Process(context.Background(), models.AIJobTeamVibe, project.TeamID))

	var team models.Team
	require.NoError(t, db.First(&team, project.TeamID).Error)
	assert.Equal(t, "Platform: 2 members, 1 standups in the last 7 days. Morale looks low, 1 report stress. Blockers reported: 1.", team.VibeSummary)
	require.NotNil(t, team.VibeUpdatedAt)
	assert.True(t, team.VibeUpdatedAt.Equal(now))

	assert.ErrorIs(t, w.Process(context.Background(), models.AIJobTeamVibe, 404), models.ErrNotFound)
}

func TestProcessWritesFeaturePlan(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.SeedUser(t, db, "ada")
	project := testutil.SeedProject(t, db, testutil.SeedTeam(t, db, "Platform", user), "API")
	plan := &models.FeaturePlan{ProjectID: project.ID, RequestedByID: user.ID, Idea: "Dark mode.\nWith a toggle"}
	require.NoError(t, db.Create(plan).Error)

	w := NewAIWorker(db, TemplateSummarizer{}, testutil.Entry())
	require.NoError(t, w.Process(context.Background(), models.AIJobFeaturePlan, plan.ID))

	var got models.FeaturePlan
	require.NoError(t, db.First(&got, plan.ID).Error)
	assert.Equal(t, strings.Join([]string{
		"1. Scope: Dark mode.",
		"2. Break the work into tasks on the API board.",
		"3. Write tests for the new behaviour before wiring it in.",
		"4. Open a code review and assign a reviewer from the team.",
	}, "\n"), got.Plan)
}

func TestMuxRoutesEveryJobKind(t *testing.T) {
	w := NewAIWorker(testutil.NewDB(t), TemplateSummarizer{}, testutil.Entry())
	mux := w.Mux()
	for _, kind := range []models.AIJobKind{
		models.AIJobStandupSummary,
		models.AIJobCodeReviewSuggest,
		models.AIJobTeamVibe,
		models.AIJobFeaturePlan,
	} {
		_, pattern := mux.Handler(asynq.NewTask(string(kind), nil))
		assert.Equal(t, string(kind), pattern)
	}
}

type failingSummarizer struct{ TemplateSummarizer }

func (failingSummarizer) SummarizeStandup(context.Context, *models.Standup) (string, error) {
	return "", errors.New("model overloaded")
}

func TestProcessFailureLeavesSummaryEmpty(t *testing.T) {
	db := testutil.NewDB(t)
	standup := seedStandup(t, db)
	w := NewAIWorker(db, failingSummarizer{}, testutil.Entry())

	require.Error(t, w.Process(context.Background(), models.AIJobStandupSummary, standup.ID))

	var got models.Standup
	require.NoError(t, db.First(&got, standup.ID).Error)
	assert.Empty(t, got.AISummary)

	assert.Error(t, w.Process(context.Background(), "unknown", standup.ID))
}

func TestHandleSkipsRetryForBadJobs(t *testing.T) {
	db := testutil.NewDB(t)
	w := NewAIWorker(db, TemplateSummarizer{}, testutil.Entry())
	h := w.handle(models.AIJobStandupSummary)

	err := h(context.Background(), asynq.NewTask(string(models.AIJobStandupSummary), []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	payload, _ := json.Marshal(jobPayload{ID: 404})
	err = h(context.Background(), asynq.NewTask(string(models.AIJobStandupSummary), payload))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHTTPSummarizer(t *testing.T) {
	var gotAuth string
	var gotReq completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  Shipped auth.  "}`))
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(srv.URL, "secret")
	out, err := s.SummarizeStandup(context.Background(), &models.Standup{YesterdayWork: "auth", TodayPlan: "billing", Mood: models.MoodGood})
	require.NoError(t, err)
	assert.Equal(t, "Shipped auth.", out)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, string(models.AIJobStandupSummary), gotReq.Kind)
	assert.True(t, strings.Contains(gotReq.Prompt, "Yesterday: auth"))
}

func TestTeamAndFeaturePrompts(t *testing.T) {
	team := &models.Team{Name: "Platform"}
	prompt := TeamPrompt(&TeamActivity{
		Team: team,
		Members: []models.TeamMember{
			{Role: models.TeamRoleLeader, User: &models.User{Username: "ada", Profile: &models.DeveloperProfile{CurrentVibe: models.MoodGreat}}},
			{Role: models.TeamRoleDeveloper, User: &models.User{Username: "bob"}},
		},
		Standups: []models.Standup{{
			Date:      time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
			Developer: &models.User{Username: "bob"},
			Mood:      models.MoodStressed,
			TodayPlan: "Billing",
			Blockers:  "Waiting on keys",
		}},
	})
	assert.Contains(t, prompt, "Team: Platform\n")
	assert.Contains(t, prompt, "Member ada (leader): vibe great\n")
	assert.Contains(t, prompt, "Member bob (developer): vibe good\n")
	assert.Contains(t, prompt, "Standup 2024-05-06 by bob, mood stressed: Billing (blocked: Waiting on keys)\n")

	prompt = FeaturePrompt(&models.FeaturePlan{Idea: "dark mode", Project: &models.Project{Name: "API"}})
	assert.Contains(t, prompt, "Project: API\nIdea: dark mode\n")
}

func TestHTTPSummarizerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "empty") {
			_, _ = w.Write([]byte(`{"text":""}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	review := &models.CodeReview{Title: "t", Description: "d"}
	_, err := NewHTTPSummarizer(srv.URL+"/empty", "").ReviewCode(context.Background(), review)
	assert.EqualError(t, err, "summarizer returned empty text")

	_, err = NewHTTPSummarizer(srv.URL+"/bad", "").ReviewCode(context.Background(), review)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestInviteSweeper(t *testing.T) {
	calls := 0
	s := NewInviteSweeper("", func(context.Context) (int64, error) {
		calls++
		if calls == 2 {
			return 0, errors.New("db down")
		}
		return 3, nil
	}, testutil.Entry())

	assert.Equal(t, "@every 1h", s.spec)
	s.Sweep()
	s.Sweep()
	assert.Equal(t, 2, calls)

	require.Error(t, NewInviteSweeper("not a schedule", nil, testutil.Entry()).Start())
}
