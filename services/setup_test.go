package services_test

import (
	"context"
	"testing"
	"time"

	"devsync/models"
	"devsync/services"
	"devsync/testutil"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

type env struct {
	db         *gorm.DB
	svc        *services.Services
	mailer     *testutil.FakeMailer
	dispatcher *testutil.FakeDispatcher
	hub        *services.ActivityHub
	logs       *test.Hook
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	logger, hook := testutil.Logger()
	e := &env{
		db:         db,
		mailer:     &testutil.FakeMailer{},
		dispatcher: &testutil.FakeDispatcher{},
		hub:        services.NewActivityHub(),
		logs:       hook,
	}
	e.svc = services.New(services.Deps{
		DB:         db,
		Logger:     logger,
		Mailer:     e.mailer,
		Dispatcher: e.dispatcher,
		Hub:        e.hub,
		BaseURL:    "https://devsync.test/",
	})
	return e
}

// activities returns the actions logged so far, oldest first.
func (e *env) activities(t *testing.T) []string {
	t.Helper()
	var entries []models.ActivityLog
	require.NoError(t, e.db.Order("id").Find(&entries).Error)
	out := make([]string, len(entries))
	for i, a := range entries {
		out[i] = a.Action
	}
	return out
}

// fixture is a team with a leader, a project and a few members in known roles.
type fixture struct {
	leader, maintainer, contributor, reviewer, developer, outsider *models.User
	team                                                           *models.Team
	project                                                        *models.Project
}

func (e *env) fixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	f.leader = testutil.SeedUser(t, e.db, "leader")
	f.team = testutil.SeedTeam(t, e.db, "Platform", f.leader)
	f.project = testutil.SeedProject(t, e.db, f.team, "API")

	member := func(name string, role models.ProjectRole) *models.User {
		u := testutil.SeedUser(t, e.db, name)
		testutil.AddTeamMember(t, e.db, f.team, u, models.TeamRoleDeveloper)
		if role != "" {
			testutil.AddProjectMember(t, e.db, f.project, u, role)
		}
		return u
	}
	f.maintainer = member("maintainer", models.ProjectRoleMaintainer)
	f.contributor = member("contributor", models.ProjectRoleContributor)
	f.reviewer = member("reviewer", models.ProjectRoleReviewer)
	f.developer = member("developer", "")
	f.outsider = testutil.SeedUser(t, e.db, "outsider")
	return f
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
