// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"devsync/models"
	"devsync/utils"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// NewDB opens a private in-memory sqlite database with the full schema.
// A single connection keeps the memory database alive and serialises writes,
// so code under test must use the transaction handle inside transactions.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:devsync_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

// Logger returns a logger whose output is captured by the returned hook.
func Logger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

// Entry is a component logger discarding its output.
func Entry() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return utils.Component(l, "test")
}

func SeedUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// SeedTeam creates a team led by leader.
func SeedTeam(t testing.TB, db *gorm.DB, name string, leader *models.User) *models.Team {
	t.Helper()
	team := &models.Team{Name: name, Type: models.TeamTypeGroup, CreatorID: leader.ID, IsActive: true}
	require.NoError(t, db.Create(team).Error)
	AddTeamMember(t, db, team, leader, models.TeamRoleLeader)
	return team
}

func AddTeamMember(t testing.TB, db *gorm.DB, team *models.Team, user *models.User, role models.TeamRole) *models.TeamMember {
	t.Helper()
	member := &models.TeamMember{TeamID: team.ID, UserID: user.ID, Role: role}
	require.NoError(t, db.Create(member).Error)
	return member
}

// SeedProject creates a project with its scaffold, without any project members.
func SeedProject(t testing.TB, db *gorm.DB, team *models.Team, name string) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, Type: models.ProjectBackend, TeamID: team.ID}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("TaskBoard", "AITracker", "ReviewInbox").Create(project).Error; err != nil {
			return err
		}
		return models.CreateProjectScaffold(tx, project)
	}))
	return project
}

func AddProjectMember(t testing.TB, db *gorm.DB, project *models.Project, user *models.User, role models.ProjectRole) *models.ProjectMember {
	t.Helper()
	member := &models.ProjectMember{ProjectID: project.ID, UserID: user.ID, Role: role}
	require.NoError(t, db.Create(member).Error)
	return member
}

// FakeMailer records sent mail and fails for addresses listed in Fail.
type FakeMailer struct {
	mu   sync.Mutex
	Sent []utils.EmailData
	Fail map[string]error
}

func (m *FakeMailer) Send(_ context.Context, data utils.EmailData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, to := range data.To {
		if err := m.Fail[to]; err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, data)
	return nil
}

// Job is one recorded dispatch.
type Job struct {
	Kind models.AIJobKind
	ID   uint
}

// FakeDispatcher records enqueued jobs, returning Err when set.
type FakeDispatcher struct {
	mu   sync.Mutex
	Jobs []Job
	Err  error
}

func (d *FakeDispatcher) Enqueue(_ context.Context, kind models.AIJobKind, id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.Jobs = append(d.Jobs, Job{Kind: kind, ID: id})
	return nil
}
