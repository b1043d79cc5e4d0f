package services_test

import (
	"errors"
	"testing"
	"time"

	"devsync/models"
	"devsync/services"
	"devsync/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateTeamMakesCreatorOnlineLeader(t *testing.T) {
	e := newEnv(t)
	creator := testutil.SeedUser(t, e.db, "creator")

	team, err := e.svc.Teams.Create(ctx, creator, services.CreateTeamInput{Name: " Core ", Type: "group"})
	require.NoError(t, err)
	assert.Equal(t, "Core", team.Name)
	assert.Equal(t, models.TeamTypeGroup, team.Type)
	assert.True(t, models.IsValidInviteCode(team.InviteCode))

	var member models.TeamMember
	require.NoError(t, e.db.Where("team_id = ? AND user_id = ?", team.ID, creator.ID).First(&member).Error)
	assert.Equal(t, models.TeamRoleLeader, member.Role)
	assert.Equal(t, models.MemberOnline, member.Status)

	assert.Equal(t, []string{models.ActionCreatedTeam}, e.activities(t))
}

func TestCreateTeamDuplicateNameIsFieldError(t *testing.T) {
	e := newEnv(t)
	creator := testutil.SeedUser(t, e.db, "creator")
	_, err := e.svc.Teams.Create(ctx, creator, services.CreateTeamInput{Name: "Core"})
	require.NoError(t, err)

	_, err = e.svc.Teams.Create(ctx, creator, services.CreateTeamInput{Name: "Core"})
	var fe *models.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "name", fe.Field)
	assert.ErrorIs(t, err, models.ErrConflict)

	var teams int64
	require.NoError(t, e.db.Model(&models.Team{}).Count(&teams).Error)
	assert.EqualValues(t, 1, teams)
}

func TestCreateTeamInviteCodeCollisionIsConflict(t *testing.T) {
	e := newEnv(t)
	creator := testutil.SeedUser(t, e.db, "creator")
	e.svc.Teams.InviteCodes = func() (string, error) { return "AAAA1111", nil }

	_, err := e.svc.Teams.Create(ctx, creator, services.CreateTeamInput{Name: "One"})
	require.NoError(t, err)

	_, err = e.svc.Teams.Create(ctx, creator, services.CreateTeamInput{Name: "Two"})
	require.ErrorIs(t, err, models.ErrConflict)
	var fe *models.FieldError
	assert.False(t, errors.As(err, &fe))
}

func TestCreateTeamRejectsUnknownType(t *testing.T) {
	e := newEnv(t)
	creator := testutil.SeedUser(t, e.db, "creator")
	_, err := e.svc.Teams.Create(ctx, creator, services.CreateTeamInput{Name: "X", Type: "tribe"})
	assert.ErrorIs(t, err, models.ErrInvalidEnum)
}

func TestListSeparatesCreatedAndJoinedTeams(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	other := testutil.SeedUser(t, e.db, "other")
	own, err := e.svc.Teams.Create(ctx, f.developer, services.CreateTeamInput{Name: "Side"})
	require.NoError(t, err)
	testutil.SeedTeam(t, e.db, "Unrelated", other)

	list, err := e.svc.Teams.List(ctx, f.developer)
	require.NoError(t, err)
	require.Len(t, list.Created, 1)
	assert.Equal(t, own.ID, list.Created[0].ID)
	require.Len(t, list.Member, 1)
	assert.Equal(t, f.team.ID, list.Member[0].ID)
}

func TestTeamGetRequiresMembership(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)

	detail, err := e.svc.Teams.Get(ctx, f.leader, f.team.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsLeader)
	assert.True(t, detail.CanEdit)
	assert.Len(t, detail.Members, 5)

	detail, err = e.svc.Teams.Get(ctx, f.developer, f.team.ID)
	require.NoError(t, err)
	assert.False(t, detail.CanEdit)

	_, err = e.svc.Teams.Get(ctx, f.outsider, f.team.ID)
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	_, err = e.svc.Teams.Get(ctx, f.leader, 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTeamUpdateIsLeaderOnly(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	name := "Renamed"

	_, err := e.svc.Teams.Update(ctx, f.developer, f.team.ID, services.UpdateTeamInput{Name: &name})
	require.ErrorIs(t, err, models.ErrPermissionDenied)

	team, err := e.svc.Teams.Update(ctx, f.leader, f.team.ID, services.UpdateTeamInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", team.Name)
	assert.Equal(t, f.team.InviteCode, team.InviteCode)
	assert.Equal(t, []string{models.ActionUpdatedTeam}, e.activities(t))
}

func TestTeamDeleteCascades(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)

	require.ErrorIs(t, e.svc.Teams.Delete(ctx, f.maintainer, f.team.ID), models.ErrPermissionDenied)
	require.NoError(t, e.svc.Teams.Delete(ctx, f.leader, f.team.ID))

	for _, model := range []any{&models.Team{}, &models.TeamMember{}, &models.Project{}, &models.ProjectMember{}, &models.TaskBoard{}, &models.TaskColumn{}} {
		var n int64
		require.NoError(t, e.db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}
}

func TestAddMemberByAdminOrLeader(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	admin := testutil.SeedUser(t, e.db, "admin")
	testutil.AddTeamMember(t, e.db, f.team, admin, models.TeamRoleAdmin)
	newcomer := testutil.SeedUser(t, e.db, "newcomer")

	_, err := e.svc.Teams.AddMember(ctx, f.developer, f.team.ID, services.AddMemberInput{Email: newcomer.Email, Role: "developer"})
	require.ErrorIs(t, err, models.ErrPermissionDenied)

	member, err := e.svc.Teams.AddMember(ctx, admin, f.team.ID, services.AddMemberInput{Email: newcomer.Email, Role: "Reviewer"})
	require.NoError(t, err)
	assert.Equal(t, models.TeamRoleReviewer, member.Role)

	_, err = e.svc.Teams.AddMember(ctx, f.leader, f.team.ID, services.AddMemberInput{Email: newcomer.Email, Role: "developer"})
	assert.ErrorIs(t, err, models.ErrAlreadyMember)

	second := testutil.SeedUser(t, e.db, "second")
	_, err = e.svc.Teams.AddMember(ctx, f.leader, f.team.ID, services.AddMemberInput{Email: second.Email, Role: "leader"})
	var roleErr *models.FieldError
	require.ErrorAs(t, err, &roleErr)
	assert.Equal(t, "role", roleErr.Field)
	ok, err := f.team.IsMember(e.db, second.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = e.svc.Teams.AddMember(ctx, f.leader, f.team.ID, services.AddMemberInput{Email: "ghost@example.com", Role: "developer"})
	var fe *models.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "email", fe.Field)

	assert.Equal(t, []string{models.ActionAddedTeamMember}, e.activities(t))
}

func TestRemoveMember(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)

	err := e.svc.Teams.RemoveMember(ctx, f.leader, f.team.ID, f.leader.ID)
	require.ErrorIs(t, err, models.ErrLeaderRemoval)

	err = e.svc.Teams.RemoveMember(ctx, f.maintainer, f.team.ID, f.developer.ID)
	require.ErrorIs(t, err, models.ErrPermissionDenied)

	require.NoError(t, e.svc.Teams.RemoveMember(ctx, f.leader, f.team.ID, f.developer.ID))
	ok, err := f.team.IsMember(e.db, f.developer.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	err = e.svc.Teams.RemoveMember(ctx, f.leader, f.team.ID, f.developer.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInviteReportsPerRecipientFailures(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	e.mailer.Fail = map[string]error{"down@example.com": errors.New("smtp: 451")}

	report, err := e.svc.Teams.Invite(ctx, f.leader, f.team.ID, []string{"a@example.com", "not-an-email", "down@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Results, 3)
	assert.True(t, report.Results[0].Sent)
	assert.Equal(t, "invalid email address", report.Results[1].Error)
	assert.Equal(t, "failed to send email", report.Results[2].Error)

	require.Len(t, e.mailer.Sent, 1)
	msg := e.mailer.Sent[0]
	assert.Equal(t, []string{"a@example.com"}, msg.To)
	assert.Equal(t, "Invitation to join Platform on DevSync", msg.Subject)
	assert.Contains(t, msg.Text, f.team.InviteCode)
	assert.Contains(t, msg.HTML, "https://devsync.test/teams/join?code="+f.team.InviteCode)

	// the failed delivery still leaves a pending invite behind
	var invites []models.TeamInvite
	require.NoError(t, e.db.Where("team_id = ?", f.team.ID).Order("email").Find(&invites).Error)
	require.Len(t, invites, 2)
	assert.Equal(t, "a@example.com", invites[0].Email)
	assert.Equal(t, "down@example.com", invites[1].Email)

	assert.Equal(t, []string{models.ActionInvitedMembers}, e.activities(t))
}

func TestInviteIsLeaderOnly(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	_, err := e.svc.Teams.Invite(ctx, f.maintainer, f.team.ID, []string{"a@example.com"})
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	_, err = e.svc.Teams.Invite(ctx, f.leader, f.team.ID, nil)
	var fe *models.FieldError
	assert.ErrorAs(t, err, &fe)
}

func TestReinviteResetsToPendingWithFreshExpiry(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.svc.Teams.Now = fixedClock(start)

	_, err := e.svc.Teams.Invite(ctx, f.leader, f.team.ID, []string{"again@example.com"})
	require.NoError(t, err)
	require.NoError(t, e.db.Session(&gorm.Session{SkipHooks: true}).Model(&models.TeamInvite{}).
		Where("email = ?", "again@example.com").
		Update("status", models.InviteDeclined).Error)

	later := start.Add(48 * time.Hour)
	e.svc.Teams.Now = fixedClock(later)
	_, err = e.svc.Teams.Invite(ctx, f.leader, f.team.ID, []string{"again@example.com"})
	require.NoError(t, err)

	var invites []models.TeamInvite
	require.NoError(t, e.db.Where("email = ?", "again@example.com").Find(&invites).Error)
	require.Len(t, invites, 1)
	assert.Equal(t, models.InvitePending, invites[0].Status)
	assert.WithinDuration(t, later.Add(models.InviteTTL), invites[0].ExpiresAt, time.Second)
}

// joinState counts the team's members and reads the invite status for email
// ("" when there is no invite).
func (e *env) joinState(t *testing.T, teamID uint, email string) (int64, models.InviteStatus) {
	t.Helper()
	var members int64
	require.NoError(t, e.db.Model(&models.TeamMember{}).Where("team_id = ?", teamID).Count(&members).Error)
	var invites []models.TeamInvite
	require.NoError(t, e.db.Where("team_id = ? AND email = ?", teamID, email).Find(&invites).Error)
	if len(invites) == 0 {
		return members, ""
	}
	return members, invites[0].Status
}

func TestJoin(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.svc.Teams.Now = fixedClock(now)
	joiner := testutil.SeedUser(t, e.db, "joiner")
	membersBefore, _ := e.joinState(t, f.team.ID, joiner.Email)

	_, err := e.svc.Teams.Join(ctx, joiner, "")
	assert.ErrorIs(t, err, models.ErrInvalidInviteCode)
	_, err = e.svc.Teams.Join(ctx, joiner, "NOPE0000")
	assert.ErrorIs(t, err, models.ErrInvalidInviteCode)

	_, err = e.svc.Teams.Join(ctx, joiner, f.team.InviteCode)
	assert.ErrorIs(t, err, models.ErrInviteNotFound)

	members, status := e.joinState(t, f.team.ID, joiner.Email)
	assert.Equal(t, membersBefore, members)
	assert.Empty(t, status)

	_, err = e.svc.Teams.Invite(ctx, f.leader, f.team.ID, []string{joiner.Email})
	require.NoError(t, err)

	team, err := e.svc.Teams.Join(ctx, joiner, " "+f.team.InviteCode+" ")
	require.NoError(t, err)
	assert.Equal(t, f.team.ID, team.ID)

	var member models.TeamMember
	require.NoError(t, e.db.Where("team_id = ? AND user_id = ?", f.team.ID, joiner.ID).First(&member).Error)
	assert.Equal(t, models.TeamRoleMember, member.Role)

	var invite models.TeamInvite
	require.NoError(t, e.db.Where("email = ?", joiner.Email).First(&invite).Error)
	assert.Equal(t, models.InviteAccepted, invite.Status)

	assert.Equal(t, []string{models.ActionInvitedMembers, models.ActionJoinedTeam}, e.activities(t))
}

func TestJoinExpiredInvite(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.svc.Teams.Now = fixedClock(now)
	joiner := testutil.SeedUser(t, e.db, "late")

	_, err := e.svc.Teams.Invite(ctx, f.leader, f.team.ID, []string{joiner.Email})
	require.NoError(t, err)

	membersBefore, _ := e.joinState(t, f.team.ID, joiner.Email)

	e.svc.Teams.Now = fixedClock(now.Add(models.InviteTTL + time.Minute))
	_, err = e.svc.Teams.Join(ctx, joiner, f.team.InviteCode)
	assert.ErrorIs(t, err, models.ErrInviteExpired)

	members, status := e.joinState(t, f.team.ID, joiner.Email)
	assert.Equal(t, membersBefore, members)
	assert.Equal(t, models.InvitePending, status)

	n, err := e.svc.Teams.ExpireInvites(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestJoinInactiveTeam(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	joiner := testutil.SeedUser(t, e.db, "joiner")
	_, err := e.svc.Teams.Invite(ctx, f.leader, f.team.ID, []string{joiner.Email})
	require.NoError(t, err)

	require.NoError(t, e.db.Session(&gorm.Session{SkipHooks: true}).Model(&models.Team{}).
		Where("id = ?", f.team.ID).
		Update("is_active", false).Error)
	membersBefore, _ := e.joinState(t, f.team.ID, joiner.Email)

	_, err = e.svc.Teams.Join(ctx, joiner, f.team.InviteCode)
	assert.ErrorIs(t, err, models.ErrInvalidInviteCode)

	members, status := e.joinState(t, f.team.ID, joiner.Email)
	assert.Equal(t, membersBefore, members)
	assert.Equal(t, models.InvitePending, status)
}

func TestJoinWhenAlreadyMember(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	_, err := e.svc.Teams.Invite(ctx, f.leader, f.team.ID, []string{f.developer.Email})
	require.NoError(t, err)

	membersBefore, _ := e.joinState(t, f.team.ID, f.developer.Email)

	_, err = e.svc.Teams.Join(ctx, f.developer, f.team.InviteCode)
	assert.ErrorIs(t, err, models.ErrAlreadyMember)

	members, status := e.joinState(t, f.team.ID, f.developer.Email)
	assert.Equal(t, membersBefore, members)
	assert.Equal(t, models.InvitePending, status)
}

func TestUpdateStatus(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)

	member, err := e.svc.Teams.UpdateStatus(ctx, f.developer, f.team.ID, "away")
	require.NoError(t, err)
	assert.Equal(t, models.MemberAway, member.Status)

	_, err = e.svc.Teams.UpdateStatus(ctx, f.developer, f.team.ID, "asleep")
	assert.ErrorIs(t, err, models.ErrInvalidEnum)

	_, err = e.svc.Teams.UpdateStatus(ctx, f.outsider, f.team.ID, "online")
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	assert.Empty(t, e.activities(t))
}

func TestAnalyzeVibe(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(t)
	require.NoError(t, e.db.Model(&models.Team{}).Where("id = ?", f.team.ID).UpdateColumn("vibe_summary", "stale").Error)

	err := e.svc.Teams.AnalyzeVibe(ctx, f.outsider, f.team.ID)
	require.ErrorIs(t, err, models.ErrPermissionDenied)
	assert.Empty(t, e.dispatcher.Jobs)

	require.NoError(t, e.svc.Teams.AnalyzeVibe(ctx, f.developer, f.team.ID))
	assert.Equal(t, []testutil.Job{{Kind: models.AIJobTeamVibe, ID: f.team.ID}}, e.dispatcher.Jobs)

	var team models.Team
	require.NoError(t, e.db.First(&team, f.team.ID).Error)
	assert.Empty(t, team.VibeSummary)
	assert.Equal(t, f.team.InviteCode, team.InviteCode)

	assert.ErrorIs(t, e.svc.Teams.AnalyzeVibe(ctx, f.leader, 9999), models.ErrNotFound)
}
