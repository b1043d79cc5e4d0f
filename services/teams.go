package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devsync/models"
	"devsync/utils"

	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TeamService struct {
	db         *gorm.DB
	activity   *ActivityLogger
	mailer     utils.Mailer
	dispatcher Dispatcher
	baseURL    string
	log        *logrus.Entry

	// InviteCodes produces the code for a new team.
	InviteCodes func() (string, error)
	// Now is the clock used for invite expiry.
	Now func() time.Time
}

func NewTeamService(db *gorm.DB, activity *ActivityLogger, mailer utils.Mailer, dispatcher Dispatcher, baseURL string, log *logrus.Entry) *TeamService {
	return &TeamService{
		db:          db,
		activity:    activity,
		mailer:      mailer,
		dispatcher:  dispatcher,
		baseURL:     strings.TrimRight(baseURL, "/"),
		log:         log,
		InviteCodes: models.GenerateInviteCode,
		Now:         time.Now,
	}
}

type CreateTeamInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Type        string `json:"team_type" validate:"omitempty,oneof=individual group"`
}

type UpdateTeamInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	Type        *string `json:"team_type" validate:"omitempty,oneof=individual group"`
	IsActive    *bool   `json:"is_active"`
}

type AddMemberInput struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

// teamWriteError turns uniqueness failures on teams into caller-facing errors.
func teamWriteError(err error) error {
	constraint, ok := models.UniqueViolation(err)
	if !ok {
		return models.TranslateError(err)
	}
	switch {
	case strings.Contains(constraint, "invite_code"):
		return fmt.Errorf("%w: invite code collision, please retry", models.ErrConflict)
	case strings.Contains(constraint, "name"):
		return &models.FieldError{
			Field:   "name",
			Message: "A team with this name already exists. Please choose a different name.",
			Err:     models.ErrConflict,
		}
	}
	return models.TranslateError(err)
}

// Create inserts the team and its leader membership together.
func (s *TeamService) Create(ctx context.Context, actor *models.User, in CreateTeamInput) (*models.Team, error) {
	teamType := models.TeamTypeIndividual
	if in.Type != "" {
		t, err := models.ParseTeamType(in.Type)
		if err != nil {
			return nil, err
		}
		teamType = t
	}
	code, err := s.InviteCodes()
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}

	team := &models.Team{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        teamType,
		CreatorID:   actor.ID,
		InviteCode:  code,
		IsActive:    true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		return tx.Create(&models.TeamMember{
			TeamID: team.ID,
			UserID: actor.ID,
			Role:   models.TeamRoleLeader,
			Status: models.MemberOnline,
		}).Error
	})
	if err != nil {
		return nil, teamWriteError(err)
	}

	s.activity.Record(ctx, actor, teamActivity(models.ActionCreatedTeam, team, ""))
	return team, nil
}

func (s *TeamService) load(ctx context.Context, id uint) (*models.Team, error) {
	return findByID[models.Team](s.db.WithContext(ctx), id)
}

type teamCheck func(t *models.Team, db *gorm.DB, userID uint) (bool, error)

func (s *TeamService) loadWith(ctx context.Context, actor *models.User, id uint, check teamCheck, msg string) (*models.Team, error) {
	team, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := check(team, s.db.WithContext(ctx), actor.ID)
	if err != nil {
		return nil, models.TranslateError(err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrPermissionDenied, msg)
	}
	return team, nil
}

type TeamList struct {
	Created []models.Team `json:"created_teams"`
	Member  []models.Team `json:"member_teams"`
}

// List returns teams the actor created and teams the actor joined separately.
func (s *TeamService) List(ctx context.Context, actor *models.User) (*TeamList, error) {
	db := s.db.WithContext(ctx)
	out := &TeamList{Created: []models.Team{}, Member: []models.Team{}}
	if err := db.Where("creator_id = ?", actor.ID).Order("created_at DESC").Find(&out.Created).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	err := db.Where("id IN (?) AND creator_id <> ?",
		db.Model(&models.TeamMember{}).Select("team_id").Where("user_id = ?", actor.ID), actor.ID).
		Order("created_at DESC").
		Find(&out.Member).Error
	if err != nil {
		return nil, models.TranslateError(err)
	}
	return out, nil
}

type TeamDetail struct {
	Team       *models.Team         `json:"team"`
	Members    []models.TeamMember  `json:"members"`
	Projects   []models.Project     `json:"projects"`
	Activities []models.ActivityLog `json:"recent_activities"`
	CanEdit    bool                 `json:"can_edit"`
	IsLeader   bool                 `json:"is_leader"`
}

func (s *TeamService) Get(ctx context.Context, actor *models.User, id uint) (*TeamDetail, error) {
	team, err := s.loadWith(ctx, actor, id, (*models.Team).IsMember, "you are not a member of this team")
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	detail := &TeamDetail{Team: team}
	if err := db.Preload("User").Where("team_id = ?", team.ID).Order("created_at").Find(&detail.Members).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	if err := db.Where("team_id = ?", team.ID).Order("created_at DESC").Find(&detail.Projects).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	err = db.Preload("User").Preload("Project").
		Where("project_id IN (?)", db.Model(&models.Project{}).Select("id").Where("team_id = ?", team.ID)).
		Or("target_type = ? AND target_id = ?", models.TargetTeam, team.ID).
		Order("timestamp DESC").Order("id DESC").
		Limit(10).
		Find(&detail.Activities).Error
	if err != nil {
		return nil, models.TranslateError(err)
	}
	for _, m := range detail.Members {
		if m.UserID != actor.ID {
			continue
		}
		detail.CanEdit = m.Role == models.TeamRoleAdmin || m.Role == models.TeamRoleLeader
		detail.IsLeader = m.Role == models.TeamRoleLeader
	}
	return detail, nil
}

func (s *TeamService) Update(ctx context.Context, actor *models.User, id uint, in UpdateTeamInput) (*models.Team, error) {
	team, err := s.loadWith(ctx, actor, id, (*models.Team).IsLeader, "only the team leader can edit the team")
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Type != nil {
		t, err := models.ParseTeamType(*in.Type)
		if err != nil {
			return nil, err
		}
		updates["team_type"] = t
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		return team, nil
	}
	if err := s.db.WithContext(ctx).Model(team).Updates(updates).Error; err != nil {
		return nil, teamWriteError(err)
	}
	if err := s.db.WithContext(ctx).First(team, team.ID).Error; err != nil {
		return nil, models.TranslateError(err)
	}

	s.activity.Record(ctx, actor, teamActivity(models.ActionUpdatedTeam, team, ""))
	return team, nil
}

// Delete removes the team; projects and memberships cascade.
func (s *TeamService) Delete(ctx context.Context, actor *models.User, id uint) error {
	team, err := s.loadWith(ctx, actor, id, (*models.Team).IsLeader, "only the team leader can delete the team")
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Team{}, team.ID).Error; err != nil {
		return models.TranslateError(err)
	}
	s.activity.Record(ctx, actor, teamActivity(models.ActionDeletedTeam, team, ""))
	return nil
}

func (s *TeamService) Members(ctx context.Context, actor *models.User, id uint) ([]models.TeamMember, error) {
	team, err := s.loadWith(ctx, actor, id, (*models.Team).IsMember, "you are not a member of this team")
	if err != nil {
		return nil, err
	}
	var members []models.TeamMember
	if err := s.db.WithContext(ctx).Preload("User").Where("team_id = ?", team.ID).Order("created_at").Find(&members).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	return members, nil
}

// AddMember adds an existing user by email with any role except leader.
func (s *TeamService) AddMember(ctx context.Context, actor *models.User, teamID uint, in AddMemberInput) (*models.TeamMember, error) {
	team, err := s.loadWith(ctx, actor, teamID, (*models.Team).CanManage, "only team admins can add members")
	if err != nil {
		return nil, err
	}
	role, err := models.ParseTeamRole(in.Role)
	if err != nil {
		return nil, err
	}
	// the creator is the only leader and leaders cannot be removed
	if role == models.TeamRoleLeader {
		return nil, &models.FieldError{Field: "role", Message: "the leader role cannot be assigned"}
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(in.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.FieldError{Field: "email", Message: "No user found with this email address", Err: models.ErrNotFound}
		}
		return nil, models.TranslateError(err)
	}

	member := &models.TeamMember{TeamID: team.ID, UserID: user.ID, Role: role, Status: models.MemberOffline}
	if err := s.db.WithContext(ctx).Create(member).Error; err != nil {
		if _, dup := models.UniqueViolation(err); dup {
			return nil, models.ErrAlreadyMember
		}
		return nil, models.TranslateError(err)
	}
	member.User = &user

	s.activity.Record(ctx, actor, teamActivity(models.ActionAddedTeamMember, team,
		fmt.Sprintf("added %s as %s", user.DisplayName(), role)))
	return member, nil
}

// RemoveMember deletes a membership. Leaders cannot be removed.
func (s *TeamService) RemoveMember(ctx context.Context, actor *models.User, teamID, userID uint) error {
	team, err := s.loadWith(ctx, actor, teamID, (*models.Team).IsLeader, "only the team leader can remove members")
	if err != nil {
		return err
	}
	var member models.TeamMember
	if err := s.db.WithContext(ctx).Preload("User").Where("team_id = ? AND user_id = ?", team.ID, userID).First(&member).Error; err != nil {
		return models.TranslateError(err)
	}
	if member.Role == models.TeamRoleLeader {
		return models.ErrLeaderRemoval
	}
	if err := s.db.WithContext(ctx).Delete(&member).Error; err != nil {
		return models.TranslateError(err)
	}

	name := fmt.Sprintf("user #%d", userID)
	if member.User != nil {
		name = member.User.DisplayName()
	}
	s.activity.Record(ctx, actor, teamActivity(models.ActionRemovedTeamMember, team, "removed "+name))
	return nil
}

type InviteResult struct {
	Email string `json:"email"`
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

type InviteReport struct {
	Results []InviteResult `json:"results"`
	Sent    int            `json:"sent"`
	Failed  int            `json:"failed"`
}

func (r *InviteReport) add(res InviteResult) {
	r.Results = append(r.Results, res)
	if res.Sent {
		r.Sent++
	} else {
		r.Failed++
	}
}

// Invite upserts a pending invite per email and mails each recipient.
// A failure for one recipient is reported and the batch continues.
func (s *TeamService) Invite(ctx context.Context, actor *models.User, teamID uint, emails []string) (*InviteReport, error) {
	team, err := s.loadWith(ctx, actor, teamID, (*models.Team).IsLeader, "only the team leader can invite members")
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, &models.FieldError{Field: "emails", Message: "at least one email is required"}
	}

	report := &InviteReport{}
	var invited []string
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if err := checkmail.ValidateFormat(email); err != nil {
			report.add(InviteResult{Email: email, Error: "invalid email address"})
			continue
		}
		if _, err := s.upsertInvite(ctx, actor, team, email); err != nil {
			utils.CaptureError(s.log, "invite_upsert", err, map[string]interface{}{"team_id": team.ID, "email": email})
			report.add(InviteResult{Email: email, Error: "could not record invite"})
			continue
		}
		invited = append(invited, email)
		if err := s.sendInvite(ctx, actor, team, email); err != nil {
			utils.InviteEmails.WithLabelValues("failed").Inc()
			s.log.WithError(err).WithFields(logrus.Fields{"team_id": team.ID, "email": email}).Warn("Failed to send invite email")
			report.add(InviteResult{Email: email, Error: "failed to send email"})
			continue
		}
		utils.InviteEmails.WithLabelValues("sent").Inc()
		report.add(InviteResult{Email: email, Sent: true})
	}

	if len(invited) > 0 {
		s.activity.Record(ctx, actor, teamActivity(models.ActionInvitedMembers, team, strings.Join(invited, ", ")))
	}
	return report, nil
}

func (s *TeamService) upsertInvite(ctx context.Context, actor *models.User, team *models.Team, email string) (*models.TeamInvite, error) {
	var invite models.TeamInvite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("team_id = ? AND email = ?", team.ID, email).First(&invite).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			invite = models.TeamInvite{
				TeamID:      team.ID,
				Email:       email,
				InviteCode:  team.InviteCode,
				Status:      models.InvitePending,
				CreatedByID: actor.ID,
				ExpiresAt:   s.Now().Add(models.InviteTTL),
			}
			return tx.Create(&invite).Error
		case err != nil:
			return err
		}
		invite.Status = models.InvitePending
		invite.CreatedByID = actor.ID
		invite.InviteCode = team.InviteCode
		invite.ExpiresAt = s.Now().Add(models.InviteTTL)
		return tx.Omit("Team", "CreatedBy").Save(&invite).Error
	})
	return &invite, err
}

func (s *TeamService) sendInvite(ctx context.Context, actor *models.User, team *models.Team, email string) error {
	msg, err := utils.InviteEmail(email, utils.InviteEmailData{
		TeamName:        team.Name,
		TeamDescription: team.Description,
		InviterName:     actor.DisplayName(),
		InviteCode:      team.InviteCode,
		JoinURL:         s.baseURL + "/teams/join?code=" + team.InviteCode,
		ExpiresIn:       utils.FormatDuration(models.InviteTTL),
	})
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

func (s *TeamService) PendingInvites(ctx context.Context, actor *models.User, teamID uint) ([]models.TeamInvite, error) {
	team, err := s.loadWith(ctx, actor, teamID, (*models.Team).IsLeader, "only the team leader can view invites")
	if err != nil {
		return nil, err
	}
	var invites []models.TeamInvite
	err = s.db.WithContext(ctx).
		Where("team_id = ? AND status = ?", team.ID, models.InvitePending).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, models.TranslateError(err)
}

// Join accepts the actor's pending invite for the team owning code.
func (s *TeamService) Join(ctx context.Context, actor *models.User, code string) (*models.Team, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, models.ErrInvalidInviteCode
	}
	db := s.db.WithContext(ctx)

	var team models.Team
	if err := db.Where("invite_code = ? AND is_active = ?", code, true).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrInvalidInviteCode
		}
		return nil, models.TranslateError(err)
	}

	var invite models.TeamInvite
	err := db.Where("team_id = ? AND email = ? AND status = ?", team.ID, actor.Email, models.InvitePending).First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrInviteNotFound
		}
		return nil, models.TranslateError(err)
	}
	if invite.IsExpired(s.Now()) {
		return nil, models.ErrInviteExpired
	}

	member, err := team.IsMember(db, actor.ID)
	if err != nil {
		return nil, models.TranslateError(err)
	}
	if member {
		return nil, models.ErrAlreadyMember
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.TeamMember{
			TeamID: team.ID,
			UserID: actor.ID,
			Role:   models.TeamRoleMember,
			Status: models.MemberOnline,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&invite).Omit("Team", "CreatedBy").Update("status", models.InviteAccepted).Error
	})
	if err != nil {
		if _, dup := models.UniqueViolation(err); dup {
			return nil, models.ErrAlreadyMember
		}
		return nil, models.TranslateError(err)
	}

	s.activity.Record(ctx, actor, teamActivity(models.ActionJoinedTeam, &team, ""))
	return &team, nil
}

// ExpireInvites marks overdue pending invites as expired.
func (s *TeamService) ExpireInvites(ctx context.Context) (int64, error) {
	n, err := models.ExpirePendingInvites(s.db.WithContext(ctx), s.Now())
	if err != nil {
		return 0, models.TranslateError(err)
	}
	if n > 0 {
		utils.InvitesExpired.Add(float64(n))
	}
	return n, nil
}

// UpdateStatus sets the actor's own presence in the team.
func (s *TeamService) UpdateStatus(ctx context.Context, actor *models.User, teamID uint, status string) (*models.TeamMember, error) {
	st, err := models.ParseMemberStatus(status)
	if err != nil {
		return nil, err
	}
	var member models.TeamMember
	db := s.db.WithContext(ctx)
	if err := db.Where("team_id = ? AND user_id = ?", teamID, actor.ID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: you are not a member of this team", models.ErrPermissionDenied)
		}
		return nil, models.TranslateError(err)
	}
	if err := db.Model(&member).Omit("User").Update("status", st).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	member.Status = st
	return &member, nil
}

// AnalyzeVibe clears the team's vibe summary and queues a fresh analysis.
// Any member may ask for one.
func (s *TeamService) AnalyzeVibe(ctx context.Context, actor *models.User, teamID uint) error {
	team, err := s.loadWith(ctx, actor, teamID, (*models.Team).IsMember, "you are not a member of this team")
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", team.ID).
		Session(&gorm.Session{SkipHooks: true}).
		Update("vibe_summary", "").Error
	if err != nil {
		return models.TranslateError(err)
	}
	enqueue(ctx, s.dispatcher, s.log, models.AIJobTeamVibe, team.ID)
	return nil
}
