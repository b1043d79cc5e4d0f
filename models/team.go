package models

import (
	"time"

	"gorm.io/gorm"
)

// Team represents user teams for collaboration
type Team struct {
	Model
	Name        string   `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string   `gorm:"type:text" json:"description"`
	Type        TeamType `gorm:"column:team_type;size:20;not null;default:individual" json:"team_type"`
	CreatorID   uint     `gorm:"not null;index" json:"creator_id"`
	// InviteCode is assigned once at creation and never rewritten.
	InviteCode string `gorm:"size:8;uniqueIndex;not null;<-:create" json:"invite_code"`
	IsActive   bool   `gorm:"not null;default:true" json:"is_active"`
	// VibeSummary is written by the team vibe job; empty while it runs.
	VibeSummary   string     `gorm:"type:text" json:"vibe_summary"`
	VibeUpdatedAt *time.Time `json:"vibe_updated_at"`

	// Relations
	Creator *User        `gorm:"constraint:OnDelete:CASCADE" json:"creator,omitempty"`
	Members []TeamMember `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Invites []TeamInvite `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"-"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.InviteCode != "" {
		return nil
	}
	code, err := GenerateInviteCode()
	if err != nil {
		return err
	}
	t.InviteCode = code
	return nil
}

func (t *Team) BeforeSave(tx *gorm.DB) error {
	if t.Type == "" {
		t.Type = TeamTypeIndividual
	}
	return checkEnum("team type", t.Type, teamTypes)
}

// IsMember reports whether userID holds any role in the team.
func (t *Team) IsMember(db *gorm.DB, userID uint) (bool, error) {
	return hasTeamRole(db, t.ID, userID)
}

// IsLeader reports whether userID is a leader of the team.
func (t *Team) IsLeader(db *gorm.DB, userID uint) (bool, error) {
	return hasTeamRole(db, t.ID, userID, TeamRoleLeader)
}

// CanManage reports whether userID may edit team settings and membership.
func (t *Team) CanManage(db *gorm.DB, userID uint) (bool, error) {
	return hasTeamRole(db, t.ID, userID, TeamRoleAdmin, TeamRoleLeader)
}

func hasTeamRole(db *gorm.DB, teamID, userID uint, roles ...TeamRole) (bool, error) {
	q := db.Model(&TeamMember{}).Where("team_id = ? AND user_id = ?", teamID, userID)
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// TeamMember represents team members and their roles
type TeamMember struct {
	Model
	TeamID uint         `gorm:"not null;uniqueIndex:idx_team_members_team_user" json:"team_id"`
	UserID uint         `gorm:"not null;uniqueIndex:idx_team_members_team_user;index" json:"user_id"`
	Role   TeamRole     `gorm:"size:20;not null;default:developer" json:"role"`
	Status MemberStatus `gorm:"size:20;not null;default:offline" json:"status"`

	// Relations
	User *User `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (m *TeamMember) BeforeSave(tx *gorm.DB) error {
	if m.Role == "" {
		m.Role = TeamRoleDeveloper
	}
	if m.Status == "" {
		m.Status = MemberOffline
	}
	if err := checkEnum("team role", m.Role, teamRoles); err != nil {
		return err
	}
	return checkEnum("member status", m.Status, memberStatuses)
}

// JoinedAt is the membership creation time.
func (m *TeamMember) JoinedAt() time.Time { return m.CreatedAt }

// InviteTTL is how long an invite stays usable.
const InviteTTL = 7 * 24 * time.Hour

// TeamInvite is a pending invitation addressed to one email for one team.
type TeamInvite struct {
	Model
	TeamID      uint         `gorm:"not null;uniqueIndex:idx_team_invites_team_email" json:"team_id"`
	Email       string       `gorm:"size:254;not null;uniqueIndex:idx_team_invites_team_email" json:"email"`
	InviteCode  string       `gorm:"size:8;not null" json:"invite_code"`
	Status      InviteStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	CreatedByID uint         `gorm:"not null" json:"created_by_id"`
	ExpiresAt   time.Time    `gorm:"not null;index" json:"expires_at"`

	// Relations
	CreatedBy *User `gorm:"constraint:OnDelete:CASCADE" json:"created_by,omitempty"`
	Team      *Team `gorm:"constraint:OnDelete:CASCADE" json:"team,omitempty"`
}

func (i *TeamInvite) BeforeCreate(tx *gorm.DB) error {
	if i.ExpiresAt.IsZero() {
		i.ExpiresAt = time.Now().Add(InviteTTL)
	}
	return nil
}

func (i *TeamInvite) BeforeSave(tx *gorm.DB) error {
	if i.Status == "" {
		i.Status = InvitePending
	}
	return checkEnum("invite status", i.Status, inviteStatuses)
}

// IsExpired reports whether the invite can no longer be accepted at now.
func (i *TeamInvite) IsExpired(now time.Time) bool {
	return i.Status == InviteExpired || !now.Before(i.ExpiresAt)
}

// ExpirePendingInvites marks every pending invite past its expiry as expired.
func ExpirePendingInvites(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Session(&gorm.Session{SkipHooks: true}).Model(&TeamInvite{}).
		Where("status = ? AND expires_at <= ?", InvitePending, now).
		Update("status", InviteExpired)
	return res.RowsAffected, res.Error
}
