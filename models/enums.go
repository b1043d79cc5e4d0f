package models

import (
	"fmt"
	"slices"
	"strings"
)

func parseEnum[T ~string](kind, raw string, allowed []T) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(allowed, v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrInvalidEnum, kind, raw)
}

func checkEnum[T ~string](kind string, v T, allowed []T) error {
	if slices.Contains(allowed, v) {
		return nil
	}
	return fmt.Errorf("%w: %s %q", ErrInvalidEnum, kind, string(v))
}

type TeamType string

const (
	TeamTypeIndividual TeamType = "individual"
	TeamTypeGroup      TeamType = "group"
)

var teamTypes = []TeamType{TeamTypeIndividual, TeamTypeGroup}

func ParseTeamType(s string) (TeamType, error) { return parseEnum("team type", s, teamTypes) }

type TeamRole string

const (
	TeamRoleAdmin       TeamRole = "admin"
	TeamRoleDeveloper   TeamRole = "developer"
	TeamRoleReviewer    TeamRole = "reviewer"
	TeamRoleLeader      TeamRole = "leader"
	TeamRoleMember      TeamRole = "member"
	TeamRoleContributor TeamRole = "contributor"
)

var teamRoles = []TeamRole{
	TeamRoleAdmin, TeamRoleDeveloper, TeamRoleReviewer,
	TeamRoleLeader, TeamRoleMember, TeamRoleContributor,
}

func ParseTeamRole(s string) (TeamRole, error) { return parseEnum("team role", s, teamRoles) }

// MemberStatus is the presence of a team member.
type MemberStatus string

const (
	MemberOnline  MemberStatus = "online"
	MemberOffline MemberStatus = "offline"
	MemberAway    MemberStatus = "away"
)

var memberStatuses = []MemberStatus{MemberOnline, MemberOffline, MemberAway}

func ParseMemberStatus(s string) (MemberStatus, error) {
	return parseEnum("member status", s, memberStatuses)
}

type ProjectType string

const (
	ProjectFrontend  ProjectType = "frontend"
	ProjectBackend   ProjectType = "backend"
	ProjectFullstack ProjectType = "fullstack"
	ProjectMobile    ProjectType = "mobile"
	ProjectDesktop   ProjectType = "desktop"
	ProjectData      ProjectType = "data"
	ProjectOther     ProjectType = "other"
)

var projectTypes = []ProjectType{
	ProjectFrontend, ProjectBackend, ProjectFullstack, ProjectMobile,
	ProjectDesktop, ProjectData, ProjectOther,
}

func ParseProjectType(s string) (ProjectType, error) {
	return parseEnum("project type", s, projectTypes)
}

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

var projectStatuses = []ProjectStatus{ProjectActive, ProjectCompleted, ProjectArchived}

func ParseProjectStatus(s string) (ProjectStatus, error) {
	return parseEnum("project status", s, projectStatuses)
}

// ProjectRole is scoped to one project and independent of TeamRole.
type ProjectRole string

const (
	ProjectRoleMaintainer  ProjectRole = "maintainer"
	ProjectRoleContributor ProjectRole = "contributor"
	ProjectRoleReviewer    ProjectRole = "reviewer"
)

var projectRoles = []ProjectRole{ProjectRoleMaintainer, ProjectRoleContributor, ProjectRoleReviewer}

func ParseProjectRole(s string) (ProjectRole, error) {
	return parseEnum("project role", s, projectRoles)
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskCompleted  TaskStatus = "completed"
)

var taskStatuses = []TaskStatus{TaskPending, TaskInProgress, TaskReview, TaskCompleted}

func ParseTaskStatus(s string) (TaskStatus, error) { return parseEnum("task status", s, taskStatuses) }

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

var taskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

func ParseTaskPriority(s string) (TaskPriority, error) {
	return parseEnum("task priority", s, taskPriorities)
}

// Rank orders priorities: high > medium > low.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type ReviewStatus string

const (
	ReviewPending          ReviewStatus = "pending"
	ReviewApproved         ReviewStatus = "approved"
	ReviewChangesRequested ReviewStatus = "changes_requested"
)

var reviewStatuses = []ReviewStatus{ReviewPending, ReviewApproved, ReviewChangesRequested}

func ParseReviewStatus(s string) (ReviewStatus, error) {
	return parseEnum("review status", s, reviewStatuses)
}

type Mood string

const (
	MoodGreat       Mood = "great"
	MoodGood        Mood = "good"
	MoodOkay        Mood = "okay"
	MoodStressed    Mood = "stressed"
	MoodOverwhelmed Mood = "overwhelmed"
)

var moods = []Mood{MoodGreat, MoodGood, MoodOkay, MoodStressed, MoodOverwhelmed}

func ParseMood(s string) (Mood, error) { return parseEnum("mood", s, moods) }

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
	InviteExpired  InviteStatus = "expired"
)

var inviteStatuses = []InviteStatus{InvitePending, InviteAccepted, InviteDeclined, InviteExpired}

type InsightType string

const (
	InsightCodeQuality   InsightType = "code_quality"
	InsightPerformance   InsightType = "performance"
	InsightSecurity      InsightType = "security"
	InsightBestPractices InsightType = "best_practices"
	InsightOther         InsightType = "other"
)

var insightTypes = []InsightType{
	InsightCodeQuality, InsightPerformance, InsightSecurity, InsightBestPractices, InsightOther,
}

func ParseInsightType(s string) (InsightType, error) {
	return parseEnum("insight type", s, insightTypes)
}

// AIJobKind names a background summarization job.
type AIJobKind string

const (
	AIJobStandupSummary    AIJobKind = "standup:summary"
	AIJobCodeReviewSuggest AIJobKind = "code-review:suggestions"
	AIJobTeamVibe          AIJobKind = "team:vibe"
	AIJobFeaturePlan       AIJobKind = "feature:plan"
)
