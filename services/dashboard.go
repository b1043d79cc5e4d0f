package services

import (
	"context"

	"devsync/models"
	"devsync/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ActivityPageSize is the number of entries per activity history page.
const ActivityPageSize = 20

type DashboardService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewDashboardService(db *gorm.DB, log *logrus.Entry) *DashboardService {
	return &DashboardService{db: db, log: log}
}

type Dashboard struct {
	ActiveProjects   []models.Project     `json:"active_projects"`
	TeamMemberCount  int64                `json:"team_members_count"`
	PendingReviews   []models.CodeReview  `json:"pending_reviews"`
	RecentActivities []models.ActivityLog `json:"recent_activities"`
	Insights         []models.AIInsight   `json:"ai_insights"`
	ShowOnboarding   bool                 `json:"show_onboarding"`
}

func teamIDsOf(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&models.TeamMember{}).Select("team_id").Where("user_id = ?", userID)
}

func (s *DashboardService) Get(ctx context.Context, actor *models.User) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	teams := teamIDsOf(db, actor.ID)
	projectIDs := db.Model(&models.Project{}).Select("id").Where("team_id IN (?)", teams)

	d := &Dashboard{}
	steps := []func() error{
		func() error {
			return db.Preload("Team").
				Where("team_id IN (?) AND status = ?", teams, models.ProjectActive).
				Order("updated_at DESC").Find(&d.ActiveProjects).Error
		},
		func() error {
			return db.Model(&models.TeamMember{}).
				Where("team_id IN (?)", teams).
				Distinct("user_id").Count(&d.TeamMemberCount).Error
		},
		func() error {
			return db.Preload("Project").Preload("Author").
				Where("status = ? AND (author_id = ? OR reviewer_id = ?)", models.ReviewPending, actor.ID, actor.ID).
				Order("created_at DESC").Limit(10).Find(&d.PendingReviews).Error
		},
		func() error {
			return db.Preload("User").Preload("Project").
				Where("project_id IN (?)", projectIDs).
				Or("user_id = ?", actor.ID).
				Order("timestamp DESC").Order("id DESC").Limit(10).Find(&d.RecentActivities).Error
		},
		func() error {
			trackers := db.Model(&models.AIInsightTracker{}).Select("id").Where("project_id IN (?)", projectIDs)
			return db.Where("tracker_id IN (?) AND insight_type <> ?", trackers, models.InsightOther).
				Order("created_at DESC").Limit(5).Find(&d.Insights).Error
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			utils.CaptureError(s.log, "dashboard_query", err, map[string]interface{}{"user_id": actor.ID})
			return nil, models.TranslateError(err)
		}
	}
	d.ShowOnboarding = len(d.ActiveProjects) == 0
	return d, nil
}

// Activity pages through the actor's own entries and entries targeting the
// actor's teams, newest first.
func (s *DashboardService) Activity(ctx context.Context, actor *models.User, page int) (*utils.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	db := s.db.WithContext(ctx)
	scope := func(q *gorm.DB) *gorm.DB {
		return q.Where("user_id = ?", actor.ID).
			Or("target_type = ? AND target_id IN (?)", models.TargetTeam, teamIDsOf(db, actor.ID))
	}

	var total int64
	if err := db.Model(&models.ActivityLog{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	var entries []models.ActivityLog
	err := db.Preload("User").Preload("Project").
		Scopes(scope).
		Order("timestamp DESC").Order("id DESC").
		Offset((page - 1) * ActivityPageSize).Limit(ActivityPageSize).
		Find(&entries).Error
	if err != nil {
		return nil, models.TranslateError(err)
	}
	return &utils.PaginatedResponse{Data: entries, Total: total, Page: page, Limit: ActivityPageSize}, nil
}
