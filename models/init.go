package models

import "gorm.io/gorm"

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&User{},
		&DeveloperProfile{},
		&Team{},
		&TeamMember{},
		&TeamInvite{},
		&Project{},
		&ProjectMember{},
		&TaskBoard{},
		&TaskColumn{},
		&AIInsightTracker{},
		&AIInsight{},
		&CodeReviewInbox{},
		&Task{},
		&CodeReview{},
		&CodeReviewComment{},
		&Standup{},
		&FeaturePlan{},
		&ActivityLog{},
	}
}

// AutoMigrate creates or updates the schema for every model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
