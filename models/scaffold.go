package models

import "gorm.io/gorm"

// TaskBoard is the single board every project owns.
type TaskBoard struct {
	Model
	ProjectID   uint         `gorm:"not null;uniqueIndex" json:"project_id"`
	Name        string       `gorm:"size:100;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Columns     []TaskColumn `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"columns,omitempty"`
}

type TaskColumn struct {
	Model
	BoardID     uint   `gorm:"not null;index" json:"board_id"`
	Name        string `gorm:"size:50;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Order       int    `gorm:"column:position;not null;default:0" json:"order"`
}

type AIInsightTracker struct {
	Model
	ProjectID   uint        `gorm:"not null;uniqueIndex" json:"project_id"`
	Name        string      `gorm:"size:100;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Insights    []AIInsight `gorm:"foreignKey:TrackerID;constraint:OnDelete:CASCADE" json:"insights,omitempty"`
}

type AIInsight struct {
	Model
	TrackerID   *uint       `gorm:"index" json:"tracker_id"`
	Title       string      `gorm:"size:200;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Type        InsightType `gorm:"column:insight_type;size:20;not null;default:other" json:"insight_type"`
	CodeSnippet string      `gorm:"type:text" json:"code_snippet"`
	Suggestion  string      `gorm:"type:text" json:"suggestion"`
}

func (i *AIInsight) BeforeSave(tx *gorm.DB) error {
	if i.Type == "" {
		i.Type = InsightOther
	}
	return checkEnum("insight type", i.Type, insightTypes)
}

type CodeReviewInbox struct {
	Model
	ProjectID   uint   `gorm:"not null;uniqueIndex" json:"project_id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// DefaultColumns are the board columns every new project starts with, in order.
var DefaultColumns = []TaskColumn{
	{Name: "To Do", Description: "Tasks to be started"},
	{Name: "In Progress", Description: "Tasks currently being worked on"},
	{Name: "Review", Description: "Tasks ready for review"},
	{Name: "Done", Description: "Completed tasks"},
}

// CreateProjectScaffold inserts the board, its columns, the insight tracker
// and the review inbox for an already inserted project. Run it inside the
// transaction that inserted the project.
func CreateProjectScaffold(tx *gorm.DB, project *Project) error {
	board := &TaskBoard{
		ProjectID:   project.ID,
		Name:        "Issues & Tasks",
		Description: "Track project issues and tasks",
	}
	if err := tx.Omit("Columns").Create(board).Error; err != nil {
		return err
	}
	for i, def := range DefaultColumns {
		col := TaskColumn{BoardID: board.ID, Name: def.Name, Description: def.Description, Order: i}
		if err := tx.Create(&col).Error; err != nil {
			return err
		}
		board.Columns = append(board.Columns, col)
	}

	tracker := &AIInsightTracker{
		ProjectID:   project.ID,
		Name:        "AI Insights",
		Description: "Track AI-generated insights and suggestions",
	}
	if err := tx.Create(tracker).Error; err != nil {
		return err
	}

	inbox := &CodeReviewInbox{
		ProjectID:   project.ID,
		Name:        "Code Reviews",
		Description: "Track and manage code review requests",
	}
	if err := tx.Create(inbox).Error; err != nil {
		return err
	}

	project.TaskBoard = board
	project.AITracker = tracker
	project.ReviewInbox = inbox
	return nil
}
