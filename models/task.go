package models

import (
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Task struct {
	Model
	Title        string       `gorm:"size:200;not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	ProjectID    uint         `gorm:"not null;index" json:"project_id"`
	AssignedToID *uint        `gorm:"index" json:"assigned_to_id"`
	Status       TaskStatus   `gorm:"size:20;not null;default:pending;index" json:"status"`
	Priority     TaskPriority `gorm:"size:10;not null;default:medium" json:"priority"`
	DueDate      *time.Time   `gorm:"type:date" json:"due_date"`

	// Relations
	Project    *Project `gorm:"constraint:OnDelete:CASCADE" json:"project,omitempty"`
	AssignedTo *User    `gorm:"constraint:OnDelete:SET NULL" json:"assigned_to,omitempty"`
}

func (t *Task) BeforeSave(tx *gorm.DB) error {
	if t.Status == "" {
		t.Status = TaskPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if err := checkEnum("task status", t.Status, taskStatuses); err != nil {
		return err
	}
	return checkEnum("task priority", t.Priority, taskPriorities)
}

// AssignTo sets the assignee and leaves the status untouched.
func (t *Task) AssignTo(db *gorm.DB, assignee *User) error {
	if err := db.Model(t).Omit(clause.Associations).Update("assigned_to_id", assignee.ID).Error; err != nil {
		return err
	}
	t.AssignedToID = &assignee.ID
	t.AssignedTo = assignee
	return nil
}

// Complete forces the status to completed from any prior status.
func (t *Task) Complete(db *gorm.DB) error {
	if err := db.Model(t).Omit(clause.Associations).Update("status", TaskCompleted).Error; err != nil {
		return err
	}
	t.Status = TaskCompleted
	return nil
}

// OrderTasks is a scope applying the canonical task order: priority
// descending, due date ascending with undated tasks last, creation
// descending, then id descending as the final tie-break.
func OrderTasks(db *gorm.DB) *gorm.DB {
	return db.
		Order("CASE tasks.priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC").
		Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END").
		Order("tasks.due_date ASC").
		Order("tasks.created_at DESC").
		Order("tasks.id DESC")
}

// TaskBefore is the in-memory counterpart of OrderTasks.
func TaskBefore(a, b *Task) bool {
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra > rb
	}
	switch {
	case a.DueDate == nil && b.DueDate != nil:
		return false
	case a.DueDate != nil && b.DueDate == nil:
		return true
	case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
		return a.DueDate.Before(*b.DueDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool { return TaskBefore(&tasks[i], &tasks[j]) })
}
