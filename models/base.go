package models

import "time"

// Model is the common primary key and timestamp block for DevSync records.
// It has no soft-delete column: membership rows are unique per pair and
// children are removed by cascading foreign keys.
type Model struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
