package models

// FeaturePlan is an idea submitted for AI planning against a project.
// Plan stays empty until the planning job writes it.
type FeaturePlan struct {
	Model
	ProjectID     uint   `gorm:"not null;index" json:"project_id"`
	RequestedByID uint   `gorm:"not null;index" json:"requested_by_id"`
	Idea          string `gorm:"type:text;not null" json:"idea"`
	Plan          string `gorm:"type:text" json:"plan"`

	// Relations
	Project     *Project `gorm:"constraint:OnDelete:CASCADE" json:"project,omitempty"`
	RequestedBy *User    `gorm:"constraint:OnDelete:CASCADE" json:"requested_by,omitempty"`
}
