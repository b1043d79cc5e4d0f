package models

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CodeReview struct {
	Model
	Title         string       `gorm:"size:200;not null" json:"title"`
	Description   string       `gorm:"type:text" json:"description"`
	ProjectID     uint         `gorm:"not null;index" json:"project_id"`
	AuthorID      uint         `gorm:"not null;index" json:"author_id"`
	ReviewerID    *uint        `gorm:"index" json:"reviewer_id"`
	Status        ReviewStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	GithubPRURL   string       `gorm:"column:github_pr_url;size:255" json:"github_pr_url"`
	AISuggestions string       `gorm:"type:text" json:"ai_suggestions"`

	// Relations
	Project  *Project            `gorm:"constraint:OnDelete:CASCADE" json:"project,omitempty"`
	Author   *User               `gorm:"constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Reviewer *User               `gorm:"constraint:OnDelete:SET NULL" json:"reviewer,omitempty"`
	Comments []CodeReviewComment `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

func (r *CodeReview) BeforeSave(tx *gorm.DB) error {
	if r.Status == "" {
		r.Status = ReviewPending
	}
	return checkEnum("review status", r.Status, reviewStatuses)
}

// IsReviewer reports whether user is the assigned reviewer.
func (r *CodeReview) IsReviewer(user *User) bool {
	return user != nil && r.ReviewerID != nil && *r.ReviewerID == user.ID
}

func (r *CodeReview) IsAuthor(user *User) bool {
	return user != nil && r.AuthorID == user.ID
}

// AssignReviewer sets the reviewer without changing the status.
func (r *CodeReview) AssignReviewer(db *gorm.DB, reviewer *User) error {
	if err := db.Model(r).Omit(clause.Associations).Update("reviewer_id", reviewer.ID).Error; err != nil {
		return err
	}
	r.ReviewerID = &reviewer.ID
	r.Reviewer = reviewer
	return nil
}

// Approve marks the review approved. A non-blank comment is appended.
func (r *CodeReview) Approve(db *gorm.DB, user *User, comment string) error {
	if err := r.setStatus(db, ReviewApproved); err != nil {
		return err
	}
	if strings.TrimSpace(comment) == "" {
		return nil
	}
	_, err := r.AddComment(db, user, comment)
	return err
}

// RequestChanges marks the review changes_requested and always appends the comment.
func (r *CodeReview) RequestChanges(db *gorm.DB, user *User, comment string) error {
	if strings.TrimSpace(comment) == "" {
		return ErrCommentRequired
	}
	if err := r.setStatus(db, ReviewChangesRequested); err != nil {
		return err
	}
	_, err := r.AddComment(db, user, comment)
	return err
}

func (r *CodeReview) AddComment(db *gorm.DB, user *User, content string) (*CodeReviewComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrCommentRequired
	}
	c := &CodeReviewComment{ReviewID: r.ID, AuthorID: user.ID, Content: content}
	if err := db.Create(c).Error; err != nil {
		return nil, err
	}
	c.Author = user
	r.Comments = append(r.Comments, *c)
	return c, nil
}

func (r *CodeReview) setStatus(db *gorm.DB, status ReviewStatus) error {
	if err := db.Model(r).Omit(clause.Associations).Update("status", status).Error; err != nil {
		return err
	}
	r.Status = status
	return nil
}

// CodeReviewComment is ordered by creation time within its review.
type CodeReviewComment struct {
	Model
	ReviewID uint   `gorm:"not null;index" json:"review_id"`
	AuthorID uint   `gorm:"not null" json:"author_id"`
	Content  string `gorm:"type:text;not null" json:"content"`

	Author *User `gorm:"constraint:OnDelete:CASCADE" json:"author,omitempty"`
}
