package services

import (
	"context"
	"fmt"
	"strings"

	"devsync/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ReviewService struct {
	db         *gorm.DB
	activity   *ActivityLogger
	dispatcher Dispatcher
	log        *logrus.Entry
}

func NewReviewService(db *gorm.DB, activity *ActivityLogger, dispatcher Dispatcher, log *logrus.Entry) *ReviewService {
	return &ReviewService{db: db, activity: activity, dispatcher: dispatcher, log: log}
}

type CreateReviewInput struct {
	ProjectID   uint   `json:"project_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	ReviewerID  *uint  `json:"reviewer_id"`
	GithubPRURL string `json:"github_pr_url" validate:"omitempty,url"`
}

type UpdateReviewInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	GithubPRURL *string `json:"github_pr_url" validate:"omitempty,url"`
}

// Create opens a review and queues AI suggestions for it.
func (s *ReviewService) Create(ctx context.Context, actor *models.User, in CreateReviewInput) (*models.CodeReview, error) {
	db := s.db.WithContext(ctx)
	project, err := loadProject(db, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireView(db, project, actor); err != nil {
		return nil, err
	}

	review := &models.CodeReview{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		ProjectID:   project.ID,
		AuthorID:    actor.ID,
		Status:      models.ReviewPending,
		GithubPRURL: in.GithubPRURL,
	}
	if in.ReviewerID != nil {
		if _, err := requireTeamMember(db, project, *in.ReviewerID); err != nil {
			return nil, err
		}
		review.ReviewerID = in.ReviewerID
	}
	if err := db.Create(review).Error; err != nil {
		return nil, models.TranslateError(err)
	}

	s.activity.Record(ctx, actor, projectActivity(models.ActionCreatedCodeReview, project, review.Title))
	enqueue(ctx, s.dispatcher, s.log, models.AIJobCodeReviewSuggest, review.ID)
	return review, nil
}

// load fetches a review with its project.
func (s *ReviewService) load(ctx context.Context, id uint) (*models.CodeReview, error) {
	db := s.db.WithContext(ctx)
	review, err := findByID[models.CodeReview](db, id)
	if err != nil {
		return nil, err
	}
	if review.Project, err = loadProject(db, review.ProjectID); err != nil {
		return nil, err
	}
	return review, nil
}

// canSee allows the author, the reviewer and members of the project's team.
func (s *ReviewService) canSee(db *gorm.DB, review *models.CodeReview, actor *models.User) error {
	if review.IsAuthor(actor) || review.IsReviewer(actor) {
		return nil
	}
	return requireView(db, review.Project, actor)
}

type ReviewView struct {
	Review    *models.CodeReview `json:"review"`
	CanReview bool               `json:"can_review"`
	IsAuthor  bool               `json:"is_author"`
	AIStatus  string             `json:"ai_status"`
}

func (s *ReviewService) Get(ctx context.Context, actor *models.User, id uint) (*ReviewView, error) {
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := s.canSee(db, review, actor); err != nil {
		return nil, err
	}
	err = db.Preload("Author").Preload("Reviewer").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at").Order("id") }).
		Preload("Comments.Author").
		First(review, review.ID).Error
	if err != nil {
		return nil, models.TranslateError(err)
	}
	return &ReviewView{
		Review:    review,
		CanReview: review.IsReviewer(actor),
		IsAuthor:  review.IsAuthor(actor),
		AIStatus:  aiStatus(review.AISuggestions),
	}, nil
}

type ReviewList struct {
	All           []models.CodeReview `json:"reviews"`
	Pending       []models.CodeReview `json:"pending_reviews"`
	MySubmissions []models.CodeReview `json:"my_submissions"`
	ToReview      []models.CodeReview `json:"to_review"`
}

// List groups reviews the actor wrote or was asked to review.
func (s *ReviewService) List(ctx context.Context, actor *models.User) (*ReviewList, error) {
	var reviews []models.CodeReview
	err := s.db.WithContext(ctx).
		Preload("Project").Preload("Author").Preload("Reviewer").
		Where("author_id = ? OR reviewer_id = ?", actor.ID, actor.ID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, models.TranslateError(err)
	}
	out := &ReviewList{
		All:           reviews,
		Pending:       []models.CodeReview{},
		MySubmissions: []models.CodeReview{},
		ToReview:      []models.CodeReview{},
	}
	for _, r := range reviews {
		if r.Status == models.ReviewPending {
			out.Pending = append(out.Pending, r)
		}
		if r.IsAuthor(actor) {
			out.MySubmissions = append(out.MySubmissions, r)
		}
		if r.IsReviewer(actor) && r.Status == models.ReviewPending {
			out.ToReview = append(out.ToReview, r)
		}
	}
	return out, nil
}

// Update is open to the author and the assigned reviewer.
func (s *ReviewService) Update(ctx context.Context, actor *models.User, id uint, in UpdateReviewInput) (*models.CodeReview, error) {
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !review.IsAuthor(actor) && !review.IsReviewer(actor) {
		return nil, fmt.Errorf("%w: you do not have permission to edit this code review", models.ErrPermissionDenied)
	}
	if in.Title != nil {
		review.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		review.Description = *in.Description
	}
	if in.GithubPRURL != nil {
		review.GithubPRURL = *in.GithubPRURL
	}
	if err := s.db.WithContext(ctx).Omit("Project", "Author", "Reviewer", "Comments").Save(review).Error; err != nil {
		return nil, models.TranslateError(err)
	}
	s.activity.Record(ctx, actor, projectActivity(models.ActionUpdatedCodeReview, review.Project, review.Title))
	return review, nil
}

// AssignReviewer is open to the author and project editors.
func (s *ReviewService) AssignReviewer(ctx context.Context, actor *models.User, id, reviewerID uint) (*models.CodeReview, error) {
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if !review.IsAuthor(actor) {
		if err := requireEdit(db, review.Project, actor); err != nil {
			return nil, err
		}
	}
	reviewer, err := requireTeamMember(db, review.Project, reviewerID)
	if err != nil {
		return nil, err
	}
	if err := review.AssignReviewer(db, reviewer); err != nil {
		return nil, models.TranslateError(err)
	}
	s.activity.Record(ctx, actor, projectActivity(models.ActionAssignedReviewer, review.Project,
		fmt.Sprintf("%s for %s", reviewer.DisplayName(), review.Title)))
	return review, nil
}

func (s *ReviewService) reviewerOnly(ctx context.Context, actor *models.User, id uint) (*models.CodeReview, error) {
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !review.IsReviewer(actor) {
		return nil, fmt.Errorf("%w: only the assigned reviewer can review this code", models.ErrPermissionDenied)
	}
	return review, nil
}

// Approve sets the review approved. The comment is optional.
func (s *ReviewService) Approve(ctx context.Context, actor *models.User, id uint, comment string) (*models.CodeReview, error) {
	review, err := s.reviewerOnly(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return review.Approve(tx, actor, comment)
	})
	if err != nil {
		return nil, models.TranslateError(err)
	}
	s.activity.Record(ctx, actor, projectActivity(models.ActionApprovedCodeReview, review.Project, review.Title))
	return review, nil
}

// RequestChanges sets the review changes_requested. The comment is mandatory.
func (s *ReviewService) RequestChanges(ctx context.Context, actor *models.User, id uint, comment string) (*models.CodeReview, error) {
	review, err := s.reviewerOnly(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(comment) == "" {
		return nil, models.ErrCommentRequired
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return review.RequestChanges(tx, actor, comment)
	})
	if err != nil {
		return nil, models.TranslateError(err)
	}
	s.activity.Record(ctx, actor, projectActivity(models.ActionRequestedChanges, review.Project, review.Title))
	return review, nil
}

func (s *ReviewService) Comment(ctx context.Context, actor *models.User, id uint, content string) (*models.CodeReviewComment, error) {
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := s.canSee(db, review, actor); err != nil {
		return nil, err
	}
	comment, err := review.AddComment(db, actor, content)
	if err != nil {
		return nil, models.TranslateError(err)
	}
	s.activity.Record(ctx, actor, Activity{
		Action:     models.ActionCommentedCodeReview,
		TargetType: models.TargetCodeReview,
		TargetID:   review.ID,
		TargetName: review.Title,
	})
	return comment, nil
}

// RegenerateSuggestions clears the AI suggestions and queues a new job.
func (s *ReviewService) RegenerateSuggestions(ctx context.Context, actor *models.User, id uint) error {
	review, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !review.IsAuthor(actor) && !review.IsReviewer(actor) {
		return fmt.Errorf("%w: only the author or reviewer can regenerate suggestions", models.ErrPermissionDenied)
	}
	err = s.db.WithContext(ctx).Model(&models.CodeReview{}).Where("id = ?", review.ID).
		Session(&gorm.Session{SkipHooks: true}).
		Update("ai_suggestions", "").Error
	if err != nil {
		return models.TranslateError(err)
	}
	enqueue(ctx, s.dispatcher, s.log, models.AIJobCodeReviewSuggest, review.ID)
	return nil
}
