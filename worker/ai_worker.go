package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"devsync/models"
	"devsync/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AIQueue is the asynq queue carrying summarization jobs.
const AIQueue = "ai"

type jobPayload struct {
	ID uint `json:"id"`
}

// AsynqDispatcher enqueues AI jobs on Redis through asynq.
type AsynqDispatcher struct {
	client *asynq.Client
	log    *logrus.Entry
}

func NewAsynqDispatcher(opt asynq.RedisConnOpt, log *logrus.Entry) *AsynqDispatcher {
	return &AsynqDispatcher{client: asynq.NewClient(opt), log: log}
}

func (d *AsynqDispatcher) Enqueue(ctx context.Context, kind models.AIJobKind, id uint) error {
	data, err := json.Marshal(jobPayload{ID: id})
	if err != nil {
		return fmt.Errorf("marshal task payload: %w", err)
	}
	task := asynq.NewTask(string(kind), data)
	info, err := d.client.EnqueueContext(ctx, task,
		asynq.Queue(AIQueue),
		asynq.TaskID(uuid.NewString()),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	d.log.WithFields(logrus.Fields{
		"task_id":   info.ID,
		"task_type": info.Type,
		"entity_id": id,
	}).Debug("task enqueued")
	return nil
}

func (d *AsynqDispatcher) Close() error {
	return d.client.Close()
}

// InlineDispatcher runs jobs on a goroutine in-process. Used when Redis is off.
type InlineDispatcher struct {
	Worker *AIWorker
}

func (d InlineDispatcher) Enqueue(_ context.Context, kind models.AIJobKind, id uint) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := d.Worker.Process(ctx, kind, id); err != nil {
			d.Worker.log.WithError(err).WithField("kind", string(kind)).Warn("inline AI job failed")
		}
	}()
	return nil
}

// Summarizer produces the AI text written back onto standups, reviews,
// teams and feature plans.
type Summarizer interface {
	SummarizeStandup(ctx context.Context, standup *models.Standup) (string, error)
	ReviewCode(ctx context.Context, review *models.CodeReview) (string, error)
	AnalyzeTeam(ctx context.Context, activity *TeamActivity) (string, error)
	PlanFeature(ctx context.Context, plan *models.FeaturePlan) (string, error)
}

// VibeWindow is how far back standups count towards a team vibe.
const VibeWindow = 7 * 24 * time.Hour

// TeamActivity is the input to a team vibe analysis.
type TeamActivity struct {
	Team     *models.Team
	Members  []models.TeamMember
	Standups []models.Standup
}

// AIWorker consumes AI jobs and stores the result on the entity.
type AIWorker struct {
	db         *gorm.DB
	summarizer Summarizer
	log        *logrus.Entry
	server     *asynq.Server

	Now func() time.Time
}

func NewAIWorker(db *gorm.DB, summarizer Summarizer, log *logrus.Entry) *AIWorker {
	return &AIWorker{db: db, summarizer: summarizer, log: log, Now: time.Now}
}

// Mux routes each job kind to its handler.
func (w *AIWorker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(string(models.AIJobStandupSummary), w.handle(models.AIJobStandupSummary))
	mux.HandleFunc(string(models.AIJobCodeReviewSuggest), w.handle(models.AIJobCodeReviewSuggest))
	mux.HandleFunc(string(models.AIJobTeamVibe), w.handle(models.AIJobTeamVibe))
	mux.HandleFunc(string(models.AIJobFeaturePlan), w.handle(models.AIJobFeaturePlan))
	return mux
}

func (w *AIWorker) handle(kind models.AIJobKind) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var p jobPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("unmarshal task payload: %v: %w", err, asynq.SkipRetry)
		}
		err := w.Process(ctx, kind, p.ID)
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
}

// Start runs the asynq server until Shutdown.
func (w *AIWorker) Start(opt asynq.RedisConnOpt, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 5
	}
	w.server = asynq.NewServer(opt, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{AIQueue: 1},
		Logger:          w.log,
		ShutdownTimeout: 10 * time.Second,
	})
	w.log.WithField("concurrency", concurrency).Info("AI worker started")
	return w.server.Start(w.Mux())
}

func (w *AIWorker) Shutdown() {
	if w.server != nil {
		w.log.Info("AI worker shutting down...")
		w.server.Shutdown()
	}
}

// Process runs one job synchronously.
func (w *AIWorker) Process(ctx context.Context, kind models.AIJobKind, id uint) error {
	var err error
	switch kind {
	case models.AIJobStandupSummary:
		err = w.summarizeStandup(ctx, id)
	case models.AIJobCodeReviewSuggest:
		err = w.reviewCode(ctx, id)
	case models.AIJobTeamVibe:
		err = w.analyzeTeam(ctx, id)
	case models.AIJobFeaturePlan:
		err = w.planFeature(ctx, id)
	default:
		err = fmt.Errorf("unknown AI job kind %q", kind)
	}
	result := "ok"
	if err != nil {
		result = "failed"
		utils.CaptureError(w.log, "ai_job", err, map[string]interface{}{"kind": string(kind), "id": id})
	}
	utils.AIJobs.WithLabelValues(string(kind), result).Inc()
	return err
}

func (w *AIWorker) summarizeStandup(ctx context.Context, id uint) error {
	db := w.db.WithContext(ctx)
	var standup models.Standup
	if err := db.Preload("Developer").Preload("Project").First(&standup, id).Error; err != nil {
		return models.TranslateError(err)
	}
	summary, err := w.summarizer.SummarizeStandup(ctx, &standup)
	if err != nil {
		return fmt.Errorf("summarize standup %d: %w", id, err)
	}
	return db.Model(&models.Standup{}).Where("id = ?", id).
		Session(&gorm.Session{SkipHooks: true}).
		Update("ai_summary", summary).Error
}

func (w *AIWorker) reviewCode(ctx context.Context, id uint) error {
	db := w.db.WithContext(ctx)
	var review models.CodeReview
	if err := db.Preload("Author").Preload("Project").First(&review, id).Error; err != nil {
		return models.TranslateError(err)
	}
	suggestions, err := w.summarizer.ReviewCode(ctx, &review)
	if err != nil {
		return fmt.Errorf("review code %d: %w", id, err)
	}
	return db.Model(&models.CodeReview{}).Where("id = ?", id).
		Session(&gorm.Session{SkipHooks: true}).
		Update("ai_suggestions", suggestions).Error
}

func (w *AIWorker) analyzeTeam(ctx context.Context, id uint) error {
	db := w.db.WithContext(ctx)
	var team models.Team
	if err := db.Preload("Members.User.Profile").First(&team, id).Error; err != nil {
		return models.TranslateError(err)
	}
	now := w.Now()
	var standups []models.Standup
	err := db.Preload("Developer").
		Where("project_id IN (?)", db.Model(&models.Project{}).Select("id").Where("team_id = ?", team.ID)).
		Where("date >= ?", models.DateOnly(now.Add(-VibeWindow))).
		Order("date DESC").
		Find(&standups).Error
	if err != nil {
		return models.TranslateError(err)
	}
	summary, err := w.summarizer.AnalyzeTeam(ctx, &TeamActivity{Team: &team, Members: team.Members, Standups: standups})
	if err != nil {
		return fmt.Errorf("analyze team %d: %w", id, err)
	}
	return db.Model(&models.Team{}).Where("id = ?", id).
		Session(&gorm.Session{SkipHooks: true}).
		Updates(map[string]interface{}{"vibe_summary": summary, "vibe_updated_at": now}).Error
}

func (w *AIWorker) planFeature(ctx context.Context, id uint) error {
	db := w.db.WithContext(ctx)
	var plan models.FeaturePlan
	if err := db.Preload("Project").First(&plan, id).Error; err != nil {
		return models.TranslateError(err)
	}
	text, err := w.summarizer.PlanFeature(ctx, &plan)
	if err != nil {
		return fmt.Errorf("plan feature %d: %w", id, err)
	}
	return db.Model(&models.FeaturePlan{}).Where("id = ?", id).
		Session(&gorm.Session{SkipHooks: true}).
		Update("plan", text).Error
}
