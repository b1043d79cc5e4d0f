package services

import (
	"context"
	"sync"

	"devsync/models"
	"devsync/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Activity describes one entry to append. Project is optional; the target
// fields reference non-project objects such as teams.
type Activity struct {
	Action     string
	Project    *models.Project
	Details    string
	TargetType string
	TargetID   uint
	TargetName string
}

// ActivityLogger appends entries after the business write has committed.
// A failed append is logged and swallowed.
type ActivityLogger struct {
	db  *gorm.DB
	hub *ActivityHub
	log *logrus.Entry
}

func NewActivityLogger(db *gorm.DB, hub *ActivityHub, log *logrus.Entry) *ActivityLogger {
	return &ActivityLogger{db: db, hub: hub, log: log}
}

func (l *ActivityLogger) Record(ctx context.Context, user *models.User, a Activity) *models.ActivityLog {
	entry := models.ActivityLog{
		UserID:     user.ID,
		Action:     a.Action,
		Details:    a.Details,
		TargetType: a.TargetType,
		TargetName: a.TargetName,
	}
	if a.Project != nil {
		entry.ProjectID = &a.Project.ID
	}
	if a.TargetType != "" {
		id := a.TargetID
		entry.TargetID = &id
	}

	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		utils.ActivityEntries.WithLabelValues(a.Action, "failed").Inc()
		l.log.WithError(err).WithFields(logrus.Fields{
			"action":  a.Action,
			"user_id": user.ID,
		}).Warn("Failed to write activity log")
		return nil
	}
	utils.ActivityEntries.WithLabelValues(a.Action, "ok").Inc()

	entry.User = user
	entry.Project = a.Project
	l.hub.Publish(entry)
	return &entry
}

func projectActivity(action string, p *models.Project, details string) Activity {
	return Activity{Action: action, Project: p, Details: details}
}

func teamActivity(action string, t *models.Team, details string) Activity {
	return Activity{Action: action, Details: details, TargetType: models.TargetTeam, TargetID: t.ID, TargetName: t.Name}
}

// ActivityHub fans new entries out to live subscribers of a project.
type ActivityHub struct {
	mu   sync.RWMutex
	subs map[uint]map[chan models.ActivityLog]struct{}
}

func NewActivityHub() *ActivityHub {
	return &ActivityHub{subs: make(map[uint]map[chan models.ActivityLog]struct{})}
}

// Subscribe returns a channel of entries for projectID and a cancel func
// that must be called to release it.
func (h *ActivityHub) Subscribe(projectID uint) (<-chan models.ActivityLog, func()) {
	ch := make(chan models.ActivityLog, 16)
	h.mu.Lock()
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[chan models.ActivityLog]struct{})
	}
	h.subs[projectID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[projectID], ch)
			if len(h.subs[projectID]) == 0 {
				delete(h.subs, projectID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish never blocks; slow subscribers drop entries.
func (h *ActivityHub) Publish(entry models.ActivityLog) {
	if h == nil || entry.ProjectID == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[*entry.ProjectID] {
		select {
		case ch <- entry:
		default:
		}
	}
}
