package worker

import (
	"context"
	"time"

	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

// InviteSweeper periodically moves overdue pending invites to expired.
type InviteSweeper struct {
	cron   *cron.Cron
	spec   string
	expire func(context.Context) (int64, error)
	log    *logrus.Entry
}

func NewInviteSweeper(spec string, expire func(context.Context) (int64, error), log *logrus.Entry) *InviteSweeper {
	if spec == "" {
		spec = "@every 1h"
	}
	return &InviteSweeper{cron: cron.New(), spec: spec, expire: expire, log: log}
}

func (s *InviteSweeper) Start() error {
	if err := s.cron.AddFunc(s.spec, s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.log.WithField("schedule", s.spec).Info("Invite sweeper started")
	return nil
}

func (s *InviteSweeper) Stop() {
	s.cron.Stop()
	s.log.Info("Invite sweeper stopped")
}

// Sweep runs one expiry pass.
func (s *InviteSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.expire(ctx)
	if err != nil {
		s.log.WithError(err).Error("Error expiring invites")
		return
	}
	if n > 0 {
		s.log.WithField("expired", n).Info("Expired pending invites")
	}
}
