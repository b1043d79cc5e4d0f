package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActivityEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devsync_activity_entries_total",
		Help: "Activity log writes by action and result.",
	}, []string{"action", "result"})

	InviteEmails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devsync_invite_emails_total",
		Help: "Team invitation emails by delivery result.",
	}, []string{"result"})

	AIJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devsync_ai_jobs_total",
		Help: "AI summarization jobs by kind and result.",
	}, []string{"kind", "result"})

	InvitesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devsync_invites_expired_total",
		Help: "Pending invites moved to expired by the sweeper.",
	})

	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devsync_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
