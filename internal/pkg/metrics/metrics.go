package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tipsbot_api_requests_total",
		Help: "Requests sent to the odds provider.",
	})

	APIErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tipsbot_api_errors_total",
		Help: "Failed requests to the odds provider.",
	})

	PlannerRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tipsbot_planner_runs_total",
		Help: "Daily plan builds, including /regen reruns.",
	})

	SlipsPlanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tipsbot_slips_planned_total",
		Help: "Slips produced by the planner.",
	})

	CandidatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipsbot_candidates_skipped_total",
		Help: "Candidates dropped during building, by reason.",
	}, []string{"reason"})

	MessagesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tipsbot_messages_published_total",
		Help: "Messages delivered to the channel.",
	})

	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tipsbot_publish_failures_total",
		Help: "Channel deliveries that failed and stayed queued.",
	})

	LegsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipsbot_legs_settled_total",
		Help: "Leg results reached, by outcome.",
	}, []string{"result"})

	OpenSlips = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tipsbot_open_slips",
		Help: "Slips currently open.",
	})
)
