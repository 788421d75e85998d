package planning

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/zeu5/rl-planner/planning")

var (
	// backupsTotal counts Bellman backups by scheduler
	backupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_backups_total",
		Help: "Total Bellman backups by scheduler",
	}, []string{"scheduler"})

	sweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_sweeps_total",
		Help: "Total value iteration sweeps",
	})

	expansionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_expansions_total",
		Help: "Total states expanded by reachability analysis",
	})

	// plansTotal counts finished plan requests by scheduler and status
	plansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_plans_total",
		Help: "Total plan requests by scheduler and final status",
	}, []string{"scheduler", "status"})

	planDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_plan_duration_seconds",
		Help:    "Plan request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12), // 0.1ms to ~7min
	}, []string{"scheduler"})
)
