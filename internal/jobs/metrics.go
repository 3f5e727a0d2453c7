package jobs

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomePanic = "panic"
)

var (
	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edutrack", Subsystem: "jobs", Name: "runs_total",
		Help: "Scheduled job runs by job name and outcome (ok, error, panic)",
	}, []string{"job", "outcome"})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edutrack", Subsystem: "jobs", Name: "run_duration_seconds",
		Help:    "Wall time of one scheduled job run",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"job"})

	jobLastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "edutrack", Subsystem: "jobs", Name: "last_success_timestamp_seconds",
		Help: "Unix time of the last run that finished without error",
	}, []string{"job"})

	assessmentsAutoClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edutrack", Subsystem: "jobs", Name: "assessments_auto_closed_total",
		Help: "Assessments closed by the scheduler after their due date passed",
	})
)

func init() {
	prometheus.MustRegister(jobRuns, jobDuration, jobLastSuccess, assessmentsAutoClosed)
}
