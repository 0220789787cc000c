// Package metrics exposes Prometheus collectors for the upload workflow and
// recipe searches.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fridgesaver/fridgesaver/internal/models"
	"github.com/fridgesaver/fridgesaver/internal/recipes"
	"github.com/fridgesaver/fridgesaver/internal/workflow"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type Metrics struct {
	registry *prometheus.Registry

	analyzeRequests *prometheus.CounterVec
	analyzeDuration prometheus.Histogram
	notifications   *prometheus.CounterVec
	recipeSearches  *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		analyzeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fridgesaver_analyze_requests_total",
				Help: "Image analysis requests by outcome",
			},
			[]string{"outcome"},
		),
		analyzeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fridgesaver_analyze_duration_seconds",
				Help:    "Image analysis latency",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
			},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fridgesaver_notifications_total",
				Help: "Notifications shown to users by level",
			},
			[]string{"level"},
		),
		recipeSearches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fridgesaver_recipe_searches_total",
				Help: "Recipe searches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// Analyzer counts and times every call to next.
func (m *Metrics) Analyzer(next workflow.Analyzer) workflow.Analyzer {
	return &instrumentedAnalyzer{next: next, m: m}
}

type instrumentedAnalyzer struct {
	next workflow.Analyzer
	m    *Metrics
}

func (a *instrumentedAnalyzer) Analyze(ctx context.Context, file workflow.Upload) ([]models.Ingredient, error) {
	start := time.Now()
	entries, err := a.next.Analyze(ctx, file)
	a.m.analyzeDuration.Observe(time.Since(start).Seconds())
	a.m.analyzeRequests.WithLabelValues(outcome(err)).Inc()
	return entries, err
}

// Notifier counts the notifications passed to next by level.
func (m *Metrics) Notifier(next workflow.Notifier) workflow.Notifier {
	return &instrumentedNotifier{next: next, m: m}
}

type instrumentedNotifier struct {
	next workflow.Notifier
	m    *Metrics
}

func (n *instrumentedNotifier) Success(ctx context.Context, message string) error {
	n.m.notifications.WithLabelValues("success").Inc()
	return n.next.Success(ctx, message)
}

func (n *instrumentedNotifier) Error(ctx context.Context, message string) error {
	n.m.notifications.WithLabelValues("error").Inc()
	return n.next.Error(ctx, message)
}

func (n *instrumentedNotifier) Info(ctx context.Context, message string) error {
	n.m.notifications.WithLabelValues("info").Inc()
	return n.next.Info(ctx, message)
}

// Source counts searches against next, labelled with name.
func (m *Metrics) Source(name string, next recipes.Source) recipes.Source {
	return &instrumentedSource{Source: next, name: name, m: m}
}

type instrumentedSource struct {
	recipes.Source
	name string
	m    *Metrics
}

func (s *instrumentedSource) Search(ctx context.Context, req recipes.SearchRequest) ([]models.Recipe, error) {
	results, err := s.Source.Search(ctx, req)
	s.m.recipeSearches.WithLabelValues(s.name, outcome(err)).Inc()
	return results, err
}
