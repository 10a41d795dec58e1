// Package pipeline turns the river catalog into a published report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/river-flow-report/internal/domain"
	"github.com/couchcryptid/river-flow-report/internal/observability"
)

// ErrRunInProgress is returned when Run is called while another run is active.
var ErrRunInProgress = errors.New("a report run is already in progress")

// CatalogLoader reads the river catalog.
type CatalogLoader interface {
	Load() (domain.Catalog, error)
}

// Publisher delivers a finished report.
type Publisher interface {
	Publish(ctx context.Context, report domain.Report) error
}

// Pipeline orchestrates one catalog-to-publish run.
type Pipeline struct {
	catalog   CatalogLoader
	rows      *RowBuilder
	resolver  *domain.ForecastResolver
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	running   sync.Mutex
	inflight  sync.WaitGroup
	ready     atomic.Bool
	last      atomic.Pointer[domain.Report]
}

// New creates a Pipeline with the given stages and observability.
func New(c CatalogLoader, rows *RowBuilder, resolver *domain.ForecastResolver, p Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		catalog:   c,
		rows:      rows,
		resolver:  resolver,
		publisher: p,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has published a report.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no report has been published yet")
	}
	return nil
}

// LastReport returns the report published by the most recent successful run.
func (p *Pipeline) LastReport() (domain.Report, bool) {
	r := p.last.Load()
	if r == nil {
		return domain.Report{}, false
	}
	return *r, true
}

// Run loads the catalog, builds every row, evaluates thresholds and publishes
// the report. Catalog and publish failures are returned; provider failures are not.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.TryLock() {
		return ErrRunInProgress
	}
	defer p.running.Unlock()
	return p.execute(ctx)
}

// Start begins a run in the background and returns immediately. The run's
// outcome is logged.
func (p *Pipeline) Start(ctx context.Context) error {
	if !p.running.TryLock() {
		return ErrRunInProgress
	}
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		defer p.running.Unlock()
		if err := p.execute(ctx); err != nil {
			p.logger.Error("report run failed", "error", err)
		}
	}()
	return nil
}

// Wait blocks until every run begun by Start has returned, or until ctx is done.
func (p *Pipeline) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) execute(ctx context.Context) error {
	start := time.Now()
	report, err := p.run(ctx)
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.Runs.WithLabelValues("error").Inc()
		return err
	}

	p.metrics.Runs.WithLabelValues("success").Inc()
	p.metrics.LastSuccess.Set(float64(domain.Now().Unix()))
	p.last.Store(&report)
	p.ready.Store(true)
	p.logger.Info("report published",
		"title", report.Title,
		"rows", len(report.Rows),
		"alerts", len(report.Alerts),
		"duration", time.Since(start),
	)
	return nil
}

func (p *Pipeline) run(ctx context.Context) (domain.Report, error) {
	cat, err := p.catalog.Load()
	if err != nil {
		return domain.Report{}, fmt.Errorf("load catalog: %w", err)
	}
	p.logger.Info("catalog loaded", "rivers", len(cat.Rivers))

	rows, err := p.rows.Build(ctx, cat.Rivers)
	if err != nil {
		return domain.Report{}, fmt.Errorf("build rows: %w", err)
	}

	report := domain.NewReport(p.resolver.Today(), cat.Header, rows)
	for _, a := range report.Alerts {
		p.metrics.AlertsFlagged.WithLabelValues(string(a.Reason)).Inc()
	}

	if err := p.publisher.Publish(ctx, report); err != nil {
		return domain.Report{}, fmt.Errorf("publish report: %w", err)
	}
	return report, nil
}
