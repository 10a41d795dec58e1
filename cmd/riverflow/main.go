// Command riverflow builds the river streamflow report. With RUN_SCHEDULE
// unset it runs once and exits non-zero on failure; otherwise it runs on the
// cron schedule and serves health, metrics and report endpoints.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/river-flow-report/internal/adapter/catalog"
	httpadapter "github.com/couchcryptid/river-flow-report/internal/adapter/http"
	"github.com/couchcryptid/river-flow-report/internal/adapter/hydro"
	kafkaadapter "github.com/couchcryptid/river-flow-report/internal/adapter/kafka"
	"github.com/couchcryptid/river-flow-report/internal/adapter/logsink"
	"github.com/couchcryptid/river-flow-report/internal/adapter/sheets"
	"github.com/couchcryptid/river-flow-report/internal/config"
	"github.com/couchcryptid/river-flow-report/internal/domain"
	"github.com/couchcryptid/river-flow-report/internal/observability"
	"github.com/couchcryptid/river-flow-report/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, closers, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up report sinks", "error", err)
		os.Exit(1)
	}
	defer closeAll(closers, logger)

	resolver := domain.NewForecastResolver(cfg.Timezone)
	rows := pipeline.NewRowBuilder(
		newProvider(cfg, hydro.NewCEHQClient(providerOptions(cfg, cfg.CEHQBaseURL, cfg.CEHQAnchorHour, resolver, logger, metrics))),
		newProvider(cfg, hydro.NewVigilanceClient(providerOptions(cfg, cfg.VigilanceBaseURL, cfg.VigilanceAnchorHour, resolver, logger, metrics))),
		cfg.RowDelay, logger, metrics,
	)
	p := pipeline.New(
		catalog.NewLoader(cfg.CatalogPath, cfg.CatalogEncoding, cfg.CatalogColumns),
		rows, resolver, publisher, logger, metrics,
	)

	if cfg.RunSchedule == "" {
		if err := p.Run(ctx); err != nil {
			logger.Error("report run failed", "error", err)
			closeAll(closers, logger)
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, cfg, p, logger); err != nil {
		logger.Error("scheduler error", "error", err)
		closeAll(closers, logger)
		os.Exit(1)
	}
}

// serve runs the pipeline on the cron schedule until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) error {
	c := cron.New(
		cron.WithLocation(cfg.Timezone),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
	)
	if _, err := c.AddFunc(cfg.RunSchedule, func() {
		if err := p.Run(ctx); err != nil {
			if errors.Is(err, pipeline.ErrRunInProgress) {
				logger.Warn("scheduled run skipped", "reason", err)
				return
			}
			logger.Error("scheduled run failed", "error", err)
		}
	}); err != nil {
		return err
	}

	trigger := func() error {
		if err := p.Start(ctx); err != nil {
			if errors.Is(err, pipeline.ErrRunInProgress) {
				return httpadapter.ErrBusy
			}
			return err
		}
		return nil
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, trigger, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	c.Start()
	logger.Info("report scheduled", "schedule", cfg.RunSchedule, "timezone", cfg.Timezone.String())
	if cfg.RunOnStart {
		if err := p.Start(ctx); err != nil {
			logger.Warn("startup run skipped", "reason", err)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-c.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("scheduled run still in progress at shutdown")
	}
	if err := p.Wait(shutdownCtx); err != nil {
		logger.Warn("triggered run still in progress at shutdown", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func providerOptions(cfg *config.Config, baseURL string, anchor int, resolver *domain.ForecastResolver, logger *slog.Logger, metrics *observability.Metrics) hydro.Options {
	return hydro.Options{
		BaseURL:    baseURL,
		Timeout:    cfg.HTTPTimeout,
		AnchorHour: anchor,
		Resolver:   resolver,
		Logger:     logger,
		Metrics:    metrics,
	}
}

func newProvider(cfg *config.Config, p domain.Provider) domain.Provider {
	if cfg.ProviderCacheTTL <= 0 || cfg.ProviderCacheSize <= 0 {
		return p
	}
	return hydro.NewCachedProvider(p, cfg.ProviderCacheSize, cfg.ProviderCacheTTL)
}

// buildPublisher creates the configured sinks in REPORT_SINKS order.
func buildPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.MultiPublisher, []io.Closer, error) {
	var (
		sinks   pipeline.MultiPublisher
		closers []io.Closer
	)
	for _, name := range cfg.ReportSinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, pipeline.NamedPublisher{Name: name, Publisher: logsink.New(logger)})
		case config.SinkKafka:
			w := kafkaadapter.NewWriter(cfg, logger)
			closers = append(closers, w)
			sinks = append(sinks, pipeline.NamedPublisher{Name: name, Publisher: w})
		case config.SinkSheets:
			pub, err := sheets.NewPublisher(ctx, cfg, logger)
			if err != nil {
				closeAll(closers, logger)
				return nil, nil, err
			}
			sinks = append(sinks, pipeline.NamedPublisher{Name: name, Publisher: pub})
		}
	}
	return sinks, closers, nil
}

func closeAll(closers []io.Closer, logger *slog.Logger) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
