package main

import (
	"context"

	"github.com/erp/channelsync/internal/infrastructure/config"
	"github.com/erp/channelsync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// observability holds the telemetry providers started for the process.
// Every field is usable when its signal is disabled.
type observability struct {
	tracer   *telemetry.TracerProvider
	meters   *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

// setupObservability starts trace, metric and log export plus profiling.
// A provider that fails to start is replaced by its disabled form so the
// service still runs. The returned logger also ships records to the
// collector when log export is on.
func setupObservability(ctx context.Context, cfg *config.Config, serviceName string, log *zap.Logger) (*observability, *zap.Logger) {
	tc := cfg.Telemetry
	obs := &observability{}

	var err error
	obs.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		log.Warn("Tracing unavailable", zap.Error(err))
		obs.tracer, _ = telemetry.NewTracerProvider(ctx, telemetry.Config{}, log)
	}

	obs.meters, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsExportInterval,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		log.Warn("Metrics unavailable", zap.Error(err))
		obs.meters, _ = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{}, log)
	}

	obs.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		log.Warn("Log export unavailable", zap.Error(err))
		obs.logs = nil
	}
	log = telemetry.BridgeLogger(log, obs.logs, serviceName)

	profCfg := telemetry.DefaultProfilerConfig("", serviceName)
	if tc.ProfilingEnabled {
		profCfg = telemetry.DefaultProfilerConfig(tc.PyroscopeAddress, serviceName)
	}
	obs.profiler, err = telemetry.NewProfiler(profCfg, log)
	if err != nil {
		log.Warn("Profiling unavailable", zap.Error(err))
		obs.profiler, _ = telemetry.NewProfiler(telemetry.ProfilerConfig{}, log)
	}
	if obs.profiler.IsEnabled() {
		obs.tracer.EnableSpanProfiles()
	}

	return obs, log
}

// shutdown flushes and stops every provider. Logs go last so the messages
// of the other providers are exported.
func (o *observability) shutdown(log *zap.Logger) {
	ctx := context.Background()

	if err := o.profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := o.tracer.Shutdown(ctx); err != nil {
		log.Warn("Failed to stop tracer provider", zap.Error(err))
	}
	if err := o.meters.Shutdown(ctx); err != nil {
		log.Warn("Failed to stop meter provider", zap.Error(err))
	}
	if o.logs != nil {
		if err := o.logs.Shutdown(ctx); err != nil {
			log.Warn("Failed to stop logger provider", zap.Error(err))
		}
	}
}
