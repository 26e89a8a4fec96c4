package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/scriba/internal/config"
	"github.com/smallbiznis/scriba/internal/observability/metrics"
	"github.com/smallbiznis/scriba/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideTracingConfig,
		tracing.NewProvider,
		provideMetrics,
	),
	fx.Invoke(ensureTracingProvider),
)

func ensureTracingProvider(_ *sdktrace.TracerProvider) {}

func provideTracingConfig(cfg config.Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.Environment == "production",
		ServiceName:      cfg.AppName,
		ServiceVersion:   cfg.AppVersion,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OTLPEndpoint,
	}
}

func provideMetrics(cfg config.Config) *metrics.Metrics {
	return metrics.New(prometheus.DefaultRegisterer, cfg.AppName)
}
