package stt

import (
	"github.com/smallbiznis/scriba/internal/config"
	"github.com/smallbiznis/scriba/internal/observability/metrics"
	"github.com/smallbiznis/scriba/internal/stt/adapters"
	"github.com/smallbiznis/scriba/internal/stt/domain"
	"github.com/smallbiznis/scriba/internal/stt/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("stt",
	fx.Provide(
		NewRegistry,
		NewService,
	),
)

// NewRegistry builds the adapter registry from configuration. Only adapters
// with credentials (or, for whisper, a resolvable binary and model) are
// registered.
func NewRegistry(cfg config.Config, log *zap.Logger) (*adapters.Registry, error) {
	var list []domain.Adapter

	if cfg.Deepgram.Enabled() {
		list = append(list, adapters.NewDeepgram(adapters.DeepgramConfig{
			APIKey:  cfg.Deepgram.APIKey,
			BaseURL: cfg.Deepgram.BaseURL,
			Model:   cfg.Deepgram.Model,
			Timeout: cfg.Deepgram.SubmitTimeout,
		}, log))
	}
	if cfg.Daglo.Enabled() {
		list = append(list, adapters.NewDaglo(adapters.DagloConfig{
			APIKey:         cfg.Daglo.APIKey,
			BaseURL:        cfg.Daglo.BaseURL,
			SubmitTimeout:  cfg.Daglo.SubmitTimeout,
			PollTimeout:    cfg.Daglo.PollTimeout,
			PollInterval:   cfg.Daglo.PollInterval,
			MaxPollRetries: cfg.Daglo.MaxPollRetries,
		}, log))
	}
	if cfg.AssemblyAI.Enabled() {
		list = append(list, adapters.NewAssemblyAI(adapters.AssemblyAIConfig{
			APIKey:         cfg.AssemblyAI.APIKey,
			BaseURL:        cfg.AssemblyAI.BaseURL,
			SubmitTimeout:  cfg.AssemblyAI.SubmitTimeout,
			PollTimeout:    cfg.AssemblyAI.PollTimeout,
			PollInterval:   cfg.AssemblyAI.PollInterval,
			MaxPollRetries: cfg.AssemblyAI.MaxPollRetries,
		}, log))
	}
	if cfg.Whisper.Enabled() {
		whisper, err := adapters.NewWhisper(adapters.WhisperConfig{
			BinaryPath: cfg.Whisper.BinaryPath,
			ModelPath:  cfg.Whisper.ModelPath,
			Timeout:    cfg.Whisper.Timeout,
		}, log)
		if err != nil {
			return nil, err
		}
		list = append(list, whisper)
	}

	return adapters.NewRegistry(list...), nil
}

// NewService provides the orchestrator bound to the configured default provider.
func NewService(registry *adapters.Registry, cfg config.Config, log *zap.Logger, m *metrics.Metrics) domain.Service {
	return service.NewService(registry, cfg.DefaultProvider, log, m)
}
