package summarize

import (
	"github.com/smallbiznis/scriba/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("summarize",
	fx.Provide(New),
)

// New selects the chat-completions client or the disabled stand-in.
func New(cfg config.Config, log *zap.Logger) Summarizer {
	if !cfg.Summarizer.Enabled() {
		return NewDisabled()
	}
	return NewClient(Config{
		APIKey:  cfg.Summarizer.APIKey,
		BaseURL: cfg.Summarizer.BaseURL,
		Model:   cfg.Summarizer.Model,
		Timeout: cfg.Summarizer.Timeout,
	}, log)
}
