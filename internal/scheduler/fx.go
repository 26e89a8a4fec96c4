package scheduler

import (
	"github.com/smallbiznis/scriba/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(
		provideConfig,
		New,
	),
)

func provideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: cfg.SchedulerInterval,
	}
}
