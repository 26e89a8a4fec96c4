package transcript

import (
	"github.com/smallbiznis/scriba/internal/transcript/service"
	"go.uber.org/fx"
)

var Module = fx.Module("transcript.service",
	fx.Provide(service.NewService),
)
