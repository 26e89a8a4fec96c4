package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scriba/internal/billing"
	"github.com/smallbiznis/scriba/internal/clock"
	"github.com/smallbiznis/scriba/internal/config"
	"github.com/smallbiznis/scriba/internal/logger"
	"github.com/smallbiznis/scriba/internal/migration"
	"github.com/smallbiznis/scriba/internal/observability"
	"github.com/smallbiznis/scriba/internal/quota"
	"github.com/smallbiznis/scriba/internal/scheduler"
	"github.com/smallbiznis/scriba/internal/subscription"
	"github.com/smallbiznis/scriba/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services required by the batch jobs
		scheduler.Module,
		billing.Module,
		quota.Module,
		subscription.Module,

		// No server module!
		fx.Invoke(StartScheduler),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func StartScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.RunForever(context.Background())
			return nil
		},
	})
}
