package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scriba/internal/clock"
	"github.com/smallbiznis/scriba/internal/config"
	"github.com/smallbiznis/scriba/internal/logger"
	"github.com/smallbiznis/scriba/internal/migration"
	"github.com/smallbiznis/scriba/internal/server"
	"github.com/smallbiznis/scriba/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		server.Module,
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
