package main

import (
	"github.com/assocdesk/memberportal/internal/config"
	"github.com/assocdesk/memberportal/internal/logger"
	"github.com/assocdesk/memberportal/internal/migration"
	"github.com/assocdesk/memberportal/internal/server"
	"github.com/assocdesk/memberportal/pkg/cache"
	"github.com/assocdesk/memberportal/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		cache.Module,
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
