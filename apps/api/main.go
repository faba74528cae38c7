package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentbill/internal/clock"
	"github.com/smallbiznis/rentbill/internal/config"
	"github.com/smallbiznis/rentbill/internal/invoice"
	"github.com/smallbiznis/rentbill/internal/migration"
	"github.com/smallbiznis/rentbill/internal/notification"
	"github.com/smallbiznis/rentbill/internal/observability"
	"github.com/smallbiznis/rentbill/internal/paymentlog"
	"github.com/smallbiznis/rentbill/internal/property"
	"github.com/smallbiznis/rentbill/internal/reading"
	"github.com/smallbiznis/rentbill/internal/server"
	"github.com/smallbiznis/rentbill/internal/utilitycost"
	"github.com/smallbiznis/rentbill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		property.Module,
		reading.Module,
		utilitycost.Module,
		paymentlog.Module,
		notification.Module,
		invoice.Module,

		// API only; the daily sweep runs in apps/scheduler
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
