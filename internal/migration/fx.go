package migration

import (
	"github.com/smallbiznis/rentbill/internal/config"
	"github.com/smallbiznis/rentbill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if !cfg.DBAutoMigrate {
			log.Info("schema migrations disabled")
			return nil
		}

		if !db.IsPostgres(cfg) {
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
