package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	paymentlogdomain "github.com/smallbiznis/rentbill/internal/paymentlog/domain"
	propertydomain "github.com/smallbiznis/rentbill/internal/property/domain"
	readingdomain "github.com/smallbiznis/rentbill/internal/reading/domain"
	"gorm.io/gorm"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var embeddedMigrations embed.FS

// Models lists every table in creation order.
func Models() []any {
	return []any{
		&propertydomain.Building{},
		&propertydomain.Room{},
		&propertydomain.Tenant{},
		&readingdomain.UtilityReading{},
		&readingdomain.MeterRecord{},
		&invoicedomain.Invoice{},
		&paymentlogdomain.PaymentLog{},
	}
}

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	src, err := Source()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

func Source() (source.Driver, error) {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	driver, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	return driver, nil
}

// AutoMigrate is the schema path for mysql and sqlite.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
