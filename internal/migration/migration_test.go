package migration

import (
	"strings"
	"testing"

	"github.com/smallbiznis/rentbill/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsPair(t *testing.T) {
	source, err := Source()
	require.NoError(t, err)
	defer source.Close()

	version, err := source.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	up, _, err := source.ReadUp(version)
	require.NoError(t, err)
	defer up.Close()
	down, _, err := source.ReadDown(version)
	require.NoError(t, err)
	defer down.Close()
}

func TestEmbeddedMigrationCoversEveryTable(t *testing.T) {
	raw, err := embeddedMigrations.ReadFile("sql/000001_init.up.sql")
	require.NoError(t, err)

	conn := testutil.NewDB(t)

	for _, model := range Models() {
		stmt := &gorm.Statement{DB: conn}
		require.NoError(t, stmt.Parse(model))
		assert.True(t, strings.Contains(string(raw), "CREATE TABLE IF NOT EXISTS "+stmt.Schema.Table+" ("),
			"missing table %s", stmt.Schema.Table)
	}
}

func TestAutoMigrateSQLite(t *testing.T) {
	conn := testutil.NewDB(t)

	require.NoError(t, AutoMigrate(conn))
	for _, table := range []string{"buildings", "rooms", "tenants", "utility_readings", "meter_records", "invoices", "payment_logs"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
	assert.True(t, conn.Migrator().HasIndex("invoices", "ux_invoices_room_period"))
}
