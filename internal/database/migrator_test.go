package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-report-service/migrations"
)

func TestNewMigrator_Validation(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("fails with nil database", func(t *testing.T) {
		migrator, err := NewMigrator(nil, "", logger)
		assert.Error(t, err)
		assert.Nil(t, migrator)
		assert.Contains(t, err.Error(), "database is required")
	})

	t.Run("fails with nil pool", func(t *testing.T) {
		migrator, err := NewMigrator(&DB{}, "", logger)
		assert.Error(t, err)
		assert.Nil(t, migrator)
		assert.Contains(t, err.Error(), "database pool not initialized")
	})
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	require.NoError(t, err)

	var ups, downs []string
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups = append(ups, strings.TrimSuffix(e.Name(), ".up.sql"))
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs = append(downs, strings.TrimSuffix(e.Name(), ".down.sql"))
		}
	}

	require.NotEmpty(t, ups)
	assert.ElementsMatch(t, ups, downs, "every up migration needs a down migration")

	up, err := fs.ReadFile(migrations.FS, "000001_create_reports.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS reports")
	assert.Contains(t, string(up), "papers      JSONB")
}
