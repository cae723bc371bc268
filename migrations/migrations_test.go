package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	data, err := fs.ReadFile(FS, "00001_init.sql")
	require.NoError(t, err)
	sql := string(data)
	assert.True(t, strings.HasPrefix(sql, "-- +goose Up"))
	for _, table := range []string{"projects", "kanban_data", "kanban_trash"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, sql, "-- +goose Down")
}
