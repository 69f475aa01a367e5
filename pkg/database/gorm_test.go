package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGormDBFromDSNSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")

	db, err := NewGormDBFromDSN("sqlite://" + path)
	require.NoError(t, err)

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}

func TestNewSQLiteMemoryDBIsPrivate(t *testing.T) {
	a, err := NewSQLiteMemoryDB()
	require.NoError(t, err)
	b, err := NewSQLiteMemoryDB()
	require.NoError(t, err)

	require.NoError(t, a.Exec("CREATE TABLE only_in_a (id INTEGER PRIMARY KEY)").Error)

	assert.True(t, a.Migrator().HasTable("only_in_a"))
	assert.False(t, b.Migrator().HasTable("only_in_a"))
}
