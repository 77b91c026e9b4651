package test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/licensedesk/backend/internal/models"
	"github.com/stretchr/testify/require"
)

// TmpFile returns the path of a fresh SQLite database file in a
// directory that is removed after the test
func TmpFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), fmt.Sprintf("ledger-%s.db", uuid.NewString()))
}

// Connect connects models.DB to a fresh database and closes it when the test is done.
func Connect(t *testing.T) {
	require.Nil(t, models.Connect(TmpFile(t)), "Database initialization failed")

	db := models.DB
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
}

// CloseDB closes the database connection of models.DB so that tests can
// check the handling of database errors.
func CloseDB(t *testing.T) {
	sqlDB, err := models.DB.DB()
	require.Nil(t, err, "Failed to get database resource")
	sqlDB.Close()
}
