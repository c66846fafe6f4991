package db

import (
	"testing"

	"procurement_flow_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate(t *testing.T) {
	dsn := "file:mem_" + uuid.New().String() + "?mode=memory&cache=shared"
	database, err := Open(dsn, "production")
	require.NoError(t, err)
	defer Close(database)

	require.NoError(t, AutoMigrate(database, models.AllModels()...))

	assert.True(t, database.Migrator().HasTable(&models.ProcurementCase{}))
	assert.True(t, database.Migrator().HasTable(&models.ActivityLog{}))
	assert.True(t, database.Migrator().HasTable(&models.Reminder{}))
	assert.True(t, database.Migrator().HasTable(&models.IdempotencyKey{}))
}

func TestAutoMigrateWithoutDatabase(t *testing.T) {
	assert.Error(t, AutoMigrate(nil, &models.User{}))
	assert.NoError(t, Close(nil))
}
