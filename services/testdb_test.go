package services

import (
	"testing"

	"gorillionaire/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the same error
// translation the Postgres connection uses. A single connection keeps
// sqlite's file-level locking out of the way; the serialization under test
// is the row lock + upsert in lockUser, which sqlite's dialector degrades
// gracefully (FOR UPDATE is dropped, ON CONFLICT is native).
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Activity{},
		&models.WeeklySnapshot{},
		&models.SnapshotEntry{},
		&models.RaffleWinner{},
		&models.Quest{},
		&models.QuestClaim{},
		&models.Referral{},
	))
	return db
}

func newTestLedger(t *testing.T, db *gorm.DB) *LedgerService {
	t.Helper()
	return NewLedgerService(db, zaptest.NewLogger(t), nil)
}
