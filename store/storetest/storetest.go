// Package storetest opens throwaway SQLite ledgers for tests.
package storetest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"referral-credit-system/store"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// NewLedger returns a migrated in-memory ledger private to the test.
// A single connection serialises transactions the way row locks do on Postgres.
func NewLedger(t testing.TB) *store.Ledger {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ledger := store.New(db)
	require.NoError(t, ledger.AutoMigrate())
	return ledger
}
