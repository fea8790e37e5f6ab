package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createUserTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		auth_provider TEXT NOT NULL DEFAULT 'email',
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}

func createRegistrationTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE partner_registrations (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL UNIQUE,
		business_kind TEXT NOT NULL,
		legal_name TEXT,
		representative_name TEXT NOT NULL,
		registration_number TEXT UNIQUE,
		open_date TEXT,
		contact_phone TEXT NOT NULL,
		contact_email TEXT NOT NULL,
		bank_name TEXT,
		bank_code TEXT,
		account_number TEXT,
		account_holder TEXT,
		step INTEGER NOT NULL DEFAULT 0,
		is_completed BOOLEAN NOT NULL DEFAULT 0,
		external_seller_id TEXT UNIQUE,
		external_status TEXT NOT NULL DEFAULT 'not-submitted',
		external_status_raw TEXT,
		external_status_at DATETIME,
		provision_claimed_at DATETIME,
		status_checked_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}
