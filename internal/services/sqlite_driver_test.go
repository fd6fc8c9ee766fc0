package services

import (
	"database/sql"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// SQLite has no uuid_generate_v4(), which the model column defaults rely
// on; register it on the test driver so the production schema runs
// unmodified against the in-memory database.
func init() {
	sql.Register("sqlite3_with_uuid", &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("uuid_generate_v4", func() string {
				return uuid.NewString()
			}, false)
		},
	})
}
