package sqlstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/aiwu-analytics/pkg/storage"
	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

const sqliteSchema = `
CREATE TABLE wp_lms_stats (
	id INTEGER PRIMARY KEY,
	email TEXT NOT NULL,
	created DATETIME NOT NULL,
	mode INTEGER NOT NULL,
	is_pro INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE wp_lms_stats_details (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	st_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	val_int INTEGER
);
`

func seedSQLite(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(sqliteSchema)
	require.NoError(t, err)

	t0 := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	rows := []struct {
		id    int
		email string
		at    time.Time
		mode  int
		pro   int
	}{
		{1, "b@x.com", t0, 1, 0},
		{2, "a@x.com", t0.Add(2 * time.Hour), 0, 0},
		{3, "a@x.com", t0, 1, 0},
	}
	for _, r := range rows {
		_, err := db.Exec("INSERT INTO wp_lms_stats (id, email, created, mode, is_pro) VALUES (?, ?, ?, ?, ?)",
			r.id, r.email, r.at, r.mode, r.pro)
		require.NoError(t, err)
	}
	_, err = db.Exec("INSERT INTO wp_lms_stats_details (st_id, name, val_int) VALUES (2, 'tokens_chatbots', 300), (2, 'cnt_tasks', 4), (77, 'tokens_forms', 1)")
	require.NoError(t, err)
}

func TestStore_SQLite(t *testing.T) {
	store, err := Open(storage.Config{
		Driver:       "sqlite3",
		DSN:          "file:sqlstore_test?mode=memory&cache=shared",
		TablePrefix:  "wp_",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	defer store.Close()

	seedSQLite(t, store.DB())

	events, err := store.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "a@x.com", events[0].Email)
	assert.Equal(t, int64(3), events[0].ID, "ordered by email then created")
	assert.Equal(t, telemetry.ModePing, events[1].Mode)
	assert.Equal(t, 2024, events[0].Created.Year())

	details, err := store.ListDetails(context.Background())
	require.NoError(t, err)
	assert.Len(t, details, 2, "details of unknown events are excluded by the join")

	assert.NoError(t, store.Ping(context.Background()))
}
