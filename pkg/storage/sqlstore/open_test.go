package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/aiwu-analytics/pkg/storage"
)

func TestOpenEventStore_Memory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"events": [{"id": 1, "email": "a@x.com", "created": "2025-03-01T10:00:00Z", "mode": 1, "is_pro": false}],
		"details": [{"event_id": 1, "name": "tokens_chatbots", "val_int": 10}]
	}`), 0o644))

	store, err := OpenEventStore(storage.Config{Driver: "memory", FixturePath: path})
	require.NoError(t, err)
	defer store.Close()

	events, err := store.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestOpenEventStore_UnsupportedDriver(t *testing.T) {
	_, err := OpenEventStore(storage.Config{Driver: "oracle"})
	assert.ErrorIs(t, err, storage.ErrUnsupportedDriver)
}
