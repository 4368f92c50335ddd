// Package storage defines the read-only access path to the telemetry tables.
//
// # Overview
//
// The metrics engine consumes an EventStore: two bulk reads (events and
// their detail counters) plus a health probe. The tables are owned by the
// plugin's ingestion code; nothing here writes to them.
//
// # Backends
//
//   - MemoryStore: a fixed snapshot, loaded from a JSON fixture or built in tests
//   - sqlstore.Store: database/sql over the {prefix}lms_stats and
//     {prefix}lms_stats_details tables (postgres, mysql, sqlite3)
//
// # Fixture Format
//
//	{
//	  "events":  [{"id": 1, "email": "a@x.com", "created": "2024-01-01T10:00:00Z", "mode": 1, "is_pro": false}],
//	  "details": [{"event_id": 1, "name": "tokens_chatbots", "val_int": 1200}]
//	}
package storage
