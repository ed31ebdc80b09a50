package store

import (
	"database/sql"
	"time"
)

// Timestamps are stored as RFC3339 text. SQLite has no native time
// type and text round-trips cleanly across drivers.

func timeToDB(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func timeFromDB(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
