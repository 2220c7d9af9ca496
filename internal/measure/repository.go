package measure

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// scanner abstracts sql.Row and sql.Rows so scan helpers work with both.
type scanner interface {
	Scan(dest ...interface{}) error
}

// execer abstracts *sql.DB and *sql.Tx for writes that may run inside a
// caller-owned transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// now returns the repository timestamp: UTC, second precision, so the
// RFC3339 text stored in SQLite round-trips exactly.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
