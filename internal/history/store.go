// Package history records launches in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/launchpad/internal/registry"
)

const schema = `
CREATE TABLE IF NOT EXISTS launches_v1 (
	id TEXT PRIMARY KEY,
	app TEXT NOT NULL,
	path TEXT NOT NULL,
	args TEXT NOT NULL DEFAULT '[]',
	mode TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	ended_at INTEGER,
	exit_code INTEGER,
	error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS launches_v1_started ON launches_v1 (started_at);
`

// Entry is one recorded launch. EndedAt and ExitCode stay nil for detached
// launches and for sessions that are still running.
type Entry struct {
	ID        string
	App       string
	Path      string
	Args      []string
	Mode      registry.Mode
	StartedAt time.Time
	EndedAt   *time.Time
	ExitCode  *int
	Error     string
}

type row struct {
	ID        string        `db:"id"`
	App       string        `db:"app"`
	Path      string        `db:"path"`
	Args      string        `db:"args"`
	Mode      string        `db:"mode"`
	StartedAt int64         `db:"started_at"`
	EndedAt   sql.NullInt64 `db:"ended_at"`
	ExitCode  sql.NullInt64 `db:"exit_code"`
	Error     string        `db:"error"`
}

// Store is a launch history database. It is safe for concurrent use.
type Store struct {
	db  *sqlx.DB
	log *logrus.Entry
}

// Open opens (creating if needed) the history database at path. ":memory:"
// opens a private in-memory database.
func Open(path string, log *logrus.Entry) (*Store, error) {
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = logrus.NewEntry(quiet)
	}

	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		dsn = "file:" + path + "?_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	log.WithField("path", path).Debug("History store opened")
	return &Store{db: db, log: log}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordStart inserts e. A missing ID is generated and returned.
func (s *Store) RecordStart(ctx context.Context, e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	args, err := json.Marshal(nonNil(e.Args))
	if err != nil {
		return "", err
	}

	r := row{
		ID:        e.ID,
		App:       e.App,
		Path:      e.Path,
		Args:      string(args),
		Mode:      e.Mode.String(),
		StartedAt: e.StartedAt.UnixNano(),
		Error:     e.Error,
	}
	if e.EndedAt != nil {
		r.EndedAt = sql.NullInt64{Int64: e.EndedAt.UnixNano(), Valid: true}
	}
	if e.ExitCode != nil {
		r.ExitCode = sql.NullInt64{Int64: int64(*e.ExitCode), Valid: true}
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO launches_v1 (id, app, path, args, mode, started_at, ended_at, exit_code, error)
		VALUES (:id, :app, :path, :args, :mode, :started_at, :ended_at, :exit_code, :error)`, r)
	if err != nil {
		return "", fmt.Errorf("failed to record launch of %s: %w", e.App, err)
	}

	s.log.WithFields(logrus.Fields{"id": e.ID, "app": e.App}).Debug("Launch recorded")
	return e.ID, nil
}

// RecordExit stores the exit of the launch with the given id.
func (s *Store) RecordExit(ctx context.Context, id string, code int, endedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE launches_v1 SET ended_at = $1, exit_code = $2 WHERE id = $3",
		endedAt.UnixNano(), code, id)
	if err != nil {
		return fmt.Errorf("failed to record exit of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no launch with id %s", id)
	}
	return nil
}

// Recent returns up to limit launches, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []row
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, app, path, args, mode, started_at, ended_at, exit_code, error
		FROM launches_v1
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry())
	}
	return entries, nil
}

// LastLaunched returns the most recent launch time per application name.
func (s *Store) LastLaunched(ctx context.Context) (map[string]time.Time, error) {
	var rows []struct {
		App  string `db:"app"`
		Last int64  `db:"last"`
	}
	err := s.db.SelectContext(ctx, &rows, "SELECT app, MAX(started_at) AS last FROM launches_v1 GROUP BY app")
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	last := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		last[r.App] = time.Unix(0, r.Last)
	}
	return last, nil
}

func (r row) entry() Entry {
	e := Entry{
		ID:        r.ID,
		App:       r.App,
		Path:      r.Path,
		StartedAt: time.Unix(0, r.StartedAt),
		Error:     r.Error,
	}
	e.Mode, _ = registry.ParseMode(r.Mode)
	if err := json.Unmarshal([]byte(r.Args), &e.Args); err != nil || len(e.Args) == 0 {
		e.Args = nil
	}
	if r.EndedAt.Valid {
		t := time.Unix(0, r.EndedAt.Int64)
		e.EndedAt = &t
	}
	if r.ExitCode.Valid {
		code := int(r.ExitCode.Int64)
		e.ExitCode = &code
	}
	return e
}

func nonNil(args []string) []string {
	if args == nil {
		return []string{}
	}
	return args
}
