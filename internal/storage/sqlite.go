package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const taskColumns = "id, task_type, title, description, scheduled_time, created_time, status, owner_id, recurrence, metadata"

func (s *sqliteStore) Save(ctx context.Context, t *Task) (int64, error) {
	if t == nil {
		return 0, errors.New("nil task")
	}
	owner := t.OwnerID
	if owner == "" {
		owner = DefaultOwner
	}
	created := t.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks
		 (task_type, title, description, scheduled_time, created_time, status, owner_id, recurrence, metadata)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		string(t.Type), t.Title, t.Description,
		toUnix(t.ScheduledAt), toUnix(created),
		string(t.Status), owner, nullRecurrence(t.Recurrence), encodeMetadata(t.Metadata),
	)
	if err != nil {
		return 0, fmt.Errorf("save task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save task: %w", err)
	}
	t.ID = id
	t.CreatedAt = created
	t.OwnerID = owner
	return id, nil
}

func (s *sqliteStore) Get(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := s.scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *sqliteStore) Pending(ctx context.Context, dueBefore time.Time) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE status = ? AND scheduled_time <= ?
		 ORDER BY scheduled_time ASC`,
		string(StatusPending), toUnix(dueBefore))
	if err != nil {
		return nil, fmt.Errorf("pending tasks: %w", err)
	}
	defer rows.Close()
	return s.collect(rows)
}

func (s *sqliteStore) Upcoming(ctx context.Context, limit int) ([]*Task, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE status IN (?, ?) AND scheduled_time >= ?
		 ORDER BY scheduled_time ASC
		 LIMIT ?`,
		string(StatusPending), string(StatusActive), toUnix(time.Now()), limit)
	if err != nil {
		return nil, fmt.Errorf("upcoming tasks: %w", err)
	}
	defer rows.Close()
	return s.collect(rows)
}

func (s *sqliteStore) MarkActive(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ? WHERE id = ? AND status = ?`,
		string(StatusActive), id, string(StatusPending))
	if err != nil {
		return false, fmt.Errorf("mark active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark active: %w", err)
	}
	return n > 0, nil
}

func (s *sqliteStore) MarkCancelled(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ? WHERE id = ? AND status IN (?, ?)`,
		string(StatusCancelled), id, string(StatusPending), string(StatusActive))
	if err != nil {
		return false, fmt.Errorf("mark cancelled: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark cancelled: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	// Distinguish "already terminal" from "no such task".
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *sqliteStore) UpdateStatus(ctx context.Context, id int64, st Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ? WHERE id = ?`, string(st), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *sqliteStore) scanTask(r rowScanner) (*Task, error) {
	var (
		t          Task
		typ, st    string
		desc       sql.NullString
		recurrence sql.NullString
		meta       sql.NullString
		schedAt    float64
		createdAt  float64
	)
	if err := r.Scan(&t.ID, &typ, &t.Title, &desc, &schedAt, &createdAt, &st, &t.OwnerID, &recurrence, &meta); err != nil {
		return nil, err
	}
	t.Type = TaskType(typ)
	t.Status = Status(st)
	t.Description = desc.String
	t.ScheduledAt = fromUnix(schedAt)
	t.CreatedAt = fromUnix(createdAt)
	t.Recurrence = Recurrence(recurrence.String)
	t.Metadata = s.decodeMetadata(t.ID, meta.String)
	return &t, nil
}

func (s *sqliteStore) collect(rows *sql.Rows) ([]*Task, error) {
	var out []*Task
	for rows.Next() {
		t, err := s.scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	return out, nil
}

func (s *sqliteStore) decodeMetadata(id int64, raw string) *Metadata {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		// Corrupt metadata is dropped, not evaluated or propagated.
		s.log.Warn("dropping unreadable task metadata", logx.Int64("id", id), logx.Err(err))
		return nil
	}
	return &m
}

func encodeMetadata(m *Metadata) any {
	if m == nil {
		return nil
	}
	if m.Version == 0 {
		m.Version = MetadataVersion
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return string(b)
}

func nullRecurrence(r Recurrence) any {
	if r == RecurNone {
		return nil
	}
	return string(r)
}

// Timestamps are stored as REAL unix seconds, matching the durable schema
// contract read by earlier scheduler instances.

func toUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnix(f float64) time.Time {
	return time.Unix(0, int64(f*float64(time.Second)))
}
