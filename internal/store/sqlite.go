package store

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

	"flowcron/internal/flow"
	logx "flowcron/pkg/logx"
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

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

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

const flowColumns = `id, name, trigger_type, status, cron, action, params, metadata,
	last_run_minute_key, last_run_at, last_status, last_error, last_execution_id,
	created_at, updated_at`

func (s *sqliteStore) Create(ctx context.Context, f flow.Flow) (flow.Flow, error) {
	f, err := prepareCreate(f, time.Now())
	if err != nil {
		return flow.Flow{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO flows(id, name, trigger_type, status, cron, action, params, metadata, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?)`,
		f.ID, f.Name, string(f.TriggerType), string(f.Status), f.Trigger.Cron, f.Action,
		jsonOrNull(f.Params), jsonOrNull(f.Metadata),
		f.CreatedAt.Format(time.RFC3339Nano), f.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return flow.Flow{}, err
	}
	return f, nil
}

func (s *sqliteStore) Update(ctx context.Context, f flow.Flow) (flow.Flow, error) {
	if err := validateFlow(f); err != nil {
		return flow.Flow{}, err
	}
	f.UpdatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE flows SET name=?, trigger_type=?, status=?, cron=?, action=?, params=?, metadata=?, updated_at=?
		 WHERE id=?`,
		f.Name, string(f.TriggerType), string(f.Status), f.Trigger.Cron, f.Action,
		jsonOrNull(f.Params), jsonOrNull(f.Metadata),
		f.UpdatedAt.Format(time.RFC3339Nano), f.ID,
	)
	if err != nil {
		return flow.Flow{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return flow.Flow{}, ErrNotFound
	}
	return s.Get(ctx, f.ID)
}

func (s *sqliteStore) Get(ctx context.Context, id string) (flow.Flow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+flowColumns+` FROM flows WHERE id = ?`, id)
	f, err := scanFlow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return flow.Flow{}, ErrNotFound
	}
	return f, err
}

func (s *sqliteStore) List(ctx context.Context, filter flow.Filter) ([]flow.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows`
	var (
		where []string
		args  []any
	)
	if filter.TriggerType != "" {
		where = append(where, "trigger_type = ?")
		args = append(args, string(filter.TriggerType))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []flow.Flow
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SetStatus(ctx context.Context, id string, status flow.Status) error {
	switch status {
	case flow.StatusActive, flow.StatusPaused:
	default:
		return fmt.Errorf("unknown status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE flows SET status=?, updated_at=? WHERE id=?`,
		string(status), time.Now().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) SetScheduleState(ctx context.Context, id string, st flow.ScheduleState) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE flows
		 SET last_run_minute_key=?, last_run_at=?, last_status=?, last_error=?, last_execution_id=?, updated_at=?
		 WHERE id=?`,
		st.LastRunMinuteKey, st.LastRunAt.Format(time.RFC3339Nano), st.LastStatus,
		nullStr(st.LastError), nullStr(st.LastExecutionID),
		time.Now().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flows WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlow(row rowScanner) (flow.Flow, error) {
	var (
		f                    flow.Flow
		triggerType, status  string
		params, metadata     sql.NullString
		lastKey, lastAt      sql.NullString
		lastStatus, lastErr  sql.NullString
		lastExecID           sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&f.ID, &f.Name, &triggerType, &status, &f.Trigger.Cron, &f.Action,
		&params, &metadata,
		&lastKey, &lastAt, &lastStatus, &lastErr, &lastExecID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return flow.Flow{}, err
	}
	f.TriggerType = flow.TriggerType(triggerType)
	f.Status = flow.Status(status)
	f.Params = decodeJSONMap(params)
	f.Metadata = decodeJSONMap(metadata)
	f.CreatedAt = parseTime(createdAt)
	f.UpdatedAt = parseTime(updatedAt)

	if lastKey.Valid && lastKey.String != "" {
		f.Schedule = &flow.ScheduleState{
			LastRunMinuteKey: lastKey.String,
			LastRunAt:        parseTime(lastAt.String),
			LastStatus:       lastStatus.String,
			LastError:        lastErr.String,
			LastExecutionID:  lastExecID.String,
		}
	}
	return f, nil
}

func jsonOrNull(m map[string]any) any {
	if len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return string(b)
}

func decodeJSONMap(s sql.NullString) map[string]any {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil
	}
	return m
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
