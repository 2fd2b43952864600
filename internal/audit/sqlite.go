package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	// Pure Go SQLite driver, no CGO.
	_ "modernc.org/sqlite"

	"github.com/reqwatch/reqwatch/api"
)

// MaxPathLen is the longest request path stored per record; longer paths
// are truncated at write time.
const MaxPathLen = 1024

const schemaSQL = `
CREATE TABLE IF NOT EXISTS principals (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	username   TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS request_logs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id       TEXT NOT NULL DEFAULT '',
	timestamp        INTEGER NOT NULL,
	method           TEXT NOT NULL,
	path             TEXT NOT NULL,
	query_string     TEXT NOT NULL DEFAULT '',
	remote_ip        TEXT,
	user_id          INTEGER REFERENCES principals(id) ON DELETE SET NULL,
	user_agent       TEXT NOT NULL DEFAULT '',
	response_status  INTEGER,
	response_time_ms INTEGER
);

CREATE INDEX IF NOT EXISTS idx_request_logs_timestamp ON request_logs (timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_request_logs_method ON request_logs (method);
CREATE INDEX IF NOT EXISTS idx_request_logs_path ON request_logs (path);
CREATE INDEX IF NOT EXISTS idx_request_logs_user ON request_logs (user_id);
`

// SQLiteStore is a Store and Directory backed by a single SQLite database.
// WAL mode keeps stat reads from blocking interceptor writes.
type SQLiteStore struct {
	db *sql.DB

	subMu   sync.RWMutex
	subs    map[int]chan *api.LogRecord
	nextSub int
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", strings.TrimSuffix(p, ";"), err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		subs: make(map[int]chan *api.LogRecord),
	}, nil
}

func (s *SQLiteStore) Write(ctx context.Context, record *api.LogRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	if len(record.Path) > MaxPathLen {
		record.Path = record.Path[:MaxPathLen]
	}

	var userID sql.NullInt64
	if record.User != nil {
		userID = sql.NullInt64{Int64: record.User.ID, Valid: true}
	}
	var remoteIP sql.NullString
	if record.RemoteIP != "" {
		remoteIP = sql.NullString{String: record.RemoteIP, Valid: true}
	}
	var status sql.NullInt64
	if record.ResponseStatus != nil {
		status = sql.NullInt64{Int64: int64(*record.ResponseStatus), Valid: true}
	}
	var elapsed sql.NullInt64
	if record.ResponseTimeMs != nil {
		elapsed = sql.NullInt64{Int64: *record.ResponseTimeMs, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO request_logs
			(request_id, timestamp, method, path, query_string, remote_ip, user_id, user_agent, response_status, response_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RequestID,
		record.Timestamp.UnixNano(),
		record.Method,
		record.Path,
		record.Query,
		remoteIP,
		userID,
		record.UserAgent,
		status,
		elapsed,
	)
	if err != nil {
		return fmt.Errorf("inserting request log: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		record.ID = id
	}

	s.notifySubscribers(record)
	return nil
}

const selectColumns = `
	l.id, l.request_id, l.timestamp, l.method, l.path, l.query_string,
	l.remote_ip, l.user_agent, l.response_status, l.response_time_ms,
	p.id, p.username, p.first_name, p.last_name`

func (s *SQLiteStore) Query(ctx context.Context, filter api.QueryFilter) (*api.LogPage, error) {
	where, args := buildWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM request_logs l WHERE " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting request logs: %w", err)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	// Out-of-range page numbers clamp instead of erroring.
	page := filter.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	query := `SELECT ` + selectColumns + `
		FROM request_logs l
		LEFT JOIN principals p ON p.id = l.user_id
		WHERE ` + where + `
		ORDER BY l.timestamp DESC, l.id DESC
		LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying request logs: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	return &api.LogPage{
		Records:    records,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*api.LogRecord, error) {
	query := `SELECT ` + selectColumns + `
		FROM request_logs l
		LEFT JOIN principals p ON p.id = l.user_id
		ORDER BY l.timestamp DESC, l.id DESC
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent logs: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// buildWhere translates a QueryFilter into a WHERE clause over the
// request_logs alias "l". Filters combine with AND; a user filter excludes
// records with no principal by construction.
func buildWhere(filter api.QueryFilter) (string, []any) {
	clauses := []string{"1 = 1"}
	var args []any

	if filter.Method != "" {
		clauses = append(clauses, "l.method = ?")
		args = append(args, filter.Method)
	}
	if filter.Path != "" {
		clauses = append(clauses, "l.path LIKE ?")
		args = append(args, "%"+filter.Path+"%")
	}
	if filter.User != "" {
		pattern := "%" + filter.User + "%"
		clauses = append(clauses, `l.user_id IN (
			SELECT id FROM principals
			WHERE username LIKE ? OR first_name LIKE ? OR last_name LIKE ?)`)
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Status != nil {
		clauses = append(clauses, "l.response_status = ?")
		args = append(args, *filter.Status)
	}

	return strings.Join(clauses, " AND "), args
}

func scanRecords(rows *sql.Rows) ([]*api.LogRecord, error) {
	records := []*api.LogRecord{}
	for rows.Next() {
		var (
			r         api.LogRecord
			ts        int64
			remoteIP  sql.NullString
			status    sql.NullInt64
			elapsed   sql.NullInt64
			userID    sql.NullInt64
			username  sql.NullString
			firstName sql.NullString
			lastName  sql.NullString
		)
		err := rows.Scan(
			&r.ID, &r.RequestID, &ts, &r.Method, &r.Path, &r.Query,
			&remoteIP, &r.UserAgent, &status, &elapsed,
			&userID, &username, &firstName, &lastName,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning request log: %w", err)
		}
		r.Timestamp = time.Unix(0, ts).UTC()
		if remoteIP.Valid {
			r.RemoteIP = remoteIP.String
		}
		if status.Valid {
			v := int(status.Int64)
			r.ResponseStatus = &v
		}
		if elapsed.Valid {
			v := elapsed.Int64
			r.ResponseTimeMs = &v
		}
		if userID.Valid {
			r.User = &api.Principal{
				ID:        userID.Int64,
				Username:  username.String,
				FirstName: firstName.String,
				LastName:  lastName.String,
			}
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating request logs: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) PutPrincipal(ctx context.Context, p *api.Principal) (int64, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO principals (username, first_name, last_name)
		VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name`,
		p.Username, p.FirstName, p.LastName,
	)
	if err != nil {
		return 0, fmt.Errorf("storing principal: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM principals WHERE username = ?`, p.Username).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolving principal id: %w", err)
	}
	p.ID = id
	return id, nil
}

func (s *SQLiteStore) FindPrincipal(ctx context.Context, username string) (*api.Principal, error) {
	var p api.Principal
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, first_name, last_name
		FROM principals WHERE username = ?`, username).
		Scan(&p.ID, &p.Username, &p.FirstName, &p.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding principal: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) DeletePrincipal(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM principals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting principal: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Subscribe(_ context.Context) (<-chan *api.LogRecord, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan *api.LogRecord, 100)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
		close(ch)
	}

	return ch, cancel
}

func (s *SQLiteStore) notifySubscribers(record *api.LogRecord) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for _, ch := range s.subs {
		select {
		case ch <- record:
		default:
			// Drop if subscriber is slow
		}
	}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
