package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/ladder/pkg/records"
)

// Supported database/sql driver names.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3, cgo
)

// SQLiteConfig contains configuration for the SQLite store.
type SQLiteConfig struct {
	// Driver selects the database/sql driver ("sqlite" or "sqlite3").
	// Default: "sqlite"
	Driver string

	// Path is the database file path. ":memory:" keeps the database in
	// memory for the life of the store.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode bool

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       DriverModernc,
		Path:         "data/records.db",
		MaxOpenConns: 4,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements records.Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

var _ records.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database, applies pragmas and creates the schema.
func NewSQLiteStore(config *SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverModernc
	}
	if config.Driver != DriverModernc && config.Driver != DriverMattn {
		return nil, records.NewStorageError("sqlite", "open", fmt.Errorf("unsupported driver %q", config.Driver))
	}
	if config.Path == "" {
		return nil, records.NewStorageError("sqlite", "open", fmt.Errorf("path cannot be empty"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "records.storage.sqlite")

	db, err := sql.Open(config.Driver, dsn(config))
	if err != nil {
		return nil, records.NewStorageError("sqlite", "open", err)
	}

	maxConns := config.MaxOpenConns
	if maxConns <= 0 || config.Path == ":memory:" {
		// Every connection to :memory: would see its own empty database.
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	s := &SQLiteStore{db: db, config: config, logger: logger}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"driver", config.Driver,
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", maxConns,
	)

	return s, nil
}

// dsn builds a driver-specific connection string so the busy timeout
// applies to every pooled connection, not just the first.
func dsn(config *SQLiteConfig) string {
	timeout := config.BusyTimeout.Milliseconds()
	if config.Driver == DriverMattn {
		return fmt.Sprintf("file:%s?_busy_timeout=%d", config.Path, timeout)
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", config.Path, timeout)
}

// initialize enables WAL mode and creates the schema.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode && s.config.Path != ":memory:" {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return records.NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return records.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return records.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return records.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return records.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store persists a record.
func (s *SQLiteStore) Store(ctx context.Context, record *records.Record) error {
	_, err := s.db.ExecContext(ctx, insertRecord,
		record.ID, record.Ladder, record.Input, record.Result,
		record.RuleIndex, record.RuleName, record.Defaulted,
		int64(record.Duration), record.EvaluatedAt.UnixNano(), record.RecordedAt.UnixNano(),
	)
	if err != nil {
		return records.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves records matching the filter, newest first unless
// query.Oldest is set.
func (s *SQLiteStore) Query(ctx context.Context, query *records.Query) ([]*records.Record, error) {
	if query == nil {
		query = &records.Query{}
	}
	where, args := buildWhereClause(query)

	sqlQuery := "SELECT " + selectColumns + " FROM evaluations"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	order := "DESC"
	if query.Oldest {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY evaluated_at %s, id %s", order, order)

	limit := records.DefaultQueryLimit
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += " LIMIT ?"
	args = append(args, limit)

	if query.Offset > 0 {
		sqlQuery += " OFFSET ?"
		args = append(args, query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, records.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	result := []*records.Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, records.NewStorageError("sqlite", "scan", err)
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, records.NewStorageError("sqlite", "query", err)
	}

	return result, nil
}

// Count returns the number of records matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, query *records.Query) (int64, error) {
	if query == nil {
		query = &records.Query{}
	}
	where, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM evaluations"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, records.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes records matching the filter.
func (s *SQLiteStore) Delete(ctx context.Context, query *records.Query) (int64, error) {
	if query == nil {
		query = &records.Query{}
	}
	where, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM evaluations"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, records.NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, records.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return records.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

// buildWhereClause builds a WHERE clause (without the keyword) and its
// arguments from the query filters.
func buildWhereClause(query *records.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if query.Ladder != "" {
		conditions = append(conditions, "ladder = ?")
		args = append(args, query.Ladder)
	}
	if query.RuleName != "" {
		conditions = append(conditions, "rule_name = ?")
		args = append(args, query.RuleName)
	}
	if query.Defaulted != nil {
		conditions = append(conditions, "defaulted = ?")
		args = append(args, *query.Defaulted)
	}
	if query.Since != nil {
		conditions = append(conditions, "evaluated_at >= ?")
		args = append(args, query.Since.UnixNano())
	}
	if query.Until != nil {
		conditions = append(conditions, "evaluated_at <= ?")
		args = append(args, query.Until.UnixNano())
	}

	return strings.Join(conditions, " AND "), args
}

// scanRow scans a row into a Record.
func scanRow(rows *sql.Rows) (*records.Record, error) {
	var r records.Record
	var durationNs, evaluatedAt, recordedAt int64

	err := rows.Scan(
		&r.ID, &r.Ladder, &r.Input, &r.Result,
		&r.RuleIndex, &r.RuleName, &r.Defaulted,
		&durationNs, &evaluatedAt, &recordedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Duration = time.Duration(durationNs)
	r.EvaluatedAt = time.Unix(0, evaluatedAt)
	r.RecordedAt = time.Unix(0, recordedAt)
	return &r, nil
}
