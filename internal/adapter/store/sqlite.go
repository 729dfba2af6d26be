package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"docrag/internal/domain"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteStore is a chunk store backed by a SQLite database file. A configured
// dimension is persisted by the first successful insert.
type SQLiteStore struct {
	db        *sql.DB
	table     string
	dimension int
}

// NewSQLiteStore opens the database at path and creates the corpus table.
func NewSQLiteStore(ctx context.Context, path, table string, dimension int) (*SQLiteStore, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", domain.ErrStore, table)
	}

	// busy_timeout: wait up to 5s for a lock instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", domain.ErrStore, err)
	}
	// One writer at a time keeps the dimension check and insert atomic.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, table: table, dimension: dimension}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if dimension != 0 {
		if err := s.checkDimension(ctx, dimension); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE NOT NULL,
		chunk TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS %[1]s_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`, s.table)

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("%w: failed to create tables: %v", domain.ErrStore, err)
	}
	return nil
}

func (s *SQLiteStore) checkDimension(ctx context.Context, dimension int) error {
	stored, err := s.readDimension(ctx, s.db)
	if err != nil || stored == 0 {
		return err
	}
	return domain.CheckDimension(domain.ErrStore, stored, dimension)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) readDimension(ctx context.Context, q querier) (int, error) {
	var value string
	err := q.QueryRowContext(ctx, fmt.Sprintf(`SELECT value FROM %s_meta WHERE key = 'dimension'`, s.table)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read dimension: %v", domain.ErrStore, err)
	}
	dim, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: corrupt dimension %q", domain.ErrStore, value)
	}
	return dim, nil
}

func (s *SQLiteStore) writeDimension(ctx context.Context, q querier, dim int) error {
	_, err := q.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s_meta (key, value) VALUES ('dimension', ?)`, s.table), strconv.Itoa(dim))
	if err != nil {
		return fmt.Errorf("%w: write dimension: %v", domain.ErrStore, err)
	}
	return nil
}

func (s *SQLiteStore) Insert(ctx context.Context, chunk string, vector []float32) (string, error) {
	if len(vector) == 0 {
		return "", fmt.Errorf("%w: empty vector", domain.ErrStore)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: begin: %v", domain.ErrStore, err)
	}
	defer tx.Rollback()

	dim, err := s.readDimension(ctx, tx)
	if err != nil {
		return "", err
	}
	want := dim
	if want == 0 {
		want = s.dimension
	}
	if err := domain.CheckDimension(domain.ErrStore, want, len(vector)); err != nil {
		return "", err
	}
	if dim == 0 {
		if err := s.writeDimension(ctx, tx, len(vector)); err != nil {
			return "", err
		}
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, chunk, embedding) VALUES (?, ?, ?)`, s.table),
		id, chunk, EncodeVector(vector))
	if err != nil {
		return "", fmt.Errorf("%w: insert: %v", domain.ErrStore, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: commit: %v", domain.ErrStore, err)
	}
	return id, nil
}

func (s *SQLiteStore) FetchAll(ctx context.Context) ([]domain.CorpusEntry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, chunk, embedding FROM %s ORDER BY seq ASC`, s.table))
	if err != nil {
		return nil, fmt.Errorf("%w: fetch: %v", domain.ErrStore, err)
	}
	defer rows.Close()

	var entries []domain.CorpusEntry
	for rows.Next() {
		var (
			entry domain.CorpusEntry
			blob  []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Chunk, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", domain.ErrStore, err)
		}
		entry.Vector, err = DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", domain.ErrStore, entry.ID, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: fetch: %v", domain.ErrStore, err)
	}
	return entries, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&stats.Entries); err != nil {
		return stats, fmt.Errorf("%w: stats: %v", domain.ErrStore, err)
	}
	dim, err := s.readDimension(ctx, s.db)
	if err != nil {
		return stats, err
	}
	stats.Dimension = dim
	if dim == 0 {
		stats.Dimension = s.dimension
	}
	return stats, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
