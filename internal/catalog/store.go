package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/joeblew999/kartlag/internal/download"
)

// ErrNotFound is returned for UUIDs the catalog does not hold.
var ErrNotFound = errors.New("dataset not found in catalog")

const schema = `CREATE TABLE IF NOT EXISTS datasets (
	uuid VARCHAR PRIMARY KEY,
	title VARCHAR NOT NULL,
	description VARCHAR,
	service VARCHAR,
	download_url VARCHAR,
	download_formats VARCHAR
)`

// Store keeps catalog entries in a DuckDB table.
type Store struct {
	db *sql.DB
}

// NewStore creates the catalog table if needed.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating catalog table: %w", err)
	}
	return &Store{db: db}, nil
}

// Load inserts or replaces entries and returns how many were written.
func (s *Store) Load(ctx context.Context, entries []Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("loading catalog: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		service, err := json.Marshal(e.Service)
		if err != nil {
			return 0, fmt.Errorf("encoding service of %s: %w", e.UUID, err)
		}
		formats, err := json.Marshal(e.DownloadFormats)
		if err != nil {
			return 0, fmt.Errorf("encoding download formats of %s: %w", e.UUID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO datasets (uuid, title, description, service, download_url, download_formats)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.UUID, e.Title, e.Description, string(service), e.DownloadURL, string(formats))
		if err != nil {
			return 0, fmt.Errorf("inserting %s: %w", e.UUID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("loading catalog: %w", err)
	}
	return len(entries), nil
}

const selectColumns = `SELECT uuid, title, description, service, download_url, download_formats FROM datasets`

// Get returns one entry by UUID.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE uuid = ?`, id)
	e, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return e, err
}

// Search returns one page of entries whose title or description contains q,
// ordered by title, together with the total number of matches. An empty q
// lists the catalog.
func (s *Store) Search(ctx context.Context, q string, offset, limit int) ([]Record, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	pattern := "%" + q + "%"
	const where = ` WHERE title ILIKE ? OR description ILIKE ?`

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM datasets`+where, pattern, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting catalog: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		selectColumns+where+fmt.Sprintf(` ORDER BY title LIMIT %d OFFSET %d`, limit, offset),
		pattern, pattern)
	if err != nil {
		return nil, 0, fmt.Errorf("searching catalog: %w", err)
	}
	defer rows.Close()

	entries := []Record{}
	for rows.Next() {
		e, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// Describe returns the description of a dataset.
func (s *Store) Describe(ctx context.Context, id string) (string, error) {
	var text sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT description FROM datasets WHERE uuid = ?`, id).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("describing %s: %w", id, err)
	}
	return text.String, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		e                                          Record
		description, service, downloadURL, formats sql.NullString
	)
	if err := row.Scan(&e.UUID, &e.Title, &description, &service, &downloadURL, &formats); err != nil {
		return Record{}, err
	}
	e.Description = description.String
	e.DownloadURL = downloadURL.String
	if service.Valid && service.String != "" {
		_ = json.Unmarshal([]byte(service.String), &e.Service)
	}
	if formats.Valid {
		e.DownloadFormats = download.DecodeEntries([]byte(formats.String))
	}
	return e, nil
}
