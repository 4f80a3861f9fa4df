// internal/storage/storage.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"device-service/internal/model"
)

// ErrNotFound is returned when a slot or barcode number has no record.
var ErrNotFound = errors.New("storage: not found")

// Store is the SQLite-backed Storage Adapter: label template blobs keyed
// by slot, barcode definitions keyed by barcode number.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path and bootstraps its schema via the
// migrations at migrationsPath (a "file://..." source URL).
func Open(path, migrationsPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("storage: ping %s: %w", path, err)
	}

	if migrationsPath != "" {
		if err := bootstrap(db, migrationsPath); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db}, nil
}

func bootstrap(db *sql.DB, migrationsPath string) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("storage: migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("storage: migrate init: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("storage: migrate up: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetTemplate returns the LFT blob stored for the given slot.
func (s *Store) GetTemplate(slot int) ([]byte, error) {
	row := s.db.QueryRow(`SELECT content FROM lft_files WHERE slot = ?`, slot)
	var content []byte
	if err := row.Scan(&content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("storage: slot %d: %w", slot, ErrNotFound)
		}
		return nil, fmt.Errorf("storage: get template: %w", err)
	}
	return content, nil
}

// GetBarcodeTemplate returns the barcode definition for the given
// barcode_number (1..99).
func (s *Store) GetBarcodeTemplate(number int) (*model.BarcodeTemplateRecord, error) {
	row := s.db.QueryRow(`
		SELECT barcode_data, barcode_type, barcode_name,
		       barcode_fld1, fld1_condition, fld1_shift,
		       barcode_fld2, fld2_condition, fld2_shift
		FROM barcode_templates WHERE barcode_number = ?`, number)

	rec := &model.BarcodeTemplateRecord{Number: number}
	err := row.Scan(&rec.Data, &rec.Type, &rec.Name,
		&rec.Fld1, &rec.Cond1, &rec.Shift1,
		&rec.Fld2, &rec.Cond2, &rec.Shift2)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("storage: barcode %d: %w", number, ErrNotFound)
		}
		return nil, fmt.Errorf("storage: get barcode template: %w", err)
	}
	return rec, nil
}

// PutTemplate upserts an LFT blob for a slot, used by test fixtures to seed
// label content without touching the database directly.
func (s *Store) PutTemplate(slot int, content []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO lft_files (slot, content) VALUES (?, ?)
		ON CONFLICT(slot) DO UPDATE SET content = excluded.content`, slot, content)
	if err != nil {
		return fmt.Errorf("storage: put template: %w", err)
	}
	return nil
}
