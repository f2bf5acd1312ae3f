package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"neighborhood-matcher/internal/common/database"
	"neighborhood-matcher/internal/models"
)

// SQLiteStore keeps a local copy of the catalog for offline runs and seeding.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(client *database.SQLiteClient) *SQLiteStore {
	return &SQLiteStore{db: client.DB}
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	const createTable = `
CREATE TABLE IF NOT EXISTS neighborhoods (
  id                TEXT PRIMARY KEY,
  name              TEXT NOT NULL,
  city              TEXT NOT NULL DEFAULT '',
  state             TEXT NOT NULL DEFAULT '',
  coordinates_json  TEXT NOT NULL DEFAULT '{}',
  scores_json       TEXT NOT NULL,
  demographics_json TEXT NOT NULL,
  amenities_json    TEXT NOT NULL DEFAULT '[]',
  description       TEXT NOT NULL DEFAULT '',
  image_url         TEXT NOT NULL DEFAULT '',
  data_quality      REAL NOT NULL,
  sort_order        INTEGER NOT NULL DEFAULT 0
);`
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create neighborhoods table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_neighborhoods_sort ON neighborhoods(sort_order, id);`); err != nil {
		return fmt.Errorf("create sort index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM neighborhoods`).Scan(&n)
	return n, err
}

// UpsertMany replaces rows by id; slice position becomes sort_order.
func (s *SQLiteStore) UpsertMany(ctx context.Context, catalog []models.Neighborhood) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO neighborhoods
(id, name, city, state, coordinates_json, scores_json, demographics_json, amenities_json,
 description, image_url, data_quality, sort_order)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, n := range catalog {
		cols, err := encodeJSONColumns(n)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, n.ID, n.Name, n.City, n.State,
			string(cols.coordinates), string(cols.scores), string(cols.demographics), string(cols.amenities),
			n.Description, n.ImageURL, n.DataQuality, i); err != nil {
			return fmt.Errorf("upsert %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

const selectSQLite = `
SELECT id, name, city, state, coordinates_json, scores_json, demographics_json, amenities_json,
       description, image_url, data_quality
FROM neighborhoods`

func (s *SQLiteStore) GetNeighborhoods(ctx context.Context) ([]models.Neighborhood, error) {
	defer observeFetch(s.Name(), time.Now())

	rows, err := s.db.QueryContext(ctx, selectSQLite+` ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("query neighborhoods: %w", err)
	}
	defer rows.Close()

	out := []models.Neighborhood{}
	for rows.Next() {
		n, err := scanNeighborhood(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetNeighborhood(ctx context.Context, id string) (*models.Neighborhood, error) {
	n, err := scanNeighborhood(s.db.QueryRowContext(ctx, selectSQLite+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}
