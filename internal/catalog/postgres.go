package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"neighborhood-matcher/internal/common/database"
	"neighborhood-matcher/internal/models"
)

const selectNeighborhoods = `
	SELECT id, name, city, state, coordinates, scores, demographics, amenities,
	       description, image_url, data_quality
	FROM neighborhoods`

// PostgresProvider reads the catalog from the neighborhoods table. JSONB
// columns hold coordinates, scores, demographics and amenities.
type PostgresProvider struct {
	db *database.PostgresClient
}

func NewPostgresProvider(db *database.PostgresClient) *PostgresProvider {
	return &PostgresProvider{db: db}
}

func (p *PostgresProvider) Name() string { return "postgres" }

func (p *PostgresProvider) GetNeighborhoods(ctx context.Context) ([]models.Neighborhood, error) {
	defer observeFetch(p.Name(), time.Now())

	rows, err := p.db.Query(ctx, selectNeighborhoods+` ORDER BY sort_order, id`)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighborhoods: %w", err)
	}
	return out, nil
}

func (p *PostgresProvider) GetNeighborhood(ctx context.Context, id string) (*models.Neighborhood, error) {
	row := p.db.QueryRow(ctx, selectNeighborhoods+` WHERE id = $1`, id)
	n, err := scanNeighborhood(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Upsert writes the catalog in one transaction; slice position becomes sort_order.
func (p *PostgresProvider) Upsert(ctx context.Context, catalog []models.Neighborhood) error {
	tx, err := p.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO neighborhoods
			(id, name, city, state, coordinates, scores, demographics, amenities,
			 description, image_url, data_quality, sort_order, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, city = EXCLUDED.city, state = EXCLUDED.state,
			coordinates = EXCLUDED.coordinates, scores = EXCLUDED.scores,
			demographics = EXCLUDED.demographics, amenities = EXCLUDED.amenities,
			description = EXCLUDED.description, image_url = EXCLUDED.image_url,
			data_quality = EXCLUDED.data_quality, sort_order = EXCLUDED.sort_order,
			updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i, n := range catalog {
		cols, err := encodeJSONColumns(n)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, n.ID, n.Name, n.City, n.State,
			cols.coordinates, cols.scores, cols.demographics, cols.amenities,
			n.Description, n.ImageURL, n.DataQuality, i); err != nil {
			return fmt.Errorf("upsert %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type jsonColumns struct {
	coordinates, scores, demographics, amenities []byte
}

func encodeJSONColumns(n models.Neighborhood) (jsonColumns, error) {
	var c jsonColumns
	var err error
	if c.coordinates, err = json.Marshal(n.Coordinates); err != nil {
		return c, fmt.Errorf("encode coordinates for %s: %w", n.ID, err)
	}
	if c.scores, err = json.Marshal(n.Scores); err != nil {
		return c, fmt.Errorf("encode scores for %s: %w", n.ID, err)
	}
	if c.demographics, err = json.Marshal(n.Demographics); err != nil {
		return c, fmt.Errorf("encode demographics for %s: %w", n.ID, err)
	}
	amenities := n.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	if c.amenities, err = json.Marshal(amenities); err != nil {
		return c, fmt.Errorf("encode amenities for %s: %w", n.ID, err)
	}
	return c, nil
}

// scanNeighborhood is shared by the Postgres and SQLite providers; both keep
// the structured fields as JSON text.
func scanNeighborhood(row rowScanner) (models.Neighborhood, error) {
	var n models.Neighborhood
	var c jsonColumns
	if err := row.Scan(&n.ID, &n.Name, &n.City, &n.State,
		&c.coordinates, &c.scores, &c.demographics, &c.amenities,
		&n.Description, &n.ImageURL, &n.DataQuality); err != nil {
		return n, err
	}

	if err := json.Unmarshal(c.coordinates, &n.Coordinates); err != nil {
		return n, fmt.Errorf("decode coordinates for %s: %w", n.ID, err)
	}
	if err := json.Unmarshal(c.scores, &n.Scores); err != nil {
		return n, fmt.Errorf("decode scores for %s: %w", n.ID, err)
	}
	if err := json.Unmarshal(c.demographics, &n.Demographics); err != nil {
		return n, fmt.Errorf("decode demographics for %s: %w", n.ID, err)
	}
	if err := json.Unmarshal(c.amenities, &n.Amenities); err != nil {
		return n, fmt.Errorf("decode amenities for %s: %w", n.ID, err)
	}
	return n, nil
}
