package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
)

// RowValueRepository handles stored cell values of database rows
type RowValueRepository struct {
	db *DB
}

// NewRowValueRepository creates a new row value repository
func NewRowValueRepository(db *DB) *RowValueRepository {
	return &RowValueRepository{db: db}
}

// Upsert writes a cell value, replacing any prior value
func (r *RowValueRepository) Upsert(ctx context.Context, value *domain.RowValue) error {
	data, err := json.Marshal(value.Value)
	if err != nil {
		return fmt.Errorf("failed to marshal row value: %w", err)
	}

	query := `
		INSERT INTO row_values (row_id, property_id, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (row_id, property_id) DO UPDATE SET value = $3, updated_at = $4
	`

	_, err = r.db.Pool.Exec(ctx, query, value.RowID, value.PropertyID, data, value.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert row value: %w", err)
	}

	return nil
}

// Get retrieves one cell value
func (r *RowValueRepository) Get(ctx context.Context, rowID, propertyID uuid.UUID) (*domain.RowValue, error) {
	query := `
		SELECT row_id, property_id, value, updated_at
		FROM row_values
		WHERE row_id = $1 AND property_id = $2
	`

	var value domain.RowValue
	var data []byte
	err := r.db.Pool.QueryRow(ctx, query, rowID, propertyID).Scan(
		&value.RowID, &value.PropertyID, &data, &value.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get row value: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &value.Value); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row value: %w", err)
		}
	}

	return &value, nil
}

// ListByRow retrieves all stored cell values of one row
func (r *RowValueRepository) ListByRow(ctx context.Context, rowID uuid.UUID) ([]domain.RowValue, error) {
	query := `
		SELECT row_id, property_id, value, updated_at
		FROM row_values
		WHERE row_id = $1
	`

	return r.queryValues(ctx, query, rowID)
}

// ListByRows retrieves stored cell values across many rows at once, the
// bulk read backing a database view
func (r *RowValueRepository) ListByRows(ctx context.Context, rowIDs []uuid.UUID) ([]domain.RowValue, error) {
	query := `
		SELECT row_id, property_id, value, updated_at
		FROM row_values
		WHERE row_id = ANY($1)
	`

	return r.queryValues(ctx, query, rowIDs)
}

func (r *RowValueRepository) queryValues(ctx context.Context, query string, args ...any) ([]domain.RowValue, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list row values: %w", err)
	}
	defer rows.Close()

	var values []domain.RowValue
	for rows.Next() {
		var value domain.RowValue
		var data []byte
		if err := rows.Scan(&value.RowID, &value.PropertyID, &data, &value.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row value: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &value.Value); err != nil {
				return nil, fmt.Errorf("failed to unmarshal row value: %w", err)
			}
		}
		values = append(values, value)
	}

	return values, rows.Err()
}
