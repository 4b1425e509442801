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

// PropertyRepository handles database property definitions
type PropertyRepository struct {
	db *DB
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func encodePropertyConfig(config *domain.PropertyConfig) ([]byte, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal property config: %w", err)
	}
	return data, nil
}

func scanProperty(row pgx.Row) (*domain.DatabaseProperty, error) {
	var prop domain.DatabaseProperty
	var configJSON []byte
	err := row.Scan(
		&prop.ID,
		&prop.DatabaseID,
		&prop.Name,
		&prop.Type,
		&configJSON,
		&prop.OrderKey,
		&prop.CreatedAt,
		&prop.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &prop.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal property config: %w", err)
		}
	}
	return &prop, nil
}

// Create persists a new property definition
func (r *PropertyRepository) Create(ctx context.Context, prop *domain.DatabaseProperty) error {
	config, err := encodePropertyConfig(&prop.Config)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO database_properties (id, database_id, name, type, config, order_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		prop.ID, prop.DatabaseID, prop.Name, prop.Type, config,
		prop.OrderKey, prop.CreatedAt, prop.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}

	return nil
}

// GetByID retrieves a property by ID
func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DatabaseProperty, error) {
	query := `
		SELECT id, database_id, name, type, config, order_key, created_at, updated_at
		FROM database_properties
		WHERE id = $1
	`

	prop, err := scanProperty(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	return prop, nil
}

// ListByDatabase retrieves all property definitions of a database page in
// column order
func (r *PropertyRepository) ListByDatabase(ctx context.Context, databaseID uuid.UUID) ([]domain.DatabaseProperty, error) {
	query := `
		SELECT id, database_id, name, type, config, order_key, created_at, updated_at
		FROM database_properties
		WHERE database_id = $1
		ORDER BY order_key, id
	`

	rows, err := r.db.Pool.Query(ctx, query, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	var props []domain.DatabaseProperty
	for rows.Next() {
		prop, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		props = append(props, *prop)
	}

	return props, rows.Err()
}

// LastKey returns the highest property order key of a database, or ""
func (r *PropertyRepository) LastKey(ctx context.Context, databaseID uuid.UUID) (string, error) {
	query := `
		SELECT order_key FROM database_properties
		WHERE database_id = $1
		ORDER BY order_key DESC, id DESC
		LIMIT 1
	`

	var key string
	err := r.db.Pool.QueryRow(ctx, query, databaseID).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get last property key: %w", err)
	}

	return key, nil
}

// ListReferencing retrieves rollup properties whose config points at the
// given property, across all databases
func (r *PropertyRepository) ListReferencing(ctx context.Context, propertyID uuid.UUID) ([]domain.DatabaseProperty, error) {
	query := `
		SELECT id, database_id, name, type, config, order_key, created_at, updated_at
		FROM database_properties
		WHERE config->>'relation_property_id' = $1
		   OR config->>'target_property_id' = $1
		ORDER BY order_key, id
	`

	rows, err := r.db.Pool.Query(ctx, query, propertyID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list referencing properties: %w", err)
	}
	defer rows.Close()

	var props []domain.DatabaseProperty
	for rows.Next() {
		prop, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		props = append(props, *prop)
	}

	return props, rows.Err()
}

// Update updates a property's name and config
func (r *PropertyRepository) Update(ctx context.Context, id uuid.UUID, name *string, config *domain.PropertyConfig) error {
	var configJSON []byte
	if config != nil {
		var err error
		configJSON, err = encodePropertyConfig(config)
		if err != nil {
			return err
		}
	}

	query := `
		UPDATE database_properties
		SET name = COALESCE($2, name),
		    config = COALESCE($3, config),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, name, configJSON)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes a property definition; the store cascades to stored row
// values for it
func (r *PropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM database_properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
