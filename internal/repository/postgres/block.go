package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
)

const blockColumns = `id, page_id, parent_id, type, content, order_key, created_by, created_at, updated_at`

// BlockRepository is the Node Store for blocks. Blocks hard-delete with
// cascade; their trash visibility is derived from the owning page at query
// time, never stored.
type BlockRepository struct {
	db *DB
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(db *DB) *BlockRepository {
	return &BlockRepository{db: db}
}

func scanBlock(row pgx.Row) (*domain.Block, error) {
	var block domain.Block
	err := row.Scan(
		&block.ID,
		&block.PageID,
		&block.ParentID,
		&block.Type,
		&block.Content,
		&block.OrderKey,
		&block.CreatedByID,
		&block.CreatedAt,
		&block.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// Create persists a new block
func (r *BlockRepository) Create(ctx context.Context, block *domain.Block) error {
	query := `
		INSERT INTO blocks (` + blockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		block.ID, block.PageID, block.ParentID, block.Type, block.Content,
		block.OrderKey, block.CreatedByID, block.CreatedAt, block.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}

	return nil
}

// GetByID retrieves a block by ID
func (r *BlockRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Block, error) {
	query := `SELECT ` + blockColumns + ` FROM blocks WHERE id = $1`

	block, err := scanBlock(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get block: %w", err)
	}

	return block, nil
}

// Update applies a partial update to type/content
func (r *BlockRepository) Update(ctx context.Context, id uuid.UUID, update *domain.BlockUpdate) error {
	query := `
		UPDATE blocks
		SET type = COALESCE($2, type),
		    content = COALESCE($3, content),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, update.Type, update.Content)
	if err != nil {
		return fmt.Errorf("failed to update block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete hard-deletes a block; the store cascades to descendant blocks
func (r *BlockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ListByPage retrieves all blocks of a page ordered by (order_key, id)
func (r *BlockRepository) ListByPage(ctx context.Context, pageID uuid.UUID) ([]domain.Block, error) {
	query := `
		SELECT ` + blockColumns + `
		FROM blocks
		WHERE page_id = $1
		ORDER BY order_key, id
	`

	rows, err := r.db.Pool.Query(ctx, query, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []domain.Block
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		blocks = append(blocks, *block)
	}

	return blocks, rows.Err()
}

// LastSiblingKey returns the highest order key among a block sibling group
func (r *BlockRepository) LastSiblingKey(ctx context.Context, pageID uuid.UUID, parentID *uuid.UUID) (string, error) {
	query := `
		SELECT order_key FROM blocks
		WHERE page_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		ORDER BY order_key DESC, id DESC
		LIMIT 1
	`

	var key string
	err := r.db.Pool.QueryRow(ctx, query, pageID, parentID).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get last sibling key: %w", err)
	}

	return key, nil
}

// FirstSiblingKey returns the lowest order key among a block sibling group
func (r *BlockRepository) FirstSiblingKey(ctx context.Context, pageID uuid.UUID, parentID *uuid.UUID) (string, error) {
	query := `
		SELECT order_key FROM blocks
		WHERE page_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		ORDER BY order_key, id
		LIMIT 1
	`

	var key string
	err := r.db.Pool.QueryRow(ctx, query, pageID, parentID).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get first sibling key: %w", err)
	}

	return key, nil
}

// NextSiblingKey returns the lowest order key strictly above afterKey within
// a block sibling group, or "" when afterKey is already last.
func (r *BlockRepository) NextSiblingKey(ctx context.Context, pageID uuid.UUID, parentID *uuid.UUID, afterKey string) (string, error) {
	query := `
		SELECT order_key FROM blocks
		WHERE page_id = $1 AND parent_id IS NOT DISTINCT FROM $2 AND order_key > $3
		ORDER BY order_key, id
		LIMIT 1
	`

	var key string
	err := r.db.Pool.QueryRow(ctx, query, pageID, parentID, afterKey).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get next sibling key: %w", err)
	}

	return key, nil
}

// Move atomically re-parents a block. Cycle and same-page checks re-run
// against committed state under a per-page advisory lock; a move into a
// different page carries the block's whole descendant subtree by rewriting
// page_id on every descendant, so the subtree stays reachable only through
// the destination page's queries.
func (r *BlockRepository) Move(ctx context.Context, id uuid.UUID, parentID *uuid.UUID, pageID uuid.UUID, orderKey string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin move: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentPage uuid.UUID
	err = tx.QueryRow(ctx, `SELECT page_id FROM blocks WHERE id = $1`, id).Scan(&currentPage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("block %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to read block: %w", err)
	}

	locks := []uuid.UUID{currentPage}
	if pageID != currentPage {
		locks = append(locks, pageID)
		sort.Slice(locks, func(i, j int) bool { return locks[i].String() < locks[j].String() })
	}
	for _, p := range locks {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, p.String()); err != nil {
			return fmt.Errorf("failed to take page lock: %w", err)
		}
	}

	var lockedPage uuid.UUID
	err = tx.QueryRow(ctx, `SELECT page_id FROM blocks WHERE id = $1 FOR UPDATE`, id).Scan(&lockedPage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("block %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to lock block: %w", err)
	}
	if lockedPage != currentPage {
		return &pgconn.PgError{Code: "40001", Message: "block moved concurrently"}
	}

	if parentID != nil {
		if *parentID == id {
			return domain.ErrCycleDetected
		}

		var parentPage uuid.UUID
		err = tx.QueryRow(ctx, `SELECT page_id FROM blocks WHERE id = $1`, *parentID).Scan(&parentPage)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("parent block %s: %w", *parentID, domain.ErrNotFound)
			}
			return fmt.Errorf("failed to read parent: %w", err)
		}
		if parentPage != pageID {
			return fmt.Errorf("parent block belongs to page %s: %w", parentPage, domain.ErrCrossTenant)
		}

		var cycle bool
		cycleQuery := `
			WITH RECURSIVE chain AS (
				SELECT id, parent_id FROM blocks WHERE id = $1
				UNION ALL
				SELECT b.id, b.parent_id FROM blocks b JOIN chain c ON b.id = c.parent_id
			)
			SELECT EXISTS(SELECT 1 FROM chain WHERE id = $2)
		`
		if err := tx.QueryRow(ctx, cycleQuery, *parentID, id).Scan(&cycle); err != nil {
			return fmt.Errorf("failed to run cycle check: %w", err)
		}
		if cycle {
			return domain.ErrCycleDetected
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE blocks
		SET parent_id = $2, page_id = $3, order_key = $4, updated_at = NOW()
		WHERE id = $1
	`, id, parentID, pageID, orderKey)
	if err != nil {
		return fmt.Errorf("failed to move block: %w", err)
	}

	if pageID != currentPage {
		_, err = tx.Exec(ctx, `
			WITH RECURSIVE subtree AS (
				SELECT id FROM blocks WHERE id = $1
				UNION ALL
				SELECT b.id FROM blocks b JOIN subtree s ON b.parent_id = s.id
			)
			UPDATE blocks SET page_id = $2
			WHERE id IN (SELECT id FROM subtree)
		`, id, pageID)
		if err != nil {
			return fmt.Errorf("failed to carry subtree across pages: %w", err)
		}
	}

	return tx.Commit(ctx)
}
