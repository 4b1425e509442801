package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
)

const pageColumns = `
	id, workspace_id, parent_id, title, icon, cover,
	is_database, is_template, is_deleted, deleted_at,
	order_key, created_by, last_edited_by, created_at, updated_at
`

// PageRepository is the Node Store for pages. It exclusively owns the
// parent/order/deleted fields and is the commit-time arbiter of structural
// invariants: cycle checks re-run inside the transaction while holding a
// per-workspace advisory lock.
type PageRepository struct {
	db *DB
}

// NewPageRepository creates a new page repository
func NewPageRepository(db *DB) *PageRepository {
	return &PageRepository{db: db}
}

// IsRetryable reports whether err is a transient serialization or deadlock
// failure that a caller may retry against fresh state.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func scanPage(row pgx.Row) (*domain.Page, error) {
	var page domain.Page
	err := row.Scan(
		&page.ID,
		&page.WorkspaceID,
		&page.ParentID,
		&page.Title,
		&page.Icon,
		&page.Cover,
		&page.IsDatabase,
		&page.IsTemplate,
		&page.IsDeleted,
		&page.DeletedAt,
		&page.OrderKey,
		&page.CreatedByID,
		&page.LastEditedBy,
		&page.CreatedAt,
		&page.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Create persists a new page
func (r *PageRepository) Create(ctx context.Context, page *domain.Page) error {
	query := `
		INSERT INTO pages (` + pageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		page.ID, page.WorkspaceID, page.ParentID, page.Title, page.Icon, page.Cover,
		page.IsDatabase, page.IsTemplate, page.IsDeleted, page.DeletedAt,
		page.OrderKey, page.CreatedByID, page.LastEditedBy, page.CreatedAt, page.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}

	return nil
}

// GetByID retrieves a page by ID, deleted or not
func (r *PageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE id = $1`

	page, err := scanPage(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	return page, nil
}

// UpdateMeta applies a partial update to title/icon/cover. Parent and order
// fields are only ever written by Move.
func (r *PageRepository) UpdateMeta(ctx context.Context, id uuid.UUID, update *domain.PageUpdate, editorID uuid.UUID) error {
	query := `
		UPDATE pages
		SET title = COALESCE($2, title),
		    icon = COALESCE($3, icon),
		    cover = COALESCE($4, cover),
		    last_edited_by = $5,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, update.Title, update.Icon, update.Cover, editorID)
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ListChildren retrieves the ordered sibling group under parentID (nil for
// top-level pages). Soft-deleted pages are excluded unless includeDeleted.
func (r *PageRepository) ListChildren(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID, includeDeleted bool) ([]domain.Page, error) {
	query := `
		SELECT ` + pageColumns + `
		FROM pages
		WHERE workspace_id = $1 AND parent_id IS NOT DISTINCT FROM $2
	`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	query += ` ORDER BY order_key, id`

	return r.queryPages(ctx, query, workspaceID, parentID)
}

// ListByWorkspace retrieves every live page of a workspace ordered by
// (order_key, id), the input for tree projection.
func (r *PageRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.Page, error) {
	query := `
		SELECT ` + pageColumns + `
		FROM pages
		WHERE workspace_id = $1 AND is_deleted = FALSE
		ORDER BY order_key, id
	`

	return r.queryPages(ctx, query, workspaceID)
}

// ListTrash retrieves soft-deleted pages of a workspace, most recent first
func (r *PageRepository) ListTrash(ctx context.Context, workspaceID uuid.UUID) ([]domain.Page, error) {
	query := `
		SELECT ` + pageColumns + `
		FROM pages
		WHERE workspace_id = $1 AND is_deleted = TRUE
		ORDER BY deleted_at DESC, id
	`

	return r.queryPages(ctx, query, workspaceID)
}

func (r *PageRepository) queryPages(ctx context.Context, query string, args ...any) ([]domain.Page, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, *page)
	}

	return pages, rows.Err()
}

// LastSiblingKey returns the highest order key in a sibling group, or ""
// when the group is empty. Soft-deleted siblings still occupy their keys.
func (r *PageRepository) LastSiblingKey(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID) (string, error) {
	query := `
		SELECT order_key FROM pages
		WHERE workspace_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		ORDER BY order_key DESC, id DESC
		LIMIT 1
	`

	var key string
	err := r.db.Pool.QueryRow(ctx, query, workspaceID, parentID).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get last sibling key: %w", err)
	}

	return key, nil
}

// FirstSiblingKey returns the lowest order key in a sibling group, or ""
func (r *PageRepository) FirstSiblingKey(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID) (string, error) {
	query := `
		SELECT order_key FROM pages
		WHERE workspace_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		ORDER BY order_key, id
		LIMIT 1
	`

	var key string
	err := r.db.Pool.QueryRow(ctx, query, workspaceID, parentID).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get first sibling key: %w", err)
	}

	return key, nil
}

// NextSiblingKey returns the lowest order key strictly above afterKey within
// a sibling group, or "" when afterKey is already last.
func (r *PageRepository) NextSiblingKey(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID, afterKey string) (string, error) {
	query := `
		SELECT order_key FROM pages
		WHERE workspace_id = $1 AND parent_id IS NOT DISTINCT FROM $2 AND order_key > $3
		ORDER BY order_key, id
		LIMIT 1
	`

	var key string
	err := r.db.Pool.QueryRow(ctx, query, workspaceID, parentID, afterKey).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get next sibling key: %w", err)
	}

	return key, nil
}

// IsAncestor reports whether candidate appears strictly above pageID in the
// parent chain. IsAncestor(p, p) is false.
func (r *PageRepository) IsAncestor(ctx context.Context, pageID, candidate uuid.UUID) (bool, error) {
	query := `
		WITH RECURSIVE chain AS (
			SELECT parent_id FROM pages WHERE id = $1
			UNION ALL
			SELECT p.parent_id FROM pages p JOIN chain c ON p.id = c.parent_id
		)
		SELECT EXISTS(SELECT 1 FROM chain WHERE parent_id = $2)
	`

	var found bool
	if err := r.db.Pool.QueryRow(ctx, query, pageID, candidate).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to walk ancestor chain: %w", err)
	}

	return found, nil
}

// Depth returns the number of ancestors above the page, so a root page
// has depth zero.
func (r *PageRepository) Depth(ctx context.Context, pageID uuid.UUID) (int, error) {
	query := `
		WITH RECURSIVE chain AS (
			SELECT parent_id FROM pages WHERE id = $1
			UNION ALL
			SELECT p.parent_id FROM pages p JOIN chain c ON p.id = c.parent_id
		)
		SELECT COUNT(*) - 1 FROM chain
	`

	var depth int
	if err := r.db.Pool.QueryRow(ctx, query, pageID).Scan(&depth); err != nil {
		return 0, fmt.Errorf("failed to measure page depth: %w", err)
	}
	if depth < 0 {
		depth = 0
	}

	return depth, nil
}

// Move atomically re-parents a page: cycle and tenant checks re-run against
// committed state under a per-workspace advisory lock, then parent_id,
// workspace_id and order_key are written together. A cross-workspace move
// carries the whole descendant subtree into the destination workspace.
func (r *PageRepository) Move(ctx context.Context, id uuid.UUID, parentID *uuid.UUID, workspaceID uuid.UUID, orderKey string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin move: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentWorkspace uuid.UUID
	err = tx.QueryRow(ctx, `SELECT workspace_id FROM pages WHERE id = $1`, id).Scan(&currentWorkspace)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to read page: %w", err)
	}

	// Serialize cycle-sensitive moves per affected workspace. Locks are
	// taken in sorted order so two cross-workspace moves cannot deadlock.
	locks := []uuid.UUID{currentWorkspace}
	if workspaceID != currentWorkspace {
		locks = append(locks, workspaceID)
		sort.Slice(locks, func(i, j int) bool { return locks[i].String() < locks[j].String() })
	}
	for _, ws := range locks {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, ws.String()); err != nil {
			return fmt.Errorf("failed to take workspace lock: %w", err)
		}
	}

	// Re-read under the lock; the page may have crossed workspaces since
	// the unlocked read, in which case the caller retries.
	var lockedWorkspace uuid.UUID
	err = tx.QueryRow(ctx, `SELECT workspace_id FROM pages WHERE id = $1 FOR UPDATE`, id).Scan(&lockedWorkspace)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to lock page: %w", err)
	}
	if lockedWorkspace != currentWorkspace {
		return &pgconn.PgError{Code: "40001", Message: "page moved concurrently"}
	}

	if parentID != nil {
		if *parentID == id {
			return domain.ErrCycleDetected
		}

		var parentWorkspace uuid.UUID
		var parentDeleted bool
		err = tx.QueryRow(ctx, `SELECT workspace_id, is_deleted FROM pages WHERE id = $1`, *parentID).Scan(&parentWorkspace, &parentDeleted)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("parent page %s: %w", *parentID, domain.ErrNotFound)
			}
			return fmt.Errorf("failed to read parent: %w", err)
		}
		if parentWorkspace != workspaceID {
			return fmt.Errorf("parent belongs to workspace %s: %w", parentWorkspace, domain.ErrCrossTenant)
		}
		if parentDeleted {
			return fmt.Errorf("parent is in trash: %w", domain.ErrInvalidState)
		}

		// commit-time cycle check: the destination parent's ancestor chain
		// must not contain the moved page
		var cycle bool
		cycleQuery := `
			WITH RECURSIVE chain AS (
				SELECT id, parent_id FROM pages WHERE id = $1
				UNION ALL
				SELECT p.id, p.parent_id FROM pages p JOIN chain c ON p.id = c.parent_id
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
		UPDATE pages
		SET parent_id = $2, workspace_id = $3, order_key = $4, updated_at = NOW()
		WHERE id = $1
	`, id, parentID, workspaceID, orderKey)
	if err != nil {
		return fmt.Errorf("failed to move page: %w", err)
	}

	if workspaceID != currentWorkspace {
		_, err = tx.Exec(ctx, `
			WITH RECURSIVE subtree AS (
				SELECT id FROM pages WHERE id = $1
				UNION ALL
				SELECT p.id FROM pages p JOIN subtree s ON p.parent_id = s.id
			)
			UPDATE pages SET workspace_id = $2
			WHERE id IN (SELECT id FROM subtree)
		`, id, workspaceID)
		if err != nil {
			return fmt.Errorf("failed to carry subtree across workspaces: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// SoftDeleteTree marks a page and all of its live descendants deleted with a
// single shared timestamp. Already-deleted descendants keep their original
// deleted_at, which is what lets Restore tell same-call deletions apart.
func (r *PageRepository) SoftDeleteTree(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT id FROM pages WHERE id = $1
			UNION ALL
			SELECT p.id FROM pages p JOIN subtree s ON p.parent_id = s.id
		)
		UPDATE pages
		SET is_deleted = TRUE, deleted_at = $2, updated_at = NOW()
		WHERE id IN (SELECT id FROM subtree) AND is_deleted = FALSE
	`

	if _, err := r.db.Pool.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to soft-delete subtree: %w", err)
	}

	return nil
}

// RestoreTree clears the deleted flag on a page, on every deleted ancestor
// up to the workspace root (a restored page must be reachable), and on the
// descendants that were deleted in the same call as the page itself.
// Independently deleted descendants stay in the trash.
func (r *PageRepository) RestoreTree(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin restore: %w", err)
	}
	defer tx.Rollback(ctx)

	var isDeleted bool
	var deletedAt *time.Time
	err = tx.QueryRow(ctx, `SELECT is_deleted, deleted_at FROM pages WHERE id = $1 FOR UPDATE`, id).Scan(&isDeleted, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to read page: %w", err)
	}
	if !isDeleted {
		return fmt.Errorf("page is not in trash: %w", domain.ErrInvalidState)
	}

	// descendants stamped by the same soft-delete call
	_, err = tx.Exec(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM pages WHERE id = $1
			UNION ALL
			SELECT p.id FROM pages p JOIN subtree s ON p.parent_id = s.id
		)
		UPDATE pages
		SET is_deleted = FALSE, deleted_at = NULL, updated_at = NOW()
		WHERE id IN (SELECT id FROM subtree) AND is_deleted = TRUE AND deleted_at = $2
	`, id, deletedAt)
	if err != nil {
		return fmt.Errorf("failed to restore descendants: %w", err)
	}

	// the page itself plus any deleted ancestors, so it is reachable again
	_, err = tx.Exec(ctx, `
		WITH RECURSIVE ancestors AS (
			SELECT id, parent_id FROM pages WHERE id = $1
			UNION ALL
			SELECT p.id, p.parent_id FROM pages p JOIN ancestors a ON p.id = a.parent_id
		)
		UPDATE pages
		SET is_deleted = FALSE, deleted_at = NULL, updated_at = NOW()
		WHERE id IN (SELECT id FROM ancestors) AND is_deleted = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("failed to restore ancestors: %w", err)
	}

	return tx.Commit(ctx)
}

// ReapTree permanently deletes a page; the store cascades to descendant
// pages, their blocks, database properties and row values.
func (r *PageRepository) ReapTree(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM pages WHERE id = $1 AND is_deleted = TRUE`, id)
	if err != nil {
		return fmt.Errorf("failed to reap page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("page is not in trash: %w", domain.ErrInvalidState)
	}

	return nil
}

// InsertSubtreeUnit atomically persists one duplication unit: a copied page
// with its blocks and, for databases, its property definitions. Duplication
// of a large subtree is a sequence of these units; an interrupted run leaves
// only whole units behind.
func (r *PageRepository) InsertSubtreeUnit(ctx context.Context, page *domain.Page, blocks []domain.Block, props []domain.DatabaseProperty) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin copy unit: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO pages (`+pageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		page.ID, page.WorkspaceID, page.ParentID, page.Title, page.Icon, page.Cover,
		page.IsDatabase, page.IsTemplate, page.IsDeleted, page.DeletedAt,
		page.OrderKey, page.CreatedByID, page.LastEditedBy, page.CreatedAt, page.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to copy page: %w", err)
	}

	for i := range blocks {
		b := &blocks[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO blocks (id, page_id, parent_id, type, content, order_key, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, b.ID, b.PageID, b.ParentID, b.Type, b.Content, b.OrderKey, b.CreatedByID, b.CreatedAt, b.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to copy block: %w", err)
		}
	}

	for i := range props {
		p := &props[i]
		config, err := encodePropertyConfig(&p.Config)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO database_properties (id, database_id, name, type, config, order_key, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, p.ID, p.DatabaseID, p.Name, p.Type, config, p.OrderKey, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to copy property: %w", err)
		}
	}

	return tx.Commit(ctx)
}
