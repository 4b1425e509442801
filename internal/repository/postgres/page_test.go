package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set - run as integration test")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return &DB{Pool: pool}
}

func seedPage(t *testing.T, repo *PageRepository, workspaceID uuid.UUID, parentID *uuid.UUID, actor uuid.UUID, title, key string) *domain.Page {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	page := &domain.Page{
		ID:           uuid.New(),
		WorkspaceID:  workspaceID,
		ParentID:     parentID,
		Title:        title,
		OrderKey:     key,
		CreatedByID:  actor,
		LastEditedBy: actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(context.Background(), page))
	return page
}

// Restore brings back only pages trashed by the same delete call: a
// descendant trashed earlier on its own keeps its older deleted_at stamp
// and stays in the trash, while trashed ancestors come back so the page
// is reachable again.
func TestPageRepository_RestoreTree(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPageRepository(db)

	now := time.Now().UTC().Truncate(time.Microsecond)
	actor := &domain.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Name: "tester", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewUserRepository(db).Create(ctx, actor))
	workspace := &domain.Workspace{ID: uuid.New(), Name: "restore", OwnerID: actor.ID, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewWorkspaceRepository(db).Create(ctx, workspace))

	root := seedPage(t, repo, workspace.ID, nil, actor.ID, "root", "a0")
	child := seedPage(t, repo, workspace.ID, &root.ID, actor.ID, "child", "a0")
	grandchild := seedPage(t, repo, workspace.ID, &child.ID, actor.ID, "grandchild", "a0")

	// The grandchild goes to the trash on its own first; the root's later
	// delete stamps only the still-live pages.
	require.NoError(t, repo.SoftDeleteTree(ctx, grandchild.ID, now.Add(-time.Hour)))
	require.NoError(t, repo.SoftDeleteTree(ctx, root.ID, now))

	require.NoError(t, repo.RestoreTree(ctx, child.ID))

	got, err := repo.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)

	// The trashed ancestor is restored so the child is reachable.
	got, err = repo.GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)

	// The independently trashed grandchild stays where it was.
	got, err = repo.GetByID(ctx, grandchild.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)

	require.NoError(t, repo.RestoreTree(ctx, grandchild.ID))
	got, err = repo.GetByID(ctx, grandchild.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)
}

// A second delete of an already-trashed subtree must not re-stamp it,
// or restore would start treating independent deletes as one call.
func TestPageRepository_SoftDeleteTreeKeepsEarlierStamps(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPageRepository(db)

	now := time.Now().UTC().Truncate(time.Microsecond)
	actor := &domain.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Name: "tester", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewUserRepository(db).Create(ctx, actor))
	workspace := &domain.Workspace{ID: uuid.New(), Name: "stamps", OwnerID: actor.ID, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewWorkspaceRepository(db).Create(ctx, workspace))

	root := seedPage(t, repo, workspace.ID, nil, actor.ID, "root", "a0")
	child := seedPage(t, repo, workspace.ID, &root.ID, actor.ID, "child", "a0")

	first := now.Add(-time.Hour)
	require.NoError(t, repo.SoftDeleteTree(ctx, child.ID, first))
	require.NoError(t, repo.SoftDeleteTree(ctx, root.ID, now))

	got, err := repo.GetByID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)
	assert.True(t, got.DeletedAt.Equal(first))
}
