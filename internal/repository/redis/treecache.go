package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
)

const (
	treeCachePrefix = "pagetree:"
	treeCacheTTL    = 2 * time.Minute
)

// TreeCache caches assembled workspace page trees. The cache is dropped on
// every mutation touching the workspace, so a stale entry lives at most one
// eventual-consistency window.
type TreeCache struct {
	client *Client
}

// NewTreeCache creates a new tree cache
func NewTreeCache(client *Client) *TreeCache {
	return &TreeCache{client: client}
}

// Get retrieves a cached page tree for a workspace
func (c *TreeCache) Get(ctx context.Context, workspaceID uuid.UUID) ([]*domain.PageTreeNode, error) {
	key := fmt.Sprintf("%s%s", treeCachePrefix, workspaceID.String())

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var tree []*domain.PageTreeNode
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page tree: %w", err)
	}

	return tree, nil
}

// Set caches a page tree for a workspace
func (c *TreeCache) Set(ctx context.Context, workspaceID uuid.UUID, tree []*domain.PageTreeNode) error {
	key := fmt.Sprintf("%s%s", treeCachePrefix, workspaceID.String())

	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal page tree: %w", err)
	}

	return c.client.rdb.Set(ctx, key, data, treeCacheTTL).Err()
}

// Invalidate removes the cached tree for a workspace
func (c *TreeCache) Invalidate(ctx context.Context, workspaceID uuid.UUID) error {
	key := fmt.Sprintf("%s%s", treeCachePrefix, workspaceID.String())
	return c.client.rdb.Del(ctx, key).Err()
}
