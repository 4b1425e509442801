package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PageRepository is the persistence boundary for the page hierarchy
type PageRepository interface {
	Create(ctx context.Context, page *Page) error
	GetByID(ctx context.Context, id uuid.UUID) (*Page, error)
	UpdateMeta(ctx context.Context, id uuid.UUID, update *PageUpdate, editorID uuid.UUID) error
	ListChildren(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID, includeDeleted bool) ([]Page, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Page, error)
	ListTrash(ctx context.Context, workspaceID uuid.UUID) ([]Page, error)
	LastSiblingKey(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID) (string, error)
	FirstSiblingKey(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID) (string, error)
	NextSiblingKey(ctx context.Context, workspaceID uuid.UUID, parentID *uuid.UUID, afterKey string) (string, error)
	IsAncestor(ctx context.Context, pageID, candidate uuid.UUID) (bool, error)
	Depth(ctx context.Context, pageID uuid.UUID) (int, error)
	Move(ctx context.Context, id uuid.UUID, parentID *uuid.UUID, workspaceID uuid.UUID, orderKey string) error
	SoftDeleteTree(ctx context.Context, id uuid.UUID, at time.Time) error
	RestoreTree(ctx context.Context, id uuid.UUID) error
	ReapTree(ctx context.Context, id uuid.UUID) error
	InsertSubtreeUnit(ctx context.Context, page *Page, blocks []Block, props []DatabaseProperty) error
}

// BlockRepository is the persistence boundary for page content blocks
type BlockRepository interface {
	Create(ctx context.Context, block *Block) error
	GetByID(ctx context.Context, id uuid.UUID) (*Block, error)
	Update(ctx context.Context, id uuid.UUID, update *BlockUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPage(ctx context.Context, pageID uuid.UUID) ([]Block, error)
	LastSiblingKey(ctx context.Context, pageID uuid.UUID, parentID *uuid.UUID) (string, error)
	FirstSiblingKey(ctx context.Context, pageID uuid.UUID, parentID *uuid.UUID) (string, error)
	NextSiblingKey(ctx context.Context, pageID uuid.UUID, parentID *uuid.UUID, afterKey string) (string, error)
	Move(ctx context.Context, id uuid.UUID, parentID *uuid.UUID, pageID uuid.UUID, orderKey string) error
}

// MemberRepository resolves workspace membership for access checks
type MemberRepository interface {
	GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*WorkspaceMember, error)
	IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error)
}

// PropertyRepository is the persistence boundary for database schemas
type PropertyRepository interface {
	Create(ctx context.Context, prop *DatabaseProperty) error
	GetByID(ctx context.Context, id uuid.UUID) (*DatabaseProperty, error)
	ListByDatabase(ctx context.Context, databaseID uuid.UUID) ([]DatabaseProperty, error)
	ListReferencing(ctx context.Context, propertyID uuid.UUID) ([]DatabaseProperty, error)
	LastKey(ctx context.Context, databaseID uuid.UUID) (string, error)
	Update(ctx context.Context, id uuid.UUID, name *string, config *PropertyConfig) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RowValueRepository stores typed cell values of database rows
type RowValueRepository interface {
	Upsert(ctx context.Context, value *RowValue) error
	Get(ctx context.Context, rowID, propertyID uuid.UUID) (*RowValue, error)
	ListByRow(ctx context.Context, rowID uuid.UUID) ([]RowValue, error)
	ListByRows(ctx context.Context, rowIDs []uuid.UUID) ([]RowValue, error)
}

// EventPublisher fans mutation events out to subscribers
type EventPublisher interface {
	Publish(ctx context.Context, event *MutationEvent) error
}

// TreeCache caches the assembled live page forest per workspace
type TreeCache interface {
	Get(ctx context.Context, workspaceID uuid.UUID) ([]*PageTreeNode, error)
	Set(ctx context.Context, workspaceID uuid.UUID, tree []*PageTreeNode) error
	Invalidate(ctx context.Context, workspaceID uuid.UUID) error
}
