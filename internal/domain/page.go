package domain

import (
	"time"

	"github.com/google/uuid"
)

// Page represents a titled node in the document tree. A page with IsDatabase
// set is governed by a DatabaseProperty schema; its child pages are the rows.
type Page struct {
	ID           uuid.UUID  `json:"id"`
	WorkspaceID  uuid.UUID  `json:"workspace_id"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	Title        string     `json:"title"`
	Icon         string     `json:"icon,omitempty"`
	Cover        string     `json:"cover,omitempty"`
	IsDatabase   bool       `json:"is_database"`
	IsTemplate   bool       `json:"is_template"`
	IsDeleted    bool       `json:"is_deleted"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	OrderKey     string     `json:"order_key"`
	CreatedByID  uuid.UUID  `json:"created_by"`
	LastEditedBy uuid.UUID  `json:"last_edited_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PageCreate represents page creation data
type PageCreate struct {
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	Title      string     `json:"title" validate:"max=1024"`
	Icon       string     `json:"icon,omitempty" validate:"omitempty,max=255"`
	IsDatabase bool       `json:"is_database"`
	IsTemplate bool       `json:"is_template"`
}

// PageUpdate represents a partial page update. Parent and order are never
// touched here; moves go through PageMove.
type PageUpdate struct {
	Title *string `json:"title,omitempty" validate:"omitempty,max=1024"`
	Icon  *string `json:"icon,omitempty" validate:"omitempty,max=255"`
	Cover *string `json:"cover,omitempty" validate:"omitempty,max=1024"`
}

// PageMove represents a structural move request. Omitted fields keep their
// current values; ToRoot moves the page to the top level since a null parent
// cannot be told apart from an omitted one. OrderKey, when given, is taken
// as-is instead of being computed against the destination siblings; AfterID
// places the page right behind a destination sibling.
type PageMove struct {
	NewParentID    *uuid.UUID `json:"new_parent_id,omitempty"`
	ToRoot         bool       `json:"to_root,omitempty"`
	NewWorkspaceID *uuid.UUID `json:"new_workspace_id,omitempty"`
	AfterID        *uuid.UUID `json:"after_id,omitempty"`
	OrderKey       *string    `json:"order_key,omitempty"`
}

// PageView is a page with its ordered, nested block tree.
type PageView struct {
	Page   Page             `json:"page"`
	Blocks []*BlockTreeNode `json:"blocks,omitempty"`
}

// PageTreeNode is a page with its ordered children, the read-side projection
// of the hierarchy.
type PageTreeNode struct {
	Page     Page            `json:"page"`
	Children []*PageTreeNode `json:"children,omitempty"`
}
