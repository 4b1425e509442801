package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BlockType enumerates the supported content kinds.
type BlockType string

const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockToDo             BlockType = "to_do"
	BlockToggle           BlockType = "toggle"
	BlockQuote            BlockType = "quote"
	BlockCallout          BlockType = "callout"
	BlockDivider          BlockType = "divider"
	BlockCode             BlockType = "code"
	BlockImage            BlockType = "image"
	BlockVideo            BlockType = "video"
	BlockFile             BlockType = "file"
	BlockBookmark         BlockType = "bookmark"
	BlockEmbed            BlockType = "embed"
	BlockEquation         BlockType = "equation"
	BlockTable            BlockType = "table"
	BlockTableRow         BlockType = "table_row"
	BlockColumnList       BlockType = "column_list"
	BlockColumn           BlockType = "column"
	BlockChildPage        BlockType = "child_page"
	BlockChildDatabase    BlockType = "child_database"
)

var blockTypes = map[BlockType]struct{}{
	BlockParagraph: {}, BlockHeading1: {}, BlockHeading2: {}, BlockHeading3: {},
	BlockBulletedListItem: {}, BlockNumberedListItem: {}, BlockToDo: {}, BlockToggle: {},
	BlockQuote: {}, BlockCallout: {}, BlockDivider: {}, BlockCode: {},
	BlockImage: {}, BlockVideo: {}, BlockFile: {}, BlockBookmark: {},
	BlockEmbed: {}, BlockEquation: {}, BlockTable: {}, BlockTableRow: {},
	BlockColumnList: {}, BlockColumn: {}, BlockChildPage: {}, BlockChildDatabase: {},
}

// Valid reports whether t is a known block type.
func (t BlockType) Valid() bool {
	_, ok := blockTypes[t]
	return ok
}

// Block represents a content unit within a page, optionally nested under
// another block of the same page. Content is kind-specific structured data,
// kept opaque at the storage layer. Blocks are never soft-deleted; their
// trash visibility is derived from the owning page.
type Block struct {
	ID          uuid.UUID       `json:"id"`
	PageID      uuid.UUID       `json:"page_id"`
	ParentID    *uuid.UUID      `json:"parent_id,omitempty"`
	Type        BlockType       `json:"type"`
	Content     json.RawMessage `json:"content,omitempty"`
	OrderKey    string          `json:"order_key"`
	CreatedByID uuid.UUID       `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BlockCreate represents block creation data
type BlockCreate struct {
	ParentID *uuid.UUID      `json:"parent_id,omitempty"`
	Type     BlockType       `json:"type" validate:"required"`
	Content  json.RawMessage `json:"content,omitempty"`
	OrderKey *string         `json:"order_key,omitempty"`
}

// BlockUpdate represents a partial block update (type/content only)
type BlockUpdate struct {
	Type    *BlockType      `json:"type,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
}

// BlockMove represents a structural block move. A move with NewPageID set
// carries the block's whole descendant subtree into the destination page.
type BlockMove struct {
	NewParentID *uuid.UUID `json:"new_parent_id,omitempty"`
	ToRoot      bool       `json:"to_root,omitempty"`
	NewPageID   *uuid.UUID `json:"new_page_id,omitempty"`
	AfterID     *uuid.UUID `json:"after_id,omitempty"`
	OrderKey    *string    `json:"order_key,omitempty"`
}

// BlockTreeNode is a block with its ordered children.
type BlockTreeNode struct {
	Block    Block            `json:"block"`
	Children []*BlockTreeNode `json:"children,omitempty"`
}
