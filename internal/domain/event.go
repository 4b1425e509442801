package domain

import (
	"time"

	"github.com/google/uuid"
)

// Mutation operations carried on events.
const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpMove      = "move"
	OpDelete    = "delete"
	OpRestore   = "restore"
	OpDuplicate = "duplicate"
)

// Entity types carried on events.
const (
	EntityPage     = "page"
	EntityBlock    = "block"
	EntityProperty = "property"
	EntityRowValue = "row_value"
)

// MutationEvent is published after every committed structural or schema
// mutation. It carries enough for a subscriber (realtime broadcaster, search
// indexer) to patch its local view without a full refetch.
type MutationEvent struct {
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	EntityType  string     `json:"entity_type"`
	EntityID    uuid.UUID  `json:"entity_id"`
	Operation   string     `json:"operation"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	OrderKey    string     `json:"order_key,omitempty"`
	ActorID     uuid.UUID  `json:"actor_id"`
	OccurredAt  time.Time  `json:"occurred_at"`
}
