package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workspace represents a tenant workspace, the root of a page forest
type Workspace struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkspaceCreate represents workspace creation data
type WorkspaceCreate struct {
	Name string `json:"name" validate:"required,max=255"`
	Icon string `json:"icon,omitempty" validate:"omitempty,max=255"`
}

// WorkspaceUpdate represents workspace update data
type WorkspaceUpdate struct {
	Name *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Icon *string `json:"icon,omitempty" validate:"omitempty,max=255"`
}

// WorkspaceMember represents workspace membership
type WorkspaceMember struct {
	WorkspaceID uuid.UUID `json:"workspace_id"`
	UserID      uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Role constants
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// CanWrite reports whether the role allows structural mutations.
func (m *WorkspaceMember) CanWrite() bool {
	return m.Role == RoleOwner || m.Role == RoleAdmin || m.Role == RoleMember
}

// CanAdminister reports whether the role allows workspace-level deletes
// and membership changes.
func (m *WorkspaceMember) CanAdminister() bool {
	return m.Role == RoleOwner || m.Role == RoleAdmin
}
