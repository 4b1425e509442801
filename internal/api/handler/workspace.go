package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/api/middleware"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/api/response"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/service"
)

// WorkspaceHandler handles workspace endpoints
type WorkspaceHandler struct {
	workspaceService  *service.WorkspaceService
	projectionService *service.ProjectionService
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(workspaceService *service.WorkspaceService, projectionService *service.ProjectionService) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService:  workspaceService,
		projectionService: projectionService,
	}
}

// Create handles workspace creation
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.WorkspaceCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		writeValidationError(w, err)
		return
	}

	workspace, err := h.workspaceService.Create(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, workspace)
}

// List handles listing user's workspaces
func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	workspaces, err := h.workspaceService.ListByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, workspaces)
}

// Get handles getting a workspace by ID
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requestScope(w, r)
	if !ok {
		return
	}

	workspace, err := h.workspaceService.GetByID(r.Context(), userID, workspaceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, workspace)
}

// Update handles updating a workspace
func (h *WorkspaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requestScope(w, r)
	if !ok {
		return
	}

	var input domain.WorkspaceUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		writeValidationError(w, err)
		return
	}

	workspace, err := h.workspaceService.Update(r.Context(), userID, workspaceID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, workspace)
}

// Delete handles deleting a workspace
func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requestScope(w, r)
	if !ok {
		return
	}

	if err := h.workspaceService.Delete(r.Context(), userID, workspaceID); err != nil {
		writeServiceError(w, err)
		return
	}

	response.NoContent(w)
}

// AddMember handles adding a workspace member
func (h *WorkspaceHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requestScope(w, r)
	if !ok {
		return
	}

	var input struct {
		UserID uuid.UUID `json:"user_id" validate:"required"`
		Role   string    `json:"role" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.workspaceService.AddMember(r.Context(), userID, workspaceID, input.UserID, input.Role); err != nil {
		writeServiceError(w, err)
		return
	}

	response.NoContent(w)
}

// RemoveMember handles removing a workspace member
func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requestScope(w, r)
	if !ok {
		return
	}

	memberID, ok := parseIDParam(w, r, "memberID")
	if !ok {
		return
	}

	if err := h.workspaceService.RemoveMember(r.Context(), userID, workspaceID, memberID); err != nil {
		writeServiceError(w, err)
		return
	}

	response.NoContent(w)
}

// Tree handles the assembled live page forest of a workspace
func (h *WorkspaceHandler) Tree(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requestScope(w, r)
	if !ok {
		return
	}

	tree, err := h.projectionService.GetWorkspaceTree(r.Context(), userID, workspaceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, tree)
}

// Trash handles listing the trashed pages of a workspace
func (h *WorkspaceHandler) Trash(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requestScope(w, r)
	if !ok {
		return
	}

	pages, err := h.projectionService.GetTrash(r.Context(), userID, workspaceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, pages)
}
