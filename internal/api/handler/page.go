package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sfd-mhrana/notion-clone-sub001/internal/api/middleware"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/api/response"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/service"
)

// PageHandler handles page endpoints
type PageHandler struct {
	hierarchyService  *service.HierarchyService
	projectionService *service.ProjectionService
}

// NewPageHandler creates a new page handler
func NewPageHandler(hierarchyService *service.HierarchyService, projectionService *service.ProjectionService) *PageHandler {
	return &PageHandler{
		hierarchyService:  hierarchyService,
		projectionService: projectionService,
	}
}

// Create handles page creation inside a workspace
func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requestScope(w, r)
	if !ok {
		return
	}

	var input domain.PageCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		writeValidationError(w, err)
		return
	}

	page, err := h.hierarchyService.CreatePage(r.Context(), userID, workspaceID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, page)
}

// Get handles reading a page together with its block tree
func (h *PageHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	pageID, ok := parseIDParam(w, r, "pageID")
	if !ok {
		return
	}

	view, err := h.projectionService.GetPageView(r.Context(), userID, pageID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, view)
}

// Update handles updating page metadata
func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	pageID, ok := parseIDParam(w, r, "pageID")
	if !ok {
		return
	}

	var input domain.PageUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		writeValidationError(w, err)
		return
	}

	page, err := h.hierarchyService.UpdatePage(r.Context(), userID, pageID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, page)
}

// Move handles re-parenting and reordering a page
func (h *PageHandler) Move(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	pageID, ok := parseIDParam(w, r, "pageID")
	if !ok {
		return
	}

	var input domain.PageMove
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	page, err := h.hierarchyService.MovePage(r.Context(), userID, pageID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, page)
}

// Delete handles moving a page subtree to the trash
func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	pageID, ok := parseIDParam(w, r, "pageID")
	if !ok {
		return
	}

	if err := h.hierarchyService.SoftDeletePage(r.Context(), userID, pageID); err != nil {
		writeServiceError(w, err)
		return
	}

	response.NoContent(w)
}

// Restore handles bringing a trashed page subtree back
func (h *PageHandler) Restore(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	pageID, ok := parseIDParam(w, r, "pageID")
	if !ok {
		return
	}

	page, err := h.hierarchyService.RestorePage(r.Context(), userID, pageID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, page)
}

// Reap handles permanently deleting a trashed page subtree
func (h *PageHandler) Reap(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	pageID, ok := parseIDParam(w, r, "pageID")
	if !ok {
		return
	}

	if err := h.hierarchyService.ReapPage(r.Context(), userID, pageID); err != nil {
		writeServiceError(w, err)
		return
	}

	response.NoContent(w)
}

// Duplicate handles deep-copying a page subtree next to the original
func (h *PageHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	pageID, ok := parseIDParam(w, r, "pageID")
	if !ok {
		return
	}

	page, err := h.hierarchyService.DuplicatePage(r.Context(), userID, pageID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, page)
}

// Children handles listing the live direct children of a page
func (h *PageHandler) Children(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	pageID, ok := parseIDParam(w, r, "pageID")
	if !ok {
		return
	}

	pages, err := h.projectionService.ListChildren(r.Context(), userID, pageID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, pages)
}
