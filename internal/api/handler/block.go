package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sfd-mhrana/notion-clone-sub001/internal/api/middleware"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/api/response"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/service"
)

// BlockHandler handles block endpoints
type BlockHandler struct {
	blockService *service.BlockService
}

// NewBlockHandler creates a new block handler
func NewBlockHandler(blockService *service.BlockService) *BlockHandler {
	return &BlockHandler{blockService: blockService}
}

// Create handles creating a block inside a page
func (h *BlockHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	pageID, ok := parseIDParam(w, r, "pageID")
	if !ok {
		return
	}

	var input domain.BlockCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		writeValidationError(w, err)
		return
	}

	block, err := h.blockService.CreateBlock(r.Context(), userID, pageID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, block)
}

// Get handles reading a single block
func (h *BlockHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	blockID, ok := parseIDParam(w, r, "blockID")
	if !ok {
		return
	}

	block, err := h.blockService.GetBlock(r.Context(), userID, blockID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, block)
}

// Update handles updating a block's type or content
func (h *BlockHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	blockID, ok := parseIDParam(w, r, "blockID")
	if !ok {
		return
	}

	var input domain.BlockUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	block, err := h.blockService.UpdateBlock(r.Context(), userID, blockID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, block)
}

// Move handles re-parenting and reordering a block
func (h *BlockHandler) Move(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	blockID, ok := parseIDParam(w, r, "blockID")
	if !ok {
		return
	}

	var input domain.BlockMove
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	block, err := h.blockService.MoveBlock(r.Context(), userID, blockID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, block)
}

// Delete handles removing a block and its descendants
func (h *BlockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	blockID, ok := parseIDParam(w, r, "blockID")
	if !ok {
		return
	}

	if err := h.blockService.DeleteBlock(r.Context(), userID, blockID); err != nil {
		writeServiceError(w, err)
		return
	}

	response.NoContent(w)
}
