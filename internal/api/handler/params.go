package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/api/middleware"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/api/response"
)

// requestScope pulls the authenticated user and routed workspace out of the
// request context, writing the error response itself when either is missing.
func requestScope(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	workspaceID, ok := middleware.GetWorkspaceID(r.Context())
	if !ok {
		response.BadRequest(w, "workspace ID is required")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, workspaceID, true
}

// parseIDParam reads a UUID path parameter, writing a 400 when it is malformed.
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.BadRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
