package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sfd-mhrana/notion-clone-sub001/internal/api/middleware"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/api/response"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/service"
)

// DatabaseHandler handles database schema and row value endpoints
type DatabaseHandler struct {
	schemaService *service.SchemaService
}

// NewDatabaseHandler creates a new database handler
func NewDatabaseHandler(schemaService *service.SchemaService) *DatabaseHandler {
	return &DatabaseHandler{schemaService: schemaService}
}

// Get handles reading a database page with its schema, rows and
// evaluated derived cells
func (h *DatabaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	databaseID, ok := parseIDParam(w, r, "databaseID")
	if !ok {
		return
	}

	view, err := h.schemaService.GetDatabase(r.Context(), userID, databaseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, view)
}

// DefineProperty handles adding a property to a database schema
func (h *DatabaseHandler) DefineProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	databaseID, ok := parseIDParam(w, r, "databaseID")
	if !ok {
		return
	}

	var input domain.PropertyCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		writeValidationError(w, err)
		return
	}

	prop, err := h.schemaService.DefineProperty(r.Context(), userID, databaseID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, prop)
}

// ListProperties handles listing a database's schema
func (h *DatabaseHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	databaseID, ok := parseIDParam(w, r, "databaseID")
	if !ok {
		return
	}

	props, err := h.schemaService.ListProperties(r.Context(), userID, databaseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, props)
}

// UpdateProperty handles renaming or reconfiguring a property
func (h *DatabaseHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	propertyID, ok := parseIDParam(w, r, "propertyID")
	if !ok {
		return
	}

	var input domain.PropertyUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		writeValidationError(w, err)
		return
	}

	prop, err := h.schemaService.UpdateProperty(r.Context(), userID, propertyID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, prop)
}

// DeleteProperty handles removing a property; ?cascade=true also removes
// formulas and rollups that depend on it
func (h *DatabaseHandler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	propertyID, ok := parseIDParam(w, r, "propertyID")
	if !ok {
		return
	}

	cascade := r.URL.Query().Get("cascade") == "true"

	if err := h.schemaService.DeleteProperty(r.Context(), userID, propertyID, cascade); err != nil {
		writeServiceError(w, err)
		return
	}

	response.NoContent(w)
}

// SetRowValue handles writing one property cell of a database row
func (h *DatabaseHandler) SetRowValue(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	rowID, ok := parseIDParam(w, r, "rowID")
	if !ok {
		return
	}

	var input domain.RowValueSet
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		writeValidationError(w, err)
		return
	}

	value, err := h.schemaService.SetRowValue(r.Context(), userID, rowID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, value)
}
