package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/api/response"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
	"github.com/sfd-mhrana/notion-clone-sub001/internal/orderkey"
)

// writeServiceError maps domain errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, domain.ErrCycleDetected),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrPropertyInUse),
		errors.Is(err, orderkey.ErrExhausted):
		response.Conflict(w, err.Error())
	case errors.Is(err, domain.ErrCrossTenant),
		errors.Is(err, domain.ErrTypeMismatch):
		response.UnprocessableEntity(w, err.Error())
	default:
		response.InternalError(w, err.Error())
	}
}

// writeValidationError renders validator failures as a field error map
func writeValidationError(w http.ResponseWriter, err error) {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		fields := make(map[string]string)
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				fields[field] = "field is required"
			case "email":
				fields[field] = "invalid email format"
			case "min":
				fields[field] = "must be at least " + e.Param() + " characters"
			case "max":
				fields[field] = "must be at most " + e.Param() + " characters"
			default:
				fields[field] = "validation failed on " + e.Tag()
			}
		}
		response.BadRequest(w, fields)
		return
	}
	response.BadRequest(w, err.Error())
}
