package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"focusquest/internal/logger"
	"focusquest/internal/service"
	"focusquest/internal/validation"

	"github.com/go-playground/validator/v10"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Warn("failed to write response")
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logger.Log.WithError(err).WithField("status", status).Error(logMsg)
	}

	respondJSON(w, status, errorBody{Error: userMsg})
}

// respondServiceError maps domain errors to HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	var verr validation.ValidationError
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: verr.Message, Field: verr.Field})
	case errors.As(err, &fieldErrs):
		fe := fieldErrs[0]
		respondJSON(w, http.StatusBadRequest, errorBody{Error: fe.Field() + " failed " + fe.Tag() + " validation", Field: fe.Field()})
	case errors.Is(err, service.ErrPermissionDenied):
		respondJSON(w, http.StatusForbidden, errorBody{Error: ErrForbidden})
	case errors.Is(err, service.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, service.ErrInsufficientPoints):
		respondJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		respondJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "request failed", err)
	}
}
