package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/creatorbridge/backend/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps domain sentinels onto HTTP statuses. Anything not
// recognized is logged and surfaced as a 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var transition *models.InvalidTransitionError
	switch {
	case errors.As(err, &transition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": transition.Error()})
	case errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientFunds):
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": "insufficient funds"})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, models.ErrDuplicateApplication):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already applied to this campaign"})
	case errors.Is(err, models.ErrCapacityExceeded):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "campaign is at capacity"})
	case errors.Is(err, models.ErrState):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
