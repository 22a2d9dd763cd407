package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/phongpt2005/my-task-manager-web/logging"
	"github.com/phongpt2005/my-task-manager-web/middleware"
	"github.com/phongpt2005/my-task-manager-web/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// writeError mapira greške domena na HTTP statuse. ErrOwnerConflict se
// nikada ne prosleđuje korisniku - loguje se i vraća generička greška.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrProjectNotFound), errors.Is(err, models.ErrInviteNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrEmailMismatch):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, models.ErrAlreadyMember),
		errors.Is(err, models.ErrNotAMember),
		errors.Is(err, models.ErrCannotRemoveOwner),
		errors.Is(err, models.ErrInvalidRole),
		errors.Is(err, models.ErrDuplicateInvite),
		errors.Is(err, models.ErrInvalidOrExpiredInvite):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrStorageUnavailable):
		http.Error(w, "service temporarily unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, models.ErrOwnerConflict):
		logging.Logger.Errorf("Event ID: OWNER_CONFLICT_SURFACED, Description: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// requireActor čita aktera koga je JWT middleware upisao u context.
func requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return models.Actor{}, false
	}
	return actor, true
}
