package routehandlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/furtivegod/becomeyou/datastore"
	"github.com/furtivegod/becomeyou/models"
	"github.com/furtivegod/becomeyou/webutil"
)

type SessionHandler struct {
	Sessions *datastore.SessionRepository
	Users    *datastore.UserRepository
}

func NewSessionHandler(sessions *datastore.SessionRepository, users *datastore.UserRepository) *SessionHandler {
	return &SessionHandler{Sessions: sessions, Users: users}
}

// HandleCreateSession starts a fresh assessment session for an
// existing user.
func (h *SessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) error {
	var requestData struct {
		UserID string `json:"userId"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	if requestData.UserID == "" {
		return webutil.ErrBadRequest("userId is required")
	}
	if _, err := h.Users.GetByID(r.Context(), requestData.UserID); err != nil {
		return fmt.Errorf("failed to look up user %s: %w", requestData.UserID, err)
	}

	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    requestData.UserID,
		Status:    models.SessionStatusActive,
		StartedAt: time.Now().UTC(),
	}
	if err := h.Sessions.Create(r.Context(), &session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, map[string]any{"session": session})
	return nil
}
