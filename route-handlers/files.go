package routehandlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/furtivegod/becomeyou/storage"
	"github.com/furtivegod/becomeyou/token"
	"github.com/furtivegod/becomeyou/webutil"
)

// FileHandler serves stored artifacts behind signed retrieval URLs.
// The token's subject is the artifact's relative path, so a URL signed
// for one file cannot fetch another.
type FileHandler struct {
	Storer storage.BlobStorer
	Signer *token.Signer
}

func NewFileHandler(storer storage.BlobStorer, signer *token.Signer) *FileHandler {
	return &FileHandler{Storer: storer, Signer: signer}
}

func (h *FileHandler) HandleGetFile(w http.ResponseWriter, r *http.Request) error {
	relativePath := chi.URLParam(r, "*")
	if relativePath == "" {
		return webutil.ErrNotFound("")
	}

	// Artifact paths look like sessions/<sessionID>/<file>; the session
	// segment is what the token was minted against.
	parts := strings.SplitN(relativePath, "/", 3)
	if len(parts) != 3 || parts[0] != "sessions" {
		return webutil.ErrNotFound("")
	}
	sessionID := parts[1]

	subject, err := VerifyRequestToken(h.Signer, r, sessionID)
	if err != nil || subject != relativePath {
		return webutil.ErrUnauthorized("invalid or expired file token")
	}

	fullPath, err := h.Storer.Resolve(relativePath)
	if err != nil {
		return webutil.ErrNotFound("")
	}
	http.ServeFile(w, r, fullPath)
	return nil
}
