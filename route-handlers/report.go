package routehandlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/furtivegod/becomeyou/datastore"
	"github.com/furtivegod/becomeyou/models"
	"github.com/furtivegod/becomeyou/token"
	"github.com/furtivegod/becomeyou/webutil"
)

// fileURLSigner mints a fresh short-lived retrieval URL for a stored
// artifact. Satisfied by the renderer.
type fileURLSigner interface {
	SignedURL(sessionID, relativePath string) string
}

type ReportHandler struct {
	Sessions *datastore.SessionRepository
	PdfJobs  *datastore.PdfJobRepository
	Signer   *token.Signer
	URLs     fileURLSigner
}

func NewReportHandler(sessions *datastore.SessionRepository, pdfJobs *datastore.PdfJobRepository, signer *token.Signer, urls fileURLSigner) *ReportHandler {
	return &ReportHandler{Sessions: sessions, PdfJobs: pdfJobs, Signer: signer, URLs: urls}
}

// HandleGetReport returns a signed PDF URL for a completed session,
// 202 while rendering is still pending, 404 for an unknown session,
// and 401 for a bad token. The URL is minted fresh on every poll, so
// file-token expiry never strands a client that can still present a
// valid session token.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) error {
	sessionID := chi.URLParam(r, "id")

	if _, err := VerifyRequestToken(h.Signer, r, sessionID); err != nil {
		return webutil.ErrUnauthorized("invalid or expired access token")
	}

	if _, err := h.Sessions.GetByID(r.Context(), sessionID); err != nil {
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	job, err := h.PdfJobs.GetLatestBySession(r.Context(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to load pdf job for session %s: %w", sessionID, err)
	}
	if job == nil || job.Status == models.PdfJobStatusPending || job.Status == models.PdfJobStatusProcessing {
		webutil.RespondWithJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
		return nil
	}
	if job.Status == models.PdfJobStatusFailed {
		return webutil.ErrNotFound("report rendering failed; no document available")
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"url": h.URLs.SignedURL(sessionID, job.ArtifactPath),
	})
	return nil
}
