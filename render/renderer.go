// Package render converts a plan document into a PDF artifact via an
// external headless rendering service, stores the bytes, and mints a
// signed retrieval URL.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/furtivegod/becomeyou/datastore"
	"github.com/furtivegod/becomeyou/models"
	"github.com/furtivegod/becomeyou/storage"
	"github.com/furtivegod/becomeyou/token"
)

const (
	pdfFileName    = "plan.pdf"
	renderTimeout  = 60 * time.Second
	filesBasePath  = "/files/"
	tokenQueryName = "token"
)

type Renderer struct {
	renderURL string
	baseURL   string
	client    *http.Client
	storer    storage.BlobStorer
	jobs      *datastore.PdfJobRepository
	signer    *token.Signer
	logger    *zap.Logger
}

func New(
	renderURL string,
	baseURL string,
	storer storage.BlobStorer,
	jobs *datastore.PdfJobRepository,
	signer *token.Signer,
	logger *zap.Logger,
) *Renderer {
	return &Renderer{
		renderURL: renderURL,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: renderTimeout},
		storer:    storer,
		jobs:      jobs,
		signer:    signer,
		logger:    logger,
	}
}

// RenderPlan runs the full render pipeline for a session: template
// expansion, headless PDF conversion, blob storage, signed URL, and
// job-row bookkeeping. A failure to persist the job row after the PDF
// is already stored is logged and absorbed; the URL is still returned.
func (r *Renderer) RenderPlan(ctx context.Context, sessionID string, doc *models.PlanDocument) (string, error) {
	now := time.Now().UTC()
	job := models.PdfJob{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Status:    models.PdfJobStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.jobs.Create(ctx, &job); err != nil {
		return "", fmt.Errorf("failed to create pdf job for session %s: %w", sessionID, err)
	}

	html, err := ExpandTemplate(doc)
	if err != nil {
		r.failJob(ctx, job.ID, err)
		return "", fmt.Errorf("failed to expand plan template: %w", err)
	}

	pdfBytes, err := r.convert(ctx, html)
	if err != nil {
		r.failJob(ctx, job.ID, err)
		return "", fmt.Errorf("pdf conversion failed for session %s: %w", sessionID, err)
	}

	relativePath, err := r.storer.Store(sessionID, pdfFileName, pdfBytes)
	if err != nil {
		r.failJob(ctx, job.ID, err)
		return "", fmt.Errorf("failed to store pdf for session %s: %w", sessionID, err)
	}

	// The artifact exists at this point. A metadata write failure is a
	// partial-write condition: log it, do not retry, do not fail.
	if err := r.jobs.UpdateStatus(ctx, job.ID, models.PdfJobStatusDone, relativePath); err != nil {
		r.logger.Warn("pdf stored but job row update failed",
			zap.String("session_id", sessionID),
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
	}
	return r.SignedURL(sessionID, relativePath), nil
}

// SignedURL builds a time-limited retrieval URL for a stored artifact.
func (r *Renderer) SignedURL(sessionID, relativePath string) string {
	tok := r.signer.Mint(sessionID, relativePath, token.FileURLTTL)
	return r.baseURL + filesBasePath + relativePath + "?" + tokenQueryName + "=" + url.QueryEscape(tok)
}

// convert posts the HTML to the external render service and returns the
// PDF bytes.
func (r *Renderer) convert(ctx context.Context, html string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.renderURL, bytes.NewReader([]byte(html)))
	if err != nil {
		return nil, fmt.Errorf("failed to create render request: %w", err)
	}
	req.Header.Set("Content-Type", "text/html; charset=utf-8")
	req.Header.Set("Accept", "application/pdf")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("render service returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return io.ReadAll(resp.Body)
}

func (r *Renderer) failJob(ctx context.Context, jobID string, cause error) {
	if err := r.jobs.UpdateStatus(ctx, jobID, models.PdfJobStatusFailed, ""); err != nil {
		r.logger.Warn("failed to mark pdf job failed",
			zap.String("job_id", jobID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
	}
}
