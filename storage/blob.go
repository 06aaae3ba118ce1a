package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultBlobDir = "_artifacts"

// BlobStorer persists rendered artifacts and resolves them for serving.
type BlobStorer interface {
	// Store saves content under a session-scoped path and returns the
	// relative path where it was stored.
	Store(sessionID, fileName string, content []byte) (relativePath string, err error)
	// Resolve maps a previously returned relative path back to an
	// absolute path, rejecting anything that escapes the blob root.
	Resolve(relativePath string) (string, error)
}

// LocalFileStorer implements BlobStorer on the local file system.
// Layout: <basePath>/sessions/<sessionID>/<fileName>.
type LocalFileStorer struct {
	basePath string
}

func NewLocalFileStorer(basePath string) *LocalFileStorer {
	if basePath == "" {
		basePath = defaultBlobDir
	}
	return &LocalFileStorer{basePath: basePath}
}

func (s *LocalFileStorer) Store(sessionID, fileName string, content []byte) (string, error) {
	if sessionID == "" || fileName == "" {
		return "", fmt.Errorf("sessionID and fileName cannot be empty for storing content")
	}
	if strings.Contains(fileName, "/") || strings.Contains(fileName, "..") {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}

	relativeDir := filepath.Join("sessions", sessionID)
	relativePath := filepath.Join(relativeDir, fileName)
	fullDir := filepath.Join(s.basePath, relativeDir)

	if err := os.MkdirAll(fullDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory %s: %w", fullDir, err)
	}
	if err := os.WriteFile(filepath.Join(s.basePath, relativePath), content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", relativePath, err)
	}
	return relativePath, nil
}

func (s *LocalFileStorer) Resolve(relativePath string) (string, error) {
	cleaned := filepath.Clean(relativePath)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid artifact path %q", relativePath)
	}
	return filepath.Join(s.basePath, cleaned), nil
}
