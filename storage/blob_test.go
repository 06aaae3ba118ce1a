package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreAndResolveRoundTrip(t *testing.T) {
	s := NewLocalFileStorer(t.TempDir())

	rel, err := s.Store("S1", "plan.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join("sessions", "S1", "plan.pdf"), rel)

	abs, err := s.Resolve(rel)
	require.NoError(t, err)

	content, err := os.ReadFile(abs)
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-1.4"), content)
}

func TestStoreRejectsUnsafeNames(t *testing.T) {
	s := NewLocalFileStorer(t.TempDir())

	_, err := s.Store("", "plan.pdf", []byte("x"))
	require.Error(t, err)

	_, err = s.Store("S1", "", []byte("x"))
	require.Error(t, err)

	_, err = s.Store("S1", "../escape.pdf", []byte("x"))
	require.Error(t, err)

	_, err = s.Store("S1", "nested/plan.pdf", []byte("x"))
	require.Error(t, err)
}

func TestResolveRejectsTraversal(t *testing.T) {
	s := NewLocalFileStorer(t.TempDir())

	_, err := s.Resolve("../../etc/passwd")
	require.Error(t, err)

	_, err = s.Resolve("/etc/passwd")
	require.Error(t, err)
}
