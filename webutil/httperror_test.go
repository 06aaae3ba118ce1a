package webutil

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrInternalServerWrapKeepsPublicMessageGeneric(t *testing.T) {
	cause := errors.New("pq: connection refused")
	httpErr := ErrInternalServerWrap("queue drain failed", cause)

	require.Equal(t, http.StatusInternalServerError, httpErr.Code)
	require.Equal(t, msgInternalServer, httpErr.Message, "internals must not leak into the response")

	// The context message and the cause survive in the wrapped chain
	// for logging.
	require.ErrorIs(t, httpErr, cause)
	require.Contains(t, httpErr.Unwrap().Error(), "queue drain failed")
}

func TestErrBadRequestWrapPreservesMessageAndCause(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	httpErr := ErrBadRequestWrap("malformed webhook payload", cause)

	require.Equal(t, http.StatusBadRequest, httpErr.Code)
	require.Equal(t, "malformed webhook payload", httpErr.Message)
	require.ErrorIs(t, httpErr, cause)
}

func TestErrConstructorsDefaultEmptyMessages(t *testing.T) {
	require.Equal(t, msgBadRequest, ErrBadRequest("").Message)
	require.Equal(t, msgUnauthorized, ErrUnauthorized("").Message)
	require.Equal(t, msgNotFound, ErrNotFound("").Message)
}
