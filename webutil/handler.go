package webutil

import (
	"database/sql"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// AppHandler is a handler function that returns an error instead of
// writing its own failure responses.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler to http.HandlerFunc, mapping any
// returned error to a standardized JSON error response and logging it
// with severity matched to the status class.
func MakeHandler(logger *zap.Logger, handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}

		var statusCode int
		var publicMessage string
		var httpErr *HTTPError

		switch {
		case errors.As(err, &httpErr):
			statusCode = httpErr.Code
			publicMessage = httpErr.Message
		case errors.Is(err, sql.ErrNoRows):
			statusCode = http.StatusNotFound
			publicMessage = msgNotFound
		default:
			statusCode = http.StatusInternalServerError
			publicMessage = msgInternalServer
		}

		fields := []zap.Field{
			zap.Int("code", statusCode),
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err),
		}
		if statusCode >= 500 {
			logger.Error("request failed", fields...)
		} else {
			logger.Warn("client error response", fields...)
		}

		RespondWithError(w, statusCode, publicMessage)
	}
}
