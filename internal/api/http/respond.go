package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrInvalidArgument), quiz.IsGenerationError(err):
		return http.StatusBadRequest
	case errors.Is(err, quiz.ErrInvalidState), errors.Is(err, quiz.ErrStale):
		return http.StatusConflict
	case errors.Is(err, quiz.ErrNotFound), errors.Is(err, storage.ErrNoDocument):
		return http.StatusNotFound
	case isTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrNotUTF8):
		return http.StatusUnsupportedMediaType
	case quiz.IsStorageError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// isTooLarge covers both the size check on decoded text and a request body
// cut off by http.MaxBytesReader.
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.Is(err, storage.ErrTooLarge) || errors.As(err, &mbe)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}
