package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

// QuizDeps is what the session routes need.
type QuizDeps struct {
	Sessions       *quiz.Registry
	Recorder       *quiz.Recorder
	Blobs          storage.BlobStore // optional; enables document_key
	MaxUploadBytes int64
	Log            *logger.Logger
}

// MountQuiz registers the session routes. Callers must be identified by
// user id or guest client id.
func MountQuiz(r chi.Router, d QuizDeps) {
	d.Log = logger.OrNop(d.Log)
	r.Use(auth.RequireSessionKey)
	r.Get("/", GetQuizHandler(d))
	r.Post("/generate", GenerateHandler(d))
	r.Post("/answers", AnswerHandler(d))
	r.Post("/next", NavigateHandler(d, (*quiz.Session).Next))
	r.Post("/previous", NavigateHandler(d, (*quiz.Session).Previous))
	r.Post("/complete", CompleteHandler(d))
	r.Post("/reset", ResetHandler(d))
}

func session(d QuizDeps, r *http.Request) *quiz.Session {
	return d.Sessions.Get(auth.SessionKey(r.Context()))
}

// GET /quiz
func GetQuizHandler(d QuizDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, session(d, r).Snapshot().Redacted())
	}
}

// POST /quiz/generate {"content": "...", "document_key": "...", "title": "..."}
//
// Generation runs in the background; poll GET /quiz. With ?wait=true the
// call blocks until the question set is ready or generation failed.
func GenerateHandler(d QuizDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.MaxUploadBytes > 0 {
			// inline content obeys the same cap as uploads, plus room for the envelope
			r.Body = http.MaxBytesReader(w, r.Body, d.MaxUploadBytes+64<<10)
		}
		var req struct {
			Content     string `json:"content"`
			DocumentKey string `json:"document_key"`
			Title       string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if isTooLarge(err) {
				writeError(w, err)
				return
			}
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if d.MaxUploadBytes > 0 && int64(len(req.Content)) > d.MaxUploadBytes {
			writeError(w, storage.ErrTooLarge)
			return
		}
		content := req.Content
		if key := strings.TrimSpace(req.DocumentKey); key != "" {
			if d.Blobs == nil {
				http.Error(w, "documents are disabled", http.StatusBadRequest)
				return
			}
			if !storage.OwnsDocument(auth.SessionKey(r.Context()), key) {
				writeError(w, fmt.Errorf("%s: %w", key, storage.ErrNoDocument))
				return
			}
			text, err := storage.ExtractText(r.Context(), d.Blobs, key, d.MaxUploadBytes)
			if err != nil {
				writeError(w, err)
				return
			}
			content = text
		}

		sess := session(d, r)
		// the request context ends with this handler; generation must not
		done, err := sess.Generate(context.WithoutCancel(r.Context()), content, req.Title)
		if err != nil {
			writeError(w, err)
			return
		}
		if r.URL.Query().Get("wait") != "true" {
			writeJSON(w, http.StatusAccepted, sess.Snapshot().Redacted())
			return
		}
		select {
		case err := <-done:
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, sess.Snapshot().Redacted())
		case <-r.Context().Done():
			d.Log.Debug("client left before generation finished", "session", auth.SessionKey(r.Context()))
		}
	}
}

// POST /quiz/answers {"question_id": "...", "selected_option": "..."}
func AnswerHandler(d QuizDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID     string `json:"question_id"`
			SelectedOption string `json:"selected_option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sess := session(d, r)
		if err := sess.Answer(req.QuestionID, req.SelectedOption); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot().Redacted())
	}
}

// POST /quiz/next, POST /quiz/previous
func NavigateHandler(d QuizDeps, move func(*quiz.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session(d, r)
		if err := move(sess); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot().Redacted())
	}
}

type completeResponse struct {
	Assessment   quiz.Assessment `json:"assessment"`
	Persisted    bool            `json:"persisted"`
	StorageError string          `json:"storage_error,omitempty"`
}

// POST /quiz/complete
//
// A history outage still returns the result; persisted is false and
// storage_error says why.
func CompleteHandler(d QuizDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.SubjectFromContext(ctx)
		a, err := d.Recorder.CompleteSession(ctx, session(d, r), userID)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, completeResponse{Assessment: a, Persisted: userID != ""})
		case quiz.IsStorageError(err):
			d.Log.Warn("assessment shown but not saved", "user_id", userID, "error", err)
			writeJSON(w, http.StatusOK, completeResponse{
				Assessment:   a,
				StorageError: fmt.Sprintf("history unavailable: %v", err),
			})
		default:
			writeError(w, err)
		}
	}
}

// POST /quiz/reset
func ResetHandler(d QuizDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session(d, r)
		sess.Reset()
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}
