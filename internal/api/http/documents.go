package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

// MountDocuments lets a caller upload a text document once and generate
// quizzes from it by key. Documents are visible to their uploader only.
func MountDocuments(r chi.Router, bs storage.BlobStore, maxBytes int64) {
	// POST /documents   multipart "file" or a raw text/plain body
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		if maxBytes > 0 {
			// multipart framing needs some room on top of the payload
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64<<10)
		}
		var src io.Reader = r.Body
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			src = f
		}

		text, err := storage.ReadText(src, maxBytes)
		if err != nil {
			writeError(w, err)
			return
		}
		if strings.TrimSpace(text) == "" {
			http.Error(w, "document is empty", http.StatusBadRequest)
			return
		}

		key, err := bs.Put(r.Context(), storage.NewDocumentKey(auth.SessionKey(r.Context())), strings.NewReader(text))
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"key": key, "bytes": len(text)})
	})

	// GET /documents/*   -> returns the text stored under whatever follows /documents/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if !storage.OwnsDocument(auth.SessionKey(r.Context()), key) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		rc, err := bs.Get(r.Context(), key)
		if err != nil {
			http.Error(w, "not found: "+err.Error(), http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.Copy(w, rc)
	})
}
