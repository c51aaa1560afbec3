package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/history"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

// Deps is everything the router mounts.
type Deps struct {
	Sessions       *quiz.Registry
	Recorder       *quiz.Recorder
	History        *history.Service
	Blobs          storage.BlobStore // nil disables /documents
	MaxUploadBytes int64
	RecentCount    int
	CORSOrigins    []string
	Ready          func() error // nil means always ready
	Log            *logger.Logger
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", auth.HeaderUserID, auth.HeaderClientID},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.IdentityMiddleware)

		pr.Route("/quiz", func(qr chi.Router) {
			MountQuiz(qr, QuizDeps{
				Sessions:       d.Sessions,
				Recorder:       d.Recorder,
				Blobs:          d.Blobs,
				MaxUploadBytes: d.MaxUploadBytes,
				Log:            d.Log,
			})
		})
		pr.Route("/history", func(hr chi.Router) {
			MountHistory(hr, d.History, d.RecentCount)
		})
		if d.Blobs != nil {
			pr.Route("/documents", func(dr chi.Router) {
				dr.Use(auth.RequireSessionKey)
				MountDocuments(dr, d.Blobs, d.MaxUploadBytes)
			})
		}
	})
	return r
}
