package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/history"
)

// MountHistory registers the read side of the ledger. History is a
// per-identity feature, so guests are turned away.
func MountHistory(r chi.Router, svc *history.Service, recent int) {
	r.Use(auth.RequireSubject)
	r.Get("/", ListHistoryHandler(svc))
	r.Get("/stats", MonthlyStatsHandler(svc))
	r.Get("/summary", SummaryHandler(svc, recent))
	r.Get("/{assessmentID}", GetAssessmentHandler(svc))
}

// GET /history?limit=N
func ListHistoryHandler(svc *history.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		if n := parseIntDefault(r.URL.Query().Get("limit"), 0); n > 0 && n < len(list) {
			list = list[:n]
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /history/stats
func MonthlyStatsHandler(svc *history.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.MonthlyAggregates(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// GET /history/summary
func SummaryHandler(svc *history.Service, recent int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.Summary(r.Context(), auth.SubjectFromContext(r.Context()), recent)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// GET /history/{assessmentID}
func GetAssessmentHandler(svc *history.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Get(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "assessmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
