package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/generator"
	"github.com/mind-engage/mindengage-quiz/internal/history"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

const notes = `Photosynthesis converts light energy into chemical energy inside chloroplasts.
The Treaty of Westphalia ended the Thirty Years War in Europe.
Inflation erodes purchasing power when prices rise faster than wages.`

type brokenStore struct{}

func (brokenStore) Append(context.Context, string, quiz.Assessment) error {
	return errors.New("connection refused")
}
func (brokenStore) List(context.Context, string) ([]quiz.Assessment, error) {
	return nil, errors.New("connection refused")
}
func (brokenStore) Get(context.Context, string, string) (quiz.Assessment, error) {
	return quiz.Assessment{}, errors.New("connection refused")
}

type server struct {
	t *testing.T
	h http.Handler
}

func newServer(t *testing.T, store history.Store) *server {
	t.Helper()
	gen := generator.New(generator.WithRand(rand.New(rand.NewPCG(1, 2))))
	hist := history.NewService(store, nil)
	blobs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	h := api.NewRouter(api.Deps{
		Sessions:       quiz.NewRegistry(func(string) *quiz.Session { return quiz.NewSession(gen) }),
		Recorder:       quiz.NewRecorder(hist),
		History:        hist,
		Blobs:          blobs,
		MaxUploadBytes: 1 << 20,
		RecentCount:    3,
		CORSOrigins:    []string{"http://localhost:3000"},
	})
	return &server{t: t, h: h}
}

func (s *server) do(method, path string, who map[string]string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	for k, v := range who {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func user(id string) map[string]string { return map[string]string{auth.HeaderUserID: id} }
func guest(id string) map[string]string { return map[string]string{auth.HeaderClientID: id} }

type completeBody struct {
	Assessment   quiz.Assessment `json:"assessment"`
	Persisted    bool            `json:"persisted"`
	StorageError string          `json:"storage_error"`
}

func TestQuizFlow_SignedIn(t *testing.T) {
	s := newServer(t, history.NewMemoryStore())
	u := user("u1")

	rec := s.do(http.MethodPost, "/quiz/generate?wait=true", u, map[string]string{"content": notes, "title": "Mixed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: %d %s", rec.Code, rec.Body)
	}
	snap := decode[quiz.Snapshot](t, rec)
	if snap.State != quiz.StateActive || len(snap.Questions) != 3 {
		t.Fatalf("snapshot = %+v", snap)
	}
	for _, q := range snap.Questions {
		if q.CorrectAnswer != "" || q.Explanation != "" {
			t.Fatal("answers leaked before completion")
		}
	}

	if rec := s.do(http.MethodPost, "/quiz/generate", u, map[string]string{"content": notes}); rec.Code != http.StatusConflict {
		t.Fatalf("generate while active: %d", rec.Code)
	}

	q := snap.Questions[0]
	if rec := s.do(http.MethodPost, "/quiz/answers", u, map[string]string{"question_id": q.ID, "selected_option": q.Options[0]}); rec.Code != http.StatusOK {
		t.Fatalf("answer: %d %s", rec.Code, rec.Body)
	}
	rec = s.do(http.MethodPost, "/quiz/next", u, nil)
	if got := decode[quiz.Snapshot](t, rec); got.CurrentIndex != 1 {
		t.Fatalf("index after next = %d", got.CurrentIndex)
	}
	rec = s.do(http.MethodPost, "/quiz/previous", u, nil)
	if got := decode[quiz.Snapshot](t, rec); got.CurrentIndex != 0 {
		t.Fatalf("index after previous = %d", got.CurrentIndex)
	}

	rec = s.do(http.MethodPost, "/quiz/complete", u, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", rec.Code, rec.Body)
	}
	done := decode[completeBody](t, rec)
	if !done.Persisted || done.Assessment.TotalQuestions != 3 || done.Assessment.Title != "Mixed" {
		t.Fatalf("complete = %+v", done)
	}
	if done.Assessment.Questions[0].CorrectAnswer == "" {
		t.Fatal("completed assessment should carry answers")
	}
	if rec := s.do(http.MethodPost, "/quiz/complete", u, nil); rec.Code != http.StatusConflict {
		t.Fatalf("second complete: %d", rec.Code)
	}

	list := decode[[]quiz.Assessment](t, s.do(http.MethodGet, "/history", u, nil))
	if len(list) != 1 || list[0].ID != done.Assessment.ID {
		t.Fatalf("history = %+v", list)
	}
	stats := decode[[]quiz.MonthlyAggregate](t, s.do(http.MethodGet, "/history/stats", u, nil))
	if len(stats) != 1 || stats[0].Count != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	sum := decode[history.Summary](t, s.do(http.MethodGet, "/history/summary", u, nil))
	if sum.TotalQuizzes != 1 || len(sum.Recent) != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if rec := s.do(http.MethodGet, "/history/"+done.Assessment.ID, u, nil); rec.Code != http.StatusOK {
		t.Fatalf("get assessment: %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/history/"+done.Assessment.ID, user("u2"), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("other user's assessment: %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/quiz/reset", u, nil)
	if got := decode[quiz.Snapshot](t, rec); got.State != quiz.StateIdle || len(got.Questions) != 0 {
		t.Fatalf("reset = %+v", got)
	}
}

func TestQuizFlow_GuestIsNotPersisted(t *testing.T) {
	s := newServer(t, history.NewMemoryStore())
	g := guest("tab-1")

	if rec := s.do(http.MethodPost, "/quiz/generate?wait=true", g, map[string]string{"content": notes}); rec.Code != http.StatusOK {
		t.Fatalf("generate: %d %s", rec.Code, rec.Body)
	}
	done := decode[completeBody](t, s.do(http.MethodPost, "/quiz/complete", g, nil))
	if done.Persisted || done.Assessment.Score != 0 || done.Assessment.Title != quiz.DefaultTitle {
		t.Fatalf("complete = %+v", done)
	}
	if rec := s.do(http.MethodGet, "/history", g, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("guest history: %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/quiz", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous quiz: %d", rec.Code)
	}
}

func TestQuizFlow_Errors(t *testing.T) {
	s := newServer(t, history.NewMemoryStore())
	u := user("u1")

	if rec := s.do(http.MethodPost, "/quiz/generate", u, map[string]string{"content": "  "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty content: %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/quiz/generate?wait=true", u, map[string]string{"content": "too short."}); rec.Code != http.StatusBadRequest {
		t.Fatalf("short content: %d %s", rec.Code, rec.Body)
	}
	if got := decode[quiz.Snapshot](t, s.do(http.MethodGet, "/quiz", u, nil)); got.State != quiz.StateIdle || got.Error == "" {
		t.Fatalf("failed generation should leave idle with error: %+v", got)
	}
	if rec := s.do(http.MethodPost, "/quiz/answers", u, map[string]string{"question_id": "x"}); rec.Code != http.StatusConflict {
		t.Fatalf("answer while idle: %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/quiz/generate", u, "{not json"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/history/nope", u, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing assessment: %d", rec.Code)
	}
}

func TestQuizFlow_AsyncGenerate(t *testing.T) {
	s := newServer(t, history.NewMemoryStore())
	u := user("u1")

	rec := s.do(http.MethodPost, "/quiz/generate", u, map[string]string{"content": notes})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("generate: %d %s", rec.Code, rec.Body)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := decode[quiz.Snapshot](t, s.do(http.MethodGet, "/quiz", u, nil))
		if snap.State == quiz.StateActive {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("generation never finished: %+v", snap)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestQuizFlow_HistoryOutage(t *testing.T) {
	s := newServer(t, brokenStore{})
	u := user("u1")

	if rec := s.do(http.MethodPost, "/quiz/generate?wait=true", u, map[string]string{"content": notes}); rec.Code != http.StatusOK {
		t.Fatalf("generate: %d", rec.Code)
	}
	rec := s.do(http.MethodPost, "/quiz/complete", u, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", rec.Code, rec.Body)
	}
	done := decode[completeBody](t, rec)
	if done.Persisted || done.StorageError == "" || done.Assessment.TotalQuestions != 3 {
		t.Fatalf("complete = %+v", done)
	}
	if rec := s.do(http.MethodGet, "/history", u, nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("history during outage: %d", rec.Code)
	}
}

func TestDocuments_UploadThenGenerate(t *testing.T) {
	s := newServer(t, history.NewMemoryStore())
	u := user("u1")

	rec := s.do(http.MethodPost, "/documents", u, notes)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body)
	}
	key := decode[map[string]any](t, rec)["key"].(string)
	if !strings.HasPrefix(key, "documents/") {
		t.Fatalf("key = %q", key)
	}
	if rec := s.do(http.MethodGet, "/documents/"+key, u, nil); rec.Code != http.StatusOK || rec.Body.String() != notes {
		t.Fatalf("download: %d %q", rec.Code, rec.Body)
	}

	rec = s.do(http.MethodPost, "/quiz/generate?wait=true", u, map[string]string{"document_key": key})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate from document: %d %s", rec.Code, rec.Body)
	}
	if snap := decode[quiz.Snapshot](t, rec); len(snap.Questions) != 3 {
		t.Fatalf("questions = %d", len(snap.Questions))
	}

	if rec := s.do(http.MethodPost, "/documents", u, "bad\xff"); rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("binary upload: %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/quiz/generate", guest("g"), map[string]string{"document_key": "documents/missing.txt"}); rec.Code != http.StatusNotFound {
		t.Fatalf("missing document: %d", rec.Code)
	}
}

func TestDocuments_VisibleToUploaderOnly(t *testing.T) {
	s := newServer(t, history.NewMemoryStore())
	owner := user("u1")

	rec := s.do(http.MethodPost, "/documents", owner, notes)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body)
	}
	key := decode[map[string]any](t, rec)["key"].(string)

	for name, who := range map[string]map[string]string{
		"other user":         user("u2"),
		"guest with same id": guest("u1"),
	} {
		if rec := s.do(http.MethodGet, "/documents/"+key, who, nil); rec.Code != http.StatusNotFound {
			t.Errorf("%s download: %d", name, rec.Code)
		}
		if rec := s.do(http.MethodPost, "/quiz/generate", who, map[string]string{"document_key": key}); rec.Code != http.StatusNotFound {
			t.Errorf("%s generate: %d", name, rec.Code)
		}
	}

	dir := key[:strings.LastIndex(key, "/")+1]
	if rec := s.do(http.MethodGet, "/documents/"+dir+".upload-000000", owner, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("temp name served: %d", rec.Code)
	}
}

func TestGenerate_InlineContentObeysUploadCap(t *testing.T) {
	s := newServer(t, history.NewMemoryStore())
	u := user("u1")
	// newServer caps uploads at 1 MiB
	big := strings.Repeat("Photosynthesis converts light energy into chemical energy. ", 60_000)

	if rec := s.do(http.MethodPost, "/documents", u, big); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("upload: %d", rec.Code)
	}
	rec := s.do(http.MethodPost, "/quiz/generate?wait=true", u, map[string]string{"content": big})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("inline generate: %d", rec.Code)
	}
	if got := decode[quiz.Snapshot](t, s.do(http.MethodGet, "/quiz", u, nil)); got.State != quiz.StateIdle {
		t.Fatalf("oversized request must not start generation: %+v", got)
	}

	// just over the cap but within the envelope allowance still fails
	over := strings.Repeat("x", 1<<20+1)
	if rec := s.do(http.MethodPost, "/quiz/generate", u, map[string]string{"content": over}); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("content over cap: %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newServer(t, history.NewMemoryStore())
	for _, p := range []string{"/healthz", "/readyz"} {
		if rec := s.do(http.MethodGet, p, nil, nil); rec.Code != http.StatusOK {
			t.Fatalf("%s: %d", p, rec.Code)
		}
	}
}
