package syncx_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

var _ quiz.EventSink = (*syncx.EventRepo)(nil)

func TestEventRepo_RecordAndList(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer dbh.Close()

	repo := syncx.NewEventRepo(dbh, "")
	if err := repo.Record(ctx, quiz.EventGenerated, "user:1", map[string]any{"questions": 3}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.Record(ctx, "AssessmentRecorded", "a-1", map[string]any{"score": 2}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.Append(ctx, syncx.Event{SiteID: "edge-2", Type: quiz.EventReset, Key: "user:1", DataJSON: "{}"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	evs, err := repo.List(ctx, "user:1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("want 2 events, got %+v", evs)
	}
	if evs[0].Type != quiz.EventGenerated || evs[1].Type != quiz.EventReset || evs[0].Seq >= evs[1].Seq {
		t.Fatalf("events out of order: %+v", evs)
	}
	if evs[0].SiteID != "local" || evs[1].SiteID != "edge-2" {
		t.Fatalf("site ids = %q, %q", evs[0].SiteID, evs[1].SiteID)
	}
	var data map[string]int
	if err := json.Unmarshal([]byte(evs[0].DataJSON), &data); err != nil || data["questions"] != 3 {
		t.Fatalf("data = %q (%v)", evs[0].DataJSON, err)
	}
	if evs[0].CreatedAt == 0 {
		t.Fatal("created_at not set")
	}
}
