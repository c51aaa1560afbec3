package grading_test

import (
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
)

type resp bool

func (r resp) Correct() bool { return bool(r) }

func TestIsCorrect_Exact(t *testing.T) {
	if !grading.IsCorrect("Option A", "Option A") {
		t.Fatal("identical strings must match")
	}
	if grading.IsCorrect("option a", "Option A") || grading.IsCorrect("Option A ", "Option A") {
		t.Fatal("matching must be exact")
	}
}

func TestCountCorrect(t *testing.T) {
	if got := grading.CountCorrect([]resp{true, false, true, true}); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	if got := grading.CountCorrect[resp](nil); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		score, total, want int
	}{
		{0, 0, 0},
		{30, 50, 60},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds away from zero
		{25, 25, 100},
	}
	for _, c := range cases {
		if got := grading.Percent(c.score, c.total); got != c.want {
			t.Errorf("Percent(%d,%d) = %d, want %d", c.score, c.total, got, c.want)
		}
	}
}

func TestBand(t *testing.T) {
	for pct, want := range map[int]string{100: "strong", 70: "strong", 69: "fair", 40: "fair", 39: "weak", 0: "weak"} {
		if got := grading.Band(pct); got != want {
			t.Errorf("Band(%d) = %q, want %q", pct, got, want)
		}
	}
}
