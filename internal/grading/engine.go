package grading

import "math"

// IsCorrect grades a single-choice response. Matching is exact: options
// are generated strings, so any normalization would blur distinct options.
func IsCorrect(selected, correct string) bool {
	return selected == correct
}

// Counter is anything that reports whether it was answered correctly.
type Counter interface {
	Correct() bool
}

// CountCorrect is the score of a set of graded responses.
func CountCorrect[T Counter](items []T) int {
	n := 0
	for _, it := range items {
		if it.Correct() {
			n++
		}
	}
	return n
}

// Percent returns round(100*score/total), rounding half away from zero.
// A zero total yields 0.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}

const (
	BandStrong = "strong"
	BandFair   = "fair"
	BandWeak   = "weak"
)

// Band buckets a percentage for dashboard display.
func Band(percent int) string {
	switch {
	case percent >= 70:
		return BandStrong
	case percent >= 40:
		return BandFair
	default:
		return BandWeak
	}
}
