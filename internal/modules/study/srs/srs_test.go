package srs

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func approx(t *testing.T, want, got float64) {
	t.Helper()
	assert.InDelta(t, want, got, 1e-9)
}

func TestNext_InitialIntervalFromConfidence(t *testing.T) {
	cases := []struct {
		name string
		out  Outcome
		days float64
		ease float64
	}{
		{"easy", Outcome{Result: Cold, Confidence: Easy}, 4, 2.5},
		{"moderate", Outcome{Result: Cold, Confidence: Moderate}, 3, 2.5},
		{"lucky", Outcome{Result: Assisted, Confidence: Lucky}, 1, 2.5},
		{"cold without confidence", Outcome{Result: Cold}, 3, 2.5},
		{"assisted without confidence", Outcome{Result: Assisted}, 1, 2.5},
		{"unknown confidence", Outcome{Result: Cold, Confidence: "meh"}, 3, 2.5},
		{"first failure", Outcome{Result: Failed}, 0.5, 2.3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Next(nil, tc.out, now)
			approx(t, tc.days, got.IntervalDays)
			approx(t, tc.ease, got.EaseFactor)
			assert.Equal(t, 1, got.ReviewCount)
			assert.Equal(t, now.Add(DaysToDuration(tc.days)), got.NextReviewAt)
			require.NotNil(t, got.LastReviewedAt)
			assert.Equal(t, now, *got.LastReviewedAt)
		})
	}
}

func TestNext_GrowthAdjustsEaseBeforeMultiplying(t *testing.T) {
	cur := &State{IntervalDays: 3, EaseFactor: 1.5, ReviewCount: 2}
	got := Next(cur, Outcome{Result: Cold}, now)

	approx(t, 1.6, got.EaseFactor)
	approx(t, 9.6, got.IntervalDays)
	// Multiplying by the old ease would give 9.0.
	assert.Greater(t, math.Abs(got.IntervalDays-9.0), 0.1)
	assert.Equal(t, 3, got.ReviewCount)
}

func TestNext_Assisted(t *testing.T) {
	cur := &State{IntervalDays: 5, EaseFactor: 2.0}
	got := Next(cur, Outcome{Result: Assisted}, now)
	approx(t, 1.9, got.EaseFactor)
	approx(t, 5*1.2*1.9, got.IntervalDays)
}

func TestNext_FailureResets(t *testing.T) {
	cur := &State{IntervalDays: 30, EaseFactor: 2.0, ReviewCount: 5}
	got := Next(cur, Outcome{Result: Failed}, now)

	assert.Less(t, got.IntervalDays, 1.0)
	approx(t, 0.5, got.IntervalDays)
	approx(t, 1.8, got.EaseFactor)
	assert.Equal(t, now.Add(12*time.Hour), got.NextReviewAt)
	assert.Equal(t, 6, got.ReviewCount)
}

func TestNext_EaseStaysInBand(t *testing.T) {
	st := Next(nil, Outcome{Result: Cold, Confidence: Easy}, now)
	for i := 0; i < 20; i++ {
		st = Next(&st, Outcome{Result: Cold}, now)
		assert.LessOrEqual(t, st.EaseFactor, MaxEase)
	}
	approx(t, MaxEase, st.EaseFactor)
	for i := 0; i < 20; i++ {
		st = Next(&st, Outcome{Result: Failed}, now)
		assert.GreaterOrEqual(t, st.EaseFactor, MinEase)
	}
	approx(t, MinEase, st.EaseFactor)
	assert.Equal(t, 41, st.ReviewCount)
}

func TestNext_ClampsOutOfBandInput(t *testing.T) {
	got := Next(&State{IntervalDays: 2, EaseFactor: 9}, Outcome{Result: Cold}, now)
	approx(t, MaxEase, got.EaseFactor)
	approx(t, 2*2.0*MaxEase, got.IntervalDays)

	got = Next(&State{IntervalDays: 2, EaseFactor: 0.2}, Outcome{Result: Assisted}, now)
	approx(t, MinEase, got.EaseFactor)
}

func TestNext_NonPositiveIntervalTreatedAsOneDay(t *testing.T) {
	got := Next(&State{IntervalDays: 0, EaseFactor: 2.0}, Outcome{Result: Cold}, now)
	approx(t, 1*2.0*2.1, got.IntervalDays)

	got = Next(&State{IntervalDays: -7, EaseFactor: 2.0}, Outcome{Result: Cold}, now)
	approx(t, 1*2.0*2.1, got.IntervalDays)
}

func TestNext_IntervalCapped(t *testing.T) {
	got := Next(&State{IntervalDays: 3000, EaseFactor: 2.5}, Outcome{Result: Cold}, now)
	approx(t, MaxIntervalDays, got.IntervalDays)
	assert.True(t, got.NextReviewAt.After(now))
}

func TestNext_MultiplierOverride(t *testing.T) {
	cur := &State{IntervalDays: 2, EaseFactor: 2.0}

	got := Next(cur, Outcome{Result: Cold, Multiplier: 3}, now)
	approx(t, 2*3*2.1, got.IntervalDays)

	got = Next(cur, Outcome{Result: Cold, Multiplier: -1}, now)
	approx(t, 2*ColdMultiplier*2.1, got.IntervalDays)

	got = Next(cur, Outcome{Result: Failed, Multiplier: 5}, now)
	approx(t, FailedInterval, got.IntervalDays)
}

func TestNext_UnknownResultIsFailure(t *testing.T) {
	got := Next(&State{IntervalDays: 10, EaseFactor: 2.0}, Outcome{Result: "bogus"}, now)
	approx(t, FailedInterval, got.IntervalDays)
	assert.False(t, ValidResult("bogus"))
}

func TestDaysToDuration(t *testing.T) {
	assert.Equal(t, 12*time.Hour, DaysToDuration(0.5))
	assert.Equal(t, 24*time.Hour, DaysToDuration(1))
	assert.Equal(t, 36*time.Hour, DaysToDuration(1.5))
}
