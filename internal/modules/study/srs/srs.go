// Package srs computes the next review state of a problem from its current
// state and a single review outcome. Everything here is pure; persistence
// belongs to the caller.
package srs

import (
	"math"
	"time"
)

type Result string

const (
	// Cold is an unaided success.
	Cold Result = "cold"
	// Assisted is a success that needed a hint, AI help, or the solution.
	Assisted Result = "assisted"
	Failed   Result = "failed"
)

func ValidResult(r Result) bool {
	return r == Cold || r == Assisted || r == Failed
}

type Confidence string

const (
	Easy     Confidence = "easy"
	Moderate Confidence = "moderate"
	Lucky    Confidence = "lucky"
)

const (
	MinEase     = 1.3
	MaxEase     = 2.5
	DefaultEase = 2.5
	// FailedFirstEase is the ease after failing the very first review.
	FailedFirstEase = 2.3

	FailedInterval  = 0.5
	MaxIntervalDays = 3650.0

	ColdMultiplier     = 2.0
	AssistedMultiplier = 1.2

	coldEaseDelta     = 0.1
	assistedEaseDelta = -0.1
	failedEaseDelta   = -0.2
)

var initialInterval = map[Confidence]float64{
	Easy:     4,
	Moderate: 3,
	Lucky:    1,
}

// State is the scheduling state carried between reviews.
type State struct {
	IntervalDays   float64
	EaseFactor     float64
	ReviewCount    int
	NextReviewAt   time.Time
	LastReviewedAt *time.Time
}

type Outcome struct {
	Result     Result
	Confidence Confidence
	// Multiplier, when > 0, replaces the default multiplier for Result.
	// Ignored for Failed.
	Multiplier float64
}

// Next returns the state after applying outcome at now. A nil current means
// the problem has never been scheduled. Next never fails: unknown results
// are treated as Failed and unknown confidences as missing.
func Next(current *State, outcome Outcome, now time.Time) State {
	var next State
	if current == nil {
		next = initial(outcome)
	} else {
		next = advance(*current, outcome)
		next.ReviewCount = current.ReviewCount
	}
	if next.ReviewCount < 0 {
		next.ReviewCount = 0
	}
	next.ReviewCount++
	next.IntervalDays = clampInterval(next.IntervalDays)
	next.EaseFactor = ClampEase(next.EaseFactor)
	reviewed := now
	next.LastReviewedAt = &reviewed
	next.NextReviewAt = now.Add(DaysToDuration(next.IntervalDays))
	return next
}

func initial(o Outcome) State {
	switch o.Result {
	case Cold, Assisted:
		conf := o.Confidence
		if _, ok := initialInterval[conf]; !ok {
			if o.Result == Cold {
				conf = Moderate
			} else {
				conf = Lucky
			}
		}
		return State{IntervalDays: initialInterval[conf], EaseFactor: DefaultEase}
	default:
		return State{IntervalDays: FailedInterval, EaseFactor: FailedFirstEase}
	}
}

func advance(cur State, o Outcome) State {
	ease := ClampEase(cur.EaseFactor)
	interval := cur.IntervalDays
	if interval <= 0 || math.IsNaN(interval) {
		interval = 1
	}

	switch o.Result {
	case Cold:
		ease = ClampEase(ease + coldEaseDelta)
		return State{IntervalDays: interval * multiplier(o, ColdMultiplier) * ease, EaseFactor: ease}
	case Assisted:
		ease = ClampEase(ease + assistedEaseDelta)
		return State{IntervalDays: interval * multiplier(o, AssistedMultiplier) * ease, EaseFactor: ease}
	default:
		ease = ClampEase(ease + failedEaseDelta)
		return State{IntervalDays: FailedInterval, EaseFactor: ease}
	}
}

func multiplier(o Outcome, def float64) float64 {
	if o.Multiplier > 0 && !math.IsInf(o.Multiplier, 0) {
		return o.Multiplier
	}
	return def
}

// ClampEase bounds e to [MinEase, MaxEase]; NaN maps to DefaultEase.
func ClampEase(e float64) float64 {
	if math.IsNaN(e) {
		return DefaultEase
	}
	if e < MinEase {
		return MinEase
	}
	if e > MaxEase {
		return MaxEase
	}
	return e
}

func clampInterval(d float64) float64 {
	if math.IsNaN(d) || d <= 0 {
		return FailedInterval
	}
	if d > MaxIntervalDays {
		return MaxIntervalDays
	}
	return d
}

// DaysToDuration converts fractional days to a duration at microsecond
// resolution.
func DaysToDuration(days float64) time.Duration {
	return time.Duration(math.Round(days*24*float64(time.Hour)/float64(time.Microsecond))) * time.Microsecond
}
