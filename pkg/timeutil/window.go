// Package timeutil computes live and pre-game windows for matches and
// formats relative start-time labels.
package timeutil

import (
	"strings"
	"time"

	"sportguide-go/pkg/config"
)

// Timestamps above this are unix milliseconds and get divided by 1000.
// Applied everywhere a raw start time is read.
const msThreshold = 100_000_000_000

// NormalizeTimestamp converts a raw start time to unix seconds.
func NormalizeTimestamp(raw float64) float64 {
	if raw > msThreshold {
		return raw / 1000
	}
	return raw
}

// durationKey maps a sport-name keyword to a duration setting. Matching
// is a case-insensitive substring check; the first hit wins, so table
// order matters.
type durationKey struct {
	keyword string
	hours   func(d config.Durations) int
}

var durationTable = []durationKey{
	{"soccer", func(d config.Durations) int { return d.Soccer }},
	{"football", func(d config.Durations) int { return d.Football }},
	{"nfl", func(d config.Durations) int { return d.Football }},
	{"ncaa", func(d config.Durations) int { return d.Football }},
	{"basketball", func(d config.Durations) int { return d.Basketball }},
	{"nba", func(d config.Durations) int { return d.Basketball }},
	{"baseball", func(d config.Durations) int { return d.Baseball }},
	{"mlb", func(d config.Durations) int { return d.Baseball }},
	{"hockey", func(d config.Durations) int { return d.Hockey }},
	{"nhl", func(d config.Durations) int { return d.Hockey }},
	{"boxing", func(d config.Durations) int { return d.Fighting }},
	{"mma", func(d config.Durations) int { return d.Fighting }},
	{"fight", func(d config.Durations) int { return d.Fighting }},
	{"ufc", func(d config.Durations) int { return d.Fighting }},
	{"racing", func(d config.Durations) int { return d.Racing }},
	{"f1", func(d config.Durations) int { return d.Racing }},
	{"nascar", func(d config.Durations) int { return d.Racing }},
	{"motor", func(d config.Durations) int { return d.Racing }},
	{"cricket", func(d config.Durations) int { return d.Cricket }},
}

// Windows evaluates match timing against sport-specific durations and a
// uniform pre-game window.
type Windows struct {
	durations config.Durations
	preGame   time.Duration
	now       func() time.Time
}

// New creates a window engine with the configured durations.
func New(durations config.Durations, preGame time.Duration) *Windows {
	return &Windows{
		durations: durations,
		preGame:   preGame,
		now:       time.Now,
	}
}

// DurationHours returns the live-window length for a sport name, falling
// back to the default when no keyword matches or the name is empty.
func (w *Windows) DurationHours(sportName string) int {
	if sportName == "" {
		return w.durations.Default
	}
	s := strings.ToLower(sportName)
	for _, entry := range durationTable {
		if strings.Contains(s, entry.keyword) {
			if h := entry.hours(w.durations); h > 0 {
				return h
			}
			return w.durations.Default
		}
	}
	return w.durations.Default
}

// IsLive reports whether a match is inside its live window: from
// pre-game seconds before start through the sport's duration after.
// A start time of 0 means always live.
func (w *Windows) IsLive(startTime float64, sportName string) bool {
	if startTime == 0 {
		return true
	}
	diff := float64(w.now().Unix()) - NormalizeTimestamp(startTime)
	duration := float64(w.DurationHours(sportName)) * 3600
	return diff >= -w.preGame.Seconds() && diff <= duration
}

// IsFutureOrGrace reports whether a match has not yet started or started
// less than grace ago. It only bounds the diff from below; an ancient
// start time in the future direction never occurs upstream.
func (w *Windows) IsFutureOrGrace(startTime float64, grace time.Duration) bool {
	if startTime == 0 {
		return false
	}
	diff := float64(w.now().Unix()) - NormalizeTimestamp(startTime)
	return diff < grace.Seconds()
}

// FormatLabel renders a relative start-time prefix with the host's
// inline markup tokens: LIVE inside the running window, otherwise
// time-of-day, "Tomorrow" or a weekday abbreviation.
func (w *Windows) FormatLabel(startTime float64, sportName string) string {
	if startTime == 0 {
		return ""
	}

	start := time.Unix(int64(NormalizeTimestamp(startTime)), 0)
	now := w.now()
	diff := now.Sub(start).Seconds()
	duration := float64(w.DurationHours(sportName)) * 3600

	clock := start.Format("15:04")

	if diff >= 0 && diff <= duration {
		return "[COLOR red]LIVE[/COLOR] [" + clock + "] "
	}
	if sameDay(start, now) {
		return "[" + clock + "] "
	}
	if sameDay(start, now.AddDate(0, 0, 1)) {
		return "Tomorrow [" + clock + "] "
	}
	return start.Format("Mon") + " [" + clock + "] "
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
