// Package guide builds the menu entries consumed by the host media
// player and exposes them over HTTP.
package guide

// Navigation modes understood by the action router.
const (
	ModeLiveNow        = "live_now"
	ModeMatches        = "matches"
	ModeStreams        = "streams"
	ModePlay           = "play"
	ModeAutoPlay       = "auto_play"
	ModeRefreshCache   = "refresh_cache"
	ModeClearFullCache = "clear_full_cache"
)

// Action is an opaque descriptor the host echoes back as query
// parameters: a mode plus mode-specific keys.
type Action map[string]string

// ContextAction is a secondary action offered on a list entry.
type ContextAction struct {
	Label  string `json:"label"`
	Action Action `json:"action"`
}

// Entry is one list item handed to the host menu: a display label with
// inline markup tokens, an action descriptor, folder/playable flags and
// optional art.
type Entry struct {
	Label      string          `json:"label"`
	Plot       string          `json:"plot,omitempty"`
	Action     Action          `json:"action,omitempty"`
	IsFolder   bool            `json:"is_folder"`
	IsPlayable bool            `json:"is_playable"`
	Art        string          `json:"art,omitempty"`
	Context    []ContextAction `json:"context,omitempty"`
}

// refreshContext is attached to every entry so the host can force a
// data refresh from anywhere.
var refreshContext = []ContextAction{{
	Label:  "Refresh Data",
	Action: Action{"mode": ModeRefreshCache},
}}

// placeholder builds a silent, non-actionable list entry used for empty
// states instead of an error dialog.
func placeholder(label string) Entry {
	return Entry{
		Label:   label,
		Context: refreshContext,
	}
}
