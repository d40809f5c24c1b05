// Package types defines core domain types used throughout the application.
package types

import (
	"bytes"
	"strconv"
	"strings"
)

// TriBool is a boolean that upstream serves as bool, string or number.
// Strings are compared case-insensitively to "true", numbers to 1.
type TriBool bool

// UnmarshalJSON coerces bool/string/number representations at the
// ingestion boundary so callers only ever see a strict boolean.
func (b *TriBool) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	switch {
	case s == "true":
		*b = true
	case s == "false", s == "null", s == `""`:
		*b = false
	case strings.HasPrefix(s, `"`):
		unquoted := strings.Trim(s, `"`)
		*b = TriBool(strings.EqualFold(unquoted, "true"))
	default:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*b = false
			return nil
		}
		*b = n == 1
	}
	return nil
}

// FlexID is an identifier that upstream serves as either a string or a
// number. It always normalizes to its string form.
type FlexID string

// UnmarshalJSON accepts both quoted and bare identifiers.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			*id = FlexID(strings.Trim(s, `"`))
			return nil
		}
		*id = FlexID(unquoted)
		return nil
	}
	// Bare number: collapse float representations like 12.0 to "12".
	if n, err := strconv.ParseFloat(s, 64); err == nil && n == float64(int64(n)) {
		*id = FlexID(strconv.FormatInt(int64(n), 10))
		return nil
	}
	*id = FlexID(s)
	return nil
}

// Sport is one node of the upstream sport taxonomy.
type Sport struct {
	ID           FlexID  `json:"id"`
	Name         string  `json:"name"`
	GroupToOther TriBool `json:"group_to_other"`
	Matches      []Match `json:"matches"`
}

// Match is a single scheduled or always-on event.
// StartTime may be unix seconds or milliseconds; 0 means "always live".
type Match struct {
	ID                FlexID   `json:"id"`
	Title             string   `json:"title"`
	Poster            string   `json:"poster"`
	StartTime         float64  `json:"start_time"`
	HasPlayableSource bool     `json:"has_playable_source"`
	Streams           []Stream `json:"streams"`
}

// Stream is one playback source for a match. URL is the embed page and
// doubles as the Referer when fetching the media URL.
type Stream struct {
	Quality   string `json:"quality"`
	Language  string `json:"language"`
	Viewers   int    `json:"viewers"`
	MediaURL  string `json:"media_url"`
	DirectURL string `json:"direct_url"`
	URL       string `json:"url"`
}

// Playable reports whether the stream has a direct media source.
func (s Stream) Playable() bool {
	return s.MediaURL != "" || s.DirectURL != ""
}

// PlayURL returns the preferred media URL for playback.
func (s Stream) PlayURL() string {
	if s.MediaURL != "" {
		return s.MediaURL
	}
	return s.DirectURL
}

// PlayableStreams filters the match's streams down to those with a
// direct media source, preserving upstream order.
func (m Match) PlayableStreams() []Stream {
	var out []Stream
	for _, s := range m.Streams {
		if s.Playable() {
			out = append(out, s)
		}
	}
	return out
}

// Snapshot is one atomic fetch of the full dataset tree.
type Snapshot struct {
	Sports []Sport `json:"sports"`
}

// DisplayMatch is an enriched view of a Match carrying the sport name it
// resolved under. The raw snapshot is never mutated; grouping and title
// prefixing happen on this view.
type DisplayMatch struct {
	Match
	SportName string `json:"sport_name"`
}

// PlayableStream is the player-ready result of stream resolution:
// the chosen URL plus adaptive-streaming playback properties.
type PlayableStream struct {
	URL             string `json:"url"`
	ManifestType    string `json:"manifest_type"`
	ManifestHeaders string `json:"manifest_headers"`
	StreamHeaders   string `json:"stream_headers"`
}
