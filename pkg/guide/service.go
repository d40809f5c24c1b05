package guide

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"sportguide-go/pkg/catalog"
	"sportguide-go/pkg/logging"
	"sportguide-go/pkg/timeutil"
	"sportguide-go/pkg/types"
)

// ErrMatchNotFound means the match is absent from the current snapshot;
// surfaced as an empty state, not an error dialog.
var ErrMatchNotFound = errors.New("match not found in snapshot")

// ErrWebOnly means the chosen stream has no direct media URL and is
// only available via an embedded web player.
var ErrWebOnly = errors.New("stream is only available via embedded web player")

// StreamResolver verifies and rewrites a chosen stream URL.
type StreamResolver interface {
	Resolve(ctx context.Context, mediaURL, refererURL string) (*types.PlayableStream, error)
}

// AutoPlay states.
const (
	StatePlaying = "playing"
	StateList    = "list"
)

// AutoPlayResult is the outcome of the auto-play state machine: either
// a resolved stream to hand to the player, or a redirect to the
// stream-list view.
type AutoPlayResult struct {
	State    string                `json:"state"`
	Stream   *types.PlayableStream `json:"stream,omitempty"`
	Redirect Action                `json:"redirect,omitempty"`
}

// Service assembles host menu entries from the catalog and drives
// playback resolution.
type Service struct {
	catalog  *catalog.Catalog
	resolver StreamResolver
	windows  *timeutil.Windows
	showAll  bool
	log      *logging.Logger
}

// NewService creates the guide service.
func NewService(cat *catalog.Catalog, res StreamResolver, windows *timeutil.Windows, showAll bool, log *logging.Logger) *Service {
	return &Service{
		catalog:  cat,
		resolver: res,
		windows:  windows,
		showAll:  showAll,
		log:      log.WithComponent("guide"),
	}
}

// MainMenu lists the Live Now shortcut followed by the browsable sports.
func (s *Service) MainMenu(ctx context.Context) ([]Entry, error) {
	entries := []Entry{{
		Label:    "[COLOR red]Live Now[/COLOR]",
		Plot:     "Show all currently live matches",
		Action:   Action{"mode": ModeLiveNow},
		IsFolder: true,
		Context:  refreshContext,
	}}

	sports, err := s.catalog.ListSports(ctx)
	if err != nil {
		return nil, err
	}

	for _, sport := range sports {
		entries = append(entries, Entry{
			Label: sport.Name,
			Plot:  fmt.Sprintf("Browse %s matches", sport.Name),
			Action: Action{
				"mode":       ModeMatches,
				"sport_id":   string(sport.ID),
				"sport_name": sport.Name,
			},
			IsFolder: true,
			Context:  refreshContext,
		})
	}
	return entries, nil
}

// LiveNow lists every match currently inside its live window.
func (s *Service) LiveNow(ctx context.Context) ([]Entry, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	live := s.catalog.LiveMatches(snap, s.showAll)
	if len(live) == 0 {
		return []Entry{placeholder("No live matches right now")}, nil
	}

	entries := make([]Entry, 0, len(live))
	for _, m := range live {
		entries = append(entries, s.matchEntry(m, true))
	}
	return entries, nil
}

// Matches lists the filtered, ordered matches of one sport (or the
// aggregated "other" category).
func (s *Service) Matches(ctx context.Context, sportID, sportName string) ([]Entry, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	matches := s.catalog.SportMatches(snap, sportID, sportName)
	if len(matches) == 0 {
		return []Entry{placeholder("No matches found")}, nil
	}

	matches = s.catalog.FilterAndSort(matches, s.showAll)
	if len(matches) == 0 {
		return []Entry{placeholder("No upcoming matches")}, nil
	}

	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, s.matchEntry(m, false))
	}
	return entries, nil
}

// Streams lists the playable sources of one match.
func (s *Service) Streams(ctx context.Context, matchID, sportName string) ([]Entry, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	match := s.catalog.FindMatch(snap, matchID, sportName)
	if match == nil {
		return nil, ErrMatchNotFound
	}

	playable := match.PlayableStreams()
	if len(playable) == 0 {
		return []Entry{placeholder("No streams available, check back at game time or refresh data")}, nil
	}

	entries := make([]Entry, 0, len(playable))
	for i, stream := range playable {
		quality := stream.Quality
		if quality == "" {
			quality = "SD"
		}
		language := stream.Language
		if language == "" {
			language = "En"
		}
		label := fmt.Sprintf("[%s] Stream %d (%s) - %d Viewers", quality, i+1, language, stream.Viewers)

		entries = append(entries, Entry{
			Label: label,
			Action: Action{
				"mode":     ModePlay,
				"url":      stream.PlayURL(),
				"playable": "true",
				"referer":  stream.URL,
			},
			IsPlayable: true,
			Art:        posterArt(match.Poster),
			Context:    refreshContext,
		})
	}
	return entries, nil
}

// Play resolves a chosen stream URL for the host player.
func (s *Service) Play(ctx context.Context, mediaURL, playable, referer string) (*types.PlayableStream, error) {
	if playable != "true" {
		s.log.Warn("embed-only stream selected", "url", mediaURL)
		return nil, ErrWebOnly
	}
	s.log.Info("attempting playback", "url", mediaURL)
	return s.resolver.Resolve(ctx, mediaURL, referer)
}

// AutoPlay locates a match and tries its first stream. A missing or
// web-only first stream redirects to the stream-list view, as does a
// resolution failure; errors never propagate to the player.
func (s *Service) AutoPlay(ctx context.Context, matchID, sportName string) (*AutoPlayResult, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	match := s.catalog.FindMatch(snap, matchID, sportName)
	if match == nil {
		return nil, ErrMatchNotFound
	}

	listRedirect := &AutoPlayResult{
		State: StateList,
		Redirect: Action{
			"mode":       ModeStreams,
			"match_id":   matchID,
			"sport_name": sportName,
		},
	}

	if len(match.Streams) == 0 {
		return listRedirect, nil
	}

	first := match.Streams[0]
	if !first.Playable() {
		s.log.Info("first stream is web only, falling back to list", "match_id", matchID)
		return listRedirect, nil
	}

	stream, err := s.resolver.Resolve(ctx, first.PlayURL(), first.URL)
	if err != nil {
		s.log.Warn("first stream failed, falling back to list", "match_id", matchID, "error", err)
		return listRedirect, nil
	}

	s.log.Info("first stream verified, playing", "match_id", matchID)
	return &AutoPlayResult{State: StatePlaying, Stream: stream}, nil
}

// matchEntry builds the list entry for a match: relative-time label,
// optional sport prefix, gray markup when nothing is playable, and
// either a direct play action or a drill-down into the stream list.
func (s *Service) matchEntry(m types.DisplayMatch, withSportPrefix bool) Entry {
	title := m.Title
	if title == "" {
		title = "Unknown Match"
	}

	var timeStr string
	if m.StartTime == 0 {
		timeStr = "[COLOR red]LIVE 24/7[/COLOR] "
	} else {
		timeStr = s.windows.FormatLabel(m.StartTime, m.SportName)
	}

	label := timeStr
	if withSportPrefix {
		label += "[" + m.SportName + "] "
	}
	label += title

	playable := m.PlayableStreams()
	if len(playable) == 0 {
		label = "[COLOR gray]" + label + "[/COLOR]"
	}

	entry := Entry{
		Label:   label,
		Plot:    title,
		Art:     posterArt(m.Poster),
		Context: refreshContext,
	}

	if len(playable) > 0 {
		first := playable[0]
		entry.Action = Action{
			"mode":       ModePlay,
			"match_id":   string(m.ID),
			"sport_name": m.SportName,
			"url":        first.PlayURL(),
			"playable":   "true",
			"referer":    first.URL,
		}
		entry.IsPlayable = true
	} else {
		entry.Action = Action{
			"mode":       ModeStreams,
			"match_id":   string(m.ID),
			"sport_name": m.SportName,
		}
		entry.IsFolder = true
	}
	return entry
}

// posterArt returns the art URL only when it looks like a real link.
func posterArt(poster string) string {
	if strings.HasPrefix(poster, "http") {
		return poster
	}
	return ""
}
