package guide

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"sportguide-go/pkg/api"
	"sportguide-go/pkg/cache"
	"sportguide-go/pkg/logging"
	"sportguide-go/pkg/resolver"
)

// Notice is a user-visible message: "dialog" blocks, "notification"
// does not.
type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// DirectoryResponse is a menu listing plus an optional notice.
type DirectoryResponse struct {
	Entries []Entry `json:"entries"`
	Notice  *Notice `json:"notice,omitempty"`
	Refresh bool    `json:"refresh,omitempty"`
}

// PlayResponse reports the outcome of a play or auto-play action.
type PlayResponse struct {
	State    string      `json:"state"`
	Stream   interface{} `json:"stream,omitempty"`
	Redirect Action      `json:"redirect,omitempty"`
	Notice   *Notice     `json:"notice,omitempty"`
}

// Handlers exposes the guide over HTTP. Every failure is converted at
// this boundary into a dialog, a notification or a silent placeholder;
// an invocation never surfaces an unhandled error to the host.
type Handlers struct {
	service       *Service
	store         *cache.Store
	cleanupMaxAge time.Duration
	log           *logging.Logger
}

// NewHandlers creates the guide HTTP handlers.
func NewHandlers(service *Service, store *cache.Store, cleanupMaxAge time.Duration, log *logging.Logger) *Handlers {
	return &Handlers{
		service:       service,
		store:         store,
		cleanupMaxAge: cleanupMaxAge,
		log:           log.WithComponent("guide-http"),
	}
}

// RegisterRoutes registers the guide routes.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /guide", h.handleGuide)
	mux.HandleFunc("POST /maintenance/cleanup", h.handleCleanup)
}

// handleGuide routes an action descriptor to its view. An absent mode
// yields the main menu.
func (h *Handlers) handleGuide(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	switch q.Get("mode") {
	case "":
		h.directory(w, func() ([]Entry, error) {
			return h.service.MainMenu(ctx)
		}, "Failed to load sports list:\nCould not connect to any server.")
	case ModeLiveNow:
		h.directory(w, func() ([]Entry, error) {
			return h.service.LiveNow(ctx)
		}, "Failed to load match data:\nCould not connect to any server.")
	case ModeMatches:
		h.directory(w, func() ([]Entry, error) {
			return h.service.Matches(ctx, q.Get("sport_id"), q.Get("sport_name"))
		}, "Failed to load match data:\nCould not connect to any server.")
	case ModeStreams:
		h.directory(w, func() ([]Entry, error) {
			return h.service.Streams(ctx, q.Get("match_id"), q.Get("sport_name"))
		}, "Failed to load match data:\nCould not connect to any server.")
	case ModePlay:
		h.handlePlay(ctx, w, q.Get("url"), q.Get("playable"), q.Get("referer"))
	case ModeAutoPlay:
		h.handleAutoPlay(ctx, w, q.Get("match_id"), q.Get("sport_name"))
	case ModeRefreshCache, ModeClearFullCache:
		h.handleClearCache(w)
	default:
		h.jsonResponse(w, DirectoryResponse{Entries: []Entry{}})
	}
}

// directory runs a listing and converts failures: total upstream outage
// becomes a blocking dialog, a missing match a notification, both with
// an empty entry list rather than an error status.
func (h *Handlers) directory(w http.ResponseWriter, list func() ([]Entry, error), outageMsg string) {
	entries, err := list()
	if err != nil {
		switch {
		case errors.Is(err, ErrMatchNotFound):
			h.jsonResponseNoCache(w, DirectoryResponse{
				Entries: []Entry{},
				Notice:  &Notice{Type: "notification", Message: "Match data not found"},
			})
		default:
			h.log.Error("directory listing failed", "error", err)
			h.jsonResponseNoCache(w, DirectoryResponse{
				Entries: []Entry{},
				Notice:  &Notice{Type: "dialog", Message: outageMsg},
			})
		}
		return
	}
	h.jsonResponseNoCache(w, DirectoryResponse{Entries: entries})
}

// handlePlay resolves a stream and reports a player-ready item or a
// failure dialog; the HTTP status stays 200 either way.
func (h *Handlers) handlePlay(ctx context.Context, w http.ResponseWriter, mediaURL, playable, referer string) {
	stream, err := h.service.Play(ctx, mediaURL, playable, referer)
	if err != nil {
		h.jsonResponseNoCache(w, PlayResponse{
			State:  "failed",
			Notice: &Notice{Type: "dialog", Message: playbackMessage(err)},
		})
		return
	}
	h.jsonResponseNoCache(w, PlayResponse{State: StatePlaying, Stream: stream})
}

// handleAutoPlay runs the auto-play state machine.
func (h *Handlers) handleAutoPlay(ctx context.Context, w http.ResponseWriter, matchID, sportName string) {
	result, err := h.service.AutoPlay(ctx, matchID, sportName)
	if err != nil {
		notice := &Notice{Type: "dialog", Message: "Failed to load match data:\nCould not connect to any server."}
		if errors.Is(err, ErrMatchNotFound) {
			notice = &Notice{Type: "notification", Message: "Match not found"}
		}
		h.jsonResponseNoCache(w, PlayResponse{State: "failed", Notice: notice})
		return
	}
	h.jsonResponseNoCache(w, PlayResponse{
		State:    result.State,
		Stream:   result.Stream,
		Redirect: result.Redirect,
	})
}

// handleClearCache clears every cached dataset and tells the host to
// redraw.
func (h *Handlers) handleClearCache(w http.ResponseWriter) {
	if err := h.store.Clear(""); err != nil {
		h.log.Error("cache clear failed", "error", err)
	}
	h.jsonResponseNoCache(w, DirectoryResponse{
		Entries: []Entry{},
		Notice:  &Notice{Type: "notification", Message: "Cache Cleared Successfully"},
		Refresh: true,
	})
}

// handleCleanup is invoked by the host's own scheduling to sweep aged
// cache files.
func (h *Handlers) handleCleanup(w http.ResponseWriter, r *http.Request) {
	h.store.Cleanup(h.cleanupMaxAge)
	h.jsonResponse(w, map[string]string{"status": "ok"})
}

// playbackMessage maps a resolution failure to the dialog text shown to
// the user.
func playbackMessage(err error) string {
	var httpErr *resolver.HTTPError
	switch {
	case errors.Is(err, ErrWebOnly):
		return "No direct stream URL available.\nThis match is only available via embedded web player."
	case errors.As(err, &httpErr):
		return fmt.Sprintf("Playback Error:\nServer returned error code %d.", httpErr.Status)
	case errors.Is(err, context.DeadlineExceeded):
		return "Playback Error:\nConnection to stream timed out.\nYour connection or the server is too slow."
	case errors.Is(err, api.ErrAllServersFailed):
		return "Failed to load match data:\nCould not connect to any server."
	default:
		return "Playback Error:\nCould not connect to the stream source.\nThe server might be offline."
	}
}

func (h *Handlers) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonResponseNoCache(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	json.NewEncoder(w).Encode(data)
}
