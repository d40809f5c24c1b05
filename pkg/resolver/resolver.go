// Package resolver verifies a chosen stream URL and rewrites disguised
// playlists into a player-ready form.
package resolver

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sportguide-go/pkg/logging"
	"sportguide-go/pkg/types"
)

// Fixed playback user agent, also injected into segment requests.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const manifestMIME = "application/vnd.apple.mpegurl"

// HTTPError is returned when the stream host answers with a non-2xx
// status; playback surfaces the code to the user.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("stream returned status %d", e.Status)
}

// Fetcher performs the playlist request. Certificate verification is
// disabled on this path for compatibility with the upstream CDNs'
// certificate setup; see the security note in DESIGN.md.
type Fetcher interface {
	DoInsecure(req *http.Request) (*http.Response, error)
}

// Resolver validates stream playlists and builds playback bundles.
type Resolver struct {
	client  Fetcher
	timeout time.Duration
	log     *logging.Logger
}

// New creates a resolver using the given fetcher.
func New(client Fetcher, timeout time.Duration, log *logging.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		client:  client,
		timeout: timeout,
		log:     log.WithComponent("resolver"),
	}
}

// Resolve fetches mediaURL with the playback headers, rewrites disguised
// .png segments to .ts, and returns the player-ready stream bundle. The
// referer falls back to the media URL itself when empty.
func (r *Resolver) Resolve(ctx context.Context, mediaURL, refererURL string) (*types.PlayableStream, error) {
	referer := refererURL
	if referer == "" {
		referer = mediaURL
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)

	resp, err := r.client.DoInsecure(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}

	playURL := mediaURL
	if strings.Contains(string(body), ".png") {
		// Disguised segments: the upstream serves .ts segments under a
		// .png extension to evade naive blocking.
		r.log.Info("detected disguised segments, patching playlist", "url", mediaURL)
		patched := strings.ReplaceAll(string(body), ".png", ".ts")
		encoded := base64.StdEncoding.EncodeToString([]byte(patched))
		playURL = "data:" + manifestMIME + ";base64," + encoded
	}

	headers := "User-Agent=" + userAgent + "&Referer=" + referer
	return &types.PlayableStream{
		URL:             playURL,
		ManifestType:    "hls",
		ManifestHeaders: headers,
		StreamHeaders:   headers,
	}, nil
}
