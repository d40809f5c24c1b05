// Package api provides the upstream API client and the ordered-failover
// gateway across the configured server list.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"sportguide-go/pkg/logging"
	"sportguide-go/pkg/types"
)

// Fixed client identifier sent with every request.
const clientUserAgent = "Kodi/SportGuide"

// HTTPError is returned for non-2xx upstream responses.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned status %d for %s", e.Status, e.URL)
}

// Client talks to a single upstream server.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	log        *logging.Logger
}

// NewClient creates a client for one upstream base URL. clientID is the
// persisted per-install identifier.
func NewClient(baseURL, clientID string, timeout time.Duration, log *logging.Logger) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithComponent("api-client").WithURL(baseURL),
	}
}

// BaseURL returns the server this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", clientUserAgent)
	req.Header.Set("X-User-ID", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request to %s failed", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Status: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read response from %s", url)
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "failed to decode response from %s", url)
	}
	return nil
}

// GetSports fetches the full sport taxonomy.
func (c *Client) GetSports(ctx context.Context) ([]types.Sport, error) {
	var payload struct {
		Sports []types.Sport `json:"sports"`
	}
	if err := c.getJSON(ctx, "full/sports", &payload); err != nil {
		return nil, err
	}
	return payload.Sports, nil
}

// GetKodiData fetches the current match/stream snapshot.
func (c *Client) GetKodiData(ctx context.Context) (*types.Snapshot, error) {
	var snapshot types.Snapshot
	if err := c.getJSON(ctx, "kodi/data.json", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
