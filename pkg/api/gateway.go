package api

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"sportguide-go/pkg/logging"
	"sportguide-go/pkg/types"
)

// ErrAllServersFailed marks gateway errors where every configured server
// was tried and none succeeded. Callers should treat it as "no data
// available" and fall back to stale cache or an empty result.
var ErrAllServersFailed = errors.New("all api servers failed")

// Gateway tries each configured upstream server in priority order and
// returns the first successful response. Servers are tried strictly
// sequentially; the worst case is bounded by the sum of per-request
// timeouts.
type Gateway struct {
	clients []*Client
	log     *logging.Logger
}

// NewGateway builds a gateway over the given server list.
func NewGateway(servers []string, clientID string, timeout time.Duration, log *logging.Logger) *Gateway {
	clients := make([]*Client, 0, len(servers))
	for _, s := range servers {
		clients = append(clients, NewClient(s, clientID, timeout, log))
	}
	return &Gateway{
		clients: clients,
		log:     log.WithComponent("gateway"),
	}
}

// tryEach is the ordered-fallback combinator: it invokes call against
// each client in priority order, short-circuiting on the first success.
// Exhaustion yields an error marked ErrAllServersFailed that wraps the
// last failure.
func tryEach[T any](ctx context.Context, g *Gateway, name string, call func(context.Context, *Client) (T, error)) (T, error) {
	var lastErr error
	for _, c := range g.clients {
		result, err := call(ctx, c)
		if err == nil {
			return result, nil
		}
		g.log.Warn("server failed, trying next", "call", name, "server", c.BaseURL(), "error", err)
		lastErr = err
	}

	var zero T
	if lastErr == nil {
		lastErr = errors.New("no api servers configured")
	}
	g.log.Error("all servers exhausted", "call", name, "error", lastErr)
	return zero, errors.Mark(errors.Wrap(lastErr, "all api servers failed"), ErrAllServersFailed)
}

// GetSports fetches the sport taxonomy from the first healthy server.
func (g *Gateway) GetSports(ctx context.Context) ([]types.Sport, error) {
	return tryEach(ctx, g, "get_sports", func(ctx context.Context, c *Client) ([]types.Sport, error) {
		return c.GetSports(ctx)
	})
}

// GetKodiData fetches the current snapshot from the first healthy server.
func (g *Gateway) GetKodiData(ctx context.Context) (*types.Snapshot, error) {
	return tryEach(ctx, g, "get_kodi_data", func(ctx context.Context, c *Client) (*types.Snapshot, error) {
		return c.GetKodiData(ctx)
	})
}
