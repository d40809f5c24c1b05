// Package catalog normalizes the upstream sport/match tree and applies
// the grouping, lookup, filtering and ordering rules for display.
package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"sportguide-go/pkg/cache"
	"sportguide-go/pkg/logging"
	"sportguide-go/pkg/timeutil"
	"sportguide-go/pkg/types"
)

const (
	// Sport id that gets a friendlier display alias.
	fightSportID = "fight"
	fightAlias   = "Boxing-MMA-Wrassling"

	// Pseudo category aggregating all group_to_other sports.
	otherCategory = "other"
)

// DataSource is the upstream gateway surface the catalog needs.
type DataSource interface {
	GetSports(ctx context.Context) ([]types.Sport, error)
	GetKodiData(ctx context.Context) (*types.Snapshot, error)
}

// Options tunes catalog caching and filtering behavior.
type Options struct {
	SportsTTLHours   float64
	SnapshotTTLHours float64
	GraceWindow      time.Duration
}

// Catalog is a cached, read-only view over the upstream dataset.
type Catalog struct {
	source  DataSource
	store   *cache.Store
	windows *timeutil.Windows
	opts    Options
	log     *logging.Logger
	now     func() time.Time
}

// New creates a catalog over the given source and cache store.
func New(source DataSource, store *cache.Store, windows *timeutil.Windows, opts Options, log *logging.Logger) *Catalog {
	if opts.SportsTTLHours <= 0 {
		opts.SportsTTLHours = 24
	}
	if opts.SnapshotTTLHours <= 0 {
		opts.SnapshotTTLHours = 0.08
	}
	if opts.GraceWindow <= 0 {
		opts.GraceWindow = 5 * time.Minute
	}
	return &Catalog{
		source:  source,
		store:   store,
		windows: windows,
		opts:    opts,
		log:     log.WithComponent("catalog"),
		now:     time.Now,
	}
}

// NormalizeName canonicalizes a sport name for comparison: lowercased,
// trimmed, with dashes and underscores collapsed to spaces.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return s
}

// displayName returns the user-facing name for a sport.
func displayName(s types.Sport) string {
	if string(s.ID) == fightSportID {
		return fightAlias
	}
	return s.Name
}

// ListSports returns the browsable sport list: cached, with sports
// flagged group_to_other removed and the fight alias applied. Stale
// cache is served when every upstream server fails.
func (c *Catalog) ListSports(ctx context.Context) ([]types.Sport, error) {
	var sports []types.Sport
	if c.store.Get(cache.KeySports, &sports) {
		return c.presentSports(sports), nil
	}

	fetched, err := c.source.GetSports(ctx)
	if err != nil {
		// Stale fallback: an old taxonomy beats an empty screen.
		var stale []types.Sport
		if ok, _ := c.store.GetExtended(cache.KeySports, &stale); ok {
			c.log.Warn("serving stale sports list", "error", err)
			return c.presentSports(stale), nil
		}
		return nil, err
	}

	if err := c.store.Set(cache.KeySports, fetched, c.opts.SportsTTLHours); err != nil {
		c.log.Warn("failed to cache sports list", "error", err)
	}
	return c.presentSports(fetched), nil
}

// presentSports filters and renames on shallow copies, leaving the
// cached dataset untouched.
func (c *Catalog) presentSports(sports []types.Sport) []types.Sport {
	out := make([]types.Sport, 0, len(sports))
	for _, s := range sports {
		if bool(s.GroupToOther) {
			continue
		}
		s.Name = displayName(s)
		out = append(out, s)
	}
	return out
}

// Snapshot returns the current match/stream dataset, cached on a short
// TTL to track near-real-time state. Stale cache is served when every
// upstream server fails.
func (c *Catalog) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	var snap types.Snapshot
	if c.store.Get(cache.KeySnapshot, &snap) {
		return &snap, nil
	}

	fetched, err := c.source.GetKodiData(ctx)
	if err != nil {
		var stale types.Snapshot
		if ok, _ := c.store.GetExtended(cache.KeySnapshot, &stale); ok {
			c.log.Warn("serving stale snapshot", "error", err)
			return &stale, nil
		}
		return nil, err
	}

	if err := c.store.Set(cache.KeySnapshot, fetched, c.opts.SnapshotTTLHours); err != nil {
		c.log.Warn("failed to cache snapshot", "error", err)
	}
	return fetched, nil
}

// FindMatch locates a match by id. Sports whose name matches the hint
// (exactly or normalization-equal) are searched first, then the rest in
// snapshot order. The first id hit wins.
func (c *Catalog) FindMatch(snap *types.Snapshot, matchID, sportNameHint string) *types.Match {
	if snap == nil {
		return nil
	}

	searchOrder := snap.Sports
	if sportNameHint != "" {
		hintNorm := NormalizeName(sportNameHint)
		preferred := make([]types.Sport, 0, 1)
		others := make([]types.Sport, 0, len(snap.Sports))

		for _, s := range snap.Sports {
			switch {
			case strings.EqualFold(s.Name, sportNameHint):
				preferred = append(preferred, s)
			case NormalizeName(s.Name) == hintNorm:
				preferred = append(preferred, s)
			case string(s.ID) == fightSportID && strings.Contains(hintNorm, "boxing mma"):
				preferred = append(preferred, s)
			default:
				others = append(others, s)
			}
		}
		searchOrder = append(preferred, others...)
	}

	for _, s := range searchOrder {
		for i := range s.Matches {
			if string(s.Matches[i].ID) == matchID {
				m := s.Matches[i]
				return &m
			}
		}
	}
	return nil
}

// SportMatches resolves a sport id or name to its display matches.
//
// The literal category "other" aggregates matches from every sport
// flagged group_to_other or literally named/identified "other"; grouped
// matches get their title prefixed with the origin sport unless already
// so prefixed. Regular lookup order: exact id, exact or normalized name,
// then the fight alias rule.
func (c *Catalog) SportMatches(snap *types.Snapshot, sportID, sportName string) []types.DisplayMatch {
	if snap == nil {
		return nil
	}

	if strings.EqualFold(sportID, otherCategory) || strings.EqualFold(sportName, otherCategory) {
		return c.otherMatches(snap)
	}

	target := c.resolveSport(snap, sportID, sportName)
	if target == nil {
		return nil
	}

	name := displayName(*target)
	out := make([]types.DisplayMatch, 0, len(target.Matches))
	for _, m := range target.Matches {
		out = append(out, types.DisplayMatch{Match: m, SportName: name})
	}
	return out
}

// otherMatches builds the aggregated "other" category.
func (c *Catalog) otherMatches(snap *types.Snapshot) []types.DisplayMatch {
	var out []types.DisplayMatch
	for _, s := range snap.Sports {
		grouped := bool(s.GroupToOther)
		literalOther := strings.EqualFold(string(s.ID), otherCategory) || strings.EqualFold(s.Name, otherCategory)
		if !grouped && !literalOther {
			continue
		}

		for _, m := range s.Matches {
			if grouped && !literalOther {
				prefix := "[" + s.Name + "]"
				if !strings.HasPrefix(m.Title, prefix) {
					m.Title = prefix + " " + m.Title
				}
			}
			out = append(out, types.DisplayMatch{Match: m, SportName: s.Name})
		}
	}
	return out
}

// resolveSport finds a sport by exact id, then by exact or normalized
// name, then via the fight alias.
func (c *Catalog) resolveSport(snap *types.Snapshot, sportID, sportName string) *types.Sport {
	if sportID != "" && !strings.EqualFold(sportID, "none") {
		for i := range snap.Sports {
			if string(snap.Sports[i].ID) == sportID {
				return &snap.Sports[i]
			}
		}
	}

	if sportName == "" {
		return nil
	}
	nameNorm := NormalizeName(sportName)
	for i := range snap.Sports {
		s := &snap.Sports[i]
		if strings.EqualFold(s.Name, sportName) {
			return s
		}
		if NormalizeName(s.Name) == nameNorm {
			return s
		}
		if string(s.ID) == fightSportID && strings.Contains(nameNorm, "boxing mma") {
			return s
		}
	}
	return nil
}

// LiveMatches collects every match currently inside its live window,
// across all sports, ready for FilterAndSort ordering.
func (c *Catalog) LiveMatches(snap *types.Snapshot, showAll bool) []types.DisplayMatch {
	if snap == nil {
		return nil
	}

	var live []types.DisplayMatch
	for _, s := range snap.Sports {
		name := displayName(s)
		for _, m := range s.Matches {
			if !c.windows.IsLive(m.StartTime, name) {
				continue
			}
			if !showAll && !m.HasPlayableSource {
				continue
			}
			live = append(live, types.DisplayMatch{Match: m, SportName: name})
		}
	}
	return c.orderForDisplay(live)
}

// FilterAndSort drops matches that ended longer than their sport's
// duration ago, applies the playable/grace filter unless showAll, then
// orders started matches newest-first followed by upcoming soonest-first.
func (c *Catalog) FilterAndSort(matches []types.DisplayMatch, showAll bool) []types.DisplayMatch {
	nowTS := float64(c.now().Unix())

	kept := make([]types.DisplayMatch, 0, len(matches))
	for _, m := range matches {
		if m.StartTime != 0 {
			cutoff := nowTS - float64(c.windows.DurationHours(m.SportName))*3600
			if timeutil.NormalizeTimestamp(m.StartTime) < cutoff {
				continue
			}
		}
		if !showAll && !m.HasPlayableSource && !c.windows.IsFutureOrGrace(m.StartTime, c.opts.GraceWindow) {
			continue
		}
		kept = append(kept, m)
	}

	return c.orderForDisplay(kept)
}

// orderForDisplay splits matches into started and upcoming buckets and
// orders each; the buckets are never interleaved.
func (c *Catalog) orderForDisplay(matches []types.DisplayMatch) []types.DisplayMatch {
	nowTS := float64(c.now().Unix())

	var started, upcoming []types.DisplayMatch
	for _, m := range matches {
		if timeutil.NormalizeTimestamp(m.StartTime) <= nowTS {
			started = append(started, m)
		} else {
			upcoming = append(upcoming, m)
		}
	}

	// Most recently started first.
	sort.SliceStable(started, func(i, j int) bool {
		return timeutil.NormalizeTimestamp(started[i].StartTime) > timeutil.NormalizeTimestamp(started[j].StartTime)
	})
	// Soonest upcoming first.
	sort.SliceStable(upcoming, func(i, j int) bool {
		return timeutil.NormalizeTimestamp(upcoming[i].StartTime) < timeutil.NormalizeTimestamp(upcoming[j].StartTime)
	})

	return append(started, upcoming...)
}
