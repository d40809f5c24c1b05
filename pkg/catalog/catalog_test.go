package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportguide-go/pkg/cache"
	"sportguide-go/pkg/config"
	"sportguide-go/pkg/logging"
	"sportguide-go/pkg/timeutil"
	"sportguide-go/pkg/types"
)

type fakeSource struct {
	sports      []types.Sport
	snapshot    *types.Snapshot
	sportsErr   error
	snapshotErr error
	sportsCalls int
}

func (f *fakeSource) GetSports(ctx context.Context) ([]types.Sport, error) {
	f.sportsCalls++
	return f.sports, f.sportsErr
}

func (f *fakeSource) GetKodiData(ctx context.Context) (*types.Snapshot, error) {
	return f.snapshot, f.snapshotErr
}

func newTestCatalog(t *testing.T, source *fakeSource) *Catalog {
	t.Helper()
	log := logging.New("error", false, nil)
	store, err := cache.New(t.TempDir(), log)
	require.NoError(t, err)
	windows := timeutil.New(config.Durations{
		Soccer: 3, Football: 4, Basketball: 3, Baseball: 4,
		Hockey: 3, Fighting: 6, Racing: 4, Cricket: 8, Default: 4,
	}, 30*time.Minute)
	return New(source, store, windows, Options{}, log)
}

func ts(d time.Duration) float64 {
	return float64(time.Now().Add(d).Unix())
}

func TestListSports_FiltersGroupedAndAliasesFight(t *testing.T) {
	source := &fakeSource{sports: []types.Sport{
		{ID: "soccer", Name: "Soccer"},
		{ID: "darts", Name: "Darts", GroupToOther: true},
		{ID: "fight", Name: "Fighting"},
	}}
	c := newTestCatalog(t, source)

	sports, err := c.ListSports(context.Background())
	require.NoError(t, err)
	require.Len(t, sports, 2)
	assert.Equal(t, "Soccer", sports[0].Name)
	assert.Equal(t, "Boxing-MMA-Wrassling", sports[1].Name)
}

func TestListSports_UsesCacheOnSecondCall(t *testing.T) {
	source := &fakeSource{sports: []types.Sport{{ID: "soccer", Name: "Soccer"}}}
	c := newTestCatalog(t, source)

	_, err := c.ListSports(context.Background())
	require.NoError(t, err)
	_, err = c.ListSports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, source.sportsCalls)
}

func TestListSports_StaleFallbackWhenUpstreamDown(t *testing.T) {
	source := &fakeSource{sports: []types.Sport{{ID: "soccer", Name: "Soccer"}}}
	c := newTestCatalog(t, source)

	_, err := c.ListSports(context.Background())
	require.NoError(t, err)

	// Expire the cached list, then kill upstream.
	require.NoError(t, c.store.Set(cache.KeySports, source.sports, -1))
	source.sportsErr = errors.New("all api servers failed")

	sports, err := c.ListSports(context.Background())
	require.NoError(t, err, "stale cache should mask the fetch failure")
	require.Len(t, sports, 1)
	assert.Equal(t, "Soccer", sports[0].Name)
}

func TestListSports_ErrorWhenNoCacheAndUpstreamDown(t *testing.T) {
	source := &fakeSource{sportsErr: errors.New("unreachable")}
	c := newTestCatalog(t, source)

	_, err := c.ListSports(context.Background())
	require.Error(t, err)
}

func TestFindMatch_PrefersHintedSport(t *testing.T) {
	snap := &types.Snapshot{Sports: []types.Sport{
		{ID: "s1", Name: "Soccer", Matches: []types.Match{{ID: "m1", Title: "Soccer M1"}}},
		{ID: "s2", Name: "Ice-Hockey", Matches: []types.Match{{ID: "m1", Title: "Hockey M1"}}},
	}}
	c := newTestCatalog(t, &fakeSource{})

	m := c.FindMatch(snap, "m1", "ice hockey")
	require.NotNil(t, m)
	assert.Equal(t, "Hockey M1", m.Title, "normalized hint must win over snapshot order")

	m = c.FindMatch(snap, "m1", "")
	require.NotNil(t, m)
	assert.Equal(t, "Soccer M1", m.Title)

	assert.Nil(t, c.FindMatch(snap, "missing", ""))
}

func TestFindMatch_FightAliasHint(t *testing.T) {
	snap := &types.Snapshot{Sports: []types.Sport{
		{ID: "s1", Name: "Soccer", Matches: []types.Match{{ID: "m9", Title: "Wrong"}}},
		{ID: "fight", Name: "Fighting", Matches: []types.Match{{ID: "m9", Title: "Main Event"}}},
	}}
	c := newTestCatalog(t, &fakeSource{})

	m := c.FindMatch(snap, "m9", "Boxing-MMA-Wrassling")
	require.NotNil(t, m)
	assert.Equal(t, "Main Event", m.Title)
}

func TestSportMatches_OtherAggregation(t *testing.T) {
	snap := &types.Snapshot{Sports: []types.Sport{
		{ID: "darts", Name: "Darts", GroupToOther: true, Matches: []types.Match{{ID: "a", Title: "Match A"}}},
		{ID: "snooker", Name: "Snooker", GroupToOther: true, Matches: []types.Match{{ID: "b", Title: "[Snooker] Match B"}}},
		{ID: "other", Name: "Other", Matches: []types.Match{{ID: "c", Title: "Match C"}}},
		{ID: "soccer", Name: "Soccer", Matches: []types.Match{{ID: "d", Title: "Match D"}}},
	}}
	c := newTestCatalog(t, &fakeSource{})

	matches := c.SportMatches(snap, "other", "")
	require.Len(t, matches, 3)

	byID := map[string]types.DisplayMatch{}
	for _, m := range matches {
		byID[string(m.ID)] = m
	}

	assert.Equal(t, "[Darts] Match A", byID["a"].Title)
	assert.Equal(t, "[Snooker] Match B", byID["b"].Title, "existing prefix must not double up")
	assert.Equal(t, "Match C", byID["c"].Title, "literal Other sport keeps plain titles")
	assert.Equal(t, "Darts", byID["a"].SportName)
}

func TestSportMatches_RawSnapshotNotMutated(t *testing.T) {
	snap := &types.Snapshot{Sports: []types.Sport{
		{ID: "darts", Name: "Darts", GroupToOther: true, Matches: []types.Match{{ID: "a", Title: "Match A"}}},
	}}
	c := newTestCatalog(t, &fakeSource{})

	_ = c.SportMatches(snap, "other", "")
	assert.Equal(t, "Match A", snap.Sports[0].Matches[0].Title)
}

func TestSportMatches_LookupOrder(t *testing.T) {
	snap := &types.Snapshot{Sports: []types.Sport{
		{ID: "s1", Name: "Soccer", Matches: []types.Match{{ID: "m1"}}},
		{ID: "fight", Name: "Fighting", Matches: []types.Match{{ID: "m2"}}},
	}}
	c := newTestCatalog(t, &fakeSource{})

	assert.Len(t, c.SportMatches(snap, "s1", ""), 1)
	assert.Len(t, c.SportMatches(snap, "", "soccer"), 1)
	assert.Len(t, c.SportMatches(snap, "", "Boxing-MMA-Wrassling"), 1)
	assert.Empty(t, c.SportMatches(snap, "nope", "nope"))

	byAlias := c.SportMatches(snap, "", "Boxing-MMA-Wrassling")
	assert.Equal(t, "Boxing-MMA-Wrassling", byAlias[0].SportName)
}

func TestFilterAndSort_BucketsAndOrder(t *testing.T) {
	c := newTestCatalog(t, &fakeSource{})

	matches := []types.DisplayMatch{
		{Match: types.Match{ID: "up2", StartTime: ts(2 * time.Hour), HasPlayableSource: true}, SportName: "Soccer"},
		{Match: types.Match{ID: "old", StartTime: ts(-30 * time.Minute), HasPlayableSource: true}, SportName: "Soccer"},
		{Match: types.Match{ID: "up1", StartTime: ts(1 * time.Hour), HasPlayableSource: true}, SportName: "Soccer"},
		{Match: types.Match{ID: "new", StartTime: ts(-5 * time.Minute), HasPlayableSource: true}, SportName: "Soccer"},
	}

	got := c.FilterAndSort(matches, false)
	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = string(m.ID)
	}
	// Started newest-first, then upcoming soonest-first, never interleaved.
	assert.Equal(t, []string{"new", "old", "up1", "up2"}, ids)
}

func TestFilterAndSort_DropsEndedMatches(t *testing.T) {
	c := newTestCatalog(t, &fakeSource{})

	matches := []types.DisplayMatch{
		{Match: types.Match{ID: "ended", StartTime: ts(-5 * time.Hour), HasPlayableSource: true}, SportName: "Soccer"},
		{Match: types.Match{ID: "always", StartTime: 0, HasPlayableSource: true}, SportName: "Soccer"},
		{Match: types.Match{ID: "fight", StartTime: ts(-5 * time.Hour), HasPlayableSource: true}, SportName: "UFC"},
	}

	got := c.FilterAndSort(matches, false)
	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = string(m.ID)
	}
	// Soccer cutoff is 3h; the fight window is 6h; start 0 is exempt.
	assert.ElementsMatch(t, []string{"always", "fight"}, ids)
}

func TestFilterAndSort_GraceAndShowAll(t *testing.T) {
	c := newTestCatalog(t, &fakeSource{})

	matches := []types.DisplayMatch{
		{Match: types.Match{ID: "nosource-grace", StartTime: ts(-2 * time.Minute)}, SportName: "Soccer"},
		{Match: types.Match{ID: "nosource-old", StartTime: ts(-30 * time.Minute)}, SportName: "Soccer"},
	}

	got := c.FilterAndSort(matches, false)
	require.Len(t, got, 1)
	assert.Equal(t, "nosource-grace", string(got[0].ID))

	got = c.FilterAndSort(matches, true)
	assert.Len(t, got, 2)
}

func TestLiveMatches(t *testing.T) {
	snap := &types.Snapshot{Sports: []types.Sport{
		{ID: "soccer", Name: "Soccer", Matches: []types.Match{
			{ID: "live", StartTime: ts(-1 * time.Hour), HasPlayableSource: true},
			{ID: "done", StartTime: ts(-6 * time.Hour), HasPlayableSource: true},
			{ID: "silent", StartTime: ts(-1 * time.Hour)},
		}},
		{ID: "fight", Name: "Fighting", Matches: []types.Match{
			{ID: "always", StartTime: 0, HasPlayableSource: true},
		}},
	}}
	c := newTestCatalog(t, &fakeSource{})

	got := c.LiveMatches(snap, false)
	require.Len(t, got, 2)
	assert.Equal(t, "live", string(got[0].ID))
	assert.Equal(t, "always", string(got[1].ID))
	assert.Equal(t, "Boxing-MMA-Wrassling", got[1].SportName)

	got = c.LiveMatches(snap, true)
	assert.Len(t, got, 3)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Ice-Hockey ", "ice hockey"},
		{"boxing_mma", "boxing mma"},
		{"Soccer", "soccer"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in))
	}
}
