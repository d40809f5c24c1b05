package guide

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportguide-go/pkg/cache"
	"sportguide-go/pkg/logging"
	"sportguide-go/pkg/types"
)

func newTestHandlers(t *testing.T, source *fakeSource, res *fakeResolver) (*Handlers, *cache.Store) {
	t.Helper()
	log := logging.New("error", false, nil)
	store, err := cache.New(t.TempDir(), log)
	require.NoError(t, err)
	s := newTestService(t, source, res)
	return NewHandlers(s, store, 48*time.Hour, log), store
}

func serveGuide(t *testing.T, h *Handlers, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeDirectory(t *testing.T, rec *httptest.ResponseRecorder) DirectoryResponse {
	t.Helper()
	var resp DirectoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleGuide_MainMenu(t *testing.T) {
	source := &fakeSource{sports: []types.Sport{{ID: "soccer", Name: "Soccer"}}}
	h, _ := newTestHandlers(t, source, &fakeResolver{})

	rec := serveGuide(t, h, "/guide")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))

	resp := decodeDirectory(t, rec)
	require.Len(t, resp.Entries, 2)
	assert.Nil(t, resp.Notice)
}

func TestHandleGuide_OutageBecomesDialog(t *testing.T) {
	source := &fakeSource{sportsErr: errors.New("all api servers failed")}
	h, _ := newTestHandlers(t, source, &fakeResolver{})

	rec := serveGuide(t, h, "/guide")
	require.Equal(t, http.StatusOK, rec.Code, "failures never surface as error statuses")

	resp := decodeDirectory(t, rec)
	assert.Empty(t, resp.Entries)
	require.NotNil(t, resp.Notice)
	assert.Equal(t, "dialog", resp.Notice.Type)
	assert.Contains(t, resp.Notice.Message, "Could not connect to any server")
}

func TestHandleGuide_StreamsMissingMatchNotifies(t *testing.T) {
	source := &fakeSource{snapshot: &types.Snapshot{}}
	h, _ := newTestHandlers(t, source, &fakeResolver{})

	rec := serveGuide(t, h, "/guide?mode=streams&match_id=ghost")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeDirectory(t, rec)
	assert.Empty(t, resp.Entries)
	require.NotNil(t, resp.Notice)
	assert.Equal(t, "notification", resp.Notice.Type)
}

func TestHandleGuide_PlayWebOnlyDialog(t *testing.T) {
	h, _ := newTestHandlers(t, &fakeSource{}, &fakeResolver{})

	rec := serveGuide(t, h, "/guide?mode=play&url=http://embed/only&playable=false")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PlayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.State)
	require.NotNil(t, resp.Notice)
	assert.Contains(t, resp.Notice.Message, "embedded web player")
}

func TestHandleGuide_AutoPlaySuccess(t *testing.T) {
	source := &fakeSource{snapshot: fightSnapshot()}
	h, _ := newTestHandlers(t, source, &fakeResolver{})

	rec := serveGuide(t, h, "/guide?mode=auto_play&match_id=m1&sport_name=Boxing-MMA-Wrassling")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PlayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatePlaying, resp.State)
	assert.NotNil(t, resp.Stream)
}

func TestHandleGuide_ClearCache(t *testing.T) {
	h, store := newTestHandlers(t, &fakeSource{}, &fakeResolver{})
	require.NoError(t, store.Set("sports_list", []string{"x"}, 1))

	rec := serveGuide(t, h, "/guide?mode=clear_full_cache")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeDirectory(t, rec)
	assert.True(t, resp.Refresh)
	require.NotNil(t, resp.Notice)
	assert.Equal(t, "Cache Cleared Successfully", resp.Notice.Message)

	var out []string
	assert.False(t, store.Get("sports_list", &out), "clear removes every cached entry")
}

func TestHandleGuide_UnknownModeIsEmpty(t *testing.T) {
	h, _ := newTestHandlers(t, &fakeSource{}, &fakeResolver{})

	rec := serveGuide(t, h, "/guide?mode=bogus")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeDirectory(t, rec)
	assert.Empty(t, resp.Entries)
}

func TestHandleCleanup(t *testing.T) {
	h, _ := newTestHandlers(t, &fakeSource{}, &fakeResolver{})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/maintenance/cleanup", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
