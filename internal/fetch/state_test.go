package fetch

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fpl-planner-mcp/internal/store"
)

// fakeAPI serves a bootstrap plus per-gameweek picks responses and
// counts hits per path.
type fakeAPI struct {
	bootstrap string
	picks     map[string]string // "teamID/gw" -> body
	hits      map[string]int
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bootstrap-static/", func(w http.ResponseWriter, r *http.Request) {
		f.hits["bootstrap"]++
		fmt.Fprint(w, f.bootstrap)
	})
	mux.HandleFunc("/entry/", func(w http.ResponseWriter, r *http.Request) {
		var teamID, gw int
		if _, err := fmt.Sscanf(r.URL.Path, "/entry/%d/event/%d/picks/", &teamID, &gw); err != nil {
			http.NotFound(w, r)
			return
		}
		key := fmt.Sprintf("%d/%d", teamID, gw)
		f.hits[key]++
		body, ok := f.picks[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI) (*Client, *httptest.Server) {
	t.Helper()
	if api.hits == nil {
		api.hits = make(map[string]int)
	}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c := NewClient(store.NewJSONStore(t.TempDir()))
	c.BaseURL = srv.URL
	c.Sleep = 0
	return c, srv
}

func picksBody(transfers, bank int, chip string) string {
	chipJSON := "null"
	if chip != "" {
		chipJSON = fmt.Sprintf("%q", chip)
	}
	return fmt.Sprintf(`{
		"picks": [{"element": 11, "position": 1}, {"element": 22, "position": 2}],
		"active_chip": %s,
		"entry_history": {"bank": %d, "event_transfers": %d}
	}`, chipJSON, bank, transfers)
}

func TestNextGameweek(t *testing.T) {
	api := &fakeAPI{bootstrap: `{"events": [
		{"id": 1, "finished": true},
		{"id": 2, "finished": true},
		{"id": 3, "finished": false}
	]}`}
	c, _ := newTestClient(t, api)

	gw, err := c.NextGameweek(false)
	if err != nil {
		t.Fatalf("NextGameweek: %v", err)
	}
	if gw != 3 {
		t.Errorf("NextGameweek = %d, want 3", gw)
	}

	// Second call is served from the cache.
	if _, err := c.NextGameweek(false); err != nil {
		t.Fatalf("NextGameweek (cached): %v", err)
	}
	if api.hits["bootstrap"] != 1 {
		t.Errorf("bootstrap fetched %d times, want 1", api.hits["bootstrap"])
	}
}

func TestLiveClientSkipsCache(t *testing.T) {
	api := &fakeAPI{bootstrap: `{"events": [{"id": 5, "finished": false}]}`}
	c, _ := newTestClient(t, api)
	c.Live()

	for i := 0; i < 2; i++ {
		if _, err := c.NextGameweek(false); err != nil {
			t.Fatalf("NextGameweek: %v", err)
		}
	}
	if api.hits["bootstrap"] != 2 {
		t.Errorf("bootstrap fetched %d times, want 2 (cache disabled)", api.hits["bootstrap"])
	}
	if c.Store.Exists("bootstrap/bootstrap-static.json") {
		t.Error("live client wrote to the raw store")
	}
}

func TestNextGameweekSeasonOver(t *testing.T) {
	api := &fakeAPI{bootstrap: `{"events": [{"id": 38, "finished": true}]}`}
	c, _ := newTestClient(t, api)

	if _, err := c.NextGameweek(false); err == nil {
		t.Error("NextGameweek with all weeks finished: want error")
	}
}

func TestEntryState(t *testing.T) {
	api := &fakeAPI{picks: map[string]string{
		"42/10": picksBody(1, 23, ""),
	}}
	c, _ := newTestClient(t, api)

	squad, bank, err := c.EntryState(42, 10)
	if err != nil {
		t.Fatalf("EntryState: %v", err)
	}
	if len(squad) != 2 || squad[0] != 11 || squad[1] != 22 {
		t.Errorf("squad = %v", squad)
	}
	// The API quotes tenths of a million.
	if bank != 2.3 {
		t.Errorf("bank = %v, want 2.3", bank)
	}
}

func TestTransferStateRollsUnusedTransfer(t *testing.T) {
	// GW 8 made no transfer, GW 9 made one: a transfer rolls into GW 10
	// and the walk stops at the 2-transfer week 7.
	api := &fakeAPI{picks: map[string]string{
		"42/7": picksBody(2, 0, ""),
		"42/8": picksBody(0, 0, ""),
		"42/9": picksBody(1, 0, ""),
	}}
	c, _ := newTestClient(t, api)

	rolling, last, err := c.TransferState(42, 9)
	if err != nil {
		t.Fatalf("TransferState: %v", err)
	}
	if rolling != 1 {
		t.Errorf("rolling = %d, want 1", rolling)
	}
	if last != 1 {
		t.Errorf("lastTransfers = %d, want 1", last)
	}
}

func TestTransferStateStopsAtWildcard(t *testing.T) {
	// The wildcard week resets the walk even with a single transfer.
	api := &fakeAPI{picks: map[string]string{
		"42/8": picksBody(1, 0, "wildcard"),
		"42/9": picksBody(1, 0, ""),
	}}
	c, _ := newTestClient(t, api)

	rolling, last, err := c.TransferState(42, 9)
	if err != nil {
		t.Fatalf("TransferState: %v", err)
	}
	if rolling != 0 {
		t.Errorf("rolling = %d, want 0", rolling)
	}
	if last != 1 {
		t.Errorf("lastTransfers = %d, want 1", last)
	}
}

func TestTransferStateIgnoresPointChips(t *testing.T) {
	// Bench boost and triple captain do not touch the squad, so the
	// walk continues through them.
	api := &fakeAPI{picks: map[string]string{
		"42/7": picksBody(3, 0, ""),
		"42/8": picksBody(0, 0, "bboost"),
		"42/9": picksBody(0, 0, "3xc"),
	}}
	c, _ := newTestClient(t, api)

	rolling, _, err := c.TransferState(42, 9)
	if err != nil {
		t.Fatalf("TransferState: %v", err)
	}
	if rolling != 1 {
		t.Errorf("rolling = %d, want 1", rolling)
	}
}

func TestTransferStateBeforeSeasonStart(t *testing.T) {
	// Planning gameweek 1 anchors at gameweek 0, which has no picks
	// history to replay.
	c, _ := newTestClient(t, &fakeAPI{})

	if _, _, err := c.TransferState(42, 0); err == nil {
		t.Error("TransferState(42, 0): want error, got nil")
	}
	if _, _, err := c.TransferState(42, -1); err == nil {
		t.Error("TransferState(42, -1): want error, got nil")
	}
}

func TestChipState(t *testing.T) {
	api := &fakeAPI{picks: map[string]string{
		"42/1": picksBody(0, 0, ""),
		"42/2": picksBody(1, 0, "wildcard"),
		"42/3": picksBody(0, 0, "bboost"),
		"42/4": picksBody(0, 0, ""),
	}}
	c, _ := newTestClient(t, api)

	rec, err := c.ChipState(42, 4)
	if err != nil {
		t.Fatalf("ChipState: %v", err)
	}
	if rec.Wildcard != 2 {
		t.Errorf("Wildcard = %d, want 2", rec.Wildcard)
	}
	if rec.BenchBoost != 3 {
		t.Errorf("BenchBoost = %d, want 3", rec.BenchBoost)
	}
	if rec.FreeHit != 0 || rec.TripleCaptain != 0 {
		t.Errorf("unexpected chips: %+v", rec)
	}
}

func TestManagerState(t *testing.T) {
	api := &fakeAPI{picks: map[string]string{
		"42/1": picksBody(2, 0, ""),
		"42/2": picksBody(1, 15, ""),
	}}
	c, _ := newTestClient(t, api)

	ms, err := c.ManagerState(42, 2)
	if err != nil {
		t.Fatalf("ManagerState: %v", err)
	}
	if len(ms.Squad) != 2 {
		t.Errorf("squad = %v", ms.Squad)
	}
	if ms.Bank != 1.5 {
		t.Errorf("bank = %v, want 1.5", ms.Bank)
	}
	if ms.LastTransfers != 1 {
		t.Errorf("lastTransfers = %d, want 1", ms.LastTransfers)
	}

	// The picks responses were cached; each gameweek hits once.
	for _, key := range []string{"42/1", "42/2"} {
		if api.hits[key] != 1 {
			t.Errorf("picks %s fetched %d times, want 1", key, api.hits[key])
		}
	}
}
