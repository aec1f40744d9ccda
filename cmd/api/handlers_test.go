package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pefman/omega-duel/internal/config"
	"github.com/pefman/omega-duel/internal/engine"
	"github.com/pefman/omega-duel/internal/game"
	"github.com/pefman/omega-duel/internal/models"
	"github.com/pefman/omega-duel/internal/stats"
)

var fightDay = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, catalog game.ShipRoster) (*httptest.Server, *server) {
	t.Helper()
	matches, err := newMatchLog(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mem := stats.NewMemory()
	daily := stats.NewDaily()
	svc := game.NewService(game.Options{
		Owner:    "owner",
		Catalog:  catalog,
		Defences: mem,
		Ledger:   mem,
		Events:   game.Sinks{matches, daily},
		Seeds:    game.SeedFunc(func(...string) uint64 { return 1337 }),
		Logger:   zap.NewNop(),
		Now:      func() time.Time { return fightDay },
	})
	s := &server{svc: svc, archive: archives{matches}, matches: matches, daily: daily, log: zap.NewNop()}
	ts := httptest.NewServer(withCORS(s.routes()))
	t.Cleanup(ts.Close)
	return ts, s
}

func call(t *testing.T, ts *httptest.Server, method, path, acct string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if acct != "" {
		req.Header.Set(models.AccountHeader, acct)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

var (
	tenEach  = engine.Fleet{Selection: engine.Selection{10, 10, 10, 10}, Variants: engine.Variants{0, 1, 2, 0}}
	fiveEach = engine.Fleet{Selection: engine.Selection{5, 5, 5, 5}, Variants: engine.Variants{1, 0, 1, 2}, Commander: 1}
)

func TestFightEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, game.DefaultCatalog())

	var replay game.Replay
	code := call(t, ts, http.MethodPost, "/api/fight", "", models.FightRequest{Seed: 1337, Lhs: tenEach, Rhs: fiveEach}, &replay)
	if code != http.StatusOK {
		t.Fatalf("POST /api/fight = %d", code)
	}
	if !replay.Result.RhsDead || replay.Result.Rounds != 12 || len(replay.MovesLhs) != 48 || len(replay.MovesRhs) != 19 {
		t.Errorf("replay = %+v (%d, %d moves)", replay.Result, len(replay.MovesLhs), len(replay.MovesRhs))
	}

	var result engine.FightResult
	code = call(t, ts, http.MethodPost, "/api/fight/result", "", models.FightRequest{Seed: 1337, Lhs: tenEach, Rhs: fiveEach}, &result)
	if code != http.StatusOK || result != replay.Result {
		t.Errorf("POST /api/fight/result = %d, %+v", code, result)
	}

	bad := models.FightRequest{Lhs: engine.Fleet{Variants: engine.Variants{3}}}
	if code := call(t, ts, http.MethodPost, "/api/fight", "", bad, nil); code != http.StatusBadRequest {
		t.Errorf("invalid variant = %d, expected 400", code)
	}
	if code := call(t, ts, http.MethodPost, "/api/fight", "", "not a fight", nil); code != http.StatusBadRequest {
		t.Errorf("malformed body = %d, expected 400", code)
	}
	if code := call(t, ts, http.MethodGet, "/api/fight", "", nil, nil); code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/fight = %d, expected 405", code)
	}
}

func TestWrongMethodAndUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t, game.DefaultCatalog())

	tests := []struct {
		method, path string
		expected     int
	}{
		{http.MethodGet, "/api/fight", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/ships", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/ranked/attack", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/ranked/alice/win", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/ranked/alice/draw", http.StatusNotFound},
		{http.MethodGet, "/api/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if code := call(t, ts, tt.method, tt.path, "", nil, nil); code != tt.expected {
				t.Errorf("%s %s = %d, expected %d", tt.method, tt.path, code, tt.expected)
			}
		})
	}
}

func TestShipEndpoints(t *testing.T) {
	cat, _ := game.NewCatalog(game.DefaultShips()[:3]...)
	ts, _ := newTestServer(t, cat)

	if code := call(t, ts, http.MethodPost, "/api/fight", "", models.FightRequest{}, nil); code != http.StatusServiceUnavailable {
		t.Errorf("fight with incomplete catalog = %d, expected 503", code)
	}

	lum := game.DefaultShips()[3]
	if code := call(t, ts, http.MethodPost, "/api/ships", "", lum, nil); code != http.StatusUnauthorized {
		t.Errorf("add ship without account = %d, expected 401", code)
	}
	if code := call(t, ts, http.MethodPost, "/api/ships", "mallory", lum, nil); code != http.StatusForbidden {
		t.Errorf("add ship as stranger = %d, expected 403", code)
	}
	var ships []game.NamedShip
	if code := call(t, ts, http.MethodPost, "/api/ships", "owner", lum, &ships); code != http.StatusCreated {
		t.Fatalf("add ship as owner = %d, expected 201", code)
	}
	if len(ships) != 4 || ships[3].Name != "Luminaris" || ships[3].Range != 30 {
		t.Errorf("ships = %+v", ships)
	}
	if code := call(t, ts, http.MethodPost, "/api/ships", "owner", lum, nil); code != http.StatusConflict {
		t.Errorf("fifth ship = %d, expected 409", code)
	}
	zero := game.NamedShip{Name: "Brick", ShipType: engine.ShipType{HP: 10}}
	cat2, _ := game.NewCatalog()
	ts2, _ := newTestServer(t, cat2)
	if code := call(t, ts2, http.MethodPost, "/api/ships", "owner", zero, nil); code != http.StatusBadRequest {
		t.Errorf("ship with zero attack variable = %d, expected 400", code)
	}
}

func TestRankedFlow(t *testing.T) {
	ts, s := newTestServer(t, game.DefaultCatalog())

	if code := call(t, ts, http.MethodGet, "/api/ranked/defence", "alice", nil, nil); code != http.StatusNotFound {
		t.Errorf("defence before registering = %d, expected 404", code)
	}
	for _, reg := range []struct {
		player string
		req    models.DefenceRequest
	}{
		{"alice", models.DefenceRequest{Name: "Alice", Fleet: tenEach}},
		{"bob", models.DefenceRequest{Name: "Bob", Fleet: fiveEach}},
	} {
		var d game.Defence
		if code := call(t, ts, http.MethodPut, "/api/ranked/defence", reg.player, reg.req, &d); code != http.StatusOK {
			t.Fatalf("register %s = %d", reg.player, code)
		}
		if d.Player != reg.player || d.Fleet != reg.req.Fleet {
			t.Errorf("registered defence = %+v", d)
		}
	}

	if code := call(t, ts, http.MethodPost, "/api/ranked/attack", "alice", models.AttackRequest{Target: "alice", Fleet: tenEach}, nil); code != http.StatusBadRequest {
		t.Errorf("self attack = %d, expected 400", code)
	}
	if code := call(t, ts, http.MethodPost, "/api/ranked/attack", "alice", models.AttackRequest{Target: "zed", Fleet: tenEach}, nil); code != http.StatusNotFound {
		t.Errorf("attack on unknown target = %d, expected 404", code)
	}

	var fight game.RankedFight
	if code := call(t, ts, http.MethodPost, "/api/ranked/attack", "alice", models.AttackRequest{Target: "bob", Fleet: tenEach}, &fight); code != http.StatusOK {
		t.Fatalf("attack = %d", code)
	}
	if !fight.Result.RhsDead || fight.ID == "" {
		t.Errorf("fight = %+v", fight)
	}

	var board []game.LeaderboardEntry
	call(t, ts, http.MethodGet, "/api/ranked/leaderboard", "", nil, &board)
	if len(board) != 2 || board[0].Player != "alice" || board[0].Wins != 1 || board[1].Losses != 1 {
		t.Errorf("leaderboard = %+v", board)
	}

	var events []game.RankedFight
	call(t, ts, http.MethodGet, "/api/ranked/events?limit=5", "", nil, &events)
	if len(events) != 1 || events[0].ID != fight.ID {
		t.Errorf("events = %+v", events)
	}
	if code := call(t, ts, http.MethodGet, "/api/ranked/events?limit=zero", "", nil, nil); code != http.StatusBadRequest {
		t.Errorf("bad limit = %d, expected 400", code)
	}

	var match models.Match
	if code := call(t, ts, http.MethodGet, "/api/match/"+fight.ID, "", nil, &match); code != http.StatusOK {
		t.Fatalf("match = %d", code)
	}
	if match.Result != fight.Result || len(match.MovesLhs) != 48 || match.Attacker != "alice" {
		t.Errorf("match = %+v", match)
	}
	if code := call(t, ts, http.MethodGet, "/api/match/nope", "", nil, nil); code != http.StatusNotFound {
		t.Errorf("unknown match = %d, expected 404", code)
	}

	var cs models.CommandersResponse
	call(t, ts, http.MethodGet, "/api/commanders/alice", "", nil, &cs)
	if len(cs.Commanders) != 1 || cs.Commanders[0].XP != game.XPPerRankedWin {
		t.Errorf("commanders = %+v", cs)
	}

	var day map[string]any
	call(t, ts, http.MethodGet, "/api/stats/daily?date=2026-10-17", "", nil, &day)
	if day["fights"] != float64(1) {
		t.Errorf("daily = %+v", day)
	}
	if s.daily.Day("2026-10-17").Top.ID != fight.ID {
		t.Errorf("daily top is not the fight")
	}
}

func TestMarkAndLoot(t *testing.T) {
	ts, _ := newTestServer(t, game.DefaultCatalog())

	if code := call(t, ts, http.MethodPost, "/api/ranked/alice/win", "alice", nil, nil); code != http.StatusForbidden {
		t.Errorf("self mark = %d, expected 403", code)
	}
	if code := call(t, ts, http.MethodPost, "/api/ranked/alice/win", "owner", nil, nil); code != http.StatusNotFound {
		t.Errorf("mark without defence = %d, expected 404", code)
	}
	if code := call(t, ts, http.MethodPut, "/api/ranked/defence", "alice", models.DefenceRequest{}, nil); code != http.StatusOK {
		t.Fatalf("register alice = %d", code)
	}
	if code := call(t, ts, http.MethodPost, "/api/ranked/alice/win", "owner", nil, nil); code != http.StatusNoContent {
		t.Errorf("owner mark win = %d, expected 204", code)
	}
	if code := call(t, ts, http.MethodPost, "/api/ranked/alice/loss", "owner", nil, nil); code != http.StatusNoContent {
		t.Errorf("owner mark loss = %d, expected 204", code)
	}
	if code := call(t, ts, http.MethodPost, "/api/ranked/alice/draw", "owner", nil, nil); code != http.StatusNotFound {
		t.Errorf("unknown outcome = %d, expected 404", code)
	}

	if code := call(t, ts, http.MethodPost, "/api/loot/alice", "bob", nil, nil); code != http.StatusForbidden {
		t.Errorf("loot for someone else = %d, expected 403", code)
	}
	var loot models.LootResponse
	if code := call(t, ts, http.MethodPost, "/api/loot/alice", "alice", nil, &loot); code != http.StatusOK {
		t.Fatalf("loot = %d", code)
	}
	// seed 1337 rolls 37
	if loot.Commander != 0 || loot.XP != game.XPPerLootCrate {
		t.Errorf("loot = %+v", loot)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, game.DefaultCatalog())
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/ranked/attack", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", resp.StatusCode, resp.Header)
	}
}

func TestMatchLogPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	first, err := newMatchLog(dir)
	if err != nil {
		t.Fatal(err)
	}
	fight := game.RankedFight{ID: "4f1c2f0e-aaaa", Attacker: "alice", Defender: "bob", At: fightDay}
	if err := first.Publish(ctx, fight); err != nil {
		t.Fatal(err)
	}

	second, _ := newMatchLog(dir)
	got, err := second.Fight(ctx, fight.ID)
	if err != nil {
		t.Fatalf("Fight after reload: %v", err)
	}
	if got.Attacker != "alice" || !got.At.Equal(fightDay) {
		t.Errorf("reloaded = %+v", got)
	}
	if _, err := second.Fight(ctx, "4f1c2f0e/aaaa"); err == nil {
		t.Errorf("colliding sanitized id should not resolve")
	}
}

func TestNewServerMemoryAndSQLite(t *testing.T) {
	for _, kind := range []string{config.StoreMemory, config.StoreSQLite} {
		t.Run(kind, func(t *testing.T) {
			cfg := config.Config{Store: kind, SQLitePath: filepath.Join(t.TempDir(), "omega.db"), Owner: "owner"}
			s, closer, err := newServer(context.Background(), cfg, zap.NewNop())
			if err != nil {
				t.Fatalf("newServer: %v", err)
			}
			defer closer()
			if len(s.svc.Ships()) != 4 {
				t.Errorf("ships = %d, expected the stock roster", len(s.svc.Ships()))
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{game.ErrInvalidVariant, 400},
		{errMissingAccount, 401},
		{game.ErrNotOwner, 403},
		{game.ErrNoDefence, 404},
		{game.ErrCatalogFull, 409},
		{game.ErrCatalogIncomplete, 503},
		{context.Canceled, 500},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, expected %d", tt.err, got, tt.want)
		}
	}
}
