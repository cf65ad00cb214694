package rpc_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/events"
	"github.com/pathfortune/fortunechain/indexer"
	"github.com/pathfortune/fortunechain/internal/testutil"
	"github.com/pathfortune/fortunechain/rpc"
	"github.com/pathfortune/fortunechain/storage"
	"github.com/pathfortune/fortunechain/wallet"
)

const chainID = "fortune-test"

func newHandler(t *testing.T) (*rpc.Handler, *storage.StateDB, *core.Mempool) {
	t.Helper()
	state := testutil.NewStateDB()
	bc := core.NewBlockchain(testutil.NewMemBlockStore())
	if err := bc.Init(); err != nil {
		t.Fatal(err)
	}
	mempool := core.NewMempool()
	idx := indexer.New(testutil.NewMemDB(), events.NewEmitter())
	// The handler reads through the committed view, like the node wires it.
	return rpc.NewHandler(bc, mempool, state.CommittedView(), idx, chainID), state, mempool
}

// seed writes entities and commits, making them visible to the handler.
func seed(t *testing.T, state *storage.StateDB, write func() error) {
	t.Helper()
	if err := write(); err != nil {
		t.Fatal(err)
	}
	if err := state.Commit(); err != nil {
		t.Fatal(err)
	}
}

func call(t *testing.T, h *rpc.Handler, method string, params any) rpc.Response {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			t.Fatal(err)
		}
		raw = b
	}
	return h.Dispatch(rpc.Request{JSONRPC: "2.0", ID: 1, Method: method, Params: raw})
}

func TestGetTournamentConstants(t *testing.T) {
	h, _, _ := newHandler(t)

	resp := call(t, h, "getTournamentConstants", nil)
	if resp.Error != nil {
		t.Fatalf("error: %+v", resp.Error)
	}
	b, _ := json.Marshal(resp.Result)
	var c struct {
		MinEntryPrice uint64 `json:"min_entry_price"`
		WinnersPct    uint64 `json:"winners_pct"`
		TreasuryPct   uint64 `json:"treasury_pct"`
		BurnPct       uint64 `json:"burn_pct"`
	}
	if err := json.Unmarshal(b, &c); err != nil {
		t.Fatal(err)
	}
	if c.MinEntryPrice != 1_000_000 {
		t.Errorf("min entry price: got %d", c.MinEntryPrice)
	}
	if c.WinnersPct != 80 || c.TreasuryPct != 10 || c.BurnPct != 10 {
		t.Errorf("split: %d/%d/%d", c.WinnersPct, c.TreasuryPct, c.BurnPct)
	}
}

func TestGetContractStatsFreshChain(t *testing.T) {
	h, _, _ := newHandler(t)

	resp := call(t, h, "getContractStats", nil)
	if resp.Error != nil {
		t.Fatalf("error: %+v", resp.Error)
	}
	stats, ok := resp.Result.(*core.ContractStats)
	if !ok {
		t.Fatalf("result type: %T", resp.Result)
	}
	if stats.NextTournamentID != 1 {
		t.Errorf("next id on fresh chain: got %d want 1", stats.NextTournamentID)
	}
}

func TestGetTournamentNotFound(t *testing.T) {
	h, _, _ := newHandler(t)

	resp := call(t, h, "getTournament", map[string]any{"id": 99})
	if resp.Error == nil || resp.Error.Code != rpc.CodeNotFound {
		t.Fatalf("want CodeNotFound, got %+v", resp.Error)
	}
}

func TestGetTournamentAndParticipant(t *testing.T) {
	h, state, _ := newHandler(t)

	seed(t, state, func() error {
		if err := state.SetTournament(&core.Tournament{ID: 3, Creator: "alice", Status: core.StatusPending, CurrentPool: 5_000_000}); err != nil {
			return err
		}
		return state.SetParticipant(&core.Participant{TournamentID: 3, Address: "bob", EntryAmount: 2_000_000})
	})

	resp := call(t, h, "getTournament", map[string]any{"id": 3})
	if resp.Error != nil {
		t.Fatalf("getTournament: %+v", resp.Error)
	}
	trn := resp.Result.(*core.Tournament)
	if trn.Creator != "alice" || trn.CurrentPool != 5_000_000 {
		t.Errorf("tournament: %+v", trn)
	}

	resp = call(t, h, "getParticipant", map[string]any{"id": 3, "address": "bob"})
	if resp.Error != nil {
		t.Fatalf("getParticipant: %+v", resp.Error)
	}
	part := resp.Result.(*core.Participant)
	if part.EntryAmount != 2_000_000 {
		t.Errorf("participant: %+v", part)
	}

	resp = call(t, h, "getParticipant", map[string]any{"id": 3, "address": "nobody"})
	if resp.Error == nil || resp.Error.Code != rpc.CodeNotFound {
		t.Errorf("missing participant: %+v", resp.Error)
	}
}

func TestGetPlayerStatsAndGameScore(t *testing.T) {
	h, state, _ := newHandler(t)

	seed(t, state, func() error {
		if err := state.SetPlayerStats(&core.PlayerStats{Address: "bob", TournamentsPlayed: 2, BestScore: 900}); err != nil {
			return err
		}
		return state.SetGameScore(&core.GameScore{TournamentID: 3, Player: "bob", Seq: 1, Score: 900})
	})

	resp := call(t, h, "getPlayerStats", map[string]any{"address": "bob"})
	if resp.Error != nil {
		t.Fatalf("getPlayerStats: %+v", resp.Error)
	}
	ps := resp.Result.(*core.PlayerStats)
	if ps.TournamentsPlayed != 2 || ps.BestScore != 900 {
		t.Errorf("player stats: %+v", ps)
	}

	resp = call(t, h, "getGameScore", map[string]any{"id": 3, "address": "bob", "seq": 1})
	if resp.Error != nil {
		t.Fatalf("getGameScore: %+v", resp.Error)
	}
	g := resp.Result.(*core.GameScore)
	if g.Score != 900 {
		t.Errorf("game score: %+v", g)
	}
}

func TestQueriesReadCommittedStateOnly(t *testing.T) {
	h, state, _ := newHandler(t)

	// A write buffered for an in-flight block is invisible to the query
	// surface until it commits.
	if err := state.SetTournament(&core.Tournament{ID: 7, Creator: "alice", Status: core.StatusPending}); err != nil {
		t.Fatal(err)
	}
	resp := call(t, h, "getTournament", map[string]any{"id": 7})
	if resp.Error == nil || resp.Error.Code != rpc.CodeNotFound {
		t.Fatalf("uncommitted write visible to queries: %+v", resp)
	}

	if err := state.Commit(); err != nil {
		t.Fatal(err)
	}
	resp = call(t, h, "getTournament", map[string]any{"id": 7})
	if resp.Error != nil {
		t.Fatalf("committed tournament not visible: %+v", resp.Error)
	}
	if trn := resp.Result.(*core.Tournament); trn.Creator != "alice" {
		t.Errorf("tournament: %+v", trn)
	}
}

func TestMethodNotFound(t *testing.T) {
	h, _, _ := newHandler(t)

	resp := call(t, h, "noSuchMethod", nil)
	if resp.Error == nil || resp.Error.Code != rpc.CodeMethodNotFound {
		t.Fatalf("want CodeMethodNotFound, got %+v", resp.Error)
	}
}

func TestSendTx(t *testing.T) {
	h, _, mempool := newHandler(t)

	w, _ := wallet.Generate()
	tx, err := w.Transfer(chainID, "dest", 100, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	resp := call(t, h, "sendTx", tx)
	if resp.Error != nil {
		t.Fatalf("sendTx: %+v", resp.Error)
	}
	if mempool.Size() != 1 {
		t.Errorf("mempool size: got %d want 1", mempool.Size())
	}
}

func TestSendTxChainIDMismatch(t *testing.T) {
	h, _, mempool := newHandler(t)

	w, _ := wallet.Generate()
	tx, _ := w.Transfer("other-net", "dest", 100, 0, 0)
	resp := call(t, h, "sendTx", tx)
	if resp.Error == nil || resp.Error.Code != rpc.CodeInvalidParams {
		t.Fatalf("want CodeInvalidParams, got %+v", resp.Error)
	}
	if mempool.Size() != 0 {
		t.Error("mismatched tx must not enter the mempool")
	}
}

func TestServerAuthToken(t *testing.T) {
	h, _, _ := newHandler(t)
	srv := rpc.NewServer("127.0.0.1:0", h, "secret")
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}
	defer srv.Stop()

	url := fmt.Sprintf("http://%s/", srv.Addr())
	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"getBlockHeight"}`)

	// Without the token the request is refused.
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	var r rpc.Response
	_ = json.NewDecoder(resp.Body).Decode(&r)
	resp.Body.Close()
	if r.Error == nil || r.Error.Code != rpc.CodeUnauthorized {
		t.Fatalf("want CodeUnauthorized, got %+v", r.Error)
	}

	// With the token it succeeds.
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var r2 rpc.Response
	_ = json.NewDecoder(resp2.Body).Decode(&r2)
	resp2.Body.Close()
	if r2.Error != nil {
		t.Fatalf("authorized call failed: %+v", r2.Error)
	}
}
