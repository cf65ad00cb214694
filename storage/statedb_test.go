package storage_test

import (
	"errors"
	"testing"

	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/internal/testutil"
	"github.com/pathfortune/fortunechain/storage"
)

func TestAccountDefaultsToZero(t *testing.T) {
	state := testutil.NewStateDB()

	acc, err := state.GetAccount("unknown")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if acc.Balance != 0 || acc.Nonce != 0 {
		t.Errorf("fresh account must be zero-valued: %+v", acc)
	}
}

func TestTournamentRoundTrip(t *testing.T) {
	state := testutil.NewStateDB()

	start := int64(10)
	end := int64(154)
	in := &core.Tournament{
		ID:               7,
		Creator:          "creator",
		MinEntryPrice:    1_000_000,
		PoolContribution: 5_000_000,
		TargetPool:       10_000_000,
		Duration:         144,
		StartHeight:      &start,
		EndHeight:        &end,
		CurrentPool:      10_000_000,
		ParticipantCount: 2,
		Status:           core.StatusActive,
	}
	if err := state.SetTournament(in); err != nil {
		t.Fatal(err)
	}
	out, err := state.GetTournament(7)
	if err != nil {
		t.Fatal(err)
	}
	if out.Creator != in.Creator || out.Status != in.Status || out.CurrentPool != in.CurrentPool {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if out.StartHeight == nil || *out.StartHeight != start {
		t.Errorf("start height: got %v", out.StartHeight)
	}

	if _, err := state.GetTournament(8); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing tournament: got %v, want ErrNotFound", err)
	}
}

func TestParticipantAndScoreKeys(t *testing.T) {
	state := testutil.NewStateDB()

	// Same address across two tournaments, same seq across two players:
	// composite keys must keep them apart.
	_ = state.SetParticipant(&core.Participant{TournamentID: 1, Address: "alice", EntryAmount: 10})
	_ = state.SetParticipant(&core.Participant{TournamentID: 2, Address: "alice", EntryAmount: 20})
	_ = state.SetGameScore(&core.GameScore{TournamentID: 1, Player: "alice", Seq: 1, Score: 100})
	_ = state.SetGameScore(&core.GameScore{TournamentID: 1, Player: "bob", Seq: 1, Score: 200})

	p1, err := state.GetParticipant(1, "alice")
	if err != nil || p1.EntryAmount != 10 {
		t.Errorf("participant (1, alice): %v %+v", err, p1)
	}
	p2, err := state.GetParticipant(2, "alice")
	if err != nil || p2.EntryAmount != 20 {
		t.Errorf("participant (2, alice): %v %+v", err, p2)
	}
	g1, err := state.GetGameScore(1, "alice", 1)
	if err != nil || g1.Score != 100 {
		t.Errorf("score (1, alice, 1): %v %+v", err, g1)
	}
	g2, err := state.GetGameScore(1, "bob", 1)
	if err != nil || g2.Score != 200 {
		t.Errorf("score (1, bob, 1): %v %+v", err, g2)
	}
	if _, err := state.GetGameScore(1, "alice", 2); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing score: got %v, want ErrNotFound", err)
	}
}

func TestContractStatsSeed(t *testing.T) {
	state := testutil.NewStateDB()

	// An unseeded chain reads the singleton as the empty ledger.
	stats, err := state.GetContractStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.NextTournamentID != 1 {
		t.Errorf("first id: got %d want 1", stats.NextTournamentID)
	}

	stats.NextTournamentID = 5
	stats.TreasuryBalance = 300
	stats.Authority = "auth"
	if err := state.SetContractStats(stats); err != nil {
		t.Fatal(err)
	}
	got, _ := state.GetContractStats()
	if got.NextTournamentID != 5 || got.TreasuryBalance != 300 || got.Authority != "auth" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSnapshotRevert(t *testing.T) {
	state := testutil.NewStateDB()

	_ = state.SetAccount(&core.Account{Address: "a", Balance: 100})
	snap, err := state.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	_ = state.SetAccount(&core.Account{Address: "a", Balance: 50})
	_ = state.SetAccount(&core.Account{Address: "b", Balance: 50})
	_ = state.SetTournament(&core.Tournament{ID: 1, Status: core.StatusPending})

	if err := state.RevertToSnapshot(snap); err != nil {
		t.Fatal(err)
	}

	a, _ := state.GetAccount("a")
	if a.Balance != 100 {
		t.Errorf("a: got %d want 100", a.Balance)
	}
	b, _ := state.GetAccount("b")
	if b.Balance != 0 {
		t.Errorf("b: got %d want 0", b.Balance)
	}
	if _, err := state.GetTournament(1); !errors.Is(err, core.ErrNotFound) {
		t.Error("revert must drop the buffered tournament")
	}
}

func TestCommitPersists(t *testing.T) {
	db := testutil.NewMemDB()
	state := storage.NewStateDB(db)

	_ = state.SetAccount(&core.Account{Address: "a", Balance: 42})
	if err := state.Commit(); err != nil {
		t.Fatal(err)
	}

	// A fresh StateDB over the same DB sees the committed value.
	reopened := storage.NewStateDB(db)
	acc, err := reopened.GetAccount("a")
	if err != nil {
		t.Fatal(err)
	}
	if acc.Balance != 42 {
		t.Errorf("balance after reopen: got %d want 42", acc.Balance)
	}
}

func TestComputeRootDeterministic(t *testing.T) {
	build := func() *storage.StateDB {
		state := testutil.NewStateDB()
		_ = state.SetAccount(&core.Account{Address: "a", Balance: 1})
		_ = state.SetAccount(&core.Account{Address: "b", Balance: 2})
		_ = state.SetTournament(&core.Tournament{ID: 1, Status: core.StatusPending, CurrentPool: 5})
		return state
	}

	r1 := build().ComputeRoot()
	r2 := build().ComputeRoot()
	if r1 != r2 {
		t.Errorf("same state produced different roots: %s vs %s", r1, r2)
	}

	// Root must change when state changes.
	changed := build()
	_ = changed.SetAccount(&core.Account{Address: "b", Balance: 3})
	if changed.ComputeRoot() == r1 {
		t.Error("different state produced the same root")
	}

	// Root must be stable across commit: buffered and persisted views match.
	committed := build()
	preCommit := committed.ComputeRoot()
	if err := committed.Commit(); err != nil {
		t.Fatal(err)
	}
	if committed.ComputeRoot() != preCommit {
		t.Error("root changed across commit")
	}
}
