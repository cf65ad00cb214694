package storage_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/internal/testutil"
)

func TestCommittedViewSkipsWriteBuffer(t *testing.T) {
	state := testutil.NewStateDB()
	view := state.CommittedView()

	_ = state.SetAccount(&core.Account{Address: "a", Balance: 100})
	_ = state.SetTournament(&core.Tournament{ID: 1, Status: core.StatusPending})

	// Buffered writes are visible to the StateDB but not to the view.
	acc, err := view.GetAccount("a")
	if err != nil {
		t.Fatal(err)
	}
	if acc.Balance != 0 {
		t.Errorf("view saw a buffered balance: %d", acc.Balance)
	}
	if _, err := view.GetTournament(1); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("view saw a buffered tournament: %v", err)
	}

	if err := state.Commit(); err != nil {
		t.Fatal(err)
	}

	acc, err = view.GetAccount("a")
	if err != nil {
		t.Fatal(err)
	}
	if acc.Balance != 100 {
		t.Errorf("balance after commit: got %d want 100", acc.Balance)
	}
	if _, err := view.GetTournament(1); err != nil {
		t.Errorf("tournament after commit: %v", err)
	}
}

func TestCommittedViewFreshChainDefaults(t *testing.T) {
	view := testutil.NewStateDB().CommittedView()

	acc, err := view.GetAccount("unknown")
	if err != nil {
		t.Fatal(err)
	}
	if acc.Balance != 0 || acc.Nonce != 0 {
		t.Errorf("fresh account must be zero-valued: %+v", acc)
	}

	stats, err := view.GetContractStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.NextTournamentID != 1 {
		t.Errorf("first id: got %d want 1", stats.NextTournamentID)
	}
}

func TestCommittedViewConcurrentWithCommit(t *testing.T) {
	state := testutil.NewStateDB()
	view := state.CommittedView()

	// The view serves queries while blocks keep committing; run under -race.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			addr := fmt.Sprintf("acct-%d", i)
			_ = state.SetAccount(&core.Account{Address: addr, Balance: uint64(i)})
			_ = state.Commit()
		}
	}()

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				addr := fmt.Sprintf("acct-%d", i)
				acc, err := view.GetAccount(addr)
				if err != nil {
					t.Errorf("GetAccount(%s): %v", addr, err)
					return
				}
				if acc.Balance != 0 && acc.Balance != uint64(i) {
					t.Errorf("acct-%d: impossible balance %d", i, acc.Balance)
					return
				}
			}
		}()
	}
	wg.Wait()
	<-done
}
