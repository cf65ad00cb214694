package economy_test

import (
	"testing"

	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/events"
	"github.com/pathfortune/fortunechain/internal/testutil"
	"github.com/pathfortune/fortunechain/vm"
	"github.com/pathfortune/fortunechain/wallet"

	// Registers the transfer handler.
	_ "github.com/pathfortune/fortunechain/vm/modules/economy"
)

const chainID = "fortune-test"

func TestTokenTransfer(t *testing.T) {
	state := testutil.NewStateDB()
	exec := vm.NewExecutor(state, events.NewEmitter())

	sender, _ := wallet.Generate()
	receiver, _ := wallet.Generate()
	_ = state.SetAccount(&core.Account{Address: sender.Address(), Balance: 1000})

	tx, err := sender.Transfer(chainID, receiver.Address(), 300, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	block := core.NewBlock(1, "00", sender.Address(), []*core.Transaction{tx})
	if err := exec.ExecuteTx(block, tx); err != nil {
		t.Fatalf("ExecuteTx: %v", err)
	}

	senderAcc, _ := state.GetAccount(sender.Address())
	if senderAcc.Balance != 700 {
		t.Errorf("sender balance: got %d want 700", senderAcc.Balance)
	}
	receiverAcc, _ := state.GetAccount(receiver.Address())
	if receiverAcc.Balance != 300 {
		t.Errorf("receiver balance: got %d want 300", receiverAcc.Balance)
	}
}

func TestTokenTransferInsufficientBalance(t *testing.T) {
	state := testutil.NewStateDB()
	exec := vm.NewExecutor(state, events.NewEmitter())

	sender, _ := wallet.Generate()
	_ = state.SetAccount(&core.Account{Address: sender.Address(), Balance: 100})

	tx, _ := sender.Transfer(chainID, "someone", 300, 0, 0)
	block := core.NewBlock(1, "00", sender.Address(), []*core.Transaction{tx})
	if err := exec.ExecuteTx(block, tx); err == nil {
		t.Fatal("transfer above balance should fail")
	}
	acc, _ := state.GetAccount(sender.Address())
	if acc.Balance != 100 {
		t.Errorf("failed transfer mutated balance: %d", acc.Balance)
	}
	if acc.Nonce != 0 {
		t.Errorf("failed transfer consumed nonce: %d", acc.Nonce)
	}
}

func TestTokenTransferZeroAmount(t *testing.T) {
	state := testutil.NewStateDB()
	exec := vm.NewExecutor(state, events.NewEmitter())

	sender, _ := wallet.Generate()
	_ = state.SetAccount(&core.Account{Address: sender.Address(), Balance: 100})

	tx, _ := sender.Transfer(chainID, "someone", 0, 0, 0)
	block := core.NewBlock(1, "00", sender.Address(), []*core.Transaction{tx})
	if err := exec.ExecuteTx(block, tx); err == nil {
		t.Fatal("zero-amount transfer should fail")
	}
}

func TestNonceReplay(t *testing.T) {
	state := testutil.NewStateDB()
	exec := vm.NewExecutor(state, events.NewEmitter())

	w, _ := wallet.Generate()
	_ = state.SetAccount(&core.Account{Address: w.Address(), Balance: 1000})

	block := core.NewBlock(1, "00", w.Address(), nil)
	tx, _ := w.Transfer(chainID, "aabb", 1, 0, 0)
	if err := exec.ExecuteTx(block, tx); err != nil {
		t.Fatalf("first tx: %v", err)
	}
	// Same nonce again: already consumed.
	if err := exec.ExecuteTx(block, tx); err == nil {
		t.Error("replay should fail due to nonce mismatch")
	}
}
