// Package vm executes transactions against the ledger state through a
// registry of per-type handlers. Each transaction is applied under a state
// snapshot: a failing handler leaves no trace.
package vm

import (
	"fmt"
	"math"

	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/events"
)

// Context is passed to every Handler and provides access to the ledger state,
// the current block, the triggering transaction, and the event emitter.
// Block.Header.Height is the logical clock handlers read for time windows.
type Context struct {
	State   core.State
	Block   *core.Block
	Tx      *core.Transaction
	Emitter *events.Emitter
}

// Executor applies transactions to the state using the global Handler registry.
type Executor struct {
	state   core.State
	emitter *events.Emitter
}

// NewExecutor creates an Executor with the given state and event emitter.
func NewExecutor(state core.State, emitter *events.Emitter) *Executor {
	return &Executor{state: state, emitter: emitter}
}

// ExecuteTx verifies and executes a single transaction with snapshot/rollback.
// This is the atomicity boundary: no operation can observe or leave behind a
// partially-applied effect.
func (e *Executor) ExecuteTx(block *core.Block, tx *core.Transaction) error {
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("signature: %w", err)
	}

	snapID, err := e.state.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if err := e.applyTx(block, tx); err != nil {
		if revertErr := e.state.RevertToSnapshot(snapID); revertErr != nil {
			return fmt.Errorf("revert snapshot after tx failure: %w (revert: %v)", err, revertErr)
		}
		return err
	}

	if e.emitter != nil {
		e.emitter.Emit(events.Event{
			Type:        events.EventTxExecuted,
			TxID:        tx.ID,
			BlockHeight: block.Header.Height,
			Data:        map[string]any{"type": string(tx.Type), "from": tx.From},
		})
	}
	return nil
}

// applyTx deducts the fee, increments the nonce, then dispatches to the handler.
func (e *Executor) applyTx(block *core.Block, tx *core.Transaction) error {
	acc, err := e.state.GetAccount(tx.From)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if acc.Nonce != tx.Nonce {
		return fmt.Errorf("invalid nonce: expected %d got %d", acc.Nonce, tx.Nonce)
	}
	if acc.Balance < tx.Fee {
		return fmt.Errorf("insufficient balance for fee: have %d need %d", acc.Balance, tx.Fee)
	}
	if acc.Nonce == math.MaxUint64 {
		return fmt.Errorf("nonce overflow for account %s", tx.From)
	}
	acc.Balance -= tx.Fee
	acc.Nonce++
	if err := e.state.SetAccount(acc); err != nil {
		return err
	}

	ctx := &Context{
		State:   e.state,
		Block:   block,
		Tx:      tx,
		Emitter: e.emitter,
	}
	return globalRegistry.Execute(tx.Type, ctx, tx.Payload)
}
