// Package consensus implements Proof-of-Authority block production.
// Validators propose blocks in round-robin order; each block is signed by
// its proposer. Block production is also the ledger's serialization point
// and clock: transactions apply one at a time in arrival order, and the
// height of the block they land in is the tick tournament windows run on.
package consensus

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pathfortune/fortunechain/config"
	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/crypto"
	"github.com/pathfortune/fortunechain/events"
	"github.com/pathfortune/fortunechain/vm"
)

// PoA is the Proof-of-Authority consensus engine.
type PoA struct {
	cfg     *config.Config
	bc      *core.Blockchain
	state   core.State
	mempool *core.Mempool
	exec    *vm.Executor
	emitter *events.Emitter
	privKey crypto.PrivateKey
	pubKey  crypto.PublicKey
}

// New creates a PoA engine for the local validator identified by privKey.
func New(
	cfg *config.Config,
	bc *core.Blockchain,
	state core.State,
	mempool *core.Mempool,
	exec *vm.Executor,
	emitter *events.Emitter,
	privKey crypto.PrivateKey,
) *PoA {
	return &PoA{
		cfg:     cfg,
		bc:      bc,
		state:   state,
		mempool: mempool,
		exec:    exec,
		emitter: emitter,
		privKey: privKey,
		pubKey:  privKey.Public(),
	}
}

// IsProposer reports whether the local validator proposes the next block.
func (p *PoA) IsProposer() bool {
	if len(p.cfg.Validators) == 0 {
		return false
	}
	idx := int(p.bc.Height()+1) % len(p.cfg.Validators)
	return p.cfg.Validators[idx] == p.pubKey.Hex()
}

// ProduceBlock builds, signs, executes and commits the next block.
// Transactions that fail execution are evicted from the mempool and left out
// of the block; the per-tx snapshot in the executor has already reverted
// their effects, so one bad transaction can never poison the block, the
// write buffer, or future rounds.
func (p *PoA) ProduceBlock() (*core.Block, error) {
	if !p.IsProposer() {
		return nil, errors.New("not the proposer for this round")
	}

	limit := p.cfg.MaxBlockTxs
	if limit <= 0 {
		limit = 500
	}
	candidates := p.mempool.Pending(limit)

	tip := p.bc.Tip()
	var prevHash string
	var nextHeight int64
	if tip == nil {
		prevHash = config.GenesisHash
		nextHeight = 1
	} else {
		prevHash = tip.Hash
		nextHeight = tip.Header.Height + 1
	}

	snap, err := p.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	block := core.NewBlock(nextHeight, prevHash, p.pubKey.Hex(), nil)

	applied := make([]*core.Transaction, 0, len(candidates))
	var dropped []string
	for _, tx := range candidates {
		if err := p.exec.ExecuteTx(block, tx); err != nil {
			log.Printf("[consensus] dropping tx %s: %v", tx.ID, err)
			dropped = append(dropped, tx.ID)
			continue
		}
		applied = append(applied, tx)
	}
	if len(dropped) > 0 {
		p.mempool.Remove(dropped)
	}
	block.Transactions = applied
	block.Header.TxRoot = core.ComputeTxRoot(applied)

	// Compute root from the write buffer BEFORE flushing so that if AddBlock
	// fails the state has not yet been persisted and the node stays consistent.
	block.Header.StateRoot = p.state.ComputeRoot()
	block.Sign(p.privKey)

	if err := p.bc.AddBlock(block); err != nil {
		// The applied txs stay in the mempool and replay next round against
		// the restored buffer.
		if revertErr := p.state.RevertToSnapshot(snap); revertErr != nil {
			return nil, fmt.Errorf("add block: %w (revert: %v)", err, revertErr)
		}
		return nil, fmt.Errorf("add block: %w", err)
	}

	// Flush state only after the block is safely stored.
	if err := p.state.Commit(); err != nil {
		log.Fatalf("[consensus] FATAL: block %d stored but state commit failed: %v",
			block.Header.Height, err)
	}

	txIDs := make([]string, len(applied))
	for i, tx := range applied {
		txIDs[i] = tx.ID
	}

	// Emit after Sign() so block.Hash is set correctly. Subscribers that
	// stage work per transaction flush it against this id list.
	p.emitter.Emit(events.Event{
		Type:        events.EventBlockCommit,
		BlockHeight: block.Header.Height,
		Data:        map[string]any{"hash": block.Hash, "tx_ids": txIDs},
	})

	p.mempool.Remove(txIDs)

	return block, nil
}

// Run starts the block-production loop with the given interval. It blocks
// until done is closed. A failed production attempt drops no transactions:
// they stay pending for the next round.
func (p *PoA) Run(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if p.IsProposer() {
				if _, err := p.ProduceBlock(); err != nil {
					log.Printf("[consensus] produce block error: %v", err)
				}
			}
		}
	}
}
