// Package indexer maintains secondary indexes over committed tournaments so
// thin clients can ask "which tournaments has this address entered?" without
// scanning full state or caching entry flags locally.
//
// Indexing is two-phase: tournament events fired during transaction execution
// only stage entries, and the block-commit event flushes the entries whose
// transaction actually landed in the committed block. Entries staged by
// transactions that were dropped, or whose block was rejected, are discarded
// at the next flush, so the index never runs ahead of the chain.
package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/events"
	"github.com/pathfortune/fortunechain/storage"
)

const (
	prefixPlayerTournaments  = "idx:player:trn:"
	prefixCreatorTournaments = "idx:creator:trn:"
)

// stagedEntry is an index write waiting for its transaction to commit.
type stagedEntry struct {
	txID string
	key  string
	id   uint64
}

// Indexer subscribes to ledger events and updates secondary lookup tables.
type Indexer struct {
	db      storage.DB
	emitter *events.Emitter

	mu     sync.Mutex
	staged []stagedEntry
}

// New creates an Indexer backed by db and subscribes to relevant events.
func New(db storage.DB, emitter *events.Emitter) *Indexer {
	idx := &Indexer{db: db, emitter: emitter}
	emitter.Subscribe(events.EventTournamentCreated, idx.onTournamentCreated)
	emitter.Subscribe(events.EventTournamentEntered, idx.onTournamentEntered)
	emitter.Subscribe(events.EventBlockCommit, idx.onBlockCommit)
	return idx
}

// TournamentsByPlayer returns the ids of all tournaments the address entered.
func (idx *Indexer) TournamentsByPlayer(player string) ([]uint64, error) {
	return idx.getList(prefixPlayerTournaments + player)
}

// TournamentsByCreator returns the ids of all tournaments the address created.
func (idx *Indexer) TournamentsByCreator(creator string) ([]uint64, error) {
	return idx.getList(prefixCreatorTournaments + creator)
}

// ---- event handlers ----

func (idx *Indexer) onTournamentCreated(ev events.Event) {
	creator, _ := ev.Data["creator"].(string)
	id, ok := ev.Data["tournament_id"].(uint64)
	if creator == "" || !ok {
		return
	}
	idx.stage(ev.TxID, prefixCreatorTournaments+creator, id)
}

func (idx *Indexer) onTournamentEntered(ev events.Event) {
	player, _ := ev.Data["player"].(string)
	id, ok := ev.Data["tournament_id"].(uint64)
	if player == "" || !ok {
		return
	}
	idx.stage(ev.TxID, prefixPlayerTournaments+player, id)
}

// onBlockCommit flushes staged entries whose transaction is in the committed
// block and drops the rest: their transactions never made it on chain.
func (idx *Indexer) onBlockCommit(ev events.Event) {
	txIDs, ok := ev.Data["tx_ids"].([]string)
	if !ok {
		return
	}
	committed := make(map[string]bool, len(txIDs))
	for _, id := range txIDs {
		committed[id] = true
	}

	idx.mu.Lock()
	staged := idx.staged
	idx.staged = nil
	idx.mu.Unlock()

	for _, e := range staged {
		if committed[e.txID] {
			_ = idx.addToList(e.key, e.id)
		}
	}
}

func (idx *Indexer) stage(txID, key string, id uint64) {
	idx.mu.Lock()
	idx.staged = append(idx.staged, stagedEntry{txID: txID, key: key, id: id})
	idx.mu.Unlock()
}

// ---- list helpers ----

func (idx *Indexer) getList(key string) ([]uint64, error) {
	data, err := idx.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil // empty list
		}
		return nil, err
	}
	var ids []uint64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("indexer unmarshal: %w", err)
	}
	return ids, nil
}

func (idx *Indexer) addToList(key string, id uint64) error {
	ids, _ := idx.getList(key)
	ids = append(ids, id)
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return idx.db.Set([]byte(key), data)
}
