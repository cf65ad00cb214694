package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/crypto"
)

// registerPrefix records a state-key prefix into statePrefixes so that
// ComputeRoot() always covers it.  All prefix constants must be declared
// via this function; manually editing statePrefixes is not required.
func registerPrefix(p string) string {
	statePrefixes = append(statePrefixes, p)
	return p
}

// statePrefixes is populated automatically by registerPrefix() below.
// ComputeRoot() iterates these prefixes to build the full world-state view.
var statePrefixes []string

// The ledger is a set of arena-style tables over composite string keys.
// There is no graph topology, only key lookups.
var (
	prefixAccount     = registerPrefix("acct:")
	prefixTournament  = registerPrefix("trn:")
	prefixParticipant = registerPrefix("part:")
	prefixGameScore   = registerPrefix("score:")
	prefixPlayerStats = registerPrefix("pstat:")
	prefixContract    = registerPrefix("stats:")
)

// keyContractStats is the singleton key holding the chain-wide counters.
const keyContractStats = "stats:contract"

func tournamentKey(id uint64) string {
	return fmt.Sprintf("%s%d", prefixTournament, id)
}

func participantKey(tournamentID uint64, address string) string {
	return fmt.Sprintf("%s%d:%s", prefixParticipant, tournamentID, address)
}

func gameScoreKey(tournamentID uint64, address string, seq uint64) string {
	return fmt.Sprintf("%s%d:%s:%d", prefixGameScore, tournamentID, address, seq)
}

type stateSnapshot struct {
	dirty   map[string][]byte
	deleted map[string]bool
}

// StateDB implements core.State on top of a DB with in-memory write buffer,
// snapshot/rollback, and deterministic state-root computation.
type StateDB struct {
	db        DB
	dirty     map[string][]byte
	deleted   map[string]bool
	snapshots []stateSnapshot
}

// NewStateDB creates a StateDB backed by db.
func NewStateDB(db DB) *StateDB {
	return &StateDB{
		db:      db,
		dirty:   make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

// ---- internal helpers ----

func (s *StateDB) get(key string) ([]byte, error) {
	if s.deleted[key] {
		return nil, core.ErrNotFound
	}
	if v, ok := s.dirty[key]; ok {
		return v, nil
	}
	return s.db.Get([]byte(key))
}

func (s *StateDB) set(key string, val []byte) {
	delete(s.deleted, key)
	s.dirty[key] = val
}

func (s *StateDB) getJSON(key string, out any) error {
	data, err := s.get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (s *StateDB) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.set(key, data)
	return nil
}

// ---- Account ----

func (s *StateDB) GetAccount(address string) (*core.Account, error) {
	var acc core.Account
	err := s.getJSON(prefixAccount+address, &acc)
	if errors.Is(err, core.ErrNotFound) {
		return &core.Account{Address: address}, nil // zero-value account
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *StateDB) SetAccount(acc *core.Account) error {
	return s.setJSON(prefixAccount+acc.Address, acc)
}

// ---- Tournament ----

func (s *StateDB) GetTournament(id uint64) (*core.Tournament, error) {
	var t core.Tournament
	if err := s.getJSON(tournamentKey(id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *StateDB) SetTournament(t *core.Tournament) error {
	return s.setJSON(tournamentKey(t.ID), t)
}

// ---- Participant ----

func (s *StateDB) GetParticipant(tournamentID uint64, address string) (*core.Participant, error) {
	var p core.Participant
	if err := s.getJSON(participantKey(tournamentID, address), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *StateDB) SetParticipant(p *core.Participant) error {
	return s.setJSON(participantKey(p.TournamentID, p.Address), p)
}

// ---- GameScore ----

func (s *StateDB) GetGameScore(tournamentID uint64, address string, seq uint64) (*core.GameScore, error) {
	var g core.GameScore
	if err := s.getJSON(gameScoreKey(tournamentID, address, seq), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *StateDB) SetGameScore(g *core.GameScore) error {
	return s.setJSON(gameScoreKey(g.TournamentID, g.Player, g.Seq), g)
}

// ---- PlayerStats ----

func (s *StateDB) GetPlayerStats(address string) (*core.PlayerStats, error) {
	var ps core.PlayerStats
	if err := s.getJSON(prefixPlayerStats+address, &ps); err != nil {
		return nil, err
	}
	return &ps, nil
}

func (s *StateDB) SetPlayerStats(ps *core.PlayerStats) error {
	return s.setJSON(prefixPlayerStats+ps.Address, ps)
}

// ---- ContractStats ----

// GetContractStats never returns not-found: a chain that has not seeded the
// singleton at genesis reads it as the empty ledger with the first id being 1.
func (s *StateDB) GetContractStats() (*core.ContractStats, error) {
	var cs core.ContractStats
	err := s.getJSON(keyContractStats, &cs)
	if errors.Is(err, core.ErrNotFound) {
		return &core.ContractStats{NextTournamentID: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

func (s *StateDB) SetContractStats(cs *core.ContractStats) error {
	return s.setJSON(keyContractStats, cs)
}

// ---- Snapshot / Rollback / Commit ----

// Snapshot saves the current write buffer and returns a snapshot ID.
func (s *StateDB) Snapshot() (int, error) {
	snap := stateSnapshot{
		dirty:   make(map[string][]byte, len(s.dirty)),
		deleted: make(map[string]bool, len(s.deleted)),
	}
	for k, v := range s.dirty {
		cp := make([]byte, len(v))
		copy(cp, v)
		snap.dirty[k] = cp
	}
	for k, v := range s.deleted {
		snap.deleted[k] = v
	}
	s.snapshots = append(s.snapshots, snap)
	return len(s.snapshots) - 1, nil
}

// RevertToSnapshot restores the write buffer to a previously saved snapshot.
// The snapshot maps are deep-copied so that subsequent writes cannot corrupt them.
func (s *StateDB) RevertToSnapshot(id int) error {
	if id < 0 || id >= len(s.snapshots) {
		return fmt.Errorf("invalid snapshot id %d", id)
	}
	snap := s.snapshots[id]

	dirty := make(map[string][]byte, len(snap.dirty))
	for k, v := range snap.dirty {
		cp := make([]byte, len(v))
		copy(cp, v)
		dirty[k] = cp
	}
	deleted := make(map[string]bool, len(snap.deleted))
	for k, v := range snap.deleted {
		deleted[k] = v
	}

	s.dirty = dirty
	s.deleted = deleted
	s.snapshots = s.snapshots[:id]
	return nil
}

// ComputeRoot returns the deterministic hash of the complete world state.
// It merges all persisted state entries (scanned from DB by the known state
// prefixes) with the current write buffer, then hashes the sorted key-value
// pairs using length-prefix encoding.  It does NOT flush or modify state,
// so it is safe to call before signing a block.
func (s *StateDB) ComputeRoot() string {
	// Step 1: collect all persisted state entries from DB.
	merged := make(map[string][]byte)
	for _, prefix := range statePrefixes {
		it := s.db.NewIterator([]byte(prefix))
		for it.Next() {
			k := string(it.Key())
			v := make([]byte, len(it.Value()))
			copy(v, it.Value())
			merged[k] = v
		}
		it.Release()
	}

	// Step 2: apply in-memory write buffer (uncommitted changes this block).
	for k, v := range s.dirty {
		merged[k] = v
	}

	// Step 3: exclude deleted keys.
	for k := range s.deleted {
		delete(merged, k)
	}

	// Step 4: sort keys for determinism.
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Step 5: length-prefix encode each key-value pair and hash.
	var buf bytes.Buffer
	var lenBuf [4]byte
	for _, k := range keys {
		v := merged[k]
		kb := []byte(k)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(kb)))
		buf.Write(lenBuf[:])
		buf.Write(kb)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
		buf.Write(lenBuf[:])
		buf.Write(v)
	}
	return crypto.Hash(buf.Bytes())
}

// Commit atomically flushes the write buffer to the underlying DB via a
// Batch and then clears it. Call ComputeRoot() before signing the block,
// then call Commit() after the block is safely stored.
func (s *StateDB) Commit() error {
	batch := s.db.NewBatch()
	for k, v := range s.dirty {
		batch.Set([]byte(k), v)
	}
	for k := range s.deleted {
		batch.Delete([]byte(k))
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.dirty = make(map[string][]byte)
	s.deleted = make(map[string]bool)
	s.snapshots = nil
	return nil
}
