package storage

import (
	"encoding/json"
	"errors"

	"github.com/pathfortune/fortunechain/core"
)

// committedView is a core.StateReader over the persisted DB only. It never
// consults the StateDB write buffer, so concurrent readers (the RPC server)
// see exactly the state as of the last committed block and never touch the
// maps the consensus goroutine is mutating.
type committedView struct {
	db DB
}

// CommittedView returns a reader over committed state. Safe for concurrent
// use alongside block execution as long as the underlying DB is thread-safe
// (LevelDB and the test MemDB both are).
func (s *StateDB) CommittedView() core.StateReader {
	return &committedView{db: s.db}
}

func (v *committedView) getJSON(key string, out any) error {
	data, err := v.db.Get([]byte(key))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (v *committedView) GetAccount(address string) (*core.Account, error) {
	var acc core.Account
	err := v.getJSON(prefixAccount+address, &acc)
	if errors.Is(err, core.ErrNotFound) {
		return &core.Account{Address: address}, nil
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (v *committedView) GetTournament(id uint64) (*core.Tournament, error) {
	var t core.Tournament
	if err := v.getJSON(tournamentKey(id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (v *committedView) GetParticipant(tournamentID uint64, address string) (*core.Participant, error) {
	var p core.Participant
	if err := v.getJSON(participantKey(tournamentID, address), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (v *committedView) GetGameScore(tournamentID uint64, address string, seq uint64) (*core.GameScore, error) {
	var g core.GameScore
	if err := v.getJSON(gameScoreKey(tournamentID, address, seq), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (v *committedView) GetPlayerStats(address string) (*core.PlayerStats, error) {
	var ps core.PlayerStats
	if err := v.getJSON(prefixPlayerStats+address, &ps); err != nil {
		return nil, err
	}
	return &ps, nil
}

func (v *committedView) GetContractStats() (*core.ContractStats, error) {
	var cs core.ContractStats
	err := v.getJSON(keyContractStats, &cs)
	if errors.Is(err, core.ErrNotFound) {
		return &core.ContractStats{NextTournamentID: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}
