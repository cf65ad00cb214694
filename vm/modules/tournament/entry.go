package tournament

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/events"
	"github.com/pathfortune/fortunechain/vm"
)

func handleEnterTournament(ctx *vm.Context, payload json.RawMessage) error {
	var p core.EnterTournamentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode enter_tournament payload: %w", err)
	}

	t, err := ctx.State.GetTournament(p.TournamentID)
	if err != nil {
		return fmt.Errorf("tournament %d: %w", p.TournamentID, err)
	}
	// Once active the pool is exactly full; entry is closed for good.
	if t.Status != core.StatusPending {
		return fmt.Errorf("%w: tournament %d is %s, entry closed", ErrPoolTargetReached, t.ID, t.Status)
	}

	if p.Amount < t.MinEntryPrice {
		return fmt.Errorf("%w: stake %d, tournament floor is %d",
			ErrInsufficientEntryAmount, p.Amount, t.MinEntryPrice)
	}
	// CurrentPool never exceeds TargetPool, so the subtraction cannot wrap.
	// Overshooting is a hard rejection, never a clamp.
	if p.Amount > t.TargetPool-t.CurrentPool {
		return fmt.Errorf("%w: stake %d would push pool %d past target %d",
			ErrPoolTargetReached, p.Amount, t.CurrentPool, t.TargetPool)
	}
	if _, err := ctx.State.GetParticipant(t.ID, ctx.Tx.From); err == nil {
		return fmt.Errorf("%w: tournament %d", ErrAlreadyParticipated, t.ID)
	} else if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("participant lookup: %w", err)
	}

	entrant, err := ctx.State.GetAccount(ctx.Tx.From)
	if err != nil {
		return err
	}
	if entrant.Balance < p.Amount {
		return fmt.Errorf("insufficient balance: have %d, need %d", entrant.Balance, p.Amount)
	}
	entrant.Balance -= p.Amount
	if err := ctx.State.SetAccount(entrant); err != nil {
		return err
	}

	part := &core.Participant{
		TournamentID: t.ID,
		Address:      ctx.Tx.From,
		EntryAmount:  p.Amount,
		EntryHeight:  ctx.Block.Header.Height,
	}
	if err := ctx.State.SetParticipant(part); err != nil {
		return err
	}

	ps, err := getOrNewPlayerStats(ctx.State, ctx.Tx.From)
	if err != nil {
		return err
	}
	ps.TournamentsPlayed++
	ps.TotalEntryFees += p.Amount
	if err := ctx.State.SetPlayerStats(ps); err != nil {
		return err
	}

	stats, err := ctx.State.GetContractStats()
	if err != nil {
		return err
	}
	if stats.ContractBalance > math.MaxUint64-p.Amount {
		return fmt.Errorf("contract balance overflow")
	}
	stats.ContractBalance += p.Amount
	if err := ctx.State.SetContractStats(stats); err != nil {
		return err
	}

	t.ParticipantCount++
	t.CurrentPool += p.Amount

	// Auto-start on exact fill, inside the same atomic operation as the
	// entry: there is no separate observe-and-start step to race with.
	started := t.CurrentPool == t.TargetPool
	if started {
		start := ctx.Block.Header.Height
		end := start + int64(t.Duration)
		t.StartHeight = &start
		t.EndHeight = &end
		t.Status = core.StatusActive
	}
	if err := ctx.State.SetTournament(t); err != nil {
		return err
	}

	if ctx.Emitter != nil {
		ctx.Emitter.Emit(events.Event{
			Type:        events.EventTournamentEntered,
			TxID:        ctx.Tx.ID,
			BlockHeight: ctx.Block.Header.Height,
			Data: map[string]any{
				"tournament_id": t.ID,
				"player":        ctx.Tx.From,
				"amount":        p.Amount,
			},
		})
		if started {
			ctx.Emitter.Emit(events.Event{
				Type:        events.EventTournamentStarted,
				TxID:        ctx.Tx.ID,
				BlockHeight: ctx.Block.Header.Height,
				Data: map[string]any{
					"tournament_id": t.ID,
					"start_height":  *t.StartHeight,
					"end_height":    *t.EndHeight,
				},
			})
		}
	}
	return nil
}

func handleSubmitScore(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SubmitScorePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode submit_score payload: %w", err)
	}

	t, err := ctx.State.GetTournament(p.TournamentID)
	if err != nil {
		return fmt.Errorf("tournament %d: %w", p.TournamentID, err)
	}
	if t.Status != core.StatusActive {
		return fmt.Errorf("%w: tournament %d is %s, not active", ErrTournamentNotEnded, t.ID, t.Status)
	}

	part, err := ctx.State.GetParticipant(t.ID, ctx.Tx.From)
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("%w: %s is not a participant of tournament %d",
			ErrUnauthorized, ctx.Tx.From, t.ID)
	}
	if err != nil {
		return fmt.Errorf("participant lookup: %w", err)
	}
	if p.Score == 0 {
		return fmt.Errorf("%w: tournament %d", ErrInvalidScore, t.ID)
	}

	// Append-only score log; seq numbers per (tournament, player) start at 1.
	part.GamesPlayed++
	score := &core.GameScore{
		TournamentID: t.ID,
		Player:       ctx.Tx.From,
		Seq:          part.GamesPlayed,
		Score:        p.Score,
		SubmittedAt:  ctx.Block.Header.Height,
	}
	if err := ctx.State.SetGameScore(score); err != nil {
		return err
	}

	if p.Score > part.BestScore {
		part.BestScore = p.Score
	}
	if err := ctx.State.SetParticipant(part); err != nil {
		return err
	}

	ps, err := getOrNewPlayerStats(ctx.State, ctx.Tx.From)
	if err != nil {
		return err
	}
	if p.Score > ps.BestScore {
		ps.BestScore = p.Score
	}
	if err := ctx.State.SetPlayerStats(ps); err != nil {
		return err
	}

	if ctx.Emitter != nil {
		ctx.Emitter.Emit(events.Event{
			Type:        events.EventScoreSubmitted,
			TxID:        ctx.Tx.ID,
			BlockHeight: ctx.Block.Header.Height,
			Data: map[string]any{
				"tournament_id": t.ID,
				"player":        ctx.Tx.From,
				"seq":           score.Seq,
				"score":         p.Score,
			},
		})
	}
	return nil
}

// getOrNewPlayerStats reads an address's aggregate stats, starting a fresh
// record on first activity.
func getOrNewPlayerStats(state core.State, address string) (*core.PlayerStats, error) {
	ps, err := state.GetPlayerStats(address)
	if errors.Is(err, core.ErrNotFound) {
		return &core.PlayerStats{Address: address}, nil
	}
	if err != nil {
		return nil, err
	}
	return ps, nil
}
