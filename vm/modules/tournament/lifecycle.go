package tournament

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/events"
	"github.com/pathfortune/fortunechain/vm"
)

func init() {
	vm.Register(core.TxCreateTournament, handleCreateTournament)
	vm.Register(core.TxEnterTournament, handleEnterTournament)
	vm.Register(core.TxSubmitScore, handleSubmitScore)
	vm.Register(core.TxEndTournament, handleEndTournament)
	vm.Register(core.TxDistributePrizes, handleDistributePrizes)
}

func handleCreateTournament(ctx *vm.Context, payload json.RawMessage) error {
	var p core.CreateTournamentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode create_tournament payload: %w", err)
	}

	// Validation order is part of the contract: the first violated rule wins.
	if p.MinEntryPrice < MinEntryPrice {
		return fmt.Errorf("%w: min entry price %d, floor is %d",
			ErrInsufficientEntryAmount, p.MinEntryPrice, MinEntryPrice)
	}
	if p.PoolContribution < MinPoolContribution {
		return fmt.Errorf("%w: contribution %d, floor is %d",
			ErrInsufficientPoolContribution, p.PoolContribution, MinPoolContribution)
	}
	if p.TargetPool < MinTargetPool || p.TargetPool < p.PoolContribution {
		return fmt.Errorf("%w: target %d (floor %d, contribution %d)",
			ErrInvalidTargetPool, p.TargetPool, MinTargetPool, p.PoolContribution)
	}
	if p.Duration < MinDuration || p.Duration > MaxDuration {
		return fmt.Errorf("%w: duration %d, allowed [%d, %d]",
			ErrInvalidDuration, p.Duration, MinDuration, MaxDuration)
	}

	creator, err := ctx.State.GetAccount(ctx.Tx.From)
	if err != nil {
		return err
	}
	if creator.Balance < p.PoolContribution {
		return fmt.Errorf("insufficient balance: have %d, need %d", creator.Balance, p.PoolContribution)
	}
	creator.Balance -= p.PoolContribution
	if err := ctx.State.SetAccount(creator); err != nil {
		return err
	}

	stats, err := ctx.State.GetContractStats()
	if err != nil {
		return err
	}
	if stats.ContractBalance > math.MaxUint64-p.PoolContribution {
		return fmt.Errorf("contract balance overflow")
	}
	id := stats.NextTournamentID
	stats.NextTournamentID++
	stats.ContractBalance += p.PoolContribution
	if err := ctx.State.SetContractStats(stats); err != nil {
		return err
	}

	t := &core.Tournament{
		ID:               id,
		Creator:          ctx.Tx.From,
		MinEntryPrice:    p.MinEntryPrice,
		PoolContribution: p.PoolContribution,
		TargetPool:       p.TargetPool,
		Duration:         p.Duration,
		CurrentPool:      p.PoolContribution,
		ParticipantCount: 0,
		Status:           core.StatusPending,
		Settled:          false,
		CreatedAt:        ctx.Block.Header.Height,
	}
	if err := ctx.State.SetTournament(t); err != nil {
		return err
	}

	if ctx.Emitter != nil {
		ctx.Emitter.Emit(events.Event{
			Type:        events.EventTournamentCreated,
			TxID:        ctx.Tx.ID,
			BlockHeight: ctx.Block.Header.Height,
			Data: map[string]any{
				"tournament_id": id,
				"creator":       ctx.Tx.From,
				"target_pool":   p.TargetPool,
			},
		})
	}
	return nil
}

func handleEndTournament(ctx *vm.Context, payload json.RawMessage) error {
	var p core.EndTournamentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode end_tournament payload: %w", err)
	}

	t, err := ctx.State.GetTournament(p.TournamentID)
	if err != nil {
		return fmt.Errorf("tournament %d: %w", p.TournamentID, err)
	}
	// Ending twice fails here too: an ended tournament is no longer active.
	if t.Status != core.StatusActive {
		return fmt.Errorf("%w: tournament %d is %s, not active", ErrTournamentNotEnded, t.ID, t.Status)
	}
	if ctx.Block.Header.Height < *t.EndHeight {
		return fmt.Errorf("%w: tournament %d runs until height %d (now %d)",
			ErrTournamentNotEnded, t.ID, *t.EndHeight, ctx.Block.Header.Height)
	}

	t.Status = core.StatusEnded
	if err := ctx.State.SetTournament(t); err != nil {
		return err
	}

	if ctx.Emitter != nil {
		ctx.Emitter.Emit(events.Event{
			Type:        events.EventTournamentEnded,
			TxID:        ctx.Tx.ID,
			BlockHeight: ctx.Block.Header.Height,
			Data:        map[string]any{"tournament_id": t.ID},
		})
	}
	return nil
}
