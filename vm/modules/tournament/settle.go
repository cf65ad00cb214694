package tournament

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/events"
	"github.com/pathfortune/fortunechain/vm"
)

func handleDistributePrizes(ctx *vm.Context, payload json.RawMessage) error {
	var p core.DistributePrizesPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode distribute_prizes payload: %w", err)
	}

	stats, err := ctx.State.GetContractStats()
	if err != nil {
		return err
	}
	if stats.Authority == "" || ctx.Tx.From != stats.Authority {
		return fmt.Errorf("%w: only the settlement authority can distribute prizes", ErrUnauthorized)
	}

	t, err := ctx.State.GetTournament(p.TournamentID)
	if err != nil {
		return fmt.Errorf("tournament %d: %w", p.TournamentID, err)
	}
	if t.Status != core.StatusEnded {
		return fmt.Errorf("%w: tournament %d is %s, not ended", ErrTournamentNotEnded, t.ID, t.Status)
	}
	if t.Settled {
		return fmt.Errorf("%w: tournament %d", ErrPrizesAlreadyDistributed, t.ID)
	}

	// Floor split, applied once to the final pool. Rounding dust (at most one
	// unit per component) stays in the held balance and is not redistributed.
	pool := t.CurrentPool
	winnersPool := pctShare(pool, WinnersPct)
	treasuryCut := pctShare(pool, TreasuryPct)
	burnCut := pctShare(pool, BurnPct)

	// Equal floor share per winner; per-winner dust also stays held.
	var share uint64
	if len(p.Winners) > 0 {
		share = winnersPool / uint64(len(p.Winners))
	}

	seen := make(map[string]bool, len(p.Winners))
	for i, winner := range p.Winners {
		if seen[winner] {
			return fmt.Errorf("duplicate winner %s in tournament %d", winner, t.ID)
		}
		seen[winner] = true

		part, err := ctx.State.GetParticipant(t.ID, winner)
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("%w: winner %s never entered tournament %d", ErrUnauthorized, winner, t.ID)
		}
		if err != nil {
			return fmt.Errorf("winner lookup: %w", err)
		}

		rank := uint64(i + 1)
		part.FinalRank = &rank
		if err := ctx.State.SetParticipant(part); err != nil {
			return err
		}

		acc, err := ctx.State.GetAccount(winner)
		if err != nil {
			return err
		}
		acc.Balance += share
		if err := ctx.State.SetAccount(acc); err != nil {
			return err
		}

		ps, err := getOrNewPlayerStats(ctx.State, winner)
		if err != nil {
			return err
		}
		ps.TotalWinnings += share
		ps.TournamentsWon++
		if err := ctx.State.SetPlayerStats(ps); err != nil {
			return err
		}
	}

	// Treasury stays inside the held balance; only winner payouts and the
	// burn leave it.
	paidOut := share * uint64(len(p.Winners))
	outflow := paidOut + burnCut
	if stats.ContractBalance < outflow {
		return fmt.Errorf("ledger imbalance: held %d, outflow %d", stats.ContractBalance, outflow)
	}
	stats.ContractBalance -= outflow
	stats.TreasuryBalance += treasuryCut
	stats.TotalBurned += burnCut
	if err := ctx.State.SetContractStats(stats); err != nil {
		return err
	}

	t.Settled = true
	if err := ctx.State.SetTournament(t); err != nil {
		return err
	}

	if ctx.Emitter != nil {
		ctx.Emitter.Emit(events.Event{
			Type:        events.EventPrizesDistributed,
			TxID:        ctx.Tx.ID,
			BlockHeight: ctx.Block.Header.Height,
			Data: map[string]any{
				"tournament_id": t.ID,
				"winners":       p.Winners,
				"winner_share":  share,
				"treasury_cut":  treasuryCut,
				"burn_cut":      burnCut,
			},
		})
	}
	return nil
}
