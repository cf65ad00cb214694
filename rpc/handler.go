package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/indexer"
	"github.com/pathfortune/fortunechain/vm/modules/tournament"
)

// Handler holds all dependencies needed to serve RPC methods. The state is
// a committed-only reader: responses never reflect an in-flight block.
type Handler struct {
	bc      *core.Blockchain
	mempool *core.Mempool
	state   core.StateReader
	indexer *indexer.Indexer
	chainID string // expected chain_id; used to reject cross-chain replay transactions
}

// NewHandler creates an RPC Handler.
func NewHandler(bc *core.Blockchain, mempool *core.Mempool, state core.StateReader, idx *indexer.Indexer, chainID string) *Handler {
	return &Handler{bc: bc, mempool: mempool, state: state, indexer: idx, chainID: chainID}
}

// Dispatch routes an RPC request to the correct method.
func (h *Handler) Dispatch(req Request) Response {
	switch req.Method {
	case "getBlockHeight":
		return okResponse(req.ID, h.bc.Height())

	case "getBlock":
		return h.getBlock(req)

	case "getBalance":
		return h.getBalance(req)

	case "getTournamentConstants":
		return okResponse(req.ID, tournament.DefaultConstants())

	case "getContractStats":
		return h.getContractStats(req)

	case "getTournament":
		return h.getTournament(req)

	case "getParticipant":
		return h.getParticipant(req)

	case "getGameScore":
		return h.getGameScore(req)

	case "getPlayerStats":
		return h.getPlayerStats(req)

	case "getTournamentsByPlayer":
		return h.getTournamentsByPlayer(req)

	case "getTournamentsByCreator":
		return h.getTournamentsByCreator(req)

	case "sendTx":
		return h.sendTx(req)

	case "getMempoolSize":
		return okResponse(req.ID, h.mempool.Size())

	default:
		return errResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

// stateErr maps storage errors onto RPC codes: a missing record is the
// JSON-RPC rendering of the contract's "none".
func stateErr(id any, err error) Response {
	if errors.Is(err, core.ErrNotFound) {
		return errResponse(id, CodeNotFound, "not found")
	}
	return errResponse(id, CodeInternalError, err.Error())
}

func (h *Handler) getBlock(req Request) Response {
	var params struct {
		Hash   string `json:"hash"`
		Height *int64 `json:"height"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, "params: "+err.Error())
	}

	var block *core.Block
	var err error
	if params.Hash != "" {
		block, err = h.bc.GetBlock(params.Hash)
	} else if params.Height != nil {
		block, err = h.bc.GetBlockByHeight(*params.Height)
	} else {
		block = h.bc.Tip()
	}
	if err != nil {
		return stateErr(req.ID, err)
	}
	if block == nil {
		return errResponse(req.ID, CodeNotFound, "no block found")
	}
	return okResponse(req.ID, block)
}

func (h *Handler) getBalance(req Request) Response {
	var params struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.Address == "" {
		return errResponse(req.ID, CodeInvalidParams, "address is required")
	}
	acc, err := h.state.GetAccount(params.Address)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{"address": params.Address, "balance": acc.Balance, "nonce": acc.Nonce})
}

func (h *Handler) getContractStats(req Request) Response {
	stats, err := h.state.GetContractStats()
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, stats)
}

func (h *Handler) getTournament(req Request) Response {
	var params struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.ID == 0 {
		return errResponse(req.ID, CodeInvalidParams, "id is required")
	}
	t, err := h.state.GetTournament(params.ID)
	if err != nil {
		return stateErr(req.ID, err)
	}
	return okResponse(req.ID, t)
}

func (h *Handler) getParticipant(req Request) Response {
	var params struct {
		ID      uint64 `json:"id"`
		Address string `json:"address"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.ID == 0 || params.Address == "" {
		return errResponse(req.ID, CodeInvalidParams, "id and address are required")
	}
	p, err := h.state.GetParticipant(params.ID, params.Address)
	if err != nil {
		return stateErr(req.ID, err)
	}
	return okResponse(req.ID, p)
}

func (h *Handler) getGameScore(req Request) Response {
	var params struct {
		ID      uint64 `json:"id"`
		Address string `json:"address"`
		Seq     uint64 `json:"seq"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.ID == 0 || params.Address == "" || params.Seq == 0 {
		return errResponse(req.ID, CodeInvalidParams, "id, address and seq are required")
	}
	g, err := h.state.GetGameScore(params.ID, params.Address, params.Seq)
	if err != nil {
		return stateErr(req.ID, err)
	}
	return okResponse(req.ID, g)
}

func (h *Handler) getPlayerStats(req Request) Response {
	var params struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.Address == "" {
		return errResponse(req.ID, CodeInvalidParams, "address is required")
	}
	ps, err := h.state.GetPlayerStats(params.Address)
	if err != nil {
		return stateErr(req.ID, err)
	}
	return okResponse(req.ID, ps)
}

func (h *Handler) getTournamentsByPlayer(req Request) Response {
	var params struct {
		Player string `json:"player"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.Player == "" {
		return errResponse(req.ID, CodeInvalidParams, "player is required")
	}
	ids, err := h.indexer.TournamentsByPlayer(params.Player)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, ids)
}

func (h *Handler) getTournamentsByCreator(req Request) Response {
	var params struct {
		Creator string `json:"creator"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.Creator == "" {
		return errResponse(req.ID, CodeInvalidParams, "creator is required")
	}
	ids, err := h.indexer.TournamentsByCreator(params.Creator)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, ids)
}

func (h *Handler) sendTx(req Request) Response {
	var tx core.Transaction
	if err := json.Unmarshal(req.Params, &tx); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	// Reject transactions destined for a different network to prevent
	// cross-chain replay attacks.
	if tx.ChainID != h.chainID {
		return errResponse(req.ID, CodeInvalidParams,
			fmt.Sprintf("chain ID mismatch: got %q want %q", tx.ChainID, h.chainID))
	}
	// Recompute the ID server-side; do not trust the client-provided value.
	tx.ID = tx.Hash()
	if err := h.mempool.Add(&tx); err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]string{"tx_id": tx.ID})
}
