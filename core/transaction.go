package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pathfortune/fortunechain/crypto"
)

// TxType identifies the kind of operation a transaction performs.
type TxType string

const (
	TxTransfer         TxType = "transfer"
	TxCreateTournament TxType = "create_tournament"
	TxEnterTournament  TxType = "enter_tournament"
	TxSubmitScore      TxType = "submit_score"
	TxEndTournament    TxType = "end_tournament"
	TxDistributePrizes TxType = "distribute_prizes"
)

// Transaction is the atomic unit of work on the chain.
// From holds the sender's full hex-encoded ed25519 public key (64 chars).
// ChainID pins the transaction to one network so it cannot be replayed on
// another. Signature covers all fields except Signature itself.
type Transaction struct {
	ID        string          `json:"id"`
	ChainID   string          `json:"chain_id"`
	Type      TxType          `json:"type"`
	From      string          `json:"from"` // hex-encoded ed25519 public key
	Nonce     uint64          `json:"nonce"`
	Fee       uint64          `json:"fee"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// signingBody holds the fields that are covered by the signature.
type signingBody struct {
	ChainID   string          `json:"chain_id"`
	Type      TxType          `json:"type"`
	From      string          `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Fee       uint64          `json:"fee"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Hash returns a deterministic hash of the transaction (sans Signature).
// Returns an empty string if marshalling fails (which cannot happen in practice).
func (tx *Transaction) Hash() string {
	body := signingBody{
		ChainID:   tx.ChainID,
		Type:      tx.Type,
		From:      tx.From,
		Nonce:     tx.Nonce,
		Fee:       tx.Fee,
		Timestamp: tx.Timestamp,
		Payload:   tx.Payload,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Sign computes the signature and sets ID.
func (tx *Transaction) Sign(priv crypto.PrivateKey) {
	hash := tx.Hash()
	tx.Signature = crypto.Sign(priv, []byte(hash))
	tx.ID = hash
}

// Verify checks the signature and that From is a valid public key.
func (tx *Transaction) Verify() error {
	if tx.From == "" {
		return errors.New("missing from field")
	}
	pub, err := crypto.PubKeyFromHex(tx.From)
	if err != nil {
		return fmt.Errorf("invalid from (must be ed25519 pubkey hex): %w", err)
	}
	return crypto.Verify(pub, []byte(tx.Hash()), tx.Signature)
}

// NewTransaction creates an unsigned transaction with the current timestamp.
func NewTransaction(chainID string, typ TxType, from string, nonce, fee uint64, payload any) (*Transaction, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Transaction{
		ChainID:   chainID,
		Type:      typ,
		From:      from,
		Nonce:     nonce,
		Fee:       fee,
		Timestamp: time.Now().UnixNano(),
		Payload:   raw,
	}, nil
}

// ---- Payload types ----

// TransferPayload transfers native tokens.
type TransferPayload struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// CreateTournamentPayload opens a new pending tournament. The sender funds
// PoolContribution out of their balance as the starting pool.
type CreateTournamentPayload struct {
	MinEntryPrice    uint64 `json:"min_entry_price"`
	PoolContribution uint64 `json:"pool_contribution"`
	TargetPool       uint64 `json:"target_pool"`
	Duration         uint64 `json:"duration"` // blocks
}

// EnterTournamentPayload stakes Amount into a pending tournament's pool.
type EnterTournamentPayload struct {
	TournamentID uint64 `json:"tournament_id"`
	Amount       uint64 `json:"amount"`
}

// SubmitScorePayload records a game score for the sender in an active
// tournament.
type SubmitScorePayload struct {
	TournamentID uint64 `json:"tournament_id"`
	Score        uint64 `json:"score"`
}

// EndTournamentPayload moves an active tournament whose window has elapsed
// to ended.
type EndTournamentPayload struct {
	TournamentID uint64 `json:"tournament_id"`
}

// DistributePrizesPayload settles an ended tournament. Winners is ordered:
// the first address receives final rank 1.
type DistributePrizesPayload struct {
	TournamentID uint64   `json:"tournament_id"`
	Winners      []string `json:"winners"` // pubkey hexes
}
