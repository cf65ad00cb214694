// Package wallet manages signing keys and builds signed transactions.
package wallet

import (
	"fmt"

	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/crypto"
)

// Wallet wraps a keypair and produces signed transactions for the chain.
// Accounts on the ledger are keyed by the full hex-encoded public key.
type Wallet struct {
	priv crypto.PrivateKey
	pub  crypto.PublicKey
}

// New wraps an existing private key.
func New(priv crypto.PrivateKey) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public()}
}

// Generate creates a wallet with a fresh keypair.
func Generate() (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return New(priv), nil
}

func (w *Wallet) PrivKey() crypto.PrivateKey { return w.priv }
func (w *Wallet) PubKey() crypto.PublicKey   { return w.pub }

// Address returns the wallet's ledger identity, the hex-encoded public key.
func (w *Wallet) Address() string { return w.pub.Hex() }

// NewTx builds and signs a transaction of the given type.
func (w *Wallet) NewTx(chainID string, typ core.TxType, nonce, fee uint64, payload any) (*core.Transaction, error) {
	tx, err := core.NewTransaction(chainID, typ, w.Address(), nonce, fee, payload)
	if err != nil {
		return nil, err
	}
	tx.Sign(w.priv)
	return tx, nil
}

// Transfer builds a signed token transfer.
func (w *Wallet) Transfer(chainID, to string, amount, nonce, fee uint64) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxTransfer, nonce, fee, core.TransferPayload{
		To:     to,
		Amount: amount,
	})
}

// CreateTournament builds a signed tournament creation.
func (w *Wallet) CreateTournament(chainID string, minEntry, contribution, target, duration, nonce, fee uint64) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxCreateTournament, nonce, fee, core.CreateTournamentPayload{
		MinEntryPrice:    minEntry,
		PoolContribution: contribution,
		TargetPool:       target,
		Duration:         duration,
	})
}

// EnterTournament builds a signed tournament entry.
func (w *Wallet) EnterTournament(chainID string, id, amount, nonce, fee uint64) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxEnterTournament, nonce, fee, core.EnterTournamentPayload{
		TournamentID: id,
		Amount:       amount,
	})
}

// SubmitScore builds a signed score submission.
func (w *Wallet) SubmitScore(chainID string, id, score, nonce, fee uint64) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxSubmitScore, nonce, fee, core.SubmitScorePayload{
		TournamentID: id,
		Score:        score,
	})
}

// EndTournament builds a signed tournament close.
func (w *Wallet) EndTournament(chainID string, id, nonce, fee uint64) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxEndTournament, nonce, fee, core.EndTournamentPayload{
		TournamentID: id,
	})
}

// DistributePrizes builds a signed prize distribution for the given winners.
// Winners are ordered by final rank, best first.
func (w *Wallet) DistributePrizes(chainID string, id uint64, winners []string, nonce, fee uint64) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxDistributePrizes, nonce, fee, core.DistributePrizesPayload{
		TournamentID: id,
		Winners:      winners,
	})
}
