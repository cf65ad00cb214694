package core

// Account holds an address's spendable token balance and replay-protection
// nonce. Address is the hex-encoded ed25519 public key.
type Account struct {
	Address string `json:"address"` // pubkey hex
	Balance uint64 `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

// TournamentStatus is the lifecycle state of a tournament.
// Transitions are monotonic: pending → active → ended.
type TournamentStatus string

const (
	StatusPending TournamentStatus = "pending"
	StatusActive  TournamentStatus = "active"
	StatusEnded   TournamentStatus = "ended"
)

// Tournament is a pooled-entry competition. The pool fills while pending,
// the tournament runs for Duration blocks once the pool hits TargetPool
// exactly, and the pool is split among winners, treasury and burn at
// settlement.
type Tournament struct {
	ID               uint64           `json:"id"`
	Creator          string           `json:"creator"` // pubkey hex
	MinEntryPrice    uint64           `json:"min_entry_price"`
	PoolContribution uint64           `json:"pool_contribution"`
	TargetPool       uint64           `json:"target_pool"`
	Duration         uint64           `json:"duration"`     // blocks
	StartHeight      *int64           `json:"start_height"` // nil while pending
	EndHeight        *int64           `json:"end_height"`   // nil while pending
	CurrentPool      uint64           `json:"current_pool"`
	ParticipantCount uint64           `json:"participant_count"`
	Status           TournamentStatus `json:"status"`
	Settled          bool             `json:"settled"`
	CreatedAt        int64            `json:"created_at"` // block height
}

// Participant records a single address's stake in a tournament.
// At most one exists per (tournament, address) pair.
type Participant struct {
	TournamentID uint64  `json:"tournament_id"`
	Address      string  `json:"address"` // pubkey hex
	EntryAmount  uint64  `json:"entry_amount"`
	EntryHeight  int64   `json:"entry_height"`
	BestScore    uint64  `json:"best_score"`
	GamesPlayed  uint64  `json:"games_played"`
	FinalRank    *uint64 `json:"final_rank"` // nil until settlement assigns one
}

// GameScore is one score submission. Immutable once written; Seq starts at 1
// and increments per (tournament, player).
type GameScore struct {
	TournamentID uint64 `json:"tournament_id"`
	Player       string `json:"player"` // pubkey hex
	Seq          uint64 `json:"seq"`
	Score        uint64 `json:"score"`
	SubmittedAt  int64  `json:"submitted_at"` // block height
}

// PlayerStats aggregates an address's activity across all tournaments.
type PlayerStats struct {
	Address           string `json:"address"` // pubkey hex
	TournamentsPlayed uint64 `json:"tournaments_played"`
	TotalEntryFees    uint64 `json:"total_entry_fees"`
	TotalWinnings     uint64 `json:"total_winnings"`
	TournamentsWon    uint64 `json:"tournaments_won"`
	BestScore         uint64 `json:"best_score"`
}

// ContractStats is the chain-wide tournament ledger singleton.
// Authority is the only address allowed to distribute prizes; it is fixed at
// genesis. ContractBalance tracks funds held by the ledger: pools not yet
// paid out plus the treasury.
type ContractStats struct {
	NextTournamentID uint64 `json:"next_tournament_id"`
	TreasuryBalance  uint64 `json:"treasury_balance"`
	TotalBurned      uint64 `json:"total_burned"`
	ContractBalance  uint64 `json:"contract_balance"`
	Authority        string `json:"authority"` // pubkey hex
}

// StateReader is the read-only view of the ledger. The query surface is
// handed a reader over committed state only, so it can never observe the
// write buffer of an in-flight block.
type StateReader interface {
	GetAccount(address string) (*Account, error)
	GetTournament(id uint64) (*Tournament, error)
	GetParticipant(tournamentID uint64, address string) (*Participant, error)
	GetGameScore(tournamentID uint64, address string, seq uint64) (*GameScore, error)
	GetPlayerStats(address string) (*PlayerStats, error)
	GetContractStats() (*ContractStats, error)
}

// State is the full ledger state interface. Implementations must be
// snapshot-able so the executor can roll back failed transactions: each
// operation commits entirely or leaves state untouched.
type State interface {
	StateReader

	SetAccount(account *Account) error
	SetTournament(t *Tournament) error
	SetParticipant(p *Participant) error
	SetGameScore(g *GameScore) error
	SetPlayerStats(s *PlayerStats) error
	SetContractStats(s *ContractStats) error

	// Snapshot / rollback / commit
	Snapshot() (int, error)
	RevertToSnapshot(id int) error
	// ComputeRoot returns the deterministic state root from the current write
	// buffer without flushing. Call this before signing a block.
	ComputeRoot() string
	// Commit flushes the write buffer to the underlying DB and clears it.
	// Always call ComputeRoot() first to obtain the root for the block header.
	Commit() error
}
