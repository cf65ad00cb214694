package config_test

import (
	"path/filepath"
	"testing"

	"github.com/pathfortune/fortunechain/config"
	"github.com/pathfortune/fortunechain/crypto"
	"github.com/pathfortune/fortunechain/internal/testutil"
)

func TestCreateGenesisBlock(t *testing.T) {
	priv, pub, _ := crypto.GenerateKeyPair()

	cfg := config.DefaultConfig()
	cfg.Genesis.Alloc = map[string]uint64{"alice": 1000, "bob": 500}

	state := testutil.NewStateDB()
	block, err := config.CreateGenesisBlock(cfg, state, priv)
	if err != nil {
		t.Fatal(err)
	}

	if block.Header.Height != 0 {
		t.Errorf("height: got %d want 0", block.Header.Height)
	}
	if !config.IsGenesisHash(block.Header.PrevHash) {
		t.Errorf("prev hash: %s", block.Header.PrevHash)
	}
	if err := block.Verify(pub); err != nil {
		t.Errorf("genesis signature: %v", err)
	}

	alice, _ := state.GetAccount("alice")
	if alice.Balance != 1000 {
		t.Errorf("alice: got %d want 1000", alice.Balance)
	}

	// With no explicit authority the proposer settles tournaments.
	stats, err := state.GetContractStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Authority != pub.Hex() {
		t.Errorf("authority: got %s want proposer", stats.Authority)
	}
	if stats.NextTournamentID != 1 {
		t.Errorf("next id: got %d want 1", stats.NextTournamentID)
	}
}

func TestCreateGenesisBlockExplicitAuthority(t *testing.T) {
	priv, _, _ := crypto.GenerateKeyPair()

	cfg := config.DefaultConfig()
	cfg.Genesis.Authority = "settlement-service"

	state := testutil.NewStateDB()
	if _, err := config.CreateGenesisBlock(cfg, state, priv); err != nil {
		t.Fatal(err)
	}
	stats, _ := state.GetContractStats()
	if stats.Authority != "settlement-service" {
		t.Errorf("authority: got %s", stats.Authority)
	}
}

func TestGenesisHashDiffersPerChainID(t *testing.T) {
	priv, _, _ := crypto.GenerateKeyPair()

	build := func(chainID string) string {
		cfg := config.DefaultConfig()
		cfg.Genesis.ChainID = chainID
		block, err := config.CreateGenesisBlock(cfg, testutil.NewStateDB(), priv)
		if err != nil {
			t.Fatal(err)
		}
		return block.Hash
	}

	if build("net-a") == build("net-b") {
		t.Error("different chain ids must produce different genesis hashes")
	}
}

func TestConfigSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := config.DefaultConfig()
	cfg.NodeID = "node7"
	cfg.RPCPort = 9999
	cfg.Validators = []string{"v1", "v2"}
	cfg.Genesis.Authority = "auth"

	if err := config.Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.NodeID != "node7" || loaded.RPCPort != 9999 {
		t.Errorf("loaded: %+v", loaded)
	}
	if len(loaded.Validators) != 2 || loaded.Genesis.Authority != "auth" {
		t.Errorf("loaded: %+v", loaded)
	}
}
