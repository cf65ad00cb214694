package wallet_test

import (
	"path/filepath"
	"testing"

	"github.com/pathfortune/fortunechain/wallet"
)

func TestKeystoreRoundTrip(t *testing.T) {
	w, err := wallet.Generate()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "validator.key")

	if err := wallet.SaveKey(path, "hunter2", w.PrivKey()); err != nil {
		t.Fatalf("SaveKey: %v", err)
	}
	priv, err := wallet.LoadKey(path, "hunter2")
	if err != nil {
		t.Fatalf("LoadKey: %v", err)
	}
	if wallet.New(priv).Address() != w.Address() {
		t.Error("loaded key does not match the saved one")
	}
}

func TestKeystoreWrongPassword(t *testing.T) {
	w, _ := wallet.Generate()
	path := filepath.Join(t.TempDir(), "validator.key")

	if err := wallet.SaveKey(path, "correct", w.PrivKey()); err != nil {
		t.Fatal(err)
	}
	if _, err := wallet.LoadKey(path, "wrong"); err == nil {
		t.Error("wrong password must fail to decrypt")
	}
}

func TestWalletSignedTxVerifies(t *testing.T) {
	w, _ := wallet.Generate()

	tx, err := w.CreateTournament("fortune-test", 1_000_000, 5_000_000, 10_000_000, 144, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if tx.From != w.Address() {
		t.Errorf("from: got %s want %s", tx.From, w.Address())
	}
	if err := tx.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}
