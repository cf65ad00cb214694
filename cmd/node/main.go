// Command node starts a Fortune Chain node.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pathfortune/fortunechain/config"
	"github.com/pathfortune/fortunechain/consensus"
	"github.com/pathfortune/fortunechain/core"
	"github.com/pathfortune/fortunechain/events"
	"github.com/pathfortune/fortunechain/indexer"
	"github.com/pathfortune/fortunechain/rpc"
	"github.com/pathfortune/fortunechain/storage"
	"github.com/pathfortune/fortunechain/vm"
	"github.com/pathfortune/fortunechain/wallet"

	// Import VM modules to trigger their init() self-registration.
	_ "github.com/pathfortune/fortunechain/vm/modules/economy"
	_ "github.com/pathfortune/fortunechain/vm/modules/tournament"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to config file")
	keyPath := flag.String("key", "validator.key", "path to keystore file")
	genKey := flag.Bool("genkey", false, "generate a new validator key and exit")
	flag.Parse()

	// Read keystore password from environment (not CLI flags — they leak via ps).
	password := os.Getenv("FORTUNE_PASSWORD")
	if password == "" {
		log.Println("WARNING: FORTUNE_PASSWORD not set — keystore will use an empty password")
	}

	// ---- generate key mode ----
	if *genKey {
		w, err := wallet.Generate()
		if err != nil {
			log.Fatal(err)
		}
		if err := wallet.SaveKey(*keyPath, password, w.PrivKey()); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Generated key. Public key (validator address): %s\n", w.PubKey().Hex())
		fmt.Printf("Saved to: %s\n", *keyPath)
		return
	}

	// ---- load config ----
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- load validator key ----
	privKey, err := wallet.LoadKey(*keyPath, password)
	if err != nil {
		log.Fatalf("load key: %v", err)
	}

	// ---- open DB ----
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("mkdir data dir: %v", err)
	}
	db, err := storage.NewLevelDB(cfg.DataDir + "/chain")
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	blockStore := storage.NewLevelBlockStore(db)
	state := storage.NewStateDB(db)

	// ---- initialise blockchain ----
	bc := core.NewBlockchain(blockStore)
	if err := bc.Init(); err != nil {
		log.Fatalf("blockchain init: %v", err)
	}

	// ---- genesis block (if fresh chain) ----
	if bc.Tip() == nil {
		genesisBlock, err := config.CreateGenesisBlock(cfg, state, privKey)
		if err != nil {
			log.Fatalf("genesis: %v", err)
		}
		if err := bc.AddBlock(genesisBlock); err != nil {
			log.Fatalf("add genesis: %v", err)
		}
		log.Printf("Genesis block committed: %s", genesisBlock.Hash)
	}

	// ---- events ----
	emitter := events.NewEmitter()

	// ---- indexer ----
	idx := indexer.New(db, emitter)

	// ---- mempool ----
	mempool := core.NewMempool()

	// ---- VM executor ----
	exec := vm.NewExecutor(state, emitter)

	// ---- consensus ----
	poa := consensus.New(cfg, bc, state, mempool, exec, emitter, privKey)

	// ---- RPC ----
	rpcAddr := fmt.Sprintf(":%d", cfg.RPCPort)
	// The RPC server runs its own goroutines; hand it a committed-only view
	// so queries never race with block execution or observe the write buffer.
	rpcHandler := rpc.NewHandler(bc, mempool, state.CommittedView(), idx, cfg.Genesis.ChainID)
	rpcServer := rpc.NewServer(rpcAddr, rpcHandler, cfg.RPCAuthToken)
	if err := rpcServer.Start(); err != nil {
		log.Fatalf("rpc start: %v", err)
	}
	defer rpcServer.Stop()
	log.Printf("RPC listening on %s", rpcAddr)
	if cfg.RPCAuthToken != "" {
		log.Println("RPC Bearer token authentication enabled")
	}

	// ---- consensus loop ----
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poa.Run(2*time.Second, done)
	}()
	log.Printf("Consensus running (validator: %s)", privKey.Public().Hex())

	// ---- graceful shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down...")

	// 1. Stop consensus first (no new blocks written)
	close(done)
	wg.Wait()

	// 2. Deferred calls run in LIFO: rpcServer.Stop → db.Close
	log.Println("Shutdown complete.")
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file not found at %s, using defaults.", path)
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}
