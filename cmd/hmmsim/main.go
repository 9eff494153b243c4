// Command hmmsim is the simulator driver: it loads a pool bootstrap config,
// brings up (or resumes from its snapshot) a pool, logs the pool's current
// tick and root price, and flushes the snapshot back. It runs no deposits,
// withdrawals or swaps itself. It is not part
// of the core — the core (package hmmpool) never touches a config file or
// a database.
package main

import (
	"flag"

	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	hmmpool "github.com/hydraswap/hmm-pool"
	"github.com/hydraswap/hmm-pool/config"
	"github.com/hydraswap/hmm-pool/store"
)

func main() {
	configPath := flag.String("config", "hmmsim.yaml", "path to the simulator config file")
	poolName := flag.String("pool", "default", "name this pool is snapshotted under")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("hmmsim: failed to load config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	db, err := gorm.Open(sqlite.Open(cfg.Snapshot.SqlitePath), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("hmmsim: failed to open snapshot database: %v", err)
	}

	snapshots, err := store.Open(db)
	if err != nil {
		logrus.Fatalf("hmmsim: failed to migrate snapshot store: %v", err)
	}

	pool, err := snapshots.Load(*poolName)
	if err != nil {
		logrus.Infof("hmmsim: no snapshot for pool %q, bootstrapping fresh", *poolName)
		pool = bootstrap(cfg)
	}

	logrus.WithFields(logrus.Fields{
		"tick": pool.TickCurrent(),
		"rp":   pool.GlobalState().RP,
	}).Info("hmmsim: pool ready")

	if err := snapshots.Flush(*poolName, pool); err != nil {
		logrus.Fatalf("hmmsim: failed to flush snapshot: %v", err)
	}
}

func bootstrap(cfg *config.Config) *hmmpool.Pool {
	hmmC, err := decimal.NewFromString(cfg.Pool.HmmC)
	if err != nil {
		hmmC = decimal.Zero
	}
	bootstrapRP, err := decimal.NewFromString(cfg.Pool.BootstrapRP)
	if err != nil {
		logrus.Fatalf("hmmsim: invalid BootstrapRP in config: %v", err)
	}

	poolConfig := hmmpool.PoolConfig{
		TickSpacing: cfg.Pool.TickSpacing,
		TokenX:      hmmpool.Token{Name: cfg.Pool.TokenXName, Address: common.Address{}},
		TokenY:      hmmpool.Token{Name: cfg.Pool.TokenYName, Address: common.Address{}},
		Fee:         cfg.FeeAmount(),
		HmmC:        hmmC,
	}

	pool, err := hmmpool.New(poolConfig, bootstrapRP)
	if err != nil {
		logrus.Fatalf("hmmsim: failed to bootstrap pool: %v", err)
	}
	return pool
}
