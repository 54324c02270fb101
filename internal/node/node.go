// Package node wires storage, the stake ledger, metrics and the RPC server
// into one process that can be embedded in any binary.
package node

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-stake/config"
	"github.com/Klingon-tech/klingnet-stake/internal/account"
	"github.com/Klingon-tech/klingnet-stake/internal/ledger"
	klog "github.com/Klingon-tech/klingnet-stake/internal/log"
	"github.com/Klingon-tech/klingnet-stake/internal/metrics"
	"github.com/Klingon-tech/klingnet-stake/internal/rpc"
	"github.com/Klingon-tech/klingnet-stake/internal/stake"
	"github.com/Klingon-tech/klingnet-stake/internal/storage"
	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

// Node is a fully initialized stake daemon.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	db      storage.DB
	ledger  *ledger.Ledger
	metrics *metrics.Metrics

	rpcServer *rpc.Server
}

// New performs all setup (address prefix, logger, storage, ledger, metrics,
// RPC) without binding any listener. Call Start to serve.
func New(cfg *config.Config) (*Node, error) {
	// ── 1. Address prefix ───────────────────────────────────────────
	if cfg.Network == config.Testnet {
		types.SetAddressPrefix(types.TestnetPrefix)
	} else {
		types.SetAddressPrefix(types.MainnetPrefix)
	}

	// ── 2. Logger ───────────────────────────────────────────────────
	logFile := expandHome(cfg.Log.File)
	if logFile == "" {
		logsDir := expandHome(cfg.LogsDir())
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "stakerd.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.Node

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("namespace", cfg.Ledger.Namespace).
		Str("rate", cfg.Rate().String()).
		Msg("Starting Klingnet stake daemon")

	// ── 3. Storage ──────────────────────────────────────────────────
	db, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	// ── 4. Ledger ───────────────────────────────────────────────────
	store, err := account.NewStore(storage.NamespaceDB(db, cfg.Ledger.Namespace), cfg.Ledger.CacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create account store: %w", err)
	}
	engine, err := stake.NewEngine(cfg.Rate())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create stake engine: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	l, err := ledger.New(ledger.Config{
		Namespace: cfg.Ledger.Namespace,
		Store:     store,
		Engine:    engine,
		Clock:     ledger.NewMonotonicClock(),
		Metrics:   m,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger: %w", err)
	}

	count, err := l.AccountCount()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("count accounts: %w", err)
	}
	m.SetAccounts(count)
	logger.Info().Int("accounts", count).Msg("Ledger ready")

	// ── 5. RPC ──────────────────────────────────────────────────────
	n := &Node{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		ledger:  l,
		metrics: m,
	}
	if cfg.RPC.Enabled {
		addr := net.JoinHostPort(cfg.RPC.Addr, strconv.Itoa(cfg.RPC.Port))
		n.rpcServer = rpc.New(addr, l, cfg.RPC, m)
	} else {
		if cfg.Metrics.Enabled {
			logger.Warn().Msg("metrics.enabled is true but RPC is disabled; /metrics unavailable")
		}
		logger.Warn().Msg("RPC disabled by config")
	}

	return n, nil
}

// Start binds the RPC listener.
func (n *Node) Start() error {
	if n.rpcServer == nil {
		return nil
	}
	if err := n.rpcServer.Start(); err != nil {
		return fmt.Errorf("start RPC: %w", err)
	}
	n.logger.Info().
		Str("addr", n.rpcServer.Addr()).
		Bool("metrics", n.metrics != nil).
		Msg("RPC server started")
	return nil
}

// Stop shuts the RPC server down and closes storage.
func (n *Node) Stop() {
	if n.rpcServer != nil {
		if err := n.rpcServer.Stop(); err != nil {
			n.logger.Warn().Err(err).Msg("RPC shutdown")
		}
	}
	if n.db != nil {
		if err := n.db.Close(); err != nil {
			n.logger.Warn().Err(err).Msg("Closing storage")
		}
	}
	n.logger.Info().Msg("Goodbye!")
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// Ledger returns the node's ledger.
func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}
