// Package config handles stakerd configuration.
//
// Settings are layered: built-in defaults, then the stakerd.conf file in the
// data directory, then command-line flags. The result is checked by
// Validate before use.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Storage backends.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// MaxNamespaceLen bounds ledger.namespace. It mirrors the 32-byte limit on a
// single address derivation seed.
const MaxNamespaceLen = 32

// Config holds daemon runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	Storage StorageConfig
	Ledger  LedgerConfig
	RPC     RPCConfig
	Metrics MetricsConfig
	Log     LogConfig
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Backend string `conf:"storage.backend"` // badger or memory
}

// LedgerConfig holds the stake ledger settings.
type LedgerConfig struct {
	Namespace string `conf:"ledger.namespace"`
	RateNum   uint64 `conf:"ledger.rate_num"` // Points per base unit per second = RateNum/RateDen.
	RateDen   uint64 `conf:"ledger.rate_den"`
	CacheSize int    `conf:"ledger.cache_size"` // 0 disables the record cache.
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"`        // Allowed CORS origins ("*" = all).
	RequestTTL  int      `conf:"rpc.request_ttl"` // Per-request deadline in seconds, 0 = none.
}

// MetricsConfig toggles the Prometheus endpoint on the RPC listener.
type MetricsConfig struct {
	Enabled bool `conf:"metrics.enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir picks the per-user data directory: ~/.klingnet-stake on
// Unix, "Application Support/KlingnetStake" on macOS and %APPDATA% on
// Windows. It falls back to a relative directory when no home is known.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-stake"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetStake")
	case "windows":
		if dir, err := os.UserConfigDir(); err == nil {
			return filepath.Join(dir, "KlingnetStake")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetStake")
	}
	return filepath.Join(home, ".klingnet-stake")
}

// NetworkDataDir is DataDir/<network>. The full layout under DataDir:
//
//	stakerd.conf
//	logs/
//	<network>/ledger/    badger files
//	<network>/keystore/  encrypted identities
func (c *Config) NetworkDataDir() string { return filepath.Join(c.DataDir, string(c.Network)) }

func (c *Config) LedgerDir() string   { return filepath.Join(c.NetworkDataDir(), "ledger") }
func (c *Config) KeystoreDir() string { return filepath.Join(c.NetworkDataDir(), "keystore") }
func (c *Config) LogsDir() string     { return filepath.Join(c.DataDir, "logs") }
func (c *Config) ConfigFile() string  { return filepath.Join(c.DataDir, "stakerd.conf") }
