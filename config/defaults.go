package config

import "github.com/Klingon-tech/klingnet-stake/internal/stake"

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Storage: StorageConfig{
			Backend: BackendBadger,
		},
		Ledger: LedgerConfig{
			Namespace: "user1",
			RateNum:   stake.DefaultRate.Num,
			RateDen:   stake.DefaultRate.Den,
			CacheSize: 4096,
		},
		RPC: RPCConfig{
			Enabled:    true,
			Addr:       "127.0.0.1",
			Port:       8555,
			AllowedIPs: []string{"127.0.0.1"},
			RequestTTL: 10,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.RPC.Port = 8655
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}

// Rate returns the configured accrual rate.
func (c *Config) Rate() stake.Rate {
	return stake.Rate{Num: c.Ledger.RateNum, Den: c.Ledger.RateDen}
}
