package config

import (
	"fmt"
	"net/netip"
	"strings"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}

	switch cfg.Storage.Backend {
	case BackendBadger, BackendMemory:
	default:
		return fmt.Errorf("storage.backend must be %q or %q", BackendBadger, BackendMemory)
	}

	ns := cfg.Ledger.Namespace
	if ns == "" {
		return fmt.Errorf("ledger.namespace is empty")
	}
	if len(ns) > MaxNamespaceLen {
		return fmt.Errorf("ledger.namespace is %d bytes, max is %d", len(ns), MaxNamespaceLen)
	}
	if strings.ContainsAny(ns, "/ \t") {
		return fmt.Errorf("ledger.namespace must not contain '/' or whitespace")
	}
	if cfg.Ledger.RateDen == 0 {
		return fmt.Errorf("ledger.rate_den must be greater than zero")
	}
	if cfg.Ledger.CacheSize < 0 {
		return fmt.Errorf("ledger.cache_size must not be negative")
	}

	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	for _, e := range cfg.RPC.AllowedIPs {
		if _, err := netip.ParsePrefix(e); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(e); err != nil {
			return fmt.Errorf("rpc.allowed entry %q is neither an IP nor a CIDR", e)
		}
	}
	if cfg.RPC.RequestTTL < 0 {
		return fmt.Errorf("rpc.request_ttl must not be negative")
	}
	if cfg.Metrics.Enabled && !cfg.RPC.Enabled {
		return fmt.Errorf("metrics.enabled requires rpc.enabled")
	}

	if cfg.Log.Level != "" && !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("log.level %q is not one of trace, debug, info, warn, error", cfg.Log.Level)
	}
	return nil
}
