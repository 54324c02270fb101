package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// LoadFile reads a .conf file of "key = value" lines; "#" starts a
// comment line. A missing file yields an empty map.
func LoadFile(path string) (map[string]string, error) {
	values := make(map[string]string)
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		values[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	return values, scanner.Err()
}

// unquote strips one pair of matching single or double quotes.
func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// ApplyFileConfig applies parsed file values to cfg.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// keyAliases maps shorthand keys onto their canonical conf tag.
var keyAliases = map[string]string{
	"rpc":     "rpc.enabled",
	"metrics": "metrics.enabled",
}

// setConfigValue assigns value to the Config field whose conf tag equals
// key. Unknown keys are ignored so newer files still load.
func setConfigValue(cfg *Config, key, value string) error {
	if canonical, ok := keyAliases[key]; ok {
		key = canonical
	}
	field, ok := fieldByTag(reflect.ValueOf(cfg).Elem(), key)
	if !ok {
		return nil
	}
	if key == "storage.backend" {
		value = strings.ToLower(value)
	}
	return assign(field, value)
}

func fieldByTag(v reflect.Value, key string) (reflect.Value, bool) {
	t := v.Type()
	for i := range t.NumField() {
		fv := v.Field(i)
		if t.Field(i).Tag.Get("conf") == key {
			return fv, true
		}
		if fv.Kind() == reflect.Struct {
			if found, ok := fieldByTag(fv, key); ok {
				return found, true
			}
		}
	}
	return reflect.Value{}, false
}

func assign(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		field.SetBool(parseBool(value))
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Slice:
		field.Set(reflect.ValueOf(parseStringList(value)))
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// parseBool accepts true/1/yes/on in any case; everything else is false.
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// parseStringList splits a comma-separated value, dropping blanks.
func parseStringList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WriteDefaultConfig writes a commented stakerd.conf carrying the
// defaults for network.
func WriteDefaultConfig(path string, network NetworkType) error {
	content := `# Klingnet Stake Daemon Configuration

# Network: mainnet or testnet
network = ` + string(network) + `

# Data directory (default: ~/.klingnet-stake)
# datadir = ~/.klingnet-stake

## storage

# badger (persistent) or memory (lost on restart)
storage.backend = badger

## ledger

# Accounts live in a namespace; the same owner may hold one account per
# namespace. Max 32 bytes, no "/".
ledger.namespace = user1

# Points accrue at rate_num/rate_den per base unit per second.
# The default pays 1 point per staked coin (1e9 base units) per second.
ledger.rate_num = 1
ledger.rate_den = 1000000000

# Decoded account records kept in memory (0 disables the cache)
ledger.cache_size = 4096

## rpc

rpc.enabled = true
rpc.addr = 127.0.0.1
rpc.port = ` + defaultRPCPort(network) + `
rpc.allowed = 127.0.0.1
# CORS allowed origins ("*" for all)
# rpc.cors = http://localhost:3000

# Per-request deadline in seconds (0 = none)
rpc.request_ttl = 10

## metrics

# Serve Prometheus metrics at /metrics on the RPC listener
metrics.enabled = false

## logging

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}

func defaultRPCPort(network NetworkType) string {
	return strconv.Itoa(Default(network).RPC.Port)
}
