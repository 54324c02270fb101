package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Version is the stakerd release string.
const Version = "0.1.0"

// Flags is the parsed stakerd command line. Network, DataDir and Config
// shape where configuration is read from; every other option is an
// override of a conf key and lands in Overrides.
type Flags struct {
	Help    bool
	Version bool

	Network string
	DataDir string
	Config  string

	// Overrides maps conf keys to the raw values given on the command
	// line. Only flags the user actually passed appear here.
	Overrides map[string]string

	Args []string
}

// option binds a command-line flag to the conf key it overrides.
type option struct {
	section string
	name    string
	key     string
	boolean bool
	usage   string
}

var options = []option{
	{"Storage", "storage", "storage.backend", false, "Backend: badger (default) or memory"},

	{"Ledger", "namespace", "ledger.namespace", false, "Ledger namespace (default: user1)"},
	{"Ledger", "rate-num", "ledger.rate_num", false, "Accrual rate numerator (default: 1)"},
	{"Ledger", "rate-den", "ledger.rate_den", false, "Accrual rate denominator (default: 1000000000)"},
	{"Ledger", "cache-size", "ledger.cache_size", false, "Account record cache size (default: 4096, 0 = off)"},

	{"RPC", "rpc", "rpc.enabled", true, "Enable RPC server (default: true)"},
	{"RPC", "rpc-addr", "rpc.addr", false, "RPC listen address (default: 127.0.0.1)"},
	{"RPC", "rpc-port", "rpc.port", false, "RPC port (mainnet: 8555, testnet: 8655)"},
	{"RPC", "rpc-allowed", "rpc.allowed", false, "Allowed IPs or CIDRs for RPC (comma-separated)"},
	{"RPC", "rpc-cors", "rpc.cors", false, "Allowed CORS origins for RPC (comma-separated)"},
	{"RPC", "rpc-ttl", "rpc.request_ttl", false, "Per-request deadline in seconds (default: 10)"},

	{"Metrics", "metrics", "metrics.enabled", true, "Serve Prometheus metrics at /metrics"},

	{"Logging", "log-level", "log.level", false, "Log level: trace, debug, info, warn, error (default: info)"},
	{"Logging", "log-file", "log.file", false, "Log file path (default: stdout only)"},
	{"Logging", "log-json", "log.json", true, "Output logs as JSON"},
}

// override is the flag.Value behind every option. Set checks the value
// against a scratch config so a bad number fails at parse time.
type override struct {
	opt   option
	flags *Flags
}

func (o *override) String() string   { return "" }
func (o *override) IsBoolFlag() bool { return o.opt.boolean }

func (o *override) Set(v string) error {
	if err := setConfigValue(DefaultMainnet(), o.opt.key, v); err != nil {
		return err
	}
	o.flags.Overrides[o.opt.key] = v
	return nil
}

// ParseArgs parses stakerd flags from args (without the program name).
func ParseArgs(args []string) (*Flags, error) {
	f := &Flags{Overrides: make(map[string]string)}
	fs := flag.NewFlagSet("stakerd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&f.Help, "help", false, "")
	fs.BoolVar(&f.Help, "h", false, "")
	fs.BoolVar(&f.Version, "version", false, "")
	fs.BoolVar(&f.Version, "v", false, "")
	fs.StringVar(&f.Network, "network", "", "")
	testnet := fs.Bool("testnet", false, "")
	fs.StringVar(&f.DataDir, "datadir", "", "")
	fs.StringVar(&f.Config, "config", "", "")
	fs.StringVar(&f.Config, "c", "", "")
	for _, opt := range options {
		fs.Var(&override{opt: opt, flags: f}, opt.name, opt.usage)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *testnet {
		f.Network = string(Testnet)
	}

	// flag stops at the first positional argument; a flag after it would
	// otherwise be dropped without notice.
	f.Args = fs.Args()
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("flag %q was not parsed (positional argument stopped parsing)", arg)
		}
	}
	return f, nil
}

// ParseFlags parses os.Args and exits on error.
func ParseFlags() *Flags {
	f, err := ParseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		printUsage(os.Stdout)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'stakerd --help' for usage.")
		os.Exit(1)
	}
	return f
}

// ApplyFlags layers command-line values over cfg.
func ApplyFlags(cfg *Config, f *Flags) error {
	if f.Network != "" {
		cfg.Network = NetworkType(strings.ToLower(f.Network))
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	for key, value := range f.Overrides {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("flag for %q: %w", key, err)
		}
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Klingnet Stake - staking ledger daemon

Usage:
  stakerd [options]

  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --network       Network type: mainnet (default) or testnet
  --testnet       Shorthand for --network=testnet
  --datadir       Data directory (default: ~/.klingnet-stake)
  --config, -c    Config file path (default: <datadir>/stakerd.conf)
`)
	section := ""
	for _, opt := range options {
		if opt.section != section {
			section = opt.section
			fmt.Fprintf(w, "\n%s Options:\n", section)
		}
		fmt.Fprintf(w, "  --%-13s %s\n", opt.name, opt.usage)
	}
	fmt.Fprint(w, `
Examples:
  stakerd
  stakerd --testnet --storage=memory --log-level=debug
  stakerd --namespace=pool2 --metrics
`)
}

// Load resolves configuration from defaults, the config file and the
// command line, in that order of precedence. --help and --version exit.
func Load() (*Config, *Flags, error) {
	flags := ParseFlags()
	switch {
	case flags.Help:
		printUsage(os.Stdout)
		os.Exit(0)
	case flags.Version:
		fmt.Printf("stakerd version %s\n", Version)
		os.Exit(0)
	}

	cfg, err := Resolve(flags)
	if err != nil {
		return nil, nil, err
	}
	return cfg, flags, nil
}

// Resolve builds the configuration for already-parsed flags. The data
// directory and a default stakerd.conf are created on first use.
func Resolve(flags *Flags) (*Config, error) {
	network := Mainnet
	if strings.EqualFold(flags.Network, string(Testnet)) {
		network = Testnet
	}
	cfg := Default(network)
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	path := flags.Config
	if path == "" {
		path = cfg.ConfigFile()
	}
	values, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, values); err != nil {
		return nil, fmt.Errorf("applying config file: %w", err)
	}
	if err := ApplyFlags(cfg, flags); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// EnsureDataDirs creates the directory layout and writes a default
// stakerd.conf when none exists. It is idempotent.
func EnsureDataDirs(cfg *Config) error {
	for _, dir := range []string{cfg.LedgerDir(), cfg.KeystoreDir(), cfg.LogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	path := cfg.ConfigFile()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := WriteDefaultConfig(path, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
