// Package log provides structured, colored logging for the stake ledger.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// consoleTimeFormat is the timestamp layout for human-readable output.
const consoleTimeFormat = "15:04:05"

// Logger is the process-wide root logger.
var Logger zerolog.Logger

// Per-component loggers, rebuilt by Init.
var (
	Ledger  zerolog.Logger
	Store   zerolog.Logger
	RPC     zerolog.Logger
	Node    zerolog.Logger
	Wallet  zerolog.Logger
	Storage zerolog.Logger
)

func init() {
	Logger = NewConsoleLogger(os.Stdout, "info")
	initComponentLoggers()
}

// Init rebuilds Logger and the component loggers. Console output is
// colored unless jsonOutput is set. A non-empty file also receives every
// line, always as JSON.
func Init(level string, jsonOutput bool, file string) error {
	var console io.Writer = os.Stdout
	if !jsonOutput {
		console = consoleWriter(os.Stdout)
	}

	out := console
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		out = zerolog.MultiLevelWriter(console, f)
	}

	Logger = newLogger(out, level)
	initComponentLoggers()
	return nil
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(consoleWriter(w), level)
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(w, level)
}

// Nop disables all logging. Tests call it to keep output quiet.
func Nop() {
	Logger = zerolog.Nop()
	initComponentLoggers()
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: consoleTimeFormat,
	}
}

// parseLevel maps a config level name onto zerolog, defaulting to info
// for empty or unknown names.
func parseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func initComponentLoggers() {
	Ledger = WithComponent("ledger")
	Store = WithComponent("store")
	RPC = WithComponent("rpc")
	Node = WithComponent("node")
	Wallet = WithComponent("wallet")
	Storage = WithComponent("storage")
}

// WithComponent derives a logger tagged component=name from Logger.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
