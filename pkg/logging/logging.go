// Package logging builds the console logger every command writes through.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "COMPOSE_ALL_LOG_LEVEL"
	EnvLogNoColor = "COMPOSE_ALL_LOG_NOCOLOR"
)

const (
	TerminalTimeFormat = "15:04:05"
	FileTimeFormat     = "2006-01-02 15:04:05 -0700"
)

// Options configures New
type Options struct {
	Out       io.Writer
	Verbosity int
	// NoColor disables ANSI styling; it is implied when Out is not a terminal.
	NoColor bool
}

// Init builds the logger for stdout
func Init(verbosity int) zerolog.Logger {
	return New(Options{Out: os.Stdout, Verbosity: verbosity})
}

// New returns a console logger. Timestamps are short on a terminal and carry
// the date and zone otherwise, so redirected logs stay meaningful.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	tty := isTerminal(out)
	timeFormat := FileTimeFormat
	if tty {
		timeFormat = TerminalTimeFormat
	}

	noColor := opts.NoColor || NoColor(out)

	level := levelFor(opts.Verbosity)
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		level = lvl
	}

	writer := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: timeFormat,
		NoColor:    noColor,
	}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// NoColor reports whether output to out should be plain. NO_COLOR wins,
// then EnvLogNoColor, then terminal detection.
func NoColor(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		return v
	}
	return !isTerminal(out)
}

func levelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity >= 2:
		return zerolog.TraceLevel
	case verbosity == 1:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
