// Package main is the entry point for the sourcesearch command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/dshills/sourcesearch/internal/config"
	"github.com/dshills/sourcesearch/internal/engine/buffer"
	"github.com/dshills/sourcesearch/internal/fileio"
	"github.com/dshills/sourcesearch/internal/logging"
	"github.com/dshills/sourcesearch/internal/loop"
	"github.com/dshills/sourcesearch/internal/metrics"
	"github.com/dshills/sourcesearch/internal/search"
	"github.com/prometheus/client_golang/prometheus"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes follow grep: 0 when something matched, 1 when nothing did.
const (
	exitMatch   = 0
	exitNoMatch = 1
	exitError   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options holds the parsed command line.
type options struct {
	configPath  string
	logLevel    string
	encoding    string
	from        string
	replace     string
	output      string
	regex       bool
	insensitive bool
	word        bool
	wrap        bool
	backward    bool
	count       bool
	unescape    bool
	metrics     bool
	showVersion bool

	// set records which flags appeared on the command line.
	set map[string]bool

	file    string
	pattern string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("sourcesearch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to a TOML or YAML configuration file")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.encoding, "encoding", fileio.CharsetAuto, "Character encoding of FILE")
	fs.StringVar(&opts.from, "from", "", "Find one match from LINE:COL or a byte offset")
	fs.StringVar(&opts.replace, "replace", "", "Replace every match with `TEXT`")
	fs.StringVar(&opts.output, "o", "", "Write the replaced document to `PATH` instead of stdout")
	fs.BoolVar(&opts.regex, "regex", false, "Treat PATTERN as a regular expression")
	fs.BoolVar(&opts.insensitive, "i", false, "Ignore case")
	fs.BoolVar(&opts.word, "word", false, "Match whole words only")
	fs.BoolVar(&opts.wrap, "wrap", false, "Wrap around the document edge with -from")
	fs.BoolVar(&opts.backward, "backward", false, "Search backward with -from")
	fs.BoolVar(&opts.count, "count", false, "Print the number of matches")
	fs.BoolVar(&opts.unescape, "unescape", false, `Expand \n, \t, \r and \\ in a literal PATTERN`)
	fs.BoolVar(&opts.metrics, "metrics", false, "Print engine metrics to stderr on exit")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "sourcesearch - incremental search and replace\n\n")
		fmt.Fprintf(stderr, "Usage: sourcesearch [options] FILE PATTERN\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  sourcesearch main.go Close                List matches\n")
		fmt.Fprintf(stderr, "  sourcesearch -count -regex log.txt 'e\\d+' Count matches\n")
		fmt.Fprintf(stderr, "  sourcesearch -from 10:1 -backward a.go x  Previous match before line 10\n")
		fmt.Fprintf(stderr, "  sourcesearch -replace new -o out.txt in.txt old\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.showVersion {
		return opts, nil
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, errors.New("expected FILE and PATTERN")
	}
	opts.file, opts.pattern = fs.Arg(0), fs.Arg(1)

	if opts.logLevel != "" {
		switch opts.logLevel {
		case "debug", "info", "warn", "error":
		default:
			return nil, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", opts.logLevel)
		}
	}
	if opts.output != "" && !opts.set["replace"] {
		return nil, errors.New("-o requires -replace")
	}
	return opts, nil
}

// loadConfig layers the configuration file, the environment and the
// command line flags over the defaults.
func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if opts.set["regex"] {
		cfg.Search.Regex = opts.regex
	}
	if opts.set["i"] {
		cfg.Search.CaseSensitive = !opts.insensitive
	}
	if opts.set["word"] {
		cfg.Search.AtWordBoundaries = opts.word
	}
	if opts.set["wrap"] {
		cfg.Search.WrapAround = opts.wrap
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitMatch
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "sourcesearch %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return exitMatch
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: stderr,
		Prefix: "sourcesearch",
	})

	doc, err := fileio.Load(opts.file, opts.encoding)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	logger.WithFields(map[string]any{
		"encoding":    doc.Encoding,
		"line_ending": doc.LineEnding.String(),
	}).Debug("loaded %s (%d bytes)", opts.file, doc.Buffer.Len())

	pattern := opts.pattern
	if opts.unescape && !cfg.Search.Regex {
		pattern = search.UnescapeSearchText(pattern)
	}

	reg := prometheus.NewRegistry()
	l := loop.New()
	ctxOpts := append(cfg.ContextOptions(),
		search.WithLogger(logger),
		search.WithLoop(l),
		search.WithMetrics(metrics.New(reg)),
	)
	sc := search.New(doc.Buffer, search.NewSettingsFrom(cfg.Query(pattern)), ctxOpts...)
	defer sc.Close()

	if opts.metrics {
		defer func() {
			if err := metrics.Write(stderr, reg); err != nil {
				logger.Warn("writing metrics failed: %v", err)
			}
		}()
	}

	if err := sc.RegexError(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	cmd := &command{ctx: ctx, sc: sc, loop: l, doc: doc, stdout: stdout, stderr: stderr}
	switch {
	case opts.set["replace"]:
		err = cmd.replaceAll(opts.replace, opts.output)
	case opts.count:
		err = cmd.count()
	case opts.from != "":
		var pos buffer.ByteOffset
		if pos, err = parsePosition(doc.Buffer, opts.from); err == nil {
			err = cmd.find(pos, !opts.backward)
		}
	default:
		err = cmd.list()
	}

	switch {
	case err == nil:
		return exitMatch
	case errors.Is(err, errNoMatch):
		return exitNoMatch
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}

// parsePosition accepts a 1-based LINE:COL pair or a byte offset.
func parsePosition(buf *buffer.Buffer, s string) (buffer.ByteOffset, error) {
	if strings.Contains(s, ":") {
		p, err := buffer.ParsePoint(s)
		if err != nil {
			return 0, err
		}
		return buf.PointToOffset(p), nil
	}
	off, err := strconv.ParseInt(s, 10, 64)
	if err != nil || off < 0 || buffer.ByteOffset(off) > buf.Len() {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return buffer.ByteOffset(off), nil
}
