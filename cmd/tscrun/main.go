// tscrun compiles a TypeScript buffer with an external tsc without blocking
// its UI loop, then shows the compiled JavaScript or the compiler
// diagnostics. It plays the editor host for a terminal session.
//
// Usage:
//
//	tscrun [flags] <file.ts>    compile a file on disk
//	tscrun [flags] < buffer.ts  compile an unsaved buffer read from stdin
//	tscrun doctor [flags]       check the configured toolchain
//
// Flags:
//
//	--config PATH     Settings file (default: tscbridge.yaml)
//	--set KEY=VAL     Override a setting, e.g. node_path=/opt/node/bin/node (repeatable)
//	--debug           Log job lifecycle to stderr
//	--version         Print version and exit
//	--help            Show usage
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/sibikrish3000/tscbridge/internal/compile"
	"github.com/sibikrish3000/tscbridge/internal/config"
	"github.com/sibikrish3000/tscbridge/internal/toolpath"
	"github.com/sibikrish3000/tscbridge/pkg/procrun"
	"github.com/sibikrish3000/tscbridge/pkg/uiloop"
)

// Build-time variables, injected via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK          = 0
	exitCompile     = 1 // diagnostics, misconfiguration or a failed run
	exitUsage       = 2
	exitFatal       = 3 // unexpected OS error while spawning
	exitInterrupted = 130
)

const defaultConfigFile = "tscbridge.yaml"

// setFlags collects repeatable --set KEY=VAL flags.
type setFlags map[string]string

func (s setFlags) String() string {
	parts := make([]string, 0, len(s))
	for k, v := range s {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ", ")
}

func (s setFlags) Set(val string) error {
	k, v, ok := strings.Cut(val, "=")
	if !ok || k == "" {
		return fmt.Errorf("invalid setting %q, expected KEY=VAL", val)
	}
	if !config.IsKey(k) {
		return fmt.Errorf("unknown setting %q (known: %s)", k, strings.Join(config.Keys(), ", "))
	}
	s[k] = v
	return nil
}

func (s setFlags) lookup(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}

type options struct {
	configPath string
	settings   setFlags
	debug      bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, bool, error) {
	opts := options{settings: setFlags{}}
	var showVersion bool

	fs.StringVar(&opts.configPath, "config", defaultConfigFile, "Settings file")
	fs.Var(opts.settings, "set", "Override a setting as KEY=VAL (repeatable)")
	fs.BoolVar(&opts.debug, "debug", false, "Log job lifecycle to stderr")
	fs.BoolVar(&showVersion, "version", false, "Print version information and exit")

	err := fs.Parse(args)
	return opts, showVersion, err
}

func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err = cfg.Overlay(opts.settings.lookup)
	if err != nil {
		return config.Config{}, err
	}
	if opts.debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "doctor" {
		os.Exit(runDoctor(os.Args[2:], os.Stdout, os.Stderr))
	}
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tscrun", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tscrun [flags] <file.ts>\n")
		fmt.Fprintf(stderr, "       tscrun [flags] < buffer.ts\n")
		fmt.Fprintf(stderr, "       tscrun doctor [flags]\n\n")
		fmt.Fprintf(stderr, "Compile TypeScript with an external tsc and show the result.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  tscrun app.ts\n")
		fmt.Fprintf(stderr, "  echo 'let x: number = 1' | tscrun\n")
		fmt.Fprintf(stderr, "  tscrun --set node_path=/opt/node/bin/node --set output_ext=.mjs app.ts\n")
	}

	opts, showVersion, err := parseFlags(fs, args)
	if err != nil {
		return exitUsage
	}
	if showVersion {
		fmt.Fprintf(stdout, "tscrun %s\n  commit: %s\n  built:  %s\n  go:     %s\n", version, commit, date, runtime.Version())
		return exitOK
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	buf, err := readBuffer(fs.Args(), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, "Run 'tscrun --help' for usage.")
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return compileBuffer(ctx, cfg, buf, stdout, stderr, isTerminal(stdout))
}

// compileBuffer runs one compile with the calling goroutine as the UI loop.
func compileBuffer(ctx context.Context, cfg config.Config, buf compile.Buffer, stdout, stderr io.Writer, color bool) int {
	logger := newLogger(stderr, cfg.Debug)
	host := newTermHost(stdout, stderr, color)
	ui := uiloop.New(logger)

	exitCode := exitOK
	orch := compile.New(cfg, host, ui, compile.Options{
		Logger: logger,
		OnDone: func(c compile.Completion) {
			var fatal *procrun.FatalError
			if errors.As(c.Err, &fatal) {
				exitCode = exitFatal
			}
			ui.Close()
		},
	})

	err := ui.Schedule(func() {
		if _, err := orch.Compile(buf); err != nil {
			host.ErrorMessage(err.Error())
			ui.Close()
		}
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}

	if err := ui.Run(ctx); err != nil {
		fmt.Fprintln(stderr, "\n[tscrun] Interrupted.")
		return exitInterrupted
	}

	if exitCode == exitOK && host.Failed() {
		exitCode = exitCompile
	}
	return exitCode
}

// readBuffer builds the buffer to compile: a file named on the command
// line, or an unsaved buffer piped on stdin.
func readBuffer(args []string, stdin io.Reader) (compile.Buffer, error) {
	switch len(args) {
	case 0:
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return compile.Buffer{}, fmt.Errorf("no file specified and stdin is a terminal")
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return compile.Buffer{}, fmt.Errorf("reading stdin: %w", err)
		}
		return compile.Buffer{Text: string(data)}, nil
	case 1:
		if args[0] == "-" {
			return readBuffer(nil, stdin)
		}
		return compile.Buffer{FileName: args[0]}, nil
	default:
		return compile.Buffer{}, fmt.Errorf("expected one file, got %d", len(args))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// runDoctor checks that the configured interpreter and compiler exist and
// suggests discovered alternatives when they do not.
func runDoctor(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tscrun doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts, _, err := parseFlags(fs, args)
	if err != nil {
		return exitUsage
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	found := toolpath.Detect()
	ok := true
	check := func(key, path string, present bool, alt string) {
		if present {
			fmt.Fprintf(stdout, "  ok       %-16s %s\n", key, path)
			return
		}
		ok = false
		fmt.Fprintf(stdout, "  missing  %-16s %s\n", key, path)
		if alt != "" && alt != path {
			fmt.Fprintf(stdout, "           try: tscrun --set %s=%s\n", key, alt)
		}
	}

	fmt.Fprintf(stdout, "Toolchain (PATH is: %s)\n", procrun.SearchPath())
	check(config.KeyNodePath, cfg.Node(), toolpath.IsExecutable(cfg.Node()), found.Node)
	check(config.KeyTypeScriptPath, cfg.TypeScript(), toolpath.Exists(cfg.TypeScript()), found.Compiler)

	if !ok {
		return exitCompile
	}
	return exitOK
}
