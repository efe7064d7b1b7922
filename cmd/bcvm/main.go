// bcvm CLI - runs textual stack bytecode programs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"

	"github.com/chazu/bcvm/manifest"
	"github.com/chazu/bcvm/pkg/bytecode"
	"github.com/chazu/bcvm/pkg/dist"
	"github.com/chazu/bcvm/server"
	"github.com/chazu/bcvm/store"
	"github.com/chazu/bcvm/vm"

	_ "github.com/tliron/commonlog/simple"
)

var version = "0.1.0"

var log = commonlog.GetLogger("bcvm.cli")

// Exit codes.
const (
	exitOK            = 0
	exitFailure       = 1
	exitSyntax        = 2
	exitUndefinedVar  = 3
	exitStackOverflow = 4
	exitInternal      = 5
	exitStepLimit     = 6
)

func main() {
	atexit.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	config    string
	stackSize int
	maxSteps  int
	trace     bool
	verbose   bool
	disasm    bool
	check     bool
	compile   string
	db        string
	history   bool
	lsp       bool
	version   bool
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	o := &options{}
	fs := flag.NewFlagSet("bcvm", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.config, "config", "", "bcvm.toml to load (default: search upward from the working directory)")
	fs.IntVar(&o.stackSize, "stack-size", 0, "Operand stack capacity")
	fs.IntVar(&o.maxSteps, "max-steps", 0, "Instruction budget, 0 for unlimited")
	fs.BoolVar(&o.trace, "trace", false, "Log every executed instruction")
	fs.BoolVar(&o.verbose, "v", false, "Verbose output")
	fs.BoolVar(&o.disasm, "disasm", false, "Print the program listing and exit")
	fs.BoolVar(&o.check, "check", false, "Run static diagnostics and exit")
	fs.StringVar(&o.compile, "compile", "", "Write a compiled chunk to this path and exit")
	fs.StringVar(&o.db, "db", "", "Record runs in this SQLite ledger")
	fs.BoolVar(&o.history, "history", false, "Print recorded runs of the program and exit (needs a ledger)")
	fs.BoolVar(&o.lsp, "lsp", false, "Serve the language server on stdio")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: bcvm [options] <file>\n\n")
		fmt.Fprintf(stderr, "Runs a bytecode program and prints its result.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  bcvm count.bc                    # Run a program\n")
		fmt.Fprintf(stderr, "  bcvm -check count.bc             # Report problems without running\n")
		fmt.Fprintf(stderr, "  bcvm -compile count.bcc count.bc # Compile to a chunk file\n")
		fmt.Fprintf(stderr, "  bcvm -db runs.db -history count.bc\n")
		fmt.Fprintf(stderr, "  bcvm -lsp                        # Start the language server\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return o, fs, nil
}

// loadConfig finds the manifest and applies explicitly set flags on top.
func loadConfig(o *options, fs *flag.FlagSet) (*manifest.Manifest, error) {
	var (
		m   *manifest.Manifest
		err error
	)
	if o.config != "" {
		m, err = manifest.LoadFile(o.config)
	} else {
		var wd string
		if wd, err = os.Getwd(); err == nil {
			m, err = manifest.FindAndLoad(wd)
		}
	}
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stack-size":
			m.VM.StackSize = o.stackSize
		case "max-steps":
			m.VM.MaxSteps = o.maxSteps
		case "trace":
			m.VM.Trace = o.trace
		case "db":
			m.Store.Path = o.db
		}
	})
	if m.VM.MaxSteps < 0 {
		return nil, fmt.Errorf("max-steps must not be negative")
	}
	if o.verbose && m.Log.Verbosity < 1 {
		m.Log.Verbosity = 1
	}
	if m.VM.Trace && m.Log.Verbosity < 2 {
		m.Log.Verbosity = 2
	}
	return m, nil
}

func configureLogging(m *manifest.Manifest) {
	var path *string
	if file := m.LogFile(); file != "" {
		path = &file
	}
	commonlog.Configure(m.Log.Verbosity, path)
}

func run(args []string, stdout, stderr io.Writer) int {
	o, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}

	if o.version {
		fmt.Fprintf(stdout, "bcvm %s\n", version)
		return exitOK
	}

	m, err := loadConfig(o, fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	configureLogging(m)

	var ledger *store.Store
	if path := m.StorePath(); path != "" {
		ledger, err = store.Open(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
		atexit.Register(func() { ledger.Close() })
		defer ledger.Close()
	}

	if o.lsp {
		return serveLSP(m, ledger, stderr)
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return exitFailure
	}
	path := fs.Arg(0)

	chunk, prog, err := dist.LoadProgram(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	log.Debugf("loaded %s as chunk %s", path, chunk.ID())

	switch {
	case o.check:
		return checkProgram(path, prog, stdout)

	case o.disasm:
		fmt.Fprint(stdout, prog.DisassembleWithName(path))
		return exitOK

	case o.compile != "":
		if err := dist.WriteFile(o.compile, chunk); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
		log.Noticef("compiled %s to %s (%s)", path, o.compile, chunk.ID())
		return exitOK

	case o.history:
		if ledger == nil {
			fmt.Fprintf(stderr, "Error: -history needs a ledger (-db or [store] path)\n")
			return exitFailure
		}
		return printHistory(ledger, chunk, stdout, stderr)
	}

	return execute(chunk, prog, m.Options(), ledger, stdout, stderr)
}

// execute runs prog, optionally recording it in the ledger under chunk.
func execute(chunk *dist.Chunk, prog *bytecode.Program, opts bytecode.Options, ledger *store.Store, stdout, stderr io.Writer) int {
	log.Info("Running bytecode interpreter...")

	interp := bytecode.NewForProgram(prog, opts)
	started := time.Now()
	result, err := interp.RunContext(context.Background())

	if ledger != nil {
		if perr := ledger.PutChunk(chunk); perr != nil {
			log.Errorf("storing chunk: %s", perr)
		} else {
			r := store.NewRun(chunk.Hash, result, err, interp.Steps(), started)
			if perr := ledger.RecordRun(&r); perr != nil {
				log.Errorf("recording run: %s", perr)
			} else {
				log.Infof("recorded run %s", r.ID)
			}
		}
	}

	if err != nil {
		log.Errorf("run failed after %d steps: %s", interp.Steps(), err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	fmt.Fprintf(stdout, "The result is %d\n", result)
	return exitOK
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, bytecode.ErrStepLimit):
		return exitStepLimit
	}
	switch vm.KindOf(err) {
	case vm.KindSyntax, vm.KindInvalidOp:
		return exitSyntax
	case vm.KindUndefinedVar:
		return exitUndefinedVar
	case vm.KindStackOverflow:
		return exitStackOverflow
	case vm.KindInternal:
		return exitInternal
	}
	return exitFailure
}

func checkProgram(path string, prog *bytecode.Program, stdout io.Writer) int {
	diags := bytecode.Check(prog)
	for _, d := range diags {
		fmt.Fprintf(stdout, "%s:%s\n", path, d)
	}
	if bytecode.HasErrors(diags) {
		return exitSyntax
	}
	return exitOK
}

func printHistory(ledger *store.Store, chunk *dist.Chunk, stdout, stderr io.Writer) int {
	runs, err := ledger.Runs(chunk.Hash)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	fmt.Fprintf(stdout, "%s: %d runs\n", chunk.ID(), len(runs))
	for _, r := range runs {
		outcome := fmt.Sprintf("result %d", r.Result)
		if r.Failed() {
			outcome = fmt.Sprintf("%s: %s", r.ErrKind, r.ErrMsg)
		}
		fmt.Fprintf(stdout, "  %s  %s  %6d steps  %10s  %s\n",
			r.StartedAt.Format(time.RFC3339), r.ID, r.Steps, r.Duration.Round(time.Microsecond), outcome)
	}
	return exitOK
}

func serveLSP(m *manifest.Manifest, ledger *store.Store, stderr io.Writer) int {
	worker := server.NewRunWorker(m.Options(), ledger)
	lsp := server.NewLSP(worker, version)
	log.Notice("serving language server on stdio")
	if err := lsp.Run(); err != nil {
		fmt.Fprintf(stderr, "LSP error: %v\n", err)
		return exitFailure
	}
	return exitOK
}
