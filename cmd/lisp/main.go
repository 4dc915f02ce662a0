// Command lisp compiles and runs a single source file: disassembly to
// stdout (unless -quiet), then program output.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nsprague/slisp/bytecode"
	"github.com/nsprague/slisp/cache"
	"github.com/nsprague/slisp/compiler"
	"github.com/nsprague/slisp/config"
	"github.com/nsprague/slisp/history"
	"github.com/nsprague/slisp/lexer"
	"github.com/nsprague/slisp/lspserver"
	"github.com/nsprague/slisp/vm"
	"github.com/nsprague/slisp/worker"
)

// Exit codes. 0 and "non-zero on inability to open the file" are
// spec's literal contract; the finer-grained codes below are additive.
const (
	exitOK         = 0
	exitFileError  = 1
	exitCompileErr = 2
	exitRuntimeErr = 3
)

var (
	configPath = flag.String("config", "", "load a TOML config from PATH instead of ~/.lisprc.toml")
	noRC       = flag.Bool("no-rc", false, "skip loading ~/.lisprc.toml")
	quiet      = flag.Bool("quiet", false, "suppress the disassembly dump")
	cacheDir   = flag.String("cache", "", "cache compiled scripts as CBOR blobs under DIR")
	historyDB  = flag.String("history", "", "log this run to a SQLite history database at PATH")
	lsp        = flag.Bool("lsp", false, "start the stdio language server instead of running a file")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "lisp: config:", err)
		os.Exit(exitFileError)
	}

	if *lsp {
		if err := lspserver.New(vmLimits(cfg)).Run(); err != nil {
			fmt.Fprintln(os.Stderr, "lisp: lsp:", err)
			os.Exit(exitRuntimeErr)
		}
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: lisp [flags] FILE")
		os.Exit(exitFileError)
	}
	filename := flag.Arg(0)

	sourceBytes, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lisp:", err)
		os.Exit(exitFileError)
	}
	source := string(sourceBytes)

	started := time.Now()
	code, runErr := run(filename, source, cfg)

	historyPath := *historyDB
	if historyPath == "" && cfg.History.Enabled {
		historyPath = cfg.History.Path
	}
	if historyPath != "" {
		recordHistory(historyPath, filename, started, code, runErr)
	}

	os.Exit(code)
}

// vmLimits extracts the VM limits requested in cfg's [vm] table.
func vmLimits(cfg *config.Config) vm.Limits {
	return vm.Limits{
		StackCapacity: cfg.VM.StackCapacity,
		MaxCallDepth:  cfg.VM.MaxCallDepth,
	}
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.Load(*configPath)
	}
	if *noRC {
		return config.Default(), nil
	}
	path, err := config.RCPath()
	if err != nil {
		return config.Default(), nil
	}
	return config.Load(path)
}

// run compiles (consulting the cache when enabled) and executes
// source, printing disassembly and program output to stdout. It
// returns the process exit code and the first error encountered, if
// any.
func run(filename, source string, cfg *config.Config) (int, error) {
	dir := *cacheDir
	if dir == "" && cfg.Cache.Enabled {
		dir = cfg.Cache.Dir
	}

	script, err := compileWithCache(filename, source, dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lisp:", err)
		return diagnoseCode(err), err
	}

	if !*quiet && cfg.Output.Disassemble {
		fmt.Print(script.Disassemble())
	}

	w := worker.New(vm.NewWithLimits(vmLimits(cfg)))
	defer w.Stop()

	result, workerErr := w.Do(func(v *vm.VM) interface{} {
		v.Stdout = os.Stdout
		return v.Run(script)
	})
	if workerErr != nil {
		fmt.Fprintln(os.Stderr, "lisp:", workerErr)
		return exitRuntimeErr, workerErr
	}
	if result != nil {
		runErr := result.(error)
		fmt.Fprintln(os.Stderr, "lisp:", runErr)
		return exitRuntimeErr, runErr
	}

	return exitOK, nil
}

func compileWithCache(filename, source, dir string) (*bytecode.Script, error) {
	if dir != "" {
		if cached, err := cache.Load(dir, source); err == nil && cached != nil {
			return cached, nil
		}
	}

	script, err := compiler.Compile(filename, source)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		_ = cache.Store(dir, source, script)
	}
	return script, nil
}

func diagnoseCode(err error) int {
	switch err.(type) {
	case *lexer.LexError, *compiler.CompileError:
		return exitCompileErr
	default:
		return exitRuntimeErr
	}
}

func recordHistory(path, filename string, started time.Time, code int, runErr error) {
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lisp: history:", err)
		return
	}
	defer store.Close()

	rec := history.Run{
		Filename:  filename,
		StartedAt: started,
		Duration:  time.Since(started),
		ExitCode:  code,
	}
	if runErr != nil {
		rec.ErrorKind = errorKind(runErr)
	}
	if err := store.Record(rec); err != nil {
		fmt.Fprintln(os.Stderr, "lisp: history:", err)
	}
}

func errorKind(err error) string {
	switch e := err.(type) {
	case *lexer.LexError:
		return "LexError"
	case *compiler.CompileError:
		return "CompileError: " + e.Kind
	case *vm.TypeError:
		return "TypeError: " + e.Kind
	case *vm.RuntimeError:
		return "RuntimeError: " + e.Kind
	default:
		return "error"
	}
}
