package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/funvibe/luax/internal/config"
	"github.com/funvibe/luax/internal/lexer"
	"github.com/funvibe/luax/internal/pipeline"
	"github.com/funvibe/luax/internal/vm"
	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"
	"github.com/tliron/commonlog/simple"
)

const (
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// reportError prints err to w, in red when w is a terminal
func reportError(w *os.File, err error) {
	if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
		fmt.Fprintf(w, "%serror: %s%s\n", colorRed, err, colorReset)
		return
	}
	fmt.Fprintf(w, "error: %s\n", err)
}

// configureLogging installs the simple backend unbuffered, so lines logged
// during a run are written before the process exits. A nil path logs to
// stderr.
func configureLogging(verbosity int, path *string) {
	backend := simple.NewBackend()
	backend.Buffered = false
	commonlog.SetBackend(backend)
	commonlog.Configure(verbosity, path)
}

// isSourceFile checks if a file has a recognized source extension
func isSourceFile(path string) bool {
	for _, ext := range config.SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// run executes the program in path and returns the errors of the first
// failing stage.
func run(path string, stdout io.Writer) []error {
	log := commonlog.GetLogger(config.CLILoggerName)

	file, err := os.Open(path)
	if err != nil {
		return []error{fmt.Errorf("opening source: %w", err)}
	}
	defer file.Close()

	if !isSourceFile(path) {
		log.Warning("unrecognized source file extension", "file", path)
	}

	state := vm.NewState(vm.WithStdout(stdout))
	log.Debug("run started", "file", path, "run", state.RunID().String())

	ctx := pipeline.NewPipelineContext(file)
	ctx.FilePath = path
	p := pipeline.New(
		&lexer.LexerProcessor{},
		&vm.CompilerProcessor{},
		vm.NewExecutionProcessor(state),
	)
	ctx = p.Run(ctx)

	if chunk, ok := ctx.Chunk.(*vm.Chunk); ok {
		log.Debug("compiled", "file", path, "listing", vm.Disassemble(chunk, path))
	}
	log.Debug("run finished", "file", path, "diagnostics", len(state.Diagnostics), "errors", len(ctx.Errors))
	return ctx.Errors
}

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if len(os.Args) < 2 || os.Args[1] == "" {
		fmt.Printf(config.UsageLine+"\n", os.Args[0])
		return
	}

	configureLogging(config.LogVerbosity, nil)

	if errs := run(os.Args[1], os.Stdout); len(errs) > 0 {
		for _, err := range errs {
			reportError(os.Stderr, err)
		}
		os.Exit(1)
	}
}
