package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"

	"github.com/leonardinius/golox/internal/loxerrors"
	"github.com/leonardinius/golox/internal/vm"
)

// Exit codes follow the sysexits.h convention the teacher's test runner
// already expects: 65 is EX_DATAERR (compile error), 70 is EX_SOFTWARE
// (runtime error).
const (
	exitSuccess      = 0
	exitCompileError = 65
	exitRuntimeError = 70
)

// LoxApp owns one VM instance across the lifetime of the process so REPL
// globals persist between prompts, matching clox's REPL behavior.
type LoxApp struct {
	exitCode int
	machine  *vm.VM
	reporter loxerrors.ErrReporter
}

// NewLoxApp builds a LoxApp that reports errors to stderr. The VM itself is
// created by Main, which parses -stress-gc/-log-gc from its args first.
func NewLoxApp() *LoxApp {
	return &LoxApp{reporter: loxerrors.NewErrReporter(os.Stderr)}
}

func (app *LoxApp) reportCompileError(err error) {
	app.reporter.ReportError(err)
	app.exitCode = exitCompileError
}

func (app *LoxApp) reportRuntimeError(err error) {
	app.reporter.ReportPanic(err)
	app.exitCode = exitRuntimeError
}

func (app *LoxApp) Main(args []string) int {
	fs := flag.NewFlagSet("golox", flag.ContinueOnError)
	stressGC := fs.Bool("stress-gc", false, "collect before every allocation")
	logGC := fs.Bool("log-gc", false, "log a summary line after every collection")
	if err := fs.Parse(args); err != nil {
		return exitCompileError
	}

	options := []vm.Option{vm.WithStressGC(*stressGC)}
	if *logGC {
		options = append(options, vm.WithGCLog(func(format string, a ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", a...)
		}))
	}
	app.machine = vm.New(options...)

	rest := fs.Args()
	var err error
	switch len(rest) {
	case 1:
		err = app.runFile(rest[0])
	case 0:
		err = app.runPrompt()
	default:
		err = fmt.Errorf("Usage: golox [script]")
	}

	if err != nil {
		app.reporter.ReportError(err)
		if app.exitCode == exitSuccess {
			app.exitCode = exitCompileError
		}
	}

	return app.exitCode
}

func (app *LoxApp) runPrompt() error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		app.run(line)
	}
}

func (app *LoxApp) runFile(scriptPath string) error {
	bytes, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}

	app.run(string(bytes))
	return nil
}

func (app *LoxApp) run(input string) {
	err := app.machine.Interpret(input)
	if err == nil {
		return
	}

	var runtimeErr *loxerrors.RuntimeError
	if errors.As(err, &runtimeErr) {
		app.reportRuntimeError(err)
		return
	}
	app.reportCompileError(err)
}
