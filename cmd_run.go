package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"oxidate/compiler"
	"oxidate/lexer"
	"oxidate/parser"
	"oxidate/types"
	"oxidate/vm"
)

// runCmd implements the "run" subcommand: it accepts either a ".ox"
// source file (lexed, type-checked, compiled, then run) or a ".o2"
// serialized bytecode file (decoded and run directly), dispatching on
// extension. oxidate has only one runtime, the VM, so both paths end up
// there.
type runCmd struct {
	quantumMs    int
	gcIntervalMs int
	debug        bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute an oxidate source or bytecode file" }
func (*runCmd) Usage() string {
	return `run [--quantum ms] [--gc-interval ms] [--debug] <file.ox|file.o2>:
  Execute oxidate code.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&r.quantumMs, "quantum", 100, "scheduler time quantum in milliseconds")
	f.IntVar(&r.gcIntervalMs, "gc-interval", 1000, "GC interval in milliseconds")
	f.BoolVar(&r.debug, "debug", false, "trace each (tid, pc, instruction) before execution")
	f.BoolVar(&r.debug, "d", false, "shorthand for -debug")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	var code compiler.Bytecode
	switch {
	case strings.HasSuffix(filename, ".o2"):
		code, err = compiler.DecodeBytecode(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 failed to decode bytecode: %v\n", err)
			return subcommands.ExitFailure
		}

	case strings.HasSuffix(filename, ".ox"):
		code, err = compileSource(string(data))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}

	default:
		fmt.Fprintf(os.Stderr, "💥 unrecognized file extension %q (expected .ox or .o2)\n", filename)
		return subcommands.ExitUsageError
	}

	machine := vm.New(
		vm.WithQuantum(time.Duration(r.quantumMs)*time.Millisecond),
		vm.WithGCInterval(time.Duration(r.gcIntervalMs)*time.Millisecond),
		vm.WithDebug(r.debug),
	)

	go func() {
		<-ctx.Done()
		machine.Cancel()
	}()

	result, err := machine.Run(code)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println(result)
	return subcommands.ExitSuccess
}

// compileSource runs the full lex/parse/typecheck/compile pipeline over a
// ".ox" source buffer, aggregating diagnostics the way the type checker's
// own Diagnostics accumulator is designed to.
func compileSource(source string) (compiler.Bytecode, error) {
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		return compiler.Bytecode{}, fmt.Errorf("💥 lexing error: %w", err)
	}

	program, parseErrs := parser.New(tokens).Parse()
	if len(parseErrs) > 0 {
		var b strings.Builder
		b.WriteString("💥 parsing errors:\n")
		for _, pErr := range parseErrs {
			fmt.Fprintf(&b, "\t%v\n", pErr)
		}
		return compiler.Bytecode{}, fmt.Errorf("%s", b.String())
	}

	diag := types.Check(program)
	if !diag.Ok() {
		var b strings.Builder
		b.WriteString("💥 type errors:\n")
		for _, e := range diag.Errors {
			fmt.Fprintf(&b, "\t%s\n", e)
		}
		return compiler.Bytecode{}, fmt.Errorf("%s", b.String())
	}

	code, err := compiler.NewASTCompiler().CompileProgram(program)
	if err != nil {
		return compiler.Bytecode{}, fmt.Errorf("💥 compilation error: %w", err)
	}
	return code, nil
}
