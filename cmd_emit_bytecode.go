package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"oxidate/compiler"
)

// emitBytecodeCmd compiles a ".ox" source file to a ".o2" bytecode file,
// optionally printing a disassembly alongside it.
type emitBytecodeCmd struct {
	disassemble bool
	out         string
}

func (*emitBytecodeCmd) Name() string { return "emit" }
func (*emitBytecodeCmd) Synopsis() string {
	return "Compile an oxidate source file to a .o2 bytecode file"
}
func (*emitBytecodeCmd) Usage() string {
	return `emit [--disassemble] [--out path] <file.ox>`
}

func (cmd *emitBytecodeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", false, "also print a disassembly to stdout")
	f.StringVar(&cmd.out, "out", "", "output path for the .o2 file (default: same name, .o2 extension)")
}

func (cmd *emitBytecodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	sourceFile := args[0]

	data, err := os.ReadFile(sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	code, err := compileSource(string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	encoded, err := compiler.EncodeBytecode(code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 encode error: %v\n", err)
		return subcommands.ExitFailure
	}

	outPath := cmd.out
	if outPath == "" {
		base := strings.TrimSuffix(sourceFile, ".ox")
		outPath = base + ".o2"
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to write %s: %v\n", outPath, err)
		return subcommands.ExitFailure
	}

	if cmd.disassemble {
		fmt.Println(compiler.Disassemble(code.Instructions))
	}

	return subcommands.ExitSuccess
}
