package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"oxidate/compiler"
)

// disasmCmd prints the human-readable mnemonic listing for a ".o2"
// bytecode file. Running a .o2 file directly is "run"'s job; inspecting
// one without running it is this command's.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Disassemble a .o2 bytecode file" }
func (*disasmCmd) Usage() string {
	return `disasm <file.o2>`
}
func (*disasmCmd) SetFlags(f *flag.FlagSet) {}

func (*disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	code, err := compiler.DecodeBytecode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to decode bytecode: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Println(compiler.Disassemble(code.Instructions))
	return subcommands.ExitSuccess
}
