package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"oxidate/compiler"
	"oxidate/lexer"
	"oxidate/parser"
	"oxidate/token"
	"oxidate/types"
	"oxidate/vm"
)

// replCmd implements the REPL: a line-buffered prompt, "/exit" to quit,
// each accepted input lexed, optionally type-checked, compiled, and run
// against a shared VM whose global environment persists across inputs.
// Input is buffered until braces balance. Uses
// `github.com/chzyer/readline` instead of a raw bufio.Scanner, for
// history and line editing.
type replCmd struct {
	quantumMs    int
	gcIntervalMs int
	debug        bool
	notype       bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive oxidate session" }
func (*replCmd) Usage() string {
	return `repl [--quantum ms] [--gc-interval ms] [--debug] [--notype]:
  Start an interactive REPL session.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&r.quantumMs, "quantum", 100, "scheduler time quantum in milliseconds")
	f.IntVar(&r.gcIntervalMs, "gc-interval", 1000, "GC interval in milliseconds")
	f.BoolVar(&r.debug, "debug", false, "trace each (tid, pc, instruction) before execution")
	f.BoolVar(&r.debug, "d", false, "shorthand for -debug")
	f.BoolVar(&r.notype, "notype", false, "disable the type checker in the REPL")
	f.BoolVar(&r.notype, "n", false, "shorthand for -notype")
}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("oxidate REPL — /exit to quit")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepathJoinTemp("oxidate_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "/exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	machine := vm.New(
		vm.WithQuantum(time.Duration(r.quantumMs)*time.Millisecond),
		vm.WithGCInterval(time.Duration(r.gcIntervalMs)*time.Millisecond),
		vm.WithDebug(r.debug),
	)
	go func() {
		<-ctx.Done()
		machine.Cancel()
	}()

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "/exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens, err := lexer.New(source).Scan()
		if err != nil {
			fmt.Println(err)
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		program, parseErrs := parser.New(tokens).Parse()
		if len(parseErrs) > 0 {
			if allParseErrorsAtEOF(parseErrs, tokens[len(tokens)-1]) {
				continue
			}
			fmt.Fprintln(os.Stderr, "💥 parsing errors:")
			for _, pErr := range parseErrs {
				fmt.Fprintf(os.Stderr, "\t%v\n", pErr)
			}
			buffer.Reset()
			continue
		}

		if !r.notype {
			diag := types.Check(program)
			if !diag.Ok() {
				fmt.Fprintln(os.Stderr, "💥 type errors:")
				for _, e := range diag.Errors {
					fmt.Fprintf(os.Stderr, "\t%s\n", e)
				}
				buffer.Reset()
				continue
			}
		}

		code, err := compiler.NewASTCompiler().CompileProgram(program)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			buffer.Reset()
			continue
		}

		result, err := machine.Run(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			buffer.Reset()
			continue
		}
		fmt.Println(result)
		buffer.Reset()
	}
}

// filepathJoinTemp builds a history-file path under the OS temp directory,
// avoiding a stray readline history file in whatever directory the REPL
// happens to be launched from.
func filepathJoinTemp(name string) string {
	return strings.TrimRight(os.TempDir(), "/") + "/" + name
}

// isInputReady reports whether a buffered line of input has balanced
// braces and doesn't end on a token that obviously expects a continuation
// (an operator, an opening delimiter, or a keyword that starts a
// construct needing a body).
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LBRACE:
			braceBalance++
		case token.RBRACE:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN, token.ADD, token.SUB, token.MULT, token.DIV, token.MOD,
		token.BANG, token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS, token.LESS_EQUAL,
		token.LARGER, token.LARGER_EQUAL, token.AND_AND, token.OR_OR,
		token.COMMA, token.LPAREN, token.LBRACE, token.COLON, token.ARROW,
		token.IF, token.ELSE, token.LOOP, token.FN, token.RETURN, token.LET,
		token.SPAWN, token.WAIT, token.POST, token.JOIN:
		return false
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

func allParseErrorsAtEOF(parseErrs []error, eof token.Token) bool {
	for _, parseErr := range parseErrs {
		syntaxErr, ok := parseErr.(parser.SyntaxError)
		if !ok {
			return false
		}
		if syntaxErr.Line != eof.Line || syntaxErr.Column != eof.Column {
			return false
		}
	}
	return len(parseErrs) > 0
}
