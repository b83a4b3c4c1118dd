package vm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"oxidate/compiler"
	"oxidate/lexer"
	"oxidate/parser"
	"oxidate/vm"
)

// runSource drives the full lexer -> parser -> compiler -> VM pipeline,
// exercising literal end-to-end scenarios.
func runSource(t *testing.T, src string, opts ...vm.Option) vm.Value {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	require.NoError(t, err, "lexing %q", src)
	program, parseErrs := parser.New(tokens).Parse()
	require.Empty(t, parseErrs, "parsing %q", src)
	code, err := compiler.NewASTCompiler().CompileProgram(program)
	require.NoError(t, err, "compiling %q", src)
	result, err := vm.New(opts...).Run(code)
	require.NoError(t, err, "running %q", src)
	return result
}

func TestArithmeticPrecedence(t *testing.T) {
	v := runSource(t, "2 + 3 * 4")
	require.Equal(t, vm.IntValue(14), v)
}

func TestNestedBlockShadowingIsLexical(t *testing.T) {
	v := runSource(t, "let x = 10; let result = { let x = 5; x }; result + x")
	require.Equal(t, vm.IntValue(15), v)
}

func TestLoopAccumulatesUntilCondition(t *testing.T) {
	v := runSource(t, "let x = 0; loop x < 3 { x = x + 1; } x")
	require.Equal(t, vm.IntValue(3), v)
}

func TestClosureCapturesEnclosingParameter(t *testing.T) {
	src := `fn adder(x:int) -> fn(int)->int {
		fn g(y:int)->int { x+y }
		return g;
	}
	let add5 = adder(5);
	add5(10)`
	v := runSource(t, src)
	require.Equal(t, vm.IntValue(15), v)
}

func TestLaterLetBindingWinsInSameBlock(t *testing.T) {
	v := runSource(t, "let x = 1; let x = 2; x")
	require.Equal(t, vm.IntValue(2), v)
}

func TestEmptyBlockYieldsUnit(t *testing.T) {
	v := runSource(t, "{}")
	require.Equal(t, vm.UnitValue(), v)
}

func TestIfWithoutElseYieldsUnit(t *testing.T) {
	v := runSource(t, "if true { 42 }")
	require.Equal(t, vm.UnitValue(), v)
}

func TestLoopBreakYieldsUnit(t *testing.T) {
	v := runSource(t, "loop { break; }")
	require.Equal(t, vm.UnitValue(), v)
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := func() (vm.Value, error) {
		tokens, err := lexer.New("1 / 0").Scan()
		require.NoError(t, err)
		program, parseErrs := parser.New(tokens).Parse()
		require.Empty(t, parseErrs)
		code, err := compiler.NewASTCompiler().CompileProgram(program)
		require.NoError(t, err)
		return vm.New().Run(code)
	}()
	require.Error(t, err)
}

func TestUnboundNameIsRuntimeError(t *testing.T) {
	tokens, err := lexer.New("y").Scan()
	require.NoError(t, err)
	program, parseErrs := parser.New(tokens).Parse()
	require.Empty(t, parseErrs)
	code, err := compiler.NewASTCompiler().CompileProgram(program)
	require.NoError(t, err)
	_, err = vm.New().Run(code)
	require.Error(t, err)
}

func TestSemaphoreSerializesConcurrentIncrements(t *testing.T) {
	src := `let c=0; let s=sem_create(); sem_set(s,1);
	fn inc(n:int){
		let i=0;
		loop i<n { wait s; c=c+1; post s; i=i+1; }
	}
	let t2=spawn inc(100);
	let t3=spawn inc(100);
	let t4=spawn inc(100);
	join t2; join t3; join t4;
	c`
	v := runSource(t, src, vm.WithQuantum(time.Nanosecond))
	require.Equal(t, vm.IntValue(300), v)
}

// TestUnsynchronizedIncrementsRaceAndUndercount is the semaphore-free
// counterpart to TestSemaphoreSerializesConcurrentIncrements: three
// threads increment the same shared binding with no semaphore guarding
// the read-modify-write, preempted at single-instruction granularity.
// Each `c = c + 1` is LD/LDC/BINOP/ASSIGN; interleaving those across
// threads loses updates (a thread's ASSIGN can overwrite a stale LD taken
// before another thread's increment landed), so the total comes in under
// the 300 a serialized run would produce.
func TestUnsynchronizedIncrementsRaceAndUndercount(t *testing.T) {
	src := `let c=0;
	fn inc(n:int){
		let i=0;
		loop i<n { c=c+1; i=i+1; }
	}
	let t2=spawn inc(100);
	let t3=spawn inc(100);
	let t4=spawn inc(100);
	join t2; join t3; join t4;
	c`
	v := runSource(t, src, vm.WithQuantum(time.Nanosecond))
	require.Less(t, v.Int, int64(300))
	require.Equal(t, vm.IntKind, v.Kind)
}
