package vm

import (
	"strings"
	"testing"

	"jx9/internal/compiler"
	"jx9/internal/lexer"
	"jx9/internal/parser"
	"jx9/internal/value"
)

// runSource compiles and executes src end to end, returning everything the
// script wrote through print()/string-interpolation output.
func runSource(t *testing.T, src string) string {
	t.Helper()
	scanner := lexer.NewScanner(src)
	tokens := scanner.ScanTokens()
	p := parser.New(tokens)
	stmts := p.ParseProgram()
	if len(p.Errors) > 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	program, errs := compiler.Compile(stmts)
	if len(errs) > 0 {
		t.Fatalf("compile errors: %v", errs)
	}
	var out strings.Builder
	m := New(program)
	m.SetOutput(func(s string) { out.WriteString(s) })
	if err := m.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	return out.String()
}

func TestArithmeticPromotion(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"int add", `print(2 + 3);`, "5"},
		{"real promotion", `print(2 + 3.5);`, "7.5"},
		{"int division exact", `print(10 / 5);`, "2"},
		{"int division inexact promotes", `print(10 / 3);`, "3.33333333333333"},
		{"mod", `print(10 % 3);`, "1"},
		{"string concat operator", `print("a" . "b" . "c");`, "abc"},
	}
	for _, tt := range tests {
		if got := runSource(t, tt.src); got != tt.want {
			t.Errorf("%s: got %q want %q", tt.name, got, tt.want)
		}
	}
}

func TestDivisionByZeroYieldsZeroWithWarning(t *testing.T) {
	got := runSource(t, `$r = 10 / 0; print($r);`)
	if !strings.Contains(got, "Warning: Division by zero") {
		t.Errorf("expected a Division by zero warning in output, got %q", got)
	}
	if !strings.HasSuffix(got, "0") {
		t.Errorf("expected the printed result to be 0, got %q", got)
	}
}

func TestModuloByZeroYieldsZeroWithWarning(t *testing.T) {
	got := runSource(t, `$r = 10 % 0; print($r);`)
	if !strings.Contains(got, "Warning: Division by zero") {
		t.Errorf("expected a Division by zero warning in output, got %q", got)
	}
	if !strings.HasSuffix(got, "0") {
		t.Errorf("expected the printed result to be 0, got %q", got)
	}
}

func TestIfElseIfElse(t *testing.T) {
	src := `
	$x = 2;
	if ($x == 1) {
		print("one");
	} elseif ($x == 2) {
		print("two");
	} else {
		print("other");
	}
	`
	if got := runSource(t, src); got != "two" {
		t.Errorf("got %q want %q", got, "two")
	}
}

func TestWhileLoopWithBreakContinue(t *testing.T) {
	src := `
	$i = 0;
	$sum = 0;
	while ($i < 10) {
		$i = $i + 1;
		if ($i % 2 == 0) {
			continue;
		}
		if ($i > 7) {
			break;
		}
		$sum = $sum + $i;
	}
	print($sum);
	`
	// odd values 1,3,5,7 -> 16
	if got := runSource(t, src); got != "16" {
		t.Errorf("got %q want %q", got, "16")
	}
}

func TestForeachOverArrayWithKeys(t *testing.T) {
	src := `
	$a = [10, 20, 30];
	foreach ($a as $k, $v) {
		print($k . ":" . $v . ",");
	}
	`
	want := "0:10,1:20,2:30,"
	if got := runSource(t, src); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestForeachOverObject(t *testing.T) {
	src := `
	$o = {name: "neo", role: "admin"};
	foreach ($o as $k, $v) {
		print($k . "=" . $v . ";");
	}
	`
	want := "name=neo;role=admin;"
	if got := runSource(t, src); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestSwitchFallthrough(t *testing.T) {
	src := `
	function classify($n) {
		switch ($n) {
			case 1:
				print("one;");
			case 2:
				print("two;");
				break;
			default:
				print("other;");
		}
	}
	classify(1);
	classify(2);
	classify(9);
	`
	want := "one;two;two;other;"
	if got := runSource(t, src); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestFunctionDefaultArgsAndRecursion(t *testing.T) {
	src := `
	function add($a, $b = 10) {
		return $a + $b;
	}
	print(add(1) . "," . add(1, 2) . ",");

	function fact($n) {
		if ($n <= 1) {
			return 1;
		}
		return $n * fact($n - 1);
	}
	print(fact(5));
	`
	want := "11,3,120"
	if got := runSource(t, src); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestStaticPersistsAcrossCalls(t *testing.T) {
	src := `
	function counter() {
		static $n = 0;
		$n = $n + 1;
		return $n;
	}
	print(counter() . counter() . counter());
	`
	if got := runSource(t, src); got != "123" {
		t.Errorf("got %q want %q", got, "123")
	}
}

func TestIndexAndMemberAssignmentAutovivifies(t *testing.T) {
	src := `
	$arr[0] = "x";
	$arr[1] = "y";
	print($arr[0] . $arr[1] . ",");

	$obj.name = "neo";
	print($obj.name);
	`
	want := "xy,neo"
	if got := runSource(t, src); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

// TestNestedIndexAndMemberAssignmentAutovivifies covers a chained target
// whose container is itself an uncreated Index/Member expression, not just
// a bare variable: $a starts out completely undeclared, so every
// intermediate level ($a.users, its [0] slot) must be created on the way
// down to the final assignment instead of silently dropping the write.
func TestNestedIndexAndMemberAssignmentAutovivifies(t *testing.T) {
	src := `
	$a.users[0].name = "Ada";
	$a.users[0].born = 1815;
	print($a.users[0].name . "," . $a.users[0].born);
	`
	want := "Ada,1815"
	if got := runSource(t, src); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestCompoundAssignment(t *testing.T) {
	src := `
	$x = 5;
	$x += 3;
	$x *= 2;
	print($x . ",");

	$s = "a";
	$s .= "b";
	print($s);
	`
	want := "16,ab"
	if got := runSource(t, src); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestTernaryAndLogicalShortCircuit(t *testing.T) {
	src := `
	$a = 0;
	print($a ? "t" : "f");
	print(",");
	print((1 && 0) ? "t" : "f");
	print(",");
	print((0 || 5) ? "t" : "f");
	`
	want := "f,f,t"
	if got := runSource(t, src); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestUplinkAliasesEnclosingVariable(t *testing.T) {
	src := `
	$counter = 0;
	function bump() {
		uplink $counter;
		$counter = $counter + 1;
	}
	bump();
	bump();
	print($counter);
	`
	if got := runSource(t, src); got != "2" {
		t.Errorf("got %q want %q", got, "2")
	}
}

func TestNativeFunctionRegistration(t *testing.T) {
	scanner := lexer.NewScanner(`print(double(21));`)
	tokens := scanner.ScanTokens()
	p := parser.New(tokens)
	stmts := p.ParseProgram()
	if len(p.Errors) > 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	program, errs := compiler.Compile(stmts)
	if len(errs) > 0 {
		t.Fatalf("compile errors: %v", errs)
	}
	var out strings.Builder
	m := New(program)
	m.SetOutput(func(s string) { out.WriteString(s) })
	m.RegisterNative("double", func(vm *VM, args []value.Value) (value.Value, error) {
		return value.Int(args[0].ToInt() * 2), nil
	})
	if err := m.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if got := out.String(); got != "42" {
		t.Errorf("got %q want %q", got, "42")
	}
}

// TestFunctionOverloadingBySignature covers spec scenario S5: two functions
// declared under the same name with different argument type-hints coexist
// as distinct overloads, and the call site picks between them by the
// runtime kind of the argument actually passed.
func TestFunctionOverloadingBySignature(t *testing.T) {
	src := `
	function foo(int $a) {
		return $a + 1;
	}
	function foo(string $a) {
		return $a . "!";
	}
	print(foo(5));
	print("|");
	print(foo("hi"));
	`
	want := "6|hi!"
	if got := runSource(t, src); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestRegisterConstant(t *testing.T) {
	scanner := lexer.NewScanner(`print(MAX_USERS);`)
	tokens := scanner.ScanTokens()
	p := parser.New(tokens)
	stmts := p.ParseProgram()
	program, _ := compiler.Compile(stmts)
	var out strings.Builder
	m := New(program)
	m.SetOutput(func(s string) { out.WriteString(s) })
	m.RegisterConstant("MAX_USERS", value.Int(64))
	if err := m.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if got := out.String(); got != "64" {
		t.Errorf("got %q want %q", got, "64")
	}
}
