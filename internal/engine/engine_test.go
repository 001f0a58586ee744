package engine

import (
	"testing"

	"jx9/internal/value"
)

func TestCaptureOutputAndArgv(t *testing.T) {
	eng := New()
	defer eng.Destroy()

	eng.CaptureOutput()
	eng.AppendArgv("first")
	eng.AppendArgv("second")

	if _, err := eng.Compile(`
		print(count($argv));
		print(",");
		print($argv[0]);
		print(",");
		print($argv[1]);
	`); err != nil {
		t.Fatalf("compile: %v", err)
	}

	if got, want := eng.CapturedOutput(), "2,first,second"; got != want {
		t.Errorf("captured output: got %q want %q", got, want)
	}
}

func TestRecursionDepthConfigureVerb(t *testing.T) {
	eng := New()
	defer eng.Destroy()
	eng.SetRecursionDepth(3)

	_, err := eng.Compile(`
		function recurse($n) {
			if ($n <= 0) { return 0; }
			return recurse($n - 1);
		}
		print(recurse(10));
	`)
	if err == nil {
		t.Fatal("expected a recursion-depth error with a small configured limit")
	}
}

func TestInstallSuperglobalIsMutable(t *testing.T) {
	eng := New()
	defer eng.Destroy()
	eng.CaptureOutput()

	eng.InstallSuperglobal("counter", value.Int(1))
	if _, err := eng.Compile(`$counter = $counter + 1; print($counter);`); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got, want := eng.CapturedOutput(), "2"; got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestSuperglobalVisibleInsideFunctionBody(t *testing.T) {
	eng := New()
	defer eng.Destroy()
	eng.CaptureOutput()

	eng.InstallSuperglobal("counter", value.Int(1))
	eng.AppendArgv("only")

	if _, err := eng.Compile(`
		function readGlobals() {
			print($counter);
			print(",");
			print($argv[0]);
		}
		readGlobals();
	`); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got, want := eng.CapturedOutput(), "1,only"; got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestErrorReportingWritesOneLineToConsumer(t *testing.T) {
	eng := New()
	defer eng.Destroy()
	eng.CaptureOutput()
	eng.EnableErrorReporting(true)

	_, err := eng.Compile(`undefined_function_call();`)
	if err == nil {
		t.Fatal("expected an error calling an undefined function")
	}
	if eng.CapturedOutput() == "" {
		t.Error("expected error reporting to write a line through the output consumer")
	}
}

func TestErrorReportingSilentWhenDisabled(t *testing.T) {
	eng := New()
	defer eng.Destroy()
	eng.CaptureOutput()

	_, err := eng.Compile(`undefined_function_call();`)
	if err == nil {
		t.Fatal("expected an error calling an undefined function")
	}
	if got := eng.CapturedOutput(); got != "" {
		t.Errorf("expected silence with error reporting disabled, got %q", got)
	}
}

func TestResetClearsGlobalsButKeepsManagers(t *testing.T) {
	eng := New()
	defer eng.Destroy()

	if _, err := eng.Compile(`$x = 42;`); err != nil {
		t.Fatalf("compile: %v", err)
	}
	dbBefore := eng.DB
	streamsBefore := eng.Streams

	eng.Reset()

	if eng.DB != dbBefore || eng.Streams != streamsBefore {
		t.Error("Reset should keep the same database/stream managers")
	}

	eng.CaptureOutput()
	if _, err := eng.Compile(`print($x);`); err != nil {
		t.Fatalf("compile after reset: %v", err)
	}
	if got := eng.CapturedOutput(); got != "" {
		t.Errorf("expected $x to be cleared by Reset, got %q", got)
	}
}
