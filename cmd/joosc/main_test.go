package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// buildJoosc builds the joosc binary once per test run, following the
// teacher's cmd/dwscript CLI test style of building then driving the
// binary via exec.Command rather than calling runCompile in-process
// (runCompile calls os.Exit directly, which a normal test cannot intercept).
func buildJoosc(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "joosc")
	cmd := exec.Command("go", "build", "-o", bin, ".")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("failed to build joosc: %v\n%s", err, out)
	}
	return bin
}

func writeSrc(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestJoosc_ValidProgramExitsZeroAndWritesAssembly(t *testing.T) {
	bin := buildJoosc(t)
	src := writeSrc(t, "Foo.java", `
		public class Foo {
			public int x;
			public Foo() { x = 0; }
			public int get() { return x; }
		}
	`)

	cmd := exec.Command(bin, src)
	_, _ = cmd.CombinedOutput()
	if cmd.ProcessState.ExitCode() != 0 {
		t.Fatalf("expected exit code 0, got %d", cmd.ProcessState.ExitCode())
	}

	asmPath := filepath.Join(filepath.Dir(src), "Foo.s")
	if _, err := os.Stat(asmPath); err != nil {
		t.Fatalf("expected %s to be written: %v", asmPath, err)
	}
}

func TestJoosc_UserErrorExits42(t *testing.T) {
	bin := buildJoosc(t)
	src := writeSrc(t, "Foo.java", `public class Foo {`)

	cmd := exec.Command(bin, src)
	_, _ = cmd.CombinedOutput()
	if cmd.ProcessState.ExitCode() != 42 {
		t.Fatalf("expected exit code 42, got %d", cmd.ProcessState.ExitCode())
	}
}

func TestJoosc_NonJavaExtensionExits42(t *testing.T) {
	bin := buildJoosc(t)
	src := writeSrc(t, "Foo.txt", `public class Foo { public Foo() {} }`)

	cmd := exec.Command(bin, src)
	_, _ = cmd.CombinedOutput()
	if cmd.ProcessState.ExitCode() != 42 {
		t.Fatalf("expected exit code 42, got %d", cmd.ProcessState.ExitCode())
	}
}

func TestJoosc_NoArgumentsIsUsageError(t *testing.T) {
	bin := buildJoosc(t)

	cmd := exec.Command(bin)
	_, _ = cmd.CombinedOutput()
	if cmd.ProcessState.ExitCode() != 42 {
		t.Fatalf("expected exit code 42 for missing arguments, got %d", cmd.ProcessState.ExitCode())
	}
}
