package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tacc/src/backend/amd64"
	"tacc/src/frontend"
	"tacc/src/ir"
	"tacc/src/ir/irtest"
	"tacc/src/ir/tac"
	"tacc/src/util"
)

// write encodes the tree of b to name in dir and returns its path.
func write(t *testing.T, dir, name string, b *irtest.Builder) string {
	t.Helper()
	var buf bytes.Buffer
	if err := frontend.Encode(&buf, b.T); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func valid() *irtest.Builder {
	b := irtest.New()
	b.Program(
		b.Var("n", ir.TypeInt, b.Int(3)),
		b.Func("main", ir.TypeInt, nil, nil, b.Block(b.Print(b.Ident("n")), b.Return(b.Int(0)))),
	)
	return b
}

func typeError() *irtest.Builder {
	b := irtest.New()
	b.Program(
		b.Var("n", ir.TypeInt, b.Int(3)),
		b.Func("main", ir.TypeInt, nil, nil, b.Block(b.While(b.Ident("n"), b.Print(b.Int(1))), b.Return(b.Int(0)))),
	)
	return b
}

func structuralError() *irtest.Builder {
	b := irtest.New()
	b.Program(b.Func("main", ir.TypeInt, nil, nil, b.Block(b.Assign("y", b.Int(1)), b.Return(b.Int(0)))))
	return b
}

func notConstant() *irtest.Builder {
	b := irtest.New()
	b.Program(
		b.Var("x", ir.TypeInt, b.Op(ir.OP_DIV, b.Int(10), b.Int(0))),
		b.Func("main", ir.TypeInt, nil, nil, b.Block(b.Return(b.Int(0)))),
	)
	return b
}

func config(target int) (Config, *bytes.Buffer) {
	opt := util.DefaultOptions()
	opt.Target = target
	opt.Threads = 4
	var diag bytes.Buffer
	return Config{Opt: opt, Diag: &diag}, &diag
}

func TestCompile(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "prog.mp", valid())
	out := filepath.Join(dir, "prog.s")

	cfg, _ := config(util.TargetAmd64)
	if err := Compile(context.Background(), cfg, in, out); err != nil {
		t.Fatalf("Compile: %s", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, e1 := range []string{"main:", "call\tprintf@PLT", "n:"} {
		if !strings.Contains(string(b), e1) {
			t.Errorf("output lacks %q\n%s", e1, b)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.mp")
	if err := os.WriteFile(garbage, []byte("not a tree"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   string
		code int
		diag string
	}{
		{"missing", filepath.Join(dir, "missing.mp"), ExitUsage, ""},
		{"format", garbage, ExitFormat, ""},
		{"structural", write(t, dir, "structural.mp", structuralError()), ExitStructural, "has not been declared"},
		{"type", write(t, dir, "type.mp", typeError()), ExitType, "not boolean"},
		{"not constant", write(t, dir, "const.mp", notConstant()), ExitCodegen, ""},
	}
	for _, e1 := range tests {
		cfg, diag := config(util.TargetTAC)
		err := Compile(context.Background(), cfg, e1.in, filepath.Join(dir, e1.name+".tac"))
		if got := ExitCode(err); got != e1.code {
			t.Errorf("%s: exit code %d, want %d (%v)", e1.name, got, e1.code, err)
		}
		if !strings.Contains(diag.String(), e1.diag) {
			t.Errorf("%s: diagnostics lack %q: %s", e1.name, e1.diag, diag.String())
		}
	}
}

func TestCompileAll(t *testing.T) {
	dir := t.TempDir()
	var inputs []string
	for i1 := 0; i1 < 5; i1++ {
		inputs = append(inputs, write(t, dir, fmt.Sprintf("p%d.mp", i1), valid()))
	}
	cfg, _ := config(util.TargetTAC)
	if err := CompileAll(context.Background(), cfg, inputs); err != nil {
		t.Fatalf("CompileAll: %s", err)
	}
	for _, e1 := range inputs {
		b, err := os.ReadFile(OutputPath(e1, util.TargetTAC))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(b), "BEGINFUN") {
			t.Errorf("%s: unexpected listing\n%s", e1, b)
		}
	}

	// Failures are collected without stopping the other inputs.
	bad := write(t, dir, "bad.mp", typeError())
	ok := write(t, dir, "ok.mp", valid())
	err := CompileAll(context.Background(), cfg, []string{bad, ok})
	if ExitCode(err) != ExitType {
		t.Errorf("exit code %d, want %d (%v)", ExitCode(err), ExitType, err)
	}
	if _, err := os.Stat(OutputPath(ok, util.TargetTAC)); err != nil {
		t.Errorf("valid input not compiled: %s", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{nil, ExitOK},
		{errors.New("io"), ExitUsage},
		{fmt.Errorf("x: %w", frontend.ErrFormat), ExitFormat},
		{fmt.Errorf("x: %w", ir.ErrStructural), ExitStructural},
		{fmt.Errorf("x: %w", ir.ErrType), ExitType},
		{fmt.Errorf("x: %w", amd64.ErrInternal), ExitCodegen},
		{fmt.Errorf("x: %w", tac.ErrNotConstant), ExitCodegen},
		{errors.Join(fmt.Errorf("a: %w", ir.ErrStructural), errors.New("b"), fmt.Errorf("c: %w", ir.ErrType)), ExitType},
	}
	for _, e1 := range tests {
		if got := ExitCode(e1.err); got != e1.code {
			t.Errorf("ExitCode(%v) = %d, want %d", e1.err, got, e1.code)
		}
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("dir/a.mp", util.TargetAmd64); got != "dir/a.s" {
		t.Errorf("got %q", got)
	}
	if got := OutputPath("b", util.TargetLLVM); got != "b.ll" {
		t.Errorf("got %q", got)
	}
}
