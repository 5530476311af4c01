package llvm_test

import (
	"errors"
	"strings"
	"testing"

	"tacc/src/backend/llvm"
	"tacc/src/ir"
	"tacc/src/ir/irtest"
	"tacc/src/ir/tac"
	"tacc/src/util"
)

func compile(t *testing.T, b *irtest.Builder, tr *ir.Tree) (string, error) {
	t.Helper()
	if _, err := ir.Analyze(tr, b.ST); err != nil {
		t.Fatalf("Analyze: %s", err)
	}
	l, err := tac.Generate(tr, b.ST, tac.DefaultOptions())
	if err != nil {
		t.Fatalf("Generate: %s", err)
	}
	var wr util.Writer
	err = llvm.Generate("test", l, b.ST, tr, &wr)
	return wr.String(), err
}

func TestModule(t *testing.T) {
	b := irtest.New()
	tr := b.Program(
		b.Var("x", ir.TypeInt, b.Int(5)),
		b.Array("v", ir.TypeInt, 3, b.Int(1), b.Int(2)),
		b.Func("add", ir.TypeInt, []ir.NodeID{b.Param("a", ir.TypeInt), b.Param("c", ir.TypeInt)}, nil,
			b.Block(b.Return(b.Op(ir.OP_ADD, b.Ident("a"), b.Ident("c"))))),
		b.Func("main", ir.TypeInt, nil, nil, b.Block(
			b.Assign("x", b.Call("add", b.Ident("x"), b.Int(1))),
			b.While(b.Op(ir.OP_LESS, b.Ident("x"), b.Int(10)),
				b.Assign("x", b.Op(ir.OP_ADD, b.Ident("x"), b.Int(1)))),
			b.Print(b.Str("x="), b.Ident("x")),
			b.Return(b.Int(0)),
		)),
	)
	out, err := compile(t, b, tr)
	if err != nil {
		t.Fatalf("llvm.Generate: %s", err)
	}
	for _, e1 := range []string{
		"@x = global i32 5",
		"@v = global [3 x i32]",
		"define i32 @add(",
		"define i32 @main(",
		"@printf(",
		"icmp slt",
		"br i1",
	} {
		if !strings.Contains(out, e1) {
			t.Errorf("module lacks %q\n%s", e1, out)
		}
	}
}

func TestReservedName(t *testing.T) {
	b := irtest.New()
	tr := b.Program(
		b.Func("printf", ir.TypeInt, nil, nil, b.Block(b.Return(b.Int(0)))),
		b.Func("main", ir.TypeInt, nil, nil, b.Block(b.Return(b.Int(0)))),
	)
	if _, err := compile(t, b, tr); !errors.Is(err, llvm.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}
