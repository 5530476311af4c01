package amd64_test

import (
	"errors"
	"strings"
	"testing"

	"tacc/src/backend/amd64"
	"tacc/src/ir"
	"tacc/src/ir/irtest"
	"tacc/src/ir/tac"
	"tacc/src/util"
)

func compileWith(t *testing.T, b *irtest.Builder, tr *ir.Tree, topt tac.Options, comments bool) (string, error) {
	t.Helper()
	if _, err := ir.Analyze(tr, b.ST); err != nil {
		t.Fatalf("Analyze: %s", err)
	}
	l, err := tac.Generate(tr, b.ST, topt)
	if err != nil {
		t.Fatalf("Generate: %s", err)
	}
	opt := util.DefaultOptions()
	opt.Comments = comments
	var wr util.Writer
	err = amd64.Generate(l, b.ST, tr, opt, &wr)
	return wr.String(), err
}

func compile(t *testing.T, b *irtest.Builder, tr *ir.Tree) string {
	t.Helper()
	s, err := compileWith(t, b, tr, tac.DefaultOptions(), false)
	if err != nil {
		t.Fatalf("amd64.Generate: %s", err)
	}
	return s
}

func mainWith(b *irtest.Builder, cmds ...ir.NodeID) ir.NodeID {
	cmds = append(cmds, b.Return(b.Int(0)))
	return b.Func("main", ir.TypeInt, nil, nil, b.Block(cmds...))
}

func mainReturning(b *irtest.Builder, expr ir.NodeID) ir.NodeID {
	return b.Func("main", ir.TypeInt, nil, nil, b.Block(b.Return(expr)))
}

func expect(t *testing.T, asm string, want ...string) {
	t.Helper()
	for _, e1 := range want {
		if !strings.Contains(asm, e1) {
			t.Errorf("output lacks %q\n%s", e1, asm)
		}
	}
}

func TestGlobalData(t *testing.T) {
	b := irtest.New()
	tr := b.Program(b.Var("x", ir.TypeInt, b.Op(ir.OP_ADD, b.Int(2), b.Int(3))), mainWith(b))
	asm := compile(t, b, tr)

	expect(t, asm,
		"\t.globl\tx\n\t.align\t4\n\t.type\tx, @object\n\t.size\tx, 4\nx:\n\t.long\t5\n",
		"._print_d:\n\t.string\t\"%d\"\n",
		".true:\n\t.string\t\"true\"\n",
		"\t.long\t0xc0000002\n",
	)
	order := []string{"\t.section\t.rodata\n", "\t.data\n", "\t.text\n", "\t.ident\t"}
	last := -1
	for _, e1 := range order {
		i := strings.Index(asm, e1)
		if i <= last {
			t.Fatalf("section %q out of order\n%s", e1, asm)
		}
		last = i
	}
}

func TestArrayElementStaticOffset(t *testing.T) {
	b := irtest.New()
	tr := b.Program(
		b.Array("v", ir.TypeInt, 3, b.Int(1), b.Int(2), b.Int(3)),
		b.Array("w", ir.TypeInt, 4),
		mainWith(b, b.AssignElem("v", b.Int(1), b.Int(9)), b.AssignElem("v", b.Int(0), b.Int(7))),
	)
	asm := compile(t, b, tr)
	expect(t, asm,
		"\tmovl\t$9, 4+v(%rip)\n",
		"\tmovl\t$7, v(%rip)\n",
		"\t.align\t16\n\t.type\tv, @object\n\t.size\tv, 12\nv:\n\t.long\t1\n\t.long\t2\n\t.long\t3\n",
		"\t.size\tw, 16\nw:\n\t.zero\t16\n",
	)
}

func TestDynamicIndex(t *testing.T) {
	b := irtest.New()
	tr := b.Program(
		b.Var("i", ir.TypeInt, b.Int(1)),
		b.Array("v", ir.TypeInt, 2, b.Int(4), b.Int(5)),
		mainWith(b, b.Print(b.Elem("v", b.Ident("i"))), b.AssignElem("v", b.Ident("i"), b.Ident("i"))),
	)
	asm := compile(t, b, tr)
	expect(t, asm,
		"\tmovl\ti(%rip), %eax\n\tcltq\n\tleaq\t0(,%rax,4), %rdx\n\tleaq\tv(%rip), %rax\n\tmovl\t(%rdx,%rax), %eax\n",
		"\tmovl\ti(%rip), %ecx\n\tmovl\ti(%rip), %eax\n\tcltq\n\tleaq\t0(,%rax,4), %rdx\n\tleaq\tv(%rip), %rax\n\tmovl\t%ecx, (%rdx,%rax)\n",
	)
}

func TestAccumulatorElision(t *testing.T) {
	b := irtest.New()
	tr := b.Program(
		b.Var("x", ir.TypeInt, b.Int(1)),
		b.Var("y", ir.TypeInt, b.Int(2)),
		mainReturning(b, b.Op(ir.OP_ADD, b.Op(ir.OP_MUL, b.Ident("x"), b.Ident("y")), b.Int(1))),
	)
	asm := compile(t, b, tr)
	expect(t, asm, "\timull\t%edx, %eax\n\tmovl\t%eax, -4(%rbp)\n\tmovl\t$1, %edx\n\taddl\t%edx, %eax\n"+
		"\tmovl\t%eax, -8(%rbp)\n\tmovq\t%rbp, %rsp\n")
}

func TestAccumulatorReload(t *testing.T) {
	b := irtest.New()
	tr := b.Program(
		b.Var("x", ir.TypeInt, b.Int(1)),
		b.Var("y", ir.TypeInt, b.Int(2)),
		b.Var("r", ir.TypeInt, b.Int(0)),
		b.Func("main", ir.TypeInt, nil, nil, b.Block(
			b.Assign("r", b.Op(ir.OP_MUL, b.Ident("x"), b.Ident("y"))),
			b.Return(b.Op(ir.OP_ADD, b.Ident("y"), b.Ident("r"))),
		)),
	)
	asm := compile(t, b, tr)
	expect(t, asm, "\tmovl\t%eax, r(%rip)\n\tmovl\ty(%rip), %eax\n\tmovl\tr(%rip), %edx\n\taddl\t%edx, %eax\n")
}

func TestConditionInAccumulator(t *testing.T) {
	b := irtest.New()
	loop := b.While(b.Op(ir.OP_LESS, b.Ident("i"), b.Int(10)),
		b.Block(b.Assign("i", b.Op(ir.OP_ADD, b.Ident("i"), b.Int(1)))))
	tr := b.Program(b.Var("i", ir.TypeInt, b.Int(0)), mainWith(b, loop))
	asm := compile(t, b, tr)
	expect(t, asm,
		".L0:\n\tmovl\ti(%rip), %eax\n\tmovl\t$10, %edx\n\tcmpl\t%edx, %eax\n\tsetl\t%al\n\tmovzbl\t%al, %eax\n"+
			"\tmovl\t%eax, -4(%rbp)\n\ttestl\t%eax, %eax\n\tjz\t.L1\n",
		"\tjmp\t.L0\n.L1:\n",
	)
}

func TestIfElse(t *testing.T) {
	b := irtest.New()
	cond := b.If(b.Ident("b"), b.Print(b.Int(1)), b.Print(b.Int(0)))
	tr := b.Program(b.Var("b", ir.TypeBool, ir.NoNode), mainWith(b, cond))
	asm := compile(t, b, tr)
	expect(t, asm,
		"\tmovl\tb(%rip), %eax\n\ttestl\t%eax, %eax\n\tjz\t.L0\n",
		"\tmovl\t$1, %esi\n\tleaq\t._print_d(%rip), %rax\n\tmovq\t%rax, %rdi\n\tmovl\t$0, %eax\n\tcall\tprintf@PLT\n",
		"\tjmp\t.L1\n.L0:\n",
		"b:\n\t.long\t0\n",
	)
}

func TestMultiplyImmediate(t *testing.T) {
	for _, tt := range []struct {
		name  string
		build func(b *irtest.Builder) ir.NodeID
	}{
		{"x*6", func(b *irtest.Builder) ir.NodeID { return b.Op(ir.OP_MUL, b.Ident("x"), b.Int(6)) }},
		{"6*x", func(b *irtest.Builder) ir.NodeID { return b.Op(ir.OP_MUL, b.Int(6), b.Ident("x")) }},
	} {
		b := irtest.New()
		tr := b.Program(b.Var("x", ir.TypeInt, b.Int(3)), mainReturning(b, tt.build(b)))
		asm := compile(t, b, tr)
		if !strings.Contains(asm, "\tmovl\tx(%rip), %eax\n\timull\t$6, %eax, %eax\n") {
			t.Errorf("%s: no immediate multiply\n%s", tt.name, asm)
		}
	}

	b := irtest.New()
	tr := b.Program(mainReturning(b, b.Op(ir.OP_MUL, b.Int(6), b.Int(7))))
	asm, err := compileWith(t, b, tr, tac.Options{}, false)
	if err != nil {
		t.Fatal(err)
	}
	expect(t, asm, "\tmovl\t$42, %eax\n\tmovl\t%eax, -4(%rbp)\n")
}

func TestShiftAndDivide(t *testing.T) {
	b := irtest.New()
	tr := b.Program(
		b.Var("x", ir.TypeInt, b.Int(3)),
		b.Var("r", ir.TypeInt, b.Int(0)),
		b.Func("main", ir.TypeInt, nil, nil, b.Block(
			b.Assign("r", b.Op(ir.OP_MUL, b.Ident("x"), b.Int(8))),
			b.Assign("r", b.Op(ir.OP_DIV, b.Ident("x"), b.Int(3))),
			b.Assign("r", b.Op(ir.OP_MOD, b.Ident("x"), b.Int(3))),
			b.Return(b.Ident("r")),
		)),
	)
	asm := compile(t, b, tr)
	expect(t, asm,
		"\tmovl\tx(%rip), %eax\n\tsall\t$3, %eax\n\tmovl\t%eax, r(%rip)\n",
		"\tmovl\tx(%rip), %eax\n\tmovl\t$3, %ecx\n\tcltd\n\tidivl\t%ecx\n\tmovl\t%eax, r(%rip)\n",
		"\tidivl\t%ecx\n\tmovl\t%edx, %eax\n\tmovl\t%eax, r(%rip)\n",
	)
}

func TestFrameLayout(t *testing.T) {
	b := irtest.New()
	params := []ir.NodeID{b.Param("a", ir.TypeInt), b.Param("c", ir.TypeInt), b.Param("d", ir.TypeInt)}
	locals := []ir.NodeID{b.Var("l1", ir.TypeInt, b.Int(1)), b.Var("l2", ir.TypeInt, b.Int(2))}
	f := b.Func("f", ir.TypeInt, params, locals, b.Block(b.Return(b.Ident("a"))))
	g := b.Func("g", ir.TypeInt, nil, nil, b.Block(b.Return(b.Int(7))))
	m := mainReturning(b, b.Call("f", b.Int(1), b.Int(2), b.Int(3)))
	asm := compile(t, b, b.Program(f, g, m))

	expect(t, asm,
		"\t.globl\tf\n\t.type\tf, @function\nf:\n\tendbr64\n\tpushq\t%rbp\n\tmovq\t%rsp, %rbp\n\tsubq\t$32, %rsp\n"+
			"\tmovl\t%edi, -4(%rbp)\n\tmovl\t%esi, -8(%rbp)\n\tmovl\t%edx, -12(%rbp)\n"+
			"\tmovl\t$1, -16(%rbp)\n\tmovl\t$2, -20(%rbp)\n\tmovl\t-4(%rbp), %eax\n\tmovq\t%rbp, %rsp\n",
		"g:\n\tendbr64\n\tpushq\t%rbp\n\tmovq\t%rsp, %rbp\n\tmovl\t$7, %eax\n",
		"\tmovl\t$1, %edi\n\tmovl\t$2, %esi\n\tmovl\t$3, %edx\n\tcall\tf\n\tmovl\t%eax, -4(%rbp)\n\tmovq\t%rbp, %rsp\n",
		"\t.size\tf, .-f\n",
	)
	if strings.Contains(asm, "\nl1:\n") || strings.Contains(asm, "\na:\n") {
		t.Error("stack resident symbols emitted as data")
	}
}

func TestTooManyArguments(t *testing.T) {
	b := irtest.New()
	var params []ir.NodeID
	for _, e1 := range []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"} {
		params = append(params, b.Param(e1, ir.TypeInt))
	}
	h := b.Func("h", ir.TypeInt, params, nil, b.Block(b.Return(b.Ident("p1"))))
	_, err := compileWith(t, b, b.Program(h, mainWith(b)), tac.DefaultOptions(), false)
	if !errors.Is(err, amd64.ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
}

func TestPrint(t *testing.T) {
	b := irtest.New()
	tr := b.Program(
		b.Var("b", ir.TypeBool, b.Bool(true)),
		b.Var("c", ir.TypeChar, b.Char('a')),
		mainWith(b, b.Print(b.Str("hello"), b.Ident("b"), b.Ident("c"), b.Real("2.5"))),
	)
	asm := compile(t, b, tr)
	expect(t, asm,
		".LC0:\n\t.string\t\"hello\"\n",
		".LC1:\n\t.long\t1075838976\n",
		"\tleaq\t.LC0(%rip), %rsi\n\tleaq\t._print_s(%rip), %rax\n\tmovq\t%rax, %rdi\n\tmovl\t$0, %eax\n\tcall\tprintf@PLT\n",
		"\tmovl\tb(%rip), %eax\n\ttestl\t%eax, %eax\n\tje\t.L0\n\tleaq\t.true(%rip), %rax\n\tjmp\t.L1\n.L0:\n"+
			"\tleaq\t.false(%rip), %rax\n.L1:\n\tmovq\t%rax, %rsi\n",
		"\tmovl\tc(%rip), %esi\n\tleaq\t._print_c(%rip), %rax\n",
		"\tmovss\t.LC1(%rip), %xmm0\n\tcvtss2sd\t%xmm0, %xmm0\n\tleaq\t._print_f(%rip), %rax\n\tmovq\t%rax, %rdi\n\tmovl\t$1, %eax\n",
		"b:\n\t.long\t1\n",
		"c:\n\t.long\t97\n",
	)
}

func TestMixedRealCompare(t *testing.T) {
	b := irtest.New()
	tr := b.Program(
		b.Var("r", ir.TypeReal, b.Real("2.5")),
		b.Var("n", ir.TypeInt, b.Int(4)),
		mainWith(b,
			b.If(b.Op(ir.OP_LESS, b.Ident("r"), b.Int(3)), b.Print(b.Int(1))),
			b.If(b.Op(ir.OP_GREATER, b.Ident("n"), b.Ident("r")), b.Print(b.Int(2))),
		),
	)
	asm := compile(t, b, tr)
	expect(t, asm,
		"\tmovss\tr(%rip), %xmm0\n\tmovl\t$3, %ecx\n\tcvtsi2ssl\t%ecx, %xmm1\n\tucomiss\t%xmm1, %xmm0\n\tsetb\t%al\n",
		"\tcvtsi2ssl\tn(%rip), %xmm0\n\tmovss\tr(%rip), %xmm1\n\tucomiss\t%xmm1, %xmm0\n\tseta\t%al\n",
	)
	if strings.Contains(asm, "movss\t$") {
		t.Errorf("immediate moved into a vector register\n%s", asm)
	}
}

func TestRead(t *testing.T) {
	b := irtest.New()
	tr := b.Program(b.Var("n", ir.TypeInt, ir.NoNode), mainWith(b, b.Read("n")))
	asm := compile(t, b, tr)
	expect(t, asm, "\tleaq\tn(%rip), %rax\n\tmovq\t%rax, %rsi\n\tleaq\t._print_d(%rip), %rax\n"+
		"\tmovq\t%rax, %rdi\n\tmovl\t$0, %eax\n\tcall\t__isoc99_scanf@PLT\n")
}

func TestComments(t *testing.T) {
	b := irtest.New()
	tr := b.Program(mainWith(b))
	asm, err := compileWith(t, b, tr, tac.DefaultOptions(), true)
	if err != nil {
		t.Fatal(err)
	}
	expect(t, asm, "# TAC BEGINFUN\n", "# TAC RET\n", "# TAC ENDFUN\n")
}

func TestDeterministic(t *testing.T) {
	build := func() string {
		b := irtest.New()
		loop := b.While(b.Op(ir.OP_GREATER, b.Ident("n"), b.Int(0)),
			b.Block(b.Print(b.Str("n="), b.Ident("n")), b.Assign("n", b.Op(ir.OP_SUB, b.Ident("n"), b.Int(1)))))
		tr := b.Program(b.Var("n", ir.TypeInt, b.Int(3)), b.Array("v", ir.TypeInt, 2), mainWith(b, loop))
		return compile(t, b, tr)
	}
	if a, c := build(), build(); a != c {
		t.Errorf("output is not deterministic:\n%s\nvs\n%s", a, c)
	}
}

func TestInvalidDestination(t *testing.T) {
	st := ir.NewSymTab()
	f := st.Insert("f", ir.SymFunction)
	five := st.Insert("5", ir.SymInteger)
	l := &tac.List{Code: []*tac.Instruction{
		tac.New(tac.BEGINFUN, f, nil, nil),
		tac.New(tac.MOVE, five, five, nil),
		tac.New(tac.ENDFUN, f, nil, nil),
	}}
	var wr util.Writer
	err := amd64.Generate(l, st, ir.NewTree(0), util.DefaultOptions(), &wr)
	if !errors.Is(err, amd64.ErrInternal) {
		t.Errorf("got %v, want ErrInternal", err)
	}
}
