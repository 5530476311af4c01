package amd64

import (
	"fmt"

	"tacc/src/ir"
	"tacc/src/ir/tac"
	"tacc/src/util"
)

// ---------------------
// ----- Constants -----
// ---------------------

const (
	formatString = "._print_s"
	formatInt    = "._print_d"
	formatChar   = "._print_c"
	formatReal   = "._print_f"
	labelTrue    = ".true"
	labelFalse   = ".false"
)

// ---------------------
// ----- Functions -----
// ---------------------

// genPrint prints one value with the format of its value type. A boolean selects between the static strings
// true and false.
func (g *generator) genPrint(ins *tac.Instruction) {
	v := ins.Op1
	acc, arg := g.rf.Acc, g.rf.Args[1]

	switch {
	case v.Class == ir.SymString:
		g.text.Ins2("leaq", g.src(v), arg.Quad())
		g.printf(formatString, 0)
	case v.IsReal():
		fa := g.rf.FAcc.String()
		g.text.Ins2("movss", g.src(v), fa)
		g.text.Ins2("cvtss2sd", fa, fa)
		g.printf(formatReal, 1)
	case v.DataTyp == ir.TypeBool:
		l1, l2 := g.labels.NewLabel(util.LabelJump), g.labels.NewLabel(util.LabelJump)
		g.loadAcc(v)
		g.text.Ins2("testl", acc.String(), acc.String())
		g.text.Ins1("je", l1)
		g.text.Ins2("leaq", labelTrue+"(%rip)", acc.Quad())
		g.text.Ins1("jmp", l2)
		g.text.Label(l1)
		g.text.Ins2("leaq", labelFalse+"(%rip)", acc.Quad())
		g.text.Label(l2)
		g.text.Ins2("movq", acc.Quad(), arg.Quad())
		g.printf(formatString, 0)
	case v.DataTyp == ir.TypeChar:
		g.text.Ins2("movl", g.src(v), arg.String())
		g.printf(formatChar, 0)
	default:
		g.text.Ins2("movl", g.src(v), arg.String())
		g.printf(formatInt, 0)
	}
}

// printf calls printf with the format string at label format and vec vector register arguments.
func (g *generator) printf(format string, vec int) {
	g.call("printf@PLT", format, vec)
}

// call calls the C library function fn with the format string at label format as first argument.
func (g *generator) call(fn, format string, vec int) {
	acc := g.rf.Acc
	g.text.Ins2("leaq", format+"(%rip)", acc.Quad())
	g.text.Ins2("movq", acc.Quad(), g.rf.Args[0].Quad())
	g.text.Ins2("movl", fmt.Sprintf("$%d", vec), acc.String())
	g.text.Ins1("call", fn)
}

// genRead reads a value of the variable's type from standard input into the variable.
func (g *generator) genRead(ins *tac.Instruction) {
	dst := g.dst(ins.Res)
	format := formatInt
	switch {
	case ins.Res.IsReal():
		format = formatReal
	case ins.Res.DataTyp == ir.TypeChar:
		format = formatChar
		// %c stores a single byte.
		g.text.Ins2("movl", "$0", dst)
	}
	acc := g.rf.Acc.Quad()
	g.text.Ins2("leaq", dst, acc)
	g.text.Ins2("movq", acc, g.rf.Args[1].Quad())
	g.call("__isoc99_scanf@PLT", format, 0)
}
