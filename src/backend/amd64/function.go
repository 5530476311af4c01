package amd64

import (
	"fmt"

	"tacc/src/ir"
	"tacc/src/ir/tac"
)

// ---------------------
// ----- Functions -----
// ---------------------

// genBeginFun generates the function label and prologue of function fn.
//
// General steps:
//
// - Give every parameter, local variable and used temporary a 4 byte slot below the frame pointer, in that order.
// - Grow the stack by the slots, aligned with the stack alignment.
// - Store the argument registers in the parameter slots.
// - Initialize local variables declared with a literal.
func (g *generator) genBeginFun(ins *tac.Instruction) error {
	fn := ins.Res
	if fn == nil || fn.Class != ir.SymFunction {
		internal("function begin without function symbol")
	}
	if len(fn.Params) > len(g.rf.Args) {
		return fmt.Errorf("%w: function %q takes %d parameters but only %d argument registers exist",
			ErrUnsupported, fn.Name, len(fn.Params), len(g.rf.Args))
	}

	locals := g.locals(fn)
	slots := make([]*ir.Symbol, 0, len(fn.Params)+len(locals)+len(fn.Temps))
	slots = append(slots, fn.Params...)
	slots = append(slots, locals...)
	for _, e1 := range fn.Temps {
		if g.used[e1] {
			slots = append(slots, e1)
		}
	}
	offset := 0
	for _, e1 := range slots {
		offset -= wordSize
		e1.Offset = offset
	}
	sa := -offset
	if spill := sa % stackAlign; spill != 0 {
		sa += stackAlign - spill
	}

	fp, sp := g.rf.FP.Quad(), g.rf.SP.Quad()
	g.text.Ins0(".text")
	g.text.Ins1(".globl", fn.Name)
	g.text.Write("\t.type\t%s, @function\n", fn.Name)
	g.text.Label(fn.Name)
	g.text.Ins0("endbr64")
	g.text.Ins1("pushq", fp)
	g.text.Ins2("movq", sp, fp)
	if sa > 0 {
		g.text.Ins2("subq", fmt.Sprintf("$%d", sa), sp)
	}

	for i1, e1 := range fn.Params {
		g.text.Ins2("movl", g.rf.Args[i1].String(), memory(e1))
	}
	for _, e1 := range locals {
		if n := g.tree.Node(e1.Value); n != nil && n.Typ == ir.LIT {
			g.move(n.Sym, memory(e1))
		}
	}
	return nil
}

// locals returns the stack resident variables declared at the head of function fn, in declaration order.
func (g *generator) locals(fn *ir.Symbol) []*ir.Symbol {
	t := g.tree
	n := t.Node(fn.Value)
	if n == nil {
		return nil
	}
	var l []*ir.Symbol
	for _, e1 := range n.Children {
		if t.Typ(e1) != ir.LOCAL_VAR_DEC_LIST {
			continue
		}
		for ll := e1; ll != ir.NoNode; ll = t.Child(ll, 1) {
			if s := t.Sym(t.Child(ll, 0)); s != nil && s.InStack {
				l = append(l, s)
			}
		}
	}
	return l
}

// teardown restores the caller's frame and returns.
func (g *generator) teardown() {
	fp, sp := g.rf.FP.Quad(), g.rf.SP.Quad()
	g.text.Ins2("movq", fp, sp)
	g.text.Ins1("popq", fp)
	g.text.Ins0("ret")
}

// genEndFun generates the epilogue of a function that runs past its last statement.
func (g *generator) genEndFun(ins *tac.Instruction) {
	g.teardown()
	g.text.Write("\t.size\t%s, .-%s\n", ins.Res.Name, ins.Res.Name)
}

// genReturn moves the return value into the accumulator and leaves the function.
func (g *generator) genReturn(ins *tac.Instruction) {
	if ins.Op1 != nil {
		g.loadAcc(ins.Op1)
	}
	g.teardown()
}

// genArg moves an argument into the register of its parameter position.
func (g *generator) genArg(ins *tac.Instruction) error {
	i := ins.Res.ParamIndex(ins.Op2)
	if i < 0 {
		internal("%v is not a parameter of %q", ins.Op2, ins.Res.Name)
	}
	r, err := g.rf.Arg(i)
	if err != nil {
		return fmt.Errorf("%w: call to %q: %s", ErrUnsupported, ins.Res.Name, err)
	}
	g.text.Ins2("movl", g.src(ins.Op1), r.String())
	return nil
}

// genCall calls the function and stores its return value.
func (g *generator) genCall(ins *tac.Instruction) {
	g.text.Ins1("call", ins.Op1.Name)
	g.text.Ins2("movl", g.rf.Acc.String(), g.dst(ins.Res))
}
