package llvm

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"tacc/src/ir"
	"tacc/src/ir/tac"
)

// gen transforms one instruction at the builder's insert point.
func (g *generator) gen(ins *tac.Instruction) error {
	switch ins.Op {
	case tac.BEGINFUN:
		return g.genBeginFun(ins.Res)
	case tac.ENDFUN:
		return g.genEndFun()
	case tac.LABEL:
		bb := g.block(ins.Res)
		if !g.done {
			g.b.CreateBr(bb)
		}
		g.b.SetInsertPointAtEnd(bb)
		g.done = false
		return nil
	case tac.SYMBOL:
		return nil
	}
	if g.fsym == nil {
		return fmt.Errorf("compiler error: instruction %s outside of function", ins.Op)
	}
	if g.done {
		// Code following a terminator is unreachable but must still be in a block.
		g.b.SetInsertPointAtEnd(llvm.AddBasicBlock(g.fun, ""))
		g.done = false
	}

	switch ins.Op {
	case tac.ADD, tac.SUB, tac.MUL, tac.DIV, tac.MOD, tac.LSHIFT, tac.RSHIFT:
		return g.genArithmetic(ins)
	case tac.LESS, tac.GREATER, tac.LESSEQUAL, tac.GREATEREQUAL, tac.EQUAL, tac.NOTEQUAL:
		return g.genCompare(ins)
	case tac.AND, tac.OR:
		return g.genLogical(ins)
	case tac.NOT:
		v, err := g.load(ins.Op1, ir.TypeBool)
		if err != nil {
			return err
		}
		c := g.b.CreateICmp(llvm.IntEQ, v, llvm.ConstInt(g.i, 0, false), "")
		return g.store(ins.Res, g.b.CreateZExt(c, g.i, ""))
	case tac.MOVE:
		v, err := g.load(ins.Op1, ins.Res.DataTyp)
		if err != nil {
			return err
		}
		return g.store(ins.Res, v)
	case tac.MOVEVEC:
		return g.genMoveVec(ins)
	case tac.VECACCESS:
		return g.genVecAccess(ins)
	case tac.JUMP:
		g.b.CreateBr(g.block(ins.Res))
		g.done = true
	case tac.IFZ:
		v, err := g.load(ins.Op1, ir.TypeBool)
		if err != nil {
			return err
		}
		c := g.b.CreateICmp(llvm.IntEQ, v, llvm.ConstInt(g.i, 0, false), "")
		next := llvm.AddBasicBlock(g.fun, "")
		g.b.CreateCondBr(c, g.block(ins.Res), next)
		g.b.SetInsertPointAtEnd(next)
	case tac.RET:
		return g.genReturn(ins.Op1)
	case tac.ARG:
		return g.genArg(ins)
	case tac.CALL:
		return g.genCall(ins)
	case tac.PRINT:
		return g.genPrint(ins.Op1)
	case tac.READ:
		return g.genRead(ins.Res)
	default:
		return fmt.Errorf("compiler error: unexpected opcode %s", ins.Op)
	}
	return nil
}

// genBeginFun opens the entry block of function s and allocates the stack slots of its parameters,
// local variables and temporaries.
func (g *generator) genBeginFun(s *ir.Symbol) error {
	if s == nil || s.Class != ir.SymFunction {
		return fmt.Errorf("compiler error: function begin without function symbol")
	}
	fun := g.m.NamedFunction(s.Name)
	if fun.IsNil() {
		return fmt.Errorf("compiler error: function %q not declared", s.Name)
	}
	g.fun, g.fsym, g.done = fun, s, false
	g.slots = map[*ir.Symbol]llvm.Value{}
	g.blocks = map[*ir.Symbol]llvm.BasicBlock{}
	g.args = map[*ir.Symbol][]llvm.Value{}
	g.b.SetInsertPointAtEnd(llvm.AddBasicBlock(fun, "entry"))

	locals := g.locals(s)
	for _, e1 := range append(append(append([]*ir.Symbol{}, s.Params...), locals...), s.Temps...) {
		g.slots[e1] = g.b.CreateAlloca(g.typeOf(e1.DataTyp), e1.Name)
	}
	for i1, e1 := range s.Params {
		g.b.CreateStore(fun.Param(i1), g.slots[e1])
	}
	for _, e1 := range locals {
		n := g.tree.Node(e1.Value)
		if n == nil || n.Typ != ir.LIT {
			continue
		}
		c, err := g.constant(n.Sym, e1.DataTyp)
		if err != nil {
			return err
		}
		g.b.CreateStore(g.coerce(c, e1.DataTyp), g.slots[e1])
	}
	return nil
}

// genEndFun closes the current function, returning zero if its last block runs off the end.
func (g *generator) genEndFun() error {
	if g.fsym == nil {
		return fmt.Errorf("compiler error: function end without function begin")
	}
	if !g.done {
		g.b.CreateRet(llvm.ConstNull(g.typeOf(g.fsym.DataTyp)))
	}
	g.fsym, g.done = nil, true
	return nil
}

// genReturn returns v, or zero for a bare return, from the current function.
func (g *generator) genReturn(v *ir.Symbol) error {
	rt := g.fsym.DataTyp
	r := llvm.ConstNull(g.typeOf(rt))
	if v != nil {
		var err error
		if r, err = g.load(v, rt); err != nil {
			return err
		}
	}
	g.b.CreateRet(r)
	g.done = true
	return nil
}

// genArg stores an argument at the position of its parameter until the call is made.
func (g *generator) genArg(ins *tac.Instruction) error {
	fn := ins.Res
	i := fn.ParamIndex(ins.Op2)
	if i < 0 {
		return fmt.Errorf("compiler error: %v is not a parameter of %q", ins.Op2, fn.Name)
	}
	v, err := g.load(ins.Op1, ins.Op2.DataTyp)
	if err != nil {
		return err
	}
	if g.args[fn] == nil {
		g.args[fn] = make([]llvm.Value, len(fn.Params))
	}
	g.args[fn][i] = v
	return nil
}

// genCall calls the function with the pending arguments and stores its return value.
func (g *generator) genCall(ins *tac.Instruction) error {
	fn := ins.Op1
	fun := g.m.NamedFunction(fn.Name)
	if fun.IsNil() {
		return fmt.Errorf("compiler error: call to undeclared function %q", fn.Name)
	}
	args := g.args[fn]
	delete(g.args, fn)
	if len(args) != len(fn.Params) {
		args = make([]llvm.Value, len(fn.Params))
	}
	for i1, e1 := range args {
		if e1.IsNil() {
			return fmt.Errorf("compiler error: call to %q misses argument %d", fn.Name, i1+1)
		}
	}
	r := g.b.CreateCall(fun, args, "")
	if ins.Res == nil {
		return nil
	}
	return g.store(ins.Res, g.coerce(r, ins.Res.DataTyp))
}

// block returns the basic block of label s, creating it on first reference.
func (g *generator) block(s *ir.Symbol) llvm.BasicBlock {
	if bb, ok := g.blocks[s]; ok {
		return bb
	}
	bb := llvm.AddBasicBlock(g.fun, s.Name)
	g.blocks[s] = bb
	return bb
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
