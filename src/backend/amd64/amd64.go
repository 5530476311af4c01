// Package amd64 generates x86-64 assembler code in AT&T syntax from three-address code.
package amd64

import (
	"errors"
	"fmt"
	"log/slog"

	"tacc/src/backend/regfile"
	"tacc/src/ir"
	"tacc/src/ir/tac"
	"tacc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// generator holds the state of one assembler generation run.
type generator struct {
	l      *tac.List
	st     *ir.SymTab
	tree   *ir.Tree
	opt    util.Options
	rf     *regfile.RegisterFile
	labels util.LabelGen
	jumps  map[*ir.Symbol]string // Assembler labels of TAC labels.
	used   map[*ir.Symbol]bool   // Symbols referenced by any instruction.
	text   util.Writer
	data   util.Writer
	prev   *tac.Instruction // Instruction emitted before the current one, <nil> at the start.
}

// internalError is raised when the instruction list breaks an invariant established by the earlier stages.
type internalError string

// ---------------------
// ----- Constants -----
// ---------------------

// wordSize is the size in bytes of every scalar slot and array element.
const wordSize = 4

// stackAlign defines the stack alignment of the x86-64 stack frame.
const stackAlign = 16

var (
	// ErrInternal wraps broken invariants found in the instruction list.
	ErrInternal = errors.New("internal code generation error")
	// ErrUnsupported is returned for programs the register convention cannot express.
	ErrUnsupported = errors.New("unsupported by the amd64 target")
)

// -------------------
// ----- Globals -----
// -------------------

// accumulates tells which opcodes leave their result in the accumulator.
var accumulates = [tac.NumOpcodes]bool{
	tac.ADD:          true,
	tac.SUB:          true,
	tac.MUL:          true,
	tac.DIV:          true,
	tac.MOD:          true,
	tac.LSHIFT:       true,
	tac.RSHIFT:       true,
	tac.LESS:         true,
	tac.GREATER:      true,
	tac.LESSEQUAL:    true,
	tac.GREATEREQUAL: true,
	tac.EQUAL:        true,
	tac.NOTEQUAL:     true,
	tac.AND:          true,
	tac.OR:           true,
	tac.NOT:          true,
	tac.CALL:         true,
}

// ---------------------
// ----- Functions -----
// ---------------------

func (e internalError) Error() string {
	return string(e)
}

// internal aborts generation with a broken invariant.
func internal(format string, args ...interface{}) {
	panic(internalError(fmt.Sprintf(format, args...)))
}

// Generate writes the assembler program for l to wr. The tree t supplies declarations of arrays and local variables.
func Generate(l *tac.List, st *ir.SymTab, t *ir.Tree, opt util.Options, wr *util.Writer) (err error) {
	g := &generator{
		l:     l,
		st:    st,
		tree:  t,
		opt:   opt,
		rf:    regfile.AMD64(),
		jumps: map[*ir.Symbol]string{},
		used:  map[*ir.Symbol]bool{},
	}
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(internalError)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("%w: %s", ErrInternal, string(ie))
		}
	}()

	for _, e1 := range l.Code {
		for _, e2 := range [3]*ir.Symbol{e1.Res, e1.Op1, e1.Op2} {
			if e2 != nil {
				g.used[e2] = true
			}
		}
	}
	g.assignConstantLabels()

	for _, e1 := range l.Code {
		if err := g.emit(e1); err != nil {
			return err
		}
		g.prev = e1
	}
	if err := g.genData(); err != nil {
		return err
	}

	genReadOnly(wr)
	wr.Write("%s", g.data.String())
	wr.Write("%s", g.text.String())
	genEpilogue(wr)
	slog.Debug("amd64 assembler generated", "instructions", l.Len(), "bytes", wr.Len())
	return nil
}

// emit generates the assembler template of one instruction.
func (g *generator) emit(ins *tac.Instruction) error {
	if g.opt.Comments {
		g.text.Write("\n")
		g.text.Comment("TAC %s", ins.Op)
	}

	switch ins.Op {
	case tac.ADD, tac.SUB, tac.MUL, tac.DIV, tac.MOD:
		if ins.Res.IsReal() {
			return g.genRealArithmetic(ins)
		}
		switch ins.Op {
		case tac.MUL:
			g.genMul(ins)
		case tac.DIV, tac.MOD:
			g.genDiv(ins)
		default:
			g.genBinary(ins)
		}
	case tac.LSHIFT, tac.RSHIFT:
		g.genShift(ins)
	case tac.LESS, tac.GREATER, tac.LESSEQUAL, tac.GREATEREQUAL, tac.EQUAL, tac.NOTEQUAL:
		g.genCompare(ins)
	case tac.AND, tac.OR:
		g.genLogical(ins)
	case tac.NOT:
		g.genNot(ins)
	case tac.MOVE:
		g.move(ins.Op1, g.dst(ins.Res))
	case tac.MOVEVEC:
		g.genMoveVec(ins)
	case tac.VECACCESS:
		g.genVecAccess(ins)
	case tac.LABEL:
		g.text.Label(g.jumpLabel(ins.Res))
	case tac.JUMP:
		g.text.Ins1("jmp", g.jumpLabel(ins.Res))
	case tac.IFZ:
		g.genIfZ(ins)
	case tac.BEGINFUN:
		return g.genBeginFun(ins)
	case tac.ENDFUN:
		g.genEndFun(ins)
	case tac.RET:
		g.genReturn(ins)
	case tac.ARG:
		return g.genArg(ins)
	case tac.CALL:
		g.genCall(ins)
	case tac.PRINT:
		g.genPrint(ins)
	case tac.READ:
		g.genRead(ins)
	case tac.SYMBOL:
		// Pruned before code generation.
	default:
		internal("unexpected opcode %s", ins.Op)
	}
	return nil
}

// inAcc reports whether the accumulator already holds s because the previous instruction computed it.
func (g *generator) inAcc(s *ir.Symbol) bool {
	p := g.prev
	return p != nil && accumulates[p.Op] && p.Res == s && !s.IsReal()
}

// loadAcc moves s into the accumulator unless it is already there.
func (g *generator) loadAcc(s *ir.Symbol) {
	if !g.inAcc(s) {
		g.text.Ins2("movl", g.src(s), g.rf.Acc.String())
	}
}

// jumpLabel returns the assembler label of the TAC label s.
func (g *generator) jumpLabel(s *ir.Symbol) string {
	if s == nil || s.Class != ir.SymLabel {
		internal("jump target %v is not a label", s)
	}
	if l, ok := g.jumps[s]; ok {
		return l
	}
	l := g.labels.NewLabel(util.LabelJump)
	g.jumps[s] = l
	return l
}
