package amd64

import (
	"fmt"

	"tacc/src/ir"
	"tacc/src/ir/tac"
)

// -------------------
// ----- Globals -----
// -------------------

// arithmetic maps integer opcodes to their instructions.
var arithmetic = map[tac.Opcode]string{
	tac.ADD: "addl",
	tac.SUB: "subl",
	tac.MUL: "imull",
}

// realArithmetic maps real opcodes to their scalar single precision instructions.
var realArithmetic = map[tac.Opcode]string{
	tac.ADD: "addss",
	tac.SUB: "subss",
	tac.MUL: "mulss",
	tac.DIV: "divss",
}

// setInt and setReal map relational opcodes to the byte set instruction of a signed and an unordered compare.
var (
	setInt = map[tac.Opcode]string{
		tac.LESS:         "setl",
		tac.GREATER:      "setg",
		tac.LESSEQUAL:    "setle",
		tac.GREATEREQUAL: "setge",
		tac.EQUAL:        "sete",
		tac.NOTEQUAL:     "setne",
	}
	setReal = map[tac.Opcode]string{
		tac.LESS:         "setb",
		tac.GREATER:      "seta",
		tac.LESSEQUAL:    "setbe",
		tac.GREATEREQUAL: "setae",
		tac.EQUAL:        "sete",
		tac.NOTEQUAL:     "setne",
	}
)

// ---------------------
// ----- Functions -----
// ---------------------

// genBinary generates addition and subtraction: op1 in the accumulator, op2 in the scratch register.
func (g *generator) genBinary(ins *tac.Instruction) {
	acc, scr := g.rf.Acc.String(), g.rf.Scratch.String()
	g.loadAcc(ins.Op1)
	g.text.Ins2("movl", g.src(ins.Op2), scr)
	g.text.Ins2(arithmetic[ins.Op], scr, acc)
	g.text.Ins2("movl", acc, g.dst(ins.Res))
}

// genMul generates multiplication. A literal product is moved directly and a literal factor becomes the
// immediate of a three operand multiply.
func (g *generator) genMul(ins *tac.Instruction) {
	acc := g.rf.Acc.String()
	a, b := ins.Op1, ins.Op2
	switch {
	case isImmediate(a) && isImmediate(b):
		v, _ := tac.FoldConst(tac.MUL, immediate(a), immediate(b))
		g.text.Ins2("movl", fmt.Sprintf("$%d", v), acc)
	case isImmediate(a) || isImmediate(b):
		if isImmediate(a) {
			a, b = b, a
		}
		g.loadAcc(a)
		g.text.Ins3("imull", g.src(b), acc, acc)
	default:
		scr := g.rf.Scratch.String()
		g.loadAcc(a)
		g.text.Ins2("movl", g.src(b), scr)
		g.text.Ins2("imull", scr, acc)
	}
	g.text.Ins2("movl", acc, g.dst(ins.Res))
}

// genDiv generates signed division and remainder. The remainder is moved from the scratch register into the
// accumulator so both leave their result there.
func (g *generator) genDiv(ins *tac.Instruction) {
	acc, div := g.rf.Acc.String(), g.rf.Div.String()
	g.loadAcc(ins.Op1)
	g.text.Ins2("movl", g.src(ins.Op2), div)
	g.text.Ins0("cltd")
	g.text.Ins1("idivl", div)
	if ins.Op == tac.MOD {
		g.text.Ins2("movl", g.rf.Scratch.String(), acc)
	}
	g.text.Ins2("movl", acc, g.dst(ins.Res))
}

// genShift generates shifts by a literal count.
func (g *generator) genShift(ins *tac.Instruction) {
	if !isImmediate(ins.Op2) {
		internal("shift count %q is not a literal", ins.Op2.Name)
	}
	op := "sall"
	if ins.Op == tac.RSHIFT {
		op = "sarl"
	}
	acc := g.rf.Acc.String()
	g.loadAcc(ins.Op1)
	g.text.Ins2(op, g.src(ins.Op2), acc)
	g.text.Ins2("movl", acc, g.dst(ins.Res))
}

// genRealArithmetic generates arithmetic on single precision floating point operands.
func (g *generator) genRealArithmetic(ins *tac.Instruction) error {
	op, ok := realArithmetic[ins.Op]
	if !ok {
		return fmt.Errorf("%w: %s of real operands", ErrUnsupported, ins.Op)
	}
	fa, fs := g.rf.FAcc.String(), g.rf.FScratch.String()
	g.loadReal(ins.Op1, fa)
	g.loadReal(ins.Op2, fs)
	g.text.Ins2(op, fs, fa)
	g.text.Ins2("movss", fa, g.dst(ins.Res))
	return nil
}

// loadReal loads s into the vector register reg as a single precision value. Integer, character and boolean
// operands are converted, an immediate through the divisor register.
func (g *generator) loadReal(s *ir.Symbol, reg string) {
	switch {
	case s.IsReal():
		g.text.Ins2("movss", g.src(s), reg)
	case isImmediate(s):
		div := g.rf.Div.String()
		g.text.Ins2("movl", g.src(s), div)
		g.text.Ins2("cvtsi2ssl", div, reg)
	default:
		g.text.Ins2("cvtsi2ssl", g.src(s), reg)
	}
}

// genCompare generates relational operators, leaving 0 or 1 in the accumulator.
func (g *generator) genCompare(ins *tac.Instruction) {
	acc := g.rf.Acc.String()
	if ins.Op1.IsReal() || ins.Op2.IsReal() {
		fa, fs := g.rf.FAcc.String(), g.rf.FScratch.String()
		g.loadReal(ins.Op1, fa)
		g.loadReal(ins.Op2, fs)
		g.text.Ins2("ucomiss", fs, fa)
		g.text.Ins1(setReal[ins.Op], g.rf.Acc.Byte())
	} else {
		scr := g.rf.Scratch.String()
		g.loadAcc(ins.Op1)
		g.text.Ins2("movl", g.src(ins.Op2), scr)
		g.text.Ins2("cmpl", scr, acc)
		g.text.Ins1(setInt[ins.Op], g.rf.Acc.Byte())
	}
	g.text.Ins2("movzbl", g.rf.Acc.Byte(), acc)
	g.text.Ins2("movl", acc, g.dst(ins.Res))
}

// genLogical generates the logical and and or of two booleans without branches.
func (g *generator) genLogical(ins *tac.Instruction) {
	acc, scr := g.rf.Acc.String(), g.rf.Scratch.String()
	g.loadAcc(ins.Op1)
	g.text.Ins2("testl", acc, acc)
	g.text.Ins1("setne", g.rf.Acc.Byte())
	g.text.Ins2("movl", g.src(ins.Op2), scr)
	g.text.Ins2("testl", scr, scr)
	g.text.Ins1("setne", g.rf.Scratch.Byte())
	op := "andb"
	if ins.Op == tac.OR {
		op = "orb"
	}
	g.text.Ins2(op, g.rf.Scratch.Byte(), g.rf.Acc.Byte())
	g.text.Ins2("movzbl", g.rf.Acc.Byte(), acc)
	g.text.Ins2("movl", acc, g.dst(ins.Res))
}

// genNot generates logical negation.
func (g *generator) genNot(ins *tac.Instruction) {
	acc := g.rf.Acc.String()
	g.loadAcc(ins.Op1)
	g.text.Ins2("testl", acc, acc)
	g.text.Ins1("sete", g.rf.Acc.Byte())
	g.text.Ins2("movzbl", g.rf.Acc.Byte(), acc)
	g.text.Ins2("movl", acc, g.dst(ins.Res))
}

// genVecAccess generates res = arr[idx].
func (g *generator) genVecAccess(ins *tac.Instruction) {
	acc := g.rf.Acc.String()
	g.text.Ins2("movl", g.element(ins.Op2, ins.Op1), acc)
	g.text.Ins2("movl", acc, g.dst(ins.Res))
}

// genMoveVec generates arr[idx] = val. A value that is not an immediate is held in the divisor register while the
// element address is computed.
func (g *generator) genMoveVec(ins *tac.Instruction) {
	if val := ins.Op2; isImmediate(val) {
		g.text.Ins2("movl", g.src(val), g.element(ins.Res, ins.Op1))
		return
	}
	div := g.rf.Div.String()
	g.text.Ins2("movl", g.src(ins.Op2), div)
	g.text.Ins2("movl", div, g.element(ins.Res, ins.Op1))
}
