package tac

import (
	"math"
	"math/bits"
	"strconv"

	"fortio.org/safecast"

	"tacc/src/ir"
)

// --------------------
// ----- Functions -----
// --------------------

// FoldConst evaluates a op b with 32-bit two's complement semantics and truncating division. The second
// result is false when the operation may not be folded: unknown operator, division or remainder by zero, and
// the overflowing MinInt32 / -1.
func FoldConst(op Opcode, a, b int32) (int32, bool) {
	switch op {
	case ADD:
		return a + b, true
	case SUB:
		return a - b, true
	case MUL:
		return a * b, true
	case DIV, MOD:
		if b == 0 || (a == math.MinInt32 && b == -1) {
			return 0, false
		}
		if op == DIV {
			return a / b, true
		}
		return a % b, true
	}
	return 0, false
}

// intValue returns the value of integer literal s.
func intValue(s *ir.Symbol) (int32, bool) {
	if s == nil || s.Class != ir.SymInteger {
		return 0, false
	}
	v, err := strconv.ParseInt(s.Name, 10, 64)
	if err != nil {
		return 0, false
	}
	n, err := safecast.Conv[int32](v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// literal returns the integer literal symbol of value v.
func (g *generator) literal(v int32) *ir.Symbol {
	s := g.st.Insert(strconv.FormatInt(int64(v), 10), ir.SymInteger)
	if s.DataTyp == ir.TypeNone {
		s.DataTyp = ir.TypeInt
	}
	return s
}

// log2 returns k when v is 2^k with k > 0.
func log2(v int32) (int, bool) {
	if v <= 1 || v&(v-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros32(uint32(v)), true
}

// fold rewrites the arithmetic instruction ins in place when its operands allow it.
func (g *generator) fold(ins *Instruction) {
	a, aLit := intValue(ins.Op1)
	b, bLit := intValue(ins.Op2)
	if !aLit && !bLit {
		return
	}

	move := func(src *ir.Symbol) {
		ins.Op = MOVE
		ins.Op1 = src
		ins.Op2 = nil
	}

	if g.opt.Fold {
		if aLit && bLit {
			if v, ok := FoldConst(ins.Op, a, b); ok {
				move(g.literal(v))
			}
			return
		}

		val, variable := b, ins.Op1
		if aLit {
			val, variable = a, ins.Op2
		}
		switch {
		case ins.Op == ADD && val == 0:
			move(variable)
			return
		case ins.Op == SUB && val == 0 && !aLit:
			move(variable)
			return
		case ins.Op == MUL && val == 1:
			move(variable)
			return
		case ins.Op == DIV && val == 1 && !aLit:
			move(variable)
			return
		case ins.Op == MUL && val == 0:
			move(g.literal(0))
			return
		}
	}
	if !g.opt.Strength || (aLit && bLit) {
		return
	}

	switch ins.Op {
	case MUL:
		val, variable := b, ins.Op1
		if aLit {
			val, variable = a, ins.Op2
		}
		if k, ok := log2(val); ok {
			ins.Op = LSHIFT
			ins.Op1 = variable
			ins.Op2 = g.literal(int32(k))
		}
	case DIV:
		if k, ok := log2(b); ok && bLit {
			ins.Op = RSHIFT
			ins.Op2 = g.literal(int32(k))
		}
	}
}

// Prune removes every bare symbol reference from l.
func Prune(l *List) {
	code := l.Code[:0]
	for _, e1 := range l.Code {
		if e1.Op != SYMBOL {
			code = append(code, e1)
		}
	}
	clear(l.Code[len(code):])
	l.Code = code
}

// RemoveDeadCode removes the instructions following a return up to the next label or function end.
func RemoveDeadCode(l *List) {
	code := l.Code[:0]
	dead := false
	for _, e1 := range l.Code {
		switch e1.Op {
		case LABEL, ENDFUN:
			dead = false
		}
		if !dead {
			code = append(code, e1)
		}
		if e1.Op == RET {
			dead = true
		}
	}
	clear(l.Code[len(code):])
	l.Code = code
}
