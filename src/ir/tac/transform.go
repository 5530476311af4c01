package tac

import (
	"errors"
	"fmt"
	"log/slog"

	"tacc/src/ir"
	"tacc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options toggles the peephole rewrites applied while lowering.
type Options struct {
	Fold     bool // Constant folding and algebraic identities.
	Strength bool // Multiplication and division by powers of two become shifts.
}

// generator holds the state of one lowering run.
type generator struct {
	tree  *ir.Tree
	st    *ir.SymTab
	opt   Options
	funcs util.Stack[*ir.Symbol] // Enclosing function, empty at global scope.
}

// ---------------------
// ----- Constants -----
// ---------------------

// ErrNotConstant is returned for a global whose initializer does not reduce to a literal.
var ErrNotConstant = errors.New("global initializer is not constant")

// ---------------------
// ----- Functions -----
// ---------------------

// DefaultOptions enables every rewrite.
func DefaultOptions() Options {
	return Options{Fold: true, Strength: true}
}

// Generate lowers the checked tree t into a List and runs the cleanup passes over it.
func Generate(t *ir.Tree, st *ir.SymTab, opt Options) (*List, error) {
	if t.Node(t.Root) == nil {
		return nil, errors.New("syntax tree has no root")
	}
	g := generator{tree: t, st: st, opt: opt}
	code, err := g.lower(t.Root)
	if err != nil {
		return nil, err
	}
	l := &List{Code: code}
	n := l.Len()
	Prune(l)
	RemoveDeadCode(l)
	slog.Debug("three-address code generated", "instructions", l.Len(), "pruned", n-l.Len())
	return l, nil
}

// temp returns a new temporary of type dt. Temporaries of a function body live in its frame.
func (g *generator) temp(dt ir.DataType) *ir.Symbol {
	s := g.st.MakeTemp()
	s.DataTyp = dt
	if fn, ok := g.funcs.Peek(); ok {
		s.InStack = true
		fn.Temps = append(fn.Temps, s)
	}
	return s
}

// expr lowers the expression at id and returns its code together with the symbol holding its value.
func (g *generator) expr(id ir.NodeID) (fragment, *ir.Symbol, error) {
	code, err := g.lower(id)
	if err != nil {
		return nil, nil, err
	}
	v := code.value()
	if v == nil {
		return nil, nil, fmt.Errorf("compiler error: %s at node %d produced no value", g.tree.Typ(id), id)
	}
	return code, v, nil
}

// operand lowers the operand at id. A temporary computed by a trailing move of a literal is replaced by
// the literal so that folding can continue across nested expressions.
func (g *generator) operand(id ir.NodeID) (fragment, *ir.Symbol, error) {
	code, v, err := g.expr(id)
	if err != nil {
		return nil, nil, err
	}
	if ins := code.last(); g.opt.Fold && ins.Op == MOVE && ins.Res.Class == ir.SymTemp && ins.Op1.IsLiteral() {
		return code[:len(code)-1], ins.Op1, nil
	}
	return code, v, nil
}

// lower converts the subtree at id into a fragment.
func (g *generator) lower(id ir.NodeID) (fragment, error) {
	t := g.tree
	n := t.Node(id)
	if n == nil {
		return nil, nil
	}

	switch n.Typ {
	case ir.UNKNOWN:
		return nil, fmt.Errorf("unknown syntax tree node %d in code generation", id)
	case ir.LIT, ir.IDENTIFIER:
		return fragment{New(SYMBOL, n.Sym, nil, nil)}, nil
	case ir.DEC_FUNC:
		g.funcs.Push(n.Sym)
		var body fragment
		for _, e1 := range n.Children {
			code, err := g.lower(e1)
			if err != nil {
				g.funcs.Pop()
				return nil, err
			}
			body = append(body, code...)
		}
		g.funcs.Pop()
		code := fragment{New(BEGINFUN, n.Sym, nil, nil)}
		code = append(code, body...)
		return append(code, New(ENDFUN, n.Sym, nil, nil)), nil
	case ir.DEC_VAR:
		return g.decVar(id)
	case ir.DEC_VAR_ARRAY:
		// Arrays are static data, initialized by the code generator from the declaration node.
		return nil, nil
	case ir.CMD_ASSIGN:
		code, v, err := g.expr(t.Child(id, 0))
		if err != nil {
			return nil, err
		}
		return assign(code, v, n.Sym), nil
	case ir.CMD_ARRAY_ELEMENT_ASSIGN:
		idx, iv, err := g.expr(t.Child(id, 0))
		if err != nil {
			return nil, err
		}
		val, vv, err := g.expr(t.Child(id, 1))
		if err != nil {
			return nil, err
		}
		code := append(idx, val...)
		return append(code, New(MOVEVEC, n.Sym, iv, vv)), nil
	case ir.CMD_READ:
		return fragment{New(READ, n.Sym, nil, nil)}, nil
	case ir.PRINT_LIST:
		var code fragment
		if n.Sym != nil {
			code = append(code, New(PRINT, nil, n.Sym, nil))
		}
		for _, e1 := range n.Children {
			if t.Typ(e1) == ir.PRINT_LIST {
				c, err := g.lower(e1)
				if err != nil {
					return nil, err
				}
				code = append(code, c...)
				continue
			}
			c, v, err := g.expr(e1)
			if err != nil {
				return nil, err
			}
			code = append(code, c...)
			code = append(code, New(PRINT, nil, v, nil))
		}
		return code, nil
	case ir.CMD_RETURN:
		code, v, err := g.expr(t.Child(id, 0))
		if err != nil {
			return nil, err
		}
		return append(code, New(RET, nil, v, nil)), nil
	case ir.OP_ADD, ir.OP_SUB, ir.OP_MUL, ir.OP_DIV, ir.OP_MOD,
		ir.OP_LESS, ir.OP_GREATER, ir.OP_LESS_EQUAL, ir.OP_GREATER_EQUAL, ir.OP_EQUAL, ir.OP_NOT_EQUAL,
		ir.OP_AND, ir.OP_OR:
		l, lv, err := g.operand(t.Child(id, 0))
		if err != nil {
			return nil, err
		}
		r, rv, err := g.operand(t.Child(id, 1))
		if err != nil {
			return nil, err
		}
		op := binaryOps[n.Typ]
		dt := ir.TypeNone
		if op.IsArithmetic() {
			dt = n.DataTyp
		}
		ins := New(op, g.temp(dt), lv, rv)
		if op.IsArithmetic() {
			g.fold(ins)
		}
		code := append(l, r...)
		return append(code, ins), nil
	case ir.OP_NOT:
		code, v, err := g.expr(t.Child(id, 0))
		if err != nil {
			return nil, err
		}
		return append(code, New(NOT, g.temp(ir.TypeNone), v, nil)), nil
	case ir.ARRAY_ELEMENT:
		code, v, err := g.expr(t.Child(id, 0))
		if err != nil {
			return nil, err
		}
		return append(code, New(VECACCESS, g.temp(n.DataTyp), v, n.Sym)), nil
	case ir.FUNC_CALL:
		return g.call(id)
	case ir.CMD_IF:
		cond, cv, err := g.expr(t.Child(id, 0))
		if err != nil {
			return nil, err
		}
		body, err := g.lower(t.Child(id, 1))
		if err != nil {
			return nil, err
		}
		l1 := g.st.MakeLabel()
		code := append(cond, New(IFZ, l1, cv, nil))
		code = append(code, body...)
		return append(code, New(LABEL, l1, nil, nil)), nil
	case ir.CMD_IF_ELSE:
		cond, cv, err := g.expr(t.Child(id, 0))
		if err != nil {
			return nil, err
		}
		b1, err := g.lower(t.Child(id, 1))
		if err != nil {
			return nil, err
		}
		b2, err := g.lower(t.Child(id, 2))
		if err != nil {
			return nil, err
		}
		l1, l2 := g.st.MakeLabel(), g.st.MakeLabel()
		code := append(cond, New(IFZ, l1, cv, nil))
		code = append(code, b1...)
		code = append(code, New(JUMP, l2, nil, nil), New(LABEL, l1, nil, nil))
		code = append(code, b2...)
		return append(code, New(LABEL, l2, nil, nil)), nil
	case ir.CMD_WHILE:
		l1, l2 := g.st.MakeLabel(), g.st.MakeLabel()
		cond, cv, err := g.expr(t.Child(id, 0))
		if err != nil {
			return nil, err
		}
		body, err := g.lower(t.Child(id, 1))
		if err != nil {
			return nil, err
		}
		code := fragment{New(LABEL, l1, nil, nil)}
		code = append(code, cond...)
		code = append(code, New(IFZ, l2, cv, nil))
		code = append(code, body...)
		return append(code, New(JUMP, l1, nil, nil), New(LABEL, l2, nil, nil)), nil
	case ir.ARG_LIST:
		return nil, fmt.Errorf("compiler error: argument list at node %d outside of a call", id)
	default:
		var code fragment
		for _, e1 := range n.Children {
			c, err := g.lower(e1)
			if err != nil {
				return nil, err
			}
			code = append(code, c...)
		}
		return code, nil
	}
}

// assign stores the value v computed by code into dst. The final instruction is retargeted unless it is a
// bare symbol reference, which needs an explicit move.
func assign(code fragment, v, dst *ir.Symbol) fragment {
	ins := code.last()
	if ins.Op == SYMBOL {
		return append(code, New(MOVE, dst, v, nil))
	}
	ins.Res = dst
	return code
}

// decVar lowers a scalar declaration. Globals keep their literal initial value in the symbol and produce no
// code. Locals initialized by a literal are set up by the function prologue; any other initializer is
// lowered like an assignment.
func (g *generator) decVar(id ir.NodeID) (fragment, error) {
	t := g.tree
	n := t.Node(id)
	init := t.Child(id, 0)
	if init == ir.NoNode {
		return nil, nil
	}
	code, v, err := g.expr(init)
	if err != nil {
		return nil, err
	}

	if _, local := g.funcs.Peek(); local {
		if t.Typ(init) == ir.LIT {
			return nil, nil
		}
		return assign(code, v, n.Sym), nil
	}

	lit := v
	if ins := code.last(); ins.Op == MOVE && ins.Op1.IsLiteral() {
		lit = ins.Op1
	}
	if !lit.IsLiteral() {
		return nil, fmt.Errorf("%w: %q", ErrNotConstant, n.Sym.Name)
	}
	n.Sym.Init = lit
	return nil, nil
}

// call lowers a function call: every argument expression first, then the argument binds in parameter order,
// then the call itself.
func (g *generator) call(id ir.NodeID) (fragment, error) {
	t := g.tree
	n := t.Node(id)
	fn := n.Sym

	var code, binds fragment
	index := 0
	for al := t.Child(id, 0); al != ir.NoNode; al = t.Child(al, 1) {
		c, v, err := g.expr(t.Child(al, 0))
		if err != nil {
			return nil, err
		}
		if index >= len(fn.Params) {
			return nil, fmt.Errorf("compiler error: call to %q binds argument %d of %d", fn.Name, index+1, len(fn.Params))
		}
		code = append(code, c...)
		binds = append(binds, New(ARG, fn, v, fn.Params[index]))
		index++
	}
	code = append(code, binds...)
	return append(code, New(CALL, g.temp(n.DataTyp), fn, nil)), nil
}
