package ir

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"tacc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Analyzer runs the declaration and type passes over one tree. It annotates nodes and reclassifies
// symbols in place and records every problem it finds.
type Analyzer struct {
	tree  *Tree            // Tree being checked.
	st    *SymTab          // Symbol table of the compilation unit.
	Diags util.Diagnostics // Problems found so far.
}

// ---------------------
// ----- Constants -----
// ---------------------

// ErrStructural is returned when the declaration pass fails.
var ErrStructural = errors.New("structural error")

// ErrType is returned when the type pass fails.
var ErrType = errors.New("type error")

// -------------------
// ----- Globals -----
// -------------------

// lut is the lookup table for type compatibility. Equal types are compatible and int and char
// may be used in place of each other.
var lut = [TypeReal + 1][TypeReal + 1]bool{
	TypeNone: {TypeNone: true},
	TypeInt:  {TypeInt: true, TypeChar: true},
	TypeChar: {TypeInt: true, TypeChar: true},
	TypeBool: {TypeBool: true},
	TypeReal: {TypeReal: true},
}

// ---------------------
// ----- Functions -----
// ---------------------

// Compatible reports whether values of types a and b may be used in place of each other.
func Compatible(a, b DataType) bool {
	if a < 0 || a > TypeReal || b < 0 || b > TypeReal {
		return false
	}
	return lut[a][b]
}

// NewAnalyzer returns an Analyzer for tree t and symbol table st.
func NewAnalyzer(t *Tree, st *SymTab) *Analyzer {
	return &Analyzer{tree: t, st: st}
}

// Analyze runs both passes over the tree rooted at t.Root. The type pass only runs if the declaration
// pass succeeded. The returned error wraps ErrStructural or ErrType.
func Analyze(t *Tree, st *SymTab) (util.Diagnostics, error) {
	a := NewAnalyzer(t, st)
	if t.Node(t.Root) == nil {
		return nil, fmt.Errorf("%w: syntax tree has no root", ErrStructural)
	}
	if a.CheckDeclarations(t.Root) {
		return a.Diags, fmt.Errorf("%w: declaration check failed with %d problem(s)", ErrStructural, a.Diags.Count(util.DiagStructural))
	}
	slog.Debug("declaration check passed", "nodes", len(t.Nodes))
	if a.CheckTypes(t.Root) {
		return a.Diags, fmt.Errorf("%w: type check failed with %d problem(s)", ErrType, a.Diags.Count(util.DiagType))
	}
	slog.Debug("type check passed", "logged", len(a.Diags))
	return a.Diags, nil
}

func (a *Analyzer) structural(id NodeID, format string, args ...interface{}) {
	a.Diags.Add(util.DiagStructural, int(id), format, args...)
}

func (a *Analyzer) warn(id NodeID, format string, args ...interface{}) {
	a.Diags.Add(util.DiagWarning, int(id), format, args...)
}

func (a *Analyzer) typeErr(id NodeID, format string, args ...interface{}) {
	a.Diags.Add(util.DiagType, int(id), format, args...)
}

// declared looks up the table record of the name declared by node n.
func (a *Analyzer) declared(n *Node) *Symbol {
	if n.Sym == nil {
		return nil
	}
	s, _ := a.st.Lookup(n.Sym.Name)
	return s
}

// CheckDeclarations binds declarations top-down and reports whether the subtree at id holds an error.
// Children of a node that is in error are not visited.
func (a *Analyzer) CheckDeclarations(id NodeID) bool {
	t := a.tree
	n := t.Node(id)
	if n == nil {
		return false
	}

	hasError := false
	switch n.Typ {
	case UNKNOWN:
		a.structural(id, "unknown node kind")
		hasError = true
	case DEC_VAR, PARAM:
		s := a.declared(n)
		if s == nil {
			a.structural(id, "declared symbol not found in symbol table")
			hasError = true
			break
		}
		if s.Class != SymUnresolved {
			a.structural(id, "symbol %q already has been declared", s.Name)
			hasError = true
			break
		}
		s.Class = SymVariable
	case DEC_VAR_ARRAY:
		s := a.declared(n)
		if s == nil {
			a.structural(id, "declared symbol not found in symbol table")
			hasError = true
			break
		}
		if s.Class != SymUnresolved {
			a.structural(id, "symbol %q already has been declared", s.Name)
			hasError = true
			break
		}
		s.Class = SymArray

		size, err := arraySize(t, id)
		if err != nil {
			a.structural(id, "array %q: %s", s.Name, err)
			hasError = true
			break
		}
		count := 0
		for cur := t.Child(id, 1); cur != NoNode && len(t.Nodes[cur].Children) > 0; cur = t.Child(cur, 1) {
			count++
			if e := t.Sym(t.Child(cur, 0)); e == nil || !Compatible(n.Sym.DataTyp, e.DataTyp) {
				a.structural(id, "array %q initialized with an element of incompatible type", s.Name)
				hasError = true
				break
			}
		}
		if count != 0 && count != size {
			a.structural(id, "array %q incorrectly initialized: %d element(s) for size %d", s.Name, count, size)
			hasError = true
		}
	case LIT, IDENTIFIER, ARRAY_ELEMENT, FUNC_CALL:
		// Leaves adopt the symbol's type before taking the assignment target checks below.
		if n.Sym != nil {
			if n.Sym.DataTyp == TypeNone {
				a.structural(id, "symbol %q has no data type", n.Sym.Name)
				hasError = true
			} else {
				n.DataTyp = n.Sym.DataTyp
			}
		}
		fallthrough
	case CMD_ASSIGN, CMD_ARRAY_ELEMENT_ASSIGN, CMD_READ:
		if n.Sym == nil {
			a.structural(id, "symbol not found")
			hasError = true
			break
		}
		if n.Sym.Class == SymUnresolved {
			a.structural(id, "symbol %q has not been declared", n.Sym.Name)
			hasError = true
		}
	case VET_INIT:
		p := t.Node(n.Parent)
		if p == nil || p.DataTyp == TypeNone {
			a.structural(id, "vector initialization with incorrect variable")
			hasError = true
			break
		}
		n.DataTyp = p.DataTyp
	case DEC_FUNC:
		s := a.declared(n)
		if s == nil {
			a.structural(id, "declared symbol not found in symbol table")
			hasError = true
			break
		}
		if s.Class != SymUnresolved {
			a.structural(id, "symbol %q already has been declared", s.Name)
			hasError = true
			break
		}
		s.Class = SymFunction
		s.Value = id
		if c := t.Child(id, 0); t.Typ(c) == PARAM_LIST {
			for pl := c; pl != NoNode; pl = t.Child(pl, 1) {
				if p := t.Sym(t.Child(pl, 0)); p != nil {
					s.Params = append(s.Params, p)
				}
			}
		}
	}

	if hasError {
		return true
	}
	for _, e1 := range n.Children {
		if a.CheckDeclarations(e1) {
			hasError = true
		}
	}
	return hasError
}

// CheckTypes infers and checks types bottom-up and reports whether the subtree at id holds an error.
// A node is only checked when all of its children checked without error.
func (a *Analyzer) CheckTypes(id NodeID) bool {
	t := a.tree
	n := t.Node(id)
	if n == nil {
		return false
	}

	hasError := false
	for _, e1 := range n.Children {
		if a.CheckTypes(e1) {
			hasError = true
		}
	}
	if hasError {
		return true
	}

	c0, c1 := t.Child(id, 0), t.Child(id, 1)
	switch n.Typ {
	case DEC_VAR:
		if c0 == NoNode {
			break
		}
		if !Compatible(n.Sym.DataTyp, t.DataTyp(c0)) {
			a.typeErr(id, "initialization of %q with incompatible type %s", n.Sym.Name, t.DataTyp(c0))
			hasError = true
		}
		n.Sym.Value = c0
		if s := t.Sym(c0); s != nil {
			s.Value = id
		}
	case DEC_VAR_ARRAY:
		if c1 != NoNode && !Compatible(n.Sym.DataTyp, t.DataTyp(c1)) {
			a.typeErr(id, "initialization of array %q with incompatible type %s", n.Sym.Name, t.DataTyp(c1))
			hasError = true
		}
		n.Sym.Value = id
	case IDENTIFIER:
		switch n.Sym.Class {
		case SymUnresolved:
			a.typeErr(id, "symbol %q has not been declared", n.Sym.Name)
			hasError = true
		case SymFunction:
			a.typeErr(id, "function symbol %q used as variable", n.Sym.Name)
			hasError = true
		case SymArray:
			a.typeErr(id, "vector symbol %q used as variable", n.Sym.Name)
			hasError = true
		}
	case VET_INIT:
		if c0 == NoNode {
			a.typeErr(id, "empty vector initialization")
			hasError = true
		} else if !Compatible(n.DataTyp, t.DataTyp(c0)) {
			a.typeErr(id, "vector element of type %s in %s vector", t.DataTyp(c0), n.DataTyp)
			hasError = true
		}
	case CMD_ASSIGN:
		if n.Sym == nil || n.Sym.Class != SymVariable {
			a.typeErr(id, "assignment to non-variable")
			hasError = true
			break
		}
		if !Compatible(n.Sym.DataTyp, t.DataTyp(c0)) {
			a.typeErr(id, "assignment of symbol %q type not compatible", n.Sym.Name)
			hasError = true
		}
	case CMD_READ:
		if n.Sym == nil || n.Sym.Class != SymVariable {
			a.typeErr(id, "read into non-variable")
			hasError = true
		}
	case CMD_ARRAY_ELEMENT_ASSIGN:
		if n.Sym == nil || n.Sym.Class != SymArray {
			a.typeErr(id, "assignment to non-vector")
			hasError = true
			break
		}
		if t.DataTyp(c0) != TypeInt {
			a.typeErr(id, "array index is not integer type")
			hasError = true
		} else if a.outOfBounds(n.Sym, c0) {
			hasError = true
		}
		if !Compatible(n.Sym.DataTyp, t.DataTyp(c1)) {
			a.typeErr(id, "assignment of symbol %q type not compatible", n.Sym.Name)
			hasError = true
		}
	case CMD_RETURN:
		f := t.Enclosing(id, DEC_FUNC)
		if f == NoNode {
			a.typeErr(id, "return statement not inside a function")
			return true
		}
		if !Compatible(t.Nodes[f].Sym.DataTyp, t.DataTyp(c0)) {
			a.typeErr(id, "return type not compatible with function type")
			return true
		}
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOD:
		n.DataTyp = t.DataTyp(c0)
		if n.DataTyp == TypeNone {
			a.typeErr(id, "expression with undefined type")
			hasError = true
			break
		}
		if n.DataTyp == TypeBool {
			a.typeErr(id, "expression with boolean type in arithmetic operation")
			hasError = true
			break
		}
		if !Compatible(n.DataTyp, t.DataTyp(c1)) {
			a.typeErr(id, "arithmetic operation with incompatible types")
			hasError = true
		}
	case OP_LESS, OP_GREATER, OP_LESS_EQUAL, OP_GREATER_EQUAL, OP_EQUAL, OP_NOT_EQUAL:
		if t.DataTyp(c0) == TypeNone {
			a.typeErr(id, "expression with undefined type")
			hasError = true
			break
		}
		if n.DataTyp == TypeBool {
			a.typeErr(id, "expression with boolean type in relational operation")
			hasError = true
			break
		}
		if !Compatible(t.DataTyp(c0), t.DataTyp(c1)) {
			// Reported without failing the check.
			a.warn(id, "relational operation with incompatible types %s and %s", t.DataTyp(c0), t.DataTyp(c1))
		}
		n.DataTyp = TypeBool
	case OP_AND, OP_OR:
		if t.DataTyp(c0) != TypeBool || t.DataTyp(c1) != TypeBool {
			a.typeErr(id, "expression with non-boolean type in logical operation")
			hasError = true
			break
		}
		n.DataTyp = TypeBool
	case OP_NOT:
		if t.DataTyp(c0) != TypeBool {
			a.typeErr(id, "expression with non-boolean type in logical operation")
			hasError = true
			break
		}
		n.DataTyp = TypeBool
	case ARRAY_ELEMENT:
		if !Compatible(t.DataTyp(c0), TypeInt) {
			a.typeErr(id, "array index is not integer type")
			hasError = true
		} else if a.outOfBounds(n.Sym, c0) {
			hasError = true
		}
	case FUNC_CALL:
		if n.Sym == nil || n.Sym.Class != SymFunction {
			name := ""
			if n.Sym != nil {
				name = n.Sym.Name
			}
			a.typeErr(id, "call to non-function %q", name)
			hasError = true
			break
		}
		count := 0
		for al := c0; al != NoNode; al = t.Child(al, 1) {
			if count >= len(n.Sym.Params) {
				a.typeErr(id, "too many arguments in function call: %s", n.Sym.Name)
				return true
			}
			if !Compatible(n.Sym.Params[count].DataTyp, t.DataTyp(t.Child(al, 0))) {
				a.typeErr(id, "argument type not compatible in function call: %s", n.Sym.Name)
				return true
			}
			count++
		}
		if count < len(n.Sym.Params) {
			a.typeErr(id, "too few arguments in function call: %s", n.Sym.Name)
			hasError = true
		}
		n.DataTyp = n.Sym.DataTyp
	case CMD_IF, CMD_IF_ELSE, CMD_WHILE:
		if t.DataTyp(c0) != TypeBool {
			a.typeErr(id, "condition expression is not boolean type")
			hasError = true
		}
	}
	return hasError
}

// outOfBounds reports a literal index idx that falls outside array s. Arrays whose declaration
// has not been checked yet and non-literal indices are not checked.
func (a *Analyzer) outOfBounds(s *Symbol, idx NodeID) bool {
	t := a.tree
	is := t.Sym(idx)
	if s == nil || is == nil || is.Class != SymInteger || t.Typ(s.Value) != DEC_VAR_ARRAY {
		return false
	}
	size, err := arraySize(t, s.Value)
	if err != nil {
		return false
	}
	i, err := strconv.Atoi(is.Name)
	if err != nil {
		return false
	}
	if i < 0 || i >= size {
		a.typeErr(idx, "array index %d out of bounds for %q of size %d", i, s.Name, size)
		return true
	}
	return false
}

// arraySize returns the declared size of the DEC_VAR_ARRAY node id.
func arraySize(t *Tree, id NodeID) (int, error) {
	s := t.Sym(t.Child(id, 0))
	if s == nil {
		return 0, errors.New("missing array size")
	}
	size, err := strconv.Atoi(s.Name)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid array size %q", s.Name)
	}
	return size, nil
}
