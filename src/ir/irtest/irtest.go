// Package irtest builds syntax trees the way the parser hands them over, for use in tests.
package irtest

import (
	"strconv"

	"tacc/src/ir"
)

// Builder creates nodes and the symbols they refer to.
type Builder struct {
	T  *ir.Tree
	ST *ir.SymTab
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{T: ir.NewTree(64), ST: ir.NewSymTab()}
}

// Program wraps the declarations in a DEC_LIST chain under a PROGRAM root and returns the builder's tree.
func (b *Builder) Program(decls ...ir.NodeID) *ir.Tree {
	b.T.Root = b.T.Add(ir.PROGRAM, nil, ir.TypeNone, b.chain(ir.DEC_LIST, decls))
	return b.T
}

// chain links ids into a right leaning list of nodes of kind typ, the shape the parser produces.
func (b *Builder) chain(typ ir.NodeType, ids []ir.NodeID) ir.NodeID {
	next := ir.NoNode
	for i1 := len(ids) - 1; i1 >= 0; i1-- {
		next = b.T.Add(typ, nil, ir.TypeNone, ids[i1], next)
	}
	return next
}

func (b *Builder) lit(name string, c ir.SymClass, dt ir.DataType) ir.NodeID {
	return b.T.Add(ir.LIT, b.ST.Insert(name, c), dt)
}

// Int returns an integer literal.
func (b *Builder) Int(v int) ir.NodeID {
	return b.lit(strconv.Itoa(v), ir.SymInteger, ir.TypeInt)
}

// Char returns a character literal.
func (b *Builder) Char(c byte) ir.NodeID {
	return b.lit("'"+string(c)+"'", ir.SymChar, ir.TypeChar)
}

// Bool returns a boolean literal.
func (b *Builder) Bool(v bool) ir.NodeID {
	return b.lit(strconv.FormatBool(v), ir.SymBool, ir.TypeBool)
}

// Real returns a floating point literal.
func (b *Builder) Real(s string) ir.NodeID {
	return b.lit(s, ir.SymFloat, ir.TypeReal)
}

// Str returns a string literal for use in Print, named by the quoted s.
func (b *Builder) Str(s string) ir.NodeID {
	return b.lit(strconv.Quote(s), ir.SymString, ir.TypeNone)
}

// Ident returns a use of name.
func (b *Builder) Ident(name string) ir.NodeID {
	return b.T.Add(ir.IDENTIFIER, b.ST.Insert(name, ir.SymUnresolved), ir.TypeNone)
}

// Op returns the binary operator node typ.
func (b *Builder) Op(typ ir.NodeType, l, r ir.NodeID) ir.NodeID {
	return b.T.Add(typ, nil, ir.TypeNone, l, r)
}

// Not returns a logical negation.
func (b *Builder) Not(x ir.NodeID) ir.NodeID {
	return b.T.Add(ir.OP_NOT, nil, ir.TypeNone, x)
}

// Elem returns the array access name[idx].
func (b *Builder) Elem(name string, idx ir.NodeID) ir.NodeID {
	return b.T.Add(ir.ARRAY_ELEMENT, b.ST.Insert(name, ir.SymUnresolved), ir.TypeNone, idx)
}

// Call returns a call of name with the given arguments.
func (b *Builder) Call(name string, args ...ir.NodeID) ir.NodeID {
	return b.T.Add(ir.FUNC_CALL, b.ST.Insert(name, ir.SymUnresolved), ir.TypeNone, b.chain(ir.ARG_LIST, args))
}

// Var declares the scalar name of type dt initialized by init.
func (b *Builder) Var(name string, dt ir.DataType, init ir.NodeID) ir.NodeID {
	return b.T.Add(ir.DEC_VAR, b.ST.Insert(name, ir.SymUnresolved), dt, init)
}

// Array declares name[size] of type dt with optional initial elements.
func (b *Builder) Array(name string, dt ir.DataType, size int, elems ...ir.NodeID) ir.NodeID {
	return b.T.Add(ir.DEC_VAR_ARRAY, b.ST.Insert(name, ir.SymUnresolved), dt, b.Int(size), b.chain(ir.VET_INIT, elems))
}

// Param declares a function parameter.
func (b *Builder) Param(name string, dt ir.DataType) ir.NodeID {
	return b.T.Add(ir.PARAM, b.ST.Insert(name, ir.SymUnresolved), dt)
}

// Func declares the function name returning dt.
func (b *Builder) Func(name string, dt ir.DataType, params, locals []ir.NodeID, body ir.NodeID) ir.NodeID {
	pl := b.chain(ir.PARAM_LIST, params)
	ll := b.chain(ir.LOCAL_VAR_DEC_LIST, locals)
	return b.T.Add(ir.DEC_FUNC, b.ST.Insert(name, ir.SymUnresolved), dt, pl, ll, body)
}

// Block returns a block of commands, or an empty block.
func (b *Builder) Block(cmds ...ir.NodeID) ir.NodeID {
	if len(cmds) == 0 {
		return b.T.Add(ir.EMPTY_BLOCK, nil, ir.TypeNone)
	}
	return b.T.Add(ir.BLOCK, nil, ir.TypeNone, b.chain(ir.CMD_LIST, cmds))
}

// Assign returns name = expr.
func (b *Builder) Assign(name string, expr ir.NodeID) ir.NodeID {
	return b.T.Add(ir.CMD_ASSIGN, b.ST.Insert(name, ir.SymUnresolved), ir.TypeNone, expr)
}

// AssignElem returns name[idx] = val.
func (b *Builder) AssignElem(name string, idx, val ir.NodeID) ir.NodeID {
	return b.T.Add(ir.CMD_ARRAY_ELEMENT_ASSIGN, b.ST.Insert(name, ir.SymUnresolved), ir.TypeNone, idx, val)
}

// Read returns read name.
func (b *Builder) Read(name string) ir.NodeID {
	return b.T.Add(ir.CMD_READ, b.ST.Insert(name, ir.SymUnresolved), ir.TypeNone)
}

// Print returns a print of every item. String literals are attached to their PRINT_LIST node,
// any other item becomes its first child.
func (b *Builder) Print(items ...ir.NodeID) ir.NodeID {
	next := ir.NoNode
	for i1 := len(items) - 1; i1 >= 0; i1-- {
		if s := b.T.Sym(items[i1]); s != nil && s.Class == ir.SymString && b.T.Typ(items[i1]) == ir.LIT {
			next = b.T.Add(ir.PRINT_LIST, s, ir.TypeNone, next)
			continue
		}
		next = b.T.Add(ir.PRINT_LIST, nil, ir.TypeNone, items[i1], next)
	}
	return b.T.Add(ir.CMD_PRINT, nil, ir.TypeNone, next)
}

// Return returns return expr.
func (b *Builder) Return(expr ir.NodeID) ir.NodeID {
	return b.T.Add(ir.CMD_RETURN, nil, ir.TypeNone, expr)
}

// If returns if (cond) then, or if (cond) then else els when els is given.
func (b *Builder) If(cond, then ir.NodeID, els ...ir.NodeID) ir.NodeID {
	if len(els) > 0 {
		return b.T.Add(ir.CMD_IF_ELSE, nil, ir.TypeNone, cond, then, els[0])
	}
	return b.T.Add(ir.CMD_IF, nil, ir.TypeNone, cond, then)
}

// While returns while (cond) body.
func (b *Builder) While(cond, body ir.NodeID) ir.NodeID {
	return b.T.Add(ir.CMD_WHILE, nil, ir.TypeNone, cond, body)
}
