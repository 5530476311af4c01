// Package llvm provides means to transform three-address code into LLVM IR for the system installed LLVM runtime.
package llvm

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"tinygo.org/x/go-llvm"

	"tacc/src/ir"
	"tacc/src/ir/tac"
	"tacc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// generator holds the LLVM state of one transformation.
type generator struct {
	ctx     llvm.Context
	m       llvm.Module
	b       llvm.Builder
	st      *ir.SymTab
	tree    *ir.Tree
	i       llvm.Type                      // Type of integer, character and boolean values.
	f       llvm.Type                      // Type of real values.
	globals map[*ir.Symbol]llvm.Value      // Global variables and arrays.
	slots   map[*ir.Symbol]llvm.Value      // Stack slots of the current function.
	blocks  map[*ir.Symbol]llvm.BasicBlock // Basic blocks of the labels of the current function.
	args    map[*ir.Symbol][]llvm.Value    // Pending arguments per called function.
	strs    map[string]llvm.Value          // Global strings by content.
	fun     llvm.Value                     // Current function.
	fsym    *ir.Symbol                     // Symbol of the current function.
	done    bool                           // Set true when the current basic block has its terminator.
}

// ---------------------
// ----- Constants -----
// ---------------------

const stringPrefix = "L_STR" // Prefix of all global strings.

// ErrUnsupported is returned for instructions LLVM IR generation does not support.
var ErrUnsupported = errors.New("unsupported by the llvm target")

// -------------------
// ----- Globals -----
// -------------------

// reservedFunctionNames defines a list of function names that cannot be assigned to program functions.
var reservedFunctionNames = []string{
	"printf",
	"scanf",
}

var intPredicates = map[tac.Opcode]llvm.IntPredicate{
	tac.LESS:         llvm.IntSLT,
	tac.GREATER:      llvm.IntSGT,
	tac.LESSEQUAL:    llvm.IntSLE,
	tac.GREATEREQUAL: llvm.IntSGE,
	tac.EQUAL:        llvm.IntEQ,
	tac.NOTEQUAL:     llvm.IntNE,
}

var floatPredicates = map[tac.Opcode]llvm.FloatPredicate{
	tac.LESS:         llvm.FloatOLT,
	tac.GREATER:      llvm.FloatOGT,
	tac.LESSEQUAL:    llvm.FloatOLE,
	tac.GREATEREQUAL: llvm.FloatOGE,
	tac.EQUAL:        llvm.FloatOEQ,
	tac.NOTEQUAL:     llvm.FloatONE,
}

// ---------------------
// ----- Functions -----
// ---------------------

// Generate transforms l into an LLVM module named name and writes its textual IR to wr.
func Generate(name string, l *tac.List, st *ir.SymTab, t *ir.Tree, wr *util.Writer) error {
	ctx := llvm.NewContext()
	defer ctx.Dispose()

	// Builder constructs LLVM IR instructions on basic block level.
	b := ctx.NewBuilder()
	defer b.Dispose()

	m := ctx.NewModule(name)
	defer m.Dispose()

	g := &generator{
		ctx:     ctx,
		m:       m,
		b:       b,
		st:      st,
		tree:    t,
		i:       ctx.Int32Type(),
		f:       ctx.FloatType(),
		globals: map[*ir.Symbol]llvm.Value{},
		strs:    map[string]llvm.Value{},
	}
	g.genLibc()
	if err := g.genGlobals(); err != nil {
		return err
	}
	for _, e1 := range l.Code {
		if e1.Op == tac.BEGINFUN {
			if err := g.genFuncHeader(e1.Res); err != nil {
				return err
			}
		}
	}
	for _, e1 := range l.Code {
		if err := g.gen(e1); err != nil {
			return err
		}
	}

	if err := llvm.VerifyModule(m, llvm.ReturnStatusAction); err != nil {
		return fmt.Errorf("compiler error: generated module does not verify: %w", err)
	}
	wr.Write("%s", m.String())
	slog.Debug("llvm module generated", "instructions", l.Len())
	return nil
}

// typeOf returns the LLVM type of values of dt.
func (g *generator) typeOf(dt ir.DataType) llvm.Type {
	if dt == ir.TypeReal {
		return g.f
	}
	return g.i
}

// genLibc declares the C library functions used by print and read.
func (g *generator) genLibc() {
	args := []llvm.Type{llvm.PointerType(g.ctx.Int8Type(), 0)}
	for _, e1 := range reservedFunctionNames {
		llvm.AddFunction(g.m, e1, llvm.FunctionType(g.ctx.Int32Type(), args, true))
	}
}

// genGlobals defines every global variable, static temporary and array with its initial value.
func (g *generator) genGlobals() error {
	for _, e1 := range g.st.Sorted() {
		switch {
		case e1.Class == ir.SymVariable && !e1.InStack, e1.Class == ir.SymTemp && !e1.InStack:
			v := llvm.AddGlobal(g.m, g.typeOf(e1.DataTyp), e1.Name)
			c, err := g.constant(e1.Init, e1.DataTyp)
			if err != nil {
				return err
			}
			v.SetInitializer(c)
			g.globals[e1] = v
		case e1.Class == ir.SymArray:
			if err := g.genArray(e1); err != nil {
				return err
			}
		}
	}
	return nil
}

// genArray defines the global array s from its declaration.
func (g *generator) genArray(s *ir.Symbol) error {
	t := g.tree
	if t.Typ(s.Value) != ir.DEC_VAR_ARRAY {
		return fmt.Errorf("compiler error: array %q has no declaration", s.Name)
	}
	n := 0
	if ls := t.Sym(t.Child(s.Value, 0)); ls != nil {
		var err error
		if n, err = strconv.Atoi(ls.Name); err != nil || n < 0 {
			return fmt.Errorf("array %q has invalid size %q", s.Name, ls.Name)
		}
	}
	typ := g.typeOf(s.DataTyp)
	vals := make([]llvm.Value, n)
	i1 := 0
	for vi := t.Child(s.Value, 1); vi != ir.NoNode && i1 < n; vi = t.Child(vi, 1) {
		c, err := g.constant(t.Sym(t.Child(vi, 0)), s.DataTyp)
		if err != nil {
			return err
		}
		vals[i1] = c
		i1++
	}
	for ; i1 < n; i1++ {
		vals[i1] = llvm.ConstNull(typ)
	}
	v := llvm.AddGlobal(g.m, llvm.ArrayType(typ, n), s.Name)
	v.SetInitializer(llvm.ConstArray(typ, vals))
	g.globals[s] = v
	return nil
}

// constant returns the LLVM constant of literal s as a value of type dt, zero for <nil>.
func (g *generator) constant(s *ir.Symbol, dt ir.DataType) (llvm.Value, error) {
	if s == nil {
		return llvm.ConstNull(g.typeOf(dt)), nil
	}
	var v int64
	switch s.Class {
	case ir.SymInteger:
		n, err := strconv.ParseInt(s.Name, 10, 32)
		if err != nil {
			return llvm.Value{}, fmt.Errorf("integer literal %q: %w", s.Name, err)
		}
		v = n
	case ir.SymChar:
		c := s.Name
		if u, err := strconv.Unquote(s.Name); err == nil {
			c = u
		}
		if len(c) == 0 {
			return llvm.Value{}, fmt.Errorf("malformed character literal %q", s.Name)
		}
		v = int64(c[0])
	case ir.SymBool:
		if s.Name == "true" {
			v = 1
		}
	case ir.SymFloat:
		f, err := strconv.ParseFloat(s.Name, 32)
		if err != nil {
			return llvm.Value{}, fmt.Errorf("float literal %q: %w", s.Name, err)
		}
		if dt != ir.TypeReal {
			return llvm.ConstInt(g.i, uint64(int64(f)), true), nil
		}
		return llvm.ConstFloat(g.f, f), nil
	default:
		return llvm.Value{}, fmt.Errorf("compiler error: symbol %q is not a constant", s.Name)
	}
	if dt == ir.TypeReal {
		return llvm.ConstFloat(g.f, float64(v)), nil
	}
	return llvm.ConstInt(g.i, uint64(v), true), nil
}

// genFuncHeader declares function s in the module.
func (g *generator) genFuncHeader(s *ir.Symbol) error {
	for _, e1 := range reservedFunctionNames {
		if e1 == s.Name {
			return fmt.Errorf("%w: %q is a reserved function name", ErrUnsupported, s.Name)
		}
	}
	params := make([]llvm.Type, len(s.Params))
	for i1, e1 := range s.Params {
		params[i1] = g.typeOf(e1.DataTyp)
	}
	fun := llvm.AddFunction(g.m, s.Name, llvm.FunctionType(g.typeOf(s.DataTyp), params, false))
	for i1, e1 := range fun.Params() {
		e1.SetName(s.Params[i1].Name)
	}
	return nil
}
