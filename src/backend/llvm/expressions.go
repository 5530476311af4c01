package llvm

import (
	"fmt"
	"strconv"

	"tinygo.org/x/go-llvm"

	"tacc/src/ir"
	"tacc/src/ir/tac"
)

// ---------------------
// ----- Constants -----
// ---------------------

const (
	formatString = "%s"
	formatInt    = "%d"
	formatChar   = "%c"
	formatReal   = "%f"
)

// ---------------------
// ----- Functions -----
// ---------------------

// address returns the storage of variable or temporary s.
func (g *generator) address(s *ir.Symbol) (llvm.Value, error) {
	if v, ok := g.slots[s]; ok {
		return v, nil
	}
	if v, ok := g.globals[s]; ok {
		return v, nil
	}
	return llvm.Value{}, fmt.Errorf("compiler error: symbol %v has no storage", s)
}

// load returns the value of s as a value of type dt.
func (g *generator) load(s *ir.Symbol, dt ir.DataType) (llvm.Value, error) {
	if s == nil {
		return llvm.Value{}, fmt.Errorf("compiler error: missing operand")
	}
	if s.IsLiteral() {
		return g.constant(s, dt)
	}
	p, err := g.address(s)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.coerce(g.b.CreateLoad(p, ""), dt), nil
}

// store writes v to the storage of s.
func (g *generator) store(s *ir.Symbol, v llvm.Value) error {
	p, err := g.address(s)
	if err != nil {
		return err
	}
	g.b.CreateStore(g.coerce(v, s.DataTyp), p)
	return nil
}

// coerce converts v between integer and real representation to match dt.
func (g *generator) coerce(v llvm.Value, dt ir.DataType) llvm.Value {
	isReal := v.Type().TypeKind() == llvm.FloatTypeKind
	switch {
	case dt == ir.TypeReal && !isReal:
		return g.b.CreateSIToFP(v, g.f, "")
	case dt != ir.TypeReal && dt != ir.TypeNone && isReal:
		return g.b.CreateFPToSI(v, g.i, "")
	}
	return v
}

// operands returns both operands of ins as values of the result's type.
func (g *generator) operands(ins *tac.Instruction, dt ir.DataType) (llvm.Value, llvm.Value, error) {
	a, err := g.load(ins.Op1, dt)
	if err != nil {
		return a, a, err
	}
	b, err := g.load(ins.Op2, dt)
	return a, b, err
}

// genArithmetic generates integer or real arithmetic.
func (g *generator) genArithmetic(ins *tac.Instruction) error {
	dt := ir.TypeInt
	if ins.Res.IsReal() {
		dt = ir.TypeReal
	}
	a, b, err := g.operands(ins, dt)
	if err != nil {
		return err
	}

	var v llvm.Value
	if dt == ir.TypeReal {
		switch ins.Op {
		case tac.ADD:
			v = g.b.CreateFAdd(a, b, "")
		case tac.SUB:
			v = g.b.CreateFSub(a, b, "")
		case tac.MUL:
			v = g.b.CreateFMul(a, b, "")
		case tac.DIV:
			v = g.b.CreateFDiv(a, b, "")
		case tac.MOD:
			v = g.b.CreateFRem(a, b, "")
		default:
			return fmt.Errorf("%w: %s on real operands", ErrUnsupported, ins.Op)
		}
		return g.store(ins.Res, v)
	}

	switch ins.Op {
	case tac.ADD:
		v = g.b.CreateAdd(a, b, "")
	case tac.SUB:
		v = g.b.CreateSub(a, b, "")
	case tac.MUL:
		v = g.b.CreateMul(a, b, "")
	case tac.DIV:
		v = g.b.CreateSDiv(a, b, "")
	case tac.MOD:
		v = g.b.CreateSRem(a, b, "")
	case tac.LSHIFT:
		v = g.b.CreateShl(a, b, "")
	case tac.RSHIFT:
		v = g.b.CreateAShr(a, b, "")
	}
	return g.store(ins.Res, v)
}

// genCompare generates a relational comparison storing 1 for true and 0 for false.
func (g *generator) genCompare(ins *tac.Instruction) error {
	dt := ir.TypeInt
	if ins.Op1.IsReal() || ins.Op2.IsReal() {
		dt = ir.TypeReal
	}
	a, b, err := g.operands(ins, dt)
	if err != nil {
		return err
	}
	var c llvm.Value
	if dt == ir.TypeReal {
		c = g.b.CreateFCmp(floatPredicates[ins.Op], a, b, "")
	} else {
		c = g.b.CreateICmp(intPredicates[ins.Op], a, b, "")
	}
	return g.store(ins.Res, g.b.CreateZExt(c, g.i, ""))
}

// genLogical generates the conjunction or disjunction of two boolean values.
func (g *generator) genLogical(ins *tac.Instruction) error {
	a, b, err := g.operands(ins, ir.TypeBool)
	if err != nil {
		return err
	}
	if ins.Op == tac.AND {
		return g.store(ins.Res, g.b.CreateAnd(a, b, ""))
	}
	return g.store(ins.Res, g.b.CreateOr(a, b, ""))
}

// element returns the address of element idx of array arr.
func (g *generator) element(arr, idx *ir.Symbol) (llvm.Value, error) {
	p, ok := g.globals[arr]
	if !ok || arr.Class != ir.SymArray {
		return llvm.Value{}, fmt.Errorf("compiler error: %v is not an array", arr)
	}
	i, err := g.load(idx, ir.TypeInt)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.b.CreateGEP(p, []llvm.Value{llvm.ConstInt(g.i, 0, false), i}, ""), nil
}

// genMoveVec stores Op2 at index Op1 of array Res.
func (g *generator) genMoveVec(ins *tac.Instruction) error {
	p, err := g.element(ins.Res, ins.Op1)
	if err != nil {
		return err
	}
	v, err := g.load(ins.Op2, ins.Res.DataTyp)
	if err != nil {
		return err
	}
	g.b.CreateStore(v, p)
	return nil
}

// genVecAccess loads index Op1 of array Op2 into Res.
func (g *generator) genVecAccess(ins *tac.Instruction) error {
	p, err := g.element(ins.Op2, ins.Op1)
	if err != nil {
		return err
	}
	return g.store(ins.Res, g.b.CreateLoad(p, ""))
}

// globalString returns a pointer to the global string s, defining it on first use.
func (g *generator) globalString(s string) llvm.Value {
	if v, ok := g.strs[s]; ok {
		return v
	}
	v := g.b.CreateGlobalStringPtr(s, stringPrefix+strconv.Itoa(len(g.strs)))
	g.strs[s] = v
	return v
}

// genPrint prints v through printf with the format of its value type.
func (g *generator) genPrint(v *ir.Symbol) error {
	printf := g.m.NamedFunction("printf")
	var arg llvm.Value
	format := formatInt
	switch {
	case v.Class == ir.SymString:
		s, err := strconv.Unquote(v.Name)
		if err != nil {
			return fmt.Errorf("malformed string literal %s: %w", v.Name, err)
		}
		arg, format = g.globalString(s), formatString
	case v.IsReal():
		r, err := g.load(v, ir.TypeReal)
		if err != nil {
			return err
		}
		arg, format = g.b.CreateFPExt(r, g.ctx.DoubleType(), ""), formatReal
	case v.DataTyp == ir.TypeBool:
		b, err := g.load(v, ir.TypeBool)
		if err != nil {
			return err
		}
		c := g.b.CreateICmp(llvm.IntNE, b, llvm.ConstInt(g.i, 0, false), "")
		arg = g.b.CreateSelect(c, g.globalString("true"), g.globalString("false"), "")
		format = formatString
	default:
		if v.DataTyp == ir.TypeChar {
			format = formatChar
		}
		var err error
		if arg, err = g.load(v, ir.TypeInt); err != nil {
			return err
		}
	}
	g.b.CreateCall(printf, []llvm.Value{g.globalString(format), arg}, "")
	return nil
}

// genRead reads a value of the variable's type from standard input into s.
func (g *generator) genRead(s *ir.Symbol) error {
	p, err := g.address(s)
	if err != nil {
		return err
	}
	format := formatInt
	switch {
	case s.IsReal():
		format = formatReal
	case s.DataTyp == ir.TypeChar:
		format = formatChar
		// %c stores a single byte.
		g.b.CreateStore(llvm.ConstInt(g.i, 0, false), p)
	}
	scanf := g.m.NamedFunction("scanf")
	g.b.CreateCall(scanf, []llvm.Value{g.globalString(format), p}, "")
	return nil
}
