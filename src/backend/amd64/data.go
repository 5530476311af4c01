package amd64

import (
	"fmt"
	"math"
	"strconv"

	"fortio.org/safecast"

	"tacc/src/ir"
	"tacc/src/util"
)

// ---------------------
// ----- Functions -----
// ---------------------

// assignConstantLabels labels every string and float constant in symbol name order.
func (g *generator) assignConstantLabels() {
	for _, e1 := range g.st.Sorted() {
		if e1.Class == ir.SymString || e1.Class == ir.SymFloat {
			e1.Label = g.labels.NewLabel(util.LabelConst)
		}
	}
}

// genData generates one data block per constant, global variable, used static temporary and array, in symbol name
// order.
func (g *generator) genData() error {
	g.data.Ins0(".data")
	for _, e1 := range g.st.Sorted() {
		switch e1.Class {
		case ir.SymString:
			g.data.Label(e1.Label)
			g.data.Ins1(".string", e1.Name)
		case ir.SymFloat:
			g.data.Ins1(".align", "4")
			g.data.Label(e1.Label)
			g.data.Ins1(".long", initial(e1))
		case ir.SymVariable:
			if e1.InStack {
				continue
			}
			g.object(e1, true, 4, wordSize)
			g.data.Ins1(".long", initial(e1.Init))
		case ir.SymTemp:
			if e1.InStack || !g.used[e1] {
				continue
			}
			g.object(e1, false, 4, wordSize)
			g.data.Ins1(".zero", strconv.Itoa(wordSize))
		case ir.SymArray:
			if err := g.genArray(e1); err != nil {
				return err
			}
		}
	}
	g.data.Write("\n")
	return nil
}

// object writes the header of a data object.
func (g *generator) object(s *ir.Symbol, global bool, align, size int32) {
	if global {
		g.data.Ins1(".globl", s.Name)
	}
	g.data.Ins1(".align", strconv.Itoa(int(align)))
	g.data.Write("\t.type\t%s, @object\n", s.Name)
	g.data.Write("\t.size\t%s, %d\n", s.Name, size)
	g.data.Label(s.Name)
}

// genArray generates the data block of array s from its declaration. Arrays are static regardless of where they
// are declared.
func (g *generator) genArray(s *ir.Symbol) error {
	t := g.tree
	if t.Typ(s.Value) != ir.DEC_VAR_ARRAY {
		internal("array %q has no declaration", s.Name)
	}
	ls := t.Sym(t.Child(s.Value, 0))
	if ls == nil {
		internal("array %q has no size", s.Name)
	}
	n, err := strconv.Atoi(ls.Name)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: array %q has invalid size %q", ErrUnsupported, s.Name, ls.Name)
	}
	size, err := safecast.Conv[int32](int64(n) * wordSize)
	if err != nil {
		return fmt.Errorf("%w: array %q of %d elements: %s", ErrUnsupported, s.Name, n, err)
	}

	g.object(s, true, stackAlign, size)
	count := 0
	for vi := t.Child(s.Value, 1); vi != ir.NoNode && count < n; vi = t.Child(vi, 1) {
		g.data.Ins1(".long", initial(t.Sym(t.Child(vi, 0))))
		count++
	}
	if count < n {
		g.data.Ins1(".zero", strconv.Itoa((n-count)*wordSize))
	}
	return nil
}

// initial returns the data value of literal s, 0 for <nil>. Floats are stored as their IEEE 754 bit pattern.
func initial(s *ir.Symbol) string {
	if s == nil {
		return "0"
	}
	if s.Class == ir.SymFloat {
		f, err := strconv.ParseFloat(s.Name, 32)
		if err != nil {
			internal("malformed float literal %q", s.Name)
		}
		return strconv.FormatUint(uint64(math.Float32bits(float32(f))), 10)
	}
	return strconv.Itoa(int(immediate(s)))
}

// genReadOnly writes the format strings and boolean names used by print and read.
func genReadOnly(wr *util.Writer) {
	wr.Write("\t.section\t.rodata\n")
	for _, e1 := range [...][2]string{
		{formatString, `"%s"`},
		{formatInt, `"%d"`},
		{formatChar, `"%c"`},
		{formatReal, `"%f"`},
		{labelTrue, `"true"`},
		{labelFalse, `"false"`},
	} {
		wr.Label(e1[0])
		wr.Ins1(".string", e1[1])
	}
	wr.Write("\n")
}

// genEpilogue writes the identification and GNU property notes ending every file.
func genEpilogue(wr *util.Writer) {
	wr.Write("\t.ident\t%q\n", util.AppVersion)
	wr.Write("\t.section\t.note.GNU-stack,\"\",@progbits\n")
	wr.Write("\t.section\t.note.gnu.property,\"a\"\n")
	wr.Write("\t.align 8\n")
	wr.Write("\t.long\t1f - 0f\n")
	wr.Write("\t.long\t4f - 1f\n")
	wr.Write("\t.long\t5\n")
	wr.Write("0:\n")
	wr.Write("\t.string\t\"GNU\"\n")
	wr.Write("1:\n")
	wr.Write("\t.align 8\n")
	wr.Write("\t.long\t0xc0000002\n")
	wr.Write("\t.long\t3f - 2f\n")
	wr.Write("2:\n")
	wr.Write("\t.long\t0x3\n")
	wr.Write("3:\n")
	wr.Write("\t.align 8\n")
	wr.Write("4:\n")
}
