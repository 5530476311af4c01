package amd64

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"tacc/src/ir"
)

// ---------------------
// ----- Functions -----
// ---------------------

// src returns the operand of symbol s when read as a source.
//
// Integer, character and boolean literals are immediates. String and float constants are addressed by their
// label relative to the instruction pointer. Stack resident symbols are addressed relative to the frame pointer
// and every other variable by its name relative to the instruction pointer.
func (g *generator) src(s *ir.Symbol) string {
	switch s.Class {
	case ir.SymInteger, ir.SymChar, ir.SymBool:
		return fmt.Sprintf("$%d", immediate(s))
	case ir.SymFloat, ir.SymString:
		if s.Label == "" {
			internal("constant %q has no label", s.Name)
		}
		return s.Label + "(%rip)"
	case ir.SymVariable, ir.SymTemp, ir.SymArray:
		return memory(s)
	}
	internal("symbol %q of class %s used as operand", s.Name, s.Class)
	return ""
}

// dst returns the operand of symbol s when written as a destination.
func (g *generator) dst(s *ir.Symbol) string {
	if s == nil {
		internal("missing destination symbol")
	}
	switch s.Class {
	case ir.SymVariable, ir.SymTemp:
		return memory(s)
	}
	internal("invalid destination symbol %q of class %s", s.Name, s.Class)
	return ""
}

// memory returns the memory operand of a variable or temporary.
func memory(s *ir.Symbol) string {
	if s.InStack {
		return fmt.Sprintf("%d(%%rbp)", s.Offset)
	}
	return s.Name + "(%rip)"
}

// isImmediate reports whether s is encoded as an immediate operand.
func isImmediate(s *ir.Symbol) bool {
	switch s.Class {
	case ir.SymInteger, ir.SymChar, ir.SymBool:
		return true
	}
	return false
}

// immediate returns the value of the integer, character or boolean literal s.
func immediate(s *ir.Symbol) int32 {
	switch s.Class {
	case ir.SymInteger:
		v, err := strconv.ParseInt(s.Name, 10, 32)
		if err != nil {
			internal("integer literal %q does not fit 32 bits", s.Name)
		}
		return int32(v)
	case ir.SymChar:
		if c, err := strconv.Unquote(s.Name); err == nil && len(c) == 1 {
			return int32(c[0])
		}
		if len(s.Name) < 2 {
			internal("malformed character literal %q", s.Name)
		}
		return int32(s.Name[1])
	case ir.SymBool:
		if s.Name == "true" {
			return 1
		}
		return 0
	}
	internal("symbol %q is not an immediate", s.Name)
	return 0
}

// element returns the operand of element idx of array arr. A literal index gives a static offset from the array
// label; any other index is scaled into the scratch register and the array base is loaded into the accumulator.
func (g *generator) element(arr, idx *ir.Symbol) string {
	if arr == nil || arr.Class != ir.SymArray {
		internal("indexed symbol %v is not an array", arr)
	}
	if idx.Class == ir.SymInteger {
		off, err := safecast.Conv[int32](int64(immediate(idx)) * wordSize)
		if err != nil {
			internal("offset of element %s of %q overflows", idx.Name, arr.Name)
		}
		if off == 0 {
			return arr.Name + "(%rip)"
		}
		return fmt.Sprintf("%d+%s(%%rip)", off, arr.Name)
	}
	g.text.Ins2("movl", g.src(idx), g.rf.Acc.String())
	g.text.Ins0("cltq")
	g.text.Ins2("leaq", fmt.Sprintf("0(,%s,%d)", g.rf.Acc.Quad(), wordSize), g.rf.Scratch.Quad())
	g.text.Ins2("leaq", arr.Name+"(%rip)", g.rf.Acc.Quad())
	return fmt.Sprintf("(%s,%s)", g.rf.Scratch.Quad(), g.rf.Acc.Quad())
}

// move copies the 32-bit value of s into the operand dst. Memory to memory moves go through the accumulator.
func (g *generator) move(s *ir.Symbol, dst string) {
	if s == nil {
		internal("missing source symbol")
	}
	if isImmediate(s) {
		g.text.Ins2("movl", g.src(s), dst)
		return
	}
	g.loadAcc(s)
	g.text.Ins2("movl", g.rf.Acc.String(), dst)
}
