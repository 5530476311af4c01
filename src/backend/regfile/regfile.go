// Package regfile provides the register files of the fixed register conventions used by the code generators.
package regfile

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Register defines a physical register addressed through one of its 8, 32 or 64-bit views. Floating point
// registers only have the 32 and 64-bit names.
type Register struct {
	n8  string // 8-bit view.
	n32 string // 32-bit view.
	n64 string // 64-bit view.
}

// RegisterFile defines the fixed roles of a two register convention: an accumulator holding the result of every
// integer operation, a scratch register for the second operand, a divisor, the argument registers and a pair of
// floating point registers for real arithmetic.
type RegisterFile struct {
	Acc      Register   // Accumulator and return value register.
	Scratch  Register   // Second operand and array offset register.
	Div      Register   // Divisor and stored value of array assignments.
	Args     []Register // Argument registers, by position.
	FAcc     Register   // Floating point accumulator.
	FScratch Register   // Floating point second operand.
	SP       Register   // Stack pointer.
	FP       Register   // Frame pointer.
}

// ---------------------
// ----- Functions -----
// ---------------------

// AMD64 returns the register file of the x86-64 System V convention, restricted to six integer argument registers.
func AMD64() *RegisterFile {
	return &RegisterFile{
		Acc:     Register{n8: "%al", n32: "%eax", n64: "%rax"},
		Scratch: Register{n8: "%dl", n32: "%edx", n64: "%rdx"},
		Div:     Register{n8: "%cl", n32: "%ecx", n64: "%rcx"},
		Args: []Register{
			{n8: "%dil", n32: "%edi", n64: "%rdi"},
			{n8: "%sil", n32: "%esi", n64: "%rsi"},
			{n8: "%dl", n32: "%edx", n64: "%rdx"},
			{n8: "%cl", n32: "%ecx", n64: "%rcx"},
			{n8: "%r8b", n32: "%r8d", n64: "%r8"},
			{n8: "%r9b", n32: "%r9d", n64: "%r9"},
		},
		FAcc:     Register{n32: "%xmm0", n64: "%xmm0"},
		FScratch: Register{n32: "%xmm1", n64: "%xmm1"},
		SP:       Register{n8: "%spl", n32: "%esp", n64: "%rsp"},
		FP:       Register{n8: "%bpl", n32: "%ebp", n64: "%rbp"},
	}
}

// Arg returns the register passing argument i.
func (rf *RegisterFile) Arg(i int) (Register, error) {
	if i < 0 || i >= len(rf.Args) {
		return Register{}, fmt.Errorf("argument %d does not fit the %d argument registers", i+1, len(rf.Args))
	}
	return rf.Args[i], nil
}

// String returns the 32-bit view, the width of every scalar value.
func (r Register) String() string {
	return r.n32
}

// Byte returns the 8-bit view of r.
func (r Register) Byte() string {
	return r.n8
}

// Quad returns the 64-bit view of r.
func (r Register) Quad() string {
	return r.n64
}
