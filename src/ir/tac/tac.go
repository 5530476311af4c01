// Package tac defines the three-address code intermediate representation and the lowering of checked
// syntax trees into it.
package tac

import (
	"fmt"
	"strings"

	"tacc/src/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Opcode identifies the operation of an Instruction.
type Opcode int

// Instruction is one three-address code instruction. Symbols are references into the symbol table
// and are never owned by the instruction.
type Instruction struct {
	Op  Opcode     // Operation.
	Res *ir.Symbol // Result, jump target or function symbol.
	Op1 *ir.Symbol // First operand.
	Op2 *ir.Symbol // Second operand.
}

// List is a sequence of instructions in execution order.
type List struct {
	Code []*Instruction
}

// fragment is a partially built piece of a List.
type fragment []*Instruction

// ---------------------
// ----- Constants -----
// ---------------------

const (
	ADD Opcode = iota
	SUB
	MUL
	DIV
	MOD
	LESS
	GREATER
	AND
	OR
	LESSEQUAL
	GREATEREQUAL
	EQUAL
	NOTEQUAL
	NOT
	LSHIFT
	RSHIFT
	SYMBOL
	VECACCESS
	MOVE
	MOVEVEC
	LABEL
	BEGINFUN
	ENDFUN
	IFZ
	JUMP
	CALL
	ARG
	RET
	PRINT
	READ
)

// NumOpcodes is the number of opcodes.
const NumOpcodes = int(READ) + 1

// -------------------
// ----- Globals -----
// -------------------

var opNames = [NumOpcodes]string{
	ADD:          "ADD",
	SUB:          "SUB",
	MUL:          "MUL",
	DIV:          "DIV",
	MOD:          "MOD",
	LESS:         "LESS",
	GREATER:      "GREATER",
	AND:          "AND",
	OR:           "OR",
	LESSEQUAL:    "LESSEQUAL",
	GREATEREQUAL: "GREATEREQUAL",
	EQUAL:        "EQUAL",
	NOTEQUAL:     "NOTEQUAL",
	NOT:          "NOT",
	LSHIFT:       "LSHIFT",
	RSHIFT:       "RSHIFT",
	SYMBOL:       "SYMBOL",
	VECACCESS:    "VECACCESS",
	MOVE:         "MOVE",
	MOVEVEC:      "MOVEVEC",
	LABEL:        "LABEL",
	BEGINFUN:     "BEGINFUN",
	ENDFUN:       "ENDFUN",
	IFZ:          "IFZ",
	JUMP:         "JUMP",
	CALL:         "CALL",
	ARG:          "ARG",
	RET:          "RET",
	PRINT:        "PRINT",
	READ:         "READ",
}

// defaultType is the value type given to a result symbol that has none when the instruction is built.
var defaultType = [NumOpcodes]ir.DataType{
	ADD:          ir.TypeInt,
	SUB:          ir.TypeInt,
	MUL:          ir.TypeInt,
	DIV:          ir.TypeInt,
	MOD:          ir.TypeInt,
	LESS:         ir.TypeBool,
	GREATER:      ir.TypeBool,
	AND:          ir.TypeBool,
	OR:           ir.TypeBool,
	LESSEQUAL:    ir.TypeBool,
	GREATEREQUAL: ir.TypeBool,
	EQUAL:        ir.TypeBool,
	NOTEQUAL:     ir.TypeBool,
	NOT:          ir.TypeBool,
	LSHIFT:       ir.TypeInt,
	RSHIFT:       ir.TypeInt,
}

// binaryOps maps binary operator node kinds to their opcodes.
var binaryOps = map[ir.NodeType]Opcode{
	ir.OP_ADD:           ADD,
	ir.OP_SUB:           SUB,
	ir.OP_MUL:           MUL,
	ir.OP_DIV:           DIV,
	ir.OP_MOD:           MOD,
	ir.OP_LESS:          LESS,
	ir.OP_GREATER:       GREATER,
	ir.OP_AND:           AND,
	ir.OP_OR:            OR,
	ir.OP_LESS_EQUAL:    LESSEQUAL,
	ir.OP_GREATER_EQUAL: GREATEREQUAL,
	ir.OP_EQUAL:         EQUAL,
	ir.OP_NOT_EQUAL:     NOTEQUAL,
}

// ---------------------
// ----- Functions -----
// ---------------------

func (op Opcode) String() string {
	if op < 0 || int(op) >= NumOpcodes {
		return fmt.Sprintf("OPCODE(%d)", int(op))
	}
	return opNames[op]
}

// DefaultType returns the value type op gives to an untyped result.
func (op Opcode) DefaultType() ir.DataType {
	if op < 0 || int(op) >= NumOpcodes {
		return ir.TypeNone
	}
	return defaultType[op]
}

// IsArithmetic reports whether op is one of the five integer arithmetic operators.
func (op Opcode) IsArithmetic() bool {
	return op >= ADD && op <= MOD
}

// New returns an instruction. A result symbol without a value type takes the default type of op.
func New(op Opcode, res, op1, op2 *ir.Symbol) *Instruction {
	if res != nil && res.DataTyp == ir.TypeNone {
		res.DataTyp = op.DefaultType()
	}
	return &Instruction{Op: op, Res: res, Op1: op1, Op2: op2}
}

// String returns a print friendly string of instruction ins.
func (ins *Instruction) String() string {
	sb := strings.Builder{}
	if ins.Op != LABEL {
		sb.WriteString("\t")
	}
	sb.WriteString(ins.Op.String())
	for _, e1 := range [3]*ir.Symbol{ins.Res, ins.Op1, ins.Op2} {
		if e1 != nil {
			sb.WriteByte(' ')
			sb.WriteString(e1.Name)
		}
	}
	return sb.String()
}

// String returns the textual dump of l, one instruction per line.
func (l *List) String() string {
	sb := strings.Builder{}
	for _, e1 := range l.Code {
		sb.WriteString(e1.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Len returns the number of instructions in l.
func (l *List) Len() int {
	return len(l.Code)
}

// Count returns the number of instructions with opcode op.
func (l *List) Count(op Opcode) int {
	n := 0
	for _, e1 := range l.Code {
		if e1.Op == op {
			n++
		}
	}
	return n
}

// last returns the final instruction of f, or <nil>.
func (f fragment) last() *Instruction {
	if len(f) == 0 {
		return nil
	}
	return f[len(f)-1]
}

// value returns the symbol holding the value computed by f.
func (f fragment) value() *ir.Symbol {
	if ins := f.last(); ins != nil {
		return ins.Res
	}
	return nil
}
