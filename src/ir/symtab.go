package ir

import (
	"fmt"
	"sort"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// SymClass differentiate the roles of symbols, e.g. variable, function, literal and temporary.
type SymClass int

// DataType differentiates value types, such as integer, character and boolean.
type DataType int

// Symbol refers to a name's entry in the symbol table.
type Symbol struct {
	Name    string    // Name of symbol. Literals are named by their lexeme.
	Class   SymClass  // Role of symbol.
	DataTyp DataType  // Value type of symbol.
	Value   NodeID    // Declaring or initializing node, NoNode if none.
	Params  []*Symbol // Parameters of a function, in declaration order.
	InStack bool      // Set true if the symbol lives in a stack frame.
	Offset  int       // Frame offset of stack-resident symbols, assigned during code generation.
	Label   string    // Assembler label of string and float constants.
	Init    *Symbol   // Literal initial value of a global variable.
	Temps   []*Symbol // Stack-resident temporaries of a function.
}

// SymTab maps names to Symbols for one compilation unit. It also owns the counters used to synthesize
// temporaries and labels, so two compilations never share names.
type SymTab struct {
	HT     map[string]*Symbol // Hash table holding Symbol entries.
	temps  int                // Number of temporaries created.
	labels int                // Number of labels created.
}

// ---------------------
// ----- Constants -----
// ---------------------

const hTabSize = 64

const (
	SymUnresolved SymClass = iota
	SymInteger
	SymChar
	SymFloat
	SymString
	SymBool
	SymVariable
	SymArray
	SymFunction
	SymTemp
	SymLabel
)

const (
	TypeNone DataType = iota
	TypeInt
	TypeChar
	TypeBool
	TypeReal
)

// TempPrefix and LabelPrefix start the names of synthesized symbols.
const (
	TempPrefix  = "__temp"
	LabelPrefix = "__label"
)

// -------------------
// ----- Globals -----
// -------------------

// sTyp defines strings for print friendly output of SymClass.
var sTyp = [SymLabel + 1]string{
	"unresolved",
	"integer",
	"char",
	"float",
	"string",
	"bool",
	"variable",
	"array",
	"function",
	"temporary",
	"label",
}

// dTyp defines string for print friendly output of DataType.
var dTyp = [TypeReal + 1]string{
	"none",
	"int",
	"char",
	"bool",
	"real",
}

// ----------------------
// ----- Functions ------
// ----------------------

func (c SymClass) String() string {
	if c < 0 || int(c) >= len(sTyp) {
		return fmt.Sprintf("class(%d)", int(c))
	}
	return sTyp[c]
}

// ParseSymClass returns the SymClass printed as s.
func ParseSymClass(s string) (SymClass, bool) {
	for i1, e1 := range sTyp {
		if e1 == s {
			return SymClass(i1), true
		}
	}
	return SymUnresolved, false
}

func (t DataType) String() string {
	if t < 0 || int(t) >= len(dTyp) {
		return fmt.Sprintf("type(%d)", int(t))
	}
	return dTyp[t]
}

// ParseDataType returns the DataType printed as s.
func ParseDataType(s string) (DataType, bool) {
	for i1, e1 := range dTyp {
		if e1 == s {
			return DataType(i1), true
		}
	}
	return TypeNone, false
}

// NewSymTab returns an empty symbol table.
func NewSymTab() *SymTab {
	return &SymTab{HT: make(map[string]*Symbol, hTabSize)}
}

// Insert returns the Symbol called name, creating it with class c if it does not exist.
// An existing Symbol keeps its class.
func (st *SymTab) Insert(name string, c SymClass) *Symbol {
	if s, ok := st.HT[name]; ok {
		return s
	}
	s := &Symbol{Name: name, Class: c, Value: NoNode}
	st.HT[name] = s
	return s
}

// Lookup retrieves the Symbol with given name if it exists.
func (st *SymTab) Lookup(name string) (*Symbol, bool) {
	s, ok := st.HT[name]
	return s, ok
}

// Remove deletes the Symbol called name. The compiler passes never call it.
func (st *SymTab) Remove(name string) {
	delete(st.HT, name)
}

// MakeTemp inserts a new temporary.
func (st *SymTab) MakeTemp() *Symbol {
	for {
		name := fmt.Sprintf("%s%d", TempPrefix, st.temps)
		st.temps++
		if _, ok := st.HT[name]; !ok {
			return st.Insert(name, SymTemp)
		}
	}
}

// MakeLabel inserts a new jump label.
func (st *SymTab) MakeLabel() *Symbol {
	for {
		name := fmt.Sprintf("%s%d", LabelPrefix, st.labels)
		st.labels++
		if _, ok := st.HT[name]; !ok {
			return st.Insert(name, SymLabel)
		}
	}
}

// Sorted returns every Symbol ordered by name.
func (st *SymTab) Sorted() []*Symbol {
	l := make([]*Symbol, 0, len(st.HT))
	for _, v := range st.HT {
		l = append(l, v)
	}
	sort.Slice(l, func(i, j int) bool { return l[i].Name < l[j].Name })
	return l
}

// String returns a print friendly string of SymTab st.
func (st *SymTab) String() string {
	sb := strings.Builder{}
	for _, e1 := range st.Sorted() {
		sb.WriteString(e1.String())
		sb.WriteRune('\n')
	}
	return sb.String()
}

// String returns a print friendly string of Symbol s.
func (s *Symbol) String() string {
	if s.Class == SymFunction {
		return fmt.Sprintf("%s [%q] (%s), params: %d", sTyp[s.Class], s.Name, s.DataTyp, len(s.Params))
	}
	return fmt.Sprintf("%s [%q] (%s)", s.Class, s.Name, s.DataTyp)
}

// IsLiteral reports whether s is a constant of the source program.
func (s *Symbol) IsLiteral() bool {
	switch s.Class {
	case SymInteger, SymChar, SymFloat, SymString, SymBool:
		return true
	}
	return false
}

// IsReal reports whether s holds a floating point value.
func (s *Symbol) IsReal() bool {
	return s.DataTyp == TypeReal || s.Class == SymFloat
}

// ParamTypes returns the value types of the parameters of function s, left to right.
func (s *Symbol) ParamTypes() []DataType {
	l := make([]DataType, len(s.Params))
	for i1, e1 := range s.Params {
		l[i1] = e1.DataTyp
	}
	return l
}

// ParamIndex returns the position of parameter p in function s, or -1.
func (s *Symbol) ParamIndex(p *Symbol) int {
	for i1, e1 := range s.Params {
		if e1 == p {
			return i1
		}
	}
	return -1
}
