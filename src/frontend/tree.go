// tree.go reads and writes the interchange format of the syntax tree handed over by the parser. A file holds
// the symbols referred to by the tree and every node in construction order, children before their parent, so
// that decoding replays the parser's node constructor calls one by one.

package frontend

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	"tacc/src/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// File is the msgpack encoded form of a syntax tree.
type File struct {
	Schema  uint16   `msgpack:"schema"`  // Format version, see SchemaVersion.
	Symbols []Symbol `msgpack:"symbols"` // Symbols referred to by nodes, by index.
	Nodes   []Node   `msgpack:"nodes"`   // Nodes in construction order.
	Root    int      `msgpack:"root"`    // Index of the PROGRAM node.
}

// Symbol is one symbol table entry as the parser created it.
type Symbol struct {
	Name  string `msgpack:"name"`
	Class string `msgpack:"class"` // Symbol class name, such as variable or integer.
	Type  string `msgpack:"type"`  // Value type name, such as int.
}

// Node is one syntax tree node.
type Node struct {
	Kind     string `msgpack:"kind"`     // Node kind name, such as DEC_VAR.
	Sym      int    `msgpack:"sym"`      // Index into File.Symbols, -1 for none.
	Type     string `msgpack:"type"`     // Value type given to the constructor.
	Children []int  `msgpack:"children"` // Indices of earlier nodes.
}

// ---------------------
// ----- Constants -----
// ---------------------

// SchemaVersion is the current format version. Files of any other version are rejected.
const SchemaVersion uint16 = 1

// ErrFormat is returned for input that is not a well formed syntax tree file.
var ErrFormat = errors.New("malformed syntax tree")

// ---------------------
// ----- Functions -----
// ---------------------

// Encode writes tree t to w. Symbols are collected from the nodes in order of first reference.
func Encode(w io.Writer, t *ir.Tree) error {
	f := File{Schema: SchemaVersion, Root: int(t.Root)}
	index := map[*ir.Symbol]int{}
	f.Nodes = make([]Node, len(t.Nodes))
	for i1, e1 := range t.Nodes {
		n := Node{Kind: e1.Typ.String(), Sym: -1, Type: e1.DataTyp.String()}
		if e1.Sym != nil {
			si, ok := index[e1.Sym]
			if !ok {
				si = len(f.Symbols)
				index[e1.Sym] = si
				f.Symbols = append(f.Symbols, Symbol{Name: e1.Sym.Name, Class: e1.Sym.Class.String(), Type: e1.Sym.DataTyp.String()})
			}
			n.Sym = si
		}
		for _, c := range e1.Children {
			n.Children = append(n.Children, int(c))
		}
		f.Nodes[i1] = n
	}
	return msgpack.NewEncoder(w).Encode(&f)
}

// Decode reads a syntax tree from r and returns it together with the symbol table holding its symbols.
// Every failure wraps ErrFormat.
func Decode(r io.Reader) (*ir.Tree, *ir.SymTab, error) {
	var f File
	if err := msgpack.NewDecoder(r).Decode(&f); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrFormat, err)
	}
	if f.Schema != SchemaVersion {
		return nil, nil, fmt.Errorf("%w: schema version %d, expected %d", ErrFormat, f.Schema, SchemaVersion)
	}

	st := ir.NewSymTab()
	syms := make([]*ir.Symbol, len(f.Symbols))
	for i1, e1 := range f.Symbols {
		c, ok := ir.ParseSymClass(e1.Class)
		if !ok {
			return nil, nil, fmt.Errorf("%w: symbol %q has unknown class %q", ErrFormat, e1.Name, e1.Class)
		}
		dt, ok := ir.ParseDataType(e1.Type)
		if !ok {
			return nil, nil, fmt.Errorf("%w: symbol %q has unknown type %q", ErrFormat, e1.Name, e1.Type)
		}
		s := st.Insert(e1.Name, c)
		if s.Class != c {
			return nil, nil, fmt.Errorf("%w: symbol %q declared as both %s and %s", ErrFormat, e1.Name, s.Class, c)
		}
		if dt != ir.TypeNone {
			s.DataTyp = dt
		}
		syms[i1] = s
	}

	t := ir.NewTree(len(f.Nodes))
	for i1, e1 := range f.Nodes {
		typ, ok := ir.ParseNodeType(e1.Kind)
		if !ok {
			return nil, nil, fmt.Errorf("%w: node %d has unknown kind %q", ErrFormat, i1, e1.Kind)
		}
		dt, ok := ir.ParseDataType(e1.Type)
		if !ok {
			return nil, nil, fmt.Errorf("%w: node %d has unknown type %q", ErrFormat, i1, e1.Type)
		}
		var sym *ir.Symbol
		if e1.Sym >= 0 {
			if e1.Sym >= len(syms) {
				return nil, nil, fmt.Errorf("%w: node %d refers to symbol %d of %d", ErrFormat, i1, e1.Sym, len(syms))
			}
			sym = syms[e1.Sym]
		}
		children := make([]ir.NodeID, len(e1.Children))
		for i2, c := range e1.Children {
			if c < 0 || c >= i1 {
				return nil, nil, fmt.Errorf("%w: node %d has child %d that is not constructed before it", ErrFormat, i1, c)
			}
			if t.Nodes[c].Parent != ir.NoNode || slices.Contains(e1.Children[:i2], c) {
				return nil, nil, fmt.Errorf("%w: node %d has more than one parent", ErrFormat, c)
			}
			children[i2] = ir.NodeID(c)
		}
		t.Add(typ, sym, dt, children...)
	}

	if f.Root < 0 || f.Root >= len(t.Nodes) || t.Nodes[f.Root].Typ != ir.PROGRAM {
		return nil, nil, fmt.Errorf("%w: root %d is not a PROGRAM node", ErrFormat, f.Root)
	}
	t.Root = ir.NodeID(f.Root)
	return t, st, nil
}

// DecodeBytes decodes the syntax tree file held in b.
func DecodeBytes(b []byte) (*ir.Tree, *ir.SymTab, error) {
	return Decode(bytes.NewReader(b))
}
