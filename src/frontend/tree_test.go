package frontend

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"tacc/src/ir"
	"tacc/src/ir/irtest"
)

func sample() *irtest.Builder {
	b := irtest.New()
	b.Program(
		b.Var("x", ir.TypeInt, b.Int(3)),
		b.Func("main", ir.TypeInt, []ir.NodeID{b.Param("a", ir.TypeInt)}, []ir.NodeID{b.Var("y", ir.TypeInt, b.Int(1))},
			b.Block(
				b.Assign("y", b.Op(ir.OP_ADD, b.Ident("a"), b.Ident("x"))),
				b.Print(b.Str("y="), b.Ident("y")),
				b.Return(b.Ident("y")),
			)),
	)
	return b
}

func TestRoundTrip(t *testing.T) {
	b := sample()
	var buf bytes.Buffer
	if err := Encode(&buf, b.T); err != nil {
		t.Fatalf("Encode: %s", err)
	}
	tr, st, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	if tr.Root != b.T.Root {
		t.Errorf("root: got %d, want %d", tr.Root, b.T.Root)
	}
	if len(tr.Nodes) != len(b.T.Nodes) {
		t.Fatalf("nodes: got %d, want %d", len(tr.Nodes), len(b.T.Nodes))
	}
	for i1, e1 := range b.T.Nodes {
		g := tr.Nodes[i1]
		if g.Typ != e1.Typ || g.Parent != e1.Parent || len(g.Children) != len(e1.Children) {
			t.Errorf("node %d: got %s parent %d, want %s parent %d", i1, g.Typ, g.Parent, e1.Typ, e1.Parent)
		}
		if (g.Sym == nil) != (e1.Sym == nil) || g.Sym != nil && g.Sym.Name != e1.Sym.Name {
			t.Errorf("node %d: symbol mismatch", i1)
		}
	}
	for _, e1 := range b.ST.Sorted() {
		s, ok := st.Lookup(e1.Name)
		if !ok {
			t.Errorf("symbol %q lost", e1.Name)
			continue
		}
		if s.Class != e1.Class || s.DataTyp != e1.DataTyp || s.InStack != e1.InStack {
			t.Errorf("symbol %q: got %s, want %s", e1.Name, s, e1)
		}
	}

	// The decoded tree passes analysis like the original.
	if _, err := ir.Analyze(tr, st); err != nil {
		t.Errorf("Analyze: %s", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := func() File {
		return File{
			Schema:  SchemaVersion,
			Symbols: []Symbol{{Name: "1", Class: "integer", Type: "int"}},
			Nodes: []Node{
				{Kind: "LIT", Sym: 0, Type: "int"},
				{Kind: "PROGRAM", Sym: -1, Type: "none", Children: []int{0}},
			},
			Root: 1,
		}
	}
	tests := []struct {
		name string
		edit func(f *File)
	}{
		{"schema", func(f *File) { f.Schema = 9 }},
		{"kind", func(f *File) { f.Nodes[0].Kind = "NOPE" }},
		{"class", func(f *File) { f.Symbols[0].Class = "nope" }},
		{"type", func(f *File) { f.Nodes[1].Type = "nope" }},
		{"symbol index", func(f *File) { f.Nodes[0].Sym = 4 }},
		{"forward child", func(f *File) { f.Nodes[0].Children = []int{1} }},
		{"shared child", func(f *File) {
			f.Nodes = append(f.Nodes, Node{Kind: "PROGRAM", Sym: -1, Type: "none", Children: []int{0}})
		}},
		{"repeated child", func(f *File) { f.Nodes[1].Children = []int{0, 0} }},
		{"root", func(f *File) { f.Root = 0 }},
	}

	f := valid()
	b, err := msgpack.Marshal(&f)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := DecodeBytes(b); err != nil {
		t.Fatalf("valid file: %s", err)
	}
	for _, e1 := range tests {
		f := valid()
		e1.edit(&f)
		b, err := msgpack.Marshal(&f)
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := DecodeBytes(b); !errors.Is(err, ErrFormat) {
			t.Errorf("%s: expected ErrFormat, got %v", e1.name, err)
		}
	}
	if _, _, err := DecodeBytes([]byte{0xc1}); !errors.Is(err, ErrFormat) {
		t.Errorf("garbage: expected ErrFormat, got %v", err)
	}
}
