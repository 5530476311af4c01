package ir

import "testing"

func TestTreeAdd(t *testing.T) {
	st := NewSymTab()
	tr := NewTree(8)
	p := st.Insert("p", SymUnresolved)
	param := tr.Add(PARAM, p, TypeInt)
	pl := tr.Add(PARAM_LIST, nil, TypeNone, param, NoNode)

	if n := tr.Node(pl); len(n.Children) != 1 {
		t.Fatalf("NoNode child kept: %v", n.Children)
	}
	if tr.Node(param).Parent != pl {
		t.Error("parent of child not set")
	}
	if !p.InStack || p.DataTyp != TypeInt || tr.DataTyp(param) != TypeInt {
		t.Errorf("parameter symbol: InStack=%v type=%s", p.InStack, p.DataTyp)
	}

	l := st.Insert("l", SymUnresolved)
	one := tr.Add(LIT, st.Insert("1", SymInteger), TypeInt)
	dv := tr.Add(DEC_VAR, l, TypeInt, one)
	tr.Add(LOCAL_VAR_DEC_LIST, nil, TypeNone, dv)
	if !l.InStack {
		t.Error("local declaration not marked stack-resident")
	}

	g := st.Insert("g", SymUnresolved)
	tr.Add(DEC_VAR, g, TypeInt, tr.Add(LIT, st.Insert("2", SymInteger), TypeInt))
	if g.InStack {
		t.Error("global declaration marked stack-resident")
	}
}

func TestEnclosing(t *testing.T) {
	st := NewSymTab()
	tr := NewTree(8)
	ret := tr.Add(CMD_RETURN, nil, TypeNone, tr.Add(LIT, st.Insert("0", SymInteger), TypeInt))
	body := tr.Add(BLOCK, nil, TypeNone, tr.Add(CMD_LIST, nil, TypeNone, ret))
	fn := tr.Add(DEC_FUNC, st.Insert("main", SymUnresolved), TypeInt, body)
	if got := tr.Enclosing(ret, DEC_FUNC); got != fn {
		t.Errorf("got %d, want %d", got, fn)
	}
	if got := tr.Enclosing(fn, DEC_FUNC); got != NoNode {
		t.Errorf("function has no enclosing function, got %d", got)
	}
}

func TestNodeTypeNames(t *testing.T) {
	for i1 := 0; i1 < NumNodeTypes; i1++ {
		typ := NodeType(i1)
		name := typ.String()
		if len(name) == 0 {
			t.Fatalf("node kind %d has no name", i1)
		}
		if got, ok := ParseNodeType(name); !ok || got != typ {
			t.Errorf("ParseNodeType(%q): got %d", name, got)
		}
	}
	if _, ok := ParseNodeType("NOT_A_NODE"); ok {
		t.Error("unknown name parsed")
	}
}
