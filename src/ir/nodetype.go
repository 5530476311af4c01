package ir

import (
	"fmt"
	"io"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// NodeType differentiates the types of nodes in the syntax tree.
type NodeType int

// NodeID addresses a Node inside its Tree. NoNode is the null id.
type NodeID int

// Node represents a single node in the syntax tree representation.
type Node struct {
	Typ      NodeType // The type of Node, i.e. declaration, statement or operator.
	Sym      *Symbol  // Symbol table entry for this node, leaves and declared names only.
	DataTyp  DataType // Inferred value type, set by the constructor and the analyzer.
	Parent   NodeID   // Enclosing node, NoNode for the root.
	Children []NodeID // Children of this node that constitutes its local sub-tree. Never holds NoNode.
}

// Tree is an arena of Nodes. Nodes refer to each other by index so parent links and symbol
// back-references do not form pointer cycles.
type Tree struct {
	Nodes []Node // Every node of the tree, in construction order.
	Root  NodeID // The PROGRAM node, NoNode until set.
}

// ---------------------
// ----- Constants -----
// ---------------------

// NoNode is the null NodeID.
const NoNode NodeID = -1

const (
	UNKNOWN NodeType = iota
	PROGRAM
	DEC_LIST
	DEC_VAR
	DEC_VAR_ARRAY
	LIT
	IDENTIFIER
	VET_INIT
	DEC_FUNC
	PARAM_LIST
	PARAM
	LOCAL_VAR_DEC_LIST
	BLOCK
	EMPTY_BLOCK
	CMD_LIST
	CMD_ASSIGN
	CMD_ARRAY_ELEMENT_ASSIGN
	CMD_READ
	CMD_PRINT
	CMD_RETURN
	CMD_EMPTY
	PRINT_LIST
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_LESS
	OP_GREATER
	OP_AND
	OP_OR
	OP_LESS_EQUAL
	OP_GREATER_EQUAL
	OP_EQUAL
	OP_NOT_EQUAL
	OP_NOT
	ARRAY_ELEMENT
	FUNC_CALL
	ARG_LIST
	CMD_IF
	CMD_IF_ELSE
	CMD_WHILE
)

// NumNodeTypes is the number of node kinds.
const NumNodeTypes = int(CMD_WHILE) + 1

// -------------------
// ----- Globals -----
// -------------------

// nt provides an array of strings used for printing NodeType in a print friendly manner.
// The names double as the node kind identifiers of the tree interchange format.
var nt = [NumNodeTypes]string{
	"UNKNOWN",
	"PROGRAM",
	"DEC_LIST",
	"DEC_VAR",
	"DEC_VAR_ARRAY",
	"LIT",
	"IDENTIFIER",
	"VET_INIT",
	"DEC_FUNC",
	"PARAM_LIST",
	"PARAM",
	"LOCAL_VAR_DEC_LIST",
	"BLOCK",
	"EMPTY_BLOCK",
	"CMD_LIST",
	"CMD_ASSIGN",
	"CMD_ARRAY_ELEMENT_ASSIGN",
	"CMD_READ",
	"CMD_PRINT",
	"CMD_RETURN",
	"CMD_EMPTY",
	"PRINT_LIST",
	"OP_ADD",
	"OP_SUB",
	"OP_MUL",
	"OP_DIV",
	"OP_MOD",
	"OP_LESS",
	"OP_GREATER",
	"OP_AND",
	"OP_OR",
	"OP_LESS_EQUAL",
	"OP_GREATER_EQUAL",
	"OP_EQUAL",
	"OP_NOT_EQUAL",
	"OP_NOT",
	"ARRAY_ELEMENT",
	"FUNC_CALL",
	"ARG_LIST",
	"CMD_IF",
	"CMD_IF_ELSE",
	"CMD_WHILE",
}

// ntLookup maps node kind names back to NodeType.
var ntLookup = func() map[string]NodeType {
	m := make(map[string]NodeType, NumNodeTypes)
	for i1, e1 := range nt {
		m[e1] = NodeType(i1)
	}
	return m
}()

// ----------------------
// ----- functions ------
// ----------------------

// String returns the name of the node kind.
func (t NodeType) String() string {
	if t < 0 || int(t) >= NumNodeTypes {
		return fmt.Sprintf("MISCONFIGURED NODE [%d]", int(t))
	}
	return nt[t]
}

// ParseNodeType returns the NodeType called name.
func ParseNodeType(name string) (NodeType, bool) {
	t, ok := ntLookup[name]
	return t, ok
}

// NewTree returns an empty tree with room for n nodes.
func NewTree(n int) *Tree {
	return &Tree{Nodes: make([]Node, 0, n), Root: NoNode}
}

// Add appends a node of kind typ and returns its id. NoNode children are dropped and every kept child has its
// parent set to the new node. When both sym and dt are given the symbol and the node receive dt as their value
// type. A PARAM marks its symbol stack-resident, a LOCAL_VAR_DEC_LIST does the same for the scalar it declares.
func (t *Tree) Add(typ NodeType, sym *Symbol, dt DataType, children ...NodeID) NodeID {
	id := NodeID(len(t.Nodes))
	n := Node{Typ: typ, Sym: sym, Parent: NoNode}
	for _, c := range children {
		if c == NoNode {
			continue
		}
		t.Nodes[c].Parent = id
		n.Children = append(n.Children, c)
	}
	if sym != nil && dt != TypeNone {
		sym.DataTyp = dt
		n.DataTyp = dt
	}
	switch typ {
	case PARAM:
		if sym != nil {
			sym.InStack = true
		}
	case LOCAL_VAR_DEC_LIST:
		if len(n.Children) > 0 {
			c := &t.Nodes[n.Children[0]]
			if c.Typ == DEC_VAR && c.Sym != nil {
				c.Sym.InStack = true
			}
		}
	}
	t.Nodes = append(t.Nodes, n)
	return id
}

// Node returns the node with the given id, or <nil> for NoNode and out of range ids.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[id]
}

// Child returns the i'th child of node id, or NoNode if there is none.
func (t *Tree) Child(id NodeID, i int) NodeID {
	n := t.Node(id)
	if n == nil || i < 0 || i >= len(n.Children) {
		return NoNode
	}
	return n.Children[i]
}

// Typ returns the kind of id, UNKNOWN for NoNode.
func (t *Tree) Typ(id NodeID) NodeType {
	if n := t.Node(id); n != nil {
		return n.Typ
	}
	return UNKNOWN
}

// Sym returns the symbol attached to id, or <nil>.
func (t *Tree) Sym(id NodeID) *Symbol {
	if n := t.Node(id); n != nil {
		return n.Sym
	}
	return nil
}

// DataTyp returns the inferred type of id, TypeNone for NoNode.
func (t *Tree) DataTyp(id NodeID) DataType {
	if n := t.Node(id); n != nil {
		return n.DataTyp
	}
	return TypeNone
}

// Enclosing walks parent links from id and returns the nearest ancestor of kind typ, or NoNode.
func (t *Tree) Enclosing(id NodeID, typ NodeType) NodeID {
	for n := t.Node(id); n != nil; n = t.Node(n.Parent) {
		if n.Parent != NoNode && t.Nodes[n.Parent].Typ == typ {
			return n.Parent
		}
	}
	return NoNode
}

// String returns a print friendly string of node id.
func (t *Tree) String(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return "---> NIL"
	}
	if n.Sym == nil {
		return n.Typ.String()
	}
	return fmt.Sprintf("%s [%s] (%s)", n.Typ, n.Sym.Name, n.DataTyp)
}

// Print recursively prints node id and all its children to w while indenting for every recursive call.
func (t *Tree) Print(w io.Writer, id NodeID, depth int) {
	sb := strings.Builder{}
	t.print(&sb, id, depth)
	_, _ = io.WriteString(w, sb.String())
}

func (t *Tree) print(sb *strings.Builder, id NodeID, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(t.String(id))
	sb.WriteByte('\n')
	if n := t.Node(id); n != nil {
		for _, e1 := range n.Children {
			t.print(sb, e1, depth+1)
		}
	}
}
