// label.go provides generators for assembler labels. Every compilation owns its own generator so
// that output is deterministic regardless of how many files are compiled in parallel.

package util

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// LabelGen hands out numbered labels of different kinds.
type LabelGen struct {
	indices [LabelConst + 1]int
}

// ---------------------
// ----- Constants -----
// ---------------------

// Label kinds.
const (
	LabelJump  = iota // Local jump targets, ".L<n>".
	LabelConst        // Constant pool entries, ".LC<n>".
)

// -------------------
// ----- Globals -----
// -------------------

// labelPrefixes stores the string literal prefixes for labels of kinds.
var labelPrefixes = [LabelConst + 1]string{
	".L",
	".LC",
}

// ---------------------
// ----- Functions -----
// ---------------------

// NewLabel returns a new label of kind typ.
func (g *LabelGen) NewLabel(typ int) string {
	if typ < 0 || typ >= len(g.indices) {
		panic(fmt.Sprintf("compiler error: unknown label kind %d", typ))
	}
	s := fmt.Sprintf("%s%d", labelPrefixes[typ], g.indices[typ])
	g.indices[typ]++
	return s
}
