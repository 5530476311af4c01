package backend

import (
	"errors"
	"strings"

	"tacc/src/backend/amd64"
	"tacc/src/backend/llvm"
	"tacc/src/ir"
	"tacc/src/ir/tac"
	"tacc/src/util"
)

// ---------------------
// ----- Functions -----
// ---------------------

// GenerateAssembler takes the three-address code of a checked program and writes output code for the target
// defined by opt to wr. The TAC target writes the listing itself and the tree target
// writes an indented dump of the checked syntax tree. Module names the LLVM module.
func GenerateAssembler(opt util.Options, module string, l *tac.List, st *ir.SymTab, t *ir.Tree, wr *util.Writer) error {
	switch opt.Target {
	case util.TargetAmd64:
		return amd64.Generate(l, st, t, opt, wr)
	case util.TargetLLVM:
		return llvm.Generate(module, l, st, t, wr)
	case util.TargetTAC:
		wr.Write("%s", l.String())
		return nil
	case util.TargetTree:
		sb := strings.Builder{}
		t.Print(&sb, t.Root, 0)
		wr.Write("%s", sb.String())
		return nil
	default:
		return errors.New("unsupported output target")
	}
}
