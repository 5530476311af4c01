package amd64

import "tacc/src/ir/tac"

// ---------------------
// ----- Functions -----
// ---------------------

// genIfZ jumps to the label when the condition is false.
func (g *generator) genIfZ(ins *tac.Instruction) {
	acc := g.rf.Acc.String()
	g.loadAcc(ins.Op1)
	g.text.Ins2("testl", acc, acc)
	g.text.Ins1("jz", g.jumpLabel(ins.Res))
}
