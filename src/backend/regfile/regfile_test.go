package regfile

import "testing"

func TestAMD64(t *testing.T) {
	rf := AMD64()
	want := []string{"%edi", "%esi", "%edx", "%ecx", "%r8d", "%r9d"}
	for i1, e1 := range want {
		r, err := rf.Arg(i1)
		if err != nil {
			t.Fatal(err)
		}
		if r.String() != e1 {
			t.Errorf("argument %d: got %s, want %s", i1+1, r, e1)
		}
	}
	if _, err := rf.Arg(6); err == nil {
		t.Error("seventh argument register returned")
	}
	if rf.Acc.Byte() != "%al" || rf.Acc.Quad() != "%rax" || rf.FP.Quad() != "%rbp" {
		t.Error("accumulator or frame pointer views changed")
	}
	if rf.Scratch != rf.Args[2] || rf.Div != rf.Args[3] {
		t.Error("scratch and divisor registers must alias the third and fourth argument registers")
	}
	if rf.FAcc.String() != "%xmm0" || rf.FScratch.Byte() != "" {
		t.Error("floating point register views changed")
	}
}
