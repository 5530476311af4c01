package util

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Writer buffers generated assembler text in a strings.Builder until Flush is called.
// A Writer is owned by a single compilation and must not be shared between goroutines.
type Writer struct {
	sb strings.Builder
}

// ---------------------
// ----- Functions -----
// ---------------------

// Write writes a format string to the Writer's buffer.
func (w *Writer) Write(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(&w.sb, format, args...)
}

// Ins0 writes a one-line instruction without operands.
func (w *Writer) Ins0(op string) {
	w.sb.WriteString("\t" + op + "\n")
}

// Ins1 writes a one-line instruction using the operator and single operand.
func (w *Writer) Ins1(op, rs1 string) {
	_, _ = fmt.Fprintf(&w.sb, "\t%s\t%s\n", op, rs1)
}

// Ins2 writes a one-line instruction using the AT&T operand order: source first, destination last.
func (w *Writer) Ins2(op, src, dst string) {
	_, _ = fmt.Fprintf(&w.sb, "\t%s\t%s, %s\n", op, src, dst)
}

// Ins3 writes a one-line instruction with three operands, such as imull with an immediate.
func (w *Writer) Ins3(op, rs1, rs2, rd string) {
	_, _ = fmt.Fprintf(&w.sb, "\t%s\t%s, %s, %s\n", op, rs1, rs2, rd)
}

// Label writes a one-line label with the given name.
func (w *Writer) Label(name string) {
	_, _ = fmt.Fprintf(&w.sb, "%s:\n", name)
}

// Comment writes an assembler comment line.
func (w *Writer) Comment(format string, args ...interface{}) {
	w.sb.WriteString("# ")
	_, _ = fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

// String returns the buffered text without clearing the buffer.
func (w *Writer) String() string {
	return w.sb.String()
}

// Len returns the number of buffered bytes.
func (w *Writer) Len() int {
	return w.sb.Len()
}

// Flush writes the buffered text to out and empties the buffer.
func (w *Writer) Flush(out io.Writer) error {
	bw := bufio.NewWriter(out)
	if _, err := bw.WriteString(w.sb.String()); err != nil {
		return err
	}
	w.sb.Reset()
	return bw.Flush()
}

// ReadInput reads the file at path, or stdin when path is "-".
func ReadInput(path string) ([]byte, error) {
	if len(path) == 0 {
		return nil, errors.New("no input file given")
	}
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// WriteOutput writes the buffered text of w to the file at path, or stdout when path is empty or "-".
func WriteOutput(path string, w *Writer) error {
	if len(path) == 0 || path == "-" {
		return w.Flush(os.Stdout)
	}
	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := w.Flush(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
