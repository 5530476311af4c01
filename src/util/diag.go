package util

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// DiagKind separates declaration problems from typing problems and from warnings, which never fail a pass.
type DiagKind int

// Diagnostic is one problem found while checking a program.
type Diagnostic struct {
	Kind DiagKind // Structural error, type error or warning.
	Node int      // Arena index of the offending syntax tree node, -1 if unknown.
	Msg  string   // Human readable message.
}

// Diagnostics is an ordered list of problems.
type Diagnostics []Diagnostic

// ---------------------
// ----- Constants -----
// ---------------------

const (
	DiagStructural DiagKind = iota
	DiagType
	DiagWarning
)

// -------------------
// ----- Globals -----
// -------------------

var diagNames = [DiagWarning + 1]string{
	"structural error",
	"type error",
	"warning",
}

var (
	diagColor = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	nodeColor = color.New(color.FgCyan)
)

// ---------------------
// ----- Functions -----
// ---------------------

func (k DiagKind) String() string {
	if k < 0 || int(k) >= len(diagNames) {
		return "error"
	}
	return diagNames[k]
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: node %d: %s", d.Kind, d.Node, d.Msg)
}

// Add appends a diagnostic. It is logged at debug level only, Print reports it to the user.
func (ds *Diagnostics) Add(kind DiagKind, node int, format string, args ...interface{}) {
	d := Diagnostic{Kind: kind, Node: node, Msg: fmt.Sprintf(format, args...)}
	slog.Debug(d.Msg, "kind", kind.String(), "node", node)
	*ds = append(*ds, d)
}

// Count returns the number of diagnostics of kind k.
func (ds Diagnostics) Count(k DiagKind) int {
	n := 0
	for _, e1 := range ds {
		if e1.Kind == k {
			n++
		}
	}
	return n
}

// Print writes every diagnostic prefixed by name to w, colorized when useColor is set.
func (ds Diagnostics) Print(w io.Writer, name string, useColor bool) {
	sb := strings.Builder{}
	for _, e1 := range ds {
		if useColor {
			kc := diagColor
			if e1.Kind == DiagWarning {
				kc = warnColor
			}
			sb.WriteString(fmt.Sprintf("%s: %s %s %s\n", name, kc.Sprint(e1.Kind.String()+":"),
				nodeColor.Sprintf("node %d:", e1.Node), e1.Msg))
		} else {
			sb.WriteString(fmt.Sprintf("%s: %s\n", name, e1))
		}
	}
	_, _ = io.WriteString(w, sb.String())
}
