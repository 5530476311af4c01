// Package driver runs the compiler pipeline: decode the syntax tree, analyze it, lower it to three-address
// code and emit code for the selected target.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"tacc/src/backend"
	"tacc/src/backend/amd64"
	"tacc/src/backend/llvm"
	"tacc/src/frontend"
	"tacc/src/ir"
	"tacc/src/ir/tac"
	"tacc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Config holds everything a compilation needs besides its input and output paths.
type Config struct {
	Opt      util.Options
	Diag     io.Writer // Destination of diagnostics, stderr when <nil>.
	UseColor bool      // Colorize diagnostics.
	mx       *sync.Mutex
}

// ---------------------
// ----- Constants -----
// ---------------------

// Process exit codes.
const (
	ExitOK         = 0
	ExitUsage      = 1
	ExitFormat     = 3
	ExitStructural = 4
	ExitType       = 5
	ExitCodegen    = 6
)

// ---------------------
// ----- Functions -----
// ---------------------

// Compile compiles the syntax tree file in and writes the output to out, stdout when out is empty.
//
// General steps:
//
// - Read and decode the syntax tree.
//
// - Run both semantic analysis passes and print their diagnostics.
//
// - Lower the tree to three-address code.
//
// - Generate target code and write it.
func Compile(ctx context.Context, cfg Config, in, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := slog.With("input", in)

	b, err := util.ReadInput(in)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	t, st, err := frontend.DecodeBytes(b)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	log.Debug("syntax tree decoded", "nodes", len(t.Nodes))

	ds, err := ir.Analyze(t, st)
	cfg.printDiagnostics(ds, in)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	l, err := tac.Generate(t, st, tac.Options{Fold: cfg.Opt.Fold, Strength: cfg.Opt.Strength})
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	log.Debug("three-address code generated", "instructions", l.Len())

	var wr util.Writer
	if err := backend.GenerateAssembler(cfg.Opt, moduleName(in), l, st, t, &wr); err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	if err := util.WriteOutput(out, &wr); err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	log.Debug("output written", "output", out, "target", util.TargetName(cfg.Opt.Target))
	return nil
}

// CompileAll compiles every input with up to cfg.Opt.Threads concurrent workers. A single input is written to
// cfg.Opt.Out, several inputs each to the output path derived from their name. Every failing input is reported
// in the joined error; one failure does not stop the others.
func CompileAll(ctx context.Context, cfg Config, inputs []string) error {
	if len(inputs) == 0 {
		return errors.New("no input files given")
	}
	if len(inputs) == 1 {
		return Compile(ctx, cfg, inputs[0], cfg.Opt.Out)
	}
	if cfg.mx == nil {
		cfg.mx = &sync.Mutex{}
	}

	pe := util.NewPerror(len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(cfg.Opt.Threads, len(inputs))))
	for _, e1 := range inputs {
		g.Go(func() error {
			pe.Append(Compile(gctx, cfg, e1, OutputPath(e1, cfg.Opt.Target)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return pe.Err()
}

// OutputPath returns the output file of input in for target: its extension replaced by the target's.
func OutputPath(in string, target int) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + util.TargetExt(target)
}

// ExitCode maps err to the process exit code. For joined errors the highest code of all wrapped errors is used.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		code := ExitOK
		for _, e1 := range j.Unwrap() {
			code = max(code, ExitCode(e1))
		}
		return code
	}
	switch {
	case errors.Is(err, amd64.ErrInternal), errors.Is(err, amd64.ErrUnsupported), errors.Is(err, llvm.ErrUnsupported),
		errors.Is(err, tac.ErrNotConstant):
		return ExitCodegen
	case errors.Is(err, ir.ErrType):
		return ExitType
	case errors.Is(err, ir.ErrStructural):
		return ExitStructural
	case errors.Is(err, frontend.ErrFormat):
		return ExitFormat
	}
	return ExitUsage
}

// moduleName returns the base name of input in without extension.
func moduleName(in string) string {
	if in == "-" {
		return "stdin"
	}
	base := filepath.Base(in)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// printDiagnostics writes ds for input in to the diagnostics writer.
func (cfg Config) printDiagnostics(ds util.Diagnostics, in string) {
	if len(ds) == 0 {
		return
	}
	w := cfg.Diag
	if w == nil {
		w = os.Stderr
	}
	if cfg.mx != nil {
		cfg.mx.Lock()
		defer cfg.mx.Unlock()
	}
	ds.Print(w, in, cfg.UseColor)
}
