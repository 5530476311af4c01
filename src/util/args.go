package util

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options holds the compiler settings. Values are resolved from defaults, then an optional TOML
// configuration file and finally command line flags.
type Options struct {
	Out       string // Path to output file. Empty means derive from input or write to stdout.
	Target    int    // Output target, one of TargetAmd64, TargetLLVM, TargetTAC, TargetTree.
	Threads   int    // Number of input files compiled in parallel.
	Verbose   bool   // Set true if compiler should log pass statistics.
	Comments  bool   // Set true if every TAC instruction should be annotated in the assembler output.
	Fold      bool   // Constant folding and algebraic identities.
	Strength  bool   // Strength reduction of multiplication and division by powers of two.
	Color     string // Diagnostics coloring: "auto", "always" or "never".
	LogFormat string // "text" or "json".
}

// fileConfig mirrors the layout of tacc.toml.
type fileConfig struct {
	Target   string `toml:"target"`
	Threads  int    `toml:"threads"`
	Comments *bool  `toml:"comments"`
	Color    string `toml:"color"`
	Optimise struct {
		Fold     *bool `toml:"fold"`
		Strength *bool `toml:"strength"`
	} `toml:"optimise"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// ---------------------
// ----- Constants -----
// ---------------------

const MaxThreads = 64 // Maximum files allowed compiling in parallel.
const AppVersion = "tacc 1.0.0"

// DefaultConfigFile is looked up in the working directory when no configuration file is given.
const DefaultConfigFile = "tacc.toml"

// Output targets.
const (
	TargetAmd64 = iota
	TargetLLVM
	TargetTAC
	TargetTree
)

// -------------------
// ----- Globals -----
// -------------------

// targetNames maps target identifiers to their command line names.
var targetNames = [TargetTree + 1]string{
	"amd64",
	"llvm",
	"tac",
	"tree",
}

// ---------------------
// ----- Functions -----
// ---------------------

// DefaultOptions returns the compiler defaults.
func DefaultOptions() Options {
	return Options{
		Target:    TargetAmd64,
		Threads:   1,
		Comments:  true,
		Fold:      true,
		Strength:  true,
		Color:     "auto",
		LogFormat: "text",
	}
}

// ParseTarget returns the target identifier for its command line name.
func ParseTarget(s string) (int, error) {
	for i1, e1 := range targetNames {
		if strings.EqualFold(s, e1) {
			return i1, nil
		}
	}
	return 0, fmt.Errorf("unexpected target identifier %q, expected one of %s", s, strings.Join(targetNames[:], ", "))
}

// TargetName returns the command line name of the target t.
func TargetName(t int) string {
	if t < 0 || t >= len(targetNames) {
		return "unknown"
	}
	return targetNames[t]
}

// TargetExt returns the file extension used for output of target t.
func TargetExt(t int) string {
	switch t {
	case TargetLLVM:
		return ".ll"
	case TargetTAC:
		return ".tac"
	case TargetTree:
		return ".tree"
	default:
		return ".s"
	}
}

// LoadConfig applies the TOML configuration file at path on top of opt. A missing default
// configuration file is not an error; a missing explicitly named file is.
func LoadConfig(opt *Options, path string, explicit bool) error {
	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config %s: %w", path, err)
	}

	if len(cfg.Target) > 0 {
		t, err := ParseTarget(cfg.Target)
		if err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		opt.Target = t
	}
	if cfg.Threads != 0 {
		opt.Threads = cfg.Threads
	}
	if cfg.Comments != nil {
		opt.Comments = *cfg.Comments
	}
	if len(cfg.Color) > 0 {
		opt.Color = cfg.Color
	}
	if cfg.Optimise.Fold != nil {
		opt.Fold = *cfg.Optimise.Fold
	}
	if cfg.Optimise.Strength != nil {
		opt.Strength = *cfg.Optimise.Strength
	}
	if strings.EqualFold(cfg.Log.Level, "debug") {
		opt.Verbose = true
	}
	if len(cfg.Log.Format) > 0 {
		opt.LogFormat = cfg.Log.Format
	}
	return nil
}

// Validate checks that every option holds a usable value.
func (opt Options) Validate() error {
	if opt.Threads < 1 || opt.Threads > MaxThreads {
		return fmt.Errorf("thread count must be integer in range [1, %d], got %d", MaxThreads, opt.Threads)
	}
	if opt.Target < TargetAmd64 || opt.Target > TargetTree {
		return fmt.Errorf("unsupported output target %d", opt.Target)
	}
	switch opt.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("color must be one of auto, always or never, got %q", opt.Color)
	}
	switch opt.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", opt.LogFormat)
	}
	return nil
}
