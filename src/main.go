package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tacc/src/driver"
	"tacc/src/util"
)

// newRootCmd returns the root command with its flags and subcommands.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tacc [flags] <tree.mp>...",
		Short: "Compile checked syntax trees to x86-64 assembly",
		Long: `tacc reads syntax trees written by the parser, checks declarations and types, lowers them to
three-address code and emits AT&T x86-64 assembly, LLVM IR, the three-address code listing or a dump of the checked tree.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
		Version:       util.AppVersion,
	}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the compiler version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(util.AppVersion)
		},
	})

	def := util.DefaultOptions()
	f := rootCmd.Flags()
	f.StringP("out", "o", "", "output file, only valid with a single input")
	f.StringP("target", "t", util.TargetName(def.Target), "output target (amd64|llvm|tac|tree)")
	f.IntP("threads", "j", def.Threads, "number of inputs compiled in parallel")
	f.BoolP("verbose", "v", def.Verbose, "log pass statistics")
	f.Bool("comments", def.Comments, "annotate assembler output with the three-address code")
	f.Bool("fold", def.Fold, "fold constants and algebraic identities")
	f.Bool("strength", def.Strength, "reduce multiplication and division by powers of two to shifts")
	f.String("color", def.Color, "colorize diagnostics (auto|always|never)")
	f.String("log-format", def.LogFormat, "log format (text|json)")
	f.String("config", util.DefaultConfigFile, "configuration file")
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "tacc: %s\n", err)
		os.Exit(driver.ExitCode(err))
	}
}

// run resolves the options and compiles every input.
func run(cmd *cobra.Command, args []string) error {
	opt, err := options(cmd)
	if err != nil {
		return err
	}
	if len(opt.Out) > 0 && len(args) > 1 {
		return fmt.Errorf("-o cannot be used with %d inputs", len(args))
	}
	util.InitLogger(util.LogConfig{Verbose: opt.Verbose, Format: opt.LogFormat})

	useColor := opt.Color == "always" || opt.Color == "auto" && isTerminal(os.Stderr)
	color.NoColor = !useColor
	cfg := driver.Config{Opt: opt, Diag: os.Stderr, UseColor: useColor}
	return driver.CompileAll(cmd.Context(), cfg, args)
}

// options applies the configuration file and then every flag given on the command line to the defaults.
func options(cmd *cobra.Command) (util.Options, error) {
	opt := util.DefaultOptions()
	f := cmd.Flags()

	path, _ := f.GetString("config")
	if err := util.LoadConfig(&opt, path, f.Changed("config")); err != nil {
		return opt, err
	}

	if f.Changed("target") {
		s, _ := f.GetString("target")
		t, err := util.ParseTarget(s)
		if err != nil {
			return opt, err
		}
		opt.Target = t
	}
	if f.Changed("out") {
		opt.Out, _ = f.GetString("out")
	}
	if f.Changed("threads") {
		opt.Threads, _ = f.GetInt("threads")
	}
	if f.Changed("verbose") {
		opt.Verbose, _ = f.GetBool("verbose")
	}
	if f.Changed("comments") {
		opt.Comments, _ = f.GetBool("comments")
	}
	if f.Changed("fold") {
		opt.Fold, _ = f.GetBool("fold")
	}
	if f.Changed("strength") {
		opt.Strength, _ = f.GetBool("strength")
	}
	if f.Changed("color") {
		opt.Color, _ = f.GetString("color")
	}
	if f.Changed("log-format") {
		opt.LogFormat, _ = f.GetString("log-format")
	}
	return opt, opt.Validate()
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
