package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/qasm/internal/config"
)

// globalFlags are shared by every subcommand. Zero values mean "not set" so
// that the config file and environment keep their say.
type globalFlags struct {
	configPath string
	dialect    string
	maxDepth   int
	format     string
	debug      bool
	noColor    bool
	noScan     bool
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:           "qasm [command]",
		Short:         "Lex and parse OpenQASM 2 and 3 programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to a .toml or .yaml config file (default: .qasm.toml or .qasm.yaml in the working directory)")
	pf.StringVar(&flags.dialect, "dialect", "", "Dialect to use: auto, 2 or 3")
	pf.IntVar(&flags.maxDepth, "max-depth", 0, "Maximum nesting depth accepted by the parser")
	pf.StringVarP(&flags.format, "output", "o", "", "Output format: text, json or cbor")
	pf.BoolVar(&flags.debug, "debug", false, "Enable debug output")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&flags.noScan, "skip-terminator-check", false, "Skip the line-level ';' check before lexing")

	rootCmd.AddCommand(
		newLexCmd(&flags),
		newParseCmd(&flags),
		newCheckCmd(&flags),
		newWatchCmd(&flags),
	)
	return rootCmd
}

// session is the resolved configuration for one command invocation.
type session struct {
	cfg      config.Config
	logger   *slog.Logger
	useColor bool
	stdout   io.Writer
	stderr   io.Writer
}

// newSession merges config file, environment and flags, in that order.
func newSession(cmd *cobra.Command, flags *globalFlags) (*session, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(flags.configPath, wd)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if flags.dialect != "" {
		cfg.Dialect = flags.dialect
	}
	if flags.maxDepth != 0 {
		cfg.MaxDepth = flags.maxDepth
	}
	if flags.format != "" {
		cfg.Format = flags.format
	}
	if flags.debug {
		cfg.Debug = true
	}
	if flags.noScan {
		cfg.SkipTerminatorCheck = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if cfg.Source != "" {
		logger.Debug("loaded config", "path", cfg.Source)
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		useColor: ShouldUseColor(flags.noColor, cmd.OutOrStdout()),
		stdout:   cmd.OutOrStdout(),
		stderr:   cmd.ErrOrStderr(),
	}, nil
}

// readSource reads the program named by file, or stdin for "-".
func readSource(cmd *cobra.Command, file string) (string, error) {
	reader, closeFunc, err := getInputReader(cmd, file)
	if err != nil {
		return "", err
	}
	defer func() { _ = closeFunc() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", file, err)
	}
	return string(data), nil
}

// getInputReader handles the 2 modes of input:
// 1. Explicit stdin with -
// 2. File input
func getInputReader(cmd *cobra.Command, file string) (io.Reader, func() error, error) {
	if file == "-" {
		return cmd.InOrStdin(), func() error { return nil }, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening file %s: %w", file, err)
	}
	return f, f.Close, nil
}
