package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/qasm/internal/config"
	"github.com/aledsdavies/qasm/runtime/dialect"
)

func newLexCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lex FILE",
		Short: "Print the tokens of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			return s.report(runLex(cmd, s, args[0]))
		},
	}
}

func runLex(cmd *cobra.Command, s *session, file string) error {
	source, err := readSource(cmd, file)
	if err != nil {
		return err
	}
	opts, err := s.cfg.Options(s.logger)
	if err != nil {
		return err
	}
	_, tokens, err := dialect.Lex(source, opts...)
	if err != nil {
		return withSource(err, source)
	}

	switch s.cfg.Format {
	case config.FormatJSON:
		out, err := json.MarshalIndent(tokens, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(s.stdout, string(out))
	case config.FormatCBOR:
		out, err := dialect.EncodeTokens(tokens)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(s.stdout, hex.EncodeToString(out))
	default:
		DisplayTokens(s.stdout, tokens, s.useColor)
	}
	return nil
}

func newParseCmd(flags *globalFlags) *cobra.Command {
	var (
		digest bool
		stats  bool
	)
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the syntax tree of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			return s.report(runParse(cmd, s, args[0], digest, stats))
		},
	}
	cmd.Flags().BoolVar(&digest, "digest", false, "Print the SHA3-256 digest of the canonical tree")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print parse statistics to stderr")
	return cmd
}

func runParse(cmd *cobra.Command, s *session, file string, digest, stats bool) error {
	source, err := readSource(cmd, file)
	if err != nil {
		return err
	}
	opts, err := s.cfg.Options(s.logger)
	if err != nil {
		return err
	}

	start := time.Now()
	prog, err := dialect.Parse(source, opts...)
	if err != nil {
		return withSource(err, source)
	}
	elapsed := time.Since(start)

	tree, err := prog.Canonical()
	if err != nil {
		return err
	}

	switch s.cfg.Format {
	case config.FormatJSON:
		out, err := tree.JSON()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(s.stdout, string(out))
	case config.FormatCBOR:
		out, err := tree.MarshalBinary()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(s.stdout, hex.EncodeToString(out))
	default:
		DisplayProgram(s.stdout, prog)
	}

	if digest {
		sum, err := tree.DigestHex()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(s.stdout, "digest: %s\n", sum)
	}
	if stats {
		_, _ = fmt.Fprintf(s.stderr, "%s: %d tokens, %d statements, %s\n",
			prog.Dialect, prog.TokenCount, prog.Len(), elapsed.Round(time.Microsecond))
	}
	return nil
}

func newCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Report whether a program lexes and parses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			return s.report(runCheck(cmd, s, args[0]))
		},
	}
}

func runCheck(cmd *cobra.Command, s *session, file string) error {
	source, err := readSource(cmd, file)
	if err != nil {
		return err
	}
	opts, err := s.cfg.Options(s.logger)
	if err != nil {
		return err
	}
	prog, err := dialect.Parse(source, opts...)
	if err != nil {
		return withSource(err, source)
	}
	_, _ = fmt.Fprintf(s.stdout, "%s %s: ok (%d statements)\n",
		Colorize("✓", ColorGreen, s.useColor), file, prog.Len())
	return nil
}

func newWatchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Check a program every time it is written",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), s, args[0], func() {
				// Failures are reported and watching continues.
				_ = s.report(runCheck(cmd, s, args[0]))
			})
		},
	}
}

// report prints err in CLI form and hands it back so that the exit status
// reflects the failure.
func (s *session) report(err error) error {
	if err != nil {
		FormatError(s.stderr, err, s.useColor)
	}
	return err
}
