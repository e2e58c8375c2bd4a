package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"docprofile/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "docprofile",
	Short: "Validate XML documents against schema versions and profiles",
	Long: `docprofile checks XML documents against a registry of schema versions:
formal XSD validation, lifecycle status of the schema version and the
application profile (permitted children, cardinalities, attributes).`,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return setupTracing(cmd) },
}

// exitError carries a process exit status through cobra. A nil err means
// the output was already printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

const (
	exitOK     = 0
	exitFailed = 1 // fatal or error diagnostics
	exitUsage  = 2 // bad flags, arguments or configuration
)

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &exitError{code: exitUsage, err: err}
	})

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(canonCmd)
	rootCmd.AddCommand(schemasCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to docprofile.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Int("max-diagnostics", -1, "maximum diagnostics kept per severity tier (-1 uses the manifest, 0 is unlimited)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (\"-\" for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|stage|document|debug)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
}

func main() {
	err := rootCmd.Execute()
	closeTracer(rootCmd)
	os.Exit(exitCode(err))
}

// exitCode maps the result of Execute to the process status and prints
// errors cobra was told to keep quiet about.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil && ee.code == exitUsage {
			fmt.Fprintln(os.Stderr, "Run 'docprofile --help' for usage.")
		}
		return ee.code
	}
	return exitUsage
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func useColor(cmd *cobra.Command) (bool, error) {
	v, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch v {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return isTerminal(os.Stdout), nil
	}
	return false, usageErrorf("invalid --color value %q (expected auto|on|off)", v)
}

func usageErrorf(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}
