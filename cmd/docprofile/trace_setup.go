package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docprofile/internal/trace"
)

// setupTracing inspects the trace flags and attaches a tracer to the
// command context.
func setupTracing(cmd *cobra.Command) error {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	formatStr, err := root.PersistentFlags().GetString("trace-format")
	if err != nil {
		return fmt.Errorf("failed to get trace-format flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return usageErrorf("invalid trace level: %w", err)
	}
	// --trace alone means stage-level tracing
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelStage
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}

	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return usageErrorf("invalid trace format: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Format:     format,
		OutputPath: traceOutput,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	root.SetContext(ctx)
	return nil
}

// closeTracer flushes and closes the tracer attached by setupTracing.
// PersistentPostRun does not run when a command fails, so main calls it.
func closeTracer(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		return
	}
	tracer := trace.FromContext(ctx)
	if tracer == nil || tracer == trace.Nop {
		return
	}
	if err := tracer.Flush(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
	}
	if err := tracer.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
	}
}
