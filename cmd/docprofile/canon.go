package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docprofile/internal/format"
)

var canonCmd = &cobra.Command{
	Use:   "canon [flags] <file.xml>",
	Short: "Print the canonical reformat of a document",
	Long: `Print the canonical form diagnostics refer to: one element per line,
indentation by depth and a UTF-8 declaration. Line numbers in validation
reports are line numbers of this output.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return usageErrorf("canon requires exactly one file")
		}
		return nil
	},
	RunE: runCanon,
}

func init() {
	canonCmd.Flags().Int("indent", 0, "indentation width (0 uses the manifest or 2)")
	canonCmd.Flags().Bool("tabs", false, "indent with tabs")
	canonCmd.Flags().Bool("drop-comments", false, "omit comments")
}

func runCanon(cmd *cobra.Command, args []string) error {
	opt, err := canonOptions(cmd)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	out, err := format.Canonical(raw, opt)
	if err != nil {
		return &exitError{code: exitFailed, err: fmt.Errorf("%s: %w", args[0], err)}
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// canonOptions starts from the manifest's [format] section when one is
// found and applies the flags on top.
func canonOptions(cmd *cobra.Command) (format.Options, error) {
	var opt format.Options
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return opt, fmt.Errorf("failed to get config flag: %w", err)
	}
	m, found, err := loadProjectManifest(configPath, ".")
	if err != nil {
		return opt, &exitError{code: exitUsage, err: err}
	}
	if found {
		opt = format.Options{
			IndentWidth:  m.Config.Format.IndentWidth,
			UseTabs:      m.Config.Format.UseTabs,
			DropComments: m.Config.Format.DropComments,
		}
	}

	indent, err := cmd.Flags().GetInt("indent")
	if err != nil {
		return opt, fmt.Errorf("failed to get indent flag: %w", err)
	}
	if indent < 0 {
		return opt, usageErrorf("--indent must not be negative")
	}
	if indent > 0 {
		opt.IndentWidth = indent
	}
	if cmd.Flags().Changed("tabs") {
		if opt.UseTabs, err = cmd.Flags().GetBool("tabs"); err != nil {
			return opt, fmt.Errorf("failed to get tabs flag: %w", err)
		}
	}
	if cmd.Flags().Changed("drop-comments") {
		if opt.DropComments, err = cmd.Flags().GetBool("drop-comments"); err != nil {
			return opt, fmt.Errorf("failed to get drop-comments flag: %w", err)
		}
	}
	return opt, nil
}
