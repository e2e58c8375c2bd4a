package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"docprofile/internal/diagfmt"
	"docprofile/internal/driver"
	"docprofile/internal/observ"
	"docprofile/internal/schemareg"
	"docprofile/internal/source"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flags] <file.xml|directory>...",
	Short: "Validate XML documents against the registered schemas and profiles",
	Long: `Validate XML documents, or every *.xml file below a directory, against the
schema registry and profiles of docprofile.toml. Exits with status 1 when any
document has fatal or error diagnostics.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return usageErrorf("validate requires at least one file or directory")
		}
		return nil
	},
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	validateCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	validateCmd.Flags().String("ui", "auto", "progress view for batches (auto|on|off)")
	validateCmd.Flags().Bool("cache", false, "reuse reports of unchanged documents (overrides [cache].enabled)")
	validateCmd.Flags().Bool("clear-cache", false, "drop every cached report before validating")
	validateCmd.Flags().Bool("no-source", false, "omit the annotated source listing in pretty output")
	validateCmd.Flags().Bool("no-explain", false, "omit rule explanations")
	validateCmd.Flags().Bool("debug", false, "include debug diagnostics (overrides [report].debug)")
	validateCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

type validateFlags struct {
	format     string
	jobs       int
	ui         uiMode
	cache      bool
	cacheSet   bool
	clearCache bool
	noSource   bool
	noExplain  bool
	debug      bool
	debugSet   bool
	fullPath   bool
	maxDiags   int
	timings    bool
	configPath string
	color      bool
}

func readValidateFlags(cmd *cobra.Command) (validateFlags, error) {
	var (
		f   validateFlags
		err error
	)
	if f.format, err = cmd.Flags().GetString("format"); err != nil {
		return f, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch f.format {
	case "pretty", "json", "short":
	default:
		return f, usageErrorf("unknown format: %s", f.format)
	}
	if f.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return f, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return f, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if f.ui, err = readUIMode(uiStr); err != nil {
		return f, err
	}
	if f.cache, err = cmd.Flags().GetBool("cache"); err != nil {
		return f, fmt.Errorf("failed to get cache flag: %w", err)
	}
	f.cacheSet = cmd.Flags().Changed("cache")
	if f.clearCache, err = cmd.Flags().GetBool("clear-cache"); err != nil {
		return f, fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	if f.noSource, err = cmd.Flags().GetBool("no-source"); err != nil {
		return f, fmt.Errorf("failed to get no-source flag: %w", err)
	}
	if f.noExplain, err = cmd.Flags().GetBool("no-explain"); err != nil {
		return f, fmt.Errorf("failed to get no-explain flag: %w", err)
	}
	if f.debug, err = cmd.Flags().GetBool("debug"); err != nil {
		return f, fmt.Errorf("failed to get debug flag: %w", err)
	}
	f.debugSet = cmd.Flags().Changed("debug")
	if f.fullPath, err = cmd.Flags().GetBool("fullpath"); err != nil {
		return f, fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	root := cmd.Root().PersistentFlags()
	if f.maxDiags, err = root.GetInt("max-diagnostics"); err != nil {
		return f, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if f.timings, err = root.GetBool("timings"); err != nil {
		return f, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if f.configPath, err = root.GetString("config"); err != nil {
		return f, fmt.Errorf("failed to get config flag: %w", err)
	}
	if f.color, err = useColor(cmd); err != nil {
		return f, err
	}
	return f, nil
}

// collectDocuments expands directories into their *.xml files. The
// returned base dir anchors relative display paths.
func collectDocuments(args []string) ([]string, string, error) {
	var files []string
	baseDir := ""
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, "", usageErrorf("failed to stat path: %w", err)
		}
		if !st.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := driver.ListDocuments(arg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to list %s: %w", arg, err)
		}
		if baseDir == "" && len(args) == 1 {
			baseDir = arg
		}
		files = append(files, found...)
	}
	return files, baseDir, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	flags, err := readValidateFlags(cmd)
	if err != nil {
		return err
	}
	rt, err := loadRuntime(flags.configPath)
	if err != nil {
		return err
	}
	rt.withOverrides(flags.maxDiags)
	if flags.debugSet {
		rt.report.IncludeDebug = flags.debug
	}

	files, baseDir, err := collectDocuments(args)
	if err != nil {
		return err
	}

	opts := driver.BatchOptions{
		Options: driver.Options{
			Registry:          rt.registry,
			NamespaceCheckers: rt.checkers,
			Report:            rt.report,
			MaxDiagnostics:    rt.maxDiags,
			Format:            rt.format,
		},
		Jobs:         flags.jobs,
		ConfigDigest: rt.digestFor(),
		BaseDir:      baseDir,
		PathMode:     source.PathRelative,
	}
	if baseDir == "" {
		opts.PathMode = source.PathAuto
	}
	if flags.fullPath {
		opts.PathMode = source.PathAbsolute
	}
	if flags.timings {
		opts.Timer = observ.NewTimer()
	}

	useCache := rt.cache.Enabled
	if flags.cacheSet {
		useCache = flags.cache
	}
	if useCache || flags.clearCache {
		cache, err := driver.OpenReportCache(rt.cache.Dir)
		if err != nil {
			return err
		}
		if flags.clearCache {
			if err := cache.DropAll(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
		}
		if useCache {
			opts.Cache = cache
		}
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	results, err := runBatch(cmd.Context(), files, opts, flags.ui)
	stopProfiling()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	docs := toDocuments(results, rt)
	if err := render(cmd.OutOrStdout(), docs, flags); err != nil {
		return fmt.Errorf("failed to format diagnostics: %w", err)
	}
	if opts.Timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), opts.Timer.Summary())
	}

	for _, d := range docs {
		if d.Failed() {
			// diagnostics already printed
			cmd.SilenceErrors = true
			return &exitError{code: exitFailed}
		}
	}
	return nil
}

func runBatch(ctx context.Context, files []string, opts driver.BatchOptions, mode uiMode) ([]driver.FileResult, error) {
	if !shouldUseTUI(mode, len(files)) {
		return driver.ValidateFiles(ctx, files, opts)
	}
	display := make([]string, len(files))
	for i, f := range files {
		display[i] = source.DisplayPath(f, opts.PathMode, opts.BaseDir)
	}
	title := fmt.Sprintf("validating %d documents", len(files))
	if opts.BaseDir != "" {
		title = fmt.Sprintf("validating %s", filepath.ToSlash(opts.BaseDir))
	}
	return runBatchWithUI(ctx, title, files, display, opts)
}

func toDocuments(results []driver.FileResult, rt *runtimeConfig) []diagfmt.Document {
	docs := make([]diagfmt.Document, 0, len(results))
	for _, r := range results {
		d := diagfmt.Document{Path: r.Display, Cached: r.Cached, Err: r.ReadErr}
		if r.Result != nil {
			d.Report = r.Result.Report
			d.Entry = r.Result.Entry
			if r.Cached {
				d.Entry = resolveCachedEntry(rt, d.Entry)
			}
		}
		docs = append(docs, d)
	}
	return docs
}

// resolveCachedEntry completes the entry of a cached report, which stores
// only namespace and version, from the registry.
func resolveCachedEntry(rt *runtimeConfig, cached *schemareg.Entry) *schemareg.Entry {
	if cached == nil {
		return nil
	}
	e, ok := rt.registry.Resolve(cached.Namespace)
	if !ok || e.Version != cached.Version {
		return cached
	}
	return &e
}

func render(w io.Writer, docs []diagfmt.Document, flags validateFlags) error {
	switch flags.format {
	case "json":
		return diagfmt.JSON(w, docs, diagfmt.JSONOpts{
			IncludeLines:        !flags.noSource,
			IncludeDescriptions: !flags.noExplain,
		})
	case "short":
		return diagfmt.Short(w, docs)
	default:
		return diagfmt.Pretty(w, docs, diagfmt.PrettyOpts{
			Color:            flags.color,
			Width:            terminalWidth(),
			ShowSource:       !flags.noSource,
			ShowDescriptions: !flags.noExplain,
		})
	}
}

// terminalWidth is the width listed source lines are cut to, 0 when stdout
// is not a terminal.
func terminalWidth() int {
	if !isTerminal(os.Stdout) {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w < 20 {
		return 0
	}
	return w - 10
}
