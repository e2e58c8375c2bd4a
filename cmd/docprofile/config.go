package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"docprofile/internal/diag"
	"docprofile/internal/driver"
	"docprofile/internal/formal"
	"docprofile/internal/format"
	"docprofile/internal/profile"
	"docprofile/internal/schemareg"
)

const manifestName = "docprofile.toml"

const noManifestMessage = "no " + manifestName + " found\nplease create one or pass it explicitly, e.g.:\n  docprofile --config path/to/" + manifestName + " validate doc.xml"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
	Raw    []byte
}

type projectConfig struct {
	Report  reportConfig   `toml:"report"`
	Format  formatConfig   `toml:"format"`
	Cache   cacheConfig    `toml:"cache"`
	Schemas []schemaConfig `toml:"schema"`
}

type reportConfig struct {
	InternalErrors bool `toml:"internal_errors"`
	Debug          bool `toml:"debug"`
	MaxDiagnostics int  `toml:"max_diagnostics"`
}

type formatConfig struct {
	IndentWidth  int  `toml:"indent_width"`
	UseTabs      bool `toml:"use_tabs"`
	DropComments bool `toml:"drop_comments"`
}

type cacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type schemaConfig struct {
	Namespace  string   `toml:"namespace"`
	Version    int      `toml:"version"`
	Label      string   `toml:"label"`
	Status     []string `toml:"status"`
	XSD        string   `toml:"xsd"`
	Profile    string   `toml:"profile"`
	CodePrefix string   `toml:"code_prefix"`
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadProjectManifest reads the manifest named by explicit, or the first
// one found walking up from startDir.
func loadProjectManifest(explicit, startDir string) (*projectManifest, bool, error) {
	path := explicit
	if path == "" {
		found, ok, err := findManifest(startDir)
		if err != nil || !ok {
			return nil, ok, err
		}
		path = found
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read manifest: %w", err)
	}
	cfg, err := parseProjectConfig(abs, raw)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{Path: abs, Root: filepath.Dir(abs), Config: cfg, Raw: raw}, true, nil
}

func parseProjectConfig(path string, raw []byte) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.Decode(string(raw), &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return projectConfig{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("report", "internal_errors") {
		cfg.Report.InternalErrors = true
	}
	if cfg.Report.MaxDiagnostics < 0 {
		return projectConfig{}, fmt.Errorf("%s: [report].max_diagnostics must not be negative", path)
	}
	if !meta.IsDefined("schema") || len(cfg.Schemas) == 0 {
		return projectConfig{}, fmt.Errorf("%s: missing [[schema]]", path)
	}
	for i, s := range cfg.Schemas {
		if strings.TrimSpace(s.Namespace) == "" {
			return projectConfig{}, fmt.Errorf("%s: [[schema]] #%d: missing namespace", path, i+1)
		}
	}
	return cfg, nil
}

// runtimeConfig is the manifest resolved into the objects a validation run
// consumes.
type runtimeConfig struct {
	manifest *projectManifest
	registry *schemareg.Registry
	checkers map[string][]driver.Checker
	report   diag.ReportOptions
	maxDiags int
	format   format.Options
	cache    cacheConfig
	digest   driver.Digest
}

func (m *projectManifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// buildRuntime loads every schema and profile named by the manifest and
// builds the registry. The digest covers the manifest and the content of
// every file it references.
func buildRuntime(m *projectManifest) (*runtimeConfig, error) {
	cfg := m.Config
	rt := &runtimeConfig{
		manifest: m,
		checkers: make(map[string][]driver.Checker),
		report: diag.ReportOptions{
			IncludeInternal: cfg.Report.InternalErrors,
			IncludeDebug:    cfg.Report.Debug,
		},
		maxDiags: cfg.Report.MaxDiagnostics,
		format: format.Options{
			IndentWidth:  cfg.Format.IndentWidth,
			UseTabs:      cfg.Format.UseTabs,
			DropComments: cfg.Format.DropComments,
		},
		cache: cfg.Cache,
	}
	if rt.cache.Dir != "" {
		rt.cache.Dir = m.resolve(rt.cache.Dir)
	}

	digestParts := []string{string(m.Raw)}
	b := schemareg.NewBuilder()
	for i, s := range cfg.Schemas {
		where := fmt.Sprintf("%s: [[schema]] %s", m.Path, s.Namespace)
		status, err := schemareg.ParseLifecycle(s.Status)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where, err)
		}
		entry := schemareg.Entry{
			Namespace:  s.Namespace,
			Version:    s.Version,
			Label:      s.Label,
			Status:     status,
			CodePrefix: s.CodePrefix,
		}
		if s.XSD != "" {
			path := m.resolve(s.XSD)
			x, err := formal.LoadXSD(path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", where, err)
			}
			entry.Schema = x
			part, err := fileDigestPart(path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", where, err)
			}
			digestParts = append(digestParts, part)
		}
		if s.Profile != "" {
			path := m.resolve(s.Profile)
			p, err := profile.LoadFile(path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", where, err)
			}
			rt.checkers[s.Namespace] = append(rt.checkers[s.Namespace], p)
			part, err := fileDigestPart(path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", where, err)
			}
			digestParts = append(digestParts, part)
		}
		if err := b.Register(entry); err != nil {
			return nil, fmt.Errorf("%s (#%d): %w", where, i+1, err)
		}
	}
	rt.registry = b.Build()
	rt.digest = driver.ConfigDigest(digestParts...)
	return rt, nil
}

func fileDigestPart(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return path + "\x00" + string(data), nil
}

// withOverrides applies the root flags that outrank the manifest.
func (rt *runtimeConfig) withOverrides(maxDiagnostics int) {
	if maxDiagnostics >= 0 {
		rt.maxDiags = maxDiagnostics
	}
}

// digestFor extends the manifest digest with the report options, which
// change the cached report.
func (rt *runtimeConfig) digestFor() driver.Digest {
	return driver.ConfigDigest(
		rt.digest.String(),
		strconv.FormatBool(rt.report.IncludeInternal),
		strconv.FormatBool(rt.report.IncludeDebug),
		strconv.Itoa(rt.maxDiags),
		strconv.Itoa(rt.format.IndentWidth),
		strconv.FormatBool(rt.format.UseTabs),
		strconv.FormatBool(rt.format.DropComments),
	)
}

func loadRuntime(explicit string) (*runtimeConfig, error) {
	m, found, err := loadProjectManifest(explicit, ".")
	if err != nil {
		return nil, &exitError{code: exitUsage, err: err}
	}
	if !found {
		return nil, &exitError{code: exitUsage, err: errors.New(noManifestMessage)}
	}
	rt, err := buildRuntime(m)
	if err != nil {
		return nil, &exitError{code: exitUsage, err: err}
	}
	return rt, nil
}
