package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docprofile/internal/diagfmt"
)

const personXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="urn:example:person"
           elementFormDefault="qualified">
  <xs:element name="person">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="name" type="xs:string"/>
        <xs:element name="age" type="xs:integer" minOccurs="0"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>
`

const personProfile = `
name: person-basic
rules:
  - element: person
    children:
      - name: name
      - name: age
        min: 1
    base_children: [name, age]
`

const manifest = `
[report]
max_diagnostics = 50

[[schema]]
namespace = "urn:example:person"
version = 3
label = "Person 3"
status = ["current"]
xsd = "schemas/person.xsd"
profile = "profiles/person.yaml"
code_prefix = "P"

[[schema]]
namespace = "urn:example:person:2"
version = 2
status = ["old", "legacy"]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// writeProject lays out a manifest, schema, profile and two documents.
func writeProject(t *testing.T) (root string) {
	t.Helper()
	root = t.TempDir()
	writeFile(t, filepath.Join(root, manifestName), manifest)
	writeFile(t, filepath.Join(root, "schemas", "person.xsd"), personXSD)
	writeFile(t, filepath.Join(root, "profiles", "person.yaml"), personProfile)
	writeFile(t, filepath.Join(root, "docs", "good.xml"),
		`<person xmlns="urn:example:person"><name>Ada</name><age>36</age></person>`)
	writeFile(t, filepath.Join(root, "docs", "bad.xml"),
		`<person xmlns="urn:example:person"><name>Bob</name></person>`)
	return root
}

// resetFlags restores every flag of cmd and its children to its default,
// since cobra commands are package state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetContext(context.Background())
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	closeTracer(rootCmd)
	return out.String(), err
}

func TestParseProjectConfig(t *testing.T) {
	cfg, err := parseProjectConfig("docprofile.toml", []byte(manifest))
	require.NoError(t, err)
	assert.True(t, cfg.Report.InternalErrors, "internal errors are reported unless disabled")
	assert.Equal(t, 50, cfg.Report.MaxDiagnostics)
	require.Len(t, cfg.Schemas, 2)
	assert.Equal(t, []string{"old", "legacy"}, cfg.Schemas[1].Status)

	cfg, err = parseProjectConfig("docprofile.toml", []byte("[report]\ninternal_errors = false\n"+manifest[strings.Index(manifest, "[[schema]]"):]))
	require.NoError(t, err)
	assert.False(t, cfg.Report.InternalErrors)
}

func TestParseProjectConfigErrors(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"no schema", "[report]\ndebug = true\n", "missing [[schema]]"},
		{"no namespace", "[[schema]]\nversion = 1\n", "missing namespace"},
		{"unknown key", "[[schema]]\nnamespace = \"urn:x\"\ncolour = 1\n", "unknown key"},
		{"negative cap", "[report]\nmax_diagnostics = -1\n[[schema]]\nnamespace = \"urn:x\"\n", "must not be negative"},
		{"bad toml", "[[schema]\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseProjectConfig("docprofile.toml", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := writeProject(t)
	path, ok, err := findManifest(filepath.Join(root, "docs"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, manifestName), path)

	_, ok, err = findManifest(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuildRuntime(t *testing.T) {
	root := writeProject(t)
	m, ok, err := loadProjectManifest(filepath.Join(root, manifestName), "")
	require.NoError(t, err)
	require.True(t, ok)

	rt, err := buildRuntime(m)
	require.NoError(t, err)
	assert.Equal(t, 2, rt.registry.Len())
	assert.Len(t, rt.checkers["urn:example:person"], 1)

	first := rt.digestFor()
	rt.withOverrides(5)
	assert.NotEqual(t, first, rt.digestFor(), "report options are part of the cache key")

	writeFile(t, filepath.Join(root, "profiles", "person.yaml"), personProfile+"\n# edited\n")
	rt2, err := buildRuntime(m)
	require.NoError(t, err)
	assert.NotEqual(t, rt.digest, rt2.digest, "referenced files are part of the digest")
}

func TestValidateCommandShort(t *testing.T) {
	root := writeProject(t)
	out, err := execute(t, "--config", filepath.Join(root, manifestName),
		"validate", "--format", "short", filepath.Join(root, "docs"))

	require.Error(t, err)
	assert.Equal(t, exitFailed, exitCode(err))
	assert.Contains(t, out, "bad.xml: error PRF2001")
	assert.NotContains(t, out, "good.xml")
}

func TestValidateCommandJSON(t *testing.T) {
	root := writeProject(t)
	out, err := execute(t, "--config", filepath.Join(root, manifestName),
		"validate", "--format", "json", filepath.Join(root, "docs", "good.xml"))
	require.NoError(t, err)

	var payload diagfmt.DiagnosticsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Equal(t, 1, payload.Count)
	doc := payload.Documents[0]
	assert.Equal(t, "passed", doc.Status)
	assert.Equal(t, "urn:example:person", doc.Namespace)
	assert.Equal(t, 3, doc.Version)
}

func TestValidateCommandCache(t *testing.T) {
	root := writeProject(t)
	cacheDir := t.TempDir()
	args := []string{"--config", filepath.Join(root, manifestName),
		"validate", "--format", "json", "--cache", filepath.Join(root, "docs", "good.xml")}

	t.Setenv("XDG_CACHE_HOME", cacheDir)
	_, err := execute(t, args...)
	require.NoError(t, err)
	out, err := execute(t, args...)
	require.NoError(t, err)

	var payload diagfmt.DiagnosticsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload.Documents, 1)
	assert.True(t, payload.Documents[0].Cached)
	assert.Equal(t, 3, payload.Documents[0].Version)
}

func TestValidateCommandUsageErrors(t *testing.T) {
	root := writeProject(t)
	cfg := filepath.Join(root, manifestName)

	_, err := execute(t, "--config", cfg, "validate", "--format", "sarif", root)
	assert.Equal(t, exitUsage, exitCode(err))

	_, err = execute(t, "--config", cfg, "validate", filepath.Join(root, "missing.xml"))
	assert.Equal(t, exitUsage, exitCode(err))

	_, err = execute(t, "--config", filepath.Join(root, "nowhere.toml"), "validate", root)
	assert.Equal(t, exitUsage, exitCode(err))

	_, err = execute(t, "validate", "--no-such-flag")
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestValidateCommandTrace(t *testing.T) {
	root := writeProject(t)
	tracePath := filepath.Join(t.TempDir(), "run.ndjson")
	_, err := execute(t, "--config", filepath.Join(root, manifestName),
		"--trace", tracePath, "--trace-level", "document",
		"validate", "--format", "short", filepath.Join(root, "docs", "good.xml"))
	require.NoError(t, err)

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.NotEmpty(t, lines)
	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
}

func TestCanonCommand(t *testing.T) {
	root := writeProject(t)
	out, err := execute(t, "--config", filepath.Join(root, manifestName),
		"canon", "--indent", "4", filepath.Join(root, "docs", "good.xml"))
	require.NoError(t, err)
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>
<person xmlns="urn:example:person">
    <name>Ada</name>
    <age>36</age>
</person>
`, out)

	writeFile(t, filepath.Join(root, "broken.xml"), "<a><b></a>")
	_, err = execute(t, "--config", filepath.Join(root, manifestName), "canon", filepath.Join(root, "broken.xml"))
	assert.Equal(t, exitFailed, exitCode(err))
}

func TestSchemasCommand(t *testing.T) {
	root := writeProject(t)
	out, err := execute(t, "--config", filepath.Join(root, manifestName), "schemas")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAMESPACE"))
	assert.Contains(t, out, "person-basic")
	assert.Contains(t, out, "old|legacy")

	out, err = execute(t, "--config", filepath.Join(root, manifestName), "schemas", "--format", "json")
	require.NoError(t, err)
	var rows []schemaRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--color", "off", "--full")
	require.NoError(t, err)
	assert.Contains(t, out, "docprofile ")
	assert.Contains(t, out, "commit: ")
}

func TestValidateCommandProfiling(t *testing.T) {
	root := writeProject(t)
	cpu := filepath.Join(t.TempDir(), "cpu.pprof")
	_, err := execute(t, "--config", filepath.Join(root, manifestName), "--cpu-profile", cpu,
		"validate", "--format", "short", filepath.Join(root, "docs", "good.xml"))
	require.NoError(t, err)
	_, err = os.Stat(cpu)
	assert.NoError(t, err)
}

func TestValidateExampleProject(t *testing.T) {
	example := filepath.Join("..", "..", "testdata", "example")
	out, err := execute(t, "--config", filepath.Join(example, manifestName),
		"validate", "--format", "short", "--ui", "off", filepath.Join(example, "docs"))

	require.Error(t, err)
	assert.Equal(t, exitFailed, exitCode(err))
	assert.Contains(t, out, "broken.xml: fatal")
	assert.Contains(t, out, "legacy.xml: warning")
	assert.Contains(t, out, "profiled.xml: warning")
	assert.NotContains(t, out, "valid.xml")
}
