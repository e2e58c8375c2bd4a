package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"docprofile/internal/formal"
	"docprofile/internal/profile"
	"docprofile/internal/schemareg"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List the registered schema versions",
	Args:  cobra.NoArgs,
	RunE:  runSchemas,
}

func init() {
	schemasCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type schemaRow struct {
	Namespace string   `json:"namespace"`
	Version   int      `json:"version"`
	Label     string   `json:"label,omitempty"`
	Status    string   `json:"status"`
	Prefix    string   `json:"code_prefix,omitempty"`
	XSD       string   `json:"xsd,omitempty"`
	Profiles  []string `json:"profiles,omitempty"`
}

func runSchemas(cmd *cobra.Command, args []string) error {
	outFormat, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if outFormat != "pretty" && outFormat != "json" {
		return usageErrorf("unsupported format %q (must be pretty or json)", outFormat)
	}
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	rt, err := loadRuntime(configPath)
	if err != nil {
		return err
	}

	rows := schemaRows(rt)
	if outFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	return renderSchemaTable(cmd.OutOrStdout(), rows)
}

func schemaRows(rt *runtimeConfig) []schemaRow {
	entries := rt.registry.Entries()
	rows := make([]schemaRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, schemaRowOf(e, rt))
	}
	return rows
}

func schemaRowOf(e schemareg.Entry, rt *runtimeConfig) schemaRow {
	row := schemaRow{
		Namespace: e.Namespace,
		Version:   e.Version,
		Label:     e.Label,
		Status:    e.Status.String(),
		Prefix:    e.CodePrefix,
	}
	if x, ok := e.Schema.(*formal.XSD); ok {
		row.XSD = x.Location()
	}
	for _, chk := range rt.checkers[e.Namespace] {
		if p, ok := chk.(*profile.Profile); ok {
			row.Profiles = append(row.Profiles, p.Name())
		}
	}
	return row
}

func renderSchemaTable(w io.Writer, rows []schemaRow) error {
	header := []string{"NAMESPACE", "VERSION", "STATUS", "PREFIX", "PROFILES"}
	cells := [][]string{header}
	for _, r := range rows {
		cells = append(cells, []string{
			r.Namespace,
			strconv.Itoa(r.Version),
			r.Status,
			valueOrDash(r.Prefix),
			valueOrDash(strings.Join(r.Profiles, ",")),
		})
	}
	widths := make([]int, len(header))
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}
	var b strings.Builder
	for _, row := range cells {
		for i, c := range row {
			if i == len(row)-1 {
				b.WriteString(c)
				continue
			}
			b.WriteString(runewidth.FillRight(c, widths[i]))
			b.WriteString("  ")
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
