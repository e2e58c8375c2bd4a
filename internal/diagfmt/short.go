package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"docprofile/internal/diag"
)

// Short writes one line per diagnostic fragment, prefixed by the document
// path. The order within a document is the golden order, so the output is
// stable across runs.
func Short(w io.Writer, docs []Document) error {
	var b strings.Builder
	for _, d := range docs {
		if d.Err != nil {
			fmt.Fprintf(&b, "%s: %s read 0 %s\n", d.Path, diag.SevFatal.Label(), d.Err)
			continue
		}
		golden := diag.FormatGolden(d.Report)
		if golden == "" {
			continue
		}
		for line := range strings.SplitSeq(golden, "\n") {
			fmt.Fprintf(&b, "%s: %s\n", d.Path, line)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
