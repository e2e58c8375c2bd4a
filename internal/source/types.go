package source

type (
	// Flags encodes what normalization did to the raw text.
	Flags uint8
)

const (
	// HadBOM indicates a UTF-8 byte order mark was stripped.
	HadBOM Flags = 1 << iota
	// NormalizedCRLF indicates CRLF line endings were rewritten to LF.
	NormalizedCRLF
)

// LineCol represents a human-readable position in a text.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
