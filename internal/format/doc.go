// Package format produces the canonical layout of an XML document: one
// element per line, fixed indentation, text-only elements kept on their
// start line. Parsing the canonical form yields the same element lines on
// every run, whatever the original whitespace was.
package format
