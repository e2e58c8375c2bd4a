// Package fuzztests houses Go fuzz harnesses for the document load
// pipeline (raw bytes -> tree -> canonical text -> tree). They guard against
// panics, hangs and layout drift on arbitrary inputs.
package fuzztests
