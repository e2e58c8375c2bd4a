package schemareg

import (
	"fmt"
	"strings"
)

// Lifecycle is a set of independent status bits of a schema version.
type Lifecycle uint8

const (
	Draft Lifecycle = 1 << iota
	Old
	LegacyStandard
	Current
)

var lifecycleNames = []struct {
	bit  Lifecycle
	name string
}{
	{Draft, "draft"},
	{Old, "old"},
	{LegacyStandard, "legacy"},
	{Current, "current"},
}

// Has reports whether every bit of flag is set.
func (l Lifecycle) Has(flag Lifecycle) bool { return l&flag == flag }

func (l Lifecycle) String() string {
	if l == 0 {
		return "none"
	}
	var parts []string
	for _, ln := range lifecycleNames {
		if l.Has(ln.bit) {
			parts = append(parts, ln.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseLifecycle combines status names such as "old" and "legacy".
func ParseLifecycle(names []string) (Lifecycle, error) {
	var l Lifecycle
	for _, n := range names {
		bit, ok := lookupLifecycle(strings.ToLower(strings.TrimSpace(n)))
		if !ok {
			return 0, fmt.Errorf("unknown schema status %q", n)
		}
		l |= bit
	}
	return l, nil
}

func lookupLifecycle(name string) (Lifecycle, bool) {
	for _, ln := range lifecycleNames {
		if ln.name == name {
			return ln.bit, true
		}
	}
	return 0, false
}
