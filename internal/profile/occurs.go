package profile

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Occurs is an occurrence bound of a ChildSpec. The zero value is the
// default bound of one, so ChildSpec{Name: "A"} means exactly one A.
type Occurs int

const (
	// Unbounded marks a bound with no upper limit.
	Unbounded Occurs = -1
	// None is an explicit bound of zero occurrences.
	None Occurs = -2
)

// Times returns the bound for n occurrences; n <= 0 gives None.
func Times(n int) Occurs {
	if n <= 0 {
		return None
	}
	return Occurs(n)
}

// Count resolves the bound to a number of occurrences, -1 for Unbounded.
func (o Occurs) Count() int {
	switch {
	case o == 0:
		return 1
	case o == None:
		return 0
	case o < 0:
		return -1
	}
	return int(o)
}

func (o Occurs) String() string {
	if o.Count() < 0 {
		return "unbounded"
	}
	return strconv.Itoa(o.Count())
}

// UnmarshalYAML implements yaml.Unmarshaler. It accepts a non-negative
// integer or the word "unbounded".
func (o *Occurs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected integer or \"unbounded\", got %v", node.Line, node.Kind)
	}
	value := strings.TrimSpace(node.Value)
	if strings.EqualFold(value, "unbounded") {
		*o = Unbounded
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("line %d: invalid occurrence bound %q", node.Line, node.Value)
	}
	*o = Times(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (o Occurs) MarshalYAML() (any, error) {
	if o.Count() < 0 {
		return "unbounded", nil
	}
	return o.Count(), nil
}
