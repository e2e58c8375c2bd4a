package version

import (
	"strings"
	"testing"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestColored_Plain(t *testing.T) {
	tests := []string{"0.1.0-dev", "1.2.3", "2.0", "nightly"}
	for _, v := range tests {
		if got := Colored(v, false); got != v {
			t.Errorf("Colored(%q, false) = %q", v, got)
		}
	}
}

func TestColored_Enabled(t *testing.T) {
	got := Colored("1.2.3-rc1", true)
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected escapes in %q", got)
	}
	if !strings.HasSuffix(got, "-rc1") {
		t.Errorf("suffix lost: %q", got)
	}
	if Colored("1.2.3", true) == Colored("1.2.3", false) {
		t.Error("enabled and disabled renderings are identical")
	}
}
