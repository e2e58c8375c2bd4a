package format

import (
	"errors"
	"testing"
)

func TestCanonicalLayout(t *testing.T) {
	input := `<?xml version="1.0" encoding="ISO-8859-1"?>
<p:Root xmlns:p="urn:x"   id="1"><p:A>  hello  </p:A>
      <p:B/><p:C>


</p:C><!-- note --><p:D><E>x</E></p:D></p:Root>`

	want := `<?xml version="1.0" encoding="UTF-8"?>
<p:Root xmlns:p="urn:x" id="1">
  <p:A>  hello  </p:A>
  <p:B/>
  <p:C/>
  <!-- note -->
  <p:D>
    <E>x</E>
  </p:D>
</p:Root>
`
	got, err := Canonical([]byte(input), Options{})
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if string(got) != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestCanonicalIsIdempotent(t *testing.T) {
	input := "<a>\n\t<b  x='1'>t&amp;u</b>\n<c>one\ntwo</c>\n</a>"
	first, err := Canonical([]byte(input), Options{})
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := Canonical(first, Options{})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("not idempotent:\n%s\n---\n%s", first, second)
	}
}

func TestCanonicalIgnoresOriginalWhitespace(t *testing.T) {
	a := "<a><b/><c>v</c></a>"
	b := "<a>\n\n    <b>\n    </b>\n\n  <c>v</c>\n\n</a>\n"
	outA, err := Canonical([]byte(a), Options{})
	if err != nil {
		t.Fatal(err)
	}
	outB, err := Canonical([]byte(b), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if string(outA) != string(outB) {
		t.Fatalf("layouts differ:\n%s\n---\n%s", outA, outB)
	}
}

func TestCanonicalMixedContent(t *testing.T) {
	got, err := Canonical([]byte("<a>hello<b/>world</a>"), Options{IndentWidth: 1})
	if err != nil {
		t.Fatal(err)
	}
	want := Declaration + "\n<a>\n hello\n <b/>\n world\n</a>\n"
	if string(got) != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestCanonicalOptions(t *testing.T) {
	got, err := Canonical([]byte("<a><!--c--><b/></a>"), Options{UseTabs: true, DropComments: true})
	if err != nil {
		t.Fatal(err)
	}
	want := Declaration + "\n<a>\n\t<b/>\n</a>\n"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCanonicalRejectsMalformed(t *testing.T) {
	cases := []string{
		"<a><b></a>",
		"<a>",
		"<a/><b/>",
		"",
	}
	for _, input := range cases {
		if _, err := Canonical([]byte(input), Options{}); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Canonical(%q) error = %v, want ErrMalformed", input, err)
		}
	}
}
