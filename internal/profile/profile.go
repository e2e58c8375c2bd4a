package profile

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"docprofile/internal/diag"
	"docprofile/internal/xmltree"
)

// File is the YAML form of a profile.
type File struct {
	Name  string     `yaml:"name"`
	Rules []RuleFile `yaml:"rules"`
}

// RuleFile is the YAML form of one element rule.
type RuleFile struct {
	Element              string      `yaml:"element"`
	Children             []ChildFile `yaml:"children,omitempty"`
	BaseChildren         []string    `yaml:"base_children,omitempty"`
	AllowForeign         bool        `yaml:"allow_foreign,omitempty"`
	Attributes           *AttrFile   `yaml:"attributes,omitempty"`
	Deprecated           bool        `yaml:"deprecated,omitempty"`
	DeprecatedAttributes []string    `yaml:"deprecated_attributes,omitempty"`
}

// ChildFile is the YAML form of a ChildSpec. Missing bounds default to 1.
type ChildFile struct {
	Name string  `yaml:"name"`
	Min  *int    `yaml:"min,omitempty"`
	Max  *Occurs `yaml:"max,omitempty"`
}

// AttrFile is the YAML form of an AttributeSpec.
type AttrFile struct {
	Required []string `yaml:"required,omitempty"`
	Optional []string `yaml:"optional,omitempty"`
	Base     []string `yaml:"base,omitempty"`
}

// Rule is the compiled check for every element with a given local name.
// Children are only checked when HasChildSpec is set; an empty list then
// means no children are permitted unless AllowForeign is set.
type Rule struct {
	Element              string
	HasChildSpec         bool
	Children             []ChildSpec
	BaseChildren         []string
	AllowForeign         bool
	Attributes           *AttributeSpec
	Deprecated           bool
	DeprecatedAttributes []string
}

// Profile is a set of element rules keyed by local name.
type Profile struct {
	name  string
	rules map[string]*Rule
	order []string
}

var (
	// ErrEmptyElement is returned for a rule without an element name.
	ErrEmptyElement = errors.New("rule without element name")
	// ErrDuplicateRule is returned when two rules name the same element.
	ErrDuplicateRule = errors.New("duplicate rule")
	// ErrBadBounds is returned when min exceeds max or is negative.
	ErrBadBounds = errors.New("invalid occurrence bounds")
)

// LoadFile loads and compiles a YAML profile from path.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.name == "" {
		p.name = path
	}
	return p, nil
}

// Parse compiles YAML profile data.
func Parse(data []byte) (*Profile, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse profile YAML: %w", err)
	}
	return Compile(f)
}

// Compile turns the decoded form into a Profile.
func Compile(f File) (*Profile, error) {
	p := &Profile{name: f.Name, rules: make(map[string]*Rule, len(f.Rules))}
	for i, rf := range f.Rules {
		element := localPart(rf.Element)
		if element == "" {
			return nil, fmt.Errorf("rule %d: %w", i, ErrEmptyElement)
		}
		if _, dup := p.rules[element]; dup {
			return nil, fmt.Errorf("rule %d: %w for <%s>", i, ErrDuplicateRule, element)
		}
		rule := &Rule{
			Element:              element,
			HasChildSpec:         rf.Children != nil || len(rf.BaseChildren) > 0,
			BaseChildren:         rf.BaseChildren,
			AllowForeign:         rf.AllowForeign,
			Deprecated:           rf.Deprecated,
			DeprecatedAttributes: rf.DeprecatedAttributes,
		}
		for _, cf := range rf.Children {
			spec, err := cf.spec()
			if err != nil {
				return nil, fmt.Errorf("rule <%s>: %w", element, err)
			}
			rule.Children = append(rule.Children, spec)
		}
		if rf.Attributes != nil {
			rule.Attributes = &AttributeSpec{
				Required: rf.Attributes.Required,
				Optional: rf.Attributes.Optional,
				Base:     rf.Attributes.Base,
			}
		}
		p.rules[element] = rule
		p.order = append(p.order, element)
	}
	return p, nil
}

func (cf ChildFile) spec() (ChildSpec, error) {
	if cf.Name == "" {
		return ChildSpec{}, fmt.Errorf("child without name: %w", ErrEmptyElement)
	}
	spec := Required(cf.Name)
	if cf.Min != nil {
		if *cf.Min < 0 {
			return ChildSpec{}, fmt.Errorf("child <%s> min %d: %w", cf.Name, *cf.Min, ErrBadBounds)
		}
		spec.Min = Times(*cf.Min)
	}
	if cf.Max != nil {
		spec.Max = *cf.Max
	}
	if upper := spec.Max.Count(); upper >= 0 && spec.Min.Count() > upper {
		return ChildSpec{}, fmt.Errorf("child <%s> min %d max %s: %w", cf.Name, spec.Min.Count(), spec.Max, ErrBadBounds)
	}
	return spec, nil
}

// Name returns the profile name.
func (p *Profile) Name() string {
	if p == nil || p.name == "" {
		return "profile"
	}
	return p.name
}

// Rule returns the rule for a local element name.
func (p *Profile) Rule(element string) (*Rule, bool) {
	if p == nil {
		return nil, false
	}
	r, ok := p.rules[localPart(element)]
	return r, ok
}

// Elements lists the element names with a rule, in declaration order.
func (p *Profile) Elements() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.order)
}

const (
	descDeprecatedElement   = "This element is deprecated by the profile and may be removed in a later revision."
	descDeprecatedAttribute = "This attribute is deprecated by the profile and may be removed in a later revision."
)

// Check applies the profile to every element of doc that has a rule. It
// returns false if any rule reported a violation.
func (p *Profile) Check(doc *xmltree.Document, r diag.Reporter) bool {
	if doc == nil || doc.Root == nil {
		diag.NewReportBuilder(r, diag.SevInternal, diag.EngNilElement, "profile check called without a document").Emit()
		return false
	}
	ok := true
	xmltree.Walk(doc.Root, func(e *xmltree.Element) bool {
		rule, found := p.Rule(e.LocalName())
		if !found {
			return true
		}
		if !rule.Apply(e, r) {
			ok = false
		}
		return true
	})
	return ok
}

// Apply checks one element against the rule.
func (rule *Rule) Apply(e *xmltree.Element, r diag.Reporter) bool {
	ok := true
	name := e.LocalName()
	if rule.Deprecated {
		diag.ReportWarning(r, diag.PrfDeprecatedElement,
			fmt.Sprintf("element <%s> is deprecated", name)).
			At(name, e.Line).
			Explain(descDeprecatedElement, "").
			Emit()
	}
	if rule.HasChildSpec {
		if !CheckChildren(e, rule.Children, rule.BaseChildren, rule.AllowForeign, r) {
			ok = false
		}
	}
	if rule.Attributes != nil {
		errs := countingReporter{next: r}
		CheckAttributes(e, *rule.Attributes, &errs)
		if errs.errors > 0 {
			ok = false
		}
	}
	for _, attr := range rule.DeprecatedAttributes {
		if _, present := e.Attr(attr); !present {
			continue
		}
		diag.ReportWarning(r, diag.PrfDeprecatedAttribute,
			fmt.Sprintf("attribute %q on <%s> is deprecated", attr, name)).
			At(name, e.Line).
			Explain(descDeprecatedAttribute, "").
			Emit()
	}
	return ok
}

type countingReporter struct {
	next   diag.Reporter
	errors int
}

func (c *countingReporter) Record(d diag.Diagnostic) {
	if d.Severity.Tier() >= diag.SevError {
		c.errors++
	}
	if c.next != nil {
		c.next.Record(d)
	}
}
