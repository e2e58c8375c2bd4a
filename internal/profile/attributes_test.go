package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docprofile/internal/diag"
)

func TestCheckAttributesProfiledOut(t *testing.T) {
	doc := parse(t, `<E id="1" lang="en"/>`)
	c := diag.NewCollector()

	CheckAttributes(doc.Root, AttributeSpec{Required: []string{"id"}, Base: []string{"lang"}}, c)

	assert.Empty(t, c.Diagnostics(diag.SevError))
	infos := c.Diagnostics(diag.SevInfo)
	require.Len(t, infos, 1)
	assert.Equal(t, diag.PrfAttributeProfiledOut, infos[0].Code)
}

func TestCheckAttributes(t *testing.T) {
	spec := AttributeSpec{
		Required: []string{"id", "xml:lang"},
		Optional: []string{"note"},
		Base:     []string{"legacy", "extra"},
	}
	doc := parse(t, `<E xmlns="urn:x" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:type="T" id="1" note="n" bogus="b"/>`)
	c := diag.NewCollector()

	CheckAttributes(doc.Root, spec, c)

	var codes []diag.Code
	for _, d := range c.Diagnostics(diag.SevError) {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []diag.Code{diag.PrfAttributeMissing, diag.PrfAttributeNotAllowed}, codes)
	assert.Contains(t, c.Diagnostics(diag.SevError)[0].Message, `"xml:lang"`)
	assert.Contains(t, c.Diagnostics(diag.SevError)[1].Message, `"bogus"`)
	assert.Empty(t, c.Diagnostics(diag.SevInfo), "absent base attributes are silent")
}

func TestCheckAttributesXMLNamespace(t *testing.T) {
	doc := parse(t, `<E xml:lang="en"/>`)
	c := diag.NewCollector()
	CheckAttributes(doc.Root, AttributeSpec{Required: []string{"xml:lang"}}, c)
	assert.Zero(t, c.Counts().Total)
}

func TestCheckAttributesNilElement(t *testing.T) {
	c := diag.NewCollector()
	CheckAttributes(nil, AttributeSpec{}, c)
	assert.Equal(t, 1, c.Counts().Of(diag.SevError, diag.ProcessErrorKey))

	assert.NotPanics(t, func() { CheckAttributes(nil, AttributeSpec{}, nil) })
}
