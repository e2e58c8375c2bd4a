package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB cap for corpus seeds
	maxFuzzInput = 1 << 16
)

var inlineSeeds = []string{
	`<a/>`,
	`<a><b>text</b><c x="1" y='2'/></a>`,
	`<?xml version="1.0" encoding="UTF-8"?><p:root xmlns:p="urn:p"><p:x>1</p:x></p:root>`,
	"<a>\r\n  <b>\r\n</b></a>",
	"\uFEFF<a>bom</a>",
	`<a>mixed <b/> content &amp; entities &#xA9;</a>`,
	`<a><!-- comment --><?pi data?><![CDATA[<raw>]]></a>`,
	`<a xml:lang="en" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:type="t"/>`,
	`<a attr="line&#xA;break">	tab	</a>`,
	`<a><b></a>`,
	`<a/><b/>`,
	`text<a/>`,
	``,
}

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}

// truncateForLog truncates input for logging purposes
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
