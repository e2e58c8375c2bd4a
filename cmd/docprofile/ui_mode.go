package main

import (
	"os"
	"strings"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", usageErrorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// shouldUseTUI decides whether a batch of n documents shows the progress
// view. Auto mode needs a terminal and more than one document.
func shouldUseTUI(mode uiMode, n int) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return n > 1 && isTerminal(os.Stdout)
	}
}
