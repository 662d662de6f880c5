// Package cli provides shared formatting helpers for the replsync CLI.
package cli

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// colorEnabled is false when NO_COLOR is set (per no-color.org) or stdout is
// not a terminal.
var colorEnabled = os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))

// SetColor overrides terminal detection.
func SetColor(enabled bool) {
	colorEnabled = enabled
}

func wrap(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + "\033[0m"
}

// Green wraps s in ANSI green.
func Green(s string) string { return wrap("\033[32m", s) }

// Yellow wraps s in ANSI yellow.
func Yellow(s string) string { return wrap("\033[33m", s) }

// Red wraps s in ANSI red.
func Red(s string) string { return wrap("\033[31m", s) }

// Bold wraps s in ANSI bold.
func Bold(s string) string { return wrap("\033[1m", s) }

// Dim wraps s in ANSI dim.
func Dim(s string) string { return wrap("\033[2m", s) }

// DotPad pads name with dots to the given width.
// Example: DotPad("group 10", 20) → "group 10 ..........."
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	return name + " " + strings.Repeat(".", width-len(name)-1)
}

// Status renders a pass/fail word.
func Status(ok bool) string {
	if ok {
		return Green("OK")
	}
	return Red("FAIL")
}
