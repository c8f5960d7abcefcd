// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ColorMode controls when ANSI color codes are used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // color when writing to a terminal and NO_COLOR is unset
	ColorAlways                  // always use colors
	ColorNever                   // never use colors
)

var colorModeNames = map[string]ColorMode{
	"auto":   ColorAuto,
	"always": ColorAlways,
	"never":  ColorNever,
}

// ParseColorMode parses the value of a --color flag.  The empty string
// selects ColorAuto.
func ParseColorMode(s string) (ColorMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ColorAuto, nil
	}
	mode, ok := colorModeNames[s]
	if !ok {
		return ColorAuto, fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
	}
	return mode, nil
}

func (m ColorMode) String() string {
	for name, mode := range colorModeNames {
		if mode == m {
			return name
		}
	}
	return "unknown"
}

// palette holds the escape sequences the renderer writes.  The zero
// palette renders plain text.
type palette struct {
	bold     string
	yellow   string
	boldRed  string
	boldBlue string
	boldCyan string
	reset    string
}

var ansiPalette = palette{
	bold:     "\033[1m",
	yellow:   "\033[33m",
	boldRed:  "\033[1;31m",
	boldBlue: "\033[1;34m",
	boldCyan: "\033[1;36m",
	reset:    "\033[0m",
}

func choosePalette(mode ColorMode, w io.Writer) palette {
	switch mode {
	case ColorAlways:
		return ansiPalette
	case ColorNever:
		return palette{}
	}
	if os.Getenv("NO_COLOR") != "" || !isTerminal(w) {
		return palette{}
	}
	return ansiPalette
}

// isTerminal reports whether w is a file connected to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
