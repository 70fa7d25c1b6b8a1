// Package ui provides terminal output for the statement-extractor CLI.
// Everything goes to stderr so stdout stays clean for the JSON result.
package ui

import (
	"io"
	"os"

	"github.com/fatih/color"
)

var out io.Writer = os.Stderr

// InitUI initializes the UI color settings.
func InitUI(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// SetOutput redirects UI output. Used by tests.
func SetOutput(w io.Writer) {
	out = w
}
