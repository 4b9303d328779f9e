package report

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Scheme defines the colors used for report elements.
type Scheme struct {
	Header *color.Color
	Name   *color.Color
	Label  *color.Color
	Value  *color.Color
	Error  *color.Color
}

// DefaultScheme returns the standard color scheme.
func DefaultScheme() *Scheme {
	return &Scheme{
		Header: color.New(color.FgCyan, color.Bold),
		Name:   color.New(color.FgMagenta, color.Bold),
		Label:  color.New(color.FgYellow),
		Value:  color.New(color.FgWhite),
		Error:  color.New(color.FgRed, color.Bold),
	}
}

// NoColorScheme returns a scheme with every color disabled, for
// non-terminal writers and --no-color.
func NoColorScheme() *Scheme {
	scheme := DefaultScheme()
	scheme.Header.DisableColor()
	scheme.Name.DisableColor()
	scheme.Label.DisableColor()
	scheme.Value.DisableColor()
	scheme.Error.DisableColor()
	return scheme
}

// isTerminal reports whether the writer is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
