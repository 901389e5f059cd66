// Package ui renders user-facing output: colored status lines, progress
// bars and the end-of-run report. Logs go through pkg/logger instead.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Banner printed at startup
const Banner = `
 _  _ __ _ _ __   __| | |
| || / _` + "`" + ` | '_ \ / _` + "`" + ` | |
 \_, \__,_|_| |_|\__,_|_|
 |__/   yande.re downloader
`

var (
	mu           sync.Mutex
	out          io.Writer = os.Stdout
	errOut       io.Writer = os.Stderr
	colorEnabled           = true
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes when
// color is enabled.
func colorize(colorString string) func(string) string {
	return func(text string) string {
		mu.Lock()
		enabled := colorEnabled
		mu.Unlock()
		if !enabled {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetColor turns ANSI colors on or off
func SetColor(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	colorEnabled = enabled
}

// SetOutput redirects printed messages. Errors keep going to stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetErrorOutput redirects error messages
func SetErrorOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	errOut = w
}

func errorOutput() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return errOut
}

// Output returns the writer messages are printed to
func Output() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

func printLine(s string) {
	fmt.Fprintln(Output(), s)
}

// PrintLogo prints the banner with color
func PrintLogo() {
	fmt.Fprint(Output(), Cyan(Banner))
}

// PrintError prints an error message in red to the error output
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg += ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(errorOutput(), Red(msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	printLine(Green(msg))
}

// PrintInfo prints a labelled value
func PrintInfo(label string, value string) {
	fmt.Fprintf(Output(), "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintMessage prints an informational line in cyan
func PrintMessage(msg string) {
	printLine(Cyan(msg))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		printLine(Yellow(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		printLine(Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	printLine(Magenta(msg))
}
