package ui

import (
	"fmt"
	"sync"
)

// Color functions for terminal output
var (
	Cyan   = colorize("\033[36m%s\033[0m")
	Yellow = colorize("\033[33m%s\033[0m")
	Red    = colorize("\033[31m%s\033[0m")
	Green  = colorize("\033[32m%s\033[0m")
	Dim    = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

var (
	quietMu   sync.Mutex
	quietMode bool
)

// SetQuietMode suppresses everything except errors
func SetQuietMode(quiet bool) {
	quietMu.Lock()
	quietMode = quiet
	quietMu.Unlock()
}

// IsQuietMode reports whether quiet mode is active
func IsQuietMode() bool {
	quietMu.Lock()
	defer quietMu.Unlock()
	return quietMode
}

// PrintError prints an error message in red. Errors ignore quiet mode.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Red(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Println(Green(msg))
}

// PrintInfo prints a labeled info line
func PrintInfo(label string, value string) {
	if IsQuietMode() {
		return
	}
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	if len(args) > 0 {
		fmt.Println(Yellow(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Yellow(msg))
	}
}
