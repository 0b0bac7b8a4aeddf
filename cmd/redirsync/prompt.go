package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"redirsync/pkg/transfer"
	"redirsync/pkg/ui"
)

// confirmResume asks whether to continue from a saved checkpoint.
// Non-interactive runs (piped stdin, --yes) resume without asking, so
// scripted restarts behave like a fresh resumed run.
func confirmResume(saved transfer.Resume) bool {
	if assumeYes {
		return true
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return true
	}

	detail := fmt.Sprintf("%d processed", saved.Counter)
	if saved.Cursor != "" {
		detail += ", cursor saved"
	}
	fmt.Printf("%s Previous run found (%s). Resume? [Y/n] ", ui.Yellow("►"), detail)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true
	default:
		ui.PrintInfo("resume declined", "starting fresh")
		return false
	}
}
