// =============================================================================
// lineeditor.go - Line input with history
// =============================================================================
//
// Uses readline on a terminal and a plain scanner for pipes and Emacs
// comint buffers, so scripted input works without a tty.
//
// =============================================================================

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

// historyFileName is the default history file, relative to the home
// directory.
const historyFileName = ".dict_history"

// LineEditor reads REPL input. On a terminal it uses readline for line
// editing and persistent history; otherwise (pipes, Emacs comint) it
// reads plain lines from stdin.
type LineEditor struct {
	interactive bool

	rl *readline.Instance

	scanner *bufio.Scanner
	out     io.Writer
}

// NewLineEditor creates a line editor. An empty historyPath selects
// ~/.dict_history; historyLimit caps the saved entries.
func NewLineEditor(historyPath string, historyLimit int) *LineEditor {
	isInteractive := term.IsTerminal(int(os.Stdin.Fd())) &&
		os.Getenv("INSIDE_EMACS") == ""

	if !isInteractive {
		return newScannerEditor(os.Stdin, os.Stdout)
	}

	if historyPath == "" {
		historyPath = filepath.Join(homeDir(), historyFileName)
	}
	if historyLimit <= 0 {
		historyLimit = historySize
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyPath,
		HistoryLimit:           historyLimit,
		DisableAutoSaveHistory: true,
		AutoComplete:           commandCompleter(),
		Prompt:                 "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: readline init failed (%v), using basic input\n", err)
		return newScannerEditor(os.Stdin, os.Stdout)
	}

	return &LineEditor{
		interactive: true,
		rl:          rl,
	}
}

// commandCompleter completes REPL keywords and dot commands on Tab.
func commandCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("define"),
		readline.PcItem("match"),
		readline.PcItem(".db"),
		readline.PcItem(".strat"),
		readline.PcItem(".info"),
		readline.PcItem(".use"),
		readline.PcItem(".strategy"),
		readline.PcItem(".status"),
		readline.PcItem(".stats"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
	)
}

// newScannerEditor returns a non-interactive editor reading from in and
// echoing prompts to out.
func newScannerEditor(in io.Reader, out io.Writer) *LineEditor {
	return &LineEditor{
		interactive: false,
		scanner:     bufio.NewScanner(in),
		out:         out,
	}
}

// GetLine displays prompt and reads one line. It returns io.EOF on end of
// input or Ctrl-C.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		return le.getInteractiveLine(prompt)
	}
	return le.getNonInteractiveLine(prompt)
}

func (le *LineEditor) getInteractiveLine(prompt string) (string, error) {
	le.rl.SetPrompt(prompt)

	line, err := le.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) {
			return "", io.EOF
		}
		return "", err
	}

	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (le *LineEditor) getNonInteractiveLine(prompt string) (string, error) {
	if le.out != nil {
		fmt.Fprint(le.out, prompt)
	}

	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return le.scanner.Text(), nil
}

// Close releases the terminal.
func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}

// IsInteractive reports whether readline is in use.
func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
