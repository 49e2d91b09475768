// Package ui styles the fragments compose-all highlights in its log lines
// and asks the occasional yes/no question.
package ui

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/kballard/go-shellquote"
	"github.com/mattn/go-isatty"
)

var (
	commandStyle     = color.New(color.FgGreen)
	commandBoldStyle = color.New(color.FgGreen, color.Bold)
	pathStyle        = color.New(color.FgCyan)
	pathBoldStyle    = color.New(color.FgCyan, color.Bold)
	errorStyle       = color.New(color.FgRed, color.Bold)
	boldStyle        = color.New(color.Bold)
)

// SetColor forces styling on or off, overriding terminal detection
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

// Command renders an argv as a shell-quoted green string
func Command(argv []string) string {
	return commandStyle.Sprint(shellquote.Join(argv...))
}

// CommandBold is Command in bold, used for batch banners
func CommandBold(argv []string) string {
	return commandBoldStyle.Sprint(shellquote.Join(argv...))
}

// Path renders a quoted directory in cyan
func Path(p string) string {
	return pathStyle.Sprint(strconv.Quote(p))
}

// PathBold renders a quoted directory in bold cyan
func PathBold(p string) string {
	return pathBoldStyle.Sprint(strconv.Quote(p))
}

// Error renders s in bold red
func Error(s string) string {
	return errorStyle.Sprint(s)
}

// Bold renders v in bold
func Bold(v any) string {
	return boldStyle.Sprint(fmt.Sprint(v))
}

// IsInteractive reports whether stdin is a terminal a prompt can read from
func IsInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Confirm asks a yes/no question, defaulting to no
func Confirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	return ok, nil
}
