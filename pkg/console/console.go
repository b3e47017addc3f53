// Package console formats the structured stderr echo lines the engine
// emits for every subprocess it runs, and the tri-state --color
// resolution used across all subcommands. Stdout is never touched by
// this package: it is reserved for driver-consumed values.
package console

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ColorMode mirrors the --color {always|auto|never} global option.
type ColorMode string

const (
	ColorAlways ColorMode = "always"
	ColorAuto   ColorMode = "auto"
	ColorNever  ColorMode = "never"
)

// ResolveColor decides whether ANSI styling should be applied to stderr,
// given the --color flag value and whether stderr is a terminal.
func ResolveColor(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return term.IsTerminal(int(os.Stderr.Fd()))
	}
}

var (
	colorCommand = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8E44AD", Dark: "#BD93F9"})
	colorError   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D73737", Dark: "#FF5555"}).Bold(true)
	colorWarning = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#E67E22", Dark: "#FFB86C"})
	colorInfo    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2980B9", Dark: "#8BE9FD"})
)

// Printer writes formatted diagnostic lines to stderr, honoring a
// resolved color decision made once at startup from --color.
type Printer struct {
	Color bool
}

func NewPrinter(mode ColorMode) *Printer {
	return &Printer{Color: ResolveColor(mode)}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.Color {
		return text
	}
	return s.Render(text)
}

// Command echoes a subprocess invocation, e.g. the argv of a step's sh
// command or a git plumbing call, with credential values already
// substituted by their variable name by the caller.
func (p *Printer) Command(argv []string) {
	os.Stderr.WriteString(p.style(colorCommand, "+ "+strings.Join(argv, " ")) + "\n")
}

func (p *Printer) Error(message string) {
	os.Stderr.WriteString(p.style(colorError, "error: "+message) + "\n")
}

func (p *Printer) Warning(message string) {
	os.Stderr.WriteString(p.style(colorWarning, "warning: "+message) + "\n")
}

func (p *Printer) Info(message string) {
	os.Stderr.WriteString(p.style(colorInfo, message) + "\n")
}

// Obfuscate replaces every occurrence of each secret value with
// "${name}" so that echoed commands never leak credential material.
func Obfuscate(text string, secrets map[string]string) string {
	for name, value := range secrets {
		if value == "" {
			continue
		}
		text = strings.ReplaceAll(text, value, "${"+name+"}")
	}
	return text
}
