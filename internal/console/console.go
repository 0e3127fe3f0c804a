// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package console renders leveled progress output and fatal-error notices
// for the agent. Concurrent institution searches write through section
// handles so interleaved lines stay attributable.
// Implements: prd007-presentation (R1-R3);
//
//	docs/ARCHITECTURE § Presentation.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	fatalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

// FatalNotice is a user-actionable error surfaced distinctly from ordinary
// log lines. Code identifies the matched condition (e.g. "insufficient_quota")
// and HelpURL, when set, points at the provider page that fixes it.
type FatalNotice struct {
	Message string
	Code    string
	HelpURL string
}

// Console writes leveled lines to an output stream. The zero value is not
// usable; construct with New. Safe for concurrent use.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	quiet bool

	fatals []FatalNotice
}

// New returns a Console writing to out. A nil out defaults to stderr.
func New(out io.Writer) *Console {
	if out == nil {
		out = os.Stderr
	}
	return &Console{out: out}
}

// SetQuiet suppresses info and dim lines. Warnings, errors, and fatal
// notices are always written.
func (c *Console) SetQuiet(quiet bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quiet = quiet
}

func (c *Console) line(style lipgloss.Style, section, msg string, suppressible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quiet && suppressible {
		return
	}
	if section != "" {
		msg = sectionStyle.Render("["+section+"]") + " " + msg
	}
	fmt.Fprintln(c.out, style.Render(msg))
}

// Info writes an informational line.
func (c *Console) Info(format string, args ...any) {
	c.line(infoStyle, "", fmt.Sprintf(format, args...), true)
}

// Success writes a success line.
func (c *Console) Success(format string, args ...any) {
	c.line(successStyle, "", fmt.Sprintf(format, args...), true)
}

// Warning writes a warning line.
func (c *Console) Warning(format string, args ...any) {
	c.line(warningStyle, "", fmt.Sprintf(format, args...), false)
}

// Error writes an error line.
func (c *Console) Error(format string, args ...any) {
	c.line(errorStyle, "", fmt.Sprintf(format, args...), false)
}

// Dim writes a de-emphasized line, used for per-turn progress noise.
func (c *Console) Dim(format string, args ...any) {
	c.line(dimStyle, "", fmt.Sprintf(format, args...), true)
}

// FatalError surfaces a user-actionable failure as a distinct banner and
// records it. Fatal notices must never be confusable with a search that
// completed with zero results (R3.1).
func (c *Console) FatalError(message, code, helpURL string) {
	c.mu.Lock()
	c.fatals = append(c.fatals, FatalNotice{Message: message, Code: code, HelpURL: helpURL})
	banner := []string{
		fatalStyle.Render("FATAL: " + message),
	}
	if code != "" {
		banner = append(banner, dimStyle.Render("  code: "+code))
	}
	if helpURL != "" {
		banner = append(banner, dimStyle.Render("  see:  "+helpURL))
	}
	fmt.Fprintln(c.out, strings.Join(banner, "\n"))
	c.mu.Unlock()
}

// Fatals returns the fatal notices recorded so far.
func (c *Console) Fatals() []FatalNotice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FatalNotice, len(c.fatals))
	copy(out, c.fatals)
	return out
}

// Section is a Console view whose lines carry a fixed grouping prefix.
// Each concurrent institution task gets its own Section so log attribution
// is explicit rather than ambient.
type Section struct {
	c    *Console
	name string
}

// WithSection returns a Section tagged with name.
func (c *Console) WithSection(name string) *Section {
	return &Section{c: c, name: name}
}

// Name returns the section's grouping key.
func (s *Section) Name() string { return s.name }

// Info writes an informational line under the section prefix.
func (s *Section) Info(format string, args ...any) {
	s.c.line(infoStyle, s.name, fmt.Sprintf(format, args...), true)
}

// Success writes a success line under the section prefix.
func (s *Section) Success(format string, args ...any) {
	s.c.line(successStyle, s.name, fmt.Sprintf(format, args...), true)
}

// Warning writes a warning line under the section prefix.
func (s *Section) Warning(format string, args ...any) {
	s.c.line(warningStyle, s.name, fmt.Sprintf(format, args...), false)
}

// Error writes an error line under the section prefix.
func (s *Section) Error(format string, args ...any) {
	s.c.line(errorStyle, s.name, fmt.Sprintf(format, args...), false)
}

// Dim writes a de-emphasized line under the section prefix.
func (s *Section) Dim(format string, args ...any) {
	s.c.line(dimStyle, s.name, fmt.Sprintf(format, args...), true)
}

// FatalError surfaces a fatal notice through the parent console.
func (s *Section) FatalError(message, code, helpURL string) {
	s.c.FatalError(message, code, helpURL)
}
