// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the circuit CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, borders

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
	Header    lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	Header: lipgloss.NewStyle().Bold(true).Foreground(ColorTealPrimary).Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// Mode selects rich or plain output.
type Mode string

const (
	// ModeRich uses colors, icons and bordered tables.
	ModeRich Mode = "rich"

	// ModeMachine prints plain "key: value" lines for scripts.
	ModeMachine Mode = "machine"
)

// ParseMode converts a string to a Mode. Unknown values and "auto" return
// the empty Mode, which lets NewPrinter decide from the terminal.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rich", "full", "standard":
		return ModeRich
	case "machine", "plain":
		return ModeMachine
	default:
		return ""
	}
}

// Printer writes CLI output in one mode.
type Printer struct {
	out  io.Writer
	mode Mode
}

// NewPrinter returns a printer for w. An empty mode picks ModeRich when w
// is a terminal and ModeMachine otherwise.
func NewPrinter(w io.Writer, mode Mode) *Printer {
	if w == nil {
		w = os.Stdout
	}
	if mode == "" {
		mode = ModeMachine
		if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			mode = ModeRich
		}
	}
	return &Printer{out: w, mode: mode}
}

// Mode returns the printer's mode.
func (p *Printer) Mode() Mode {
	return p.mode
}

// Title prints a styled title. Machine mode prints nothing.
func (p *Printer) Title(text string) {
	if p.mode == ModeMachine {
		return
	}
	fmt.Fprintln(p.out, Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func (p *Printer) Success(text string) {
	if p.mode == ModeMachine {
		fmt.Fprintf(p.out, "OK: %s\n", text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
}

// Warning prints a warning message
func (p *Printer) Warning(text string) {
	if p.mode == ModeMachine {
		fmt.Fprintf(p.out, "WARN: %s\n", text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}

// Error prints an error message
func (p *Printer) Error(text string) {
	if p.mode == ModeMachine {
		fmt.Fprintf(p.out, "ERROR: %s\n", text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
}

// Box prints text in a rounded box
func (p *Printer) Box(title, content string) {
	if p.mode == ModeMachine {
		fmt.Fprintf(p.out, "%s: %s\n", title, content)
		return
	}
	fmt.Fprintln(p.out, Styles.Box.Render(Styles.Title.Render(title)+"\n"+content))
}

// SignalRow is one line of a signal table.
type SignalRow struct {
	Wire  string
	Value uint16
	Err   error
}

// Signals prints wire signals in the given order.
//
// Machine mode prints "wire: value" per line, with "wire: error: ..." for
// wires that failed. Rich mode renders a bordered table.
func (p *Printer) Signals(rows []SignalRow) {
	if p.mode == ModeMachine {
		for _, r := range rows {
			if r.Err != nil {
				fmt.Fprintf(p.out, "%s: error: %v\n", r.Wire, r.Err)
				continue
			}
			fmt.Fprintf(p.out, "%s: %d\n", r.Wire, r.Value)
		}
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorTealDeep)).
		Headers("WIRE", "SIGNAL", "HEX").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Styles.Header
			}
			s := lipgloss.NewStyle().Padding(0, 1)
			if col > 0 {
				s = s.Align(lipgloss.Right)
			}
			if row >= 0 && row < len(rows) && rows[row].Err != nil {
				s = s.Foreground(ColorError)
			}
			return s
		})

	failed := 0
	for _, r := range rows {
		if r.Err != nil {
			failed++
			t.Row(r.Wire, "-", r.Err.Error())
			continue
		}
		t.Row(r.Wire, strconv.Itoa(int(r.Value)), fmt.Sprintf("0x%04x", r.Value))
	}
	fmt.Fprintln(p.out, t.Render())

	summary := fmt.Sprintf("%s %s", Styles.Bold.Render(strconv.Itoa(len(rows))), Styles.Muted.Render("wires"))
	if failed > 0 {
		summary += fmt.Sprintf("  %s %s", Styles.Error.Render(strconv.Itoa(failed)), Styles.Muted.Render("failed"))
	}
	fmt.Fprintln(p.out, summary)
}

// Part prints one puzzle answer, e.g. "part 1: a = 46065".
func (p *Printer) Part(n int, wire string, value uint16) {
	if p.mode == ModeMachine {
		fmt.Fprintf(p.out, "part %d: %s = %d\n", n, wire, value)
		return
	}
	fmt.Fprintf(p.out, "%s %s %s %s\n",
		Styles.Subtitle.Render(fmt.Sprintf("part %d", n)),
		Styles.Bold.Render(wire),
		IconArrow.Render(),
		Styles.Highlight.Render(strconv.Itoa(int(value))),
	)
}
