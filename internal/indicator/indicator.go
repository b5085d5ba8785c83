// Package indicator renders daemon state for the terminal. It is the
// visual feedback channel: gate state as a colored badge, the active
// layer, and feature toggles, styled consistently across the one-shot
// status command and the live watch view.
package indicator

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Shared palette.
var (
	ColorLocked    = lipgloss.Color("#ff0000")
	ColorCapturing = lipgloss.Color("#ffaa00")
	ColorUnlocked  = lipgloss.Color("#00ff00")
	ColorAccent    = lipgloss.Color("#00ffff")
	ColorMuted     = lipgloss.Color("#666666")
	ColorBorder    = lipgloss.Color("#3d5a80")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorMuted).Width(14)
	badgeStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// State is a snapshot of what the daemon is doing.
type State struct {
	Gate         string // "locked", "capturing", "unlocked"
	Layer        string
	Desktop      int
	SentenceCase bool
	Device       string
	LayoutHash   string
	Uptime       time.Duration
}

// GateBadge renders the gate state as a colored badge.
func GateBadge(gate string) string {
	var c lipgloss.Color
	switch gate {
	case "unlocked":
		c = ColorUnlocked
	case "capturing":
		c = ColorCapturing
	default:
		c = ColorLocked
	}
	return badgeStyle.Background(c).Foreground(lipgloss.Color("#000000")).Render(strings.ToUpper(gate))
}

// Render draws a full status frame.
func Render(s State) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("keygate"))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("gate", GateBadge(s.Gate))
	row("layer", s.Layer)
	row("desktop", fmt.Sprintf("%d", s.Desktop))
	row("sentence case", onOff(s.SentenceCase))
	if s.Device != "" {
		row("device", s.Device)
	}
	if s.LayoutHash != "" {
		row("layout", shortHash(s.LayoutHash))
	}
	if s.Uptime > 0 {
		row("uptime", s.Uptime.Truncate(time.Second).String())
	}

	return frameStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func onOff(v bool) string {
	if v {
		return lipgloss.NewStyle().Foreground(ColorUnlocked).Render("on")
	}
	return lipgloss.NewStyle().Foreground(ColorMuted).Render("off")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
