package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dgnsrekt/speakeasy/internal/tts"
)

var (
	keyword = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575")).
		Render

	paragraph = lipgloss.NewStyle().
			Width(78).
			Padding(0, 0, 0, 2).
			Render

	faint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render

	stateStyles = map[tts.PlaybackState]lipgloss.Style{
		tts.StateIdle:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		tts.StateLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("#F1C40F")),
		tts.StatePlaying: lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
		tts.StateError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true),
	}

	stateGlyphs = map[tts.PlaybackState]string{
		tts.StateIdle:    "■",
		tts.StateLoading: "…",
		tts.StatePlaying: "▶",
		tts.StateError:   "✗",
	}
)

func stateBadge(s tts.PlaybackState) string {
	return stateStyles[s].Render(stateGlyphs[s] + " " + s.String())
}
