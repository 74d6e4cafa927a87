package utils

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var levelStyles = map[string]lipgloss.Style{
	"INFO": lipgloss.NewStyle().
		Padding(0, 1, 0, 1).
		Bold(true).
		MaxWidth(80).
		Background(lipgloss.Color("87")).
		Foreground(lipgloss.Color("16")),
	"WARN": lipgloss.NewStyle().
		Padding(0, 1, 0, 1).
		Bold(true).
		MaxWidth(80).
		Background(lipgloss.Color("192")).
		Foreground(lipgloss.Color("0")),
	"ERRO": lipgloss.NewStyle().
		Padding(0, 1, 0, 1).
		Bold(true).
		MaxWidth(80).
		Background(lipgloss.Color("204")).
		Foreground(lipgloss.Color("0")),
	"DEBU": lipgloss.NewStyle().
		Padding(0, 1, 0, 1).
		Bold(true).
		MaxWidth(80).
		Background(lipgloss.Color("63")).
		Foreground(lipgloss.Color("0")),
}

// ColorizeLogs styles the level tag of each log line for the dashboard's
// log viewport.
func ColorizeLogs(logs []string) []string {
	for i, line := range logs {
		// Only style if not already styled (check for ANSI codes)
		if strings.Contains(line, "\x1b[") {
			continue
		}
		for level, style := range levelStyles {
			if strings.Contains(line, level) {
				logs[i] = strings.Replace(line, level, style.Render(level), 1)
				break
			}
		}
	}
	return logs
}
