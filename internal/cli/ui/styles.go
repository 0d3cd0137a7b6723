package ui

import (
	"fmt"

	"roam/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Bold(true).
			Padding(0, 1).
			Align(lipgloss.Center)

	subHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	descStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))

	footerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Align(lipgloss.Center)
)

func statusIcon(status domain.ServerStatus) string {
	switch status {
	case domain.StatusRunning:
		return "🟢"
	case domain.StatusStarting:
		return "🟡"
	case domain.StatusStopping:
		return "🟠"
	default:
		return "🔴"
	}
}

func statusColor(status domain.ServerStatus) lipgloss.Color {
	switch status {
	case domain.StatusRunning:
		return lipgloss.Color("42")
	case domain.StatusStarting, domain.StatusStopping:
		return lipgloss.Color("220")
	default:
		return lipgloss.Color("160")
	}
}

func helpLine(pairs ...[2]string) string {
	out := ""
	for i, p := range pairs {
		out += keyStyle.Render(p[0]) + descStyle.Render(": "+p[1])
		if i < len(pairs)-1 {
			out += lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(" • ")
		}
	}
	return out
}

func formatBytesShort(bytes uint64) string {
	if bytes == 0 {
		return "0B"
	}
	const k = 1024
	sizes := []string{"B", "K", "M", "G", "T"}
	i := 0
	fBytes := float64(bytes)
	for fBytes >= k && i < len(sizes)-1 {
		fBytes /= k
		i++
	}
	return fmt.Sprintf("%.1f%s", fBytes, sizes[i])
}
