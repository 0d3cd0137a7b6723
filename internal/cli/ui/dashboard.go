package ui

import (
	"context"
	"fmt"
	"os"
	"time"

	"roam/internal/session"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type DashboardAction int

const (
	ActionQuit DashboardAction = iota
	ActionOpenConsole
	ActionAddServer
)

type model struct {
	table   table.Model
	store   *session.Store
	changes <-chan struct{}
	snap    session.Snapshot
	width   int
	height  int
	message string
	action  DashboardAction
}

type clearMessageMsg struct{}

func newModel(store *session.Store, changes <-chan struct{}) model {
	columns := []table.Column{
		{Title: "Sts", Width: 3},
		{Title: "#", Width: 3},
		{Title: "Name", Width: 20},
		{Title: "Path", Width: 30},
		{Title: "Jar", Width: 16},
		{Title: "RAM", Width: 8},
		{Title: "Tunnel", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := model{
		table:   t,
		store:   store,
		changes: changes,
		snap:    store.Snapshot(),
	}
	m.updateTable()
	return m
}

// RunDashboard shows the configured servers. It returns what the user chose
// to do next; for ActionOpenConsole the chosen server is already selected.
func RunDashboard(store *session.Store) DashboardAction {
	changes, stop := watch(store)
	defer stop()

	program := tea.NewProgram(newModel(store, changes), tea.WithAltScreen(), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	finalModel, err := program.Run()
	if err != nil {
		fmt.Printf("Error running dashboard: %v", err)
		os.Exit(1)
	}

	if m, ok := finalModel.(model); ok {
		return m.action
	}
	return ActionQuit
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitForChange(m.changes),
		refreshStatsCmd(m.store),
		tickCmd(),
	)
}

func flash(message string) tea.Cmd {
	return func() tea.Msg { return commandDoneMsg{message: message} }
}

func selectCmd(store *session.Store, index int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.SelectServer(ctx, index); err != nil {
			return commandDoneMsg{err: err}
		}
		return consoleReadyMsg{}
	}
}

type consoleReadyMsg struct{}

func deleteCmd(store *session.Store, index int) tea.Cmd {
	return func() tea.Msg {
		if err := store.DeleteServer(index); err != nil {
			return commandDoneMsg{err: err}
		}
		return commandDoneMsg{message: "Server removed."}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.action = ActionQuit
			return m, tea.Quit
		case "a":
			m.action = ActionAddServer
			return m, tea.Quit
		case "enter":
			if idx := m.table.Cursor(); idx >= 0 && idx < len(m.snap.Servers) {
				m.message = "Selecting server..."
				return m, selectCmd(m.store, idx)
			}
		case "s":
			if m.snap.Active == nil {
				return m, flash("Select a server first (enter).")
			}
			m.message = "Sending start/stop..."
			return m, toggleCmd(m.store)
		case "d":
			if idx := m.table.Cursor(); idx >= 0 && idx < len(m.snap.Servers) {
				return m, deleteCmd(m.store, idx)
			}
		}
	case consoleReadyMsg:
		m.action = ActionOpenConsole
		return m, tea.Quit
	case commandDoneMsg:
		m.message = msg.message
		if msg.err != nil {
			m.message = msg.err.Error()
		}
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearMessageMsg{}
		})
	case clearMessageMsg:
		m.message = ""
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width - 10)
		m.table.SetHeight(msg.Height - 12)
	case storeChangedMsg:
		m.snap = m.store.Snapshot()
		m.updateTable()
		return m, waitForChange(m.changes)
	case tickMsg:
		return m, tea.Batch(refreshStatsCmd(m.store), tickCmd())
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) updateTable() {
	rows := []table.Row{}
	for i, s := range m.snap.Servers {
		status := ""
		if m.snap.Active != nil && m.snap.Active.Path == s.Path {
			status = statusIcon(m.snap.Stats.Status)
		}

		tunnel := "-"
		if s.Tunnel != nil {
			tunnel = string(s.Tunnel.Provider)
		}

		rows = append(rows, table.Row{
			status,
			fmt.Sprintf("%d", i),
			s.DisplayName(),
			s.Path,
			s.JarName,
			s.MaxRAM,
			tunnel,
		})
	}
	m.table.SetRows(rows)
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := headerStyle.Render("ROAM")
	clock := subHeaderStyle.Render(time.Now().Format("Mon Jan 2 15:04:05"))

	backend := "connected"
	if !m.snap.Live {
		backend = "offline"
	}
	active := "none"
	if m.snap.Active != nil {
		active = fmt.Sprintf("%s (%s)", m.snap.Active.DisplayName(), m.snap.Stats.Status)
	}
	hostInfo := fmt.Sprintf("Backend: %s  |  Servers: %d  |  Active: %s", backend, len(m.snap.Servers), active)

	headerBox := baseStyle.
		Width(m.width-4).
		Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center, title, clock, " ", hostInfo))

	tableContainer := baseStyle.
		Width(m.width - 4).
		Height(m.height - 12).
		Render(m.table.View())

	footerText := lipgloss.NewStyle().
		MarginLeft(2).
		Render(helpLine(
			[2]string{"↑/↓", "navigate"},
			[2]string{"enter", "console"},
			[2]string{"s", "start/stop"},
			[2]string{"a", "add"},
			[2]string{"d", "delete"},
			[2]string{"q", "quit"},
		))

	if m.message != "" {
		footerText = fmt.Sprintf("%s\n%s",
			lipgloss.NewStyle().MarginLeft(2).Render(messageStyle.Render(m.message)),
			footerText)
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		headerBox,
		tableContainer,
		footerText,
	)
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
