package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"roam/internal/domain"
	"roam/internal/session"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"
)

type logModel struct {
	store     *session.Store
	changes   <-chan struct{}
	viewport  viewport.Model
	textInput textinput.Model
	snap      session.Snapshot
	message   string
	ready     bool
	quitting  bool
	back      bool
	width     int
	height    int
}

type storeChangedMsg struct{}

type commandDoneMsg struct {
	message string
	err     error
}

func initialLogModel(store *session.Store, changes <-chan struct{}) logModel {
	ti := textinput.New()
	ti.Placeholder = "Type a command..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 40

	return logModel{
		store:     store,
		changes:   changes,
		textInput: ti,
		snap:      store.Snapshot(),
	}
}

// watch turns store notifications into a channel that holds at most one
// pending wakeup. The channel is closed once stop returns.
func watch(store *session.Store) (<-chan struct{}, func()) {
	var (
		mu     sync.Mutex
		closed bool
	)
	ch := make(chan struct{}, 1)
	unregister := store.OnChange(func() {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- struct{}{}:
		default:
		}
	})

	var once sync.Once
	stop := func() {
		once.Do(func() {
			unregister()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
	return ch, stop
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

func refreshStatsCmd(store *session.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// failures already land in the console logger
		_ = store.RefreshStats(ctx)
		return nil
	}
}

func sendCommandCmd(store *session.Store, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return commandDoneMsg{err: store.SendCommand(ctx, text)}
	}
}

func toggleCmd(store *session.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.ToggleServer(ctx); err != nil {
			return commandDoneMsg{err: err}
		}
		return commandDoneMsg{message: "Toggle command sent."}
	}
}

func (m logModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		waitForChange(m.changes),
		refreshStatsCmd(m.store),
		tickCmd(),
	)
}

func (m logModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEsc:
			m.back = true
			return m, tea.Quit
		case tea.KeyCtrlT:
			return m, toggleCmd(m.store)
		case tea.KeyEnter:
			if text := strings.TrimSpace(m.textInput.Value()); text != "" {
				m.textInput.SetValue("")
				if m.snap.Stats.Status != domain.StatusRunning {
					m.message = "Server is not running."
					return m, nil
				}
				return m, sendCommandCmd(m.store, text)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 12
		contentWidth := msg.Width - 6

		if !m.ready {
			m.viewport = viewport.New(contentWidth, msg.Height-headerHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = msg.Height - headerHeight
		}
		m.renderLogs()

	case storeChangedMsg:
		m.snap = m.store.Snapshot()
		m.renderLogs()
		return m, waitForChange(m.changes)

	case commandDoneMsg:
		m.message = msg.message
		if msg.err != nil {
			m.message = errorStyle.Render(msg.err.Error())
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(refreshStatsCmd(m.store), tickCmd())
	}

	m.textInput, tiCmd = m.textInput.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *logModel) renderLogs() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.snap.Logs, "\n"))
	m.viewport.GotoBottom()
}

func (m logModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	title := headerStyle.Width(m.width).Render("SERVER CONSOLE")

	var serverInfo string
	if active := m.snap.Active; active != nil {
		stats := m.snap.Stats
		statusStyle := lipgloss.NewStyle().Foreground(statusColor(stats.Status))
		serverInfo = fmt.Sprintf(
			"Server: %s %s  •  %s  •  Players: %d\nCPU: %.1f%% of %d cores  •  RAM: %s / %s  •  Tunnel: %s",
			statusIcon(stats.Status),
			statusStyle.Render(active.DisplayName()),
			stats.Status,
			stats.PlayerCount,
			stats.CPU,
			stats.CoreCount,
			formatBytesShort(stats.Memory),
			active.MaxRAM,
			stats.TunnelStatus,
		)
	} else {
		serverInfo = "No server selected"
	}
	if !m.snap.Live {
		serverInfo += "\n" + errorStyle.Render("backend not available, commands are disabled")
	}

	headerBox := baseStyle.
		Width(m.width-4).
		Align(lipgloss.Center).
		Render(serverInfo)

	console := baseStyle.
		Width(m.width - 4).
		Render(m.viewport.View())

	help := lipgloss.NewStyle().
		Width(m.width - 6).
		Align(lipgloss.Center).
		Render(helpLine(
			[2]string{"enter", "send"},
			[2]string{"ctrl+t", "start/stop"},
			[2]string{"esc", "back"},
			[2]string{"ctrl+c", "quit"},
		))

	footerContent := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("→ %s", m.textInput.View()),
		messageStyle.Render(m.message),
		help,
	)

	footerBox := footerStyle.
		Width(m.width - 4).
		Align(lipgloss.Left).
		Render(footerContent)

	return lipgloss.JoinVertical(lipgloss.Center,
		title,
		headerBox,
		console,
		footerBox,
	)
}

// RunConsole shows the active session's log and forwards typed commands.
// It reports whether the user asked to go back rather than quit.
func RunConsole(store *session.Store) bool {
	changes, stop := watch(store)
	defer stop()

	p := tea.NewProgram(
		initialLogModel(store, changes),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	m, err := p.Run()
	if err != nil {
		log.Errorf("error running console UI: %v", err)
		return true
	}

	if logModel, ok := m.(logModel); ok {
		return logModel.back
	}
	return false
}
