package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"roam/internal/domain"
	"roam/internal/session"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"
)

const (
	fieldName = iota
	fieldPath
	fieldJar
	fieldRAM
	fieldCount
)

type addServerModel struct {
	store  *session.Store
	inputs []textinput.Model
	focus  int
	err    error
	done   bool
	width  int
	height int
}

type jarSelectedMsg struct {
	cfg *domain.ServerConfig
	err error
}

type serverAddedMsg struct{ err error }

func newAddServerModel(store *session.Store) addServerModel {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldName] = textinput.New()
	inputs[fieldName].Placeholder = "My Awesome Server"
	inputs[fieldName].CharLimit = 32
	inputs[fieldName].Width = 30

	inputs[fieldPath] = textinput.New()
	inputs[fieldPath].Placeholder = "/home/me/servers/survival"
	inputs[fieldPath].CharLimit = 256
	inputs[fieldPath].Width = 50

	inputs[fieldJar] = textinput.New()
	inputs[fieldJar].Placeholder = "server.jar"
	inputs[fieldJar].CharLimit = 64
	inputs[fieldJar].Width = 30

	inputs[fieldRAM] = textinput.New()
	inputs[fieldRAM].Placeholder = "4"
	inputs[fieldRAM].CharLimit = 3
	inputs[fieldRAM].Width = 10

	inputs[fieldName].Focus()

	return addServerModel{store: store, inputs: inputs}
}

func selectJarCmd(store *session.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		cfg, err := store.SelectJar(ctx)
		return jarSelectedMsg{cfg: cfg, err: err}
	}
}

func (m addServerModel) submit() tea.Cmd {
	name := strings.TrimSpace(m.inputs[fieldName].Value())
	path := strings.TrimSpace(m.inputs[fieldPath].Value())
	jar := strings.TrimSpace(m.inputs[fieldJar].Value())
	if jar == "" {
		jar = "server.jar"
	}
	ramText := strings.TrimSpace(m.inputs[fieldRAM].Value())
	if ramText == "" {
		ramText = "4"
	}
	return func() tea.Msg {
		ram, err := strconv.Atoi(ramText)
		if err != nil {
			return serverAddedMsg{err: fmt.Errorf("ram must be a whole number of GB")}
		}
		return serverAddedMsg{err: m.store.AddServer(name, path, jar, ram)}
	}
}

func (m addServerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m addServerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+o":
			return m, selectJarCmd(m.store)
		case "tab", "down":
			m.setFocus((m.focus + 1) % fieldCount)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, nil
		case "enter":
			if m.focus < fieldRAM {
				m.setFocus(m.focus + 1)
				return m, nil
			}
			return m, m.submit()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case jarSelectedMsg:
		switch {
		case msg.err != nil:
			m.err = msg.err
		case msg.cfg != nil:
			m.inputs[fieldPath].SetValue(msg.cfg.Path)
			m.inputs[fieldJar].SetValue(msg.cfg.JarName)
			if m.inputs[fieldName].Value() == "" {
				m.inputs[fieldName].SetValue(filepath.Base(msg.cfg.Path))
			}
		}
		return m, nil
	case serverAddedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.done = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *addServerModel) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m addServerModel) View() string {
	labels := []string{"Name", "Path", "Jar", "RAM (GB)"}

	var b strings.Builder
	b.WriteString(headerStyle.Render("ADD SERVER"))
	b.WriteString("\n\n")
	for i, in := range m.inputs {
		label := descStyle.Render(fmt.Sprintf("%-9s", labels[i]))
		if i == m.focus {
			label = keyStyle.Render(fmt.Sprintf("%-9s", labels[i]))
		}
		b.WriteString(fmt.Sprintf("%s %s\n", label, in.View()))
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(helpLine(
		[2]string{"tab", "next"},
		[2]string{"enter", "save"},
		[2]string{"ctrl+o", "pick jar"},
		[2]string{"esc", "cancel"},
	))

	return lipgloss.NewStyle().Margin(1, 2).Render(b.String())
}

// RunAddServer shows the add form and reports whether a server was added.
func RunAddServer(store *session.Store) bool {
	p := tea.NewProgram(newAddServerModel(store), tea.WithAltScreen())
	m, err := p.Run()
	if err != nil {
		log.Errorf("error running add server form: %v", err)
		return false
	}
	if m, ok := m.(addServerModel); ok {
		return m.done
	}
	return false
}
