// Package tray puts the active server's status in the system tray and offers
// start/stop without opening a terminal.
package tray

import (
	"context"
	"fmt"
	"os"
	"time"

	"roam/internal/domain"
	"roam/internal/server"
	"roam/internal/session"

	"github.com/emersion/go-autostart"
	"github.com/getlantern/systray"
	"github.com/pkg/browser"
	log "github.com/sirupsen/logrus"
)

const appName = "roam-tray"

type Tray struct {
	store   *session.Store
	logger  log.FieldLogger
	timeout time.Duration

	toggle *systray.MenuItem
	open   *systray.MenuItem
	quit   *systray.MenuItem
}

func New(store *session.Store, logger log.FieldLogger, timeout time.Duration) *Tray {
	return &Tray{store: store, logger: logger, timeout: timeout}
}

// Run blocks until the user picks Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

func (t *Tray) onReady() {
	systray.SetTooltip("roam")
	t.toggle = systray.AddMenuItem("Start server", "Start or stop the active server")
	t.open = systray.AddMenuItem("Open server folder", "Open the active server's directory")
	systray.AddSeparator()
	t.quit = systray.AddMenuItem("Quit", "Close the tray")

	stop := t.store.OnChange(t.render)
	t.render()

	ctx, cancel := context.WithCancel(context.Background())
	go t.poll(ctx)

	go func() {
		defer stop()
		defer cancel()
		for {
			select {
			case <-t.toggle.ClickedCh:
				t.onToggle()
			case <-t.open.ClickedCh:
				t.onOpen()
			case <-t.quit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) poll(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
		_ = t.store.RefreshStats(reqCtx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (t *Tray) render() {
	state := menuFor(t.store.Snapshot())
	systray.SetTitle(state.Title)
	t.toggle.SetTitle(state.ToggleLabel)
	if state.ToggleEnabled {
		t.toggle.Enable()
	} else {
		t.toggle.Disable()
	}
	if state.HasSession {
		t.open.Enable()
	} else {
		t.open.Disable()
	}
}

func (t *Tray) onToggle() {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	if err := t.store.ToggleServer(ctx); err != nil {
		t.logger.Errorf("tray toggle failed: %v", err)
	}
}

func (t *Tray) onOpen() {
	active := t.store.Active()
	if active == nil {
		return
	}
	dir, err := server.ResolveDir(active.Path)
	if err != nil {
		t.logger.Warnf("cannot open server folder: %v", err)
		return
	}
	if err := browser.OpenFile(dir); err != nil {
		t.logger.Warnf("cannot open server folder: %v", err)
	}
}

type menuState struct {
	Title         string
	ToggleLabel   string
	ToggleEnabled bool
	HasSession    bool
}

func menuFor(snap session.Snapshot) menuState {
	if snap.Active == nil {
		return menuState{Title: "roam", ToggleLabel: "Start server"}
	}

	state := menuState{
		Title:         fmt.Sprintf("%s: %s", snap.Active.DisplayName(), snap.Stats.Status),
		ToggleLabel:   "Start server",
		ToggleEnabled: snap.Live,
		HasSession:    true,
	}
	if snap.Stats.Status.Active() {
		state.ToggleLabel = "Stop server"
	}
	if snap.Stats.Status == domain.StatusStopping {
		state.ToggleEnabled = false
	}
	if !snap.Live {
		state.Title += " (offline)"
	}
	return state
}

func autostartApp() (*autostart.App, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return &autostart.App{
		Name:        appName,
		DisplayName: "roam tray",
		Exec:        []string{exe, "tray"},
	}, nil
}

// SetAutostart registers or removes the tray from the user's login items.
func SetAutostart(enabled bool) error {
	app, err := autostartApp()
	if err != nil {
		return fmt.Errorf("error resolving executable: %w", err)
	}
	if app.IsEnabled() == enabled {
		return nil
	}
	if enabled {
		return app.Enable()
	}
	return app.Disable()
}
