package bridge

import (
	"context"
	"strings"
	"time"

	"roam/internal/config"
	"roam/pkg/sdk"

	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"
)

var daemonProcessNames = []string{"roamd", "roamd.exe", "roam-daemon", "roam-daemon.exe"}

// Probe reports whether a managed runtime backs this client. ROAM_RUNTIME wins
// when set; otherwise a healthy daemon endpoint or a running daemon process counts.
func Probe(ctx context.Context, client *sdk.Client) bool {
	if live, ok := config.RuntimeMarker(); ok {
		return live
	}

	hctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Health(hctx); err == nil {
		return true
	}

	return daemonProcessRunning(ctx)
}

func daemonProcessRunning(ctx context.Context) bool {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false
	}
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		name = strings.ToLower(name)
		for _, candidate := range daemonProcessNames {
			if name == candidate {
				return true
			}
		}
	}
	return false
}

// Detect builds the bridge for cfg, starting the event pump when the runtime is live.
func Detect(ctx context.Context, cfg *config.Config, logger log.FieldLogger) Bridge {
	client := sdk.NewClient(cfg.DaemonURL, cfg.RequestTimeout())
	if !Probe(ctx, client) {
		logger.Debugf("no managed runtime at %s, running without backend", cfg.DaemonURL)
		return Null{}
	}

	live := NewLive(client, logger)
	live.Start(ctx)
	return live
}
