package cmd

import (
	"github.com/grovetools/llm-bridge/command"
	"github.com/grovetools/llm-bridge/config"
	"github.com/grovetools/llm-bridge/internal/daemon/store"
	"github.com/grovetools/llm-bridge/pkg/daemon"
	"github.com/grovetools/llm-bridge/pkg/notify"
)

// newLocator builds the renderer locator for this platform.
func newLocator(cfg *config.Config) *notify.Locator {
	var finder notify.Finder
	if notify.NeedsProcess {
		finder = notify.NewPgrepFinder(&command.RealExecutor{})
	}
	return notify.NewLocator(cfg.Renderer, finder, notify.Platform(cfg.SignalBase, cfg.Signal, cfg.StatePath))
}

func storeOptions(cfg *config.Config, mode store.Mode) store.Options {
	return store.Options{
		Mode:            mode,
		Format:          cfg.Format,
		StatePath:       cfg.StatePath,
		SessionsDir:     cfg.SessionsDir,
		Stale:           cfg.Timing.Stale(),
		ActivityTimeout: cfg.Timing.ActivityTimeout(),
	}
}

// newClient returns the hook-side client: daemon first, local fallback.
func newClient(cfg *config.Config) daemon.Client {
	return daemon.New(cfg.SocketPath, storeOptions(cfg, store.ModeSingle), newLocator(cfg))
}
