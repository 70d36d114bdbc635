package logging

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/llm-bridge/config"
)

// FormatConfig controls the text formatter.
type FormatConfig struct {
	DisableTimestamp bool
	DisableComponent bool
}

var (
	settings   = config.Default().Logging
	settingsMu sync.RWMutex
)

// Configure installs the logging section of the loaded configuration.
// Loggers created afterwards pick it up; previously cached loggers are
// rebuilt on their next NewLogger call.
func Configure(cfg config.LoggingConfig) {
	settingsMu.Lock()
	settings = cfg
	settingsMu.Unlock()

	loggersMu.Lock()
	loggers = make(map[string]*logrus.Entry)
	loggersMu.Unlock()
}

func currentSettings() config.LoggingConfig {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settings
}
