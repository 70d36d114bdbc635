// Package logutil locates and reads the per-component log files written by
// the logging package.
package logutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/grovetools/llm-bridge/logging"
	"github.com/grovetools/llm-bridge/pkg/paths"
)

const dateSuffix = "-2006-01-02"

// FindLogFiles returns the log files for day: the configured log file when
// one is set, otherwise one file per component in the log directory. When
// nothing was written that day the most recent log file is returned instead.
func FindLogFiles(day time.Time) ([]string, error) {
	if configured := logging.LogFilePath("daemon", day); filepath.Dir(configured) != paths.LogDir() {
		if _, err := os.Stat(configured); err != nil {
			return nil, nil
		}
		return []string{configured}, nil
	}

	files, err := filepath.Glob(filepath.Join(paths.LogDir(), "*-"+day.Format("2006-01-02")+".log"))
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		sort.Strings(files)
		return files, nil
	}

	latest, err := FindLatestLogFile(paths.LogDir())
	if err != nil || latest == "" {
		return nil, nil
	}
	return []string{latest}, nil
}

// FindLatestLogFile finds the most recently modified log file in dir.
// Non-empty files win over empty ones.
func FindLatestLogFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("could not read log directory %s: %w", dir, err)
	}

	var latest, latestNonEmpty os.FileInfo
	var latestPath, latestNonEmptyPath string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == nil || info.ModTime().After(latest.ModTime()) {
			latest, latestPath = info, filepath.Join(dir, entry.Name())
		}
		if info.Size() > 0 && (latestNonEmpty == nil || info.ModTime().After(latestNonEmpty.ModTime())) {
			latestNonEmpty, latestNonEmptyPath = info, filepath.Join(dir, entry.Name())
		}
	}

	if latestNonEmpty != nil {
		return latestNonEmptyPath, nil
	}
	return latestPath, nil
}

// Component extracts the component name from a <component>-<date>.log path.
func Component(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), ".log")
	if len(base) > len(dateSuffix) {
		if _, err := time.Parse(dateSuffix, base[len(base)-len(dateSuffix):]); err == nil {
			return base[:len(base)-len(dateSuffix)]
		}
	}
	return base
}

// LastLines returns the final n lines of path.
func LastLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if n <= 0 {
		return nil, nil
	}
	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	return ring, scanner.Err()
}
