// Package hooks installs the bridge's commands into the agent's
// settings.json.
package hooks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	bridgeerrors "github.com/grovetools/llm-bridge/errors"
	"github.com/grovetools/llm-bridge/pkg/snapshot"
)

// Marker identifies commands owned by the bridge.
const Marker = "llm-bridge"

// Binding maps one agent hook event to a bridge command.
type Binding struct {
	Event   string
	Matcher string
	Args    string
}

// Bindings are the agent hook events the bridge listens to. Tool hooks
// read the tool name from the hook JSON on stdin.
var Bindings = []Binding{
	{Event: "UserPromptSubmit", Matcher: "", Args: "event --type submit"},
	{Event: "PreToolUse", Matcher: "*", Args: "event --type tool-start"},
	{Event: "PostToolUse", Matcher: "*", Args: "event --type tool-end"},
	{Event: "Stop", Matcher: "", Args: "event --type stop"},
}

// Result describes an install or uninstall.
type Result struct {
	Path    string
	Content []byte
	// Changed is false when uninstall found nothing of ours.
	Changed bool
	Removed int
	DryRun  bool
}

// SettingsPath returns the agent settings file in the user's home.
func SettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

// Install merges the bridge hooks and status line into the settings at
// path, replacing earlier bridge entries. binary is the executable path; it
// is quoted for the shell the agent runs hooks through.
func Install(path, binary string, dryRun bool) (*Result, error) {
	settings, err := load(path)
	if err != nil {
		return nil, err
	}

	hooks, _ := settings["hooks"].(map[string]interface{})
	if hooks == nil {
		hooks = make(map[string]interface{})
	}
	removed := stripOurs(hooks)
	prefix := shellQuote(binary)

	for _, b := range Bindings {
		entries, _ := hooks[b.Event].([]interface{})
		entries = append(entries, map[string]interface{}{
			"matcher": b.Matcher,
			"hooks": []interface{}{
				map[string]interface{}{
					"type":    "command",
					"command": prefix + " " + b.Args,
				},
			},
		})
		hooks[b.Event] = entries
	}
	settings["hooks"] = hooks
	settings["statusLine"] = map[string]interface{}{
		"type":    "command",
		"command": prefix + " statusline",
		"padding": 0,
	}

	return save(path, settings, &Result{Path: path, Changed: true, Removed: removed, DryRun: dryRun})
}

// Uninstall removes every bridge hook and a bridge status line. A missing
// settings file is not an error.
func Uninstall(path string, dryRun bool) (*Result, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Result{Path: path, DryRun: dryRun}, nil
	}
	settings, err := load(path)
	if err != nil {
		return nil, err
	}

	removed := 0
	if hooks, ok := settings["hooks"].(map[string]interface{}); ok {
		removed = stripOurs(hooks)
		if len(hooks) == 0 {
			delete(settings, "hooks")
		}
	}
	if sl, ok := settings["statusLine"].(map[string]interface{}); ok && isOurs(sl) {
		delete(settings, "statusLine")
		removed++
	}

	res := &Result{Path: path, Removed: removed, Changed: removed > 0, DryRun: dryRun}
	if !res.Changed {
		return res, nil
	}
	return save(path, settings, res)
}

func load(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]interface{}), nil
		}
		return nil, bridgeerrors.HooksInstall(path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return make(map[string]interface{}), nil
	}

	var settings map[string]interface{}
	if err := json.Unmarshal(jsonc.ToJSON(data), &settings); err != nil {
		return nil, bridgeerrors.HooksInstall(path, fmt.Errorf("settings is not a JSON object: %w", err))
	}
	if settings == nil {
		settings = make(map[string]interface{})
	}
	return settings, nil
}

func save(path string, settings map[string]interface{}, res *Result) (*Result, error) {
	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return nil, bridgeerrors.HooksInstall(path, err)
	}
	res.Content = append(out, '\n')
	if res.DryRun {
		return res, nil
	}
	if err := snapshot.WriteFile(path, res.Content, 0644); err != nil {
		return nil, bridgeerrors.HooksInstall(path, err)
	}
	return res, nil
}

// stripOurs removes bridge commands from every hook group, drops groups
// and events left empty and returns how many commands went. Foreign
// commands sharing a group with ours stay.
func stripOurs(hooks map[string]interface{}) int {
	removed := 0
	for event, v := range hooks {
		entries, ok := v.([]interface{})
		if !ok {
			continue
		}
		kept := entries[:0]
		for _, e := range entries {
			m, ok := e.(map[string]interface{})
			if !ok {
				kept = append(kept, e)
				continue
			}
			n, empty := stripGroup(m)
			removed += n
			if n > 0 && empty {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(hooks, event)
		} else {
			hooks[event] = kept
		}
	}
	return removed
}

// stripGroup removes bridge commands from one matcher group in place. It
// reports how many went and whether the group has no commands left.
func stripGroup(group map[string]interface{}) (int, bool) {
	cmds, ok := group["hooks"].([]interface{})
	if !ok {
		return 0, false
	}
	kept := make([]interface{}, 0, len(cmds))
	for _, c := range cmds {
		if m, ok := c.(map[string]interface{}); ok && isOurs(m) {
			continue
		}
		kept = append(kept, c)
	}
	removed := len(cmds) - len(kept)
	if removed > 0 {
		group["hooks"] = kept
	}
	return removed, len(kept) == 0
}

func isOurs(m map[string]interface{}) bool {
	cmd, _ := m["command"].(string)
	return strings.Contains(cmd, Marker)
}

// shellQuote single-quotes s unless it only holds characters the shell
// leaves alone.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("/._-+:,=@%", r)
}
