package snapshot

import (
	"fmt"
	"strconv"
	"strings"
)

// Nerd Font glyphs for activities.
const (
	IconThinking = "\U000f0517"
	IconRead     = "\U000f0214"
	IconEdit     = "\U000f03eb"
	IconBash     = "\U000f018d"
	IconSearch   = "\U000f0349"
	IconIdle     = "\U000f04b2"
	IconTool     = "\U000f0327"
)

// Icon returns the glyph for an activity; unlisted tools share IconTool.
func Icon(activity string) string {
	switch activity {
	case "Thinking", "Thinking...", "Task":
		return IconThinking
	case "Read":
		return IconRead
	case "Edit", "Write":
		return IconEdit
	case "Bash":
		return IconBash
	case "Grep", "Glob":
		return IconSearch
	case ActivityIdle:
		return IconIdle
	default:
		return IconTool
	}
}

// ComputeText expands the display template. Supported placeholders:
// {model} {activity} {icon} {cost} {cost:.N} (N in 0..6) {tokens}
// {input_tokens} {output_tokens} {cache_read} {cache_write}.
// Plain {cost} uses four decimals.
func (s State) ComputeText(format string) string {
	pairs := []string{
		"{model}", s.Model,
		"{activity}", s.Activity,
		"{icon}", Icon(s.Activity),
	}
	for precision := 0; precision <= 6; precision++ {
		pairs = append(pairs, fmt.Sprintf("{cost:.%d}", precision), strconv.FormatFloat(s.Cost, 'f', precision, 64))
	}
	pairs = append(pairs,
		"{cost}", strconv.FormatFloat(s.Cost, 'f', 4, 64),
		"{tokens}", strconv.FormatUint(s.InputTokens+s.OutputTokens, 10),
		"{input_tokens}", strconv.FormatUint(s.InputTokens, 10),
		"{output_tokens}", strconv.FormatUint(s.OutputTokens, 10),
		"{cache_read}", strconv.FormatUint(s.CacheRead, 10),
		"{cache_write}", strconv.FormatUint(s.CacheWrite, 10),
	)
	return strings.NewReplacer(pairs...).Replace(format)
}

// ComputeTooltip lists the populated telemetry, one item per line.
func (s State) ComputeTooltip() string {
	var lines []string
	if s.Model != "" {
		lines = append(lines, "Model: "+s.Model)
	}
	if s.Activity != "" {
		lines = append(lines, "Activity: "+s.Activity)
	}
	if s.InputTokens > 0 || s.OutputTokens > 0 {
		lines = append(lines, fmt.Sprintf("Tokens: %d in / %d out", s.InputTokens, s.OutputTokens))
	}
	if s.CacheRead > 0 || s.CacheWrite > 0 {
		lines = append(lines, fmt.Sprintf("Cache: %d read / %d write", s.CacheRead, s.CacheWrite))
	}
	if s.Cost > 0 {
		lines = append(lines, fmt.Sprintf("Cost: $%.4f", s.Cost))
	}
	return strings.Join(lines, "\n")
}
