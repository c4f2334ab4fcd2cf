package tui

import (
	"fmt"
	"strings"
)

// Run dispatches viewType to its interactive view. View types outside
// the supported set are an error, never a silent fallback.
func Run(viewType string, data any) error {
	switch {
	case strings.HasPrefix(viewType, "inspect_"):
		return RunInspectTUI(viewType, data)
	case strings.HasPrefix(viewType, "stats_"):
		return RunStatsTUI(viewType, data)
	default:
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
}

// IsTUISupported reports whether viewType has an interactive view.
func IsTUISupported(viewType string) bool {
	return strings.HasPrefix(viewType, "inspect_") || strings.HasPrefix(viewType, "stats_")
}

// SupportedTUIViews lists every view type Run accepts.
func SupportedTUIViews() []string {
	return []string{"inspect_record", "stats_outbox"}
}
