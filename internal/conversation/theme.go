package conversation

import "github.com/charmbracelet/lipgloss"

// DetectDarkMode samples the host terminal's effective background color
// and reports whether its lightness falls on the dark side. Pass this to
// NewRenderer for live use; tests inject a constant instead.
func DetectDarkMode() bool {
	return lipgloss.HasDarkBackground()
}
