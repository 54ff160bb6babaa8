package util

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateString(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than limit", "main", 20, "main"},
		{"exactly at limit", "main", 4, "main"},
		{"over limit", "a-very-long-session-name", 10, "a-very-..."},
		{"tiny limit", "main", 3, "..."},
		{"multibyte runes", "日本語のセッション名", 6, "日本語..."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateString(tc.input, tc.maxLen); got != tc.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tc.input, tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestTruncateANSIPlain(t *testing.T) {
	if got := TruncateANSI("short", 40); got != "short" {
		t.Errorf("TruncateANSI should leave short strings alone, got %q", got)
	}
	got := TruncateANSI(strings.Repeat("x", 50), 10)
	if lipgloss.Width(got) > 10 {
		t.Errorf("truncated width = %d, want <= 10", lipgloss.Width(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated string should end in ellipsis, got %q", got)
	}
}

func TestTruncateANSIStyled(t *testing.T) {
	styled := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render(strings.Repeat("y", 50))

	got := TruncateANSI(styled, 12)
	if lipgloss.Width(got) > 12 {
		t.Errorf("truncated visual width = %d, want <= 12", lipgloss.Width(got))
	}
}
