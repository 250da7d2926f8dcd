package ui

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("Summary of 6 prior turns: goals [**Fix the race**]")
	if err != nil {
		t.Fatalf("RenderMarkdown returned error: %v", err)
	}
	if !strings.Contains(string(html), "<strong>Fix the race</strong>") {
		t.Errorf("markdown not rendered: %q", html)
	}
}

func TestRenderMarkdownSanitizesScript(t *testing.T) {
	html, err := RenderMarkdown("hello <script>alert(1)</script> world")
	if err != nil {
		t.Fatalf("RenderMarkdown returned error: %v", err)
	}
	if strings.Contains(string(html), "<script") {
		t.Errorf("script tag survived sanitization: %q", html)
	}
	if !strings.Contains(string(html), "hello") {
		t.Errorf("benign content lost: %q", html)
	}
}

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		in       int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1500, "1.5K"},
		{120254, "120.3K"},
		{1500000, "1.5M"},
	}

	for _, tt := range tests {
		if got := formatTokens(tt.in); got != tt.expected {
			t.Errorf("formatTokens(%d) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestFormatRatio(t *testing.T) {
	if got := formatRatio(0.33); got != "33%" {
		t.Errorf("formatRatio(0.33) = %q, want %q", got, "33%")
	}
}
