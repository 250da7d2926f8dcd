package compaction

import (
	"testing"
)

func thresholdConfig(window, maxOutput int) *Config {
	cfg := &Config{ContextWindow: window, MaxOutputTokens: maxOutput}
	cfg.ApplyDefaults()
	return cfg
}

func TestUsableContext(t *testing.T) {
	tests := []struct {
		name      string
		window    int
		maxOutput int
		expected  int
	}{
		{
			name:      "standard window",
			window:    200000,
			maxOutput: 16384,
			expected:  133616, // 200000 - 16384 - 50000
		},
		{
			name:      "oversized max output is capped",
			window:    200000,
			maxOutput: 64000,
			expected:  118000, // 200000 - 32000 - 50000
		},
		{
			name:      "unknown max output falls back to cap",
			window:    200000,
			maxOutput: 0,
			expected:  118000,
		},
		{
			name:      "window smaller than reservations",
			window:    40000,
			maxOutput: 8192,
			expected:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := thresholdConfig(tt.window, tt.maxOutput)
			if got := cfg.UsableContext(); got != tt.expected {
				t.Errorf("UsableContext() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestShouldCompactBoundary(t *testing.T) {
	cfg := thresholdConfig(200000, 16384)

	trigger := cfg.TriggerThreshold()
	if trigger != 120254 { // int(133616 * 0.9)
		t.Fatalf("TriggerThreshold() = %d, want 120254", trigger)
	}

	if cfg.ShouldCompact(trigger - 1) {
		t.Errorf("ShouldCompact(trigger-1) = true, want false")
	}
	if !cfg.ShouldCompact(trigger) {
		t.Errorf("ShouldCompact(trigger) = false, want true")
	}
	if !cfg.ShouldCompact(trigger + 1) {
		t.Errorf("ShouldCompact(trigger+1) = false, want true")
	}
}

func TestShouldCompactZeroUsableContext(t *testing.T) {
	cfg := thresholdConfig(40000, 8192)

	// A degenerate window never triggers; forcing is the caller's escape hatch.
	if cfg.ShouldCompact(1000000) {
		t.Errorf("ShouldCompact with zero usable context = true, want false")
	}
}

func TestSummarizationBudget(t *testing.T) {
	tests := []struct {
		name     string
		window   int
		expected int
	}{
		{
			name:     "large window subtracts buffer",
			window:   200000,
			expected: 150000,
		},
		{
			name:     "window below buffer uses 80 percent",
			window:   40000,
			expected: 32000,
		},
		{
			name:     "window equal to buffer uses 80 percent",
			window:   50000,
			expected: 40000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := thresholdConfig(tt.window, 0)
			if got := cfg.SummarizationBudget(); got != tt.expected {
				t.Errorf("SummarizationBudget() = %d, want %d", got, tt.expected)
			}
		})
	}
}
