package compaction

// UsableContext returns the portion of the context window available for
// conversation history after reserving output tokens and the autocompact
// safety buffer.
//
// maxOutputTokens above the cap is capped; zero or negative means the model
// did not report a max-output value and the cap is substituted.
func (c *Config) UsableContext() int {
	maxOutput := c.MaxOutputTokens
	if maxOutput <= 0 || maxOutput > c.MaxOutputTokenCap {
		maxOutput = c.MaxOutputTokenCap
	}

	usable := c.ContextWindow - maxOutput - c.AutocompactBuffer
	if usable < 0 {
		usable = 0
	}
	return usable
}

// TriggerThreshold returns the absolute token count at which compaction
// triggers: usable context scaled by the threshold ratio.
func (c *Config) TriggerThreshold() int {
	return int(float64(c.UsableContext()) * c.ThresholdRatio)
}

// ShouldCompact reports whether the given current context size has reached
// the compaction trigger. The same check runs before sending a resumed
// session's first request, so a session reopened near its limit compacts
// before it can fail.
func (c *Config) ShouldCompact(totalInputTokens int) bool {
	trigger := c.TriggerThreshold()
	if trigger <= 0 {
		return false
	}
	return totalInputTokens >= trigger
}

// SummarizationBudget returns the token budget handed to the turn selector:
// the context window minus the autocompact buffer. For small windows where
// the buffer would consume everything, 80% of the window is used instead.
func (c *Config) SummarizationBudget() int {
	if c.ContextWindow > c.AutocompactBuffer {
		return c.ContextWindow - c.AutocompactBuffer
	}
	return int(float64(c.ContextWindow) * 0.8)
}
