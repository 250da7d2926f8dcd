package compaction

// Selection is the outcome of turn selection: which contiguous suffix of the
// history is retained verbatim.
type Selection struct {
	// StartIndex is the position of the first retained turn. Turns from
	// StartIndex to the end of history are kept in original order.
	StartIndex int

	// RetainedTokens is the estimated token footprint of the retained tail.
	RetainedTokens int

	// AnchorAdvanced reports whether the anchor had to move forward to fit
	// the budget.
	AnchorAdvanced bool

	// UnableToFit is set when even the single most recent turn exceeds the
	// budget. The selection still retains that turn; the condition is a
	// sizing problem reported upward, not solved here.
	UnableToFit bool
}

// SelectTurns decides which turns are kept verbatim. The retained region is
// always the contiguous suffix from the anchor to the end of history, never
// reordered and never partially included. If the tail alone exceeds the
// budget, the anchor advances forward one turn at a time until the tail fits
// or only the most recent turn remains. Selection never recurses into
// summarizing within the retained region.
func SelectTurns(turns []ConversationTurn, anchor AnchorPoint, budget int) Selection {
	if len(turns) == 0 {
		return Selection{}
	}

	start := anchor.TurnIndex
	if start < 0 {
		start = 0
	}
	if start > len(turns)-1 {
		start = len(turns) - 1
	}

	sel := Selection{StartIndex: start}

	sel.RetainedTokens = SumTurnTokens(turns[sel.StartIndex:])
	for sel.RetainedTokens > budget && sel.StartIndex < len(turns)-1 {
		sel.StartIndex++
		sel.AnchorAdvanced = true
		sel.RetainedTokens = SumTurnTokens(turns[sel.StartIndex:])
	}

	if sel.RetainedTokens > budget {
		sel.UnableToFit = true
	}
	return sel
}
