// Package okapi manages long-running AI coding-agent conversations, keeping
// them inside the model's context window through anchor-based compaction.
//
// A Session owns a conversation's turn history and token accounting. After
// each provider response the session absorbs the reported usage, and before
// each request it checks the tracked context size against the compaction
// trigger. When the trigger is reached, the oldest turns are folded into a
// deterministic summary while a contiguous recent tail is retained verbatim,
// cut at an anchor point such as a passing test run.
//
// # Usage
//
//	session, err := okapi.NewSession(okapi.Config{
//	    Provider: okapi.ProviderAnthropic,
//	    Model:    "claude-sonnet-4-5-20250929",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	// After each provider response:
//	session.AppendTurn(turn)
//	session.RecordUsage(ctx, usage)
//
//	// Before each provider request:
//	prefix, history, err := session.PrepareForSend(ctx)
//
// Usage extraction is provider-specific; ProviderAnthropic and ProviderOpenAI
// normalize their SDK usage shapes into a common form so the tracker and
// threshold logic are provider-agnostic.
//
// # Persistence
//
// Sessions run fully in memory by default. Configure a driver.Store (see
// driver/pgxv5 and driver/databasesql) to persist compaction events, archive
// discarded turns, and save token accounting across restarts. Storage
// failures degrade to log warnings; they never block the conversation.
//
// The compaction engine itself lives in the compaction package and can be
// used directly without a Session.
package okapi
