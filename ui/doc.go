// Package ui provides a small HTTP inspector for sessions: current token
// accounting, the latest compaction summary rendered as sanitized HTML, and
// the persisted compaction history.
//
// The inspector is read-only and meant for development and operations, not
// for end users. Mount it on any mux:
//
//	inspector := ui.NewHandler(session, ui.DefaultConfig())
//	http.Handle("/debug/session/", inspector)
package ui
