package ui

import (
	"context"
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/okapi-ai/okapi/compaction"
	"github.com/okapi-ai/okapi/driver"
)

// SessionView is the read surface the inspector needs from a session.
// okapi.Session satisfies it.
type SessionView interface {
	ID() uuid.UUID
	TokenSnapshot() compaction.TokenSnapshot
	LastSummary() string
	CompactionHistory(ctx context.Context) ([]driver.CompactionEventRecord, error)
}

// Handler serves the session inspector pages.
type Handler struct {
	session SessionView
	config  Config
	status  *template.Template
	history *template.Template
}

// NewHandler creates an inspector for the given session.
func NewHandler(session SessionView, cfg Config) *Handler {
	cfg.applyDefaults()
	funcs := templateFuncs()
	return &Handler{
		session: session,
		config:  cfg,
		status:  template.Must(template.New("status").Funcs(funcs).Parse(statusTemplate)),
		history: template.Must(template.New("history").Funcs(funcs).Parse(historyTemplate)),
	}
}

// ServeHTTP routes inspector requests. Only GET is accepted; the inspector
// never mutates the session.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, h.config.BasePath)
	switch strings.Trim(path, "/") {
	case "", "status":
		h.serveStatus(w, r)
	case "history":
		h.serveHistory(w, r)
	default:
		http.NotFound(w, r)
	}
}

type statusData struct {
	SessionID      string
	Snapshot       compaction.TokenSnapshot
	SummaryHTML    template.HTML
	RefreshSeconds int
	HistoryHref    string
}

func (h *Handler) serveStatus(w http.ResponseWriter, r *http.Request) {
	data := statusData{
		SessionID:      h.session.ID().String(),
		Snapshot:       h.session.TokenSnapshot(),
		RefreshSeconds: int(h.config.RefreshInterval.Seconds()),
		HistoryHref:    h.config.BasePath + "/history",
	}

	if summary := h.session.LastSummary(); summary != "" {
		html, err := RenderMarkdown(summary)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data.SummaryHTML = html
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.status.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type historyData struct {
	SessionID string
	Events    []driver.CompactionEventRecord
}

func (h *Handler) serveHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.session.CompactionHistory(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(events) > h.config.HistoryLimit {
		events = events[:h.config.HistoryLimit]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = h.history.Execute(w, historyData{
		SessionID: h.session.ID().String(),
		Events:    events,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

const statusTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="{{.RefreshSeconds}}">
<title>Session {{.SessionID}}</title>
</head>
<body>
<h1>Session {{.SessionID}}</h1>
<h2>Token accounting</h2>
<table>
<tr><td>Context size</td><td>{{tokens .Snapshot.InputTokens}}</td></tr>
<tr><td>Cache read (last call)</td><td>{{tokens .Snapshot.CacheReadInputTokens}}</td></tr>
<tr><td>Cache creation (last call)</td><td>{{tokens .Snapshot.CacheCreationInputTokens}}</td></tr>
<tr><td>Output (session)</td><td>{{tokens .Snapshot.OutputTokens}}</td></tr>
<tr><td>Billed input</td><td>{{tokens .Snapshot.CumulativeBilledInput}}</td></tr>
<tr><td>Billed output</td><td>{{tokens .Snapshot.CumulativeBilledOutput}}</td></tr>
</table>
{{if .SummaryHTML}}
<h2>Last compaction summary</h2>
<div class="summary">{{.SummaryHTML}}</div>
{{end}}
<p><a href="{{.HistoryHref}}">Compaction history</a></p>
</body>
</html>
`

const historyTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Compaction history {{.SessionID}}</title>
</head>
<body>
<h1>Compaction history</h1>
{{if not .Events}}<p>No compactions recorded.</p>{{end}}
<table>
{{range .Events}}
<tr>
<td>{{time .CreatedAt}}</td>
<td>{{.AnchorType}}</td>
<td>{{.TurnsBefore}} &rarr; {{.TurnsAfter}} turns</td>
<td>{{tokens .TokensBefore}} &rarr; {{tokens .TokensAfter}}</td>
<td>{{ratio .CompressionRatio}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`
