package cli

import (
	"encoding/json"
	"net/http"

	"github.com/nestor-bot/nestor/internal/connection"
	"github.com/nestor-bot/nestor/internal/resolver"
	"github.com/nestor-bot/nestor/internal/router"
	"github.com/nestor-bot/nestor/internal/sink"
	"github.com/nestor-bot/nestor/internal/version"
)

// newHealthHandler exposes /healthz with counters from every component.
// The endpoint reports "degraded" while the RTM connection is down but
// still answers 200: the manager reconnects on its own, and restarting
// the process would not help.
func newHealthHandler(runID string, mgr connection.Manager, rt *router.Router, archive *sink.Sink, dir *resolver.Directory) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		conn := mgr.Stats()
		routing := rt.Stats()
		files := archive.Stats()
		names := dir.Stats()

		health := struct {
			Status     string         `json:"status"`
			RunID      string         `json:"run_id"`
			Version    string         `json:"version"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			RunID:      runID,
			Version:    version.Version,
			Components: make(map[string]any),
		}

		if !conn.Connected {
			health.Status = "degraded"
		}

		health.Components["connection"] = map[string]any{
			"connected":  conn.Connected,
			"reconnects": conn.Reconnects,
			"forwarded":  conn.Forwarded,
			"pongs":      conn.Pongs,
		}
		health.Components["router"] = map[string]any{
			"received":  routing.Received,
			"archived":  routing.Archived,
			"skipped":   routing.Skipped,
			"dropped":   routing.Dropped,
			"malformed": routing.Malformed,
			"reactions": routing.Reactions,
		}
		health.Components["archive"] = map[string]any{
			"files_open": files.FilesOpen,
			"appends":    files.Appends,
			"bytes":      files.Bytes,
		}
		health.Components["directory"] = map[string]any{
			"channels_cached": names.ChannelsCached,
			"users_cached":    names.UsersCached,
			"lookups":         names.Lookups,
			"fallbacks":       names.Fallbacks,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
