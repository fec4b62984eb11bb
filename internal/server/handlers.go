package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/venkat-chanest/ofdm-chanest/internal/radio"
	"github.com/venkat-chanest/ofdm-chanest/internal/telemetry"
)

// Handlers holds the HTTP API handlers for the dashboard.
type Handlers struct {
	WSHub      *WSHub
	reportDir  string
	writer     *telemetry.Writer
	lastStatus atomic.Value // string
}

// NewHandlers builds Handlers backed by a report directory; writer is used
// to decode reports requested by HandleReport.
func NewHandlers(reportDir string, writer *telemetry.Writer) *Handlers {
	h := &Handlers{
		WSHub:     NewWSHub(),
		reportDir: reportDir,
		writer:    writer,
	}
	h.lastStatus.Store("idle")
	return h
}

// OnReport records the latest status and fans a freshly written report out
// over the websocket hub. Callers must encode+persist the report
// themselves (via telemetry.Writer) before invoking this, since
// HandleReport serves from disk.
func (h *Handlers) OnReport(r telemetry.ChannelReport) {
	h.lastStatus.Store("receiving")
	h.WSHub.BroadcastReport(r)
}

// HandleWebSocket upgrades a connection and registers it with the hub.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade", "err", err)
		return
	}
	h.WSHub.AddClient(conn)

	go func() {
		defer h.WSHub.RemoveClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleStatus reports the monitor's current lifecycle state and the count
// of reports written so far.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	entries, _ := os.ReadDir(h.reportDir)
	status, _ := h.lastStatus.Load().(string)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"reports": len(entries),
	})
}

// HandleDevices lists audio devices available to the local front-end.
func (h *Handlers) HandleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := radio.ListDevices()
	if err != nil {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"devices": devices,
	})
}

// HandleReport serves a single decoded report by filename, or the most
// recent one when the path has no trailing filename.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/reports/")

	if name == "" {
		entries, err := os.ReadDir(h.reportDir)
		if err != nil || len(entries) == 0 {
			http.Error(w, "no reports available", http.StatusNotFound)
			return
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		name = names[len(names)-1]
	}

	report, err := h.writer.Read(filepath.Join(h.reportDir, name))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(report)
}
