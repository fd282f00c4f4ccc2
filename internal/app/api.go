package app

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/monitor"
	"github.com/relabs-tech/earable_monitor/internal/orientation"
)

type poseResponse struct {
	Side earable.Side `json:"side"`
	orientation.Pose
}

type sideRequest struct {
	Side string `json:"side"`
}

// newAPI registers the JSON endpoints on mux. Every endpoint accepts an
// optional ?side=left|right and falls back to the selected device.
func newAPI(mux *http.ServeMux, m *monitor.Monitor) {
	mux.HandleFunc("GET /api/orientation", func(w http.ResponseWriter, r *http.Request) {
		d, ok := resolveDevice(w, r, m)
		if !ok {
			return
		}
		pose, have := d.Pose()
		if !have {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, poseResponse{Side: d.Side(), Pose: pose})
	})

	mux.HandleFunc("GET /api/charts", func(w http.ResponseWriter, r *http.Request) {
		d, ok := resolveDevice(w, r, m)
		if !ok {
			return
		}
		writeJSON(w, d.Snapshot())
	})

	mux.HandleFunc("GET /api/charts/{signal}", func(w http.ResponseWriter, r *http.Request) {
		d, ok := resolveDevice(w, r, m)
		if !ok {
			return
		}
		sig, err := earable.ParseSignal(r.PathValue("signal"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		win, _ := d.Window(sig)
		writeJSON(w, win)
	})

	mux.HandleFunc("POST /api/clear", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("side") == "all" {
			m.ClearAll()
			w.WriteHeader(http.StatusNoContent)
			return
		}
		d, ok := resolveDevice(w, r, m)
		if !ok {
			return
		}
		d.Clear()
		log.Printf("web: cleared charts of %s device", d.Side())
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /api/side", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, sideRequest{Side: string(m.Selected())})
	})

	mux.HandleFunc("POST /api/side", func(w http.ResponseWriter, r *http.Request) {
		var req sideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
			return
		}
		side, err := earable.ParseSide(req.Side)
		if err == nil {
			err = m.Select(side)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("web: selected %s device", side)
		writeJSON(w, sideRequest{Side: string(side)})
	})

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, struct {
			Status    string       `json:"status"`
			Selected  earable.Side `json:"selected"`
			Timestamp time.Time    `json:"timestamp"`
		}{"ok", m.Selected(), time.Now()})
	})
}

func resolveDevice(w http.ResponseWriter, r *http.Request, m *monitor.Monitor) (*monitor.Device, bool) {
	d, err := m.Resolve(r.URL.Query().Get("side"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, earable.ErrUnknownSide) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return nil, false
	}
	return d, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}
