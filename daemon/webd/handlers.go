package webd

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rotblauer/trajd/metrics"
	"github.com/rotblauer/trajd/metrics/influxdb"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/reconstruct"
	"github.com/rotblauer/trajd/types"
	"github.com/rotblauer/trajd/types/trajectory"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Config    *params.WebDaemonConfig `json:"config"`
	Sessions  int                     `json:"sessions"`
	Memoized  int                     `json:"memoized"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
	Metrics   metrics.Totals          `json:"metrics"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Config:    s.Config,
		Sessions:  s.sessions.Len(),
		Memoized:  s.memo.Len(),
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
		Metrics:   metrics.Default.Totals(),
	}
	s.writeJSON(w, http.StatusOK, st)
}

// writeJSON writes v as the response body with status code.
func (s *WebDaemon) writeJSON(w http.ResponseWriter, code int, v any) {
	j, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(code)
	if _, err := w.Write(j); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

// writeResult writes a reconstruction as JSON, or as GeoJSON with ?format=geojson.
func (s *WebDaemon) writeResult(w http.ResponseWriter, r *http.Request, v any, res reconstruct.Result) {
	if r.URL.Query().Get("format") == "geojson" {
		w.Header().Set("Content-Type", "application/geo+json")
		s.writeJSON(w, http.StatusOK, trajectory.ToFeatureCollection(res))
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// readRequest decodes a request body of positions in any of the accepted shapes.
func (s *WebDaemon) readRequest(w http.ResponseWriter, r *http.Request) (*types.Request, bool) {
	if r.Body == nil {
		http.Error(w, "Please send a request body", http.StatusBadRequest)
		return nil, false
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.logger.Error("Failed to read request body", "error", err)
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return nil, false
	}
	req, err := types.DecodeRequest(body)
	if err != nil {
		s.logger.Warn("Failed to decode request", "error", err, "bytes", len(body))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return nil, false
	}
	return req, true
}

// handleReconstruct runs a one-shot reconstruction of the posted positions.
// Results are memoized by input and config.
func (s *WebDaemon) handleReconstruct(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readRequest(w, r)
	if !ok {
		return
	}
	c := req.Config
	if c == nil {
		c = s.Config.Pipeline
	}
	res, hit := s.memo.Reconstruct(req.Positions, c)
	metrics.Default.Observe(res.Stats, hit)
	s.logger.Info("Reconstructed", "cached", hit,
		"original", res.Stats.OriginalCount,
		"removed", res.Stats.RemovedOutliers,
		"interpolated", res.Stats.InterpolatedPoints)
	if !hit {
		s.export(influxdb.Run{Source: "reconstruct", Time: time.Now(), Stats: res.Stats})
	}
	s.writeResult(w, r, res, res)
}

// export sends a run to InfluxDB in the background, if configured.
func (s *WebDaemon) export(run influxdb.Run) {
	if !s.Config.InfluxDB.Enabled() {
		return
	}
	go func() {
		if err := influxdb.ExportRuns(s.Config.InfluxDB, []influxdb.Run{run}); err != nil {
			s.logger.Warn("Failed to export run", "error", err)
		}
	}()
}

// handleCreateSession opens a live session.
// The body may carry a pipeline config, decoded over the defaults.
func (s *WebDaemon) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	c := s.Config.Pipeline
	if r.Body != nil {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		if len(body) > 0 {
			c = params.DefaultPipelineConfig()
			if err := json.Unmarshal(body, c); err != nil {
				s.logger.Warn("Failed to decode session config", "error", err)
				http.Error(w, "Failed to decode session config", http.StatusUnprocessableEntity)
				return
			}
		}
	}

	sess := newSession(uuid.NewString(), c, s.Config.SessionCapacity, s.Config.DedupeSize)
	s.sessions.Set(sess.ID, sess, ttlcache.DefaultTTL)
	s.logger.Info("Session opened", "session", sess.ID)
	s.writeJSON(w, http.StatusCreated, sess.view())
}

var errNoSession = errors.New("no session")

func (s *WebDaemon) requestSession(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := mux.Vars(r)["id"]
	item := s.sessions.Get(id)
	if item == nil {
		http.Error(w, errNoSession.Error(), http.StatusNotFound)
		return nil, false
	}
	return item.Value(), true
}

func (s *WebDaemon) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	v := sess.view()
	s.writeResult(w, r, v, v.Result)
}

// handleSessionPositions appends observations to a session, reconstructs its buffer
// and broadcasts the result to websocket clients following the session.
func (s *WebDaemon) handleSessionPositions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	req, ok := s.readRequest(w, r)
	if !ok {
		return
	}

	a, res, err := sess.append(r.Context(), req.Positions, req.Config)
	if err != nil {
		s.logger.Warn("Session append abandoned", "session", sess.ID, "error", err)
		return
	}
	metrics.Default.Observe(res.Stats, false)
	s.logger.Debug("Session appended", "session", sess.ID,
		"accepted", a.Accepted, "duplicates", a.Duplicates, "evicted", a.Evicted)
	s.export(influxdb.Run{Source: sess.ID, Time: time.Now(), Stats: res.Stats})

	v := sess.view()
	s.feedReconstructed.Send(v)

	v.Appended = &a
	s.writeResult(w, r, v, v.Result)
}
