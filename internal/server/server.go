package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/copyleftdev/gridopt/internal/config"
	apperrors "github.com/copyleftdev/gridopt/internal/errors"
	"github.com/copyleftdev/gridopt/internal/job"
	"github.com/copyleftdev/gridopt/internal/logging"
	"github.com/copyleftdev/gridopt/internal/metrics"
	"github.com/copyleftdev/gridopt/internal/optimization"
	"github.com/copyleftdev/gridopt/internal/sla"
)

// Logger defines the logging interface used by the server
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Status is the lifecycle state of an optimization job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusTimedOut  Status = "timed_out"
)

// Terminal reports whether the job has finished.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusTimedOut:
		return true
	}
	return false
}

// OptimizationState tracks one job. Fields are guarded by Server.optimizationsMu.
type OptimizationState struct {
	ID          string
	Status      Status
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time
	Result      *optimization.Result
	Err         string

	job    *job.Job
	cancel context.CancelFunc
}

// StartResponse is returned when a job is accepted.
type StartResponse struct {
	OptimizationID string `json:"optimization_id"`
	Status         Status `json:"status"`
}

// Solution is the best point found by a job.
type Solution struct {
	Parameters []float64 `json:"parameters"`
	Value      job.Score `json:"value"`
}

// StatusResponse describes a job.
type StatusResponse struct {
	OptimizationID string    `json:"optimization_id"`
	Status         Status    `json:"status"`
	Backend        string    `json:"backend"`
	Progress       float64   `json:"progress"`
	Evaluations    int64     `json:"evaluations"`
	GridSize       int       `json:"grid_size,omitempty"`
	StartTime      string    `json:"start_time"`
	LastUpdate     string    `json:"last_update"`
	EndTime        string    `json:"end_time,omitempty"`
	BestSolution   *Solution `json:"best_solution,omitempty"`
	Error          string    `json:"error,omitempty"`
}

type idParams struct {
	OptimizationID string `json:"optimization_id"`
}

// Server implements the HTTP and JSON-RPC server for the optimization service.
// It manages optimization jobs and snaps model points onto their surfaces.
type Server struct {
	cfg         *config.Config
	logger      Logger
	metrics     *metrics.Metrics
	reprojector *sla.Reprojector
	defaults    job.Defaults

	optimizations   map[string]*OptimizationState
	optimizationsMu sync.RWMutex
	closed          bool
	wg              sync.WaitGroup
}

// NewServer creates a new server instance. A nil m records into unregistered
// instruments.
func NewServer(cfg *config.Config, logger Logger, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Server{
		cfg:         cfg,
		logger:      logger,
		metrics:     m,
		reprojector: sla.NewReprojector(cfg.Reprojection.Workers),
		defaults: job.Defaults{
			GridSize:       cfg.Optimization.GridSize,
			MaxEvaluations: cfg.Optimization.MaxEvaluations,
			Timeout:        cfg.Optimization.JobTimeout,
		},
		optimizations: make(map[string]*OptimizationState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
		r.Post("/reproject", s.handleReproject)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}

	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", request.ID)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "optimization.start":
		var spec job.Spec
		if err = decodeParams(request.Params, &spec); err == nil {
			result, err = s.StartOptimization(spec)
		}
	case "optimization.status":
		var p idParams
		if err = decodeParams(request.Params, &p); err == nil {
			result, err = s.OptimizationStatus(p.OptimizationID)
		}
	case "optimization.cancel":
		var p idParams
		if err = decodeParams(request.Params, &p); err == nil {
			err = s.CancelOptimization(p.OptimizationID)
			result = map[string]interface{}{"status": StatusCancelled}
		}
	case "mesh.reproject":
		var obj sla.ModelObject
		if err = decodeParams(request.Params, &obj); err == nil {
			result, err = s.Reproject(&obj)
		}
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, apperrors.KindOf(err).RPCCode(), err.Error(), request.ID)
		return
	}

	// Encode before writing so a failure can still be reported
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
	if err != nil {
		s.respondWithError(w, apperrors.KindInternal.RPCCode(), "encode result: "+err.Error(), request.ID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(append(body, '\n'))
}

// decodeParams accepts either a params object or an array whose first
// element is the object.
func decodeParams(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return apperrors.New(apperrors.KindInvalid, "missing required parameters")
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return apperrors.Wrap(err, apperrors.KindInvalid, "invalid parameter format")
		}
		if len(list) == 0 {
			return apperrors.New(apperrors.KindInvalid, "missing required parameters")
		}
		raw = list[0]
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.Wrap(err, apperrors.KindInvalid, "invalid parameter format, expected object")
	}
	return nil
}

// StartOptimization validates spec and runs it in the background.
func (s *Server) StartOptimization(spec job.Spec) (*StartResponse, error) {
	j, err := job.Prepare(spec, s.defaults)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInvalid, "invalid optimization request")
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	state := &OptimizationState{
		ID:          "opt_" + uuid.NewString(),
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		job:         j,
		cancel:      cancel,
	}

	s.optimizationsMu.Lock()
	if s.closed {
		s.optimizationsMu.Unlock()
		cancel()
		return nil, apperrors.New(apperrors.KindConflict, "server is shutting down")
	}
	if !s.makeRoomLocked() {
		s.optimizationsMu.Unlock()
		cancel()
		return nil, apperrors.Errorf(apperrors.KindConflict, "too many optimizations in progress (limit %d)", s.cfg.Optimization.MaxJobs)
	}
	s.optimizations[state.ID] = state
	// Added under the lock so Close cannot start waiting in between
	s.wg.Add(1)
	s.optimizationsMu.Unlock()

	s.logger.Info("Optimization started", map[string]interface{}{
		"optimization_id": state.ID,
		"backend":         spec.BackendName(),
		"dimensions":      len(spec.Bounds),
		"grid_size":       j.GridSize(),
		"max_iterations":  j.Limit(),
	})

	go s.runOptimization(ctx, state)

	return &StartResponse{OptimizationID: state.ID, Status: StatusPending}, nil
}

// makeRoomLocked evicts the oldest finished jobs until a new one fits. It
// reports false when every stored job is still active.
func (s *Server) makeRoomLocked() bool {
	limit := s.cfg.Optimization.MaxJobs
	if limit <= 0 || len(s.optimizations) < limit {
		return true
	}

	finished := make([]*OptimizationState, 0, len(s.optimizations))
	for _, st := range s.optimizations {
		if st.Status.Terminal() {
			finished = append(finished, st)
		}
	}
	sort.Slice(finished, func(i, k int) bool {
		return finished[i].LastUpdated.Before(finished[k].LastUpdated)
	})
	for _, st := range finished {
		if len(s.optimizations) < limit {
			break
		}
		delete(s.optimizations, st.ID)
	}
	return len(s.optimizations) < limit
}

// runOptimization executes the optimization process in a goroutine
func (s *Server) runOptimization(ctx context.Context, state *OptimizationState) {
	defer s.wg.Done()
	defer state.cancel()

	s.optimizationsMu.Lock()
	if state.Status == StatusPending {
		state.Status = StatusRunning
		state.LastUpdated = time.Now()
	}
	s.optimizationsMu.Unlock()

	backend := state.job.Spec.BackendName()
	done := s.metrics.JobStarted(backend)

	result, err := state.job.Run(ctx)

	s.optimizationsMu.Lock()
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
	// A search where every score was NaN has evaluations but no optimum.
	if result.Evaluated() && len(result.Optimum) > 0 {
		state.Result = &result
	}
	switch {
	case state.Status == StatusCancelled:
		// cancelled through CancelOptimization; keep the partial result
	case err == nil:
		state.Status = StatusCompleted
	case apperrors.Is(err, context.DeadlineExceeded):
		state.Status = StatusTimedOut
		state.Err = err.Error()
	case apperrors.Is(err, context.Canceled):
		state.Status = StatusCancelled
	default:
		state.Status = StatusFailed
		state.Err = err.Error()
	}
	status := state.Status

	// Metrics and the final log line are recorded before the status becomes
	// visible to readers.
	done(string(status), int(state.job.Evaluations()))
	fields := map[string]interface{}{
		"optimization_id": state.ID,
		"status":          string(status),
		"evaluations":     state.job.Evaluations(),
		"duration_ms":     now.Sub(state.StartTime).Milliseconds(),
	}
	if status == StatusFailed {
		fields["error"] = err
		s.logger.Error("Optimization failed", fields)
	} else {
		s.logger.Info("Optimization finished", fields)
	}
	s.optimizationsMu.Unlock()
}

// OptimizationStatus returns a snapshot of the job with the given ID.
func (s *Server) OptimizationStatus(id string) (*StatusResponse, error) {
	if id == "" {
		return nil, apperrors.New(apperrors.KindInvalid, "optimization_id is required")
	}

	s.optimizationsMu.RLock()
	defer s.optimizationsMu.RUnlock()

	state, ok := s.optimizations[id]
	if !ok {
		return nil, apperrors.Errorf(apperrors.KindNotFound, "optimization %q not found", id)
	}

	resp := &StatusResponse{
		OptimizationID: state.ID,
		Status:         state.Status,
		Backend:        state.job.Spec.BackendName(),
		Progress:       state.job.Progress(),
		Evaluations:    state.job.Evaluations(),
		GridSize:       state.job.GridSize(),
		StartTime:      state.StartTime.Format(time.RFC3339),
		LastUpdate:     state.LastUpdated.Format(time.RFC3339),
		Error:          state.Err,
	}
	if state.Status == StatusCompleted {
		resp.Progress = 1
	}
	if state.EndTime != nil {
		resp.EndTime = state.EndTime.Format(time.RFC3339)
	}
	if state.Result != nil {
		resp.BestSolution = &Solution{
			Parameters: append([]float64(nil), state.Result.Optimum...),
			Value:      job.Score(state.Result.Score),
		}
	}
	return resp, nil
}

// CancelOptimization stops a pending or running job.
func (s *Server) CancelOptimization(id string) error {
	if id == "" {
		return apperrors.New(apperrors.KindInvalid, "optimization_id is required")
	}

	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	state, ok := s.optimizations[id]
	if !ok {
		return apperrors.Errorf(apperrors.KindNotFound, "optimization %q not found", id)
	}
	if state.Status.Terminal() {
		return apperrors.Errorf(apperrors.KindConflict, "cannot cancel optimization with status: %s", state.Status)
	}

	state.cancel()
	state.Status = StatusCancelled
	state.LastUpdated = time.Now()

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": id,
	})
	return nil
}

// Reproject snaps the support points and drain holes of obj onto its mesh.
func (s *Server) Reproject(obj *sla.ModelObject) (*sla.ModelObject, error) {
	if obj.Mesh != nil {
		if err := obj.Mesh.Validate(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindInvalid, "invalid mesh")
		}
	}

	start := time.Now()
	out := s.reprojector.ReprojectPointsAndHoles(obj)
	s.metrics.Reprojected("support_point", len(obj.SupportPoints))
	s.metrics.Reprojected("drain_hole", len(obj.DrainHoles))

	s.logger.Debug("Points reprojected", map[string]interface{}{
		"support_points": len(obj.SupportPoints),
		"drain_holes":    len(obj.DrainHoles),
		"latency_ms":     float64(time.Since(start).Microseconds()) / 1000.0,
	})
	return out, nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("Request error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// Close cancels every active job and waits for the runners to return. Jobs
// started after Close are rejected.
func (s *Server) Close() error {
	s.optimizationsMu.Lock()
	s.closed = true
	for _, opt := range s.optimizations {
		if !opt.Status.Terminal() {
			opt.cancel()
		}
	}
	s.optimizationsMu.Unlock()

	s.wg.Wait()
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	// Encode before writing the header so a failure becomes a 500
	body, err := json.Marshal(v)
	if err != nil {
		apperrors.WriteHTTP(w, apperrors.Wrap(err, apperrors.KindInternal, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// handleOptimize handles POST /api/v1/optimize
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var spec job.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		apperrors.WriteHTTP(w, apperrors.Wrap(err, apperrors.KindInvalid, "invalid request body"))
		return
	}

	result, err := s.StartOptimization(spec)
	if err != nil {
		apperrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// handleStatus handles GET /api/v1/status/{id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.OptimizationStatus(chi.URLParam(r, "id"))
	if err != nil {
		apperrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCancel handles DELETE /api/v1/optimization/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.CancelOptimization(chi.URLParam(r, "id")); err != nil {
		apperrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "cancellation requested",
	})
}

// handleReproject handles POST /api/v1/reproject
func (s *Server) handleReproject(w http.ResponseWriter, r *http.Request) {
	var obj sla.ModelObject
	if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
		apperrors.WriteHTTP(w, apperrors.Wrap(err, apperrors.KindInvalid, "invalid request body"))
		return
	}

	out, err := s.Reproject(&obj)
	if err != nil {
		apperrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
