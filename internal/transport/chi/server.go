package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/index"
	"github.com/kailas-cloud/simdex/internal/domain/options"
	"github.com/kailas-cloud/simdex/internal/domain/snapshot"
	logpkg "github.com/kailas-cloud/simdex/internal/logger"
	healthuc "github.com/kailas-cloud/simdex/internal/usecase/health"
	trainuc "github.com/kailas-cloud/simdex/internal/usecase/train"
	"github.com/kailas-cloud/simdex/internal/version"
)

const defaultMaxBodyBytes = 64 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the recommender HTTP API.
type Server struct {
	recommender   *trainuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	trainTimeout  time.Duration
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(recommender *trainuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		recommender:  recommender,
		health:       health,
		logger:       logger,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidConfiguration, http.StatusBadRequest, codeInvalidConfiguration),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrSnapshotNotFound, http.StatusNotFound, codeSnapshotNotFound),
		sentinelHandler(domain.ErrNotTrained, http.StatusConflict, codeNotTrained),
		sentinelHandler(trainuc.ErrStorageDisabled, http.StatusNotImplemented, codeStorageDisabled),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, codeTimeout),
	}
	return s
}

// WithTrainTimeout bounds every training request. Zero means no bound.
func (s *Server) WithTrainTimeout(d time.Duration) *Server {
	s.trainTimeout = d
	return s
}

// WithMaxBodyBytes limits request bodies.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/train", s.Train)
		r.Post("/train/bidirectional", s.TrainBidirectional)
		r.Get("/documents/{id}/similar", s.SimilarDocuments)
		r.Get("/status", s.Status)
		r.Get("/options", s.GetOptions)
		r.Put("/options", s.PutOptions)
		r.Get("/snapshot", s.ExportSnapshot)
		r.Put("/snapshot", s.ImportSnapshot)
		r.Post("/snapshot/persist", s.PersistSnapshot)
		r.Post("/snapshot/restore", s.RestoreSnapshot)
		r.Delete("/snapshot/persisted", s.DiscardSnapshot)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
}

// Train handles POST /api/v1/train.
func (s *Server) Train(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	docs, err := document.DecodeList(body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, cancel := s.trainContext(r.Context())
	defer cancel()
	if err := s.recommender.Train(ctx, docs); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, trainResponse{
		Documents: len(docs),
		State:     s.recommender.State().String(),
	})
}

// TrainBidirectional handles POST /api/v1/train/bidirectional.
func (s *Server) TrainBidirectional(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req bidirectionalRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Source) == 0 || len(req.Target) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "source and target are required")
		return
	}

	as, err := document.DecodeList(req.Source)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("source: %w", err))
		return
	}
	bs, err := document.DecodeList(req.Target)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("target: %w", err))
		return
	}

	ctx, cancel := s.trainContext(r.Context())
	defer cancel()
	if err := s.recommender.TrainBidirectional(ctx, as, bs); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, trainResponse{
		Documents: len(as) + len(bs),
		State:     s.recommender.State().String(),
	})
}

// SimilarDocuments handles GET /api/v1/documents/{id}/similar.
func (s *Server) SimilarDocuments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	start, err := intParam(r, "start", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	size, err := intParam(r, "size", index.All)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	page := s.recommender.SimilarDocuments(id, start, size)
	items := make([]similarItem, len(page.Items))
	for i, e := range page.Items {
		items[i] = similarItem{ID: e.ID, Score: e.Score}
	}
	writeJSON(w, http.StatusOK, similarResponse{Items: items, Start: page.Start, Total: page.Total})
}

// Status handles GET /api/v1/status.
func (s *Server) Status(w http.ResponseWriter, _ *http.Request) {
	snap := s.recommender.Export()
	resp := statusResponse{
		State:     s.recommender.State().String(),
		Documents: snap.Index.Len(),
		Edges:     snap.Index.Edges(),
		Options:   optionsToResponse(snap.Options),
		Version:   version.Version,
	}
	if at := s.recommender.TrainedAt(); !at.IsZero() {
		ts := at.UTC().Format(time.RFC3339)
		resp.TrainedAt = &ts
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOptions handles GET /api/v1/options.
func (s *Server) GetOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, optionsToResponse(s.recommender.Options()))
}

// PutOptions handles PUT /api/v1/options.
func (s *Server) PutOptions(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req optionsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	opts, err := optionsFromRequest(req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.recommender.Configure(opts); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, optionsToResponse(opts))
}

// ExportSnapshot handles GET /api/v1/snapshot.
func (s *Server) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.recommender.Export()
	data, err := snapshot.Encode(&snap)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ImportSnapshot handles PUT /api/v1/snapshot.
func (s *Server) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	snap, err := snapshot.Decode(body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.recommender.Import(&snap); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trainResponse{
		Documents: snap.Index.Len(),
		State:     s.recommender.State().String(),
	})
}

// PersistSnapshot handles POST /api/v1/snapshot/persist.
func (s *Server) PersistSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.recommender.Persist(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreSnapshot handles POST /api/v1/snapshot/restore.
func (s *Server) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.recommender.Restore(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	snap := s.recommender.Export()
	writeJSON(w, http.StatusOK, trainResponse{
		Documents: snap.Index.Len(),
		State:     s.recommender.State().String(),
	})
}

// DiscardSnapshot handles DELETE /api/v1/snapshot/persisted.
func (s *Server) DiscardSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.recommender.Discard(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) trainContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.trainTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.trainTimeout)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	return body, true
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", name, v)
	}
	return v, nil
}

func optionsFromRequest(req optionsRequest) (options.Options, error) {
	maxVector := options.DefaultMaxVectorSize
	if req.MaxVectorSize != nil {
		maxVector = *req.MaxVectorSize
	}
	maxSimilar := options.Unbounded
	if req.MaxSimilarDocuments != nil {
		maxSimilar = *req.MaxSimilarDocuments
	}
	minScore := options.DefaultMinScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}
	opts, err := options.New(maxVector, maxSimilar, minScore)
	if err != nil {
		return options.Options{}, fmt.Errorf("options: %w", err)
	}
	return opts, nil
}

func optionsToResponse(o options.Options) optionsResponse {
	return optionsResponse{
		MaxVectorSize:       o.MaxVectorSize(),
		MaxSimilarDocuments: o.MaxSimilarDocuments(),
		MinScore:            o.MinScore(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation errors describe the offending field; other sentinels use their own text.
func safeDomainMessage(err error) string {
	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Error()
	}
	var shapeErr *domain.InputShapeError
	if errors.As(err, &shapeErr) {
		return shapeErr.Error()
	}
	sentinels := []error{
		domain.ErrInvalidConfiguration,
		domain.ErrInvalidInput,
		domain.ErrSnapshotNotFound,
		domain.ErrNotTrained,
		trainuc.ErrStorageDisabled,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContextOr(r.Context(),
		s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context()))))
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
