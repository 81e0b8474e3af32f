package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akfldk1028/ARR-sub002/coordinator"
	"github.com/akfldk1028/ARR-sub002/domain"
	"github.com/akfldk1028/ARR-sub002/internal/ctxkeys"
	"github.com/akfldk1028/ARR-sub002/korerr"
)

// Response is the uniform JSON envelope.
type Response struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler serves the admin and query endpoints.
type Handler struct {
	manager *domain.Manager
	coord   *coordinator.Coordinator
	logger  *zap.Logger
}

// NewHandler wires the HTTP surface.
func NewHandler(manager *domain.Manager, coord *coordinator.Coordinator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{manager: manager, coord: coord, logger: logger.With(zap.String("component", "api"))}
}

// RegisterRoutes attaches every endpoint to mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/domains", h.withTrace(h.listDomains))
	mux.HandleFunc("POST /api/v1/rebalance", h.withTrace(h.rebalance))
	mux.HandleFunc("POST /api/v1/domains/initialize", h.withTrace(h.initialize))
	mux.HandleFunc("POST /api/v1/query", h.withTrace(h.query))
}

// withTrace stamps each request with a trace id so log lines from the
// pipeline can be correlated back to the request.
func (h *Handler) withTrace(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		ctx := ctxkeys.WithTraceID(r.Context(), traceID)
		w.Header().Set("X-Trace-Id", traceID)
		next(w, r.WithContext(ctx))
	}
}

// domainSummary is one row of the list_domains response.
type domainSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Size            int    `json:"size"`
	CentroidSummary string `json:"centroid_summary"`
	NeighborCount   int    `json:"neighbor_count"`
}

func (h *Handler) listDomains(w http.ResponseWriter, r *http.Request) {
	snapshot := h.manager.Store().Current()
	summaries := make([]domainSummary, 0, snapshot.Len())
	for _, d := range snapshot.Domains() {
		summaries = append(summaries, domainSummary{
			ID:              d.DomainID,
			Name:            d.Name,
			Size:            d.Size(),
			CentroidSummary: centroidSummary(d.Centroid),
			NeighborCount:   len(d.Neighbors),
		})
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: summaries, Timestamp: time.Now()})
}

func (h *Handler) rebalance(w http.ResponseWriter, r *http.Request) {
	report, err := h.manager.RebalanceNow(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: report, Timestamp: time.Now()})
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	report, err := h.manager.InitializePartition(r.Context())
	if err != nil {
		if errors.Is(err, korerr.ErrEmptyCorpus) {
			// Reported, not a failure: there is simply nothing to
			// partition yet.
			h.writeJSON(w, http.StatusOK, Response{
				Success:   true,
				Data:      report,
				Error:     "corpus has no embedded paragraphs",
				ErrorKind: string(korerr.KindEmptyCorpus),
				Timestamp: time.Now(),
			})
			return
		}
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: report, Timestamp: time.Now()})
}

// queryRequest is the synchronous query body.
type queryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		h.writeJSON(w, http.StatusBadRequest, Response{
			Success:   false,
			Error:     "body must be {\"query\": string, \"limit\": int}",
			Timestamp: time.Now(),
		})
		return
	}
	result, err := h.coord.Query(r.Context(), req.Query, req.Limit, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: result, Timestamp: time.Now()})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind, known := korerr.KindOf(err)
	status := http.StatusInternalServerError
	if known {
		switch kind {
		case korerr.KindCoordinatorDeadlineExceeded, korerr.KindAgentDeadlineExceeded:
			status = http.StatusGatewayTimeout
		case korerr.KindRateLimited:
			status = http.StatusTooManyRequests
		case korerr.KindEmptyCorpus:
			status = http.StatusOK
		}
	}
	h.logger.Warn("request failed", zap.String("error_kind", string(kind)), zap.Error(err))
	h.writeJSON(w, status, Response{
		Success:   false,
		Error:     err.Error(),
		ErrorKind: string(kind),
		Timestamp: time.Now(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("response encode failed", zap.Error(err))
	}
}

func centroidSummary(centroid []float64) string {
	if len(centroid) == 0 {
		return ""
	}
	// First four components, enough to eyeball drift between passes.
	n := 4
	if len(centroid) < n {
		n = len(centroid)
	}
	out := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ", "
		}
		out += strconv.FormatFloat(centroid[i], 'f', 4, 64)
	}
	return out + ", ...]"
}
