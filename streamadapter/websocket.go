package streamadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akfldk1028/ARR-sub002/coordinator"
	"github.com/akfldk1028/ARR-sub002/internal/ctxkeys"
	"github.com/akfldk1028/ARR-sub002/korerr"
)

// Handler upgrades a request to a WebSocket, reads one query frame, and
// streams the coordinator's progress events back.
type Handler struct {
	coord  *coordinator.Coordinator
	logger *zap.Logger
}

// NewHandler wires the adapter.
func NewHandler(coord *coordinator.Coordinator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{coord: coord, logger: logger.With(zap.String("component", "stream_adapter"))}
}

// queryFrame is the single inbound message.
type queryFrame struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	ctx := r.Context()
	traceID := r.Header.Get("X-Trace-Id")
	if traceID == "" {
		traceID = uuid.NewString()
	}
	ctx = ctxkeys.WithTraceID(ctx, traceID)

	readCtx, cancelRead := context.WithTimeout(ctx, 30*time.Second)
	_, raw, err := conn.Read(readCtx)
	cancelRead()
	if err != nil {
		conn.Close(websocket.StatusPolicyViolation, "no query received")
		return
	}
	var frame queryFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Query == "" {
		conn.Close(websocket.StatusUnsupportedData, "malformed query frame")
		return
	}

	writeEvent := func(ev coordinator.Event) {
		payload, err := json.Marshal(ev)
		if err != nil {
			return
		}
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := conn.Write(writeCtx, websocket.MessageText, payload); err != nil {
			h.logger.Debug("stream write failed", zap.Error(err))
		}
	}

	_, err = h.coord.Query(ctx, frame.Query, frame.Limit, writeEvent)
	if err != nil {
		kind, _ := korerr.KindOf(err)
		// The coordinator emits no error event of its own, so the
		// terminal error frame for a failed query is written here.
		writeEvent(coordinator.Event{
			Status:  coordinator.StatusError,
			Message: string(kind),
		})
	}

	conn.Close(websocket.StatusNormalClosure, "")
}
