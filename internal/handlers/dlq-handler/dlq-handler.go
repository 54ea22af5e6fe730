package dlq_handler

import (
	"context"
	"encoding/json"
	"net/http"

	app_error "github.com/malek283/shop-chat/internal/errors"
	"github.com/malek283/shop-chat/internal/handlers"
	"github.com/malek283/shop-chat/internal/middleware"
)

// StatsProvider is the slice of the worker pool the ops surface needs.
type StatsProvider interface {
	GetDLQStats(ctx context.Context) (map[string]int64, error)
}

type DLQHandler struct {
	Pool StatsProvider
}

func NewDLQHandler(pool StatsProvider) *DLQHandler {
	return &DLQHandler{
		Pool: pool,
	}
}

// HandleGetStats reports archived dead-letter jobs grouped by status.
func (h *DLQHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	stats, err := h.Pool.GetDLQStats(r.Context())
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to fetch dead letter stats", "dlq-stats")
	}

	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		reqID = "unknown"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("get dead letter stats", stats, reqID))
	return nil
}
