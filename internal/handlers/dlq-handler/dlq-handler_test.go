package dlq_handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malek283/shop-chat/internal/handlers"
)

type stubStats struct {
	stats map[string]int64
	err   error
}

func (s *stubStats) GetDLQStats(ctx context.Context) (map[string]int64, error) {
	return s.stats, s.err
}

func TestGetDLQStats(t *testing.T) {
	h := NewDLQHandler(&stubStats{stats: map[string]int64{"pending": 3, "completed": 12}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dlq/stats", nil)
	handlers.WrapHandler(h.HandleGetStats).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data map[string]int64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.Data["pending"])
	assert.Equal(t, int64(12), body.Data["completed"])
}

func TestGetDLQStatsFailure(t *testing.T) {
	h := NewDLQHandler(&stubStats{err: errors.New("mongo unreachable")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dlq/stats", nil)
	handlers.WrapHandler(h.HandleGetStats).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
