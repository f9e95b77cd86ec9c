package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

// DigestRunner triggers the aggregation flows outside their schedule
type DigestRunner interface {
	RunJobListingsDigest(ctx context.Context, now time.Time) error
	RunApplicationsDigest(ctx context.Context, now time.Time) error
}

// AdminKeyHeader carries the operator API key
const AdminKeyHeader = "X-Admin-Key"

// AdminHandler serves operator endpoints
type AdminHandler struct {
	digests DigestRunner
	apiKey  string
	logger  *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(digests DigestRunner, apiKey string, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{digests: digests, apiKey: apiKey, logger: logger}
}

// RunDigests handles POST /v1/admin/digests/run. The flow query parameter
// selects "listings", "applications", or both when absent.
func (h *AdminHandler) RunDigests(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		WriteError(w, model.NewUnauthorizedError("Invalid admin API key"))
		return
	}

	flow := r.URL.Query().Get("flow")
	now := time.Now().UTC()
	ran := []string{}

	if flow == "" || flow == "listings" {
		if err := h.digests.RunJobListingsDigest(r.Context(), now); err != nil {
			h.logger.Error("manual job listings digest failed", zap.Error(err))
			WriteError(w, err)
			return
		}
		ran = append(ran, "listings")
	}
	if flow == "" || flow == "applications" {
		if err := h.digests.RunApplicationsDigest(r.Context(), now); err != nil {
			h.logger.Error("manual applications digest failed", zap.Error(err))
			WriteError(w, err)
			return
		}
		ran = append(ran, "applications")
	}

	if len(ran) == 0 {
		WriteError(w, model.NewBadRequestError("Unknown flow, expected listings or applications"))
		return
	}

	h.logger.Info("manual digest run complete", zap.Strings("flows", ran))
	WriteData(w, http.StatusOK, map[string]interface{}{"ran": ran, "at": now})
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	if h.apiKey == "" {
		return false
	}
	key := r.Header.Get(AdminKeyHeader)
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.apiKey)) == 1
}
