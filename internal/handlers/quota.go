package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/quotagate/internal/ratelimit"
	"go.uber.org/zap"
)

// QuotaStore reads and clears a client's quota records.
type QuotaStore interface {
	Inspect(ctx context.Context, clientKey string) (ratelimit.Snapshot, error)
	Reset(ctx context.Context, clientKey string) error
}

// QuotaHandler handles quota administration operations.
type QuotaHandler struct {
	quotas QuotaStore
	logger *zap.Logger
}

// NewQuotaHandler creates a new quota handler.
func NewQuotaHandler(quotas QuotaStore, logger *zap.Logger) *QuotaHandler {
	return &QuotaHandler{quotas: quotas, logger: logger}
}

func (h *QuotaHandler) GetQuota(ctx context.Context, req *QuotaRequest) (*QuotaResponse, error) {
	snapshot, err := h.quotas.Inspect(ctx, req.ClientID)
	if err != nil {
		h.logger.Error("failed to inspect quota",
			zap.String("client_id", req.ClientID),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to read quota")
	}

	resp := &QuotaResponse{}
	resp.Body.ClientID = req.ClientID
	resp.Body.Limit = snapshot.Limit
	resp.Body.Count = snapshot.Count
	resp.Body.Remaining = snapshot.Remaining
	resp.Body.ResetAt = snapshot.ResetAt
	resp.Body.ResetIn = snapshot.ResetIn

	return resp, nil
}

func (h *QuotaHandler) ResetQuota(ctx context.Context, req *QuotaRequest) (*struct{}, error) {
	if err := h.quotas.Reset(ctx, req.ClientID); err != nil {
		h.logger.Error("failed to reset quota",
			zap.String("client_id", req.ClientID),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to reset quota")
	}

	return &struct{}{}, nil
}
