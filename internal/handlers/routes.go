package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/quotagate/internal/ratelimit"
)

// RegisterRoutes registers the rate limited API and the quota administration routes.
func RegisterRoutes(api huma.API, ping *PingHandler, quota *QuotaHandler) {
	// GET /v1/ping - counted against the caller's quota
	huma.Register(api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/v1/ping",
		Summary:     "Ping",
		Description: "Answers pong. Requests carrying a client identifier count against its quota.",
		Tags:        []string{"Demo"},
	}, ping.Ping)

	// Admin routes must keep working for clients that are over quota.
	huma.Register(api, huma.Operation{
		OperationID: "get-quota",
		Method:      http.MethodGet,
		Path:        "/v1/quota/{clientId}",
		Summary:     "Inspect quota",
		Description: "Reads a client's counter and window without counting a request.",
		Tags:        []string{"Quota"},
		Metadata:    ratelimit.Exempt(),
	}, quota.GetQuota)

	huma.Register(api, huma.Operation{
		OperationID:   "reset-quota",
		Method:        http.MethodDelete,
		Path:          "/v1/quota/{clientId}",
		Summary:       "Reset quota",
		Description:   "Clears a client's counter and window so its next request opens a fresh window.",
		Tags:          []string{"Quota"},
		DefaultStatus: http.StatusNoContent,
		Metadata:      ratelimit.Exempt(),
	}, quota.ResetQuota)
}
