package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/quotagate/internal/analytics"
	"github.com/serroba/quotagate/internal/handlers"
	"github.com/serroba/quotagate/internal/messaging"
	"github.com/serroba/quotagate/internal/ratelimit"
	"go.uber.org/zap"
)

// Response headers attached to allowed requests.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

type blockedBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter uint64 `json:"retry_after"`
}

type failedBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RateLimiter returns a Huma middleware that counts requests per client, read
// from clientHeader. Requests without the header are not limited. Blocked and
// failed requests get a terminal JSON response and are published as
// analytics.LimitEvent; publish failures never change the response.
func RateLimiter(
	limiter ratelimit.Limiter,
	publish messaging.Publish[analytics.LimitEvent],
	clientHeader string,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		path := getOperationPath(ctx)

		if cfg := ratelimit.GetEndpointConfig(ctx); cfg != nil && cfg.Disabled {
			logger.Debug("rate limiting disabled for endpoint",
				zap.String("path", path), zap.String("method", ctx.Method()))
			next(ctx)

			return
		}

		clientID := ctx.Header(clientHeader)
		if clientID == "" {
			logger.Info("no client identifier, skipping rate limit",
				zap.String("header", clientHeader),
				zap.String("path", path),
			)
			next(ctx)

			return
		}

		decision := limiter.Allow(ctx.Context(), clientID)

		if decision.WindowDegraded {
			logger.Warn("rate limit window degraded, reset time is best-effort",
				zap.String("client_id", clientID),
				zap.String("outcome", decision.Outcome.String()),
				zap.String("path", path),
			)
		}

		switch decision.Outcome {
		case ratelimit.OutcomeBypass:
			next(ctx)
		case ratelimit.OutcomeAllow:
			ctx.SetHeader(HeaderLimit, strconv.FormatUint(decision.Limit, 10))
			ctx.SetHeader(HeaderRemaining, strconv.FormatUint(decision.Remaining, 10))
			ctx.SetHeader(HeaderReset, strconv.FormatUint(decision.ResetIn, 10))
			next(ctx)
		case ratelimit.OutcomeBlock:
			logger.Warn("rate limit exceeded",
				zap.String("client_id", clientID),
				zap.Uint64("count", decision.Count),
				zap.Uint64("max", decision.Limit),
				zap.Uint64("retry_after", decision.RetryAfter),
				zap.Bool("window_reset", decision.WindowReset),
				zap.String("path", path),
			)
			publishOutcome(ctx, publish, clientID, path, decision, logger)
			ctx.SetHeader(HeaderRetryAfter, strconv.FormatUint(decision.RetryAfter, 10))
			writeJSON(ctx, logger, http.StatusTooManyRequests, blockedBody{
				Error:      "Too Many Requests",
				Message:    fmt.Sprintf("Client %s exceeded rate limit (%d reqs).", clientID, decision.Count),
				RetryAfter: decision.RetryAfter,
			})
		default:
			logger.Error("rate limit check failed",
				zap.String("client_id", clientID),
				zap.String("reason", decision.Reason),
				zap.String("path", path),
				zap.Error(decision.Err),
			)
			publishOutcome(ctx, publish, clientID, path, decision, logger)
			writeJSON(ctx, logger, http.StatusInternalServerError, failedBody{
				Error:   "Internal Server Error",
				Message: "Could not update request counter.",
			})
		}
	}
}

// getOperationPath extracts the path from the operation, if available.
func getOperationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}

func publishOutcome(
	ctx huma.Context,
	publish messaging.Publish[analytics.LimitEvent],
	clientID, path string,
	decision ratelimit.Decision,
	logger *zap.Logger,
) {
	event := &analytics.LimitEvent{
		RequestID:  handlers.RequestMetaFromContext(ctx.Context()).RequestID,
		ClientID:   clientID,
		Outcome:    decision.Outcome.String(),
		Count:      decision.Count,
		Limit:      decision.Limit,
		RetryAfter: decision.RetryAfter,
		Reason:     decision.Reason,
		Method:     ctx.Method(),
		Path:       path,
		OccurredAt: time.Now().UTC(),

		WindowDegraded: decision.WindowDegraded,
	}

	if err := publish(ctx.Context(), event); err != nil {
		logger.Warn("failed to publish limit event",
			zap.String("client_id", clientID),
			zap.String("outcome", event.Outcome),
			zap.Error(err),
		)
	}
}

// writeJSON writes a terminal JSON response. When body cannot be encoded the
// status is kept and a body carrying only the status text is written.
func writeJSON(ctx huma.Context, logger *zap.Logger, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		logger.Error("failed to encode rate limit response", zap.Int("status", status), zap.Error(err))

		payload = []byte(`{"error":"` + http.StatusText(status) + `"}`)
	}

	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetStatus(status)
	_, _ = ctx.BodyWriter().Write(payload)
}
