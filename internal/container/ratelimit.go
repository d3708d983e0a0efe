package container

import (
	"time"

	"github.com/samber/do"
	"github.com/serroba/quotagate/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimitPackage provides the fixed window limiter.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.FixedWindowLimiter, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		backend := do.MustInvoke[*Backend](i)

		config, err := ratelimit.ParseConfig([]byte(opts.RateLimitConfig))
		if err != nil {
			logger.Warn("invalid rate limit config, falling back to zero limits: every identified request will be blocked",
				zap.String("config", opts.RateLimitConfig),
				zap.Error(err),
			)
		} else if config.MaxRequests == 0 {
			logger.Warn("rate limit allows no requests per window", zap.Uint64("ttl_seconds", config.TTLSeconds))
		}

		limiterOpts := []ratelimit.Option{ratelimit.WithMaxAttempts(opts.MaxAttempts)}

		if opts.KeyPrefix != "" {
			limiterOpts = append(limiterOpts, ratelimit.WithKeyPrefix(opts.KeyPrefix))
		}

		if opts.RetryBackoffMin > 0 {
			limiterOpts = append(limiterOpts, ratelimit.WithBackoff(ratelimit.ExponentialBackoff{
				Min: time.Duration(opts.RetryBackoffMin) * time.Millisecond,
				Max: time.Duration(opts.RetryBackoffMax) * time.Millisecond,
			}))
		}

		logger.Info("rate limit configured",
			zap.Uint64("max_requests", config.MaxRequests),
			zap.Uint64("ttl_seconds", config.TTLSeconds),
			zap.Int("max_attempts", opts.MaxAttempts),
		)

		return ratelimit.NewFixedWindowLimiter(backend.Store(), config, logger, limiterOpts...), nil
	})
}
