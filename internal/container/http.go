package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
	"github.com/samber/do"
	"github.com/serroba/quotagate/internal/analytics"
	"github.com/serroba/quotagate/internal/handlers"
	"github.com/serroba/quotagate/internal/health"
	"github.com/serroba/quotagate/internal/messaging"
	"github.com/serroba/quotagate/internal/middleware"
	"github.com/serroba/quotagate/internal/ratelimit"
	"go.uber.org/zap"
)

const requestIDLength = 21

// HTTPPackage provides the router and the API with all middlewares and routes registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		backend := do.MustInvoke[*Backend](i)
		limiter := do.MustInvoke[*ratelimit.FixedWindowLimiter](i)
		publish := do.MustInvoke[messaging.Publish[analytics.LimitEvent]](i)

		newRequestID, err := nanoid.Standard(requestIDLength)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig("Quota Gate", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(opts.ClientHeader, newRequestID))
		api.UseMiddleware(middleware.RateLimiter(limiter, publish, opts.ClientHeader, logger))

		handlers.RegisterRoutes(api, handlers.NewPingHandler(), handlers.NewQuotaHandler(limiter, logger))
		health.RegisterRoutes(api, health.NewHandler(backend.Name, backend.Checker()))

		return api, nil
	})
}
