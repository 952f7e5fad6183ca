package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	enrollhandler "loyalty-gateway/internal/enroll/handler"
	"loyalty-gateway/internal/platform/health"
	"loyalty-gateway/internal/platform/middleware"
	profilehandler "loyalty-gateway/internal/profile/handler"
	"loyalty-gateway/internal/verify"
)

// Deps collects everything the router mounts. The transport layer stays
// thin; all business logic lives behind the handlers.
type Deps struct {
	Enroll  *enrollhandler.Handler
	Profile *profilehandler.Handler
	Verify  *verify.Handler
	Health  *health.Handler

	Logger         *slog.Logger
	Gatekeeper     middleware.GatekeeperConfig
	RequestTimeout time.Duration
}

// NewRouter wires all endpoints with the middleware stack. Health probes
// and metrics stay outside the gatekeeper so orchestrators can reach them
// without the shared key.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(deps.RequestTimeout))
	r.Use(middleware.ContentTypeJSON)

	deps.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Gatekeeper(deps.Gatekeeper))

		deps.Enroll.Register(r)
		deps.Profile.Register(r)
		deps.Verify.Register(r)
	})

	return r
}
