package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
	"github.com/majesticmotors/dealerauth/internal/auth/ratelimit"
	"github.com/majesticmotors/dealerauth/internal/auth/service"
	"github.com/majesticmotors/dealerauth/internal/auth/store"
	"github.com/majesticmotors/dealerauth/pkg/httpx"
	"github.com/majesticmotors/dealerauth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	cache *redis.Client

	Credentials  *service.CredentialsService
	Sessions     *service.SessionService
	SecondFactor *service.SecondFactorService
	TOTP         *service.TOTPService
	Roles        *service.RolesService
	Limiter      *ratelimit.Limiter
}

func NewRouter(buildVersion string, st store.Store, cache *redis.Client, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		cache:        cache,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSignin()
	r.registerChallenge()
	r.registerTOTP()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSignin() {
	h := &SigninHandler{
		Credentials:  r.Credentials,
		Sessions:     r.Sessions,
		SecondFactor: r.SecondFactor,
		Limiter:      r.Limiter,
	}

	// The per-account limiter lives in the handler; the per-IP bucket here
	// just blunts dumb floods.
	r.Mux.Handle("POST /v1/signin",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))
}

func (r *Router) registerChallenge() {
	h := &ChallengeHandler{
		SecondFactor: r.SecondFactor,
		Limiter:      r.Limiter,
	}

	// Pending sessions are allowed here: these routes complete the sign-in.
	pendingAuthn := AuthnMiddleware(r.Sessions, r.store.Users(), true)

	r.Mux.Handle("POST /v1/challenge/resend",
		httpx.Chain(http.HandlerFunc(h.HandleResend),
			pendingAuthn,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))

	r.Mux.Handle("POST /v1/challenge/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			pendingAuthn,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
}

func (r *Router) registerTOTP() {
	h := &TOTPHandler{TOTP: r.TOTP}

	authn := AuthnMiddleware(r.Sessions, r.store.Users(), false)

	r.Mux.Handle("POST /v1/totp/setup",
		httpx.Chain(http.HandlerFunc(h.HandleSetup),
			authn,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))

	r.Mux.Handle("POST /v1/totp/enable",
		httpx.Chain(http.HandlerFunc(h.HandleEnable),
			authn,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))

	r.Mux.Handle("DELETE /v1/totp",
		httpx.Chain(http.HandlerFunc(h.HandleDisable),
			authn,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))

	r.Mux.Handle("GET /v1/totp",
		httpx.Chain(http.HandlerFunc(h.HandleStatus),
			authn,
			httpx.RateLimitByUser(httpx.LenientLimit),
		))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		Roles:    r.Roles,
		Sessions: r.Sessions,
	}

	authn := AuthnMiddleware(r.Sessions, r.store.Users(), false)

	r.Mux.Handle("PUT /v1/users/{id}/role",
		httpx.Chain(http.HandlerFunc(h.HandleRoleUpdate),
			authn,
			RequireRole(domain.RoleSuperAdmin),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))

	r.Mux.Handle("POST /v1/signout",
		httpx.Chain(http.HandlerFunc(h.HandleSignout),
			authn,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.cache))
}
