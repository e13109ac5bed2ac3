package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/identity"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/service"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/cycastic/portfolio-toolkit/pkg/httpx"
	"github.com/cycastic/portfolio-toolkit/pkg/jwtx"
	"github.com/cycastic/portfolio-toolkit/pkg/slogx"

	_ "github.com/cycastic/portfolio-toolkit/api/portfolio" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       jwtx.Signer
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store               store.Store
	CredentialService   *service.CredentialService
	UserService         *service.UserService
	VerificationService *service.VerificationService
	ProjectService      *service.ProjectService
	ListingService      *service.ListingService
}

func NewRouter(
	signer jwtx.Signer,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		identity.Middleware(r.verifier, st.Users()),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProjects()
	r.registerListings()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Portfolio Toolkit API
//	@version		0.1.0
//	@description	Authentication and path-scoped access control for project-hosted listings.
//	@description
//	@description				Session tokens are EdDSA-signed JWTs carrying the caller's roles and security stamp.
//
//	@contact.name				Portfolio Toolkit
//	@contact.url				https://github.com/cycastic/portfolio-toolkit
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{CredentialService: r.CredentialService}
	registerHandler := &RegisterHandler{UserService: r.UserService}
	completeHandler := &CompleteHandler{VerificationService: r.VerificationService}

	// POST /v1/auth/login - strict rate limit by IP + email to slow brute force
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "email"),
		),
	)

	// POST /v1/auth/register - strict rate limit by IP
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /v1/auth/complete - presigned link target, moderate by IP
	r.Mux.Handle("GET /v1/auth/complete",
		httpx.Chain(completeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProjects() {
	projectsHandler := &ProjectsHandler{ProjectService: r.ProjectService}

	r.Mux.Handle("GET /v1/projects",
		httpx.Chain(http.HandlerFunc(projectsHandler.HandleList),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/projects/{id}",
		httpx.Chain(http.HandlerFunc(projectsHandler.HandleGet),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /v1/projects/{id}/policies",
		httpx.Chain(http.HandlerFunc(projectsHandler.HandleListPolicies),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/projects/{id}/policies",
		httpx.Chain(http.HandlerFunc(projectsHandler.HandleCreatePolicy),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/projects/{id}/policies",
		httpx.Chain(http.HandlerFunc(projectsHandler.HandleDeletePolicies),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerListings() {
	listingsHandler := &ListingsHandler{ListingService: r.ListingService}

	r.Mux.Handle("GET /v1/listings",
		httpx.Chain(http.HandlerFunc(listingsHandler.HandleQuery),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/folders",
		httpx.Chain(http.HandlerFunc(listingsHandler.HandleFolder),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// Attachments live under their own prefix because the multi-segment
	// listing path wildcard has to terminate the pattern.
	r.Mux.Handle("POST /v1/attachments/overwrite",
		httpx.Chain(http.HandlerFunc(listingsHandler.HandleOverwrite),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/attachments/{path...}",
		httpx.Chain(http.HandlerFunc(listingsHandler.HandleDownloadURL),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/attachments/{path...}",
		httpx.Chain(http.HandlerFunc(listingsHandler.HandleUploadURL),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/listings/{path...}",
		httpx.Chain(http.HandlerFunc(listingsHandler.HandleGet),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /v1/listings/{path...}",
		httpx.Chain(http.HandlerFunc(listingsHandler.HandleCreateText),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.signer),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
