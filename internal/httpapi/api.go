package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"saletrack.org/internal/auth"
	"saletrack.org/internal/obs"
	"saletrack.org/internal/sales"
)

// ReadyProbe reports whether the service can take traffic.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	tokens     *auth.TokenService
	challenges *auth.ChallengeService
	identities auth.IdentityStore
	sales      *sales.Service

	rateBurst  int
	ratePerSec int
	maxBody    int64
}

// Option customizes the API's transport limits.
type Option func(*API)

// WithRateLimit overrides the per-IP token bucket parameters.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		a.rateBurst = burst
		a.ratePerSec = perSecond
	}
}

// WithMaxBodyBytes overrides the request body size cap.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) { a.maxBody = n }
}

func New(rp ReadyProbe, version string, tokens *auth.TokenService, challenges *auth.ChallengeService, identities auth.IdentityStore, salesSvc *sales.Service, opts ...Option) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		tokens:     tokens,
		challenges: challenges,
		identities: identities,
		sales:      salesSvc,
		rateBurst:  20,
		ratePerSec: 10,
		maxBody:    1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// authentication
	a.mux.HandleFunc("/v1/auth/challenge", a.handleChallenge)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)

	// sale records
	a.mux.HandleFunc("/v1/sales", a.handleSalesCollection)
	a.mux.HandleFunc("/v1/sales/", a.handleSaleResource)

	// reference data and aggregates
	a.mux.HandleFunc("/v1/products", a.handleProducts)
	a.mux.HandleFunc("/v1/franchises", a.handleFranchises)
	a.mux.HandleFunc("/v1/statuses", a.handleStatuses)
	a.mux.HandleFunc("/v1/roles", a.handleRoles)
	a.mux.HandleFunc("/v1/stats", a.handleStats)

	// user administration
	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.MetricsHandler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.maxBody)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}
