package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "userhub/docs" // registra a especificação OpenAPI
	"userhub/internal/api/user"
	"userhub/internal/pkg/cache"
	"userhub/internal/pkg/logger"
	"userhub/internal/pkg/middleware"
)

// Options reúne as configurações opcionais do roteador.
type Options struct {
	AllowedOrigins []string

	// RateLimiter só é aplicado quando Cache não é nil.
	Cache           cache.Client
	RateLimitMax    int
	RateLimitPeriod time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(userHandler *user.Handler, log logger.Logger, opts Options) http.Handler {
	r := chi.NewRouter()

	// --- 1. Middlewares globais ---
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.Cache != nil {
		r.Use(middleware.RateLimiter(opts.Cache, opts.RateLimitMax, opts.RateLimitPeriod, log))
	}

	// --- 2. Health Check e documentação ---
	r.Get("/ping", PingHandler)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 3. Recurso de usuários ---
	r.Mount("/api/users", userHandler.Routes())

	return r
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
