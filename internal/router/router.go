package router

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "softpet/docs"
	"softpet/internal/adapters/auth/jwtauth"
	"softpet/internal/adapters/auth/session"
	mem "softpet/internal/adapters/storage/memory"
	pg "softpet/internal/adapters/storage/postgres"
	"softpet/internal/domain/pets"
	"softpet/internal/domain/users"
	"softpet/internal/middleware"
	"softpet/internal/platform/config"
	"softpet/internal/platform/logger"
	"softpet/internal/ports/events"
	"softpet/internal/web"
)

const metricsNamespace = "softpet"

type Options struct {
	Config config.Config
	Logger logger.Logger

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: destino de eventos de mascotas (RabbitMQ). nil => no-op.
	Publisher events.Publisher

	// Opcional: registry propio (los tests arman varios routers por proceso).
	MetricsRegistry *prometheus.Registry
}

func NewRouter(opts Options) (http.Handler, error) {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	tokens, err := jwtauth.New(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("router: token service: %w", err)
	}
	cookies := session.NewCookies(session.CookieConfig{
		Name:   cfg.CookieName,
		Secure: cfg.IsProduction(),
		MaxAge: tokens.TTL(),
	})
	gate := session.NewGate(cookies, tokens, log)

	reg := opts.MetricsRegistry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.Tracing(cfg.AppName))
	r.Use(middleware.Metrics(metricsNamespace, reg))
	r.Use(middleware.AuthContext(gate))
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.SessionGate(gate, cfg.ProtectedPaths, cfg.LoginPath))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		userRepo users.Repository
		petRepo  pets.Repository
	)
	if opts.DB != nil {
		userRepo = pg.NewUsersRepo(opts.DB)
		petRepo = pg.NewPetsRepo(opts.DB)
	} else {
		userRepo = mem.NewUserRepo()
		petRepo = mem.NewPetRepo()
	}

	// Services por módulo
	usersSvc := users.NewService(userRepo, tokens, cfg.BcryptCost)
	petsSvc := pets.NewService(petRepo, opts.Publisher, log.With(map[string]any{"module": "pets"}))

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc, cookies, log.With(map[string]any{"module": "users"}))
	pets.RegisterRoutes(r, petsSvc, log.With(map[string]any{"module": "pets"}))
	web.RegisterRoutes(r)

	return r, nil
}
