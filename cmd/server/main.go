package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/cultureforchange/members-api/modules/auth"
	"github.com/cultureforchange/members-api/modules/member"
	"github.com/cultureforchange/members-api/pkg/config"
	"github.com/cultureforchange/members-api/pkg/cookie"
	"github.com/cultureforchange/members-api/pkg/email"
	"github.com/cultureforchange/members-api/pkg/httpserver"
	"github.com/cultureforchange/members-api/pkg/jwtoken"
	"github.com/cultureforchange/members-api/pkg/logger"
	"github.com/cultureforchange/members-api/pkg/ratelimit"
	"github.com/cultureforchange/members-api/strapi"
)

type appConfig struct {
	BaseURL  string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	RedisURL string `env:"REDIS_URL"`

	Logger logger.Config
	Server httpserver.Config
	Strapi strapi.Config
	JWT    jwtoken.Config
	Email  email.Config
	Cookie cookie.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(cfg.Logger)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg appConfig, log *slog.Logger) error {
	cms, err := strapi.New(cfg.Strapi)
	if err != nil {
		return err
	}

	tokens, err := jwtoken.NewFromConfig(cfg.JWT)
	if err != nil {
		return err
	}

	mailer, err := email.NewFromConfig(cfg.Email)
	if err != nil {
		return err
	}

	magicLinkLimiter, loginLimiter, closeStores, err := buildLimiters(cfg.RedisURL, log)
	if err != nil {
		return err
	}
	defer closeStores()

	cookies := cookie.NewFromConfig(cfg.Cookie)

	authSvc := auth.NewService(cms, tokens, mailer, magicLinkLimiter, loginLimiter, cfg.BaseURL,
		auth.WithLogger(log),
		auth.WithMagicLinkTTL(cfg.JWT.MagicLinkTTL),
	)
	memberSvc := member.NewService(cms, mailer, member.WithLogger(log))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", auth.NewHandler(authSvc, cookies, log).Router())
		r.Mount("/", member.NewHandler(memberSvc, tokens, cookies, log).Router())
	})

	srv := httpserver.NewFromConfig(cfg.Server, httpserver.WithLogger(log))

	log.Info("starting server",
		slog.String("addr", cfg.Server.Addr),
		slog.String("strapi_url", cfg.Strapi.URL),
	)
	return srv.Run(context.Background(), r)
}

// buildLimiters picks the rate limit backend: Redis when REDIS_URL is set,
// otherwise in-process memory. Memory is fine for a single instance; multiple
// instances need the shared backend.
func buildLimiters(redisURL string, log *slog.Logger) (magicLink, login ratelimit.Limiter, closeFn func(), err error) {
	if redisURL == "" {
		store := ratelimit.NewMemoryStore()
		magicLink, err = ratelimit.NewFixedWindow(store, auth.MagicLinkLimit)
		if err != nil {
			return nil, nil, nil, err
		}
		login, err = ratelimit.NewFixedWindow(store, auth.LoginLimit)
		if err != nil {
			return nil, nil, nil, err
		}
		return magicLink, login, store.Close, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, nil, err
	}
	log.Info("rate limiting backed by redis")

	// The limiter names keep the two budgets separate within the shared store.
	store := ratelimit.NewRedisStore(client, "rl")
	magicLink, err = ratelimit.NewFixedWindow(store, auth.MagicLinkLimit)
	if err != nil {
		return nil, nil, nil, err
	}
	login, err = ratelimit.NewFixedWindow(store, auth.LoginLimit)
	if err != nil {
		return nil, nil, nil, err
	}
	return magicLink, login, func() { client.Close() }, nil
}

// requestLogger emits one structured line per request.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
