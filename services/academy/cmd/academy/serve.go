package main

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/analytics"
	"github.com/example/drone-academy/internal/platform/auth"
	"github.com/example/drone-academy/internal/platform/breaker"
	"github.com/example/drone-academy/internal/platform/db"
	"github.com/example/drone-academy/internal/platform/httpserver"
	"github.com/example/drone-academy/internal/platform/logging"
	"github.com/example/drone-academy/internal/platform/natsconn"
	"github.com/example/drone-academy/internal/platform/run"
	"github.com/example/drone-academy/internal/platform/signing"
	"github.com/example/drone-academy/services/academy/internal/assessment"
	"github.com/example/drone-academy/services/academy/internal/authz"
	"github.com/example/drone-academy/services/academy/internal/cache"
	"github.com/example/drone-academy/services/academy/internal/catalog"
	"github.com/example/drone-academy/services/academy/internal/config"
	"github.com/example/drone-academy/services/academy/internal/course"
	"github.com/example/drone-academy/services/academy/internal/coursecontent"
	"github.com/example/drone-academy/services/academy/internal/handlers"
	"github.com/example/drone-academy/services/academy/internal/insights"
	"github.com/example/drone-academy/services/academy/internal/progress"
	"github.com/example/drone-academy/services/academy/internal/testimonials"
	"github.com/example/drone-academy/services/academy/internal/transcript"
	"github.com/example/drone-academy/services/academy/internal/watchlist"
	"github.com/example/drone-academy/services/academy/internal/youtube"
)

const readyTimeout = 2 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the academy HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// stores groups the persistence backends. Postgres backs every store when
// DATABASE_URL is set; otherwise state lives in process memory.
type stores struct {
	progress     progress.Repository
	watchlist    watchlist.Store
	testimonials testimonials.Store
	certificates assessment.CertificateStore
	roles        authz.RoleLookup
	prefs        authz.PreferenceStore
	playlists    cache.Store
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.App.LogLevel = level
	}
	log, err := logging.New(cfg.App.LogLevel, zap.String("service", cfg.App.ServiceName))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("db open", zap.Error(err))
			return err
		}
		defer pool.Close()
		schema := append([]string{}, progress.Schema...)
		schema = append(schema, watchlist.Schema...)
		schema = append(schema, testimonials.Schema...)
		schema = append(schema, assessment.CertificateSchema...)
		schema = append(schema, authz.Schema...)
		if err := db.EnsureSchema(ctx, pool, schema...); err != nil {
			log.Error("db schema", zap.Error(err))
			return err
		}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis connect", zap.Error(err))
			return err
		}
		defer func() { _ = rdb.Close() }()
	}

	st := newStores(pool, rdb, cfg)

	var nc *nats.Conn
	events := analytics.New(nil, log)
	if cfg.NATSURL != "" {
		nc, err = natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: cfg.App.ServiceName, Logger: log})
		if err != nil {
			log.Error("nats connect", zap.Error(err))
			return err
		}
		defer nc.Close()
		js, err := nc.JetStream()
		if err != nil {
			log.Error("jetstream context", zap.Error(err))
			return err
		}
		if err := analytics.EnsureStream(js, log); err != nil {
			log.Error("analytics stream", zap.Error(err))
			return err
		}
		events = analytics.New(js, log)
	} else {
		log.Warn("NATS_URL not set, analytics disabled and cache invalidation is local")
	}

	courseCache := handlers.NewTTLCache(cfg.CourseListTTL, nc, progress.InvalidateSubject)
	var invalidator progress.Invalidator = courseCache
	if nc != nil {
		invalidator = progress.NewNATSInvalidator(nc, log)
	}
	progressSvc := progress.NewService(st.progress,
		progress.WithInvalidator(invalidator),
		progress.WithEmitter(events),
		progress.WithLogger(log),
	)

	yt, err := youtube.New(ctx, cfg.YouTube,
		youtube.WithCircuitBreaker(breaker.New("youtube", cfg.Breaker, log)),
		youtube.WithLogger(log),
	)
	if err != nil {
		log.Error("youtube client", zap.Error(err))
		return err
	}
	gen, err := newGenerator(ctx, cfg.Clients, log)
	if err != nil {
		log.Error("content generator", zap.Error(err))
		return err
	}
	transcripts := transcript.New(cfg.Transcript, log)

	cat := catalog.Default()
	modules := catalog.NewModuleService(cat, yt, st.playlists, log)
	sessions := course.NewRegistry(modules,
		func() *coursecontent.Controller { return coursecontent.New(transcripts, gen, log) },
		progressSvc,
		course.Config{PassThreshold: cfg.PassScore, IdleTTL: cfg.SessionIdleTTL, Events: events},
		log,
	)
	defer sessions.Close()

	assessments := assessment.NewService(assessment.DefaultCatalog(), st.certificates, signing.New(cfg.CertSigningSecret), events, log)
	assessments.VerifyBaseURL = cfg.PublicBaseURL
	assessments.LinkTTL = cfg.CertLinkTTL

	testimonialSvc := testimonials.NewService(st.testimonials)
	courseExists := func(id string) bool {
		_, err := cat.ByID(id)
		return err == nil
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc: readiness(pool, rdb, nc),
		Logger:    log,
	})
	handlers.Mount(r, handlers.Deps{
		Catalog:         cat,
		Modules:         modules,
		Progress:        progressSvc,
		CourseCache:     courseCache,
		Watchlist:       watchlist.NewService(st.watchlist, courseExists),
		Sessions:        sessions,
		Assessments:     assessments,
		Testimonials:    testimonialSvc,
		Authz:           authz.NewService(st.roles, cfg.AdminEmails, st.prefs, log),
		Insights:        insights.NewService(cat, progressSvc, testimonialSvc, assessments),
		Verifier:        auth.JWTVerifier{Secret: cfg.JWTSecret},
		GenerationLimit: handlers.NewRateLimiter(cfg.GenerationRate, cfg.GenerationBurst),
		Log:             log,
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.App.HTTP.Addr, ServiceName: cfg.App.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = runner.Graceful(srv.Shutdown)
		}()
		return srv.Start(log)
	})
	log.Info("exit", zap.Int("code", code))
	if code != 0 {
		return errors.New("academy server exited with an error")
	}
	return nil
}

func newStores(pool *pgxpool.Pool, rdb *redis.Client, cfg config.Config) stores {
	st := stores{
		progress:     progress.NewMemoryRepository(),
		watchlist:    watchlist.NewMemoryStore(),
		testimonials: testimonials.NewMemoryStore(),
		certificates: assessment.NewMemoryCertificateStore(),
		roles:        authz.NewMemoryRoles(),
		prefs:        authz.NewMemoryPreferences(),
		playlists:    cache.NewMemoryCache(cfg.PlaylistCacheTTL),
	}
	if pool != nil {
		st.progress = progress.NewPostgresRepository(pool)
		st.watchlist = watchlist.NewPostgresStore(pool)
		st.testimonials = testimonials.NewPostgresStore(pool)
		st.certificates = assessment.NewPostgresCertificateStore(pool)
		st.roles = authz.NewPostgresRoles(pool)
	}
	if rdb != nil {
		st.prefs = authz.NewRedisPreferences(rdb)
		st.playlists = cache.NewRedisCache(rdb, cfg.PlaylistCacheTTL)
	}
	return st
}

func readiness(pool *pgxpool.Pool, rdb *redis.Client, nc *nats.Conn) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
		defer cancel()
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				return err
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return err
			}
		}
		if nc != nil && !nc.IsConnected() {
			return errors.New("nats disconnected")
		}
		return nil
	}
}
