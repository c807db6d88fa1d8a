package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"eventbooking/internal/config"
	"eventbooking/internal/domain"
	"eventbooking/internal/infra/auth/access"
	"eventbooking/internal/infra/auth/authn"
	"eventbooking/internal/infra/auth/password"
	"eventbooking/internal/infra/auth/token"
	"eventbooking/internal/infra/db"
	"eventbooking/internal/infra/logging"
	"eventbooking/internal/infra/policyopa"
	"eventbooking/internal/infra/ratelimit"
	"eventbooking/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
)

type Server struct {
	cfg    config.Config
	store  *db.Store
	r      *gin.Engine
	logger hclog.Logger

	authenticator *authn.Authenticator
	policy        access.Evaluator

	accounts *usecase.AccountService
	events   *usecase.EventService
	bookings *usecase.BookingService

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool

	closers []func() error
}

// NewServer builds every collaborator from cfg and store. Errors here are
// startup failures: a missing signing key or an invalid policy must stop the
// process.
func NewServer(ctx context.Context, cfg config.Config, store *db.Store, logger hclog.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	logger = logging.OrNull(logger)
	deps, closers, err := buildDeps(ctx, cfg, store, logger)
	if err != nil {
		return nil, err
	}
	s := NewServerWithDeps(cfg, deps)
	s.closers = closers
	return s, nil
}

type ServerDeps struct {
	Logger        hclog.Logger
	Store         *db.Store
	Authenticator *authn.Authenticator
	Policy        access.Evaluator
	Accounts      *usecase.AccountService
	Events        *usecase.EventService
	Bookings      *usecase.BookingService
	RateLimiter   domain.RateLimiter
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	logger := logging.OrNull(deps.Logger)
	s := &Server{
		cfg:           cfg,
		store:         deps.Store,
		r:             gin.New(),
		logger:        logger.Named("http"),
		authenticator: deps.Authenticator,
		policy:        deps.Policy,
		accounts:      deps.Accounts,
		events:        deps.Events,
		bookings:      deps.Bookings,
	}
	s.initTrustedProxies(cfg.TrustedProxies)
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func buildDeps(ctx context.Context, cfg config.Config, store *db.Store, logger hclog.Logger) (ServerDeps, []func() error, error) {
	key, err := token.DeriveSigningKey(cfg.JWTSecret, logger.Named("token"))
	if err != nil {
		return ServerDeps{}, nil, fmt.Errorf("derive signing key: %w", err)
	}
	codec, err := token.NewCodec(key, cfg.TokenTTL(), token.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return ServerDeps{}, nil, fmt.Errorf("token codec: %w", err)
	}
	credentials, err := password.NewVerifier(password.Config{
		Algorithm:  cfg.PasswordHasher,
		BcryptCost: cfg.BcryptCost,
		Permits:    cfg.HashingPermits,
	})
	if err != nil {
		return ServerDeps{}, nil, fmt.Errorf("credential verifier: %w", err)
	}
	policy, err := newPolicy(ctx, cfg)
	if err != nil {
		return ServerDeps{}, nil, fmt.Errorf("access policy: %w", err)
	}

	var closers []func() error
	var limiter domain.RateLimiter
	if cfg.RedisAddr != "" {
		redisLimiter, client, err := ratelimit.NewRedisLimiter(ratelimit.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return ServerDeps{}, nil, fmt.Errorf("rate limiter: %w", err)
		}
		limiter = redisLimiter
		closers = append(closers, client.Close)
	} else {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{MaxKeys: cfg.RateLimitMaxKeys})
	}

	logger.Info("auth pipeline ready",
		"policy_engine", cfg.PolicyEngine,
		"access_default", cfg.AccessDefault,
		"password_hasher", credentials.Algorithm(),
		"token_ttl", cfg.TokenTTL(),
		"key_degraded", key.Degraded,
	)
	return ServerDeps{
		Logger:        logger,
		Store:         store,
		Authenticator: authn.New(codec, store.Users, authn.DefaultBypassSet(), logger),
		Policy:        policy,
		Accounts:      usecase.NewAccountService(store.Users, credentials, codec, logger),
		Events:        usecase.NewEventService(store.Events),
		Bookings:      usecase.NewBookingService(store.Bookings, store.Users),
		RateLimiter:   limiter,
	}, closers, nil
}

func newPolicy(ctx context.Context, cfg config.Config) (access.Evaluator, error) {
	fallback, err := access.FallbackFor(cfg.AccessDefault)
	if err != nil {
		return nil, err
	}
	switch cfg.PolicyEngine {
	case config.PolicyEngineRego:
		return policyopa.NewEngine(ctx, fallback)
	case config.PolicyEngineTable, "":
		return access.NewTable(access.DefaultRules(), fallback)
	default:
		return nil, fmt.Errorf("unsupported policy engine %q", cfg.PolicyEngine)
	}
}

// initTrustedProxies decides whose X-Forwarded-For ClientIP believes. gin
// trusts every peer unless told otherwise; nil here means trust none.
func (s *Server) initTrustedProxies(proxies []string) {
	if len(proxies) == 0 {
		proxies = nil
	}
	if err := s.r.SetTrustedProxies(proxies); err != nil {
		s.logger.Warn("invalid trusted proxies, trusting none", "error", err)
		_ = s.r.SetTrustedProxies(nil)
	}
}

func (s *Server) initRateLimit(limiter domain.RateLimiter) {
	s.rateLimiter = limiter
	s.rateLimitRequests = s.cfg.LoginRateLimitRequests
	s.rateLimitWindow = s.cfg.LoginRateLimitWindow()
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

// routes wires the middleware chain in a fixed order: recovery, request id,
// access log, authentication, access policy. /healthz sits in front of the
// auth pair so probes never need a token.
func (s *Server) routes() {
	s.r.Use(gin.Recovery(), s.requestID(), s.accessLog())

	s.r.GET("/healthz", s.handleHealth)

	secured := s.r.Group("", s.authenticate(), s.enforceAccess())
	for _, prefix := range []string{"/api/auth", "/auth"} {
		secured.POST(prefix+"/register", s.handleRegister)
		secured.POST(prefix+"/login", s.handleLogin)
	}

	api := secured.Group("/api")
	{
		api.GET("/me", s.handleMe)

		api.GET("/events", s.handleListEvents)
		api.GET("/events/:id", s.handleGetEvent)
		api.POST("/events", s.handleCreateEvent)
		api.DELETE("/events/:id", s.handleDeleteEvent)

		api.POST("/bookings/book/:eventId", s.handleBook)
		api.GET("/bookings/me", s.handleMyBookings)
		api.DELETE("/bookings/:id", s.handleCancelBooking)

		api.GET("/admin/bookings", s.handleAllBookings)
	}

	s.r.NoRoute(s.authenticate(), s.enforceAccess(), func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
	})
}

func (s *Server) Handler() http.Handler {
	return s.r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) Close() error {
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}
