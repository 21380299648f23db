package serverapp

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/rs/cors"

	"pibbleclicker/internal/catalog"
	"pibbleclicker/internal/config"
	"pibbleclicker/internal/game"
	"pibbleclicker/internal/httpmw"
	"pibbleclicker/internal/save"
	"pibbleclicker/internal/server"
	"pibbleclicker/internal/session"
	"pibbleclicker/internal/telemetry"
)

type Options struct {
	Config *config.Config
	Logger *log.Logger
}

// Server is the assembled application: storage, game engine, session
// manager and HTTP surface.
type Server struct {
	handler http.Handler
	manager *session.Manager
	store   save.Store
	limiter *httpmw.RateLimiter
}

// New wires the whole application from config.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	cfg := opts.Config

	upgrades := catalog.Defaults()
	if err := catalog.Validate(upgrades); err != nil {
		return nil, fmt.Errorf("upgrade catalog: %w", err)
	}

	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	engine := &game.Engine{
		Catalog:      upgrades,
		Achievements: catalog.Achievements(),
		Tiers:        catalog.Tiers(),
		CostGrowth:   cfg.Balance.CostGrowth,
		BaseTick:     cfg.BaseTick(),
		MinTick:      cfg.MinTick(),
		Display: game.Durations{
			Achievement: cfg.Notifications.AchievementDuration(),
			Critical:    cfg.Notifications.CriticalDuration(),
			Tier:        cfg.Notifications.TierDuration(),
		},
		Roll:  game.NewRoller(cfg.Balance.RNGSeed),
		Clock: game.RealClock{},
	}

	gateway := save.NewGateway(store, upgrades, engine.Achievements, engine.Clock)
	recorder := telemetry.NewMemoryRecorder()
	manager := session.NewManager(session.ManagerOptions{
		Engine:        engine,
		Gateway:       gateway,
		Recorder:      recorder,
		Logger:        opts.Logger,
		AutosaveEvery: cfg.AutosaveInterval(),
	})

	app := &server.App{
		Manager:  manager,
		Gateway:  gateway,
		Recorder: recorder,
		Logger:   opts.Logger,
	}

	mux := http.NewServeMux()
	server.RegisterRoutes(mux, app, cfg.Server.AllowedOrigins)

	corsOpts := cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}
	if len(corsOpts.AllowedOrigins) == 0 {
		corsOpts.AllowedOrigins = []string{"*"}
		corsOpts.AllowCredentials = false
	}

	rl := httpmw.NewRateLimiter(cfg.Server.ClicksPerSecond, cfg.Server.ClickBurst, opts.Logger)

	handler := httpmw.Chain(
		cors.New(corsOpts).Handler(mux),
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		rl.Middleware,
		httpmw.WithRecover(opts.Logger),
	)

	return &Server{handler: handler, manager: manager, store: store, limiter: rl}, nil
}

func buildStore(cfg *config.Config) (save.Store, error) {
	switch cfg.Storage.Backend {
	case "", "file":
		return save.NewFileStore(cfg.Storage.DataDir)
	case "redis":
		return save.NewRedisStore(cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}

func (s *Server) Handler() http.Handler { return s.handler }

// Close saves and ends any active session and releases the store and the
// rate limiter.
func (s *Server) Close() error {
	err := s.manager.Close()
	s.limiter.Close()
	if c, ok := s.store.(interface{ Close() error }); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
