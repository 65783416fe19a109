package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/config"
	"github.com/jonathan/interview-scheduler/internal/db"
	"github.com/jonathan/interview-scheduler/internal/interviews"
	"github.com/jonathan/interview-scheduler/internal/lock"
	"github.com/jonathan/interview-scheduler/internal/notify"
	"github.com/jonathan/interview-scheduler/internal/observability"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
	"github.com/jonathan/interview-scheduler/internal/server"
	"github.com/jonathan/interview-scheduler/internal/server/ratelimit"
	"github.com/jonathan/interview-scheduler/internal/store/memory"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	servePort int
	serveDemo bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the interview scheduling API and the
websocket notification channel. Without a database URL interviews are kept in
memory; without a Redis URL locks are process-local.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false, "Seed a demo recruiter, candidate and job into the in-memory directory")
	rootCmd.AddCommand(serveCmd)
}

// app is everything serve wires together.
type app struct {
	server  *server.Server
	service *interviews.Service
	hub     *notify.Hub
	logger  *zap.Logger

	relay   func(ctx context.Context) error
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, jwtCfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.relay != nil {
		go func() {
			if err := a.relay(ctx); err != nil {
				logger.Error("event relay stopped", zap.Error(err))
			}
		}()
	}

	return a.server.Run(ctx, cfg.ShutdownTimeout)
}

// buildApp connects the configured backends and assembles the server.
func buildApp(ctx context.Context, cfg *config.Config, jwtCfg *config.JWTConfig, logger *zap.Logger) (*app, error) {
	a := &app{logger: logger}
	metrics := observability.NewMetrics()
	health := map[string]server.HealthCheck{}

	var (
		store   interviews.Store
		parties interviews.PartyDirectory
		jobs    interviews.JobDirectory
	)
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, database.Close)
		store, parties, jobs = database, database, database
		health["database"] = database.Ping
		logger.Info("using postgres store")
	} else {
		dir := memory.NewDirectory()
		store, parties, jobs = memory.NewStore(), dir, dir
		logger.Warn("DATABASE_URL not set, interviews are kept in memory")
		if serveDemo {
			if err := seedDemo(dir, jwtCfg, logger); err != nil {
				return nil, err
			}
		}
	}

	a.hub = notify.NewHub(logger)
	var delivery notify.Notifier = a.hub
	var locker lock.Locker = lock.NewKeyedMutex()

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		health["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }

		locker = lock.NewRedisLocker(client, cfg.LockTTL)
		// Every instance publishes; each relays the channel into its own hub.
		delivery = notify.NewRedisPublisher(client, cfg.EventsChannel)
		hub := a.hub
		a.relay = func(ctx context.Context) error {
			return notify.Relay(ctx, client, cfg.EventsChannel, hub, logger)
		}
		logger.Info("using redis locks and event fan-out", zap.String("channel", cfg.EventsChannel))
	}

	audit := notify.NotifierFunc(func(_ context.Context, partyID uuid.UUID, ev notify.Event) error {
		logger.Debug("interview event",
			zap.String("type", string(ev.Type)),
			zap.String("party_id", partyID.String()),
			zap.String("interview_id", ev.Interview.ID.String()),
		)
		return nil
	})

	a.service = interviews.NewService(interviews.Config{
		Store:         store,
		Parties:       parties,
		Jobs:          jobs,
		Notifier:      notify.Multi{audit, delivery},
		Locker:        locker,
		Logger:        logger,
		Metrics:       metrics,
		NotifyTimeout: cfg.NotifyTimeout,
	})

	srv, err := server.New(server.Options{
		Addr:         cfg.Addr(),
		Service:      a.service,
		Hub:          a.hub,
		Metrics:      metrics,
		Logger:       logger,
		Auth:         server.NewJWTService(jwtCfg).AsTokenValidator(),
		RateLimit:    ratelimit.LoadConfig(),
		CORSOrigins:  cfg.CORSOrigins,
		HealthChecks: health,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.server = srv
	return a, nil
}

// seedDemo registers a recruiter, a candidate and a job and logs tokens for
// both parties so the API can be tried without an identity service.
func seedDemo(dir *memory.Directory, jwtCfg *config.JWTConfig, logger *zap.Logger) error {
	jwtSvc := server.NewJWTService(jwtCfg)
	recruiter := interviews.Party{ID: uuid.New(), Name: "Demo Recruiter", Email: "recruiter@example.com", Role: scheduling.RoleRecruiter}
	candidate := interviews.Party{ID: uuid.New(), Name: "Demo Candidate", Email: "candidate@example.com", Role: scheduling.RoleCandidate}
	job := interviews.Job{ID: uuid.New(), Title: "Backend Engineer", Company: "Example Corp", RecruiterID: recruiter.ID}
	dir.AddParty(recruiter)
	dir.AddParty(candidate)
	dir.AddJob(job)

	for _, p := range []interviews.Party{recruiter, candidate} {
		token, err := jwtSvc.GenerateToken(p.ID, p.Role)
		if err != nil {
			return fmt.Errorf("failed to mint demo token: %w", err)
		}
		logger.Info("demo party",
			zap.String("role", string(p.Role)),
			zap.String("id", p.ID.String()),
			zap.String("token", token),
		)
	}
	logger.Info("demo job", zap.String("id", job.ID.String()), zap.String("title", job.Title))
	return nil
}
