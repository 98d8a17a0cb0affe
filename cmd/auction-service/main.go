package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/adapters/broadcaster"
	"github.com/mwkdckd93-sudo/maz/internal/adapters/db"
	"github.com/mwkdckd93-sudo/maz/internal/adapters/httpapi"
	"github.com/mwkdckd93-sudo/maz/internal/adapters/media"
	"github.com/mwkdckd93-sudo/maz/internal/adapters/memory"
	"github.com/mwkdckd93-sudo/maz/internal/adapters/redis"
	"github.com/mwkdckd93-sudo/maz/internal/adapters/scheduler"
	"github.com/mwkdckd93-sudo/maz/internal/adapters/ws"
	"github.com/mwkdckd93-sudo/maz/internal/app"
	"github.com/mwkdckd93-sudo/maz/internal/config"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// storage groups the persistence adapters selected by STORAGE_DRIVER
type storage struct {
	store         outbound.AuctionStore
	users         outbound.UserRepository
	conversations outbound.ConversationService
	notifier      outbound.NotificationSink
	closer        io.Closer
}

// realtime groups the adapters that are shared across instances when Redis is enabled
type realtime struct {
	broadcaster outbound.Broadcaster
	lease       outbound.Lease
	dedup       outbound.Deduplicator
	viewers     outbound.ViewerCounter
	closers     []io.Closer
}

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Auction Service...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	persistence, err := initStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	if persistence.closer != nil {
		defer persistence.closer.Close()
	}

	rt, err := initRealtime(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize realtime delivery")
	}

	fanout := app.NewFanout(app.FanoutParams{
		Broadcaster: rt.broadcaster,
		Notifier:    persistence.notifier,
		Workers:     cfg.Fanout.Workers,
		Queue:       cfg.Fanout.Queue,
		Logger:      log.Logger,
	})

	mediaClient := media.NewClient(media.ClientParams{
		BaseURL: cfg.Media.ServiceURL,
		Timeout: cfg.Media.Timeout,
		Logger:  log.Logger,
	})

	// Create business services
	auctionService := app.NewAuctionService(app.AuctionServiceParams{
		Store:         persistence.store,
		Conversations: persistence.conversations,
		Notifier:      persistence.notifier,
		Dedup:         rt.dedup,
		Media:         mediaClient,
		Fanout:        fanout,
		Logger:        log.Logger,
	})
	bidService := app.NewBidService(app.BidServiceParams{
		Store:              persistence.store,
		UserRepo:           persistence.users,
		Fanout:             fanout,
		AntiSnipeThreshold: cfg.Bidding.AntiSnipeThreshold,
		AntiSnipeExtension: cfg.Bidding.AntiSnipeExtension,
		Logger:             log.Logger,
	})

	log.Info().Msg("Business services initialized")

	// Create auction scheduler
	auctionScheduler := scheduler.NewAuctionScheduler(scheduler.AuctionSchedulerParams{
		Store:       persistence.store,
		Closer:      auctionService,
		Lease:       rt.lease,
		Interval:    cfg.Closer.SweepInterval,
		BatchSize:   cfg.Closer.BatchSize,
		Concurrency: cfg.Closer.Concurrency,
		LeaseTTL:    cfg.Closer.LeaseTTL,
		Logger:      log.Logger,
	})

	auctionScheduler.Start()
	log.Info().Msg("Auction scheduler started")

	wsHandler := ws.NewHandler(ws.WsHandlerParams{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		AuctionService: auctionService,
		BidService:     bidService,
		Broadcaster:    rt.broadcaster,
		Viewers:        rt.viewers,
		Logger:         log.Logger,
	})

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.RouterParams{
		AuctionService: auctionService,
		BidService:     bidService,
		WebSocket:      wsHandler.HandleWebSocket,
		Logger:         log.Logger,
	})

	server := httpapi.NewServer(httpapi.ServerParams{
		Config:  cfg,
		Handler: router,
		Logger:  log.Logger,
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start HTTP server")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	auctionScheduler.Stop()
	log.Info().Msg("Auction scheduler stopped")

	wsHandler.Shutdown()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	}

	fanout.Stop()

	for _, closer := range rt.closers {
		if err := closer.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing realtime adapter")
		}
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if !cfg.Database.UsesPostgres() {
		store := memory.NewStore(memory.StoreParams{
			LockTimeout: cfg.Bidding.LockTimeout,
			Logger:      log.Logger,
		})
		log.Warn().Msg("Using in-memory storage; state is lost on restart")
		return &storage{
			store:         store,
			users:         store.Users(),
			conversations: memory.NewConversationStore(),
			notifier:      memory.NewNotificationRecorder(),
		}, nil
	}

	dbConn, err := db.NewConnection(cfg)
	if err != nil {
		return nil, err
	}
	if err := dbConn.EnsureSchema(ctx); err != nil {
		dbConn.Close()
		return nil, err
	}
	log.Info().Msg("Database connection established")

	repoFactory := db.NewRepositoryFactory(dbConn, cfg.Bidding.LockTimeout)
	return &storage{
		store:         repoFactory.GetAuctionStore(),
		users:         repoFactory.GetUserRepository(),
		conversations: repoFactory.GetConversationService(),
		notifier:      repoFactory.GetNotificationSink(),
		closer:        dbConn,
	}, nil
}

func initRealtime(ctx context.Context, cfg *config.Config) (*realtime, error) {
	hub := broadcaster.NewHub(log.Logger)

	if !cfg.Redis.Enabled {
		log.Info().Msg("Redis disabled; events are delivered to this instance only")
		return &realtime{
			broadcaster: broadcaster.NewLocalBroadcaster(hub, log.Logger),
			lease:       memory.NewLease(),
			dedup:       memory.NewDeduplicator(),
			viewers:     memory.NewViewerCounter(),
		}, nil
	}

	redisClient := redis.NewClient(cfg.Redis)
	if err := redis.PingRedis(ctx, redisClient); err != nil {
		return nil, err
	}
	log.Info().Msg("Redis connection established")

	redisBroadcaster := broadcaster.NewBroadcaster(broadcaster.RedisBroadcasterParams{
		RedisClient: redisClient,
		Hub:         hub,
		Logger:      log.Logger,
	})
	if err := redisBroadcaster.Start(ctx); err != nil {
		return nil, err
	}
	log.Info().Msg("Redis broadcaster initialized")

	return &realtime{
		broadcaster: redisBroadcaster,
		lease:       redis.NewLease(redisClient, log.Logger),
		dedup:       redis.NewDeduplicator(redisClient),
		viewers:     redis.NewViewerCounter(redisClient),
		closers:     []io.Closer{redisBroadcaster, redisClient},
	}, nil
}

func initLogging(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}
