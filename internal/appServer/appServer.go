package appServer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ticketforge/ticketforge/config"
	"github.com/ticketforge/ticketforge/internal/database"
	pgstore "github.com/ticketforge/ticketforge/internal/database/postgres"
	"github.com/ticketforge/ticketforge/internal/database/recordstore"
	rediscache "github.com/ticketforge/ticketforge/internal/database/redis"
	"github.com/ticketforge/ticketforge/internal/service"
	"github.com/ticketforge/ticketforge/internal/transport"
	"github.com/ticketforge/ticketforge/internal/worker"

	"github.com/ticketforge/ticketforge/pkg/postgres"
	"github.com/ticketforge/ticketforge/pkg/qr"
	"github.com/ticketforge/ticketforge/pkg/queue"
	"github.com/ticketforge/ticketforge/pkg/redis"
	"github.com/ticketforge/ticketforge/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// storage bundles one adapter's repository set so the service layer never
// knows which backend it talks to.
type storage struct {
	events        database.EventRepository
	ticketTypes   database.TicketTypeRepository
	tickets       database.TicketRepository
	users         database.UserRepository
	profiles      database.ProfileRepository
	authenticator database.Authenticator

	// hashPassword produces the credential form the adapter's Create
	// expects: bcrypt for postgres, the raw password for the remote
	// provider, which hashes server-side.
	hashPassword func(string) (string, error)

	close func()
}

func buildStorage(cfg *config.Config) (*storage, error) {
	if cfg.Store.Driver == "remote" {
		client := recordstore.NewClient(&cfg.RecordStore)
		logrus.Infof("Using record store backend at %s", cfg.RecordStore.BaseURL)
		return &storage{
			events:        recordstore.NewEventRepository(client),
			ticketTypes:   recordstore.NewTicketTypeRepository(client),
			tickets:       recordstore.NewTicketRepository(client),
			users:         recordstore.NewUserRepository(client),
			profiles:      recordstore.NewProfileRepository(client),
			authenticator: recordstore.NewAuthenticator(client),
			hashPassword:  func(password string) (string, error) { return password, nil },
			close:         func() {},
		}, nil
	}

	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	logrus.Info("Using postgres backend")
	return &storage{
		events:        pgstore.NewEventRepository(db),
		ticketTypes:   pgstore.NewTicketTypeRepository(db),
		tickets:       pgstore.NewTicketRepository(db),
		users:         pgstore.NewUserRepository(db),
		profiles:      pgstore.NewProfileRepository(db),
		authenticator: pgstore.NewAuthenticator(db),
		hashPassword:  pgstore.HashPassword,
		close:         func() { db.Close() },
	}, nil
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize storage adapter
	store, err := buildStorage(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.close()

	// Redis backs sessions, the catalog cache, scan history and the queue
	redisClient := redis.NewRedisClient(&cfg.Redis)
	defer redisClient.Close()
	cacheRepo := rediscache.NewCacheRepository(redisClient)

	// Initialize Telegram bot
	var telegramBot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		telegramBot = telegram.NewBot(cfg.Telegram.BotToken)
		logrus.Info("Telegram bot initialized")
	} else {
		logrus.Warn("Telegram bot token not provided, notifications disabled")
	}

	var redisQueue queue.Queue
	var taskPublisher service.TaskPublisher

	queueAddr := cfg.Redis.URL
	if queueAddr == "" {
		queueAddr = fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	}
	redisConfig := &queue.RedisQueueConfig{
		Addr:     queueAddr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	retryManager := queue.NewRetryManager(3, 5*time.Second)
	dlqHandler := queue.NewDefaultDLQHandler(redisClient, "ticketforge:dlq")

	redisQueue, err = queue.NewRedisQueue(redisConfig, retryManager, dlqHandler)
	if err != nil {
		logrus.Errorf("Failed to initialize Redis queue: %v. Continuing without queue...", err)
		redisQueue = nil
	} else {
		logrus.Info("Redis queue initialized")
		taskPublisher = service.NewQueueAdapter(redisQueue)
	}

	// Initialize services
	signer := qr.NewPayloadSigner(cfg.QR.SigningSecret, cfg.QR.PayloadTTL)
	catalogService := service.NewCatalogService(store.events, cacheRepo, cfg.Catalog.CacheTTL)
	issuanceService := service.NewIssuanceService(
		store.tickets, store.ticketTypes, store.events, cacheRepo, signer, taskPublisher, cfg.QR.PNGSize)
	verificationService := service.NewVerificationService(store.tickets, cacheRepo, signer, taskPublisher)
	authService := service.NewAuthService(
		store.authenticator, store.users, store.profiles, redisClient,
		cfg.Session.JWTSecret, cfg.Session.Expiration, store.hashPassword)

	// Initialize task handler if queue is available
	if redisQueue != nil {
		var bot queue.TelegramBot
		if telegramBot != nil {
			bot = telegramBot
		}
		taskHandler := queue.NewTaskHandler(store.ticketTypes, store.events, store.users, bot, cfg.Telegram.ChatID)

		go func() {
			ctx := context.Background()
			if err := redisQueue.Subscribe(ctx, taskHandler.HandleTask); err != nil {
				logrus.Errorf("Queue subscriber error: %v", err)
			}
		}()
		logrus.Info("Queue subscriber started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sold counter reconciliation
	reconcileWorker := worker.NewCounterReconcileWorker(store.ticketTypes, cacheRepo, cfg.Worker.ReconcileInterval)
	go reconcileWorker.Start(ctx)
	logrus.Info("Counter reconcile worker started")

	// Initialize handlers
	authHandler := transport.NewAuthHandler(authService)
	eventHandler := transport.NewEventHandler(catalogService)
	ticketHandler := transport.NewTicketHandler(issuanceService)
	scanHandler := transport.NewScanHandler(verificationService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		router := transport.InitRoutes(authService, authHandler, eventHandler, ticketHandler, scanHandler)
		if err := srv.Run(cfg, router); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if redisQueue != nil {
		if err := redisQueue.Close(); err != nil {
			logrus.Errorf("error occured on queue shutdown: %s", err.Error())
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
