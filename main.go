package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"project-tracker/internal/config"
	"project-tracker/internal/publisher"
	"project-tracker/internal/repository"
	"project-tracker/internal/retention"
	"project-tracker/internal/server"
	"project-tracker/internal/service"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

type auditStore interface {
	service.AuditRepository
	server.Pinger
}

type auditNotifier interface {
	service.AuditNotifier
	Close()
}

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		log.Warn("Could not load .env file.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Could not load configuration")
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting database migration...")
	m, err := migrate.New(cfg.DB.MigrationsPath, cfg.DB.URL)
	if err != nil {
		log.WithError(err).Fatal("Could not create migrate instance")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.WithError(err).Fatal("Could not apply migration")
	}
	log.Info("Database migration finished successfully.")

	db, err := sql.Open("postgres", cfg.DB.URL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to the database")
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.DB.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("Could not ping the database")
	}
	log.Info("Successfully connected to the PostgreSQL database.")

	store, disconnect := openAuditStore(ctx, cfg)
	defer disconnect()

	notifier := openNotifier(cfg)
	defer notifier.Close()

	auditService := service.NewAuditService(store, notifier, cfg.Audit.NotifyTimeout)
	defer auditService.Close()

	projectRepo := repository.NewPostgresProjectRepository(db)
	developerRepo := repository.NewPostgresDeveloperRepository(db)
	taskRepo := repository.NewPostgresTaskRepository(db)

	services := server.Services{
		Projects:   service.NewProjectService(projectRepo, auditService),
		Developers: service.NewDeveloperService(developerRepo, auditService),
		Tasks:      service.NewTaskService(taskRepo, projectRepo, developerRepo, auditService),
		Audit:      auditService,
	}

	srv := server.NewServer(server.PingerFunc(db.PingContext), store)
	e := server.NewRouter(srv, services)

	worker := retention.NewWorker(auditService, cfg.Audit.Retention, cfg.Audit.CleanupInterval)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("port", cfg.HTTP.Port).Info("Project tracker is starting with Echo")
		if err := e.Start(":" + cfg.HTTP.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return worker.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Project tracker stopped with error")
	}
	log.Info("Project tracker stopped")
}

func openAuditStore(ctx context.Context, cfg *config.Config) (auditStore, func()) {
	if cfg.Audit.Store == config.AuditStoreMemory {
		log.Warn("Using in-memory audit store; audit records will not survive a restart")
		return repository.NewInMemoryAuditRepository(), func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.WithError(err).Fatal("Could not connect to MongoDB")
	}

	store := repository.NewMongoAuditRepository(client.Database(cfg.Mongo.Database), cfg.Mongo.AuditCollection)
	if err := store.Ping(connectCtx); err != nil {
		log.WithError(err).Fatal("Could not ping MongoDB")
	}
	if err := store.EnsureIndexes(connectCtx); err != nil {
		log.WithError(err).Fatal("Could not create audit indexes")
	}
	log.WithFields(log.Fields{
		"database":   cfg.Mongo.Database,
		"collection": cfg.Mongo.AuditCollection,
	}).Info("Successfully connected to the MongoDB audit store.")

	return store, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}
}

func openNotifier(cfg *config.Config) auditNotifier {
	if cfg.Kafka.BootstrapServers == "" {
		log.Info("KAFKA_BOOTSTRAP_SERVERS not set, audit events will be logged only")
		return publisher.NewLogPublisher()
	}

	p, err := publisher.NewKafkaAuditPublisher(cfg.Kafka.BootstrapServers, cfg.Kafka.AuditTopic)
	if err != nil {
		log.WithError(err).Fatal("Could not create audit publisher")
	}
	return p
}
