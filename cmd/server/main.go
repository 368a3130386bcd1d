// Command server runs the profile directory HTTP API.
//
// @title                       Profile Directory API
// @version                     1.0
// @description                 Staff directory profiles with CRM, mirror and claims sync.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/frs/profile-directory/internal/api"
	"github.com/frs/profile-directory/internal/api/handler"
	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
	"github.com/frs/profile-directory/internal/core/service"
	"github.com/frs/profile-directory/internal/core/sink"
	"github.com/frs/profile-directory/internal/infrastructure/config"
	"github.com/frs/profile-directory/internal/infrastructure/crm"
	mongostore "github.com/frs/profile-directory/internal/infrastructure/db/mongo"
	"github.com/frs/profile-directory/internal/infrastructure/db/postgres"
	redisstore "github.com/frs/profile-directory/internal/infrastructure/db/redis"
	"github.com/frs/profile-directory/internal/infrastructure/queue"
	"github.com/frs/profile-directory/internal/infrastructure/stream"
	"github.com/frs/profile-directory/pkg/logger"
)

const serviceName = "profile-directory"

// profileStore is satisfied by both the Mongo and the Postgres repository.
type profileStore interface {
	ports.ProfileRepository
	ports.AuthRepository
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: serviceName,
		Env:     cfg.Env,
	})

	// --- Stores ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	health := handler.NewHealthDependenciesHandler(db, rdb)

	statuses := mongostore.NewSyncStatusRepository(db)
	tasks := mongostore.NewTaskRepository(db)
	indexers := []mongostore.Indexer{statuses, tasks}

	var (
		profiles profileStore
		activity ports.ActivityRepository
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pg, err := postgres.Connect(ctx, postgres.Config{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := postgres.Migrate(ctx, pg); err != nil {
			return err
		}
		profiles = postgres.NewProfileRepository(pg)
		activity = postgres.NewActivityRepository(pg)
		health.WithCheck("postgres", pg.PingContext)
	default:
		mongoProfiles := mongostore.NewProfileRepository(db)
		mongoActivity := mongostore.NewActivityRepository(db)
		profiles, activity = mongoProfiles, mongoActivity
		indexers = append(indexers, mongoProfiles, mongoActivity)
	}

	if err := mongostore.EnsureIndexes(ctx, indexers...); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	log.Info().Str("store", cfg.StoreDriver).Msg("stores ready")

	// --- Services ---
	media := domain.MediaResolver{BaseURL: cfg.Media.BaseURL, DefaultAvatar: cfg.Media.DefaultAvatar}

	mapping := service.DefaultClaimsMapping()
	if cfg.Claims.MappingFile != "" {
		m, err := config.LoadClaimsMapping(cfg.Claims.MappingFile)
		if err != nil {
			return err
		}
		mapping = service.ClaimsMapping(m)
	}

	activitySvc := service.NewActivityService(activity, logger.With("activity"))
	claimsStore := redisstore.NewClaimsStore(rdb)
	claimsSvc := service.NewClaimsService(profiles, claimsStore, mapping, media, cfg.Media.PublicBaseURL, logger.With("claims"))

	crmClient := crm.NewClient(crm.Config{
		BaseURL:   cfg.CRM.BaseURL,
		System:    cfg.CRM.System,
		SystemKey: cfg.CRM.SystemKey,
		Timeout:   cfg.CRM.Timeout,
	})

	listeners := []ports.ProfileListener{
		sink.NewCRMSink(crmClient, statuses, redisstore.NewDebouncer(rdb), cfg.CRM.DebounceWindow, cfg.CRM.Source, logger.With("sink.crm")),
		sink.NewMirrorSink(mongostore.NewMirrorRepository(db), cfg.Mirror.KeyPrefix),
		sink.NewClaimsSink(claimsSvc, claimsStore),
	}

	if cfg.Kafka.Enabled() {
		publisher, err := stream.NewPublisher(stream.Config{
			Brokers:           cfg.Kafka.Brokers,
			Topic:             cfg.Kafka.Topic,
			Partitions:        cfg.Kafka.Partitions,
			ReplicationFactor: cfg.Kafka.Replication,
			ClientID:          serviceName,
		})
		if err != nil {
			return err
		}
		defer publisher.Close(context.Background())

		if err := publisher.EnsureTopic(ctx); err != nil {
			log.Warn().Err(err).Str("topic", cfg.Kafka.Topic).Msg("could not ensure profile topic")
		}
		listeners = append(listeners, sink.NewStreamSink(publisher))
		health.WithCheck("kafka", publisher.Ping)
	}

	dispatcher := sink.NewDispatcher(statuses, logger.With("sync"), listeners...)
	profileSvc := service.NewProfileService(profiles, activitySvc, dispatcher, logger.With("profiles"))
	integrationSvc := service.NewIntegrationService(statuses, crmClient, profiles, activitySvc, logger.With("integrations"))
	taskSvc := service.NewTaskService(tasks, activitySvc, logger.With("tasks"))
	authSvc := service.NewAuthService(profiles, profileSvc, cfg.JWTSecret, cfg.TokenTTL)

	if err := seedAdmin(ctx, authSvc, cfg.Admin, log); err != nil {
		return err
	}

	resync := queue.NewResyncQueue(cfg.ResyncWorkers, profileSvc, logger.With("resync"))

	e := api.NewRouter(api.Dependencies{
		JWTSecret:    cfg.JWTSecret,
		Logger:       logger.With("http"),
		Media:        media,
		LeadSource:   cfg.CRM.Source,
		Auth:         authSvc,
		Profiles:     profileSvc,
		Activity:     activitySvc,
		Tasks:        taskSvc,
		Integrations: integrationSvc,
		Claims:       claimsSvc,
		Resync:       resync,
		Health:       health,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	resync.Start(gctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Int("resync_workers", cfg.ResyncWorkers).Msg("profile directory started")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("profile directory stopped cleanly")
	return nil
}

// seedAdmin creates the configured admin account on first start.
func seedAdmin(ctx context.Context, auth *service.AuthService, cfg config.AdminConfig, log zerolog.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	identity, err := auth.Register(ctx, ports.RegisterInput{
		Email:    cfg.Email,
		Password: cfg.Password,
		Role:     domain.RoleAdmin,
	})
	if errors.Is(err, domain.ErrUserExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	log.Info().Str("profile_id", identity.ID).Msg("admin account created")
	return nil
}
