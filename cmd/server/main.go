package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"alumport/internal/audit"
	"alumport/internal/auth"
	"alumport/internal/dashboard"
	"alumport/internal/deletion"
	"alumport/internal/geocode"
	"alumport/internal/notify"
	"alumport/internal/platform/config"
	"alumport/internal/platform/database"
	"alumport/internal/platform/httpserver"
	"alumport/internal/platform/kafka"
	"alumport/internal/platform/logger"
	"alumport/internal/platform/metrics"
	platformredis "alumport/internal/platform/redis"
	"alumport/internal/profile"
	httptransport "alumport/internal/transport/http"
	"alumport/internal/verification"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.DefaultRegisterer
	m := metrics.New(reg)

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return err
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var (
		sessions auth.SessionStore
		geoCache geocode.Cache
	)
	if redisClient != nil {
		sessions = auth.NewRedisSessionStore(redisClient)
		geoCache = geocode.NewRedisCache(redisClient)
	} else {
		log.Warn("redis not configured, sessions and geocode cache are per-instance")
		sessions = auth.NewMemorySessionStore()
		geoCache = geocode.NewMemoryCache()
	}

	profiles := profile.NewPostgres(db)
	auditStore := audit.NewPostgres(db)
	deletions := deletion.NewPostgres(db)

	recorder := audit.NewRecorder(auditStore, audit.NewMetrics(reg), log)

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, cfg.Kafka.Topic, 1); err != nil {
			return err
		}
	} else {
		log.Warn("kafka not configured, change feed disabled")
	}
	feed := notify.NewFeed(producer, cfg.Kafka.Topic, notify.NewFeedMetrics(reg), log)

	jwtService := auth.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	authService := auth.NewService(profiles, sessions, jwtService, recorder, m, log,
		cfg.TokenTTL, cfg.SessionTTL)

	geoService := geocode.NewService(geocode.NewClient(cfg.GeocodeBaseURL), geoCache,
		cfg.GeocodeCacheTTL, m, log)

	profileService := profile.NewService(profiles, recorder, geoService, feed,
		auth.HashPassword, log)
	verificationService := verification.NewService(profiles, recorder, feed, m, log)
	deletionService := deletion.NewService(deletions, recorder, feed, m, log)
	overviewService := dashboard.NewService(profiles, deletions, m, log)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		TokenValidator: auth.NewTokenValidatorAdapter(jwtService),
		Sessions:       authService,
		Auth:           authService,
		Accounts:       profileService,
		Profiles:       profileService,
		Verification:   verificationService,
		Deletions:      deletionService,
		Activity:       auditStore,
		Overview:       overviewService,
		Geocode:        geoService,
		Health:         db.Ping,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if producer != nil {
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic,
			cfg.Kafka.ConsumerGroup, log)
		if err != nil {
			return err
		}

		coalescer := notify.NewCoalescer(cfg.DebounceWindow, func(tables []string) {
			refreshCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := overviewService.Refresh(refreshCtx); err != nil {
				log.Error("dashboard refresh failed", "tables", tables, "error", err.Error())
			}
		})

		listener := notify.NewListener(consumer, coalescer, log)
		g.Go(func() error {
			defer coalescer.Stop()
			defer listener.Close()
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
