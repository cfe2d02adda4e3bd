// Command server runs the mandate workflow API.
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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	agencyhandler "mandat/internal/agency/handler"
	agencyservice "mandat/internal/agency/service"
	agencystore "mandat/internal/agency/store"
	invhandler "mandat/internal/investigator/handler"
	invservice "mandat/internal/investigator/service"
	invstore "mandat/internal/investigator/store"
	"mandat/internal/jwtauth"
	mandatehandler "mandat/internal/mandate/handler"
	mandatemetrics "mandat/internal/mandate/metrics"
	mandateservice "mandat/internal/mandate/service"
	mandatestore "mandat/internal/mandate/store"
	"mandat/internal/notification"
	notifhandler "mandat/internal/notification/handler"
	"mandat/internal/notification/publisher"
	notifstore "mandat/internal/notification/store"
	"mandat/internal/platform/config"
	"mandat/internal/platform/httpserver"
	"mandat/internal/platform/logger"
	platformmetrics "mandat/internal/platform/metrics"
	"mandat/internal/platform/middleware"
	"mandat/internal/platform/postgres"
	"mandat/internal/platform/redis"
)

func main() {
	log := logger.New()
	cfg := config.FromEnv()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	} else {
		log.Warn("no DATABASE_URL set, using in-memory stores")
	}

	cache, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	events, err := publisher.NewKafka(cfg.Kafka, log)
	if err != nil {
		return err
	}
	if events != nil {
		defer events.Close()
	}

	httpMetrics := platformmetrics.New()
	workflowMetrics := mandatemetrics.New()

	var (
		mandates      mandateservice.MandateStore
		candidatures  mandateservice.CandidatureStore
		investigators invservice.Store
		agencies      agencyservice.Store
		notifications notification.Store
	)
	if db != nil {
		mandates = mandatestore.NewPostgresMandates(db)
		candidatures = mandatestore.NewPostgresCandidatures(db)
		investigators = invstore.NewPostgres(db)
		agencies = agencystore.NewPostgres(db)
		notifications = notifstore.NewPostgres(db)
	} else {
		mandates = mandatestore.NewInMemoryMandates()
		candidatures = mandatestore.NewInMemoryCandidatures()
		investigators = invstore.NewInMemory()
		agencies = agencystore.NewInMemory()
		notifications = notifstore.NewInMemory()
	}

	dispatcherOpts := []notification.Option{notification.WithLogger(log)}
	if events != nil {
		dispatcherOpts = append(dispatcherOpts, notification.WithEventPublisher(events))
	}
	dispatcher := notification.NewDispatcher(notifications, dispatcherOpts...)

	invSvcOpts := []invservice.Option{invservice.WithLogger(log)}
	if cache != nil {
		invSvcOpts = append(invSvcOpts, invservice.WithCache(cache))
	}
	investigatorSvc := invservice.NewService(investigators, invSvcOpts...)
	agencySvc := agencyservice.NewService(agencies, agencyservice.WithLogger(log))
	workflowOpts := []mandateservice.Option{
		mandateservice.WithLogger(log),
		mandateservice.WithMetrics(workflowMetrics),
	}
	if db != nil {
		workflowOpts = append(workflowOpts, mandateservice.WithTxRunner(postgres.NewTxRunner(db)))
	}
	workflowSvc := mandateservice.NewService(
		mandates,
		candidatures,
		investigatorSvc,
		agencySvc,
		dispatcher,
		workflowOpts...,
	)

	jwtSvc := jwtauth.NewService(cfg.JWTSigningKey, "mandat")

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(httpMetrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtSvc, log))
		mandatehandler.New(workflowSvc, agencySvc, investigatorSvc).RegisterRoutes(r)
		notifhandler.New(dispatcher).RegisterRoutes(r)
		invhandler.New(investigatorSvc).RegisterRoutes(r)
		agencyhandler.New(agencySvc).RegisterRoutes(r)
	})

	srv := httpserver.New(cfg.Addr, r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
