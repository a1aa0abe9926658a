// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"equireal-workers/internal/api"
	awsclients "equireal-workers/internal/common/aws"
	"equireal-workers/internal/common/camunda"
	"equireal-workers/internal/common/config"
	"equireal-workers/internal/common/database"
	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/common/observability"
	"equireal-workers/internal/lease"
	"equireal-workers/internal/lease/document"
	"equireal-workers/internal/pipeline"
	"equireal-workers/internal/scheduler"
	"equireal-workers/internal/wizard"
	"equireal-workers/pkg/registry"

	// Lease Workers (4)
	gdt "equireal-workers/internal/workers/lease/generate-deal-terms"
	rd "equireal-workers/internal/workers/lease/render-documents"
	sr "equireal-workers/internal/workers/lease/score-risk"
	vbp "equireal-workers/internal/workers/lease/validate-business-profile"

	// Deal Workers (7)
	cds "equireal-workers/internal/workers/deals/compute-dashboard-stats"
	cdr "equireal-workers/internal/workers/deals/create-deal-record"
	gd "equireal-workers/internal/workers/deals/get-deal"
	idx "equireal-workers/internal/workers/deals/index-deal"
	rf "equireal-workers/internal/workers/deals/record-feedback"
	sd "equireal-workers/internal/workers/deals/search-deals"
	uds "equireal-workers/internal/workers/deals/update-deal-status"

	// Communication Workers (1)
	sn "equireal-workers/internal/workers/communication/send-notification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("envFile", cfg.App.EnvFile),
	)

	obs, err := observability.New(cfg.Observability)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Zeebe Client (retries internally until the topology answers) ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Insecure,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if cfg.Database.Postgres.AutoMigrate {
		if err := pg.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		zapLog.Info("PostgreSQL schema ensured")
	}

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	if err := esClient.EnsureIndex(ctx, cfg.Search.Index); err != nil {
		zapLog.Fatal("elasticsearch index setup failed", zap.Error(err), zap.String("index", cfg.Search.Index))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Lease engine ---
	strategy, err := lease.Load(cfg.Lease.Strategy, cfg.Lease.StrategyFile)
	if err != nil {
		zapLog.Fatal("strategy load failed", zap.Error(err),
			zap.String("strategy", cfg.Lease.Strategy),
			zap.String("strategyFile", cfg.Lease.StrategyFile),
		)
	}
	engine := lease.NewEngine(strategy, lease.WithDocumentOptions(document.Options{
		ValidityDays: cfg.Lease.ValidityDays,
		Contact: document.Contact{
			Email: cfg.Lease.ContactEmail,
			Phone: cfg.Lease.ContactPhone,
		},
	}))
	zapLog.Info("Lease engine ready", zap.String("strategy", engine.StrategyName()))

	// --- Notification clients ---
	awsCfg, err := awsclients.LoadConfig(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws config failed", zap.Error(err))
	}
	sesClient := awsclients.NewSESClient(awsCfg)
	snsClient := awsclients.NewSNSClient(awsCfg)

	// --- Handlers ---
	timeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	validateHandler := vbp.NewHandler(&vbp.Config{Timeout: timeout(vbp.TaskType)}, log)
	scoreHandler := sr.NewHandler(&sr.Config{Timeout: timeout(sr.TaskType)}, engine, obs, log)
	termsHandler := gdt.NewHandler(&gdt.Config{Timeout: timeout(gdt.TaskType)}, engine, log)
	renderHandler := rd.NewHandler(&rd.Config{Timeout: timeout(rd.TaskType)}, engine, log)

	createHandler := cdr.NewHandler(&cdr.Config{Timeout: timeout(cdr.TaskType)}, pg.DB, redis.Client, log)
	getHandler := gd.NewHandler(&gd.Config{
		Timeout:  timeout(gd.TaskType),
		CacheTTL: config.GetDuration(cfg.Cache.DealTTL),
	}, pg.DB, redis.Client, log)
	updateHandler := uds.NewHandler(&uds.Config{Timeout: timeout(uds.TaskType)}, pg.DB, redis.Client, log)
	indexHandler := idx.NewHandler(&idx.Config{
		Index:   cfg.Search.Index,
		Timeout: timeout(idx.TaskType),
	}, esClient.Client, log)
	searchHandler := sd.NewHandler(&sd.Config{
		Index:   cfg.Search.Index,
		Timeout: timeout(sd.TaskType),
	}, esClient.Client, log)
	dashboardHandler := cds.NewHandler(&cds.Config{
		Timeout:  timeout(cds.TaskType),
		CacheTTL: config.GetDuration(cfg.Cache.StatsTTL),
	}, pg.DB, redis.Client, log)
	feedbackHandler := rf.NewHandler(&rf.Config{Timeout: timeout(rf.TaskType)}, pg.DB, log)

	notifyHandler := sn.NewHandler(&sn.Config{
		EmailEnabled:  cfg.Notifications.Email.Enabled,
		SMSEnabled:    cfg.Notifications.SMS.Enabled,
		FromEmail:     cfg.Notifications.Email.FromEmail,
		LandlordEmail: cfg.Notifications.Email.LandlordEmail,
		LandlordPhone: cfg.Notifications.SMS.LandlordPhone,
		Timeout:       timeout(sn.TaskType),
	}, sesClient, snsClient, log)

	// --- Register all 12 workers ---
	client := zeebe.GetClient()
	jobHandlers := []jobHandler{
		{vbp.TaskType, validateHandler.Handle},
		{sr.TaskType, scoreHandler.Handle},
		{gdt.TaskType, termsHandler.Handle},
		{rd.TaskType, renderHandler.Handle},
		{cdr.TaskType, createHandler.Handle},
		{gd.TaskType, getHandler.Handle},
		{uds.TaskType, updateHandler.Handle},
		{idx.TaskType, indexHandler.Handle},
		{sd.TaskType, searchHandler.Handle},
		{cds.TaskType, dashboardHandler.Handle},
		{rf.TaskType, feedbackHandler.Handle},
		{sn.TaskType, notifyHandler.Handle},
	}

	checkRegistry(cfg.Registry.Path, jobHandlers, zapLog)

	var workers []worker.JobWorker
	for _, jh := range jobHandlers {
		if jw := camunda.StartWorker(client, jh.taskType, config.GetWorkerConfig(cfg, jh.taskType), jh.handle, obs, log); jw != nil {
			workers = append(workers, jw)
		}
	}
	zapLog.Info("Workers registered", zap.Int("started", len(workers)), zap.Int("known", len(jobHandlers)))

	// --- Health, Metrics & API Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := readinessChecks(r.Context(), pg, esClient, redis, zeebe)
		for _, v := range checks {
			if v != "ok" {
				writeStatus(w, http.StatusServiceUnavailable, "not_ready", checks)
				return
			}
		}
		writeStatus(w, http.StatusOK, "ready", checks)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	if cfg.Server.APIEnabled {
		pl := pipeline.New(pipeline.Stages{
			Validate: validateHandler,
			Score:    scoreHandler,
			Terms:    termsHandler,
			Render:   renderHandler,
			Create:   createHandler,
			Get:      getHandler,
			Update:   updateHandler,
			Index:    indexHandler,
			Notify:   notifyHandler,
		}, obs, log)
		wz := wizard.New(wizard.NewRedisStore(redis.Client, config.GetDuration(cfg.Cache.WizardTTL)), pl.SubmitProfile, log)

		apiServer := api.NewServer(api.Services{
			Pipeline:  pl,
			Deals:     getHandler,
			Search:    searchHandler,
			Dashboard: dashboardHandler,
			Feedback:  feedbackHandler,
			Wizard:    wz,
		}, log)
		mux.Handle("/api/", apiServer.Handler())
		zapLog.Info("REST API enabled", zap.String("prefix", "/api/v1"))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Scheduler ---
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(cfg.Scheduler, dashboardHandler, getHandler, indexHandler, log)
		if err := sched.RegisterAll(); err != nil {
			zapLog.Fatal("scheduler setup failed", zap.Error(err))
		}
		sched.Start()
		zapLog.Info("Scheduler started", zap.Int("jobs", sched.Jobs()))
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

type jobHandler struct {
	taskType string
	handle   worker.JobHandler
}

// checkRegistry warns about task types the activity registry does not
// declare. A missing or invalid registry is logged and otherwise ignored.
func checkRegistry(path string, handlers []jobHandler, log *zap.Logger) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry not loaded", zap.String("path", path), zap.Error(err))
		return
	}
	if err := reg.Validate(); err != nil {
		log.Warn("activity registry invalid", zap.String("path", path), zap.Error(err))
	}
	taskTypes := make([]string, len(handlers))
	for i, h := range handlers {
		taskTypes[i] = h.taskType
	}
	if missing := reg.Missing(taskTypes); len(missing) > 0 {
		log.Warn("task types missing from activity registry", zap.Strings("taskTypes", missing))
	}
}

func readinessChecks(
	ctx context.Context,
	pg *database.PostgresClient,
	es *database.ElasticsearchClient,
	redis *database.RedisClient,
	zeebe *camunda.Client,
) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result := func(err error) string {
		if err != nil {
			return err.Error()
		}
		return "ok"
	}
	return map[string]string{
		"postgres":      result(pg.Ping(ctx)),
		"elasticsearch": result(es.Ping()),
		"redis":         result(redis.Ping(ctx)),
		"zeebe":         result(zeebe.HealthCheck(ctx)),
	}
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
