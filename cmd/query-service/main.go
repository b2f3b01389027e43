// cmd/query-service/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ledger-assistant/internal/aggregate"
	"ledger-assistant/internal/common/config"
	"ledger-assistant/internal/common/database"
	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/common/observability"
	"ledger-assistant/internal/handlers"
	"ledger-assistant/internal/intent"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/notify"
	"ledger-assistant/internal/orchestrator"
	"ledger-assistant/internal/search"
	"ledger-assistant/internal/source"
	"ledger-assistant/internal/store"
	"ledger-assistant/internal/txstore"
	"ledger-assistant/internal/understand"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load failed:", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting query service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("query-service")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Pipeline.Timezone)
	if err != nil {
		zapLog.Warn("invalid timezone, using UTC", zap.String("timezone", cfg.Pipeline.Timezone))
		loc = time.UTC
	}

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

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional) ---
	var searchClient *search.Client
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, ledger search degrades to LIKE tier", zap.Error(err))
		} else {
			searchClient = search.NewClient(esClient.Client, cfg.Database.Elasticsearch.Index, log)
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Stores and data access ---
	contexts := store.NewContextStore(config.GetSeconds(cfg.Pipeline.ContextTTL), time.Now, log)
	contexts.StartSweeper(ctx, config.GetSeconds(cfg.Pipeline.SweepInterval))

	cache := store.NewCacheStore(redisClient.GetClient(), config.GetSeconds(cfg.Pipeline.CacheTTL), time.Now, log)
	txStore := txstore.New(pg.GetDB(), log)
	accountingSource := source.NewHTTPSource(cfg.Source.BaseURL, config.GetDuration(cfg.Source.Timeout), log)

	// --- Understanding backends ---
	backends := make([]understand.UnderstandingBackend, 0, len(cfg.Understanding.Backends))
	for _, bc := range cfg.Understanding.Backends {
		backends = append(backends, understand.NewHTTPBackend(
			bc.Name, bc.BaseURL, bc.APIKey,
			config.GetDuration(bc.Timeout), bc.MaxRetries, log,
		))
	}
	var searcher understand.LedgerSearcher
	if searchClient != nil {
		searcher = searchClient
	}
	adapter := understand.NewAdapter(backends, accountingSource, searcher, cfg.Pipeline.MaxResultRows, log)

	// --- Reminder delivery (optional) ---
	var sender handlers.ReminderSender
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		notifier, err := notify.New(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail, pg.GetDB(), log)
		if err != nil {
			zapLog.Warn("notifier unavailable, reminders are list-only", zap.Error(err))
		} else {
			sender = notifier
		}
	}

	// --- Category chains ---
	aggregator := aggregate.New(txStore, time.Now, log)
	maxRows := cfg.Pipeline.MaxResultRows

	var ledgerSearch handlers.LedgerSearcher
	if searchClient != nil {
		ledgerSearch = searchClient
	}

	chains := map[models.Category]orchestrator.CategoryChain{
		models.CategoryCompany: handlers.NewChain(models.CategoryCompany, "Company Information", log,
			handlers.NewCompanyHandler(accountingSource, txStore, loc, log),
		),
		models.CategoryLedger: handlers.NewChain(models.CategoryLedger, "Ledger Balance", log,
			handlers.NewOutstandingHandler(txStore, txStore, loc, maxRows, time.Now, log),
			handlers.NewLedgerHandler(accountingSource, ledgerSearch, txStore, loc, maxRows, log),
		),
		models.CategoryAnalytical: handlers.NewChain(models.CategoryAnalytical, "Business Analytics", log,
			handlers.NewAnalyticalHandler(aggregator, accountingSource, txStore, loc, log),
			handlers.NewOutstandingHandler(txStore, txStore, loc, maxRows, time.Now, log),
		),
		models.CategoryInventory: handlers.NewChain(models.CategoryInventory, "Inventory", log,
			handlers.NewInventoryHandler(accountingSource, txStore, loc, maxRows, log),
		),
		models.CategoryReminders: handlers.NewChain(models.CategoryReminders, "Payment Reminders", log,
			handlers.NewRemindersHandler(txStore, sender, txStore, loc, time.Now, log),
		),
	}

	resolver := orchestrator.New(intent.NewClassifier(log), contexts, cache, adapter, chains, time.Now, log)

	// --- HTTP surface ---
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/resolve", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req models.QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		start := time.Now()
		resp := resolver.Resolve(r.Context(), req)
		obs.RecordResolve(r.Context(), string(resp.Category))
		obs.RecordResolveDuration(r.Context(), time.Since(start), string(resp.Category))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/cache/clear", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		tenantID := r.URL.Query().Get("tenantId")
		if tenantID == "" {
			http.Error(w, "tenantId required", http.StatusBadRequest)
			return
		}
		if err := cache.ClearTenant(r.Context(), tenantID); err != nil {
			http.Error(w, "clear failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	server := &http.Server{
		Addr:    ":8080",
		Handler: mux,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Shutdown complete")
}
