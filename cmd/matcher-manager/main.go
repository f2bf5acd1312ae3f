// cmd/matcher-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"neighborhood-matcher/internal/catalog"
	awsclients "neighborhood-matcher/internal/common/aws"
	"neighborhood-matcher/internal/common/camunda"
	"neighborhood-matcher/internal/common/config"
	"neighborhood-matcher/internal/common/database"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/common/observability"
	"neighborhood-matcher/internal/matching"
	"neighborhood-matcher/internal/profile"
	"neighborhood-matcher/pkg/registry"

	smd "neighborhood-matcher/internal/workers/communication/send-match-digest"
	cnm "neighborhood-matcher/internal/workers/matching/calculate-neighborhood-match"
	fnm "neighborhood-matcher/internal/workers/matching/find-neighborhood-matches"
	umc "neighborhood-matcher/internal/workers/matching/update-matching-config"
	vcc "neighborhood-matcher/internal/workers/matching/validate-catalog-consistency"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).With(zap.String("service", cfg.App.Name))
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting matcher manager...", zap.String("environment", cfg.App.Environment))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
		obs = &observability.Observability{}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Storage ---
	clients := openClients(ctx, cfg, log, zapLog)
	defer clients.close(zapLog)

	provider, err := catalog.FromConfig(cfg.Catalog, clients.Clients, log)
	if err != nil {
		zapLog.Fatal("catalog provider setup failed", zap.Error(err))
	}

	var profiles profile.Source
	if clients.Postgres != nil {
		profiles = profile.NewStore(clients.Postgres, clients.Redis, time.Duration(cfg.Profiles.CacheTTL)*time.Second, log)
	}

	// --- Matching engine ---
	engineCfg, err := cfg.Matching.ToEngine()
	if err != nil {
		zapLog.Fatal("matching config invalid", zap.Error(err))
	}
	service, err := matching.NewService(engineCfg, log, matching.WithParallelism(cfg.Matching.Parallelism))
	if err != nil {
		zapLog.Fatal("matching service setup failed", zap.Error(err))
	}

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Warn("activity registry unavailable, input schemas disabled", zap.String("path", cfg.Registry.Path), zap.Error(err))
		reg = registry.New()
	}

	// --- Workers ---
	client := zeebe.Zeebe()
	var workers []worker.JobWorker
	start := func(taskType string, h camunda.JobHandler) {
		if jw := camunda.StartWorker(client, taskType, cfg.Workers[taskType], h, log); jw != nil {
			workers = append(workers, jw)
		}
	}

	start(fnm.TaskType, fnm.NewHandler(
		fnm.LoadConfig(cfg.Workers[fnm.TaskType], reg.Find(fnm.TaskType)),
		service, provider, profiles, obs, log))
	start(cnm.TaskType, cnm.NewHandler(
		cnm.LoadConfig(cfg.Workers[cnm.TaskType], reg.Find(cnm.TaskType)),
		service, provider, profiles, obs, log))
	start(umc.TaskType, umc.NewHandler(umc.LoadConfig(cfg.Workers[umc.TaskType]), service, obs, log))
	start(vcc.TaskType, vcc.NewHandler(vcc.LoadConfig(cfg.Workers[vcc.TaskType], nil), provider, log))

	if cfg.Workers[smd.TaskType].Enabled {
		aws, err := awsclients.NewClients(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws clients setup failed", zap.Error(err))
		}
		digestCfg := smd.LoadConfig(cfg.Workers[smd.TaskType], cfg.Notifications)
		handler, err := smd.NewHandler(digestCfg, smd.NewService(digestCfg, aws, log), log)
		if err != nil {
			zapLog.Fatal("send-match-digest setup failed", zap.Error(err))
		}
		start(smd.TaskType, handler)
	}

	zapLog.Info("All workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{Addr: cfg.Metrics.Address, Handler: healthMux(zeebe, clients, provider), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing observability", zap.Error(err))
	}

	zapLog.Info("Matcher manager stopped gracefully")
}

type storage struct {
	catalog.Clients
}

// openClients connects every configured backend. Optional backends that fail
// are logged and skipped; the catalog source itself is validated later by
// catalog.FromConfig.
func openClients(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) *storage {
	s := &storage{}
	retry := &camunda.RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: 10 * time.Second}

	if cfg.Database.Postgres.Enabled() {
		err := camunda.Retry(ctx, retry, log, "PostgreSQL connection", func(ctx context.Context) error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Migrate(ctx); err != nil {
				pg.Close()
				return err
			}
			s.Postgres = pg
			return nil
		})
		if err != nil {
			zapLog.Error("PostgreSQL unavailable", zap.Error(err))
		}
	}

	if url := cfg.Database.Elasticsearch.GetURL(); url != "" {
		err := camunda.Retry(ctx, retry, log, "Elasticsearch connection", func(ctx context.Context) error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.EnsureIndex(ctx, cfg.Catalog.Index, catalog.NeighborhoodMapping); err != nil {
				return err
			}
			s.Elasticsearch = es
			return nil
		})
		if err != nil {
			zapLog.Error("Elasticsearch unavailable", zap.Error(err))
		}
	}

	if cfg.Database.Redis.Address != "" {
		err := camunda.Retry(ctx, retry, log, "Redis connection", func(ctx context.Context) error {
			rdb, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rdb.Ping(ctx); err != nil {
				rdb.Close()
				return err
			}
			s.Redis = rdb
			return nil
		})
		if err != nil {
			zapLog.Error("Redis unavailable", zap.Error(err))
		}
	}

	if cfg.Catalog.Source == config.CatalogSourceSQLite {
		lite, err := database.OpenSQLite(cfg.Database.SQLite.Path)
		if err == nil {
			err = catalog.NewSQLiteStore(lite).EnsureSchema(ctx)
		}
		if err != nil {
			zapLog.Error("SQLite unavailable", zap.Error(err))
		} else {
			s.SQLite = lite
		}
	}

	return s
}

func (s *storage) close(zapLog *zap.Logger) {
	closers := map[string]interface{ Close() error }{}
	if s.Postgres != nil {
		closers["postgres"] = s.Postgres
	}
	if s.Redis != nil {
		closers["redis"] = s.Redis
	}
	if s.SQLite != nil {
		closers["sqlite"] = s.SQLite
	}
	for name, c := range closers {
		if err := c.Close(); err != nil {
			zapLog.Error("Error closing client", zap.String("client", name), zap.Error(err))
		}
	}
}

func healthMux(zeebe *camunda.Client, s *storage, provider catalog.Provider) *http.ServeMux {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, code int, body map[string]interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true
		check := func(name string, err error) {
			if err != nil {
				checks[name] = err.Error()
				ready = false
				return
			}
			checks[name] = "ok"
		}

		check("zeebe", zeebe.HealthCheck(ctx))
		if s.Postgres != nil {
			check("postgres", s.Postgres.Ping(ctx))
		}
		if s.Redis != nil {
			check("redis", s.Redis.Ping(ctx))
		}
		if s.Elasticsearch != nil {
			check("elasticsearch", s.Elasticsearch.Ping(ctx))
		}
		_, err := provider.GetNeighborhoods(ctx)
		check("catalog:"+provider.Name(), err)

		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not ready", http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
