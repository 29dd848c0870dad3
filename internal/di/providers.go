package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"AstroCarto/internal/domain/repository"
	domsvc "AstroCarto/internal/domain/service"
	"AstroCarto/internal/handler/api"
	internalrepo "AstroCarto/internal/repository"
	"AstroCarto/internal/services/ephemeris"
	"AstroCarto/internal/services/geometry"
	"AstroCarto/internal/usecase"
	"AstroCarto/pkg/cache"
	pkgch "AstroCarto/pkg/clickhouse"
	"AstroCarto/pkg/config"
	pkgkafka "AstroCarto/pkg/kafka"
	"AstroCarto/pkg/logger"
	"AstroCarto/pkg/metrics"
	"AstroCarto/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	// Warning and error records aggregate into a rolling window that
	// backs the diagnostics endpoint.
	l.AddCollector(&logger.CollectionConfig{
		TimeInterval:   5 * time.Minute,
		CountThreshold: 200,
	})
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePositionProvider selects the ephemeris backend from config.
func ProvidePositionProvider(cfg *config.Config) (domsvc.PositionProvider, error) {
	switch cfg.Ephemeris.Provider {
	case "builtin":
		return ephemeris.NewAnalyticProvider(), nil
	case "remote":
		return ephemeris.NewRemoteProvider(cfg.Ephemeris.URL, cfg.Ephemeris.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown ephemeris provider %q", cfg.Ephemeris.Provider)
	}
}

// ProvideResultCache creates the result cache backend from config.
func ProvideResultCache(cfg *config.Config) (cache.Service, error) {
	switch cfg.Cache.Backend {
	case "memory":
		var opts []cache.MemoryOption
		if cfg.Cache.Capacity > 0 {
			opts = append(opts, cache.WithMemoryMaxSize(cfg.Cache.Capacity))
		}
		return cache.NewMemoryCache(opts...), nil
	case "redis", "layered":
		host, portStr, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
		if err != nil {
			return nil, fmt.Errorf("cache redis addr: %w", err)
		}
		port, _ := strconv.Atoi(portStr)
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(host),
			cache.WithRedisPort(port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix("acg"),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Cache.Backend == "redis" {
			return rc, nil
		}
		return cache.NewLayeredCache(rc), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// ProvideEngine creates the compute engine.
func ProvideEngine(provider domsvc.PositionProvider, m repository.Metrics, l *logger.Logger, cfg *config.Config) *usecase.Engine {
	return usecase.NewEngine(provider, m, l, cfg.Engine.Workers, cfg.Engine.Deadline)
}

// ProvideCachedEngine wraps the engine with the fingerprint result cache
// and attaches the optional archive and publisher sinks.
func ProvideCachedEngine(engine *usecase.Engine, store cache.Service, m repository.Metrics, l *logger.Logger, archive repository.Archive, publisher repository.Publisher, cfg *config.Config) *usecase.CachedEngine {
	return usecase.NewCachedEngine(engine, store, m, l, cfg.Engine.ResultTTL).WithSinks(archive, publisher)
}

// ProvideAssembler creates the GeoJSON assembler shared by engine and handlers.
func ProvideAssembler() *geometry.Assembler {
	return geometry.NewAssembler()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideArchive creates the ClickHouse run archive, or nil when disabled.
func ProvideArchive(chClient *pkgch.Client, l *logger.Logger) (repository.Archive, error) {
	if chClient == nil {
		return nil, nil
	}
	archive := internalrepo.NewCHArchive(chClient)
	archive.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		return nil, fmt.Errorf("archive schema: %w", err)
	}
	return archive, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the Kafka result publisher, or nil when disabled.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideLinesHandler creates the HTTP handler for line computation.
func ProvideLinesHandler(l *logger.Logger, engine *usecase.CachedEngine, assembler *geometry.Assembler, archive repository.Archive, cfg *config.Config) *api.LinesHandler {
	return api.NewLinesHandler(l, engine, assembler, archive, engineDefaults(cfg))
}

// ProvideLiveHandler creates the WebSocket live stream handler.
func ProvideLiveHandler(l *logger.Logger, engine *usecase.CachedEngine, assembler *geometry.Assembler, cfg *config.Config) *api.LiveHandler {
	return api.NewLiveHandler(l, engine, assembler, engineDefaults(cfg), cfg.Engine.LiveInterval)
}

func engineDefaults(cfg *config.Config) api.Defaults {
	return api.Defaults{
		StepDeg:             cfg.Engine.StepDeg,
		PrecisionDeg:        cfg.Engine.PrecisionDeg,
		OrbDeg:              cfg.Engine.OrbDeg,
		StationaryThreshold: cfg.Engine.StationaryThreshold,
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	lines *api.LinesHandler,
	live *api.LiveHandler,
	archive repository.Archive,
	publisher repository.Publisher,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, l, lines, live, archive, publisher, chClient)
}
