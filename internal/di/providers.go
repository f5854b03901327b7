package di

import (
	"context"
	"fmt"
	"time"

	"MarketHeat/internal/domain/models"
	domrepo "MarketHeat/internal/domain/repository"
	"MarketHeat/internal/engine"
	"MarketHeat/internal/handler/api"
	internalrepo "MarketHeat/internal/repository"
	"MarketHeat/internal/service/marketdata"
	"MarketHeat/internal/usecase"
	"MarketHeat/pkg/cache"
	pkgch "MarketHeat/pkg/clickhouse"
	"MarketHeat/pkg/config"
	pkgkafka "MarketHeat/pkg/kafka"
	applogger "MarketHeat/pkg/logger"
	"MarketHeat/pkg/metrics"
	"MarketHeat/pkg/server"
)

// ProvideLogger creates the application logger. Production logs JSON.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideEngineConfig converts the YAML engine section into the engine's
// immutable config value.
func ProvideEngineConfig(cfg *config.Config) engine.Config {
	ec := engine.Config{
		Weights:         make(map[models.FactorName]float64, len(cfg.Engine.Weights)),
		NormWindow:      cfg.Engine.NormWindow,
		SlowWindow:      cfg.Engine.SlowWindow,
		TrendWindow:     cfg.Engine.TrendWindow,
		MinPeriods:      cfg.Engine.MinPeriods,
		AccelLag:        cfg.Engine.AccelLag,
		MAWindow:        cfg.Engine.MAWindow,
		UpRatioWindow:   cfg.Engine.UpRatioWindow,
		ZClip:           cfg.Engine.ZClip,
		LogisticK:       cfg.Engine.LogisticK,
		LogisticC:       cfg.Engine.LogisticC,
		SmoothSpan:      cfg.Engine.SmoothSpan,
		SignalThreshold: cfg.Engine.SignalThreshold,
		Breakpoints:     cfg.Engine.Breakpoints,
	}
	for name, w := range cfg.Engine.Weights {
		ec.Weights[models.FactorName(name)] = w
	}
	for _, tier := range cfg.Engine.Tiers {
		ec.Tiers = append(ec.Tiers, models.RiskTier(tier))
	}
	return ec
}

// ProvideEngine builds the factor synthesis engine; config validation is
// fatal here, before anything else starts.
func ProvideEngine(ec engine.Config) (*engine.Engine, error) {
	eng, err := engine.New(ec)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return eng, nil
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideTableStore creates the ClickHouse-backed result store and ensures
// its schema exists.
func ProvideTableStore(chClient *pkgch.Client, l *applogger.Logger) (domrepo.TableStore, error) {
	store := internalrepo.NewCHTableStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideRedisCache creates the shared Redis client; nil when disabled.
func ProvideRedisCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideSnapshotCache wraps Redis as the serving snapshot; nil when Redis is off.
func ProvideSnapshotCache(c cache.Service, cfg *config.Config, l *applogger.Logger) domrepo.SnapshotCache {
	if c == nil {
		return nil
	}
	ttl := cfg.Redis.TTL
	if ttl == 0 {
		ttl = 48 * time.Hour
	}
	snap := internalrepo.NewRedisSnapshot(c, ttl)
	snap.SetLogger(l)
	return snap
}

// ProvidePublisher creates the Kafka latest-record publisher; nil when disabled.
func ProvidePublisher(cfg *config.Config, l *applogger.Logger) (domrepo.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	pub.SetLogger(l)
	return pub, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideSeriesSource creates the market data retrieval client.
func ProvideSeriesSource(cfg *config.Config, l *applogger.Logger, m domrepo.Metrics) domrepo.SeriesSource {
	return marketdata.New(cfg.MarketData.BaseURL,
		marketdata.WithIndices(cfg.MarketData.PrimaryIndex, cfg.MarketData.BroadIndex),
		marketdata.WithSearchKeyword(cfg.MarketData.SearchKeyword),
		marketdata.WithStaleness(marketdata.Staleness{
			Margin: cfg.MarketData.Staleness.Margin,
			Search: cfg.MarketData.Staleness.Search,
			PE:     cfg.MarketData.Staleness.PE,
		}),
		marketdata.WithRequestsPerMin(cfg.MarketData.RequestsPerMin),
		marketdata.WithLogger(l),
		marketdata.WithMetrics(m),
	)
}

// ProvideRecompute creates the recompute use case with all collaborators.
func ProvideRecompute(
	source domrepo.SeriesSource,
	store domrepo.TableStore,
	eng *engine.Engine,
	snap domrepo.SnapshotCache,
	pub domrepo.Publisher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.Recompute {
	rec := usecase.NewRecompute(source, store, eng)
	if snap != nil {
		rec.SetSnapshotCache(snap)
	}
	if pub != nil {
		rec.SetPublisher(pub)
	}
	rec.SetMetrics(m)
	rec.SetLogger(l)
	return rec
}

// ProvideHandler creates the serving API handler.
func ProvideHandler(l *applogger.Logger, store domrepo.TableStore, snap domrepo.SnapshotCache) *api.IndexEchoHandler {
	h := api.NewIndexEchoHandler(l, store)
	if snap != nil {
		h.SetSnapshotCache(snap)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	rec *usecase.Recompute,
	handler *api.IndexEchoHandler,
	chClient *pkgch.Client,
	redis cache.Service,
) *server.App {
	return server.New(cfg, l, rec, handler, chClient, redis)
}
