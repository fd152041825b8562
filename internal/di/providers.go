package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"SerialScope/internal/domain/repository"
	"SerialScope/internal/handler/api"
	mid "SerialScope/internal/middleware"
	internalrepo "SerialScope/internal/repository"
	"SerialScope/internal/service/serialport"
	"SerialScope/internal/service/tcpline"
	"SerialScope/internal/service/wsline"
	"SerialScope/internal/signal"
	"SerialScope/internal/usecase"
	pkgcache "SerialScope/pkg/cache"
	pkgch "SerialScope/pkg/clickhouse"
	"SerialScope/pkg/config"
	pkgkafka "SerialScope/pkg/kafka"
	applogger "SerialScope/pkg/logger"
	"SerialScope/pkg/metrics"
	"SerialScope/pkg/queue"
	"SerialScope/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRegistry creates the signal registry.
func ProvideRegistry() *signal.Registry {
	return signal.NewRegistry()
}

// ProvideStore creates the sample store.
func ProvideStore() *signal.Store {
	return signal.NewStore()
}

// ProvideClickHouseClient creates a ClickHouse client when the archive
// is enabled. Returns nil otherwise; downstream providers treat nil as
// "archive off".
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Archive.Enabled {
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	table := fmt.Sprintf("%s.%s", db, cfg.ClickHouse.Table)
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (signal String, ts Float64, value Float64, ingested_at DateTime DEFAULT now()) ENGINE=MergeTree ORDER BY (signal, ts)", table),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer for the record sink.
// Returns nil when the Kafka sink is disabled.
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

// ProvideSinkPipeline assembles the configured record sinks. The CSV
// file is synchronous so the on-disk log never lags the store; Kafka
// and the ClickHouse archive flush from a buffer.
func ProvideSinkPipeline(
	cfg *config.Config,
	m repository.Metrics,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *mid.SinkPipeline {
	opts := []mid.PipelineOption{mid.WithBufferSize(1000)}
	if cfg.CSV.Enabled {
		opts = append(opts, mid.WithSyncSink(internalrepo.NewCSVSink(cfg.CSV.Path)))
	}
	if producer != nil {
		opts = append(opts, mid.WithAsyncSink(internalrepo.NewKafkaSink(producer, cfg.Kafka.Topic)))
	}
	if chClient != nil {
		table := fmt.Sprintf("%s.%s", cfg.ClickHouse.Database, cfg.ClickHouse.Table)
		archive := internalrepo.NewClickHouseArchive(chClient.DB(), table)
		opts = append(opts, mid.WithAsyncSink(internalrepo.NewArchiveSink(archive, cfg.Archive.BatchSize, cfg.Archive.BatchTimeout)))
	}
	return mid.NewSinkPipeline(m, opts...)
}

// ProvideIngestor creates the shared line ingestor.
func ProvideIngestor(
	reg *signal.Registry,
	store *signal.Store,
	pipeline *mid.SinkPipeline,
	m repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.Ingestor {
	return usecase.NewIngestor(reg, store, pipeline, m, logger, cfg.Plot.WindowSize)
}

// ProvideLineTransport selects the polled transport. Returns nil for
// the kafka ingress, which has no polling loop.
func ProvideLineTransport(cfg *config.Config) repository.LineTransport {
	switch cfg.Transport.Type {
	case "serial":
		return serialport.New(cfg.Transport.Serial.Port, cfg.Transport.Serial.BaudRate, cfg.Transport.ReconnectDelay)
	case "tcp":
		return tcpline.New(cfg.Transport.TCP.Addr, cfg.Transport.TCP.DialTimeout, cfg.Transport.ReconnectDelay)
	case "websocket":
		return wsline.New(cfg.Transport.WebSocket.URL, cfg.Transport.ReconnectDelay, cfg.Transport.WebSocket.PingInterval)
	}
	return nil
}

// ProvideStreamPump creates the polling pump, or nil when lines arrive
// through the kafka ingress instead.
func ProvideStreamPump(
	transport repository.LineTransport,
	ing *usecase.Ingestor,
	m repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.StreamPump {
	if transport == nil {
		return nil
	}
	return usecase.NewStreamPump(transport, ing, m, logger, cfg.Transport.PollInterval)
}

// ProvideRenderSelector creates the selection-filtered read view.
func ProvideRenderSelector(reg *signal.Registry, store *signal.Store) *usecase.RenderSelector {
	return usecase.NewRenderSelector(reg, store)
}

// ProvideStatsUseCase creates the per-signal stats aggregator.
func ProvideStatsUseCase(sel *usecase.RenderSelector) *usecase.StatsAggregateUseCase {
	return usecase.NewStatsAggregateUseCase(sel)
}

// ProvideLiveHub creates the websocket redraw hub.
func ProvideLiveHub(sel *usecase.RenderSelector, logger *applogger.Logger, cfg *config.Config) *api.LiveHub {
	return api.NewLiveHub(sel, logger, cfg.Plot.WindowSize, cfg.Plot.RedrawInterval)
}

// ProvideKafkaConsumer creates the ingress consumer when lines arrive
// from a broker instead of a polled transport.
func ProvideKafkaConsumer(cfg *config.Config, logger *applogger.Logger) (*pkgkafka.Consumer, error) {
	if cfg.Transport.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(logger,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaLinesHandler registers the handler for the raw lines topic.
func ProvideKafkaLinesHandler(
	ing *usecase.Ingestor,
	m repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.KafkaLinesHandler {
	return usecase.NewKafkaLinesHandler(cfg.Kafka.Topic, ing, m, logger)
}

// ProvideJobQueue creates the redis-backed export job queue, or nil
// when redis is disabled.
func ProvideJobQueue(
	cfg *config.Config,
	logger *applogger.Logger,
	reg *signal.Registry,
	store *signal.Store,
) *queue.RedisQueue {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	q := queue.NewRedisQueue(logger, queue.Config{
		Workers:    cfg.Export.Workers,
		RetryLimit: cfg.Export.RetryLimit,
		RetryDelay: cfg.Export.RetryDelay,
	}, client)
	q.RegisterJob(usecase.NewExportJob(usecase.NewExportUseCase(reg, store), logger))
	q.RegisterJob(usecase.NewLogDigestJob(logger))
	logger.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          "log_digest",
		Publisher:      q,
	})
	return q
}

// ProvideScopeHandler assembles the HTTP surface.
func ProvideScopeHandler(
	cfg *config.Config,
	logger *applogger.Logger,
	sel *usecase.RenderSelector,
	statsUC *usecase.StatsAggregateUseCase,
	pump *usecase.StreamPump,
	hub *api.LiveHub,
	chClient *pkgch.Client,
	jobQueue *queue.RedisQueue,
) *api.ScopeEchoHandler {
	h := api.NewScopeEchoHandler(logger, sel, statsUC, pump, hub, cfg.Plot.WindowSize)

	h.SetCache(provideResponseCache(cfg, logger))

	if chClient != nil {
		table := fmt.Sprintf("%s.%s", cfg.ClickHouse.Database, cfg.ClickHouse.Table)
		hist := internalrepo.NewClickHouseHistory(chClient.DB(), table)
		hist.SetLogger(logger)
		h.SetHistory(usecase.NewHistoryUseCase(hist))
	}

	if jobQueue != nil {
		h.SetQueue(jobQueue)
	}

	return h
}

// provideResponseCache layers an in-process front over redis when
// redis is reachable, falling back to memory-only.
func provideResponseCache(cfg *config.Config, logger *applogger.Logger) pkgcache.Store {
	mem := pkgcache.NewMemory(256)
	if !cfg.Redis.Enabled {
		return mem
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis cache unavailable, using memory cache", applogger.Error(err))
		return mem
	}
	return pkgcache.NewLayered(mem, pkgcache.NewRedis(client, "serialscope"), time.Second)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	m repository.Metrics,
	ing *usecase.Ingestor,
	pump *usecase.StreamPump,
	hub *api.LiveHub,
	pipeline *mid.SinkPipeline,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaLinesHandler,
	jobQueue *queue.RedisQueue,
	chClient *pkgch.Client,
	handler *api.ScopeEchoHandler,
) *server.App {
	ing.SetFrameFunc(hub.OnFrame)

	if consumer != nil {
		consumer.WithConsumerHook(usecase.NewKafkaIngressHook(m, logger))
	}

	app := server.New(cfg, logger, pump, hub, pipeline)
	app.SetHTTPHandler(handler)
	if consumer != nil {
		app.SetKafkaIngress(consumer, kh)
	}
	if jobQueue != nil {
		app.SetJobQueue(jobQueue)
	}
	if chClient != nil {
		app.SetClickHouse(chClient)
	}
	return app
}
