package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"TradeSage/internal/domain/repository"
	domsvc "TradeSage/internal/domain/service"
	"TradeSage/internal/handler/api"
	mid "TradeSage/internal/middleware"
	internalrepo "TradeSage/internal/repository"
	icache "TradeSage/internal/service/cache"
	pkgcache "TradeSage/pkg/cache"
	"TradeSage/internal/service/marketdata"
	"TradeSage/internal/service/stream"
	"TradeSage/internal/services/indicator"
	"TradeSage/internal/services/model"
	"TradeSage/internal/services/pattern"
	"TradeSage/internal/usecase"
	pkgch "TradeSage/pkg/clickhouse"
	"TradeSage/pkg/config"
	pkgkafka "TradeSage/pkg/kafka"
	applogger "TradeSage/pkg/logger"
	"TradeSage/pkg/metrics"
	pkgqueue "TradeSage/pkg/queue"
	"TradeSage/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{Level: "info", Format: "json", Output: "stdout"}
	if cfg.Environment == "development" {
		lc.Level = "debug"
		lc.Format = "console"
	}
	return applogger.New(lc)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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
	candleDDL := func(iv string) string {
		return "CREATE TABLE IF NOT EXISTS " + db + ".candles_" + iv +
			" (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64)" +
			" ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)"
	}
	// candles_X is fed from ticks_raw by a materialized view per interval
	candleMV := func(iv, bucketExpr string) string {
		return "CREATE MATERIALIZED VIEW IF NOT EXISTS " + db + ".candles_" + iv + "_mv TO " + db + ".candles_" + iv +
			" AS SELECT " + bucketExpr + " AS bucket, symbol," +
			" argMin(price, ts) AS open, max(price) AS high, min(price) AS low, argMax(price, ts) AS close, sum(volume) AS vol" +
			" FROM " + db + ".ticks_raw GROUP BY bucket, symbol"
	}
	ddl := []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".ticks_raw (ts DateTime, symbol String, price Float64, volume Float64) ENGINE=MergeTree ORDER BY (symbol, ts)",
		candleDDL("1m"),
		candleDDL("5m"),
		candleDDL("15m"),
		candleDDL("1h"),
		candleDDL("4h"),
		candleDDL("1d"),
		candleMV("1m", "toStartOfMinute(ts)"),
		candleMV("5m", "toStartOfFiveMinutes(ts)"),
		candleMV("15m", "toStartOfFifteenMinutes(ts)"),
		candleMV("1h", "toStartOfHour(ts)"),
		candleMV("4h", "toStartOfInterval(ts, INTERVAL 4 HOUR)"),
		candleMV("1d", "toStartOfDay(ts)"),
		"CREATE TABLE IF NOT EXISTS " + db + ".signals (created_at DateTime, symbol String, action String, confidence Float64, predicted_price Float64, last_price Float64, trend String, arbitrage Float64, pattern String) ENGINE=MergeTree ORDER BY (symbol, created_at)",
	}
	if err := client.InitSchema(ctx, ddl); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCandleStore creates the ClickHouse candle repository.
func ProvideCandleStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.CandleStore {
	store := internalrepo.NewCHCandleStore(chClient, cfg.ClickHouse.Database)
	store.SetLogger(l)
	return store
}

// ProvideSignalStore creates the ClickHouse signal repository.
func ProvideSignalStore(chClient *pkgch.Client, cfg *config.Config) repository.SignalStore {
	return internalrepo.NewCHSignalStore(chClient, cfg.ClickHouse.Database)
}

// ProvideTickPublisher creates the Kafka tick publisher.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.TickPublisher {
	return internalrepo.NewKafkaTickPublisher(producer, cfg.Kafka.TicksTopic)
}

// ProvideNotifier creates the Kafka signal notifier.
func ProvideNotifier(producer *pkgkafka.Producer, cfg *config.Config) repository.Notifier {
	return internalrepo.NewKafkaNotifier(producer, cfg.Kafka.SignalsTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
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

// ProvideKafkaTicksHandler registers handler for the ticks topic.
func ProvideKafkaTicksHandler(store repository.CandleStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, store, m)
}

// ProvideStream creates the Binance WebSocket tick stream.
func ProvideStream(cfg *config.Config, l *applogger.Logger) repository.TickStream {
	return stream.New(
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		l,
	)
}

// ProvideMarketData creates the Binance REST market data client.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) repository.MarketData {
	return marketdata.New(cfg.MarketData.RestURL, l)
}

// ProvideModel loads the prediction model artifact. A missing artifact is not
// fatal: the service comes up and the predict endpoint reports the model as
// unavailable until the artifact is deployed.
func ProvideModel(cfg *config.Config, l *applogger.Logger) domsvc.SequenceModel {
	net, err := model.Load(cfg.Model.Path)
	if err != nil {
		l.Warn("model artifact not loaded",
			applogger.String("path", cfg.Model.Path),
			applogger.Error(err))
		return nil
	}
	l.Info("model artifact loaded",
		applogger.String("path", cfg.Model.Path),
		applogger.Int("window", net.Window()))
	return net
}

// ProvideIndicatorEngine creates the indicator computation engine.
func ProvideIndicatorEngine() *indicator.Engine {
	return indicator.New(pattern.New())
}

// ProvideDecisionEngine creates the trade decision engine.
func ProvideDecisionEngine(cfg *config.Config) *usecase.DecisionEngine {
	return usecase.NewDecisionEngine(cfg.Decision.ConfidenceGate)
}

// ProvideDispatcher creates the signal dispatcher.
func ProvideDispatcher(
	notifier repository.Notifier,
	store repository.SignalStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.SignalDispatcher {
	return usecase.NewSignalDispatcher(notifier, store, m, l)
}

// ProvidePredictUseCase creates the prediction pipeline use case.
func ProvidePredictUseCase(
	market repository.MarketData,
	engine *indicator.Engine,
	mdl domsvc.SequenceModel,
	decisions *usecase.DecisionEngine,
	dispatcher *usecase.SignalDispatcher,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.PredictUseCase {
	return usecase.NewPredictUseCase(
		market,
		engine,
		mdl,
		decisions,
		dispatcher,
		m,
		domsvc.ScalingSource(cfg.Model.ScalingSource),
		l,
	)
}

// ProvideCandlesUseCase creates the candle query use case.
func ProvideCandlesUseCase(store repository.CandleStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvideSignalsUseCase creates the stored-signal readback use case.
func ProvideSignalsUseCase(store repository.SignalStore) *usecase.SignalsUseCase {
	return usecase.NewSignalsUseCase(store)
}

// ProvideTickProcessor creates the tick routing use case.
func ProvideTickProcessor(
	pub repository.TickPublisher,
	store repository.CandleStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.TickProcessor {
	return usecase.NewTickProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideTickCollector creates the tick collector use case.
func ProvideTickCollector(
	st repository.TickStream,
	processor *usecase.TickProcessor,
	m repository.Metrics,
) *usecase.TickCollector {
	// Throttle and buffer between WebSocket and the backend
	pipe := mid.NewTickPipeline(processor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(st, processor, m, pipe)
}

// ProvideRedisQueue creates the background job queue and registers the scan
// job. Returns nil when Redis is disabled.
func ProvideRedisQueue(cfg *config.Config, predict *usecase.PredictUseCase, l *applogger.Logger) *pkgqueue.RedisQueue {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	q := pkgqueue.NewRedisQueue(l, &pkgqueue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  cfg.Queue.QueueSize,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client, pkgqueue.ModeProducerConsumer)
	q.RegisterJob(usecase.NewScanJob(predict, l))
	return q
}

// ProvideScanner creates the scheduled symbol scanner. Returns nil when the
// scanner is disabled or no queue is available.
func ProvideScanner(q *pkgqueue.RedisQueue, cfg *config.Config, l *applogger.Logger) *usecase.Scanner {
	if !cfg.Scanner.Enabled || q == nil {
		return nil
	}
	return usecase.NewScanner(
		q,
		cfg.Scanner.Symbols,
		repository.NormalizeInterval(cfg.Scanner.Interval),
		cfg.Scanner.Period,
		cfg.Scanner.Schedule,
		l,
	)
}

// backendHealth aggregates readiness of the storage and stream backends and
// model availability.
type backendHealth struct {
	candles   repository.CandleStore
	signals   repository.SignalStore
	collector *usecase.TickCollector
	model     domsvc.SequenceModel
}

func (b *backendHealth) Check(ctx context.Context) map[string]string {
	out := make(map[string]string, 4)
	if err := b.candles.Health(ctx); err != nil {
		out["clickhouse"] = err.Error()
	} else {
		out["clickhouse"] = "ok"
	}
	if err := b.signals.Health(ctx); err != nil {
		out["signals"] = err.Error()
	} else {
		out["signals"] = "ok"
	}
	if b.collector != nil {
		if b.collector.IsConnected() {
			out["stream"] = "ok"
		} else {
			out["stream"] = "disconnected"
		}
	}
	if b.model != nil {
		out["model"] = "ok"
	} else {
		out["model"] = "unavailable"
	}
	return out
}

// ProvidePredictHandler creates the HTTP API handler.
func ProvidePredictHandler(
	l *applogger.Logger,
	predict *usecase.PredictUseCase,
	candles *usecase.CandlesUseCase,
	signals *usecase.SignalsUseCase,
	candleStore repository.CandleStore,
	signalStore repository.SignalStore,
	collector *usecase.TickCollector,
	mdl domsvc.SequenceModel,
	cfg *config.Config,
) *api.PredictHandler {
	h := api.NewPredictHandler(l, predict, candles)
	h.SetSignals(signals)
	h.SetCache(provideResponseCache(cfg, l))
	h.SetHealthChecker(&backendHealth{candles: candleStore, signals: signalStore, collector: collector, model: mdl})
	return h
}

// provideResponseCache picks the response cache backend: a layered
// memory+Redis cache when Redis is configured, plain in-process TTL cache
// otherwise. A Redis connection failure degrades to the TTL cache.
func provideResponseCache(cfg *config.Config, l *applogger.Logger) icache.BytesCache {
	if !cfg.Redis.Enabled {
		return icache.NewTTLCache()
	}

	host, port := cfg.Redis.Addr, 6379
	if h, p, err := net.SplitHostPort(cfg.Redis.Addr); err == nil {
		host = h
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		l.Warn("redis response cache unavailable, using in-process cache",
			applogger.String("addr", cfg.Redis.Addr),
			applogger.Error(err))
		return icache.NewTTLCache()
	}
	return icache.NewServiceCache(pkgcache.NewLayeredCache(rc))
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	chClient *pkgch.Client,
	handler *api.PredictHandler,
	scanner *usecase.Scanner,
	queue *pkgqueue.RedisQueue,
	dispatcher *usecase.SignalDispatcher,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	app.SetScanner(scanner)
	app.SetQueue(queue)
	if collector != nil {
		app.TickProc = collector.Processor()
	}
	app.Dispatcher = dispatcher
	return app
}
