package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"network-orchestrator-be/internal/config"
	"network-orchestrator-be/internal/controller"
	"network-orchestrator-be/internal/handler"
	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/internal/repository"
	"network-orchestrator-be/internal/repository/implementation"
	"network-orchestrator-be/internal/service"
	"network-orchestrator-be/internal/websocket"
	"network-orchestrator-be/pkg/events"
	"network-orchestrator-be/pkg/fallback"
	"network-orchestrator-be/pkg/history"
	"network-orchestrator-be/pkg/metrics"
	pktNats "network-orchestrator-be/pkg/nats"
	"network-orchestrator-be/pkg/orchestrator"
	"network-orchestrator-be/pkg/polling"
	"network-orchestrator-be/pkg/prediction"
	"network-orchestrator-be/pkg/session"
	"network-orchestrator-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const natsDurable = "orchestrator-inbound"

type Container struct {
	Logger  logger.ILogger
	Metrics *metrics.Metrics

	// Controllers
	OrchestratorController controller.IOrchestratorController

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	Orchestrator    *orchestrator.Orchestrator
	HealthMonitor   *prediction.HealthMonitor
	Polling         *polling.Controller
	NatsSubscriber  *pktNats.Subscriber

	// probe drives the polling controller; nil leaves polling idle.
	probe    polling.TelemetrySource
	natsPub  *pktNats.Publisher
	rdb      *redis.Client
	pubSub   *gochannel.GoChannel
	cancelBg context.CancelFunc
}

// NewContainer wires every component. db may be nil when no database is
// configured; notification history is then disabled.
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	wsLogger := logger.NewIsolatedLogger(cfg.App.NotificationLog)
	m := metrics.New()

	// 2. Infrastructure
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		rdb = store.NewRedisClient(cfg.App.RedisURL)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
	}

	kv, err := store.New(cfg.Store.Driver, cfg.Store.KeyPrefix, rdb, db)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		if natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL, sysLogger); err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		}
		if natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger); err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
		}
	}

	// 3. Prediction
	predCfg := prediction.Config{
		MinSamples:      cfg.Sentry.MinSamples,
		TrendWindow:     cfg.Sentry.TrendWindow,
		RemoteWindow:    cfg.Sentry.RemoteWindow,
		Threshold:       cfg.Sentry.PredictionThreshold,
		LowDownlinkMbps: cfg.Sentry.LowDownlinkMbps,
		HorizonSeconds:  cfg.Sentry.HorizonSeconds,
		RemoteTimeout:   cfg.Predictor.Timeout,
	}
	var engine *prediction.Engine
	var health *prediction.HealthMonitor
	if cfg.Predictor.BaseURL != "" {
		remote := prediction.NewHTTPPredictor(cfg.Predictor.BaseURL, cfg.Predictor.Timeout)
		health = prediction.NewHealthMonitor(remote, cfg.Predictor.HealthInterval, cfg.Predictor.Timeout, sysLogger, m)
		engine = prediction.NewEngine(predCfg, remote, health, sysLogger, m)
	} else {
		engine = prediction.NewEngine(predCfg, nil, nil, sysLogger, m)
	}

	// 4. Stores
	sessions := session.NewStore(kv, sysLogger)

	var archive fallback.Archive
	if cfg.Fallback.S3Bucket != "" {
		s3Archive, err := fallback.NewS3Archive(context.Background(), fallback.S3Config{
			Bucket:       cfg.Fallback.S3Bucket,
			Prefix:       cfg.Fallback.S3Prefix,
			Region:       cfg.Fallback.S3Region,
			Endpoint:     cfg.Fallback.S3Endpoint,
			UsePathStyle: cfg.Fallback.S3UsePathStyle,
		})
		if err != nil {
			sysLogger.Warn("Bootstrap", "S3 archive disabled", map[string]interface{}{"error": err.Error()})
		} else {
			archive = s3Archive
		}
	}
	producer := fallback.NewHTTPProducer(cfg.Fallback.ProducerURL, cfg.Fallback.ProducerTimeout)
	cache := fallback.NewCache(kv, archive, producer, sysLogger, m)

	// 5. Notification System Infrastructure
	wsHub := websocket.NewHub(rdb, wsLogger)
	var notifRepo repository.NotificationRepository
	if db != nil {
		notifRepo = implementation.NewNotificationRepository(db)
	}
	notifService := service.NewNotificationService(notifRepo, wsHub, wsLogger)

	// 6. Event Bus: one subscriber, publishers block until it acks, so
	// events are handled strictly one at a time in arrival order.
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermill.NewStdLogger(false, false),
	)

	c := &Container{
		Logger:              sysLogger,
		Metrics:             m,
		NotificationHandler: handler.NewNotificationHandler(notifService, wsHub, cfg.Auth.JWTSecret, wsLogger),
		WebSocketHub:        wsHub,
		HealthMonitor:       health,
		NatsSubscriber:      natsSub,
		natsPub:             natsPub,
		rdb:                 rdb,
		pubSub:              pubSub,
	}
	if cfg.Polling.ProbeURL != "" {
		c.probe = polling.NewHTTPProbeSource(cfg.Polling.ProbeURL, "probe", cfg.Predictor.Timeout)
	}

	// 7. Orchestrator
	c.Polling = polling.NewController(polling.Config{
		HighSpeedThresholdKmh: cfg.Polling.HighSpeedThresholdKmh,
		FastInterval:          cfg.Polling.FastInterval,
		NormalInterval:        cfg.Polling.NormalInterval,
	}, c.sample, sysLogger, m)

	deps := orchestrator.Dependencies{
		History:   history.New(cfg.Sentry.HistoryCapacity),
		Predictor: engine,
		Polling:   c.Polling,
		Sessions:  sessions,
		Fallback:  cache,
		Notifier:  notifService,
		Store:     kv,
		Logger:    sysLogger,
		Metrics:   m,
	}
	if natsPub != nil {
		deps.Publisher = natsPub
	}
	c.Orchestrator = orchestrator.New(orchestrator.Config{
		CriticalDownlinkMbps: cfg.Sentry.CriticalDownlinkMbps,
		HistoryFlushInterval: cfg.Orchestrator.HistoryFlushInterval,
		PrewarmTimeout:       cfg.Orchestrator.PrewarmTimeout,
		HorizonSeconds:       cfg.Sentry.HorizonSeconds,
	}, deps)

	c.ConsumerService = service.NewConsumerService(pubSub, service.InboxTopic, c.Orchestrator, sysLogger)
	c.OrchestratorController = controller.NewOrchestratorController(
		service.NewOrchestratorService(c.ConsumerService, c.Orchestrator, sessions, cache),
	)

	return c, nil
}

// sample is the polling tick: one probe reading into the inbox.
func (c *Container) sample(ctx context.Context) {
	if c.probe == nil {
		return
	}
	s, err := c.probe.Sample(ctx)
	if err != nil {
		c.Logger.Warn("Polling", "Telemetry probe failed", map[string]interface{}{"error": err.Error()})
		return
	}
	ev := events.NetworkTelemetry{
		EffectiveType: string(s.EffectiveType),
		DownlinkMbps:  s.DownlinkMbps,
		RTTMs:         s.RTTMs,
		SaveData:      s.SaveData,
		ContextID:     s.SourceContextID,
		Timestamp:     s.Timestamp,
	}
	if err := c.ConsumerService.Publish(ctx, ev); err != nil {
		c.Logger.Warn("Polling", "Failed to enqueue probe sample", map[string]interface{}{"error": err.Error()})
	}
}

// Start rehydrates persisted state and launches the background workers.
func (c *Container) Start(ctx context.Context) error {
	if err := c.Orchestrator.Rehydrate(ctx); err != nil {
		c.Logger.Warn("Bootstrap", "Partial rehydration", map[string]interface{}{"error": err.Error()})
	}

	bgCtx, cancel := context.WithCancel(ctx)
	c.cancelBg = cancel

	if err := c.ConsumerService.Consume(bgCtx); err != nil {
		cancel()
		return fmt.Errorf("start inbox: %w", err)
	}
	go c.WebSocketHub.Run(bgCtx)
	go c.Orchestrator.RunHistoryFlusher(bgCtx)
	if c.HealthMonitor != nil {
		go c.HealthMonitor.Run(bgCtx)
	}
	if c.probe != nil {
		c.Polling.Start(bgCtx)
	}
	if c.NatsSubscriber != nil {
		bridge := func(ctx context.Context, ev events.Inbound) error {
			return c.ConsumerService.Publish(ctx, ev)
		}
		if err := c.NatsSubscriber.SubscribeInbound(bgCtx, natsDurable, bridge); err != nil {
			c.Logger.Warn("Bootstrap", "NATS bridge disabled", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// Shutdown stops the workers, flushes history and closes connections.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.cancelBg != nil {
		c.cancelBg()
	}
	c.Polling.Stop()
	if c.NatsSubscriber != nil {
		c.NatsSubscriber.Close()
	}

	var errs []error
	if err := c.Orchestrator.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush orchestrator: %w", err))
	}
	if err := c.pubSub.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close inbox: %w", err))
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		if err := c.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	_ = c.Logger.Sync()
	return errors.Join(errs...)
}
