package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/davicafu/scavhunt/internal/config"
	huntApp "github.com/davicafu/scavhunt/internal/hunt/application"
	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
	huntEvents "github.com/davicafu/scavhunt/internal/hunt/infra/inbound/events"
	huntHttp "github.com/davicafu/scavhunt/internal/hunt/infra/inbound/http"
	huntClickhouse "github.com/davicafu/scavhunt/internal/hunt/infra/outbound/analytics/clickhouse"
	analyticsMemory "github.com/davicafu/scavhunt/internal/hunt/infra/outbound/analytics/memory"
	huntMemory "github.com/davicafu/scavhunt/internal/hunt/infra/outbound/db/memory"
	huntMongo "github.com/davicafu/scavhunt/internal/hunt/infra/outbound/db/mongodb"
	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	sharedEvents "github.com/davicafu/scavhunt/internal/shared/events"
	infraEvents "github.com/davicafu/scavhunt/internal/shared/infra/events"
	sharedBus "github.com/davicafu/scavhunt/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/scavhunt/internal/shared/infra/platform/cache"
	sharedMongo "github.com/davicafu/scavhunt/internal/shared/infra/platform/db/mongodb"
	"github.com/davicafu/scavhunt/internal/shared/infra/platform/db/sqldb"
	"github.com/davicafu/scavhunt/internal/shared/infra/platform/docstore"
	"github.com/davicafu/scavhunt/internal/shared/infra/platform/metrics"
	"github.com/davicafu/scavhunt/internal/shared/infra/platform/middleware"
	"github.com/davicafu/scavhunt/internal/shared/infra/relayer"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
	userApp "github.com/davicafu/scavhunt/internal/user/application"
	userDomain "github.com/davicafu/scavhunt/internal/user/domain"
	userEvents "github.com/davicafu/scavhunt/internal/user/infra/inbound/events"
	userHttp "github.com/davicafu/scavhunt/internal/user/infra/inbound/http"
	userSQL "github.com/davicafu/scavhunt/internal/user/infra/outbound/db/sqldb"
)

// App agrupa las dependencias de la aplicación. Se construye con New y se libera con Close.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	Router *gin.Engine

	Hunts *huntApp.HuntService
	Users *userApp.UserService

	huntOutbox sharedDomain.OutboxRepository
	userOutbox sharedDomain.OutboxRepository
	bus        sharedBus.EventBus
	memoryBus  *sharedBus.InMemoryEventBus
	handlers   []huntSubscriber
	consumers  []*infraEvents.ConsumerAdapter
	analytics  huntDomain.HuntAnalyticsRepository

	closers []func() error
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// New abre almacenes, caché y bus según la configuración y monta el router.
// Si algo falla, libera lo que ya se había abierto.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (a *App, err error) {
	a = &App{Config: cfg, Log: log}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	// ---------------- Hunts (Mongo o memoria) ----------------
	huntRepo, err := a.openHuntStore(ctx)
	if err != nil {
		return nil, err
	}

	// ---------------- Users (SQLite o Postgres) ----------------
	userRepo, err := a.openUserStore(ctx)
	if err != nil {
		return nil, err
	}

	// ---------------- Cache ----------------
	cache := a.openCache(ctx)

	// ---------------- Analytics ----------------
	if a.analytics, err = a.openAnalytics(ctx); err != nil {
		return nil, err
	}

	// --------------- Servicios --------------
	pageOpts := query.WithPageSize(cfg.PageSize, cfg.MaxPageSize)
	a.Hunts = huntApp.NewHuntService(huntRepo, a.analytics, cache, log, pageOpts)
	a.Users = userApp.NewUserService(userRepo, cache, log, pageOpts)

	// ---------------- Bus ----------------
	a.openBus()

	// ---------------- HTTP ----------------
	a.Router = a.newRouter()
	return a, nil
}

func (a *App) openHuntStore(ctx context.Context) (huntDomain.HuntRepository, error) {
	if a.Config.Database == "" {
		a.Log.Info("⚡️ Hunts en memoria (sin DATABASE)")
		repo := huntMemory.NewHuntRepoMemory(docstore.New())
		a.huntOutbox = repo
		return repo, nil
	}

	client, err := sharedMongo.Connect(ctx, a.Config.MongoURI())
	if err != nil {
		return nil, fmt.Errorf("mongodb: %w", err)
	}
	a.closers = append(a.closers, func() error {
		ctxClose, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Disconnect(ctxClose)
	})
	if err := huntMongo.EnsureIndexes(ctx, client.Database(a.Config.MongoDB)); err != nil {
		return nil, fmt.Errorf("mongodb indexes: %w", err)
	}

	a.Log.Info("✅ MongoDB conectado", zap.String("db", a.Config.MongoDB))
	a.huntOutbox = sharedMongo.NewOutboxRepo(client.Database(a.Config.MongoDB))
	return huntMongo.NewHuntRepoMongoDB(client, a.Config.MongoDB), nil
}

func (a *App) openUserStore(ctx context.Context) (userDomain.UserRepository, error) {
	dialect, err := sqldb.DialectFor(a.Config.SQLDriver)
	if err != nil {
		return nil, err
	}
	db, err := sqldb.Open(ctx, dialect, a.Config.SQLDSN)
	if err != nil {
		return nil, fmt.Errorf("users store: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	if err := userSQL.InitSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("users schema: %w", err)
	}

	a.Log.Info("✅ Base de datos de usuarios lista", zap.String("driver", dialect.Name))
	repo := userSQL.NewUserRepoSQL(db, dialect)
	a.userOutbox = repo
	return repo, nil
}

// openCache usa Redis si responde; si no, cae a la caché en memoria.
func (a *App) openCache(ctx context.Context) sharedCache.Cache {
	ttl := a.Config.CacheTTL
	if a.Config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			a.Log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
			_ = rdb.Close()
		} else {
			a.Log.Info("✅ Redis conectado, cache habilitado")
			c := sharedCache.NewRedisCache(rdb, ttl)
			a.closers = append(a.closers, c.Close)
			return c
		}
	}

	c := sharedCache.NewInMemoryCache(ttl, 3*ttl)
	a.closers = append(a.closers, c.Close)
	return c
}

func (a *App) openAnalytics(ctx context.Context) (huntDomain.HuntAnalyticsRepository, error) {
	if a.Config.ClickHouseAddr == "" {
		return analyticsMemory.NewHuntAnalyticsMemory(), nil
	}

	repo, err := huntClickhouse.NewHuntAnalyticsRepo(ctx,
		a.Config.ClickHouseAddr, a.Config.ClickHouseDB, a.Config.ClickHouseUser, a.Config.ClickHousePassword)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w", err)
	}
	a.closers = append(a.closers, repo.Close)
	if err := repo.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	a.Log.Info("✅ ClickHouse conectado", zap.String("addr", a.Config.ClickHouseAddr))
	return repo, nil
}

// huntSubscriber es un consumidor del topic hunt con su grupo de Kafka.
type huntSubscriber struct {
	group   string
	handler infraEvents.MessageHandler
}

// openBus prepara el publisher y los consumidores del topic hunt.
func (a *App) openBus() {
	a.handlers = []huntSubscriber{
		{group: a.Config.KafkaGroup + "-analytics", handler: huntEvents.NewAnalyticsConsumer(a.analytics, a.Log)},
		{group: a.Config.KafkaGroup + "-users", handler: userEvents.NewHuntConsumer(a.Users, a.Log)},
	}

	if !a.Config.UseKafka() {
		a.Log.Info("⚡️ Usando bus de eventos en memoria (canales de Go)")
		a.memoryBus = sharedBus.NewInMemoryEventBus()
		a.bus = a.memoryBus
		return
	}

	a.Log.Info("🚀 Usando Kafka como bus de eventos", zap.Strings("brokers", a.Config.KafkaBrokers))
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(a.Config.KafkaBrokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	a.closers = append(a.closers, writer.Close)
	a.bus = infraEvents.NewKafkaPublisher(writer, a.Log)

	for _, h := range a.handlers {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  a.Config.KafkaBrokers,
			Topic:    huntDomain.HuntTopic,
			GroupID:  h.group,
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		a.consumers = append(a.consumers, infraEvents.NewConsumerAdapter(reader, h.handler, a.Log))
	}
}

func (a *App) newRouter() *gin.Engine {
	if !a.Config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(a.Log), metrics.Middleware())
	if a.Config.IsDevelopment() {
		r.Use(middleware.RequestLogger(a.Log))
	}
	r.Use(middleware.Errors(a.Log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("", middleware.RateLimit(a.Config.RateLimitRPM, a.Config.RateLimitBurst))
	huntHttp.RegisterHuntRoutes(api, huntHttp.NewHuntHandler(a.Hunts))
	userHttp.RegisterUserRoutes(api, userHttp.NewUserHandler(a.Users))

	r.NoRoute(middleware.NotFound)
	return r
}

// Start arranca los workers de outbox y los consumidores. No bloquea.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	registry := sharedEvents.MergeRegistries(huntDomain.NewEventRegistry(), userDomain.NewEventRegistry())
	workers := []*relayer.Worker{
		relayer.NewOutboxWorker("hunts", a.huntOutbox, a.bus, registry, a.Config.OutboxInterval, a.Config.OutboxBatch, a.Log),
		relayer.NewOutboxWorker("users", a.userOutbox, a.bus, registry, a.Config.OutboxInterval, a.Config.OutboxBatch, a.Log),
	}
	for _, w := range workers {
		a.wg.Add(1)
		go func(w *relayer.Worker) {
			defer a.wg.Done()
			w.Start(ctx)
		}(w)
	}

	if a.memoryBus != nil {
		for _, h := range a.handlers {
			infraEvents.ConsumeChannel(ctx, a.memoryBus.Subscribe(huntDomain.HuntTopic, 100), h.handler, a.Log)
		}
		a.Log.Info("🎧 Listeners en memoria iniciados", zap.String("topic", huntDomain.HuntTopic))
		return
	}
	for _, c := range a.consumers {
		c.Start(ctx)
	}
}

// Run sirve HTTP hasta que se cancela ctx y después apaga el servidor con un margen de 30s.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("🚀 Server running", zap.String("url", "http://localhost"+server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Log.Info("🛑 Shutting down server...")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.Log.Info("✅ Server stopped")
	return nil
}

// Close detiene workers y consumidores y cierra las conexiones en orden inverso.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	var errs []error
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.memoryBus != nil {
		a.memoryBus.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
