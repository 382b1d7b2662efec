// Package container - Dependency Injection container for the application.
//
// Container управляет жизненным циклом всех зависимостей:
// - Создание (в Initialize)
// - Доступ (getters)
// - Закрытие (cleanup)
//
// Pattern: Composition Root
// - Все зависимости собираются в одном месте
// - Легко тестировать
// - Легко заменять реализации
package container

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"

	walletHTTP "github.com/wallethub/ledger/internal/adapters/http"
	"github.com/wallethub/ledger/internal/adapters/http/middleware"
	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/application/usecases/wallet"
	"github.com/wallethub/ledger/internal/bus"
	"github.com/wallethub/ledger/internal/config"
	"github.com/wallethub/ledger/internal/infrastructure/cache"
	"github.com/wallethub/ledger/internal/infrastructure/eventlog"
	"github.com/wallethub/ledger/internal/infrastructure/persistence/postgres"
	"github.com/wallethub/ledger/internal/observability"
	"github.com/wallethub/ledger/internal/outbox"
	"github.com/wallethub/ledger/internal/resilience/breaker"
	"github.com/wallethub/ledger/internal/resilience/degradation"
)

// ============================================
// Container
// ============================================

// Container - DI контейнер приложения.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool     *pgxpool.Pool
	cache    *cache.RedisCache
	eventLog *eventlog.JetStreamEventLog

	// Resilience layer
	degrader        *degradation.Manager
	cacheBreaker    *breaker.Breaker
	eventLogBreaker *breaker.Breaker
	dbBreaker       *breaker.Breaker

	// Repositories
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	outboxRepo      ports.OutboxRepository
	uow             ports.UnitOfWork

	// Transactional outbox
	outboxService   *outbox.Service
	outboxPublisher *outbox.Publisher

	// Command/query bus
	bus *bus.Bus

	// HTTP
	httpServer *walletHTTP.Server

	// Background goroutines
	cancelPublisher context.CancelFunc
}

// New создаёт новый контейнер с заданной конфигурацией.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// ============================================
// Initialization
// ============================================

// Initialize инициализирует все зависимости.
func (c *Container) Initialize(ctx context.Context) error {
	c.logger = c.initLogger()
	c.logger.Info("Initializing application container...")

	// 1. Database
	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database connected")

	// 2. Degradation manager — created early so every downstream
	// component below can register its breaker callbacks against it.
	c.degrader = degradation.NewManager()

	// 3. Database circuit breaker — trips read_only_mode when the write
	// path keeps failing against the primary.
	c.initDBBreaker()

	// 4. Cache + event log (both optional dependencies)
	c.initCache()
	c.initEventLog(ctx)
	c.logger.Info("Cache and event log initialized")

	// 5. Repositories and unit of work
	c.initRepositories()
	c.logger.Info("Repositories initialized")

	// 6. Transactional outbox
	c.initOutbox()
	c.logger.Info("Outbox initialized")

	// 7. Command/query bus
	c.initBus()
	c.logger.Info("Bus initialized")

	// 8. HTTP Server
	c.initHTTPServer()
	c.logger.Info("HTTP server initialized")

	c.logger.Info("Container initialization complete")
	return nil
}

// initLogger инициализирует логгер.
func (c *Container) initLogger() *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch c.config.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: c.config.App.Debug,
	}

	if c.config.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// initDatabase инициализирует подключение к БД.
//
// config.DatabaseConfig carries a single DSN: reads and writes share one
// pgxpool.Pool rather than a separate replica pool. A real multi-node
// deployment would point reads at a replica DSN; this container accepts
// that simplification rather than invent a second config surface nothing
// else in this service consumes yet.
func (c *Container) initDatabase(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(c.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = c.config.Database.MaxConnections
	poolConfig.MinConns = c.config.Database.MinConnections
	poolConfig.MaxConnLifetime = c.config.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = c.config.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.pool = pool
	return nil
}

// initDBBreaker wires a circuit breaker around the write path's unit-of-work
// execution. Consecutive transient failures against the primary (the
// retry.TransientPolicy already wrapped around each write gives up only
// after its own elapsed-time budget) trip it, and the trip flips
// degradation.ReadOnlyMode so the service rejects writes outright instead
// of piling retries on a database that isn't coming back soon.
func (c *Container) initDBBreaker() {
	c.dbBreaker = breaker.New(breaker.Config{
		Name:                "database",
		MaxRequestsHalfOpen: c.config.Breaker.MaxRequestsHalfOpen,
		Interval:            c.config.Breaker.Interval,
		Timeout:             c.config.Breaker.Timeout,
		FailureThreshold:    c.config.Breaker.FailureThreshold,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.degrader.Set(degradation.ReadOnlyMode, to == gobreaker.StateOpen)
			c.logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

// initCache wires the Redis cache-aside layer behind a circuit breaker that
// flips degradation.CacheBypassMode on trip.
func (c *Container) initCache() {
	if !c.config.Cache.Enabled {
		c.logger.Warn("cache disabled by configuration, reads always hit the repository")
		return
	}

	c.cache = cache.New(cache.Config{
		Addr:     c.config.Cache.Addr,
		Password: c.config.Cache.Password,
		DB:       c.config.Cache.DB,
	})

	c.cacheBreaker = breaker.New(breaker.Config{
		Name:                "cache",
		MaxRequestsHalfOpen: c.config.Breaker.MaxRequestsHalfOpen,
		Interval:            c.config.Breaker.Interval,
		Timeout:             c.config.Breaker.Timeout,
		FailureThreshold:    c.config.Breaker.FailureThreshold,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.degrader.Set(degradation.CacheBypassMode, to == gobreaker.StateOpen)
			c.logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

// initEventLog connects to NATS JetStream behind a circuit breaker that
// flips degradation.EventProcessingDegraded on trip.
func (c *Container) initEventLog(ctx context.Context) {
	if !c.config.EventLog.Enabled {
		c.logger.Warn("event log disabled by configuration, outbox publishing is a no-op")
		return
	}

	eventLog, err := eventlog.Connect(ctx, eventlog.Config{
		URL:        c.config.EventLog.URL,
		StreamName: c.config.EventLog.StreamName,
		SubjectFmt: c.config.EventLog.SubjectFmt,
	})
	if err != nil {
		c.logger.Error("failed to connect to event log, degrading to event_processing_degraded", slog.String("error", err.Error()))
		c.degrader.Set(degradation.EventProcessingDegraded, true)
		return
	}
	c.eventLog = eventLog

	c.eventLogBreaker = breaker.New(breaker.Config{
		Name:                "event_log",
		MaxRequestsHalfOpen: c.config.Breaker.MaxRequestsHalfOpen,
		Interval:            c.config.Breaker.Interval,
		Timeout:             c.config.Breaker.Timeout,
		FailureThreshold:    c.config.Breaker.FailureThreshold,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.degrader.Set(degradation.EventProcessingDegraded, to == gobreaker.StateOpen)
			c.logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

// initRepositories инициализирует репозитории.
func (c *Container) initRepositories() {
	c.walletRepo = postgres.NewWalletRepository(c.pool)
	c.transactionRepo = postgres.NewTransactionRepository(c.pool)
	c.outboxRepo = postgres.NewOutboxRepository(c.pool)

	// Unit of Work
	c.uow = postgres.NewUnitOfWork(c.pool)
}

// initOutbox wires the write-side Service used by command handlers and the
// background Publisher that drains pending rows to the event log.
func (c *Container) initOutbox() {
	c.outboxService = outbox.NewService(c.outboxRepo)

	var eventLogPort ports.EventLogPort
	if c.eventLog != nil {
		eventLogPort = c.eventLog
	}

	c.outboxPublisher = outbox.NewPublisher(
		c.outboxRepo,
		eventLogPort,
		c.eventLogBreaker,
		c.degrader,
		outbox.PublisherConfig{
			BatchSize:    c.config.Outbox.BatchSize,
			PollInterval: c.config.Outbox.PollInterval,
			MaxAttempts:  c.config.Outbox.MaxAttempts,
		},
		observability.NewPublisherMetrics(),
		c.logger,
	)
}

// initBus registers every wallet use case handler onto a fresh command/query
// bus.
func (c *Container) initBus() {
	c.bus = bus.New(observability.NewBusMetrics())

	var cachePort ports.CachePort
	if c.cache != nil {
		cachePort = c.cache
	}

	writeDeps := wallet.WriteDeps{
		UoW:          c.uow,
		WalletRepo:   c.walletRepo,
		TxRepo:       c.transactionRepo,
		Outbox:       c.outboxService,
		Cache:        cachePort,
		CacheBreaker: c.cacheBreaker,
		DBBreaker:    c.dbBreaker,
		Degrader:     c.degrader,
		Logger:       c.logger,
	}
	readDeps := wallet.ReadDeps{
		WalletRepo:   c.walletRepo,
		TxRepo:       c.transactionRepo,
		Cache:        cachePort,
		CacheBreaker: c.cacheBreaker,
		Degrader:     c.degrader,
		Logger:       c.logger,
	}

	bus.RegisterCommand(c.bus, "CreateWallet", wallet.NewCreateWalletHandler(writeDeps).Handle)
	bus.RegisterCommand(c.bus, "Deposit", wallet.NewDepositHandler(writeDeps).Handle)
	bus.RegisterCommand(c.bus, "Withdraw", wallet.NewWithdrawHandler(writeDeps).Handle)
	bus.RegisterCommand(c.bus, "Transfer", wallet.NewTransferHandler(writeDeps).Handle)

	bus.RegisterQuery(c.bus, "GetWallet", wallet.NewGetWalletHandler(readDeps).Handle)
	bus.RegisterQuery(c.bus, "GetHistoricalBalance", wallet.NewGetHistoricalBalanceHandler(readDeps).Handle)
	bus.RegisterQuery(c.bus, "ListWallets", wallet.NewListWalletsHandler(readDeps).Handle)
}

// initHTTPServer инициализирует HTTP сервер.
func (c *Container) initHTTPServer() {
	// Token validator
	var tokenValidator func(token string) (*middleware.AuthClaims, error)
	if c.config.Auth.EnableMockAuth {
		tokenValidator = middleware.MockTokenValidator
	} else {
		tokenValidator = middleware.NewJWTTokenValidator(c.config.Auth.JWTSecret, c.config.Auth.JWTIssuer)
	}

	// Router Config
	routerConfig := &walletHTTP.RouterConfig{
		Logger:             c.logger,
		Pool:               c.pool,
		Bus:                c.bus,
		Degrader:           c.degrader,
		Outbox:             c.outboxPublisher,
		Version:            c.config.App.Version,
		BuildTime:          c.config.App.BuildTime,
		Environment:        c.config.App.Environment,
		AllowedOrigins:     c.config.CORS.AllowedOrigins,
		AuthTokenValidator: tokenValidator,
	}

	router := walletHTTP.NewRouterBuilder(routerConfig).Build()

	// Server Config
	serverConfig := &walletHTTP.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            fmt.Sprintf("%d", c.config.Server.Port),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = walletHTTP.NewServer(serverConfig, router)
}

// ============================================
// Getters
// ============================================

// Config возвращает конфигурацию.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger возвращает логгер.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Pool возвращает пул соединений к БД.
func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

// HTTPServer возвращает HTTP сервер.
func (c *Container) HTTPServer() *walletHTTP.Server {
	return c.httpServer
}

// Bus возвращает command/query bus.
func (c *Container) Bus() *bus.Bus {
	return c.bus
}

// Degrader возвращает менеджер деградации.
func (c *Container) Degrader() *degradation.Manager {
	return c.degrader
}

// ============================================
// Repository Getters
// ============================================

// WalletRepository возвращает репозиторий кошельков.
func (c *Container) WalletRepository() ports.WalletRepository {
	return c.walletRepo
}

// TransactionRepository возвращает репозиторий транзакций.
func (c *Container) TransactionRepository() ports.TransactionRepository {
	return c.transactionRepo
}

// UnitOfWork возвращает Unit of Work.
func (c *Container) UnitOfWork() ports.UnitOfWork {
	return c.uow
}

// OutboxPublisher возвращает фоновый publisher транзакционного outbox.
func (c *Container) OutboxPublisher() *outbox.Publisher {
	return c.outboxPublisher
}

// ============================================
// Shutdown
// ============================================

// Shutdown выполняет graceful shutdown всех компонентов.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	var errs []error

	// 1. Stop the outbox publisher loop first so no more events are drained
	// mid-shutdown.
	if c.cancelPublisher != nil {
		c.cancelPublisher()
	}

	// 2. HTTP Server
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	// 3. Event log connection
	if c.eventLog != nil {
		c.eventLog.Close()
	}

	// 4. Database (даём время на завершение транзакций)
	if c.pool != nil {
		// Graceful close с таймаутом
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			c.logger.Info("Database connection closed")
		case <-ctx.Done():
			c.logger.Warn("Database close timeout")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.logger.Info("Container shutdown complete")
	return nil
}

// ============================================
// Run
// ============================================

// Run запускает приложение и ожидает сигнал завершения.
func (c *Container) Run() error {
	c.logger.Info("Starting wallet ledger API server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	if c.outboxPublisher != nil {
		publisherCtx, cancel := context.WithCancel(context.Background())
		c.cancelPublisher = cancel
		go c.outboxPublisher.Run(publisherCtx)
	}

	return c.httpServer.Run()
}

// ============================================
// Builder Pattern (Alternative)
// ============================================

// ContainerBuilder - builder для создания контейнера с кастомными компонентами.
type ContainerBuilder struct {
	cfg   *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
	cache  *cache.RedisCache
}

// NewBuilder создаёт новый builder.
func NewBuilder(cfg *config.Config) *ContainerBuilder {
	return &ContainerBuilder{
		cfg: cfg,
	}
}

// WithLogger устанавливает кастомный логгер.
func (b *ContainerBuilder) WithLogger(logger *slog.Logger) *ContainerBuilder {
	b.logger = logger
	return b
}

// WithPool устанавливает готовый пул соединений.
func (b *ContainerBuilder) WithPool(pool *pgxpool.Pool) *ContainerBuilder {
	b.pool = pool
	return b
}

// WithCache устанавливает готовый cache-клиент.
func (b *ContainerBuilder) WithCache(c *cache.RedisCache) *ContainerBuilder {
	b.cache = c
	return b
}

// Build создаёт контейнер.
func (b *ContainerBuilder) Build(ctx context.Context) (*Container, error) {
	c := New(b.cfg)

	// Use provided or initialize
	if b.logger != nil {
		c.logger = b.logger
	} else {
		c.logger = c.initLogger()
	}

	if b.pool != nil {
		c.pool = b.pool
	} else {
		if err := c.initDatabase(ctx); err != nil {
			return nil, err
		}
	}

	c.degrader = degradation.NewManager()
	c.initDBBreaker()

	if b.cache != nil {
		c.cache = b.cache
	} else {
		c.initCache()
	}
	c.initEventLog(ctx)

	c.initRepositories()
	c.initOutbox()
	c.initBus()
	c.initHTTPServer()

	return c, nil
}

// ============================================
// Health Check
// ============================================

// HealthStatus - статус здоровья приложения.
type HealthStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  time.Duration     `json:"uptime"`
	Checks  map[string]string `json:"checks"`
}

// Health возвращает статус здоровья приложения.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:  "healthy",
		Version: c.config.App.Version,
		Checks:  make(map[string]string),
	}

	// Database check
	if err := c.pool.Ping(ctx); err != nil {
		status.Status = "unhealthy"
		status.Checks["database"] = "error: " + err.Error()
	} else {
		status.Checks["database"] = "ok"
	}

	if c.degrader != nil {
		snap := c.degrader.Snapshot()
		if len(snap.ActiveModes) > 0 && status.Status == "healthy" {
			status.Status = "degraded"
		}
	}

	return status
}
