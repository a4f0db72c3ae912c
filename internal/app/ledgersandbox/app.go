package ledgersandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"

	"github.com/ledgersandbox/ledger-sandbox/internal/cache"
	"github.com/ledgersandbox/ledger-sandbox/internal/config"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/jwt"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/rabbitmq"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
	"github.com/ledgersandbox/ledger-sandbox/internal/migrations"
	"github.com/ledgersandbox/ledger-sandbox/internal/services/gasreceiver"
	"github.com/ledgersandbox/ledger-sandbox/internal/services/identity"
	"github.com/ledgersandbox/ledger-sandbox/internal/services/ledger"
	"github.com/ledgersandbox/ledger-sandbox/internal/services/scheduler"
	"github.com/ledgersandbox/ledger-sandbox/internal/services/subscription"
	"github.com/ledgersandbox/ledger-sandbox/internal/services/transaction"
	"github.com/ledgersandbox/ledger-sandbox/internal/storage"
)

// App — HTTP-сервер песочницы вместе с фоновым завершением транзакций.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *storage.Storage
	redis   *cache.Cache
	amqp    *amqp.Connection
	sweeper *scheduler.Sweeper
}

// New подключает хранилища, применяет миграции, создаёт учётные записи
// администраторов и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "ledgersandbox.New"
	app := &App{logger: logger}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.db = db
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var subCache subscription.Cache = cache.Nop{}
	if cfg.RedisConnection.Addr != "" {
		redisCache, err := cache.New(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.redis = redisCache
		subCache = redisCache
	}

	var publisher transaction.Publisher = rabbitmq.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.Delay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.amqp = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.TransactionsExchange, rabbitmq.TransactionQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = rabbitmq.NewPublisher(ch, rabbitmq.TransactionsExchange)
	}

	minAmount, err := decimal.NewFromString(cfg.Ledger.MinTransactionAmount)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: min_transaction_amount: %w", op, err)
	}

	gasRegistry, err := gasreceiver.New(db, cfg.Gas.DefaultReceiver, cfg.Gas.Fees, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = gasRegistry.Load(ctx); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reserved := identity.NewReservedAdmins(cfg.AdminUsernames())
	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	ledgerService := ledger.New(db, db, reserved, logger)
	identityService := identity.New(db, ledgerService, jwtMaker, reserved, logger)
	transactionService := transaction.New(db, gasRegistry, publisher, transaction.Options{
		CompletionDelay: cfg.Ledger.CompletionDelay,
		MinAmount:       minAmount,
	}, logger)
	subscriptionService := subscription.New(db, db, reserved, subCache, logger)

	if err = identityService.EnsureAdmins(ctx, cfg.Admins); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Identity:      identityService,
		Ledger:        ledgerService,
		Transactions:  transactionService,
		Subscriptions: subscriptionService,
		GasReceiver:   gasRegistry,
	}, cfg.HTTPServer.AllowedOrigins)

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	app.sweeper = scheduler.NewSweeper(transactionService, cfg.Ledger.SweepInterval, logger)
	return app, nil
}

// Run запускает HTTP-сервер и фоновое завершение транзакций и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		a.sweeper.Run(sweepCtx)
	}()
	defer func() {
		stopSweep()
		<-sweepDone
		a.close()
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

func (a *App) close() {
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
