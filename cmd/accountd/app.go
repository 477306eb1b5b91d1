package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/accountd/internal/db"
	"github.com/nkiryanov/accountd/internal/handlers"
	"github.com/nkiryanov/accountd/internal/lock"
	"github.com/nkiryanov/accountd/internal/logger"
	"github.com/nkiryanov/accountd/internal/repository/postgres"
	"github.com/nkiryanov/accountd/internal/service/auth"
	"github.com/nkiryanov/accountd/internal/service/balance"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Release connections on app stop
	closers []func() error
}

func NewServerApp(ctx context.Context, c *Config) (_ *ServerApp, err error) {
	app := &ServerApp{ListenAddr: c.ListenAddr}

	// Release whatever was opened if app can't be initialized
	defer func() {
		if err != nil {
			err = errors.Join(err, app.Close())
		}
	}()

	// Initialize logger
	app.logger, err = logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, func() error { pool.Close(); return nil })

	locker, err := app.newLocker(ctx, c)
	if err != nil {
		return nil, err
	}

	// Initialize services
	storage := postgres.NewStorage(pool)
	coordinator := lock.NewCoordinator(locker, app.logger.WithGroup("lock"))
	balanceService := balance.NewLockedService(
		balance.NewService(storage, app.logger.WithGroup("balance")),
		coordinator,
	)

	tokenManager, err := auth.New(auth.Config{SecretKey: c.SecretKey})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	app.Handler = handlers.NewRouter(tokenManager, balanceService, app.logger)

	return app, nil
}

// Redis locker if redis configured, in process locker otherwise
func (s *ServerApp) newLocker(ctx context.Context, c *Config) (lock.Locker, error) {
	if c.RedisAddr == "" {
		s.logger.Warn("Redis address not set, account locks are held in process. Do not run more than one instance")
		return lock.NewMemoryLocker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	s.closers = append(s.closers, client.Close)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
	}

	return lock.NewRedisLocker(client), nil
}

// Close releases app connections in reverse order
func (s *ServerApp) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil

	return errors.Join(errs...)
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
