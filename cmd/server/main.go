package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/seating-plan/internal/config"
	"github.com/iliyamo/seating-plan/internal/database"
	"github.com/iliyamo/seating-plan/internal/editor"
	"github.com/iliyamo/seating-plan/internal/firebase"
	"github.com/iliyamo/seating-plan/internal/gateway"
	"github.com/iliyamo/seating-plan/internal/grid"
	"github.com/iliyamo/seating-plan/internal/handler"
	"github.com/iliyamo/seating-plan/internal/logger"
	"github.com/iliyamo/seating-plan/internal/middleware"
	"github.com/iliyamo/seating-plan/internal/queue"
	"github.com/iliyamo/seating-plan/internal/repository"
	"github.com/iliyamo/seating-plan/internal/reservation"
	"github.com/iliyamo/seating-plan/internal/router"
	"github.com/iliyamo/seating-plan/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, lg.Named("migrate")); err != nil {
		return err
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("redis unavailable; rate limiting and caches disabled")
	} else {
		defer rdb.Close()
	}

	store, err := openStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	gw := gateway.NewReservedCache(store, rdb, cfg.Session.ReservedTTL, cfg.Session.ReservedPrefix, lg.Named("reserved-cache"))

	syncer := gateway.NewSyncer(gw, gateway.SyncOptions{
		QueueSize:       cfg.Sync.QueueSize,
		MaxTries:        uint(max(cfg.Sync.MaxTries, 1)),
		InitialInterval: cfg.Sync.InitialInterval,
		MaxInterval:     cfg.Sync.MaxInterval,
		OpTimeout:       cfg.Sync.OpTimeout,
	}, lg.Named("sync"))
	syncer.Start(ctx)

	lc := cfg.Layout
	editors := editor.NewManager(gw, syncer, editor.Options{
		CellSize:           lc.GridSize,
		ItemWidth:          lc.ItemWidth,
		ItemHeight:         lc.ItemHeight,
		ActivationDistance: lc.ActivationDistance,
		Bounds:             grid.Bounds{Columns: lc.Columns, Rows: lc.Rows},
		MaxBlock:           lc.MaxBlock,
	}, lg.Named("editor"))

	var pub reservation.Publisher
	if cfg.RabbitURL != "" {
		pub = service.NewPublisher(cfg.RabbitURL, lg)
		go queue.NewConsumer(cfg.RabbitURL, "logs", lg).Run(ctx)
	} else {
		lg.Info("RABBITMQ_URL not set; reservation events disabled")
	}

	sessions := reservation.NewRegistry(gw, pub, reservation.RegistryOptions{
		People: reservation.PeopleRange{
			Min:     lc.PeopleMin,
			Max:     lc.PeopleMax,
			Default: lc.PeopleDefault,
		},
		IdleTTL: cfg.Session.IdleTTL,
	}, lg.Named("booking"))
	go sessions.Run(ctx, cfg.Session.SweepInterval)

	e := newServer(cfg, lg, rdb, db, gw, editors, sessions)

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		lg.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreBackend))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http shutdown", zap.Error(err))
	}
	syncer.Close()
	return nil
}

// openStore picks the layout and reservation backend.
func openStore(ctx context.Context, cfg config.Config, db *sql.DB) (gateway.Gateway, error) {
	switch cfg.StoreBackend {
	case config.BackendFirebase:
		fb, err := firebase.Open(ctx, cfg.FirebaseURL, cfg.FirebaseCredentials)
		if err != nil {
			return nil, fmt.Errorf("open firebase: %w", err)
		}
		return fb, nil
	case config.BackendMemory:
		return gateway.NewMemory(), nil
	default:
		return gateway.NewSQL(repository.NewLayoutRepo(db), repository.NewReservationRepo(db)), nil
	}
}

func newServer(cfg config.Config, lg *zap.Logger, rdb *redis.Client, db *sql.DB, gw gateway.Gateway,
	editors *editor.Manager, sessions *reservation.Registry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(lg.Named("http")))

	venues := handler.NewVenueHandler(gw)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, lg)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb, lg.Named("cache"))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), cfg.JWTSecret)
	router.RegisterPublic(e, venues, cache)
	router.RegisterLayout(e, handler.NewLayoutHandler(editors), venues, cfg.JWTSecret)
	router.RegisterBooking(e, handler.NewBookingHandler(sessions), cfg.JWTSecret, limit)
	return e
}
