package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cycle-stand-reservation/internal/config"
	"github.com/iliyamo/cycle-stand-reservation/internal/database"
	"github.com/iliyamo/cycle-stand-reservation/internal/engine"
	"github.com/iliyamo/cycle-stand-reservation/internal/handler"
	"github.com/iliyamo/cycle-stand-reservation/internal/middleware"
	"github.com/iliyamo/cycle-stand-reservation/internal/queue"
	"github.com/iliyamo/cycle-stand-reservation/internal/repository"
	"github.com/iliyamo/cycle-stand-reservation/internal/router"
	queue_publisher "github.com/iliyamo/cycle-stand-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	standRepo := repository.NewStandRepo(db)
	usageRepo := repository.NewUsageRepo(db)

	ctx := context.Background()

	// Seed the in-memory engine store from the provisioned inventory.
	// The store owns all live lock state from here on; MySQL keeps only
	// inventory, users and ride history.
	stands, cycles, err := standRepo.LoadInventory(ctx)
	if err != nil {
		log.Fatalf("load inventory: %v", err)
	}
	store := engine.NewStore()
	if err := store.Seed(stands, cycles); err != nil {
		log.Fatalf("seed store: %v", err)
	}
	log.Printf("seeded %d stands, %d cycles", len(stands), len(cycles))

	// History writes happen off the lock-state path with bounded retry.
	writer := repository.NewUsageWriter(usageRepo)
	go writer.Run(ctx)

	orch := engine.NewOrchestrator(store, queue_publisher.Dispatcher{})
	watcher := engine.NewWatcher(store, writer, cfg.LockConfirmGrace)

	sweeper := engine.NewSweeper(store, writer, engine.SweeperConfig{
		ReserveStaleAfter: cfg.ReserveStaleAfter,
		RideTimeout:       cfg.RideTimeout,
		Interval:          cfg.SweepInterval,
	})
	go sweeper.Run(ctx)

	// The change-feed consumer keeps its own reconnect loop and only
	// returns on unrecoverable setup errors.
	go func() {
		if err := queue.StartLockFeedConsumer(watcher); err != nil {
			log.Printf("lockfeed-consumer: %v", err)
		}
	}()

	// Redis is optional: a nil client turns the cache and limiter into
	// passthrough middleware.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterRider(e,
		handler.NewStandHandler(store),
		handler.NewCycleHandler(orch, store),
		handler.NewUserHandler(store, usageRepo),
		cfg.JWTSecret, cacheMW, rateMW)
	router.RegisterAdmin(e, handler.NewCycleHandler(orch, store), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
