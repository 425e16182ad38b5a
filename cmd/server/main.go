package main // Entry point package

import (
	"context" // Context for startup deadlines
	"log"     // Logging library
	"time"    // Timeouts

	"github.com/joho/godotenv"    // Load .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/joemdev/pool-scoreboard/internal/config"     // Internal config loader
	"github.com/joemdev/pool-scoreboard/internal/database"   // MySQL connection and schema bootstrap
	"github.com/joemdev/pool-scoreboard/internal/engine"     // Scoring rules
	"github.com/joemdev/pool-scoreboard/internal/handler"    // HTTP handlers
	"github.com/joemdev/pool-scoreboard/internal/middleware" // Cache and rate-limit middleware
	"github.com/joemdev/pool-scoreboard/internal/queue"      // Result-event consumer
	"github.com/joemdev/pool-scoreboard/internal/repository" // Data access
	"github.com/joemdev/pool-scoreboard/internal/router"     // Route registration
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Connect to MySQL and make sure the tables exist.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema bootstrap failed: %v", err)
	}
	cancel()

	// Redis backs the response cache and the rate limiter. Both middlewares
	// degrade to pass-through when the client is unavailable.
	rdb := config.NewRedisClient()

	// Repositories and rule engines. The engines use the real clock and a
	// time-seeded deal.
	sessions := repository.NewSessionRepo(db)
	games := repository.NewGameRepo(db)
	kellyGames := repository.NewKellyGameRepo(db)
	kellyHistory := repository.NewKellyHistoryRepo(db)

	sessionEngine := engine.NewSessionEngine(sessions, games)
	kellyEngine := engine.NewKellyEngine(kellyGames, kellyHistory, nil, nil)

	authHandler := handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db))
	sessionHandler := handler.NewSessionHandler(sessionEngine)
	kellyHandler := handler.NewKellyHandler(kellyEngine)

	// The consumer appends finished results to logs/results.log. It runs its
	// own reconnect loop so a broker outage never takes the API down.
	go func() {
		if err := queue.StartResultsConsumer(); err != nil {
			log.Printf("results consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance

	// Rate limiting applies to every route.
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e) // Health check
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterScoreboard(e, sessionHandler, kellyHandler, cfg.JWTSecret,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
