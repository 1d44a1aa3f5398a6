package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codequest/internal/api"
	"codequest/internal/app/catalog"
	"codequest/internal/app/flavor"
	"codequest/internal/app/service"
	"codequest/internal/common/security"
	"codequest/internal/domain/repository"
	"codequest/internal/platform/cache"
	"codequest/internal/platform/config"
	"codequest/internal/platform/database"
)

func main() {
	// 1. Load Configuration
	config.Load()
	log.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	log.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	log.Println("Database connected.")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	log.Println("Redis connected.")

	// 5. Load the problem catalog (missing feed means an empty catalog)
	problemCatalog, err := catalog.Load(config.AppConfig.ProblemsFile)
	if err != nil {
		log.Fatalf("Could not load problem catalog: %v", err)
	}
	log.Printf("Problem catalog loaded: %d problems", problemCatalog.Size())

	// 6. Initialize the flavor text provider (nil provider = offline fallback)
	provider, err := flavor.NewProvider(context.Background(), flavor.Config{
		Provider:     config.AppConfig.FlavorProvider,
		GeminiAPIKey: config.AppConfig.GeminiAPIKey,
		GeminiModel:  config.AppConfig.GeminiModel,
		OpenAIAPIKey: config.AppConfig.OpenAIAPIKey,
		OpenAIModel:  config.AppConfig.OpenAIModel,
		Timeout:      time.Duration(config.AppConfig.FlavorTimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Printf("Flavor provider unavailable, using local fallback: %v", err)
		provider = nil
	}

	// 7. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	contestRepo := repository.NewPgContestRepository(database.DB)
	statsRepo := repository.NewPgStatsRepository(database.DB)

	// 8. Initialize Services
	authService := service.NewAuthService(userRepo)
	contestService := service.NewContestService(
		userRepo,
		contestRepo,
		statsRepo,
		database.NewTxRunner(database.DB),
		catalog.NewSelector(problemCatalog, nil),
		flavor.NewGenerator(provider, nil),
		cache.NewRedisLocker(cache.RDB, time.Duration(config.AppConfig.ContestLockTTLSeconds)*time.Second),
		config.AppConfig.ContestSize,
	)

	// 9. Initialize Router & HTTP Server
	router := api.NewRouter(authService, contestService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
