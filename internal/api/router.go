package api

import (
	"net/http"
	"strings"
	"time"

	"codequest/internal/api/handler"
	"codequest/internal/api/middleware"
	"codequest/internal/app/service"
	"codequest/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(
	authService *service.AuthService,
	contestService *service.ContestService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	pageHandler := handler.NewPageHandler()
	r.Get("/", pageHandler.Root)
	r.Get("/auth", pageHandler.AuthPage)

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(authService)
	r.Route("/api/auth", authHandler.RegisterRoutes)

	// Contest routes (authenticated via session cookie)
	contestHandler := handler.NewContestHandler(contestService)
	r.Route("/api/contests", func(cr chi.Router) {
		cr.Use(middleware.Verifier)
		cr.Use(middleware.Authenticator)
		contestHandler.RegisterRoutes(cr)
	})

	return r
}

// corsOrigins merges the local development origins with any configured
// frontend URLs (comma-separated).
func corsOrigins() []string {
	origins := []string{
		"http://localhost:5173",
		"http://localhost:3000",
		"http://127.0.0.1:5173",
	}
	for _, url := range strings.Split(config.AppConfig.FrontendURL, ",") {
		url = strings.TrimSpace(url)
		if url != "" {
			origins = append(origins, url)
		}
	}
	return origins
}
