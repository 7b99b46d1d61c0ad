package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gojam/cache"
	"gojam/config"
	"gojam/core/assets"
	"gojam/core/auth"
	"gojam/core/catalog"
	"gojam/core/library"
	"gojam/core/shazam"
	"gojam/db"
	"gojam/logger"
	"gojam/model"
	"gojam/repository"
	"gojam/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.InfoLevel,
		OutputPath: "logs/gojam.log",
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	auth.Init(cfg.JWTSecret)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	objectStore, err := storage.NewMinioStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect GORM: %v", err)
	}
	defer db.CloseGormDB()

	// Connect to Redis
	if err := db.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer db.CloseRedis()
	log.Println("Successfully connected to Redis")

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := db.AutoMigrateModels(&model.Recognition{}); err != nil {
		log.Fatalf("Failed to migrate models: %v", err)
	}

	ensureDirExists(cfg.SampleUploadDir)

	trackRepo := repository.NewMySQLTrackRepository(db.DB)
	artistRepo := repository.NewMySQLArtistRepository(db.DB)
	userRepo := repository.NewMySQLUserRepository(db.DB)
	recognitionRepo := repository.NewGormRecognitionRepository(db.GormDB)

	catalogClient := shazam.NewClient(cfg.ShazamAPIURL, cfg.ShazamAPITimeout)
	catalogStore := catalog.NewStore(trackRepo, artistRepo)
	fetcher := assets.NewFetcher(objectStore, cfg.AssetFetchLimit, cfg.AssetFetchTimeout)
	reconciler := library.NewReconciler(recognitionRepo)
	chartCache := cache.NewChartCache(db.RedisClient, cfg.ChartCacheTTL)
	pipeline := catalog.NewPipeline(catalogClient, catalogStore, fetcher, reconciler, chartCache, cfg.ChartLimit)

	feed := NewFeedHub()
	go feed.Run()
	pipeline.SetNotifier(feed)

	apiHandler := NewAPIHandler(pipeline, reconciler, trackRepo, artistRepo, userRepo, cfg)

	router := mux.NewRouter()

	// CORS middleware
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Recognition and catalog browsing
	router.HandleFunc("/api/recognize", apiHandler.OptionalAuthMiddleware(apiHandler.RecognizeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/charts/{country}", apiHandler.ChartsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/related/{trackKey}", apiHandler.RelatedHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artist/{shazamId}", apiHandler.ArtistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artist/{id}/info", apiHandler.ArtistInfoHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/track/{id}", apiHandler.TrackInfoHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/stats/top-artist", apiHandler.TopArtistHandler).Methods(http.MethodGet)

	// Personal library
	router.HandleFunc("/api/library", apiHandler.AuthMiddleware(apiHandler.LibraryHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/library/{id}/favorite", apiHandler.AuthMiddleware(apiHandler.FavoriteToggleHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/library/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteRecognitionHandler)).Methods(http.MethodDelete)

	// Auth
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)

	// Live feed of newly catalogued tracks
	router.HandleFunc("/ws/feed", feed.ServeWS)

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s...", cfg.ServerAddr)
		log.Println("Recognize samples via POST to /api/recognize")
		log.Println("Browse charts via GET /api/charts/{country}")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Creating directory: %s", path)
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", path, err)
		}
	} else if err != nil {
		log.Fatalf("Failed to check directory %s: %v", path, err)
	}
}
