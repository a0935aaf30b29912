package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rrh1441/storytime-app-sub000/internal/api"
	"github.com/rrh1441/storytime-app-sub000/internal/config"
	"github.com/rrh1441/storytime-app-sub000/internal/db"
	"github.com/rrh1441/storytime-app-sub000/internal/queue"
	"github.com/rrh1441/storytime-app-sub000/internal/services"
	"github.com/rrh1441/storytime-app-sub000/internal/storage"
	"github.com/rrh1441/storytime-app-sub000/internal/tts"
	"github.com/rrh1441/storytime-app-sub000/internal/worker"
)

func main() {
	log.Println("Starting Storytime API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("Connected to database")

	// Connect to Redis queue
	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	// Initialize storage
	stor := storage.New(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)
	log.Println("Initialized Supabase storage")

	// Initialize services
	openaiSvc := services.NewOpenAIService(cfg.OpenAIKey, cfg.StoryModel, cfg.TTSModel)
	ffmpegSvc := services.NewFFmpegService()

	// Story provider — OpenAI default, Gemini when configured
	var storyGen services.StoryGenerator = openaiSvc
	if cfg.StoryProvider == "gemini" {
		storyGen = services.NewGeminiService(cfg.GeminiKey, cfg.GeminiModel)
		log.Printf("Story provider: Gemini (model: %s)", cfg.GeminiModel)
	} else {
		log.Printf("Story provider: OpenAI (model: %s)", cfg.StoryModel)
	}

	// Build the narration pipeline
	tokenizer, err := tts.NewTokenizer(tts.DefaultEncoding)
	if err != nil {
		log.Fatalf("Failed to load tokenizer: %v", err)
	}
	chunker := tts.NewChunker(tokenizer, cfg.TTSMaxTokens)
	pipeline := tts.NewPipeline(chunker, openaiSvc, ffmpegSvc, stor, cfg.TmpDir)
	log.Printf("Narration pipeline ready (chunk budget: %d tokens, voice model: %s)", cfg.TTSMaxTokens, cfg.TTSModel)

	// Create API handler
	handler := api.NewHandler(database, q, stor, pipeline, storyGen, openaiSvc)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start worker if enabled
	var workerCtx context.Context
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background narration processing...")

		w := worker.New(database, q, pipeline)

		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.WorkerConcurrency)
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Shutdown worker
	if workerCancel != nil {
		workerCancel()
	}

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
