package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lingoroom/backend/internal/api/handler"
	"lingoroom/backend/internal/config"
	"lingoroom/backend/internal/language"
	"lingoroom/backend/internal/localization"
	"lingoroom/backend/internal/ratelimit"
	"lingoroom/backend/internal/relay"
	"lingoroom/backend/internal/rooms"
	"lingoroom/backend/internal/storage"
	"lingoroom/backend/internal/telegram"
	"lingoroom/backend/internal/translation"
)

func setupDependencies() (*gorm.DB, *redis.Client) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		envOr("DB_HOST", "localhost"),
		envOr("DB_USER", "user"),
		envOr("DB_PASSWORD", "password"),
		envOr("DB_NAME", "lingoroomdb"),
		envOr("DB_PORT", "5432"),
	)

	// TranslateError turns driver duplicate-key errors into
	// gorm.ErrDuplicatedKey, which the room code retry loop relies on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	log.Println("Database and Redis connections established.")
	return db, rdb
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.Println("Starting LingoRoom Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	db, rdb := setupDependencies()
	store := storage.NewStorageService(db)
	if err := store.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY is not set!")
	}
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set!")
	}

	// The client timeout bounds every API call, deliveries included, so a
	// hung send surfaces as a per-recipient failure instead of a goroutine
	// stuck forever. It must stay above the 60s GetUpdates long poll.
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint,
		&http.Client{Timeout: 90 * time.Second})
	if err != nil {
		log.Fatalf("Failed to start Telegram bot: %v", err)
	}
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)

	localizer, err := localization.NewLocalizer()
	if err != nil {
		log.Fatalf("Failed to load locales: %v", err)
	}

	speechCache, err := translation.NewSpeechCache(envOr("TTS_CACHE_DIR", "tts_cache"))
	if err != nil {
		log.Fatalf("Failed to prepare speech cache: %v", err)
	}

	provider := translation.NewOpenAIProvider(apiKey,
		envOr("OPENAI_MODEL", config.TranslationModel),
		config.TTSModel, config.TTSVoice, config.TTSSpeed)

	// The Redis cache is shared across replicas; entries expire on their own.
	cache := translation.NewRedisCache(rdb, config.TranslationCacheTTL)
	engine := translation.NewEngine(provider, cache, speechCache)

	registry := rooms.NewRegistry(store)
	client := telegram.NewClient(bot)
	dispatcher := relay.NewDispatcher(registry, engine, client, store, localizer, config.DeliveryTimeout)

	botService := telegram.NewBotService(bot, telegram.Deps{
		Storage:    store,
		Registry:   registry,
		Dispatcher: dispatcher,
		Engine:     engine,
		Detector:   language.NewWhatlangDetector(),
		Localizer:  localizer,
		Messages:   ratelimit.NewLimiter(rdb, "rl:msg", config.MessagesPerMinute, time.Minute),
		Voices:     ratelimit.NewLimiter(rdb, "rl:voice", config.VoiceMessagesPerHour, time.Hour),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go registry.RunSweeper(ctx, config.RoomSweepInterval)
	go speechCacheJanitor(ctx, speechCache)
	go botService.Run(ctx)

	r := gin.Default()
	h := handler.NewHandler(store, dispatcher.Events(),
		[]byte(envOr("JWT_SECRET", "dev-secret-change-me")),
		envOr("ADMIN_KEY", "admin"))
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           ":" + envOr("HTTP_PORT", "8080"),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("ERROR: HTTP shutdown: %v", err)
		}
	}()

	log.Printf("Admin API listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// speechCacheJanitor prunes synthesized audio files that outlived their
// usefulness.
func speechCacheJanitor(ctx context.Context, cache *translation.SpeechCache) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := cache.Cleanup(config.TTSCacheMaxAge); removed > 0 {
				log.Printf("INFO: Pruned %d cached speech files", removed)
			}
		}
	}
}
