package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lingoroom/backend/internal/config"
	"lingoroom/backend/internal/storage"
	"lingoroom/backend/internal/translation"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "stats":
		stats, err := storageSvc.Stats()
		if err != nil {
			log.Fatalf("Error collecting stats: %v", err)
		}
		fmt.Printf("Users:           %d (%d active, %d disabled)\n", stats.TotalUsers, stats.ActiveUsers, stats.DisabledUsers)
		fmt.Printf("Rooms:           %d (%d active)\n", stats.TotalRooms, stats.ActiveRooms)
		fmt.Printf("Messages:        %d\n", stats.TotalMessages)
		fmt.Printf("Voice responses: %d\n", stats.VoiceResponsesSent)

	case "rooms":
		roomList, err := storageSvc.ListActiveRooms()
		if err != nil {
			log.Fatalf("Error listing rooms: %v", err)
		}
		for _, room := range roomList {
			members, _ := storageSvc.GetMembers(room.ID)
			expires := "never"
			if room.ExpiresAt != nil {
				expires = room.ExpiresAt.Format("2006-01-02 15:04")
			}
			fmt.Printf("%s  %-10s  members=%d/%d  expires=%s\n", room.Code, room.Name, len(members), room.MaxMembers, expires)
		}

	case "close-room":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin close-room <room_id>")
			os.Exit(1)
		}
		if err := storageSvc.CloseRoom(os.Args[2]); err != nil {
			log.Fatalf("Error closing room: %v", err)
		}
		fmt.Printf("Room %s has been closed.\n", os.Args[2])

	case "disable-user", "enable-user":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin disable-user|enable-user <user_id>")
			os.Exit(1)
		}
		userID, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			fmt.Println("Invalid user ID. Please provide an integer.")
			os.Exit(1)
		}
		disabled := os.Args[1] == "disable-user"
		if err := storageSvc.SetUserDisabled(userID, disabled); err != nil {
			log.Fatalf("Error updating user: %v", err)
		}
		fmt.Printf("User %d disabled=%v.\n", userID, disabled)

	case "clear-cache":
		rdb := redis.NewClient(&redis.Options{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("Failed to connect Redis: %v", err)
		}
		cache := translation.NewRedisCache(rdb, config.TranslationCacheTTL)
		removed, err := cache.Clear()
		if err != nil {
			log.Fatalf("Error clearing translation cache: %v", err)
		}
		fmt.Printf("Removed %d cached translations.\n", removed)

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Usage: admin <command> [args]

Commands:
  stats                     show aggregate usage counters
  rooms                     list active rooms
  close-room <room_id>      force-close a room
  disable-user <user_id>    block a user from the service
  enable-user <user_id>     re-enable a blocked user
  clear-cache               drop all cached translations from Redis`)
}
