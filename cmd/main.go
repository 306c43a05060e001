package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tencard/match-backend/pkg/comms"
	"github.com/tencard/match-backend/pkg/config"
	"github.com/tencard/match-backend/pkg/match"
	"github.com/tencard/match-backend/pkg/room"
	"github.com/tencard/match-backend/pkg/server"
	"github.com/tencard/match-backend/pkg/store"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// The first room takes this id, giving every display id five digits.
const firstRoomID = 10000

var configPath = flag.String("config",
	getEnvOrDefault("CONFIG_PATH", "config.yml"),
	"Path to the yaml server configuration")

// getEnvOrDefault tries to get an Environment variable or returns a default
// if it doesn't exist
func getEnvOrDefault(key, def string) string {
	if env, ok := os.LookupEnv(key); ok {
		return env
	}
	return def
}

// newStore builds the record store the config asks for.
func newStore(log *zap.Logger, cfg config.StoreConfig) store.Store {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStore()

	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			panic(fmt.Sprintf("Unable to connect to mongo: %s", err))
		}
		if err := client.Ping(ctx, nil); err != nil {
			panic(fmt.Sprintf("Unable to ping mongo: %s", err))
		}
		log.Info("Connected to mongo record store",
			zap.String("database", cfg.MongoDatabase))
		return store.NewMongoStore(client, cfg.MongoDatabase)

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			panic(fmt.Sprintf("Unable to ping redis: %s", err))
		}
		log.Info("Connected to redis record store",
			zap.String("addr", cfg.RedisAddr))
		return store.NewRedisStore(client)

	default:
		panic(fmt.Sprintf("Unknown store backend '%s'", cfg.Backend))
	}
}

func main() {
	flag.Parse()
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.ParseConfig(*configPath)
	if cfg.Port == "" {
		panic("Missing config: port")
	}
	if cfg.FrontendHost == "" {
		panic("Missing config: frontendHost")
	}

	// checkOrigin checks a requests origin, returning true if the origin
	// is valid.
	checkOrigin := func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return strings.Contains(origin, cfg.FrontendHost)
	}

	registry := comms.NewRegistry()
	directory := room.NewDirectory(log, room.NewIDGenerator(firstRoomID), cfg.Bet)
	coordinator := match.NewCoordinator(
		log,
		registry,
		directory,
		newStore(log, cfg.Store),
		match.NewBlocklist(cfg.BlockedWords),
	)

	// Start-up the server
	log.Info(fmt.Sprintf("Starting server on port %s", cfg.Port))
	s := server.NewServer(log, coordinator, checkOrigin, cfg.MaxWorkers)
	s.Start(cfg.Port)
}
