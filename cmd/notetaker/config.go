package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/progrium/media-notes/store"
)

type config struct {
	Addr              string
	DataDir           string
	Store             string
	RedisAddr         string
	RedisPrefix       string
	CassandraHosts    []string
	CassandraKeyspace string
	Volume            float64
	Poll              time.Duration
}

func loadConfig() config {
	_ = godotenv.Load()

	cfg := config{
		Addr:              envOrDefault("NOTETAKER_ADDR", ":8088"),
		DataDir:           envOrDefault("NOTETAKER_DATA_DIR", "./sessions"),
		Store:             envOrDefault("NOTETAKER_STORE", "file"),
		RedisAddr:         envOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPrefix:       envOrDefault("REDIS_PREFIX", "notetaker"),
		CassandraHosts:    strings.Split(envOrDefault("CASSANDRA_HOSTS", "localhost"), ","),
		CassandraKeyspace: envOrDefault("CASSANDRA_KEYSPACE", "notetaker"),
		Volume:            0.5,
		Poll:              100 * time.Millisecond,
	}

	if v := os.Getenv("NOTETAKER_VOLUME"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			log.Fatalf("NOTETAKER_VOLUME must be between 0 and 1, got %q", v)
		}
		cfg.Volume = f
	}
	if v := os.Getenv("NOTETAKER_POLL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("NOTETAKER_POLL must be a positive duration, got %q", v)
		}
		cfg.Poll = d
	}

	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func openStore(ctx context.Context, cfg config) (store.Store, error) {
	switch cfg.Store {
	case "file":
		return &store.FileStore{Dir: cfg.DataDir}, nil
	case "redis":
		return store.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	case "cassandra":
		return store.NewCassandraStore(cfg.CassandraHosts, cfg.CassandraKeyspace)
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}
