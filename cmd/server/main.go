package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appcache "github.com/sajian-pos/api/internal/cache"
	"github.com/sajian-pos/api/internal/config"
	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/router"
	"github.com/sajian-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("parse database url: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	queries := database.New(pool)

	// Redis is optional: when it is unreachable the server runs with caching
	// disabled rather than refusing to start.
	var c appcache.Cache = appcache.Noop{}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("WARN: redis unavailable at %s, caching disabled: %v", cfg.RedisAddr, err)
	} else {
		c = appcache.NewRedis(rdb)
	}

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, queries, pool, c, hub)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
