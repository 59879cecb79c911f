package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/fishyfrenzy/GlitchChess/internal/httpx"
	"github.com/fishyfrenzy/GlitchChess/internal/store"
)

type config struct {
	Addr   string `env:"GLITCH_ADDR" envDefault:":8080"`
	DBPath string `env:"GLITCH_DB" envDefault:"glitchchess.db"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse environment: %v", err)
	}
	addr := flag.String("addr", cfg.Addr, "listen address")
	dbPath := flag.String("db", cfg.DBPath, "sqlite database path")
	flag.Parse()

	rooms, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := rooms.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	srv := httpx.NewServer(rooms)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(*addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server: %v", err)
		}
		return
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Close(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
