package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-realtime-reservations.git/internal/config"
	kafkax "github.com/ariefcatur/go-realtime-reservations.git/internal/kafka"
	"github.com/ariefcatur/go-realtime-reservations.git/internal/postgres"
	"github.com/ariefcatur/go-realtime-reservations.git/internal/projector"
	"github.com/ariefcatur/go-realtime-reservations.git/internal/redisx"
	"github.com/ariefcatur/go-realtime-reservations.git/internal/reservations"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &projector.Service{
		Repo:        &reservations.Repo{DB: db},
		Cache:       &redisx.Cache{RDB: rdb},
		ServiceName: cfg.ServiceName + "-projector",
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ProjectorGroup, reservations.TopicReservationUpdated, cfg.Workers)
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		log.Printf("projector started: group=%s topic=%s workers=%d", cfg.ProjectorGroup, reservations.TopicReservationUpdated, cfg.Workers)
		if err := cons.Start(ctx, svc.HandleReservationUpdated); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumer...")
	cancel()
	<-exited
}
