package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-realtime-reservations.git/internal/config"
	"github.com/ariefcatur/go-realtime-reservations.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-realtime-reservations.git/internal/kafka"
	"github.com/ariefcatur/go-realtime-reservations.git/internal/postgres"
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
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, reservations.TopicReservationUpdated, 1024)
	prod.Start(ctx)

	// Repo & handler
	router := httpx.NewRouter()
	rh := &httpx.ReservationsHandler{
		Store:    &reservations.Repo{DB: db},
		Cache:    &redisx.Cache{RDB: rdb},
		Producer: prod,
		Service:  cfg.ServiceName,
	}
	rh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // flush & close writer
	prod.WaitClosed() // drain
	cancel()
}
