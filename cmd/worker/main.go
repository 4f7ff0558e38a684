package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"faceattend/internal/attendance"
	"faceattend/internal/config"
	"faceattend/internal/profile"
	"faceattend/internal/queue"
	"faceattend/internal/rekog"
	"faceattend/internal/store"
	"faceattend/internal/verify"
)

// Worker consumes queued capture paths and runs the verification pipeline for
// each. Used when the API runs in async mode.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "faceattend:verify")
	}

	profiles := profile.NewRepository(db.Client)
	events := attendance.NewRepository(db.Client)
	recorder := attendance.NewRecorder(events, cfg.DedupWindow)
	comparer := rekog.New(cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
	pipeline := verify.NewPipeline(profiles, comparer, recorder, cfg.AttendBucket, cfg.ProfileBucket)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for capture paths...")
	for msg := range messages {
		if msg.Type != "verify" {
			continue
		}

		path := string(msg.Body)
		result := pipeline.Run(ctx, path)
		log.Printf("verified %s: %d %s %q", path, result.StatusCode, result.Status, result.Body)
	}

	log.Println("worker stopped")
}
