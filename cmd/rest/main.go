package main

import (
	"context"
	"log"

	"ai-scholarmatch-be/internal/bootstrap"
	"ai-scholarmatch-be/internal/config"
	"ai-scholarmatch-be/internal/server"
	"ai-scholarmatch-be/internal/tracer"
	"ai-scholarmatch-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	// 4. Start Background Services
	// Note: In a larger app, we might use an errgroup or supervisor here
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 5. Re-enqueue sessions a previous process left mid-flight. Runs after
	// the consumer is subscribed so recovered messages are not dropped.
	go func() {
		recovered, err := container.RunService.RecoverInterrupted(context.Background())
		if err != nil {
			log.Printf("Background Recovery Error: %v", err)
			return
		}
		if recovered > 0 {
			log.Printf("Background: Recovered %d interrupted session(s)", recovered)
		}
	}()

	// 6. Initialize Server
	srv := server.New(cfg, container)

	// 7. Run Server
	log.Fatal(srv.Run())
}
