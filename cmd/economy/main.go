package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lwas/economy/internal/pkg/cache"
	"github.com/lwas/economy/internal/pkg/env"
	"github.com/lwas/economy/internal/pkg/router"
)

func main() {
	app := NewApplication()
	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "3000"))

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatal(err)
		}
	}()
	log.Printf("Server listening on %s", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received, draining in-flight webhooks")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	cache.SetupCache()

	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20, // webhook payloads are small JSON documents
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASS", "test"),
		},
	}), monitor.New())

	router.InstallRouter(app)

	return app
}
