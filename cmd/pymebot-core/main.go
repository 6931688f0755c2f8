package main

import (
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/LennySnaider/pymebot-core/app/repository"
	apiv1 "github.com/LennySnaider/pymebot-core/internal/api/v1"
	"github.com/LennySnaider/pymebot-core/internal/pkg/authority"
	"github.com/LennySnaider/pymebot-core/internal/pkg/cache"
	"github.com/LennySnaider/pymebot-core/internal/pkg/capability"
	"github.com/LennySnaider/pymebot-core/internal/pkg/database"
	"github.com/LennySnaider/pymebot-core/internal/pkg/env"
	"github.com/LennySnaider/pymebot-core/internal/pkg/initializer"
	"github.com/LennySnaider/pymebot-core/internal/pkg/permission"
	"github.com/LennySnaider/pymebot-core/internal/pkg/plansync"
	"github.com/LennySnaider/pymebot-core/internal/pkg/router"
	"github.com/LennySnaider/pymebot-core/internal/pkg/syncqueue"
	"github.com/LennySnaider/pymebot-core/internal/pkg/vertical"
)

func main() {
	app, queue := NewApplication()
	queue.Start()
	defer queue.Stop()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

// NewApplication wires the capability engine and returns the fiber app
// plus the sync queue so the caller owns its lifecycle.
func NewApplication() (*fiber.App, *syncqueue.Queue) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupRedis()
	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	expiring := cache.New(cache.PermissionTTL)
	registry := capability.NewRegistry()

	resolver := permission.NewResolver(authority.NewHTTPClientFromEnv(), repos.Plan, expiring)
	typeService := vertical.NewService(repos.Type)
	syncer := plansync.NewService(repos.Tenant, resolver)
	initService := initializer.NewService(registry, resolver, repos.Vertical, repos.Type, repos.Module, expiring)

	workers, err := strconv.Atoi(env.GetEnv("SYNC_WORKERS", "2"))
	if err != nil {
		workers = 2
	}
	queue := syncqueue.NewQueue(cache.GetClient(), syncer, workers)

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "pymebot-core",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	server := apiv1.NewAPIServer(resolver, typeService, initService, syncer, queue, registry)
	router.SetupAPIRoutes(app, server, nil)

	return app, queue
}
