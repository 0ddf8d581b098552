package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catalog/internal/config"
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	// --- Logging ---
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// --- Product store ---
	// An empty MONGO_URI runs the service on the in-memory store, which is
	// useful for local experiments; anything else connects to MongoDB.
	var productRepo repositories.ProductRepository
	var mongoClient *mongo.Client
	if cfg.MongoURI == "" {
		log.Warn().Msg("MONGO_URI is empty, using in-memory product store")
		productRepo = repositories.NewMemoryProductRepository()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		if err := client.Ping(ctx, nil); err != nil {
			log.Fatal().Err(err).Msg("failed to ping MongoDB")
		}
		mongoClient = client

		repo := repositories.NewMongoProductRepository(client.Database(cfg.MongoDB))
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create indexes")
		}
		productRepo = repo
		log.Info().Str("database", cfg.MongoDB).Msg("connected to MongoDB")
	}

	// --- RabbitMQ (optional) ---
	// Product change events are best effort; without a broker URL the
	// service runs without publishing them.
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize RabbitMQ client")
		}
		mqClient = client
		defer mqClient.Close()
	}

	// --- Services and handlers ---
	var events services.EventPublisher
	if mqClient != nil {
		events = mqClient
	}
	productService := services.NewProductService(productRepo, events)
	productHandler := handlers.NewProductHandler(productService)

	// --- Fiber app ---
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(cfg.IsDevelopment()),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(helmet.New())
	if cfg.IsDevelopment() {
		app.Use(logger.New())
	}
	app.Use(cors.New())
	app.Use(compress.New())
	app.Use("/api", limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: 15 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests,
				"Too many requests from this IP, please try again later!")
		},
	}))

	// --- Health check endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "success",
			"message": "Service is healthy",
		})
	})

	// --- API routes ---
	api := app.Group("/api")
	productHandler.RegisterRoutes(api)

	// Unmatched routes get the standard 404 envelope.
	app.Use(middleware.NotFoundHandler)

	// --- Start HTTP server ---
	log.Info().Str("port", cfg.AppPort).Msg("starting server")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	log.Info().Msg("shutting down server")

	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("error disconnecting from MongoDB")
		}
	}

	log.Info().Msg("server gracefully stopped")
}
