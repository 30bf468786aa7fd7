/**
 * @description
 * This is the main entry point for the banking API server. It is responsible
 * for initializing all components of the service: configuration, MongoDB
 * connection and indexes, the RabbitMQ producer and the alert dispatcher
 * consumer, the optional Redis rate limiter, the application services, and
 * the HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - go.mongodb.org/mongo-driver: MongoDB driver.
 * - internal/api, internal/app, internal/config, internal/notifier, internal/store: Internal packages.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/fibiannsk/trustyfin/internal/api"
	"github.com/fibiannsk/trustyfin/internal/app"
	"github.com/fibiannsk/trustyfin/internal/config"
	"github.com/fibiannsk/trustyfin/internal/notifier"
	"github.com/fibiannsk/trustyfin/internal/store"
	rmrabbit "github.com/fibiannsk/trustyfin/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"jwt secret must be configured\" env=JWT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting banking api\" port=%s", cfg.ServerPort)

	// Connect to MongoDB and verify the connection before serving traffic.
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelConnect()

	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"mongodb connection failed\" err=%v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("level=error component=bootstrap msg=\"mongodb disconnect failed\" err=%v", err)
		}
	}()
	if err := mongoClient.Ping(connectCtx, readpref.Primary()); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"mongodb ping failed\" err=%v", err)
	}
	log.Println("level=info component=bootstrap msg=\"mongodb connected\"")

	repository := store.NewMongoRepository(mongoClient.Database(cfg.MongoDatabase))
	if err := repository.EnsureIndexes(connectCtx); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"index creation failed\" err=%v", err)
	}

	// Initialize the RabbitMQ producer used for transaction alerts. A missing
	// broker degrades to a no-op publisher: transfers still commit, alerts
	// are dropped.
	var publisher rmrabbit.Publisher = rmrabbit.NopPublisher{}
	producer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; alerts disabled\" err=%v", err)
	} else {
		defer producer.Close()
		publisher = producer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Start the alert dispatcher consumer when the broker is reachable.
	if _, ok := publisher.(rmrabbit.NopPublisher); !ok {
		mailer := notifier.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		dispatcher := notifier.NewDispatcher(mailer)

		rabbitConsumer, err := rmrabbit.NewConsumer(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"rabbitmq consumer init failed\" err=%v", err)
		}
		defer rabbitConsumer.Close()

		alertBindings := map[string]func([]byte) bool{
			app.AlertRoutingKeyDebit:  dispatcher.HandleMessage,
			app.AlertRoutingKeyCredit: dispatcher.HandleMessage,
		}
		if err := rabbitConsumer.ConsumeWithBindings(app.AlertExchange, cfg.AlertQueueName, alertBindings); err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"alert consumer start failed\" err=%v", err)
		}
		log.Println("level=info component=bootstrap msg=\"alert dispatcher started\"")
	}

	// Optional Redis-backed transfer rate limiting.
	var limiter app.TransferRateLimiter
	if cfg.TransferRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; transfer rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; transfer rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient := redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; transfer rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
				} else {
					defer redisClient.Close()
					limiter = app.NewRedisTransferRateLimiter(redisClient, "")
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the application services.
	accountService := app.NewAccountService(repository)
	transferService := app.NewTransferService(repository, publisher)
	queryService := app.NewQueryService(repository)

	// Initialize the API handlers and router.
	handlers := api.NewHandlers(
		accountService,
		transferService,
		queryService,
		limiter,
		cfg.TransferRateLimitPerMinute,
		cfg.JWTSecret,
		time.Duration(cfg.JWTExpiryHours)*time.Hour,
	)
	router := api.Routes(handlers, cfg.JWTSecret)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
