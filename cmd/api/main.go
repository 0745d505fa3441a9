package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/farmdirect/farmdirect-orders/internal/aws"
	"github.com/farmdirect/farmdirect-orders/internal/geo"
	"github.com/farmdirect/farmdirect-orders/internal/handlers"
	"github.com/farmdirect/farmdirect-orders/internal/logging"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.RequestLogger())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterCheckoutRoutes(r, cfg)
	handlers.RegisterOrdersRoutes(r, cfg)
	handlers.RegisterCropsRoutes(r, cfg)

	return r
}

// buildResolver picks the geocoding backend: the static pincode table when
// GEO_RESOLVER=static, otherwise the India Post API, optionally fronted by a
// Redis cache when REDIS_ADDR is set.
func buildResolver(log *slog.Logger) geo.Resolver {
	var resolver geo.Resolver
	if os.Getenv("GEO_RESOLVER") == "static" {
		resolver = geo.NewStaticResolver(nil)
	} else {
		resolver = geo.NewHTTPResolver(os.Getenv("GEO_API_BASE"))
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unreachable, geocoding cache disabled", "addr", addr, "err", err.Error())
			return resolver
		}
		resolver = geo.NewCachedResolver(resolver, rdb, 24*time.Hour)
	}
	return resolver
}

func main() {
	log := logging.Init("order-api", "./logs/order-api.log")

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Error("failed to init aws clients", "err", err.Error())
		os.Exit(1)
	}

	cfg := handlers.HandlerConfig{
		DynamoDBClient:   clients.DynamoDB,
		SQSClient:        clients.SQS,
		CloudWatchClient: clients.CloudWatch,
		Resolver:         buildResolver(log),
		CropsTable:       os.Getenv("CROPS_TABLE"),
		UsersTable:       os.Getenv("USERS_TABLE"),
		OrdersTable:      os.Getenv("ORDERS_TABLE"),
		OrderLinesTable:  os.Getenv("ORDER_LINES_TABLE"),
		QueueURL:         os.Getenv("ORDER_EVENTS_QUEUE_URL"),
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Info("running local server", "addr", addr)
		if err := r.Run(addr); err != nil {
			log.Error("failed to run local server", "err", err.Error())
			os.Exit(1)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
