package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	echoadapter "github.com/awslabs/aws-lambda-go-api-proxy/echo"
	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gvasels/pcg-analyzer/internal/config"
	"github.com/gvasels/pcg-analyzer/internal/handlers"
	"github.com/gvasels/pcg-analyzer/internal/mediastore"
	"github.com/gvasels/pcg-analyzer/internal/reportcache"
	"github.com/gvasels/pcg-analyzer/internal/service"
)

var echoLambda *echoadapter.EchoLambda

func init() {
	if config.IsLambda() {
		e, err := setupEcho()
		if err != nil {
			log.Fatal("config load failed", "err", err)
		}
		echoLambda = echoadapter.New(e)
	}
}

func main() {
	if config.IsLambda() {
		lambda.Start(Handler)
		return
	}

	e, addr, err := setupEchoWithAddr()
	if err != nil {
		log.Fatal("config load failed", "err", err)
	}
	log.Fatal("server exited", "err", e.Start(addr))
}

func setupEchoWithAddr() (*echo.Echo, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	e, err := buildEcho(cfg)
	if err != nil {
		return nil, "", err
	}
	return e, ":" + cfg.ServerPort, nil
}

// Handler is the Lambda handler function.
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return echoLambda.ProxyWithContext(ctx, req)
}

func setupEcho() (*echo.Echo, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return buildEcho(cfg)
}

func buildEcho(cfg *config.Config) (*echo.Echo, error) {
	logger := log.Default()

	e := echo.New()
	e.Validator = NewValidator()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	var media mediastore.Store
	if cfg.MediaBaseURL != "" {
		media = mediastore.NewHTTPStore(cfg.MediaBaseURL)
	}
	var cache reportcache.Cache
	if cfg.CacheBaseURL != "" {
		cache = reportcache.NewHTTPCache(cfg.CacheBaseURL)
	}

	svc := service.New(media, cache, logger)
	h := handlers.NewHandlers(svc)
	h.RegisterRoutes(e)

	return e, nil
}
