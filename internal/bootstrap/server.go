package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/wingquest/api"
	"github.com/Domenick1991/wingquest/config"
	"github.com/Domenick1991/wingquest/internal/service/chat"
	"github.com/Domenick1991/wingquest/internal/service/checkin"
	"github.com/Domenick1991/wingquest/internal/storage"
	"github.com/Domenick1991/wingquest/internal/websocket"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const serviceName = "wingquest.bff"

type ConnectionChecker interface {
	CheckConnection(ctx context.Context) error
}

// Deps are the long-lived components the servers expose.
type Deps struct {
	Backends      api.BackendFactory
	Registry      *checkin.Registry
	Conversations *chat.ConversationStore
	Hub           *websocket.Hub
	Storage       storage.Storage
	Events        ConnectionChecker
	Logger        *slog.Logger
}

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
}

// Run starts the gRPC health server and the HTTP API and blocks until ctx
// is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	s := newServers(cfg, deps)

	errCh := make(chan error, 2)

	if cfg.GRPC.Address != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Address)
		if err != nil {
			return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
		}
		go func() { errCh <- s.grpcServer.Serve(lis) }()
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	deps.Logger.Info("servers started", "http", cfg.HTTP.Address, "grpc", cfg.GRPC.Address)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServers(cfg *config.Config, deps Deps) *Servers {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	return &Servers{
		grpcServer: grpcSrv,
		health:     healthSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           NewRouter(cfg, deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter mounts the JSON API under /api and, when a swagger directory
// is configured, the OpenAPI document and its UI.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(deps.Logger))

	router.GET("/health", healthHandler(deps))

	group := router.Group("/api", api.SessionMiddleware(deps.Backends))
	api.NewAuthHandler(deps.Registry).Register(group.Group("/auth"))
	api.NewFlightHandler().Register(group.Group("/flights"))
	api.NewOrderHandler(deps.Registry, cfg.Trips.RecentLimit, deps.Hub).Register(group)
	api.NewConversationHandler(deps.Conversations, cfg.Chat.StreamTimeout(), deps.Logger).
		Register(group.Group("/conversations"))

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/openapi.json"))))
	}
	return router
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Elapsed string            `json:"elapsed"`
}

func healthHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		if deps.Storage != nil {
			resp.Checks["storage"] = "ok"
			if _, err := deps.Storage.Get(ctx, "health"); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
				resp.Checks["storage"] = err.Error()
				resp.Status = "degraded"
			}
		}
		if deps.Events != nil {
			resp.Checks["kafka"] = "ok"
			if err := deps.Events.CheckConnection(ctx); err != nil {
				resp.Checks["kafka"] = err.Error()
				resp.Status = "degraded"
			}
		}
		resp.Elapsed = time.Since(started).String()

		code := http.StatusOK
		if resp.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(started),
		)
	}
}
