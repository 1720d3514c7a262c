package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"auction-predictor/src/interfaces"
	"auction-predictor/src/logger"
	"auction-predictor/src/models"
	"auction-predictor/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	engine    *gin.Engine
	predictor interfaces.IPredictor

	// WebSocket clients, owned by the hub loop
	clients     map[*Client]struct{}
	broadcast   chan *models.MPredictionResult // Buffered queue
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	hubDone     chan struct{}
	connections atomic.Int64

	// Recent predictions
	recent      *utils.RingBuffer[models.MPredictionResult]
	recentMutex sync.RWMutex
}

var _ interfaces.IDataExchanger = (*APIServer)(nil)

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, logger *logger.Logger) *APIServer {
	// Set Gin mode, leaving test mode alone
	if cfg.LogLevel != "DEBUG" && gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:  cfg,
		Logger:  logger,
		engine:  gin.New(),
		clients: make(map[*Client]struct{}),
		// Buffered so request handlers never wait on slow websocket fan-out
		broadcast:  make(chan *models.MPredictionResult, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		hubDone:    make(chan struct{}),
		recent:     utils.NewRingBuffer[models.MPredictionResult](cfg.Feed.RecentCapacity),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

// AttachPredictor wires the prediction pipeline behind /predict.
func (s *APIServer) AttachPredictor(p interfaces.IPredictor) {
	s.predictor = p
}

// Handler exposes the router, mostly for tests.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	s.engine.GET("/", s.getRoot)

	// Prediction endpoint, with and without trailing slash
	s.engine.POST("/predict", s.postPredict)
	s.engine.POST("/predict/", s.postPredict)

	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/models", s.getModels)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/predictions/recent", s.getRecent)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------

func (s *APIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Run serves HTTP and the websocket hub until ctx is cancelled, then shuts down gracefully.
func (s *APIServer) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.RunHub(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Logger.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}
