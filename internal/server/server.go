// Package server exposes the produced JSON contracts of the orchestration
// core over HTTP: classification decisions, scheduling proposals, and the
// tool alias table the downstream dispatcher shares with the router.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dayflow/internal/logging"
	"dayflow/internal/orchestration"
	"dayflow/internal/router"
	"dayflow/internal/scheduling"
)

// Config configures the HTTP server.
type Config struct {
	Host         string
	Port         int
	EnableCORS   bool
	Debug        bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         8080,
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server serves the orchestration core over HTTP.
type Server struct {
	orchestrator *orchestration.Orchestrator
	engine       *gin.Engine
	httpServer   *http.Server
	logger       logging.Logger
	timezone     string
}

// New constructs the server around an orchestrator.
func New(orchestrator *orchestration.Orchestrator, config Config, timezone string, logger logging.Logger) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if config.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		engine.Use(cors.New(corsConfig))
	}

	s := &Server{
		orchestrator: orchestrator,
		engine:       engine,
		logger:       logging.OrNop(logger),
		timezone:     timezone,
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      engine,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/classify", s.handleClassify)
	api.POST("/plan", s.handlePlan)
	api.POST("/feedback", s.handleFeedback)
	api.GET("/aliases", s.handleAliases)

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type classifyRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Message  string `json:"message" binding:"required"`
	Timezone string `json:"timezone"`
}

func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tz := req.Timezone
	if tz == "" {
		tz = s.timezone
	}

	decision := s.orchestrator.HandleMessage(c.Request.Context(), req.UserID, tz, req.Message)
	c.JSON(http.StatusOK, gin.H{
		"intent":  decision.Intent,
		"handler": handlerJSON(decision.Handler),
		"context": decision.Context,
		"elapsed": decision.Elapsed.String(),
	})
}

type planRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Date     string `json:"date"` // 2006-01-02, defaults to today
	Timezone string `json:"timezone"`
}

func (s *Server) handlePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tz := req.Timezone
	if tz == "" {
		tz = s.timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown timezone %q", tz)})
		return
	}

	date := time.Now().In(loc)
	if req.Date != "" {
		date, err = time.ParseInLocation("2006-01-02", req.Date, loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid date %q", req.Date)})
			return
		}
	}

	proposal := s.orchestrator.PlanDay(c.Request.Context(), req.UserID, date)
	c.JSON(http.StatusOK, proposal)
}

type feedbackRequest struct {
	UserID string `json:"userId" binding:"required"`

	// Exactly one of the two verdicts is expected per call.
	RejectedAction   string `json:"rejectedAction"`
	AcceptedStrategy string `json:"acceptedStrategy"`
}

func (s *Server) handleFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RejectedAction == "" && req.AcceptedStrategy == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rejectedAction or acceptedStrategy is required"})
		return
	}

	if req.RejectedAction != "" {
		s.orchestrator.RejectAction(c.Request.Context(), req.UserID, req.RejectedAction)
	}
	if req.AcceptedStrategy != "" {
		strategy := scheduling.Strategy(req.AcceptedStrategy)
		switch strategy {
		case scheduling.StrategyFull, scheduling.StrategyOptimize, scheduling.StrategyPartial, scheduling.StrategyTaskOnly:
			s.orchestrator.ConfirmProposal(req.UserID, strategy)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown strategy %q", req.AcceptedStrategy)})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

func (s *Server) handleAliases(c *gin.Context) {
	c.JSON(http.StatusOK, router.ToolAliases())
}

// handlerJSON flattens the handler union into the wire shape the dispatcher
// consumes.
func handlerJSON(h router.Handler) gin.H {
	switch ref := h.(type) {
	case router.WorkflowRef:
		return gin.H{"type": "workflow", "name": ref.Name, "params": ref.Params}
	case router.ToolRef:
		return gin.H{"type": "tool", "name": ref.Name, "params": ref.Params}
	default:
		return gin.H{"type": "direct"}
	}
}
