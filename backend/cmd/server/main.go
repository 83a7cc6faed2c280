package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lineage-verifier/backend/internal/graph"
	"lineage-verifier/backend/internal/lineage"
	"lineage-verifier/backend/internal/metrics"
	"lineage-verifier/backend/internal/verifier"
	"lineage-verifier/backend/pkg/config"
	apperrors "lineage-verifier/backend/pkg/errors"
	"lineage-verifier/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.Debug); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting verification hook...")

	var loader chartLoader
	if cfg.Neo4jEnabled {
		driver, err := neo4j.NewDriverWithContext(
			cfg.Neo4jURI,
			neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
		)
		if err != nil {
			log.Fatal("Failed to create Neo4j driver", zap.Error(err))
		}
		defer driver.Close(context.Background())

		if err := driver.VerifyConnectivity(context.Background()); err != nil {
			log.Fatal("Failed to verify Neo4j connectivity",
				zap.Error(apperrors.NewGraphConnectionFailed(cfg.Neo4jURI, err)))
		}
		loader = graph.NewRepository(driver)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := newRouter(cfg, log, loader)
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port), zap.Bool("neo4j", loader != nil))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// chartLoader reads a stored chart. *graph.Repository satisfies it.
type chartLoader interface {
	LoadLineage(ctx context.Context, chart string) (*lineage.Graph, error)
}

// RunOptions are the per-request overrides accepted by both verify routes
type RunOptions struct {
	Verbose                 bool     `json:"verbose"`
	KnownProblemCases       []string `json:"known_problem_cases"`
	SimilarPersonExceptions []string `json:"similar_person_exceptions"`
	OnSoftViolation         string   `json:"on_soft_violation"`
	Enable                  []string `json:"enable"`
	Disable                 []string `json:"disable"`
}

type verifyRequest struct {
	lineage.Document
	RunOptions
}

func newRouter(cfg *config.Config, log *zap.Logger, loader chartLoader) (*gin.Engine, error) {
	base, err := verifier.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/stages", func(c *gin.Context) {
			stages := make([]gin.H, 0)
			for _, st := range verifier.Stages() {
				stages = append(stages, gin.H{
					"stage":       st.Stage,
					"default":     st.Default,
					"toggleable":  st.Toggleable,
					"description": st.Description,
				})
			}
			c.JSON(http.StatusOK, gin.H{"stages": stages})
		})

		// Verify an inline chart
		api.POST("/verify", func(c *gin.Context) {
			var req verifyRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			g, err := req.Document.Graph()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			respond(c, log, base, req.RunOptions, g)
		})

		if loader != nil {
			// Verify a chart stored in Neo4j
			api.POST("/charts/:chart/verify", func(c *gin.Context) {
				chart := c.Param("chart")

				var req RunOptions
				if c.Request.ContentLength > 0 {
					if err := c.ShouldBindJSON(&req); err != nil {
						c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
						return
					}
				}

				g, err := loader.LoadLineage(c.Request.Context(), chart)
				if err != nil {
					if _, ok := err.(graph.ErrChartNotFound); ok {
						c.JSON(http.StatusNotFound, gin.H{"error": "Chart not found"})
						return
					}
					log.Error("Failed to load chart", zap.String("chart", chart), zap.Error(err))
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load chart"})
					return
				}

				respond(c, log, base, req, g)
			})
		}
	}

	return router, nil
}

// respond runs the verifier with captured output and writes the outcome.
// Hard failures are 422, everything the caller sent wrong is 400.
func respond(c *gin.Context, log *zap.Logger, base verifier.Options, req RunOptions, g *lineage.Graph) {
	opts, err := requestOptions(base, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var stdout, stderr bytes.Buffer
	opts.RunID = uuid.NewString()
	opts.Out = &stdout
	opts.Err = &stderr
	opts.Logger = log

	start := time.Now()
	collisions, err := verifier.Verify(g, opts)
	outcome := metrics.Observe(len(collisions), err, time.Since(start))

	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"run_id":     opts.RunID,
			"collisions": collisions,
			"stdout":     stdout.String(),
			"stderr":     stderr.String(),
		})
		return
	}

	if v, ok := apperrors.AsStructuralViolation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"run_id": opts.RunID,
			"error":  v.Error(),
			"check":  v.Check,
			"names":  v.Names,
			"stdout": stdout.String(),
			"stderr": stderr.String(),
		})
		return
	}

	log.Error("Verification errored",
		zap.String("run_id", opts.RunID),
		zap.String("outcome", outcome),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"run_id": opts.RunID, "error": "Verification failed"})
}

func requestOptions(base verifier.Options, req RunOptions) (verifier.Options, error) {
	opts := base.Clone()
	opts.Verbose = req.Verbose
	opts.KnownProblemCases = append(opts.KnownProblemCases, req.KnownProblemCases...)
	opts.SimilarPersonExceptions = append(opts.SimilarPersonExceptions, req.SimilarPersonExceptions...)
	if req.OnSoftViolation != "" {
		policy, err := verifier.ParseSoftViolationPolicy(req.OnSoftViolation)
		if err != nil {
			return verifier.Options{}, err
		}
		opts.OnSoftViolation = policy
	}
	if err := opts.Toggle(req.Enable, req.Disable); err != nil {
		return verifier.Options{}, err
	}
	return opts, nil
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
