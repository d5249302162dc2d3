package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/oddvibe/core/dataset"
	"github.com/ezoic/oddvibe/pkg/config"
	"github.com/ezoic/oddvibe/pkg/errors"
	"github.com/ezoic/oddvibe/pkg/log"
	"github.com/ezoic/oddvibe/robust"
)

const (
	addrFlag          = "addr"
	maxConcurrentFlag = "max-concurrent"

	maxRequestIterations = 100000
	shutdownTimeout      = 10 * time.Second
)

// WeightsRequest is the body of POST /v1/weights. Unset fields fall back to
// the server configuration.
type WeightsRequest struct {
	Features   [][]float64 `json:"features" binding:"required,min=1,dive,min=1"`
	Target     []float64   `json:"target" binding:"required,min=1"`
	Iterations int         `json:"iterations" binding:"omitempty,gte=1,lte=100000"`
	Seed       *int64      `json:"seed"`
	Policy     string      `json:"policy" binding:"omitempty,oneof=cauchy welsch tukey huber"`
	Cutoff     float64     `json:"cutoff" binding:"gte=0"`
	Top        int         `json:"top" binding:"gte=0"`
}

// WeightsResponse is the reply of POST /v1/weights.
type WeightsResponse struct {
	ID         string    `json:"id"`
	Seed       int64     `json:"seed"`
	Policy     string    `json:"policy"`
	Cutoff     float64   `json:"cutoff"`
	Iterations int       `json:"iterations"`
	Skipped    int       `json:"skipped"`
	Center     float64   `json:"center"`
	Scale      float64   `json:"scale"`
	Weights    []float64 `json:"weights"`
	Suspicious []int     `json:"suspicious"`
	DurationMs int64     `json:"duration_ms"`
}

// PolicyInfo describes one weight function for GET /v1/policies.
type PolicyInfo struct {
	Name   string  `json:"name"`
	Cutoff float64 `json:"default_cutoff"`
}

// WeightServer exposes the booster over HTTP.
type WeightServer struct {
	router *gin.Engine
	cfg    *config.Config
	sem    chan struct{}
	logger log.Logger
}

// NewWeightServer builds the router. At most maxConcurrent fits run at the
// same time; further requests wait for a slot.
func NewWeightServer(cfg *config.Config, maxConcurrent int) *WeightServer {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	s := &WeightServer{
		router: gin.New(),
		cfg:    cfg,
		sem:    make(chan struct{}, maxConcurrent),
		logger: log.GetLoggerWithName("server"),
	}

	s.router.Use(gin.Recovery(), s.requestLogger())
	s.router.GET("/healthz", s.Health)
	s.router.GET("/v1/config", s.GetConfig)
	s.router.GET("/v1/policies", s.GetPolicies)
	s.router.POST("/v1/weights", s.PostWeights)
	return s
}

// Handler returns the server's http.Handler.
func (s *WeightServer) Handler() http.Handler {
	return s.router
}

// Health reports that the server is up.
func (s *WeightServer) Health(c *gin.Context) {
	c.JSON(http.StatusOK, &gin.H{
		"status": "ok",
	})
}

// GetConfig returns the defaults applied to requests.
func (s *WeightServer) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg)
}

// GetPolicies lists the available weight functions.
func (s *WeightServer) GetPolicies(c *gin.Context) {
	names := robust.PolicyNames()
	out := make([]PolicyInfo, 0, len(names))
	for _, name := range names {
		p, err := robust.NewPolicy(name, 0)
		if err != nil {
			writeError(c, err)
			return
		}
		out = append(out, PolicyInfo{Name: p.Name, Cutoff: p.Cutoff})
	}
	c.JSON(http.StatusOK, out)
}

// PostWeights scores the rows in the request body.
func (s *WeightServer) PostWeights(c *gin.Context) {
	var req WeightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &gin.H{
			"error": err.Error(),
		})
		return
	}

	cfg := *s.cfg
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.Iterations > 0 {
		cfg.Iterations = req.Iterations
	}
	if req.Policy != "" && req.Policy != cfg.Policy {
		// A cutoff tuned for the configured policy does not carry over.
		cfg.Policy = req.Policy
		cfg.Cutoff = 0
	}
	if req.Cutoff != 0 {
		cfg.Cutoff = req.Cutoff
	}
	if cfg.Iterations > maxRequestIterations {
		cfg.Iterations = maxRequestIterations
	}
	top := req.Top
	if top == 0 {
		top = 10
	}

	ds, err := dataset.FromRows(req.Features, req.Target)
	if err != nil {
		writeError(c, err)
		return
	}
	policy, err := robust.NewPolicy(cfg.Policy, cfg.Cutoff)
	if err != nil {
		writeError(c, err)
		return
	}
	b, err := cfg.NewBooster()
	if err != nil {
		writeError(c, err)
		return
	}

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-c.Request.Context().Done():
		c.JSON(http.StatusServiceUnavailable, &gin.H{
			"error": "request cancelled while waiting for a worker",
		})
		return
	}

	report, err := b.Fit(ds.Features(), mat.NewVecDense(len(req.Target), req.Target), cfg.Iterations)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, &WeightsResponse{
		ID:         uuid.NewString(),
		Seed:       cfg.Seed,
		Policy:     cfg.Policy,
		Cutoff:     policy.Cutoff,
		Iterations: report.Iterations,
		Skipped:    report.Skipped,
		Center:     report.Center,
		Scale:      report.Scale,
		Weights:    report.Weights,
		Suspicious: report.MostSuspicious(top),
		DurationMs: report.Duration.Milliseconds(),
	})
}

func (s *WeightServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("Request handled",
			log.PathKey, c.Request.URL.Path,
			log.StatusKey, c.Writer.Status(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
}

// writeError replies 400 for input errors and 500 for anything else.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	for _, target := range []error{
		errors.ErrEmptyData,
		errors.ErrDimensionMismatch,
		errors.ErrInvalidIterationCount,
		errors.ErrNonFinite,
		errors.ErrInvalidParameter,
	} {
		if errors.Is(err, target) {
			status = http.StatusBadRequest
			break
		}
	}
	if status == http.StatusInternalServerError {
		log.LogError(err, "request failed")
	}
	c.JSON(status, &gin.H{
		"error": err.Error(),
	})
}

func newServeCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serves outlier weights over HTTP",
		Flags: runFlags(
			&cli.StringFlag{
				Name:    addrFlag,
				Usage:   "Listen address",
				Value:   ":8080",
				Sources: cli.EnvVars("ODDVIBE_ADDR"),
			},
			&cli.IntFlag{
				Name:  maxConcurrentFlag,
				Usage: "Maximum fits running at once",
				Value: 4,
			},
		),
		Action: cmdServe,
	}
}

func cmdServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	s := NewWeightServer(cfg, cmd.Int(maxConcurrentFlag))
	srv := &http.Server{
		Addr:              cmd.String(addrFlag),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Server started", log.AddressKey, srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("Server shutting down", log.AddressKey, srv.Addr)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server shutdown failed")
	}
	return nil
}
