// Package server exposes dataset generation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rgehrsitz/kpisynth/internal/calculation"
	"github.com/rgehrsitz/kpisynth/internal/calendar"
	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/output"
)

// maxCachedRuns bounds the number of generated datasets kept in memory
const maxCachedRuns = 8

// Options configures a Server
type Options struct {
	Release bool
	Workers int
	Logger  calculation.Logger
}

// Server is the HTTP API over the generator
type Server struct {
	router  *gin.Engine
	params  *domain.Parameters
	workers int
	logger  calculation.Logger

	mu    sync.Mutex
	cache map[runKey]*domain.Dataset
}

type runKey struct {
	seed int64
	year int
}

// New creates a server generating datasets from params. Requests may override seed and year.
func New(params *domain.Parameters, opts Options) *Server {
	if opts.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := opts.Logger
	if logger == nil {
		logger = calculation.NopLogger{}
	}

	s := &Server{
		router:  gin.New(),
		params:  params,
		workers: opts.Workers,
		logger:  logger,
		cache:   make(map[runKey]*domain.Dataset),
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.health)

	api := s.router.Group("/api/v1")
	{
		api.GET("/dataset", s.getDataset)
		api.GET("/summary", s.getSummary)
		api.GET("/accounts/:id", s.getAccount)
	}
}

// Handler returns the underlying http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on addr
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getDataset(c *gin.Context) {
	ds, ok := s.datasetFor(c)
	if !ok {
		return
	}

	switch format := c.DefaultQuery("format", "json"); format {
	case "json":
		c.JSON(http.StatusOK, ds)
	case "csv":
		data, err := output.CSVFormatter{}.Format(ds)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=sales_monthly_%d_%d.csv", ds.Year, ds.Seed))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format: " + format})
	}
}

type summaryResponse struct {
	RunID       string                      `json:"runId"`
	Seed        int64                       `json:"seed"`
	Year        int                         `json:"year"`
	Salespeople []output.SalespersonSummary `json:"salespeople"`
	Skipped     []domain.SkippedAccount     `json:"skipped,omitempty"`
}

func (s *Server) getSummary(c *gin.Context) {
	ds, ok := s.datasetFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, summaryResponse{
		RunID:       ds.RunID,
		Seed:        ds.Seed,
		Year:        ds.Year,
		Salespeople: output.Summarize(ds),
		Skipped:     ds.Skipped,
	})
}

type accountResponse struct {
	Account domain.Account         `json:"account"`
	Records []domain.MonthlyRecord `json:"records"`
}

func (s *Server) getAccount(c *gin.Context) {
	ds, ok := s.datasetFor(c)
	if !ok {
		return
	}

	id := c.Param("id")
	for _, acc := range ds.Accounts {
		if acc.ID == id {
			c.JSON(http.StatusOK, accountResponse{Account: acc, Records: ds.AccountRecords(id)})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "account not found: " + id})
}

// datasetFor resolves seed and year from the query and returns the matching dataset.
// It writes the error response itself and reports false on failure.
func (s *Server) datasetFor(c *gin.Context) (*domain.Dataset, bool) {
	key := runKey{seed: s.params.Seed, year: s.params.Year}
	if v := c.Query("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seed: " + v})
			return nil, false
		}
		key.seed = seed
	}
	if v := c.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year < 1900 || year > 9999 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year: " + v})
			return nil, false
		}
		key.year = year
	}

	ds, err := s.generate(c.Request.Context(), key)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) {
			status = 499
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, false
	}
	return ds, true
}

// generate returns the cached dataset for key or generates it. Generation is deterministic
// so cached results are identical to a fresh run.
func (s *Server) generate(ctx context.Context, key runKey) (*domain.Dataset, error) {
	s.mu.Lock()
	if ds, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return ds, nil
	}
	s.mu.Unlock()

	params := s.params.Clone()
	params.Seed = key.seed
	params.Year = key.year

	engine := calculation.NewEngine(params)
	engine.SetLogger(s.logger)
	if s.workers > 1 {
		engine.Workers = s.workers
	}
	ds, err := engine.Generate(ctx, calendar.ForYear(key.year))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cache) >= maxCachedRuns {
		s.cache = make(map[runKey]*domain.Dataset)
	}
	s.cache[key] = ds
	s.logger.Infof("generated dataset %s for seed %d year %d", ds.RunID, key.seed, key.year)
	return ds, nil
}
