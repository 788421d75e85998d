package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zeu5/rl-planner/planning"
	"github.com/zeu5/rl-planner/types"
)

// ValueServer serves a read-only HTTP view of a planner's values.
// Reads go through the server lock since computing Q values may fill the
// planner's transition cache.
type ValueServer struct {
	Addr   string
	ctx    context.Context
	server *http.Server
	logger *slog.Logger

	lock    *sync.Mutex
	planner *planning.Planner
	result  *planning.Result
}

func NewValueServer(ctx context.Context, addr string, planner *planning.Planner, logger *slog.Logger) *ValueServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ValueServer{
		Addr:    addr,
		ctx:     ctx,
		logger:  logger,
		lock:    new(sync.Mutex),
		planner: planner,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/status", s.handleStatus)
	r.GET("/value", s.handleValue)
	r.GET("/qvalues", s.handleQValues)
	r.GET("/values", s.handleValues)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler exposes the router, for tests
func (s *ValueServer) Handler() http.Handler {
	return s.server.Handler
}

// SetResult publishes the result of the latest plan request
func (s *ValueServer) SetResult(result planning.Result) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.result = &result
}

// Plan runs a plan request under the server lock
func (s *ValueServer) Plan(ctx context.Context, seeds ...types.State) (planning.Result, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	result, err := s.planner.Plan(ctx, seeds...)
	s.result = &result
	return result, err
}

func (s *ValueServer) handleStatus(c *gin.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := gin.H{
		"planner":   s.planner.ID.String(),
		"scheduler": s.planner.Scheduler().Name(),
		"status":    s.planner.Status().String(),
		"reachable": len(s.planner.Reachable()),
	}
	if s.result != nil {
		out["result"] = s.result
	}
	c.JSON(http.StatusOK, out)
}

// stateKey reads the state query parameter and checks it was discovered
func (s *ValueServer) stateKey(c *gin.Context) (types.StateKey, bool) {
	state := c.Query("state")
	if state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing state parameter"})
		return "", false
	}
	key := types.StateKey(state)
	if _, ok := s.planner.State(key); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "state was not discovered", "state": state})
		return "", false
	}
	return key, true
}

func (s *ValueServer) handleValue(c *gin.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()

	key, ok := s.stateKey(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":    key,
		"value":    s.planner.Value(key),
		"terminal": s.planner.IsTerminal(key),
	})
}

func (s *ValueServer) handleQValues(c *gin.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()

	key, ok := s.stateKey(c)
	if !ok {
		return
	}
	qs, err := s.planner.QValues(key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, len(qs))
	for i, q := range qs {
		out[i] = gin.H{"action": q.Action.Hash(), "value": q.Value}
	}
	c.JSON(http.StatusOK, gin.H{"state": key, "qvalues": out})
}

func (s *ValueServer) handleValues(c *gin.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()
	c.JSON(http.StatusOK, s.planner.Values())
}

// Start serves until the context is done
func (s *ValueServer) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("value server stopped", slog.String("addr", s.Addr), slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-s.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
	}()
}
