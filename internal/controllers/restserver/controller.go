// Package restserver exposes model runs over HTTP.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jpkabala96/geeSSEBI/internal/jobs"
	"github.com/jpkabala96/geeSSEBI/internal/log"
	"github.com/jpkabala96/geeSSEBI/internal/ssebi"
	"github.com/jpkabala96/geeSSEBI/pkg/config"
)

// RunStore queues runs and reports on them
type RunStore interface {
	Submit(req ssebi.Request) (jobs.Run, error)
	Get(id string) (jobs.Run, error)
	List() []jobs.Run
	Stats() jobs.Stats
}

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTData
	defaults   ssebi.Params
	runs       RunStore
	Server     http.Server
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller. Requests that leave
// out model parameters get the values of mc.
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTData, mc config.ModelData, runs RunStore, logger *zap.SugaredLogger) *Controller {
	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		defaults: ssebi.Params{
			RadiationThreshold: mc.RadiationThreshold,
			MoistureThreshold:  mc.MoistureThreshold,
			CRS:                mc.CRS,
			Scale:              mc.Scale,
		},
		runs:   runs,
		logger: logger,
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = handlers.CompressHandler(
		handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(logger.Desugar())))(ctrl.Router()))
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %v...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(ctx)
	}()

	return nil
}

// Router configures the HTTP router with all endpoints
func (c *Controller) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(mux.MiddlewareFunc(log.HTTPMiddleware(c.logger)))

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", c.handlers.GetStatus).Methods(http.MethodGet)
	api.HandleFunc("/runs", c.handlers.SubmitRun).Methods(http.MethodPost)
	api.HandleFunc("/runs", c.handlers.ListRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", c.handlers.GetRun).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/scatter", c.handlers.GetScatter).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/histogram", c.handlers.GetHistogram).Methods(http.MethodGet)

	return router
}
