package restserver

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/basinview/internal/log"
	"github.com/chrissnell/basinview/internal/viewer"
	"github.com/chrissnell/basinview/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const sweepInterval = time.Minute

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	FS         fs.FS
	viewer     *viewer.Viewer
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, v *viewer.Viewer, rc config.RESTServerData, logger *zap.SugaredLogger) (*Controller, error) {
	if v == nil {
		return nil, fmt.Errorf("REST server requires a basin viewer")
	}

	ctrl := &Controller{
		ctx:    ctx,
		wg:     wg,
		viewer: v,
		logger: logger,
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	if rc.PageTitle == "" {
		rc.PageTitle = config.DefaultPageTitle
	}
	ctrl.restConfig = rc

	ctrl.handlers = NewHandlers(ctrl)
	ctrl.FS = GetAssets()

	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the REST server and the idle session sweeper
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(2)

	go func() {
		defer c.wg.Done()

		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		defer c.wg.Done()
		c.viewer.Sessions.Run(c.ctx, sweepInterval, c.restConfig.IdleTimeout())
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(c.loggingMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sources", c.handlers.GetSources).Methods("GET")
	api.HandleFunc("/sources/{source}/basins/{basin}/{kind}", c.handlers.GetArtifact).Methods("GET")

	// Endpoints that read or change a viewer's session
	sessions := api.NewRoute().Subrouter()
	sessions.Use(c.sessionMiddleware)
	sessions.HandleFunc("/select", c.handlers.Select).Methods("POST")
	sessions.HandleFunc("/viewport", c.handlers.GetViewport).Methods("GET")
	sessions.HandleFunc("/session", c.handlers.EndSession).Methods("DELETE")

	// Template endpoints
	router.HandleFunc("/", c.handlers.ServeIndexTemplate).Methods("GET")

	// Static file serving
	router.PathPrefix("/").Handler(http.FileServer(http.FS(c.FS)))

	return router
}
