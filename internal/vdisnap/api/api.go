package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jimyag/vdisnap/internal/vdisnap/service"
	"github.com/jimyag/vdisnap/pkg/ginx"
)

type API struct {
	engine *gin.Engine
	server *http.Server

	snapshot *Snapshot
	vm       *VM
	image    *Image
	task     *Task
}

func New(
	address string,
	snapshotService *service.SnapshotService,
	vmService *service.VMService,
	imageService *service.ImageService,
	taskService *service.TaskService,
) (*API, error) {
	return newAPI(address, snapshotService, vmService, imageService, taskService), nil
}

func newAPI(
	address string,
	snapshots SnapshotServiceInterface,
	vms VMServiceInterface,
	images ImageServiceInterface,
	tasks TaskServiceInterface,
) *API {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), ginx.RequestID(), accessLog())

	api := &API{
		engine:   engine,
		snapshot: &Snapshot{snapshotService: snapshots},
		vm:       &VM{vmService: vms},
		image:    &Image{imageService: images},
		task:     &Task{taskService: tasks},
	}

	group := engine.Group("/api")
	api.snapshot.RegisterRoutes(group)
	api.vm.RegisterRoutes(group)
	api.image.RegisterRoutes(group)
	api.task.RegisterRoutes(group)
	engine.GET("/healthz", ginx.Adapt3(func(*gin.Context) (map[string]string, error) {
		return map[string]string{"status": "ok"}, nil
	}))

	api.server = &http.Server{
		Addr:              address,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return api
}

// Handler 返回 HTTP handler
func (a *API) Handler() http.Handler {
	return a.engine
}

func (a *API) Run(ctx context.Context) error {
	zerolog.Ctx(ctx).Info().Str("address", a.server.Addr).Msg("HTTP server listening")
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// accessLog 记录请求日志，并把带请求 ID 的 logger 放进请求上下文
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger := zerolog.Ctx(c.Request.Context()).With().
			Str("http_request_id", ginx.GetRequestID(c)).
			Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}
