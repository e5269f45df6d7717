// Package vdisnap 提供 vdisnap 服务器的主入口和初始化逻辑
package vdisnap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jimmicro/grace"
	"github.com/rs/zerolog"

	"github.com/jimyag/vdisnap/internal/vdisnap/api"
	"github.com/jimyag/vdisnap/internal/vdisnap/backend"
	"github.com/jimyag/vdisnap/internal/vdisnap/config"
	"github.com/jimyag/vdisnap/internal/vdisnap/repository"
	"github.com/jimyag/vdisnap/internal/vdisnap/service"
	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
	"github.com/jimyag/vdisnap/pkg/hypervisor"
	"github.com/jimyag/vdisnap/pkg/idgen"
	"github.com/jimyag/vdisnap/pkg/imagestore"
	"github.com/jimyag/vdisnap/pkg/libvirt"
	"github.com/jimyag/vdisnap/pkg/qemuimg"
)

type Server struct {
	cfg     *config.Config
	api     *api.API
	janitor *TaskJanitor
	libvirt libvirt.LibvirtClient
	repo    *repository.Repository
}

// NewLogger 按配置创建 logger，并设置为默认的上下文 logger
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	return logger
}

// Backend 控制面会话及其依赖
type Backend struct {
	Session *backend.Session
	Libvirt libvirt.LibvirtClient
	QemuImg qemuimg.QemuImgClient
}

// NewBackend 连接 libvirt，创建会话并注册镜像插件
func NewBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	logger := zerolog.Ctx(ctx)

	ids, err := idgen.New()
	if err != nil {
		return nil, fmt.Errorf("init id generator: %w", err)
	}

	libvirtClient, err := libvirt.New(cfg.LibvirtURI)
	if err != nil {
		return nil, fmt.Errorf("connect libvirt %s: %w", cfg.LibvirtURI, err)
	}
	if hostname, err := libvirtClient.GetHostname(); err == nil {
		version, _ := libvirtClient.GetLibvirtVersion()
		logger.Info().
			Str("uri", cfg.LibvirtURI).
			Str("hostname", hostname).
			Str("libvirt_version", version).
			Msg("Connected to libvirt")
	}

	qemuImgClient := qemuimg.New(cfg.QemuImgPath)
	session := backend.NewSession(libvirtClient, qemuImgClient, hypervisor.NewTaskManagerWithIDs(ids))
	backend.NewImagesPlugin(
		session,
		qemuImgClient,
		imagestore.NewOpener(cfg.ImageStore.StoreConfig()),
		cfg.WorkDir,
	).Register(session)

	return &Backend{
		Session: session,
		Libvirt: libvirtClient,
		QemuImg: qemuImgClient,
	}, nil
}

func New(cfg *config.Config) (*Server, error) {
	logger := NewLogger(cfg.LogLevel)
	ctx := logger.WithContext(context.Background())

	// 1. 控制面会话
	b, err := NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 2. 快照任务数据库
	repo, err := repository.New(filepath.Join(cfg.DataDir, "vdisnap.db"))
	if err != nil {
		b.Libvirt.Close()
		return nil, fmt.Errorf("open repository: %w", err)
	}

	// 3. 镜像存储，只用于查询已上传的镜像
	var store imagestore.Store
	if cfg.ImageStore.Host != "" {
		s3Store, err := imagestore.New(ctx, cfg.ImageStore.StoreConfig())
		if err != nil {
			repo.Close()
			b.Libvirt.Close()
			return nil, fmt.Errorf("open image store: %w", err)
		}
		store = s3Store
	} else {
		logger.Warn().Msg("Image store host is not configured, describe-images is disabled")
	}

	// 4. 服务
	watcher := vmutil.NewCoalesceWatcher(b.Session, cfg.Coalesce.Options()...)
	uploader := vmutil.NewUploader(b.Session, cfg.ImageStore.Host, cfg.ImageStore.Port)
	snapshotService := service.NewSnapshotService(b.Session, watcher, uploader, repo)
	vmService := service.NewVMService(b.Session)
	imageService := service.NewImageService(store)
	taskService := service.NewTaskService(b.Session.Tasks())

	// 5. API
	apiInstance, err := api.New(cfg.Address, snapshotService, vmService, imageService, taskService)
	if err != nil {
		repo.Close()
		b.Libvirt.Close()
		return nil, err
	}

	return &Server{
		cfg:     cfg,
		api:     apiInstance,
		janitor: NewTaskJanitor(b.Session.Tasks(), DefaultJanitorInterval, DefaultTaskRetention),
		libvirt: b.Libvirt,
		repo:    repo,
	}, nil
}

func (s *Server) Run(ctx context.Context) error {
	// 使用 grace.Shepherd 管理服务生命周期
	services := []grace.Grace{
		s.api,
		s.janitor,
	}

	shepherd := grace.NewShepherd(
		services,
		grace.WithTimeout(30*time.Second),
		grace.WithLogger(&zerologLogger{}),
	)

	shepherd.Start(ctx)
	return s.close()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.api.Shutdown(ctx); err != nil {
		return err
	}
	return s.close()
}

func (s *Server) close() error {
	var firstErr error
	if s.repo != nil {
		firstErr = s.repo.Close()
		s.repo = nil
	}
	if s.libvirt != nil {
		if err := s.libvirt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.libvirt = nil
	}
	return firstErr
}

// Name 实现 grace.Grace 接口
func (s *Server) Name() string {
	return "vdisnap server"
}

// zerologLogger 实现 grace.Logger 接口
type zerologLogger struct{}

func (l *zerologLogger) Info(msg string, args ...interface{}) {
	logger := zerolog.DefaultContextLogger.Info()
	if len(args) > 0 {
		logger.Msgf(msg, args...)
	} else {
		logger.Msg(msg)
	}
}

func (l *zerologLogger) Error(msg string, args ...interface{}) {
	logger := zerolog.DefaultContextLogger.Error()
	if len(args) > 0 {
		logger.Msgf(msg, args...)
	} else {
		logger.Msg(msg)
	}
}
