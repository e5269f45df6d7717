package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jimyag/vdisnap/internal/vdisnap/entity"
	"github.com/jimyag/vdisnap/pkg/ginx"
)

// SnapshotServiceInterface 定义快照服务接口
type SnapshotServiceInterface interface {
	CreateSnapshot(ctx context.Context, req *entity.CreateSnapshotRequest) (*entity.SnapshotJob, error)
	UploadImage(ctx context.Context, req *entity.UploadImageRequest) (*entity.SnapshotJob, error)
	DescribeSnapshots(ctx context.Context, req *entity.DescribeSnapshotsRequest) ([]entity.SnapshotJob, error)
}

type Snapshot struct {
	snapshotService SnapshotServiceInterface
}

func (s *Snapshot) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/create-snapshot", ginx.Adapt5(s.CreateSnapshot))
	router.POST("/upload-image", ginx.Adapt5(s.UploadImage))
	router.POST("/describe-snapshots", ginx.Adapt5(s.DescribeSnapshots))
}

func (s *Snapshot) CreateSnapshot(ctx *gin.Context, req *entity.CreateSnapshotRequest) (*entity.CreateSnapshotResponse, error) {
	zerolog.Ctx(ctx.Request.Context()).Info().
		Str("vm", req.VMName).
		Str("label", req.Label).
		Str("image_name", req.ImageName).
		Msg("API: CreateSnapshot called")

	job, err := s.snapshotService.CreateSnapshot(ctx.Request.Context(), req)
	if err != nil {
		return nil, err
	}
	return &entity.CreateSnapshotResponse{SnapshotJob: job}, nil
}

func (s *Snapshot) UploadImage(ctx *gin.Context, req *entity.UploadImageRequest) (*entity.UploadImageResponse, error) {
	zerolog.Ctx(ctx.Request.Context()).Info().
		Str("snapshot_id", req.SnapshotID).
		Str("image_name", req.ImageName).
		Msg("API: UploadImage called")

	job, err := s.snapshotService.UploadImage(ctx.Request.Context(), req)
	if err != nil {
		return nil, err
	}
	return &entity.UploadImageResponse{SnapshotJob: job}, nil
}

func (s *Snapshot) DescribeSnapshots(ctx *gin.Context, req *entity.DescribeSnapshotsRequest) (*entity.DescribeSnapshotsResponse, error) {
	jobs, err := s.snapshotService.DescribeSnapshots(ctx.Request.Context(), req)
	if err != nil {
		return nil, err
	}
	return &entity.DescribeSnapshotsResponse{Snapshots: jobs}, nil
}
