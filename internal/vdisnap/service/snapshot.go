package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimyag/vdisnap/internal/vdisnap/entity"
	"github.com/jimyag/vdisnap/internal/vdisnap/repository"
	"github.com/jimyag/vdisnap/internal/vdisnap/repository/model"
	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
	"github.com/jimyag/vdisnap/pkg/apierror"
	"github.com/jimyag/vdisnap/pkg/hypervisor"
	"github.com/jimyag/vdisnap/pkg/idgen"
)

// SnapshotService 快照服务
// 每个请求独立驱动一次快照编排，并把结果记录为快照任务
type SnapshotService struct {
	session     hypervisor.Session
	snapshotter *vmutil.Snapshotter
	uploader    *vmutil.Uploader
	idGen       *idgen.Generator
	jobRepo     repository.SnapshotJobRepository
}

// NewSnapshotService 创建快照服务
func NewSnapshotService(
	session hypervisor.Session,
	watcher *vmutil.CoalesceWatcher,
	uploader *vmutil.Uploader,
	repo *repository.Repository,
) *SnapshotService {
	return &SnapshotService{
		session:     session,
		snapshotter: vmutil.NewSnapshotter(session, watcher),
		uploader:    uploader,
		idGen:       idgen.DefaultGenerator(),
		jobRepo:     repository.NewSnapshotJobRepository(repo.DB()),
	}
}

// withRequest 生成请求 ID，并把带请求 ID 的 logger 放进 ctx
func (s *SnapshotService) withRequest(ctx context.Context) (context.Context, string, error) {
	requestID, err := s.idGen.GenerateRequestID()
	if err != nil {
		return ctx, "", err
	}
	logger := zerolog.Ctx(ctx).With().Str("request_id", requestID).Logger()
	return logger.WithContext(ctx), requestID, nil
}

// CreateSnapshot 为只有一块磁盘的 VM 创建快照，ImageName 不为空时接着上传镜像
func (s *SnapshotService) CreateSnapshot(ctx context.Context, req *entity.CreateSnapshotRequest) (*entity.SnapshotJob, error) {
	ctx, requestID, err := s.withRequest(ctx)
	if err != nil {
		return nil, toAPIError(err)
	}
	logger := zerolog.Ctx(ctx)

	vm, err := vmutil.LookupVM(ctx, s.session, req.VMName)
	if err != nil {
		return nil, toAPIError(err)
	}
	if vm == "" {
		return nil, apierror.WrapError(apierror.ErrVMNotFound, fmt.Sprintf("vm %s not found", req.VMName), nil)
	}

	jobID, err := s.idGen.GenerateSnapshotJobID()
	if err != nil {
		return nil, toAPIError(err)
	}
	job := &model.SnapshotJob{
		ID:        jobID,
		RequestID: requestID,
		VMName:    req.VMName,
		Label:     req.Label,
		State:     model.SnapshotJobStatePending,
		StartTime: time.Now(),
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, toAPIError(fmt.Errorf("save snapshot job: %w", err))
	}

	logger.Info().
		Str("snapshot_id", jobID).
		Str("vm", req.VMName).
		Str("label", req.Label).
		Msg("Creating snapshot")

	result, err := s.snapshotter.CreateSnapshot(ctx, requestID, vm, req.Label)
	if err != nil {
		apiErr := toAPIError(err)
		s.finish(ctx, job, model.SnapshotJobStateFailed, apiErr)
		logger.Error().Err(err).Str("snapshot_id", jobID).Msg("Failed to create snapshot")
		return nil, apiErr
	}

	job.SnapshotVMRef = string(result.SnapshotVM)
	job.VDIUUID = result.VDIUUID
	job.ParentVDIUUID = result.ParentVDIUUID
	s.finish(ctx, job, model.SnapshotJobStateCompleted, nil)

	logger.Info().
		Str("snapshot_id", jobID).
		Str("snapshot_vm", job.SnapshotVMRef).
		Strs("vdi_uuids", result.VDIUUIDs()).
		Msg("Snapshot created")

	if req.ImageName != "" {
		if apiErr := s.upload(ctx, requestID, job, req.ImageName); apiErr != nil {
			// 快照已经存在，调用方需要快照 ID 才能用 upload-image 重试
			return nil, apierror.WrapError(apiErr,
				fmt.Sprintf("snapshot %s created, upload of image %s failed: %s", job.ID, req.ImageName, apiErr.Message), apiErr)
		}
	}

	return snapshotJobModelToEntity(job)
}

// UploadImage 把已完成的快照上传为镜像
func (s *SnapshotService) UploadImage(ctx context.Context, req *entity.UploadImageRequest) (*entity.SnapshotJob, error) {
	ctx, requestID, err := s.withRequest(ctx)
	if err != nil {
		return nil, toAPIError(err)
	}

	job, err := s.jobRepo.GetByID(ctx, req.SnapshotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.WrapError(apierror.ErrSnapshotNotFound, fmt.Sprintf("snapshot %s not found", req.SnapshotID), err)
		}
		return nil, toAPIError(fmt.Errorf("get snapshot job %s: %w", req.SnapshotID, err))
	}
	if job.VDIUUID == "" {
		return nil, apierror.WrapError(apierror.ErrInvalidParameter,
			fmt.Sprintf("snapshot %s is %s and has no disks to upload", job.ID, job.State), nil)
	}

	if apiErr := s.upload(ctx, requestID, job, req.ImageName); apiErr != nil {
		return nil, apiErr
	}
	return snapshotJobModelToEntity(job)
}

// upload 上传快照磁盘，失败时快照本身仍然有效，只记录错误
func (s *SnapshotService) upload(ctx context.Context, requestID string, job *model.SnapshotJob, imageName string) *apierror.Error {
	logger := zerolog.Ctx(ctx)
	result := vmutil.SnapshotResult{VDIUUID: job.VDIUUID, ParentVDIUUID: job.ParentVDIUUID}

	if err := s.uploader.UploadImage(ctx, requestID, result.VDIUUIDs(), imageName); err != nil {
		apiErr := toAPIError(err)
		s.finish(ctx, job, job.State, apiErr)
		logger.Error().Err(err).Str("snapshot_id", job.ID).Str("image_name", imageName).Msg("Failed to upload image")
		return apiErr
	}

	job.ImageName = imageName
	s.finish(ctx, job, model.SnapshotJobStateUploaded, nil)
	logger.Info().Str("snapshot_id", job.ID).Str("image_name", imageName).Msg("Image uploaded")
	return nil
}

// finish 更新任务状态，记录失败原因
// 保存失败只记日志，不覆盖请求本身的结果
func (s *SnapshotService) finish(ctx context.Context, job *model.SnapshotJob, state string, apiErr *apierror.Error) {
	now := time.Now()
	job.State = state
	job.EndTime = &now
	job.ErrorCode, job.ErrorMessage = "", ""
	if apiErr != nil {
		job.ErrorCode = apiErr.Code
		job.ErrorMessage = apiErr.Message
	}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("snapshot_id", job.ID).Msg("Failed to save snapshot job")
	}
}

// DescribeSnapshots 查询快照任务
func (s *SnapshotService) DescribeSnapshots(ctx context.Context, req *entity.DescribeSnapshotsRequest) ([]entity.SnapshotJob, error) {
	filters := map[string]interface{}{}
	if len(req.SnapshotIDs) > 0 {
		filters["ids"] = req.SnapshotIDs
	}
	if req.VMName != "" {
		filters["vm_name"] = req.VMName
	}
	if req.State != "" {
		filters["state"] = req.State
	}

	jobs, err := s.jobRepo.List(ctx, filters)
	if err != nil {
		return nil, toAPIError(fmt.Errorf("list snapshot jobs: %w", err))
	}

	result := make([]entity.SnapshotJob, 0, len(jobs))
	for _, m := range jobs {
		e, err := snapshotJobModelToEntity(m)
		if err != nil {
			return nil, toAPIError(fmt.Errorf("convert snapshot job %s: %w", m.ID, err))
		}
		result = append(result, *e)
	}
	return result, nil
}
