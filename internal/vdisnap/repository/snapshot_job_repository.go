package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jimyag/vdisnap/internal/vdisnap/repository/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// SnapshotJobRepository 快照任务仓库接口
type SnapshotJobRepository interface {
	Create(ctx context.Context, job *model.SnapshotJob) error
	GetByID(ctx context.Context, id string) (*model.SnapshotJob, error)
	List(ctx context.Context, filters map[string]interface{}) ([]*model.SnapshotJob, error)
	Update(ctx context.Context, job *model.SnapshotJob) error
}

type snapshotJobRepository struct {
	db *gorm.DB
}

// NewSnapshotJobRepository 创建快照任务仓库
func NewSnapshotJobRepository(db *gorm.DB) SnapshotJobRepository {
	return &snapshotJobRepository{db: db}
}

// Create 创建快照任务
func (r *snapshotJobRepository) Create(ctx context.Context, job *model.SnapshotJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID 根据 ID 获取快照任务
func (r *snapshotJobRepository) GetByID(ctx context.Context, id string) (*model.SnapshotJob, error) {
	var job model.SnapshotJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// List 列出快照任务，按开始时间倒序
// 支持的过滤器：ids ([]string)、vm_name、state
func (r *snapshotJobRepository) List(ctx context.Context, filters map[string]interface{}) ([]*model.SnapshotJob, error) {
	var jobs []*model.SnapshotJob
	query := r.db.WithContext(ctx).Model(&model.SnapshotJob{})

	if ids, ok := filters["ids"]; ok {
		query = query.Where("id IN ?", ids)
	}
	if vmName, ok := filters["vm_name"]; ok {
		query = query.Where("vm_name = ?", vmName)
	}
	if state, ok := filters["state"]; ok {
		query = query.Where("state = ?", state)
	}

	if err := query.Order("start_time DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Update 更新快照任务
func (r *snapshotJobRepository) Update(ctx context.Context, job *model.SnapshotJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}
