package model

import (
	"time"

	"gorm.io/gorm"
)

// 快照任务状态
const (
	SnapshotJobStatePending   = "pending"
	SnapshotJobStateCompleted = "completed"
	SnapshotJobStateFailed    = "failed"
	SnapshotJobStateUploaded  = "uploaded"
)

// SnapshotJob 快照任务表，一次 create-snapshot 请求对应一条记录
type SnapshotJob struct {
	ID            string         `gorm:"primaryKey;type:text;column:id" json:"id"` // snap-{递增 ID}
	RequestID     string         `gorm:"type:text;not null;index:idx_snapshot_jobs_request_id;column:request_id" json:"requestID"`
	VMName        string         `gorm:"type:text;not null;index:idx_snapshot_jobs_vm_name;column:vm_name" json:"vmName"`
	Label         string         `gorm:"type:text;not null;column:label" json:"label"`
	State         string         `gorm:"type:text;not null;index:idx_snapshot_jobs_state;column:state" json:"state"` // pending, completed, failed, uploaded
	SnapshotVMRef string         `gorm:"type:text;column:snapshot_vm_ref" json:"snapshotVMRef"`
	VDIUUID       string         `gorm:"type:text;column:vdi_uuid" json:"vdiUUID"`
	ParentVDIUUID string         `gorm:"type:text;column:parent_vdi_uuid" json:"parentVDIUUID"`
	ImageName     string         `gorm:"type:text;column:image_name" json:"imageName"`
	ErrorCode     string         `gorm:"type:text;column:error_code" json:"errorCode"`
	ErrorMessage  string         `gorm:"type:text;column:error_message" json:"errorMessage"`
	StartTime     time.Time      `gorm:"type:datetime;not null;index:idx_snapshot_jobs_start_time;column:start_time" json:"startTime"`
	EndTime       *time.Time     `gorm:"type:datetime;column:end_time" json:"endTime,omitempty"`
	CreatedAt     time.Time      `gorm:"type:datetime;not null;column:created_at" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"type:datetime;index:idx_snapshot_jobs_deleted_at;column:deleted_at" json:"deleted_at,omitempty"` // 软删除
}

// TableName 指定表名
func (SnapshotJob) TableName() string {
	return "snapshot_jobs"
}
