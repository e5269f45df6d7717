package entity

import (
	"github.com/jimyag/vdisnap/pkg/apierror"
	"github.com/jimyag/vdisnap/pkg/imagestore"
)

// SnapshotJob 描述一次快照任务
type SnapshotJob struct {
	ID            string   `json:"id"`
	RequestID     string   `json:"request_id"`
	VMName        string   `json:"vm"`
	Label         string   `json:"label"`
	State         string   `json:"state"`
	SnapshotVMRef string   `json:"snapshot_vm_ref,omitempty"`
	VDIUUIDs      []string `json:"vdi_uuids,omitempty"`
	ImageName     string   `json:"image_name,omitempty"`
	ErrorCode     string   `json:"error_code,omitempty"`
	ErrorMessage  string   `json:"error_message,omitempty"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time,omitempty"`
}

// CreateSnapshotRequest 创建快照请求
// ImageName 不为空时，快照完成后继续上传镜像
type CreateSnapshotRequest struct {
	VMName    string `json:"vm" binding:"required"`
	Label     string `json:"label" binding:"required"`
	ImageName string `json:"image_name,omitempty"`
}

func (r *CreateSnapshotRequest) IsValid() error {
	if r.ImageName == "" {
		return nil
	}
	return validImageName(r.ImageName)
}

type CreateSnapshotResponse struct {
	SnapshotJob *SnapshotJob `json:"snapshot"`
}

// UploadImageRequest 把已完成的快照上传为镜像
type UploadImageRequest struct {
	SnapshotID string `json:"snapshot_id" binding:"required"`
	ImageName  string `json:"image_name" binding:"required"`
}

func (r *UploadImageRequest) IsValid() error {
	return validImageName(r.ImageName)
}

func validImageName(name string) error {
	if err := imagestore.ValidateImageName(name); err != nil {
		return apierror.WrapError(apierror.ErrInvalidParameter, err.Error(), err)
	}
	return nil
}

type UploadImageResponse struct {
	SnapshotJob *SnapshotJob `json:"snapshot"`
}

// DescribeSnapshotsRequest 查询快照任务，所有条件都为空时返回全部
type DescribeSnapshotsRequest struct {
	SnapshotIDs []string `json:"snapshot_ids,omitempty"`
	VMName      string   `json:"vm,omitempty"`
	State       string   `json:"state,omitempty"`
}

type DescribeSnapshotsResponse struct {
	Snapshots []SnapshotJob `json:"snapshots"`
}
