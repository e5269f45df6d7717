// Package service 提供业务逻辑层的服务实现
package service

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/jimyag/vdisnap/internal/vdisnap/entity"
	"github.com/jimyag/vdisnap/internal/vdisnap/repository/model"
	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
)

// snapshotJobModelToEntity 将 model.SnapshotJob 转换为 entity.SnapshotJob
func snapshotJobModelToEntity(m *model.SnapshotJob) (*entity.SnapshotJob, error) {
	e := &entity.SnapshotJob{}
	if err := copier.Copy(e, m); err != nil {
		return nil, err
	}

	if m.VDIUUID != "" {
		result := vmutil.SnapshotResult{VDIUUID: m.VDIUUID, ParentVDIUUID: m.ParentVDIUUID}
		e.VDIUUIDs = result.VDIUUIDs()
	}

	// 处理时间字段
	e.StartTime = m.StartTime.Format(time.RFC3339)
	if m.EndTime != nil {
		e.EndTime = m.EndTime.Format(time.RFC3339)
	}
	return e, nil
}

// vmInfoToEntity 将 VM 概要信息转换为 entity.VMInfo
func vmInfoToEntity(name, uuid string, info vmutil.VMInfo) (*entity.VMInfo, error) {
	e := &entity.VMInfo{}
	if err := copier.Copy(e, &info); err != nil {
		return nil, err
	}
	e.Name = name
	e.UUID = uuid
	return e, nil
}
