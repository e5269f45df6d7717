package vmutil

import (
	"context"
	"fmt"

	"github.com/jimyag/vdisnap/pkg/hypervisor"
	"github.com/rs/zerolog"
)

// SnapshotResult 一次成功快照的结果，所有权交给调用方
type SnapshotResult struct {
	SnapshotVM    hypervisor.VMRef `json:"snapshot_vm_ref"`
	VDIUUID       string           `json:"vdi_uuid"`
	ParentVDIUUID string           `json:"parent_vdi_uuid,omitempty"`
}

// VDIUUIDs 返回 [快照磁盘 UUID, 父磁盘 UUID]，没有父磁盘时省略
func (r *SnapshotResult) VDIUUIDs() []string {
	uuids := []string{r.VDIUUID}
	if r.ParentVDIUUID != "" {
		uuids = append(uuids, r.ParentVDIUUID)
	}
	return uuids
}

// Snapshotter 快照编排器
type Snapshotter struct {
	session hypervisor.Session
	watcher *CoalesceWatcher
}

// NewSnapshotter 创建快照编排器
func NewSnapshotter(session hypervisor.Session, watcher *CoalesceWatcher) *Snapshotter {
	if watcher == nil {
		watcher = NewCoalesceWatcher(session)
	}
	return &Snapshotter{
		session: session,
		watcher: watcher,
	}
}

// CreateSnapshot 为只挂载一块磁盘的 VM 创建快照（模板 VM），并等待差分链合并
//
// 任何一步失败都会中止整个流程，不清理已经创建的快照。
func (s *Snapshotter) CreateSnapshot(ctx context.Context, requestID string, vm hypervisor.VMRef, label string) (*SnapshotResult, error) {
	logger := zerolog.Ctx(ctx).With().
		Str("request_id", requestID).
		Str("vm", string(vm)).
		Logger()

	logger.Debug().Str("label", label).Msg("Snapshotting VM")

	vdis, err := LookupVMVDIs(ctx, s.session, vm)
	if err != nil {
		return nil, err
	}
	switch len(vdis) {
	case 0:
		return nil, &PreconditionError{VM: vm, Count: 0, Err: ErrNoDisksFound}
	case 1:
	default:
		return nil, &PreconditionError{VM: vm, Count: len(vdis), Err: ErrUnexpectedDiskCount}
	}

	vdi := vdis[0]
	rec, err := s.session.GetVDIRecord(ctx, vdi)
	if err != nil {
		return nil, fmt.Errorf("get vdi record %s of vm %s: %w", vdi, vm, err)
	}

	originalParent, err := GetVHDParentUUID(ctx, s.session, vdi)
	if err != nil {
		return nil, fmt.Errorf("resolve parent of vdi %s: %w", rec.UUID, err)
	}

	task, err := s.session.CallAsync(ctx, hypervisor.MethodAsyncVMSnapshot, string(vm), label)
	if err != nil {
		return nil, fmt.Errorf("snapshot vm %s: %w", vm, err)
	}
	templateVM, err := s.session.WaitForTask(ctx, requestID, task)
	if err != nil {
		return nil, fmt.Errorf("snapshot vm %s (vdi %s): %w", vm, rec.UUID, err)
	}

	logger.Debug().Str("snapshot_vm", templateVM).Msg("Created snapshot from VM")

	parent, err := s.watcher.Wait(ctx, requestID, rec.SR, vdi, originalParent)
	if err != nil {
		return nil, fmt.Errorf("wait for coalesce of vdi %s: %w", rec.UUID, err)
	}

	return &SnapshotResult{
		SnapshotVM:    hypervisor.VMRef(templateVM),
		VDIUUID:       rec.UUID,
		ParentVDIUUID: parent,
	}, nil
}
