package vmutil

import (
	"context"
	"fmt"

	"github.com/jimyag/vdisnap/pkg/hypervisor"
	"github.com/rs/zerolog"
)

// VHDParentUUID 从存储配置中读取父磁盘 UUID
func VHDParentUUID(rec *hypervisor.VDIRecord) (string, bool) {
	if rec == nil || rec.SMConfig.VHDParent == "" {
		return "", false
	}
	return rec.SMConfig.VHDParent, true
}

// GetVHDParent 返回父磁盘的引用和记录，没有父磁盘时返回 nil
func GetVHDParent(ctx context.Context, session hypervisor.Session, rec *hypervisor.VDIRecord) (hypervisor.VDIRef, *hypervisor.VDIRecord, error) {
	parentUUID, ok := VHDParentUUID(rec)
	if !ok {
		return "", nil, nil
	}

	zerolog.Ctx(ctx).Debug().
		Str("vdi_uuid", rec.UUID).
		Str("parent_uuid", parentUUID).
		Msg("VHD has parent")

	parentRef, err := session.GetVDIByUUID(ctx, parentUUID)
	if err != nil {
		return "", nil, fmt.Errorf("get parent vdi %s: %w", parentUUID, err)
	}
	parentRec, err := session.GetVDIRecord(ctx, parentRef)
	if err != nil {
		return "", nil, fmt.Errorf("get parent vdi record %s: %w", parentRef, err)
	}
	return parentRef, parentRec, nil
}

// GetVHDParentUUID 获取磁盘当前的父磁盘 UUID，空字符串表示没有父磁盘
// 只读取 sm_config 中的父磁盘 UUID，不查询父磁盘记录：合并过程中
// 临时父磁盘可能已经被删除。不做重试，后端错误直接返回
func GetVHDParentUUID(ctx context.Context, session hypervisor.Session, vdi hypervisor.VDIRef) (string, error) {
	rec, err := session.GetVDIRecord(ctx, vdi)
	if err != nil {
		return "", fmt.Errorf("get vdi record %s: %w", vdi, err)
	}
	parentUUID, _ := VHDParentUUID(rec)
	return parentUUID, nil
}

// WalkVHDChain 从 rec 开始沿父磁盘向上遍历，返回链上的记录，第一个是 rec 自身
// 出错时返回已经走过的部分和错误
func WalkVHDChain(ctx context.Context, session hypervisor.Session, rec *hypervisor.VDIRecord) ([]*hypervisor.VDIRecord, error) {
	chain := []*hypervisor.VDIRecord{rec}
	seen := map[string]bool{rec.UUID: true}
	for cur := rec; ; {
		_, parent, err := GetVHDParent(ctx, session, cur)
		if err != nil {
			return chain, err
		}
		if parent == nil {
			return chain, nil
		}
		if seen[parent.UUID] {
			return chain, fmt.Errorf("vhd chain of %s loops at %s", rec.UUID, parent.UUID)
		}
		seen[parent.UUID] = true
		chain = append(chain, parent)
		cur = parent
	}
}
