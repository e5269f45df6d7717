package vmutil

import (
	"context"
	"fmt"

	"github.com/jimyag/vdisnap/pkg/hypervisor"
	"github.com/rs/zerolog"
)

// LookupVMVDIs 列出 VM 挂载的磁盘
//
// 单个 VBD 的磁盘或磁盘记录获取失败时（例如并发卸载）记录警告并跳过。
// 没有可用磁盘时返回 nil。
func LookupVMVDIs(ctx context.Context, session hypervisor.Session, vm hypervisor.VMRef) ([]hypervisor.VDIRef, error) {
	logger := zerolog.Ctx(ctx)

	vbds, err := session.GetVMVBDs(ctx, vm)
	if err != nil {
		return nil, fmt.Errorf("get vbds of vm %s: %w", vm, err)
	}

	var vdis []hypervisor.VDIRef
	for _, vbd := range vbds {
		vdi, err := session.GetVBDVDI(ctx, vbd)
		if err != nil {
			logger.Warn().Err(err).Str("vm", string(vm)).Str("vbd", string(vbd)).Msg("Skip VBD, failed to get VDI")
			continue
		}
		rec, err := session.GetVDIRecord(ctx, vdi)
		if err != nil {
			logger.Warn().Err(err).Str("vm", string(vm)).Str("vdi", string(vdi)).Msg("Skip VBD, failed to get VDI record")
			continue
		}
		logger.Debug().Str("vm", string(vm)).Str("vdi", string(vdi)).Str("vdi_uuid", rec.UUID).Msg("Found VDI")
		vdis = append(vdis, vdi)
	}

	if len(vdis) == 0 {
		return nil, nil
	}
	return vdis, nil
}

// LookupVM 按 name label 查找 VM
// 没有找到返回空引用，找到多个返回 ErrDuplicateName
func LookupVM(ctx context.Context, session hypervisor.Session, nameLabel string) (hypervisor.VMRef, error) {
	refs, err := session.Call(ctx, hypervisor.MethodVMGetByNameLabel, nameLabel)
	if err != nil {
		return "", fmt.Errorf("lookup vm %s: %w", nameLabel, err)
	}
	switch len(refs) {
	case 0:
		return "", nil
	case 1:
		return hypervisor.VMRef(refs[0]), nil
	default:
		return "", fmt.Errorf("lookup vm %s: %w (%d matches)", nameLabel, ErrDuplicateName, len(refs))
	}
}

// ScanSR 触发 SR 重新扫描并等待完成
func ScanSR(ctx context.Context, session hypervisor.Session, requestID string, sr hypervisor.SRRef) error {
	zerolog.Ctx(ctx).Debug().Str("request_id", requestID).Str("sr", string(sr)).Msg("Re-scanning SR")

	task, err := session.CallAsync(ctx, hypervisor.MethodAsyncSRScan, string(sr))
	if err != nil {
		return fmt.Errorf("scan sr %s: %w", sr, err)
	}
	if _, err := session.WaitForTask(ctx, requestID, task); err != nil {
		return fmt.Errorf("scan sr %s: %w", sr, err)
	}
	return nil
}

// 虚拟机状态
const (
	StateRunning  = "running"
	StatePaused   = "paused"
	StateShutdown = "shutdown"
	StateCrashed  = "crashed"
	StateUnknown  = "unknown"
)

var powerStates = map[string]string{
	hypervisor.PowerStateHalted:    StateShutdown,
	hypervisor.PowerStateRunning:   StateRunning,
	hypervisor.PowerStatePaused:    StatePaused,
	hypervisor.PowerStateSuspended: StateShutdown,
	hypervisor.PowerStateCrashed:   StateCrashed,
}

// VMInfo VM 的概要信息，内存单位为 KiB
type VMInfo struct {
	State    string `json:"state" yaml:"state"`
	MaxMemKB uint64 `json:"max_mem" yaml:"max_mem"`
	MemKB    uint64 `json:"mem" yaml:"mem"`
	NumCPU   uint16 `json:"num_cpu" yaml:"num_cpu"`
	CPUTime  uint64 `json:"cpu_time" yaml:"cpu_time"`
}

// CompileInfo 从 VM 记录生成概要信息
func CompileInfo(rec *hypervisor.VMRecord) VMInfo {
	state, ok := powerStates[rec.PowerState]
	if !ok {
		state = StateUnknown
	}
	return VMInfo{
		State:    state,
		MaxMemKB: rec.MemoryStaticMax >> 10,
		MemKB:    rec.MemoryDynamicMax >> 10,
		NumCPU:   rec.VCPUsMax,
	}
}
