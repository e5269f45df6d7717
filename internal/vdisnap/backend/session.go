package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jimyag/vdisnap/pkg/hypervisor"
	"github.com/jimyag/vdisnap/pkg/libvirt"
	"github.com/jimyag/vdisnap/pkg/qemuimg"
)

// 后端错误码，沿用 XenAPI 的命名
const (
	ErrCodeHandleInvalid    = "HANDLE_INVALID"
	ErrCodeUUIDInvalid      = "UUID_INVALID"
	ErrCodeMethodUnknown    = "MESSAGE_METHOD_UNKNOWN"
	ErrCodeParamCount       = "MESSAGE_PARAMETER_COUNT_MISMATCH"
	ErrCodeUnknownPlugin    = "XENAPI_MISSING_PLUGIN"
	ErrCodeSRBackendFailure = "SR_BACKEND_FAILURE"
	ErrCodeSnapshotFailed   = "VM_SNAPSHOT_FAILED"
)

// volumeNamespace 卷 UUID 的命名空间
var volumeNamespace = uuid.MustParse("8c4f2e1a-6d3b-4f7a-9e2c-1b5d7a3f6e90")

// VolumeUUID 由卷 key 生成稳定的 UUID
func VolumeUUID(key string) string {
	return uuid.NewSHA1(volumeNamespace, []byte(key)).String()
}

// SnapshotVMRef 快照（模板 VM）的引用
func SnapshotVMRef(domain, snapshot string) hypervisor.VMRef {
	return hypervisor.VMRef(domain + "@" + snapshot)
}

// PluginFunc 后端插件函数
type PluginFunc func(ctx context.Context, args map[string]string) (string, error)

// Session libvirt 实现的控制面会话
type Session struct {
	libvirt libvirt.LibvirtClient
	qemuImg qemuimg.QemuImgClient
	tasks   *hypervisor.TaskManager

	mu      sync.RWMutex
	plugins map[string]PluginFunc
	// byUUID 缓存已经见过的卷 UUID 到路径的映射
	byUUID map[string]hypervisor.VDIRef
}

// NewSession 创建会话
func NewSession(lv libvirt.LibvirtClient, qi qemuimg.QemuImgClient, tasks *hypervisor.TaskManager) *Session {
	if tasks == nil {
		tasks = hypervisor.NewTaskManager()
	}
	return &Session{
		libvirt: lv,
		qemuImg: qi,
		tasks:   tasks,
		plugins: make(map[string]PluginFunc),
		byUUID:  make(map[string]hypervisor.VDIRef),
	}
}

// RegisterPlugin 注册插件函数
func (s *Session) RegisterPlugin(plugin, fn string, f PluginFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plugins[plugin+"/"+fn] = f
}

// Tasks 返回会话使用的任务管理器
func (s *Session) Tasks() *hypervisor.TaskManager {
	return s.tasks
}

// Call 同步调用
func (s *Session) Call(ctx context.Context, method string, args ...string) ([]string, error) {
	switch method {
	case hypervisor.MethodVMGetByNameLabel:
		if len(args) != 1 {
			return nil, hypervisor.NewFailure(method, nil, ErrCodeParamCount, method, "1", fmt.Sprint(len(args)))
		}
		domain, err := s.libvirt.GetDomainByName(args[0])
		if err != nil {
			if errors.Is(err, libvirt.ErrNotFound) {
				return []string{}, nil
			}
			return nil, hypervisor.NewFailure(method, err)
		}
		return []string{domain.Name}, nil
	default:
		return nil, hypervisor.NewFailure(method, nil, ErrCodeMethodUnknown, method)
	}
}

// CallAsync 异步调用，返回任务句柄
func (s *Session) CallAsync(ctx context.Context, method string, args ...string) (hypervisor.TaskRef, error) {
	var fn hypervisor.TaskFunc
	switch method {
	case hypervisor.MethodAsyncVMSnapshot:
		if len(args) != 2 {
			return "", hypervisor.NewFailure(method, nil, ErrCodeParamCount, method, "2", fmt.Sprint(len(args)))
		}
		vm, label := args[0], args[1]
		fn = func(ctx context.Context) (string, error) {
			return s.snapshotVM(ctx, vm, label)
		}
	case hypervisor.MethodAsyncSRScan:
		if len(args) != 1 {
			return "", hypervisor.NewFailure(method, nil, ErrCodeParamCount, method, "1", fmt.Sprint(len(args)))
		}
		sr := args[0]
		fn = func(ctx context.Context) (string, error) {
			if err := s.libvirt.RefreshStoragePool(sr); err != nil {
				return "", hypervisor.NewFailure(method, err, ErrCodeSRBackendFailure, sr)
			}
			return "", nil
		}
	default:
		return "", hypervisor.NewFailure(method, nil, ErrCodeMethodUnknown, method)
	}

	return s.tasks.Submit(ctx, method, fn)
}

func (s *Session) snapshotVM(ctx context.Context, vm, label string) (string, error) {
	snap, err := s.libvirt.CreateDiskOnlySnapshot(vm, label)
	if err != nil {
		return "", hypervisor.NewFailure(hypervisor.MethodAsyncVMSnapshot, err, ErrCodeSnapshotFailed, vm, label)
	}
	zerolog.Ctx(ctx).Info().
		Str("vm", vm).
		Str("snapshot", snap.Name).
		Interface("overlays", snap.Disks).
		Msg("Disk-only snapshot created")
	return string(SnapshotVMRef(vm, snap.Name)), nil
}

// CallPluginAsync 异步调用插件
func (s *Session) CallPluginAsync(ctx context.Context, plugin, fn string, args map[string]string) (hypervisor.TaskRef, error) {
	s.mu.RLock()
	f, ok := s.plugins[plugin+"/"+fn]
	s.mu.RUnlock()
	if !ok {
		return "", hypervisor.NewFailure("host.call_plugin", nil, ErrCodeUnknownPlugin, plugin, fn)
	}

	return s.tasks.Submit(ctx, plugin+"."+fn, func(ctx context.Context) (string, error) {
		return f(ctx, args)
	})
}

// WaitForTask 等待任务结束
func (s *Session) WaitForTask(ctx context.Context, requestID string, task hypervisor.TaskRef) (string, error) {
	return s.tasks.Wait(ctx, requestID, task)
}

// GetVDIRecord 获取卷记录
func (s *Session) GetVDIRecord(ctx context.Context, vdi hypervisor.VDIRef) (*hypervisor.VDIRecord, error) {
	vol, err := s.libvirt.LookupVolumeByPath(string(vdi))
	if err != nil {
		return nil, hypervisor.NewFailure("VDI.get_record", err, ErrCodeHandleInvalid, "VDI", string(vdi))
	}

	rec := &hypervisor.VDIRecord{
		Ref:      vdi,
		UUID:     VolumeUUID(vol.Key),
		SR:       hypervisor.SRRef(vol.Pool),
		Location: vol.Path,
	}
	s.remember(rec.UUID, vdi)

	parentPath, err := s.backingPath(ctx, vol)
	if err != nil {
		return nil, hypervisor.NewFailure("VDI.get_record", err, ErrCodeSRBackendFailure, string(vdi))
	}
	if parentPath != "" {
		parentKey := parentPath
		if parent, err := s.libvirt.LookupVolumeByPath(parentPath); err == nil {
			parentKey = parent.Key
		}
		rec.SMConfig.VHDParent = VolumeUUID(parentKey)
		s.remember(rec.SMConfig.VHDParent, hypervisor.VDIRef(parentPath))
	}

	return rec, nil
}

// backingPath 返回卷的父卷路径
func (s *Session) backingPath(ctx context.Context, vol *libvirt.VolumeInfo) (string, error) {
	if vol.BackingPath != "" {
		return vol.BackingPath, nil
	}
	if vol.Format != "qcow2" || s.qemuImg == nil {
		return "", nil
	}
	info, err := s.qemuImg.Info(ctx, vol.Path)
	if err != nil {
		return "", err
	}
	return info.BackingFile(), nil
}

func (s *Session) remember(id string, ref hypervisor.VDIRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUUID[id] = ref
}

// GetVDIByUUID 按 UUID 查找卷
// 先查缓存，没有时扫描所有存储池
func (s *Session) GetVDIByUUID(ctx context.Context, id string) (hypervisor.VDIRef, error) {
	s.mu.RLock()
	ref, ok := s.byUUID[id]
	s.mu.RUnlock()
	if ok {
		return ref, nil
	}

	pools, err := s.libvirt.ListStoragePools()
	if err != nil {
		return "", hypervisor.NewFailure("VDI.get_by_uuid", err)
	}
	for _, pool := range pools {
		vols, err := s.libvirt.ListVolumes(pool.Name)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("pool", pool.Name).Msg("Failed to list volumes")
			continue
		}
		for _, vol := range vols {
			volUUID := VolumeUUID(vol.Key)
			s.remember(volUUID, hypervisor.VDIRef(vol.Path))
			if volUUID == id {
				return hypervisor.VDIRef(vol.Path), nil
			}
		}
	}
	return "", hypervisor.NewFailure("VDI.get_by_uuid", nil, ErrCodeUUIDInvalid, "VDI", id)
}

// GetVMRecord 获取 VM 记录
func (s *Session) GetVMRecord(ctx context.Context, vm hypervisor.VMRef) (*hypervisor.VMRecord, error) {
	info, err := s.libvirt.GetDomainInfo(string(vm))
	if err != nil {
		return nil, hypervisor.NewFailure("VM.get_record", err, ErrCodeHandleInvalid, "VM", string(vm))
	}
	return &hypervisor.VMRecord{
		Ref:              vm,
		UUID:             info.UUID,
		NameLabel:        info.Name,
		PowerState:       powerState(info.State),
		MemoryStaticMax:  info.MaxMemory << 10,
		MemoryDynamicMax: info.Memory << 10,
		VCPUsMax:         info.VCPUs,
	}, nil
}

// powerState 把 libvirt 状态映射为 Xen 风格的电源状态
func powerState(state string) string {
	switch state {
	case "Running", "Blocked", "ShuttingDown":
		return hypervisor.PowerStateRunning
	case "Paused":
		return hypervisor.PowerStatePaused
	case "PMSuspended":
		return hypervisor.PowerStateSuspended
	case "Crashed":
		return hypervisor.PowerStateCrashed
	default:
		return hypervisor.PowerStateHalted
	}
}

// GetVMVBDs 列出 VM 的磁盘设备
func (s *Session) GetVMVBDs(ctx context.Context, vm hypervisor.VMRef) ([]hypervisor.VBDRef, error) {
	disks, err := s.libvirt.GetDomainDisks(string(vm))
	if err != nil {
		return nil, hypervisor.NewFailure("VM.get_VBDs", err, ErrCodeHandleInvalid, "VM", string(vm))
	}

	var vbds []hypervisor.VBDRef
	for _, d := range disks {
		if !d.IsDisk() {
			continue
		}
		vbds = append(vbds, hypervisor.VBDRef(string(vm)+"/"+d.Target.Dev))
	}
	return vbds, nil
}

// GetVBDVDI 获取磁盘设备对应的卷
func (s *Session) GetVBDVDI(ctx context.Context, vbd hypervisor.VBDRef) (hypervisor.VDIRef, error) {
	vm, dev, ok := strings.Cut(string(vbd), "/")
	if !ok {
		return "", hypervisor.NewFailure("VBD.get_VDI", nil, ErrCodeHandleInvalid, "VBD", string(vbd))
	}

	disks, err := s.libvirt.GetDomainDisks(vm)
	if err != nil {
		return "", hypervisor.NewFailure("VBD.get_VDI", err, ErrCodeHandleInvalid, "VBD", string(vbd))
	}
	for _, d := range disks {
		if d.Target.Dev == dev && d.SourcePath() != "" {
			return hypervisor.VDIRef(d.SourcePath()), nil
		}
	}
	return "", hypervisor.NewFailure("VBD.get_VDI", nil, ErrCodeHandleInvalid, "VBD", string(vbd))
}

var _ hypervisor.Session = (*Session)(nil)
