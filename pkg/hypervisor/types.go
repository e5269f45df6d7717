// Package hypervisor 定义控制面会话（Session）契约、记录类型和异步任务桥
//
// 核心逻辑只依赖这里的接口，具体的后端（如 libvirt）在构造时注入，
// 不存在进程级的全局后端句柄。
package hypervisor

// 后端对象的不透明引用
type (
	VMRef   string
	VBDRef  string
	VDIRef  string
	SRRef   string
	TaskRef string
)

// SMConfigVHDParent 存储后端配置中指向父 VHD 的 key
const SMConfigVHDParent = "vhd-parent"

// SMConfig 存储后端对磁盘的配置
// 只保留核心需要读取的字段
type SMConfig struct {
	// VHDParent 父磁盘的 UUID，为空表示链的根
	VHDParent string `json:"vhd-parent,omitempty"`
}

// VDIRecord 虚拟磁盘记录
type VDIRecord struct {
	Ref      VDIRef   `json:"ref"`
	UUID     string   `json:"uuid"`
	SR       SRRef    `json:"SR"`
	Location string   `json:"location,omitempty"`
	SMConfig SMConfig `json:"sm_config"`
}

// VMRecord 虚拟机记录
type VMRecord struct {
	Ref              VMRef  `json:"ref"`
	UUID             string `json:"uuid"`
	NameLabel        string `json:"name_label"`
	PowerState       string `json:"power_state"`
	MemoryStaticMax  uint64 `json:"memory_static_max"`  // bytes
	MemoryDynamicMax uint64 `json:"memory_dynamic_max"` // bytes
	VCPUsMax         uint16 `json:"VCPUs_max"`
	IsSnapshot       bool   `json:"is_a_snapshot"`
}

// 控制面方法名
const (
	MethodVMGetByNameLabel = "VM.get_by_name_label"
	MethodAsyncVMSnapshot  = "Async.VM.snapshot"
	MethodAsyncSRScan      = "Async.SR.scan"
)

// Xen 风格的电源状态
const (
	PowerStateHalted    = "Halted"
	PowerStateRunning   = "Running"
	PowerStatePaused    = "Paused"
	PowerStateSuspended = "Suspended"
	PowerStateCrashed   = "Crashed"
)
