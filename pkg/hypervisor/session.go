package hypervisor

import "context"

// Session 控制面会话
// 所有方法都是不透明的 RPC 风格调用，线协议由实现决定
type Session interface {
	// Call 同步调用控制面方法，可能立即失败
	Call(ctx context.Context, method string, args ...string) ([]string, error)
	// CallAsync 发起异步调用，返回后台任务句柄
	CallAsync(ctx context.Context, method string, args ...string) (TaskRef, error)
	// CallPluginAsync 异步调用后端插件函数
	CallPluginAsync(ctx context.Context, plugin, fn string, args map[string]string) (TaskRef, error)
	// WaitForTask 挂起调用方直到任务结束
	// 任务失败时返回 *TaskError，携带后端的错误内容
	WaitForTask(ctx context.Context, requestID string, task TaskRef) (string, error)

	GetVDIRecord(ctx context.Context, vdi VDIRef) (*VDIRecord, error)
	GetVDIByUUID(ctx context.Context, uuid string) (VDIRef, error)
	GetVMRecord(ctx context.Context, vm VMRef) (*VMRecord, error)
	GetVMVBDs(ctx context.Context, vm VMRef) ([]VBDRef, error)
	GetVBDVDI(ctx context.Context, vbd VBDRef) (VDIRef, error)
}
