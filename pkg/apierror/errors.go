package apierror

import "net/http"

// 客户端错误
var (
	// ErrInvalidParameter 请求参数缺失或格式错误
	ErrInvalidParameter = &Error{
		Code:       "InvalidParameterValue",
		Message:    "A parameter specified in the request is not valid.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrInvalidVMDiskCount VM 挂载的磁盘数量不是 1
	ErrInvalidVMDiskCount = &Error{
		Code:       "InvalidVM.DiskCount",
		Message:    "The VM must have exactly one disk attached.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrVMNotFound VM 不存在
	ErrVMNotFound = &Error{
		Code:       "InvalidVM.NotFound",
		Message:    "The specified VM does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrVMNameDuplicate 同名 VM 不止一个
	ErrVMNameDuplicate = &Error{
		Code:       "InvalidVM.Duplicate",
		Message:    "More than one VM matches the specified name.",
		HTTPStatus: http.StatusConflict,
	}

	// ErrSnapshotNotFound 快照任务记录不存在
	ErrSnapshotNotFound = &Error{
		Code:       "InvalidSnapshot.NotFound",
		Message:    "The specified snapshot does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrTaskNotFound 后台任务不存在或已被清理
	ErrTaskNotFound = &Error{
		Code:       "InvalidTask.NotFound",
		Message:    "The specified task does not exist.",
		HTTPStatus: http.StatusNotFound,
	}
)

// 服务端错误
var (
	// ErrCoalesceTimeout 等待差分链合并超时
	ErrCoalesceTimeout = &Error{
		Code:       "CoalesceTimeout",
		Message:    "The disk chain did not settle before the deadline.",
		HTTPStatus: http.StatusGatewayTimeout,
	}

	// ErrBackendCallFailed 控制面调用或后端任务失败
	ErrBackendCallFailed = &Error{
		Code:       "BackendCallFailed",
		Message:    "A call to the virtualization backend failed.",
		HTTPStatus: http.StatusBadGateway,
	}

	// ErrInternalError 发生了内部错误
	ErrInternalError = &Error{
		Code:       "InternalError",
		Message:    "An internal error has occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}

	// ErrServiceUnavailable 服务暂时不可用
	ErrServiceUnavailable = &Error{
		Code:       "ServiceUnavailable",
		Message:    "The request has failed due to a temporary failure of the server.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
