package hypervisor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBackendCall 所有后端调用失败的哨兵错误
// Failure 和 TaskError 都可以通过 errors.Is 匹配它
var ErrBackendCall = errors.New("backend call failed")

// Failure 同步控制面调用失败
type Failure struct {
	Method  string
	Details []string
	Err     error
}

func (f *Failure) Error() string {
	str := fmt.Sprintf("%s failed", f.Method)
	if len(f.Details) > 0 {
		str += fmt.Sprintf(": [%s]", strings.Join(f.Details, ", "))
	}
	if f.Err != nil {
		str += fmt.Sprintf(": %v", f.Err)
	}
	return str
}

func (f *Failure) Is(target error) bool {
	return target == ErrBackendCall
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure 包装后端返回的错误
func NewFailure(method string, err error, details ...string) *Failure {
	return &Failure{Method: method, Details: details, Err: err}
}

// TaskError 异步任务以失败结束
type TaskError struct {
	Task      TaskRef
	Name      string
	RequestID string
	Details   []string
	Err       error
}

func (e *TaskError) Error() string {
	str := fmt.Sprintf("task %s (%s) failed", e.Task, e.Name)
	if e.RequestID != "" {
		str += fmt.Sprintf(" for request %s", e.RequestID)
	}
	if len(e.Details) > 0 {
		str += fmt.Sprintf(": [%s]", strings.Join(e.Details, ", "))
	}
	if e.Err != nil {
		str += fmt.Sprintf(": %v", e.Err)
	}
	return str
}

func (e *TaskError) Is(target error) bool {
	return target == ErrBackendCall
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// 编译时检查
var (
	_ error = (*Failure)(nil)
	_ error = (*TaskError)(nil)
)
