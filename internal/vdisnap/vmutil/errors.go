package vmutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/jimyag/vdisnap/pkg/hypervisor"
)

var (
	// ErrNoDisksFound VM 没有挂载任何磁盘
	ErrNoDisksFound = errors.New("no disks found")
	// ErrUnexpectedDiskCount VM 挂载了多于一块磁盘
	ErrUnexpectedDiskCount = errors.New("unexpected disk count")
	// ErrDuplicateName 多个 VM 使用同一个 name label
	ErrDuplicateName = errors.New("duplicate name label")
	// ErrCoalesceTimeout 等待差分链合并超时
	ErrCoalesceTimeout = errors.New("coalesce timeout")
)

// PreconditionError 磁盘数量不满足快照前置条件
type PreconditionError struct {
	VM    hypervisor.VMRef
	Count int
	Err   error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("vm %s: %v (got %d, want 1)", e.VM, e.Err, e.Count)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// CoalesceTimeoutError 在最大等待时间或最大轮询次数内差分链没有稳定
type CoalesceTimeoutError struct {
	SR             hypervisor.SRRef
	VDI            hypervisor.VDIRef
	OriginalParent string
	LastParent     string
	Polls          int
	Waited         time.Duration
}

func (e *CoalesceTimeoutError) Error() string {
	return fmt.Sprintf("vdi %s in sr %s did not coalesce after %d polls (%s): parent %q, want %q",
		e.VDI, e.SR, e.Polls, e.Waited, e.LastParent, e.OriginalParent)
}

func (e *CoalesceTimeoutError) Is(target error) bool {
	return target == ErrCoalesceTimeout
}

var (
	_ error = (*PreconditionError)(nil)
	_ error = (*CoalesceTimeoutError)(nil)
)
