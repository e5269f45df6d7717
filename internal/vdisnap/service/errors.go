package service

import (
	"errors"

	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
	"github.com/jimyag/vdisnap/pkg/apierror"
	"github.com/jimyag/vdisnap/pkg/hypervisor"
)

// toAPIError 把核心错误映射为 API 错误，保留原始错误链
func toAPIError(err error) *apierror.Error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var precondition *vmutil.PreconditionError
	switch {
	case errors.As(err, &precondition):
		return apierror.WrapError(apierror.ErrInvalidVMDiskCount, err.Error(), err)
	case errors.Is(err, vmutil.ErrDuplicateName):
		return apierror.WrapError(apierror.ErrVMNameDuplicate, err.Error(), err)
	case errors.Is(err, vmutil.ErrCoalesceTimeout):
		return apierror.WrapError(apierror.ErrCoalesceTimeout, err.Error(), err)
	case errors.Is(err, hypervisor.ErrBackendCall):
		return apierror.WrapError(apierror.ErrBackendCallFailed, err.Error(), err)
	default:
		return apierror.WrapError(apierror.ErrInternalError, err.Error(), err)
	}
}
