package service

import (
	"context"
	"fmt"

	"github.com/jimyag/vdisnap/internal/vdisnap/entity"
	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
	"github.com/jimyag/vdisnap/pkg/apierror"
	"github.com/jimyag/vdisnap/pkg/hypervisor"
)

// VMService VM 查询服务
type VMService struct {
	session hypervisor.Session
}

// NewVMService 创建 VM 查询服务
func NewVMService(session hypervisor.Session) *VMService {
	return &VMService{session: session}
}

// DescribeVM 返回 VM 的概要信息
func (s *VMService) DescribeVM(ctx context.Context, req *entity.DescribeVMRequest) (*entity.VMInfo, error) {
	vm, err := vmutil.LookupVM(ctx, s.session, req.VMName)
	if err != nil {
		return nil, toAPIError(err)
	}
	if vm == "" {
		return nil, apierror.WrapError(apierror.ErrVMNotFound, fmt.Sprintf("vm %s not found", req.VMName), nil)
	}

	rec, err := s.session.GetVMRecord(ctx, vm)
	if err != nil {
		return nil, toAPIError(fmt.Errorf("get record of vm %s: %w", req.VMName, err))
	}

	info, err := vmInfoToEntity(req.VMName, rec.UUID, vmutil.CompileInfo(rec))
	if err != nil {
		return nil, toAPIError(err)
	}
	return info, nil
}
