package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jimyag/vdisnap/internal/vdisnap/entity"
	"github.com/jimyag/vdisnap/pkg/ginx"
)

// VMServiceInterface 定义 VM 查询服务接口
type VMServiceInterface interface {
	DescribeVM(ctx context.Context, req *entity.DescribeVMRequest) (*entity.VMInfo, error)
}

type VM struct {
	vmService VMServiceInterface
}

func (v *VM) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/describe-vm", ginx.Adapt5(v.DescribeVM))
}

func (v *VM) DescribeVM(ctx *gin.Context, req *entity.DescribeVMRequest) (*entity.DescribeVMResponse, error) {
	info, err := v.vmService.DescribeVM(ctx.Request.Context(), req)
	if err != nil {
		return nil, err
	}
	return &entity.DescribeVMResponse{VM: info}, nil
}
