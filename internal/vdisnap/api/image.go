package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jimyag/vdisnap/internal/vdisnap/entity"
	"github.com/jimyag/vdisnap/pkg/ginx"
)

// ImageServiceInterface 定义镜像查询服务接口
type ImageServiceInterface interface {
	DescribeImages(ctx context.Context, req *entity.DescribeImagesRequest) ([]entity.Image, error)
}

type Image struct {
	imageService ImageServiceInterface
}

func (i *Image) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/describe-images", ginx.Adapt5(i.DescribeImages))
}

func (i *Image) DescribeImages(ctx *gin.Context, req *entity.DescribeImagesRequest) (*entity.DescribeImagesResponse, error) {
	images, err := i.imageService.DescribeImages(ctx.Request.Context(), req)
	if err != nil {
		return nil, err
	}
	return &entity.DescribeImagesResponse{Images: images}, nil
}
