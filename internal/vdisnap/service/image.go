package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimyag/vdisnap/internal/vdisnap/entity"
	"github.com/jimyag/vdisnap/pkg/apierror"
	"github.com/jimyag/vdisnap/pkg/imagestore"
)

// ImageService 查询镜像存储中已上传的镜像
type ImageService struct {
	store imagestore.Store
}

// NewImageService 创建镜像查询服务
func NewImageService(store imagestore.Store) *ImageService {
	return &ImageService{store: store}
}

// DescribeImages 列出镜像
// 只有清单已经写入的镜像才算上传完成
func (s *ImageService) DescribeImages(ctx context.Context, req *entity.DescribeImagesRequest) ([]entity.Image, error) {
	if s.store == nil {
		return nil, apierror.WrapError(apierror.ErrServiceUnavailable, "image store is not configured", nil)
	}

	if len(req.Names) > 0 {
		images := make([]entity.Image, 0, len(req.Names))
		for _, name := range req.Names {
			objects, err := s.store.List(ctx, name+"/")
			if err != nil {
				return nil, toAPIError(fmt.Errorf("list image %s: %w", name, err))
			}
			if img, ok := collectImages(ctx, objects)[name]; ok {
				images = append(images, *img)
			}
		}
		return images, nil
	}

	objects, err := s.store.List(ctx, "")
	if err != nil {
		return nil, toAPIError(fmt.Errorf("list images: %w", err))
	}
	byName := collectImages(ctx, objects)

	images := make([]entity.Image, 0, len(byName))
	for _, img := range byName {
		images = append(images, *img)
	}
	sort.Slice(images, func(i, j int) bool {
		return images[i].Name < images[j].Name
	})
	return images, nil
}

// collectImages 按镜像名称归并对象，没有清单的镜像被丢弃
func collectImages(ctx context.Context, objects []imagestore.ObjectInfo) map[string]*entity.Image {
	images := make(map[string]*entity.Image)
	complete := make(map[string]bool)

	get := func(name string) *entity.Image {
		img, ok := images[name]
		if !ok {
			img = &entity.Image{Name: name}
			images[name] = img
		}
		return img
	}

	for _, obj := range objects {
		if name, ok := imagestore.ParseManifestKey(obj.Key); ok {
			get(name).CreatedAt = obj.LastModified.Format(time.RFC3339)
			complete[name] = true
			continue
		}
		name, index, vdiUUID, ok := imagestore.ParseDiskKey(obj.Key)
		if !ok {
			zerolog.Ctx(ctx).Debug().Str("key", obj.Key).Msg("Skipping unknown object in image store")
			continue
		}
		img := get(name)
		img.Disks = append(img.Disks, entity.ImageDisk{
			Index:  index,
			UUID:   vdiUUID,
			Key:    obj.Key,
			Format: "qcow2",
			Size:   obj.Size,
		})
	}

	for name, img := range images {
		if !complete[name] {
			delete(images, name)
			continue
		}
		sort.Slice(img.Disks, func(i, j int) bool {
			return img.Disks[i].Index < img.Disks[j].Index
		})
	}
	return images
}
