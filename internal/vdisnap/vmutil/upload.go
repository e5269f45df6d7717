package vmutil

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jimyag/vdisnap/pkg/hypervisor"
	"github.com/rs/zerolog"
)

const (
	ImagesPlugin    = "images"
	PutVDIsFunction = "put_vdis"
	PluginParamsKey = "params"
)

// PutVDIsParams images/put_vdis 插件的参数
type PutVDIsParams struct {
	VDIUUIDs  []string `json:"vdi_uuids"`
	ImageName string   `json:"image_name"`
	StoreHost string   `json:"store_host"`
	StorePort int      `json:"store_port"`
}

// Uploader 把快照磁盘交给镜像插件打包上传
type Uploader struct {
	session   hypervisor.Session
	storeHost string
	storePort int
}

// NewUploader 创建上传器
func NewUploader(session hypervisor.Session, storeHost string, storePort int) *Uploader {
	return &Uploader{
		session:   session,
		storeHost: storeHost,
		storePort: storePort,
	}
}

// UploadImage 上传磁盘并等待插件任务结束，任务失败原样返回
func (u *Uploader) UploadImage(ctx context.Context, requestID string, vdiUUIDs []string, imageName string) error {
	zerolog.Ctx(ctx).Debug().
		Str("request_id", requestID).
		Strs("vdi_uuids", vdiUUIDs).
		Str("image_name", imageName).
		Msg("Asking backend to upload image")

	params, err := json.Marshal(PutVDIsParams{
		VDIUUIDs:  vdiUUIDs,
		ImageName: imageName,
		StoreHost: u.storeHost,
		StorePort: u.storePort,
	})
	if err != nil {
		return fmt.Errorf("marshal upload params: %w", err)
	}

	task, err := u.session.CallPluginAsync(ctx, ImagesPlugin, PutVDIsFunction, map[string]string{
		PluginParamsKey: string(params),
	})
	if err != nil {
		return fmt.Errorf("upload image %s: %w", imageName, err)
	}
	if _, err := u.session.WaitForTask(ctx, requestID, task); err != nil {
		return fmt.Errorf("upload image %s: %w", imageName, err)
	}
	return nil
}
