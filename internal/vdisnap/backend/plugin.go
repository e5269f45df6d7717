package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
	"github.com/jimyag/vdisnap/pkg/hypervisor"
	"github.com/jimyag/vdisnap/pkg/imagestore"
	"github.com/jimyag/vdisnap/pkg/qemuimg"
)

// 镜像插件错误码
const (
	ErrCodeInvalidParams = "PLUGIN_INVALID_PARAMS"
	ErrCodeUploadFailed  = "IMAGE_UPLOAD_FAILED"
	ErrCodeImageExists   = "IMAGE_ALREADY_EXISTS"
)

// ImagesPlugin 实现 images/put_vdis：把磁盘合并成独立的 qcow2 后上传
type ImagesPlugin struct {
	session   hypervisor.Session
	qemuImg   qemuimg.QemuImgClient
	openStore imagestore.Opener
	workDir   string
}

// NewImagesPlugin 创建镜像插件
func NewImagesPlugin(session hypervisor.Session, qi qemuimg.QemuImgClient, open imagestore.Opener, workDir string) *ImagesPlugin {
	return &ImagesPlugin{
		session:   session,
		qemuImg:   qi,
		openStore: open,
		workDir:   workDir,
	}
}

// Register 把插件函数注册到会话
func (p *ImagesPlugin) Register(s *Session) {
	s.RegisterPlugin(vmutil.ImagesPlugin, vmutil.PutVDIsFunction, p.PutVDIs)
}

// PutVDIs 上传磁盘和清单，返回镜像名称
func (p *ImagesPlugin) PutVDIs(ctx context.Context, args map[string]string) (string, error) {
	logger := zerolog.Ctx(ctx)

	var params vmutil.PutVDIsParams
	if err := json.Unmarshal([]byte(args[vmutil.PluginParamsKey]), &params); err != nil {
		return "", hypervisor.NewFailure("images.put_vdis", err, ErrCodeInvalidParams)
	}
	if params.ImageName == "" || len(params.VDIUUIDs) == 0 {
		return "", hypervisor.NewFailure("images.put_vdis", nil, ErrCodeInvalidParams, "image_name and vdi_uuids are required")
	}
	if err := imagestore.ValidateImageName(params.ImageName); err != nil {
		return "", hypervisor.NewFailure("images.put_vdis", err, ErrCodeInvalidParams, err.Error())
	}

	store, err := p.openStore(ctx, params.StoreHost, params.StorePort)
	if err != nil {
		return "", hypervisor.NewFailure("images.put_vdis", err, ErrCodeUploadFailed, params.ImageName)
	}
	exists, err := store.Exists(ctx, imagestore.ManifestKey(params.ImageName))
	if err != nil {
		return "", hypervisor.NewFailure("images.put_vdis", err, ErrCodeUploadFailed, params.ImageName)
	}
	if exists {
		return "", hypervisor.NewFailure("images.put_vdis", nil, ErrCodeImageExists, params.ImageName)
	}

	if err := os.MkdirAll(p.workDir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir %s: %w", p.workDir, err)
	}
	tmpDir, err := os.MkdirTemp(p.workDir, "put-vdis-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	manifest := imagestore.Manifest{
		ImageName: params.ImageName,
		CreatedAt: time.Now().UTC(),
	}
	for i, vdiUUID := range params.VDIUUIDs {
		disk, err := p.putVDI(ctx, store, tmpDir, params.ImageName, i, vdiUUID)
		if err != nil {
			return "", err
		}
		manifest.Disks = append(manifest.Disks, *disk)
		logger.Info().
			Str("image_name", params.ImageName).
			Str("vdi_uuid", vdiUUID).
			Str("key", disk.Key).
			Msg("VDI uploaded")
	}

	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	if err := store.Put(ctx, imagestore.ManifestKey(params.ImageName), bytes.NewReader(body), "application/json"); err != nil {
		return "", hypervisor.NewFailure("images.put_vdis", err, ErrCodeUploadFailed, params.ImageName)
	}

	return params.ImageName, nil
}

func (p *ImagesPlugin) putVDI(ctx context.Context, store imagestore.Store, tmpDir, imageName string, index int, vdiUUID string) (*imagestore.ManifestDisk, error) {
	ref, err := p.session.GetVDIByUUID(ctx, vdiUUID)
	if err != nil {
		return nil, err
	}
	src := string(ref)

	rec, err := p.session.GetVDIRecord(ctx, ref)
	if err != nil {
		return nil, err
	}
	parentUUID, _ := vmutil.VHDParentUUID(rec)
	// 链只用于记录，走不完不影响合并
	chain, err := vmutil.WalkVHDChain(ctx, p.session, rec)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("vdi_uuid", vdiUUID).Int("depth", len(chain)-1).Msg("Failed to walk VHD chain")
	}

	info, err := p.qemuImg.Info(ctx, src)
	if err != nil {
		return nil, hypervisor.NewFailure("images.put_vdis", err, ErrCodeUploadFailed, vdiUUID)
	}

	flat := filepath.Join(tmpDir, fmt.Sprintf("%d-%s.qcow2", index, vdiUUID))
	if err := p.qemuImg.Convert(ctx, info.Format, "qcow2", src, flat); err != nil {
		return nil, hypervisor.NewFailure("images.put_vdis", err, ErrCodeUploadFailed, vdiUUID)
	}
	if err := p.qemuImg.Check(ctx, flat, "qcow2"); err != nil {
		return nil, hypervisor.NewFailure("images.put_vdis", err, ErrCodeUploadFailed, vdiUUID)
	}

	f, err := os.Open(flat)
	if err != nil {
		return nil, fmt.Errorf("open flattened image %s: %w", flat, err)
	}
	defer f.Close()

	key := imagestore.DiskKey(imageName, index, vdiUUID)
	if err := store.Put(ctx, key, f, "application/octet-stream"); err != nil {
		return nil, hypervisor.NewFailure("images.put_vdis", err, ErrCodeUploadFailed, vdiUUID)
	}

	return &imagestore.ManifestDisk{
		Index:       index,
		UUID:        vdiUUID,
		ParentUUID:  parentUUID,
		ChainDepth:  len(chain) - 1,
		Key:         key,
		Format:      "qcow2",
		VirtualSize: info.VirtualSize,
	}, nil
}
