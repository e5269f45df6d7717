package imagestore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 镜像在存储中的布局：
//
//	<image>/manifest.json
//	<image>/<index>-<vdi uuid>.qcow2

const (
	manifestName = "manifest.json"
	diskSuffix   = ".qcow2"
)

// Manifest 镜像清单
type Manifest struct {
	ImageName string         `json:"image_name"`
	CreatedAt time.Time      `json:"created_at"`
	Disks     []ManifestDisk `json:"disks"`
}

// ManifestDisk 清单中的一块磁盘，index 0 为快照磁盘，之后是父磁盘
// ChainDepth 是合并进这块磁盘的父磁盘层数
type ManifestDisk struct {
	Index       int    `json:"index"`
	UUID        string `json:"uuid"`
	ParentUUID  string `json:"parent_uuid,omitempty"`
	ChainDepth  int    `json:"chain_depth"`
	Key         string `json:"key"`
	Format      string `json:"format"`
	VirtualSize uint64 `json:"virtual_size"`
}

// ValidateImageName 镜像名称作为 key 的第一段，不能为空，不能包含 /
func ValidateImageName(name string) error {
	switch {
	case name == "":
		return errors.New("image name is empty")
	case strings.Contains(name, "/"):
		return fmt.Errorf("image name %q must not contain '/'", name)
	case name == "." || name == "..":
		return fmt.Errorf("image name %q is reserved", name)
	}
	return nil
}

// ManifestKey 镜像清单的 key
func ManifestKey(imageName string) string {
	return imageName + "/" + manifestName
}

// DiskKey 镜像中第 index 块磁盘的 key
func DiskKey(imageName string, index int, vdiUUID string) string {
	return fmt.Sprintf("%s/%d-%s%s", imageName, index, vdiUUID, diskSuffix)
}

// ParseManifestKey 从清单 key 中解析镜像名称
func ParseManifestKey(key string) (string, bool) {
	name, ok := strings.CutSuffix(key, "/"+manifestName)
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// ParseDiskKey 解析 DiskKey 生成的 key
func ParseDiskKey(key string) (imageName string, index int, vdiUUID string, ok bool) {
	imageName, file, found := strings.Cut(key, "/")
	if !found || imageName == "" {
		return "", 0, "", false
	}
	file, found = strings.CutSuffix(file, diskSuffix)
	if !found {
		return "", 0, "", false
	}
	idx, id, found := strings.Cut(file, "-")
	if !found || id == "" {
		return "", 0, "", false
	}
	index, err := strconv.Atoi(idx)
	if err != nil || index < 0 {
		return "", 0, "", false
	}
	return imageName, index, id, true
}
