package qemuimg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// Client 封装 qemu-img 命令行工具的操作
type Client struct {
	qemuImgPath string
	timeout     time.Duration
}

// ImageInfo qemu-img info --output=json 的输出
type ImageInfo struct {
	Filename              string `json:"filename"`
	Format                string `json:"format"`
	VirtualSize           uint64 `json:"virtual-size"`
	ActualSize            uint64 `json:"actual-size"`
	ClusterSize           uint64 `json:"cluster-size,omitempty"`
	DirtyFlag             bool   `json:"dirty-flag"`
	BackingFilename       string `json:"backing-filename,omitempty"`
	FullBackingFilename   string `json:"full-backing-filename,omitempty"`
	BackingFilenameFormat string `json:"backing-filename-format,omitempty"`
}

// BackingFile 返回 backing file 的绝对路径，没有时返回空
func (i *ImageInfo) BackingFile() string {
	if i.FullBackingFilename != "" {
		return i.FullBackingFilename
	}
	return i.BackingFilename
}

// New 创建新的 qemuimg client
// qemuImgPath 是 qemu-img 的路径，如果为空则使用默认的 "qemu-img"
func New(qemuImgPath string) *Client {
	if qemuImgPath == "" {
		qemuImgPath = "qemu-img"
	}
	return &Client{
		qemuImgPath: qemuImgPath,
		timeout:     30 * time.Minute, // 默认超时 30 分钟（大文件操作可能需要较长时间）
	}
}

// WithTimeout 设置操作超时时间
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// Info 获取镜像信息
//
// 示例：
//
//	info, err := client.Info(ctx, "/path/to/image.qcow2")
func (c *Client) Info(ctx context.Context, imagePath string) (*ImageInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second) // info 操作通常很快
	defer cancel()

	cmd := exec.CommandContext(ctx, c.qemuImgPath, "info",
		"--output=json",
		"-U",
		imagePath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("failed to get image info for %s: %w, output: %s", imagePath, err, string(output))
	}

	info, err := parseImageInfo(output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse image info for %s: %w", imagePath, err)
	}
	return info, nil
}

func parseImageInfo(output []byte) (*ImageInfo, error) {
	var info ImageInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Convert 转换镜像格式或复制镜像
// 输出镜像包含整个 backing chain 的数据，不再依赖 backing file
//
// 示例：
//
//	// 将 qcow2 差分镜像合并成独立的 qcow2
//	err := client.Convert(ctx, "qcow2", "qcow2", "/path/to/overlay.qcow2", "/path/to/flat.qcow2")
func (c *Client) Convert(ctx context.Context, inputFormat, outputFormat, inputFile, outputFile string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.qemuImgPath, "convert",
		"-U",
		"-f", inputFormat,
		"-O", outputFormat,
		inputFile,
		outputFile,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to convert image from %s to %s: %w, output: %s", inputFile, outputFile, err, string(output))
	}

	return nil
}

// Check 检查镜像完整性
//
// 示例：
//
//	err := client.Check(ctx, "/path/to/image.qcow2", "qcow2")
func (c *Client) Check(ctx context.Context, imagePath, format string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.qemuImgPath, "check",
		"-U",
		"-f", format,
		imagePath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to check image %s: %w, output: %s", imagePath, err, string(output))
	}

	return nil
}

// CreateEmpty 创建空镜像
func (c *Client) CreateEmpty(ctx context.Context, format, outputFile string, sizeGB uint64) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.qemuImgPath, "create",
		"-f", format,
		outputFile,
		fmt.Sprintf("%dG", sizeGB),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to create empty image %s: %w, output: %s", outputFile, err, string(output))
	}

	return nil
}

// CreateFromBackingFile 从 backing file 创建差分镜像
func (c *Client) CreateFromBackingFile(ctx context.Context, format, backingFormat, backingFile, outputFile string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.qemuImgPath, "create",
		"-f", format,
		"-F", backingFormat,
		"-b", backingFile,
		outputFile,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to create image from backing file %s: %w, output: %s", backingFile, err, string(output))
	}

	return nil
}
