package qemuimg

import "context"

// QemuImgClient 定义了 qemu-img 客户端的接口
// 用于抽象 qemu-img 操作，便于测试和 mock
type QemuImgClient interface {
	// Info 获取镜像信息
	Info(ctx context.Context, imagePath string) (*ImageInfo, error)
	// Convert 转换镜像格式，输出镜像不再依赖 backing file
	Convert(ctx context.Context, inputFormat, outputFormat, inputFile, outputFile string) error
	// Check 检查镜像完整性
	Check(ctx context.Context, imagePath, format string) error
}

var _ QemuImgClient = (*Client)(nil)
