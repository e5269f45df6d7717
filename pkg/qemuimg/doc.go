// Package qemuimg 封装 qemu-img 命令行工具的操作
//
// 该包提供了对 qemu-img 常用操作的封装，包括：
//   - 获取镜像信息，包括 backing file（Info）
//   - 转换镜像格式，同时合并 backing chain（Convert）
//   - 检查镜像完整性（Check）
//
// 读取类操作都带 -U（force share），可以读取运行中 VM 正在使用的镜像。
// 所有操作都支持 context 超时控制。
//
// 示例：
//
//	client := qemuimg.New("")
//
//	info, err := client.Info(ctx, "/path/to/overlay.qcow2")
//	fmt.Println(info.BackingFile())
//
//	// 把差分链合并成一个独立的 qcow2
//	err = client.Convert(ctx, "qcow2", "qcow2",
//		"/path/to/overlay.qcow2", "/path/to/flat.qcow2")
package qemuimg
