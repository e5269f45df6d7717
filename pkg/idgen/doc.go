// Package idgen 提供递增 ID 生成器
//
// 使用 Sonyflake 算法生成全局唯一且递增的 ID。
// Sonyflake 是 Snowflake 算法的改进版本，生成的 ID 具有以下特性：
//   - 全局唯一
//   - 时间有序（递增）
//   - 64 位整数
//
// 生成的 ID 格式：
//   - 快照任务 ID: snap-{递增数字}
//   - 请求 ID: req-{递增数字}
//   - 后台任务 ID: task-{递增数字}
//
// 使用方式：
//
//	// 使用包级别的便捷函数（默认生成器）
//	requestID, err := idgen.GenerateRequestID()
//	// requestID: "req-1234567890"
//
//	// 或创建自定义生成器，主机没有私有 IPv4 地址时用主机名哈希作为机器 ID
//	gen, err := idgen.New()
//	taskID, err := gen.GenerateTaskID()
package idgen
