// Package vmutil 实现快照编排的核心逻辑
//
// 流程：枚举 VM 磁盘 → 记录快照前的父磁盘 → 异步快照 → 等待存储后端合并
// 差分链 → 返回 {快照 VM, [磁盘 UUID, 父磁盘 UUID]} → 交给镜像上传插件。
//
// 所有后端访问都经过 hypervisor.Session，会话在构造时注入。
package vmutil
