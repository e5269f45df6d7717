// Package backend 用 libvirt 实现 hypervisor.Session
//
// 对象映射：
//   - VM：libvirt domain，引用为 domain 名称
//   - VBD：domain 的磁盘设备，引用为 "<domain>/<target dev>"
//   - VDI：存储卷，引用为卷路径，UUID 由卷 key 按名字生成
//   - SR：存储池，引用为池名称
//
// 父磁盘来自卷 XML 的 backingStore，没有时对 qcow2 回退到 qemu-img info。
package backend
