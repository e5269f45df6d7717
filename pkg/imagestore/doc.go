// Package imagestore 把快照镜像上传到 S3 兼容的对象存储
//
// 镜像存储的地址由 host:port 指定，使用 path-style 访问，
// 适配 MinIO、Ceph RGW 等自建存储。
package imagestore
