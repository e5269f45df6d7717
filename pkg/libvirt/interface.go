package libvirt

import (
	"github.com/digitalocean/go-libvirt"
)

// LibvirtClient 定义 libvirt 客户端接口
// 用于抽象 libvirt 操作，便于测试和 mock
type LibvirtClient interface {
	// 连接信息
	GetHostname() (string, error)
	GetLibvirtVersion() (string, error)
	Close() error

	// Domain 操作
	GetDomainByName(name string) (libvirt.Domain, error)
	GetDomainInfo(name string) (*DomainInfo, error)
	GetDomainDisks(domainName string) ([]DomainDisk, error)

	// Snapshot 操作
	CreateDiskOnlySnapshot(domainName, snapshotName string) (*SnapshotInfo, error)

	// Storage Pool 操作
	ListStoragePools() ([]*StoragePoolInfo, error)
	RefreshStoragePool(poolName string) error

	// Storage Volume 操作
	ListVolumes(poolName string) ([]*VolumeInfo, error)
	LookupVolumeByPath(path string) (*VolumeInfo, error)
}

var _ LibvirtClient = (*Client)(nil)
