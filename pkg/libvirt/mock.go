package libvirt

import (
	"github.com/digitalocean/go-libvirt"
	"github.com/stretchr/testify/mock"
)

// MockClient 是 LibvirtClient 的 mock 实现
// 用于测试，不需要真实的 libvirt 连接
type MockClient struct {
	mock.Mock
}

// 连接信息
func (m *MockClient) GetHostname() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockClient) GetLibvirtVersion() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockClient) GetDomainByName(name string) (libvirt.Domain, error) {
	args := m.Called(name)
	return args.Get(0).(libvirt.Domain), args.Error(1)
}

func (m *MockClient) GetDomainInfo(name string) (*DomainInfo, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DomainInfo), args.Error(1)
}

func (m *MockClient) GetDomainDisks(domainName string) ([]DomainDisk, error) {
	args := m.Called(domainName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]DomainDisk), args.Error(1)
}

// Snapshot 操作
func (m *MockClient) CreateDiskOnlySnapshot(domainName, snapshotName string) (*SnapshotInfo, error) {
	args := m.Called(domainName, snapshotName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SnapshotInfo), args.Error(1)
}

func (m *MockClient) ListStoragePools() ([]*StoragePoolInfo, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*StoragePoolInfo), args.Error(1)
}

func (m *MockClient) RefreshStoragePool(poolName string) error {
	args := m.Called(poolName)
	return args.Error(0)
}

// Storage Volume 操作
func (m *MockClient) ListVolumes(poolName string) ([]*VolumeInfo, error) {
	args := m.Called(poolName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*VolumeInfo), args.Error(1)
}

func (m *MockClient) LookupVolumeByPath(path string) (*VolumeInfo, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VolumeInfo), args.Error(1)
}

var _ LibvirtClient = (*MockClient)(nil)
