package libvirt

import (
	"encoding/xml"
	"fmt"

	"github.com/digitalocean/go-libvirt"
)

// StoragePoolInfo 存储池信息
type StoragePoolInfo struct {
	Name        string
	State       string
	CapacityB   uint64
	AllocationB uint64
	AvailableB  uint64
	Path        string
}

// VolumeInfo 存储卷信息
type VolumeInfo struct {
	Name        string
	Key         string
	Pool        string
	Path        string
	CapacityB   uint64
	AllocationB uint64
	Format      string
	// BackingPath 差分链中父卷的路径，为空表示链的根
	BackingPath   string
	BackingFormat string
}

// mapStoragePoolState 将 libvirt 的 pool 状态转换为字符串
func mapStoragePoolState(s uint8) string {
	switch libvirt.StoragePoolState(s) {
	case libvirt.StoragePoolInactive:
		return "Inactive"
	case libvirt.StoragePoolBuilding:
		return "Building"
	case libvirt.StoragePoolRunning:
		return "Active"
	case libvirt.StoragePoolDegraded:
		return "Degraded"
	case libvirt.StoragePoolInaccessible:
		return "Inaccessible"
	default:
		return "Unknown"
	}
}

// ListStoragePools 列出所有存储池
func (c *Client) ListStoragePools() ([]*StoragePoolInfo, error) {
	// NeedResults: 设置为足够大的数字以获取所有 pools
	// Flags: 0 表示获取所有类型的 pools
	pools, _, err := c.conn.ConnectListAllStoragePools(1000, 0)
	if err != nil {
		return nil, fmt.Errorf("list storage pools: %w", err)
	}

	result := make([]*StoragePoolInfo, 0, len(pools))
	for _, p := range pools {
		state, capacity, allocation, available, err := c.conn.StoragePoolGetInfo(p)
		if err != nil {
			continue
		}

		var path string
		if xmlDesc, err := c.conn.StoragePoolGetXMLDesc(p, 0); err == nil {
			var poolXML StoragePoolXML
			if xml.Unmarshal([]byte(xmlDesc), &poolXML) == nil {
				path = poolXML.Target.Path
			}
		}

		result = append(result, &StoragePoolInfo{
			Name:        p.Name,
			State:       mapStoragePoolState(state),
			CapacityB:   capacity,
			AllocationB: allocation,
			AvailableB:  available,
			Path:        path,
		})
	}

	return result, nil
}

// RefreshStoragePool 刷新存储池，使磁盘上的元数据变化可见
func (c *Client) RefreshStoragePool(poolName string) error {
	pool, err := c.conn.StoragePoolLookupByName(poolName)
	if err != nil {
		return fmt.Errorf("lookup storage pool %s: %w", poolName, err)
	}

	if err := c.conn.StoragePoolRefresh(pool, 0); err != nil {
		return fmt.Errorf("refresh storage pool %s: %w", poolName, err)
	}

	return nil
}

// ListVolumes 列出存储池中的所有卷
func (c *Client) ListVolumes(poolName string) ([]*VolumeInfo, error) {
	pool, err := c.conn.StoragePoolLookupByName(poolName)
	if err != nil {
		return nil, fmt.Errorf("lookup storage pool %s: %w", poolName, err)
	}

	// NeedResults: 设置为足够大的数字以获取所有 volumes
	// Flags: 0 表示获取所有类型的 volumes
	vols, _, err := c.conn.StoragePoolListAllVolumes(pool, 1000, 0)
	if err != nil {
		return nil, fmt.Errorf("list volumes: %w", err)
	}

	result := make([]*VolumeInfo, 0, len(vols))
	for _, v := range vols {
		info, err := c.volumeInfo(v)
		if err != nil {
			continue
		}
		result = append(result, info)
	}

	return result, nil
}

// LookupVolumeByPath 按路径查找存储卷
func (c *Client) LookupVolumeByPath(path string) (*VolumeInfo, error) {
	vol, err := c.conn.StorageVolLookupByPath(path)
	if err != nil {
		return nil, fmt.Errorf("lookup volume %s: %w", path, err)
	}
	return c.volumeInfo(vol)
}

func (c *Client) volumeInfo(vol libvirt.StorageVol) (*VolumeInfo, error) {
	path, err := c.conn.StorageVolGetPath(vol)
	if err != nil {
		return nil, fmt.Errorf("get volume path: %w", err)
	}

	_, capacity, allocation, err := c.conn.StorageVolGetInfo(vol)
	if err != nil {
		return nil, fmt.Errorf("get volume info: %w", err)
	}

	xmlDesc, err := c.conn.StorageVolGetXMLDesc(vol, 0)
	if err != nil {
		return nil, fmt.Errorf("get volume XML: %w", err)
	}
	info, err := parseVolumeXML(xmlDesc)
	if err != nil {
		return nil, err
	}

	info.Pool = vol.Pool
	info.Path = path
	info.CapacityB = capacity
	info.AllocationB = allocation
	if info.Key == "" {
		info.Key = vol.Key
	}
	if info.Name == "" {
		info.Name = vol.Name
	}
	return info, nil
}

// parseVolumeXML 解析卷 XML 中的名称、key、格式和 backing store
func parseVolumeXML(xmlDesc string) (*VolumeInfo, error) {
	var volXML VolumeXML
	if err := xml.Unmarshal([]byte(xmlDesc), &volXML); err != nil {
		return nil, fmt.Errorf("unmarshal volume XML: %w", err)
	}

	info := &VolumeInfo{
		Name:   volXML.Name,
		Key:    volXML.Key,
		Format: volXML.Target.Format.Type,
	}
	if info.Format == "" {
		info.Format = "unknown"
	}
	if volXML.BackingStore != nil {
		info.BackingPath = volXML.BackingStore.Path
		info.BackingFormat = volXML.BackingStore.Format.Type
	}
	return info, nil
}
