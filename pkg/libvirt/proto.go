package libvirt

import "encoding/xml"

// DomainXML represents the parts of the domain XML used for disk enumeration
// Reference: https://libvirt.org/formatdomain.html
type DomainXML struct {
	XMLName xml.Name `xml:"domain"`
	Type    string   `xml:"type,attr"`

	// Source: https://libvirt.org/formatdomain.html#general-metadata
	Name string `xml:"name"`
	UUID string `xml:"uuid,omitempty"`

	// Source: https://libvirt.org/formatdomain.html#devices
	Devices DomainDevices `xml:"devices"`
}

// DomainDevices represents the devices in the domain
type DomainDevices struct {
	Disks []DomainDisk `xml:"disk"`
}

// DomainDisk represents a disk device
// Source: https://libvirt.org/formatdomain.html#hard-drives-floppy-disks-cdroms
type DomainDisk struct {
	Type   string           `xml:"type,attr"`
	Device string           `xml:"device,attr"`
	Driver DomainDiskDriver `xml:"driver"`
	Source DomainDiskSource `xml:"source"`
	Target DomainDiskTarget `xml:"target"`
}

// DomainDiskDriver represents disk driver configuration
type DomainDiskDriver struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

// DomainDiskSource represents disk source configuration
type DomainDiskSource struct {
	Pool   string `xml:"pool,attr,omitempty"`
	Volume string `xml:"volume,attr,omitempty"`
	File   string `xml:"file,attr,omitempty"`
	Dev    string `xml:"dev,attr,omitempty"`
}

// DomainDiskTarget represents disk target configuration
type DomainDiskTarget struct {
	Dev string `xml:"dev,attr"`
	Bus string `xml:"bus,attr"`
}

// DomainSnapshotXML represents a domain snapshot definition
// Reference: https://libvirt.org/formatsnapshot.html
type DomainSnapshotXML struct {
	XMLName     xml.Name              `xml:"domainsnapshot"`
	Name        string                `xml:"name"`
	Description string                `xml:"description,omitempty"`
	Memory      *DomainSnapshotMemory `xml:"memory,omitempty"`
	Disks       DomainSnapshotDisks   `xml:"disks"`
}

// DomainSnapshotMemory memory state of a snapshot
type DomainSnapshotMemory struct {
	Snapshot string `xml:"snapshot,attr"` // no, internal, external
}

// DomainSnapshotDisks disks of a snapshot
type DomainSnapshotDisks struct {
	Disks []DomainSnapshotDisk `xml:"disk"`
}

// DomainSnapshotDisk per-disk snapshot mode
type DomainSnapshotDisk struct {
	Name     string            `xml:"name,attr"`
	Snapshot string            `xml:"snapshot,attr,omitempty"` // no, internal, external
	Source   *DomainDiskSource `xml:"source,omitempty"`
}

// StoragePoolXML 存储池 XML 结构
// Reference: https://libvirt.org/formatstorage.html
type StoragePoolXML struct {
	XMLName xml.Name   `xml:"pool"`
	Type    string     `xml:"type,attr"`
	Name    string     `xml:"name"`
	Target  PoolTarget `xml:"target"`
}

// PoolTarget 存储池目标配置
type PoolTarget struct {
	Path string `xml:"path"`
}

// VolumeXML 存储卷 XML 结构
// Reference: https://libvirt.org/formatstorage.html#StorageVol
type VolumeXML struct {
	XMLName      xml.Name            `xml:"volume"`
	Type         string              `xml:"type,attr"`
	Name         string              `xml:"name"`
	Key          string              `xml:"key"`
	Capacity     VolumeSize          `xml:"capacity"`
	Allocation   VolumeSize          `xml:"allocation"`
	Target       VolumeTarget        `xml:"target"`
	BackingStore *VolumeBackingStore `xml:"backingStore,omitempty"`
}

// VolumeSize 存储卷大小配置
type VolumeSize struct {
	Unit  string `xml:"unit,attr"`
	Value uint64 `xml:",chardata"`
}

// VolumeTarget 存储卷目标配置
type VolumeTarget struct {
	Path   string       `xml:"path,omitempty"`
	Format VolumeFormat `xml:"format"`
}

// VolumeFormat 存储卷格式配置
type VolumeFormat struct {
	Type string `xml:"type,attr"`
}

// VolumeBackingStore 存储卷的父卷
type VolumeBackingStore struct {
	Path   string       `xml:"path"`
	Format VolumeFormat `xml:"format"`
}
