package libvirt

import (
	"encoding/xml"
	"fmt"

	"github.com/digitalocean/go-libvirt"
)

// SnapshotInfo 快照信息
type SnapshotInfo struct {
	Name   string
	Domain string
	// Disks 快照后每块磁盘的新 overlay 路径，key 为 target dev
	Disks map[string]string
}

// CreateDiskOnlySnapshot 为运行中的 domain 创建外部、仅磁盘、原子快照
// 快照之后 domain 写入新的 overlay，原磁盘文件成为只读的 backing
func (c *Client) CreateDiskOnlySnapshot(domainName, snapshotName string) (*SnapshotInfo, error) {
	domain, err := c.GetDomainByName(domainName)
	if err != nil {
		return nil, err
	}

	xmlDesc, err := c.conn.DomainGetXMLDesc(domain, 0)
	if err != nil {
		return nil, fmt.Errorf("get domain XML: %w", err)
	}
	disks, err := parseDomainDisks(xmlDesc)
	if err != nil {
		return nil, err
	}

	snapXML, err := buildDiskOnlySnapshotXML(snapshotName, disks)
	if err != nil {
		return nil, err
	}

	flags := uint32(libvirt.DomainSnapshotCreateDiskOnly | libvirt.DomainSnapshotCreateAtomic)
	snap, err := c.conn.DomainSnapshotCreateXML(domain, snapXML, flags)
	if err != nil {
		return nil, fmt.Errorf("create snapshot %s for domain %s: %w", snapshotName, domainName, err)
	}

	info := &SnapshotInfo{
		Name:   snap.Name,
		Domain: domainName,
		Disks:  make(map[string]string),
	}

	// 快照后 domain 的磁盘指向新的 overlay
	xmlDesc, err = c.conn.DomainGetXMLDesc(domain, 0)
	if err != nil {
		return nil, fmt.Errorf("get domain XML after snapshot: %w", err)
	}
	disks, err = parseDomainDisks(xmlDesc)
	if err != nil {
		return nil, err
	}
	for _, d := range disks {
		if d.IsDisk() {
			info.Disks[d.Target.Dev] = d.SourcePath()
		}
	}

	return info, nil
}

func buildDiskOnlySnapshotXML(name string, disks []DomainDisk) (string, error) {
	snap := DomainSnapshotXML{
		Name:   name,
		Memory: &DomainSnapshotMemory{Snapshot: "no"},
	}
	for _, d := range disks {
		mode := "external"
		if !d.IsDisk() {
			mode = "no"
		}
		snap.Disks.Disks = append(snap.Disks.Disks, DomainSnapshotDisk{
			Name:     d.Target.Dev,
			Snapshot: mode,
		})
	}

	xmlBytes, err := xml.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot XML: %w", err)
	}
	return string(xmlBytes), nil
}

