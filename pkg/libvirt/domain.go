package libvirt

import (
	"encoding/xml"
	"fmt"
)

// GetDomainDisks 获取 domain 的所有磁盘设备
func (c *Client) GetDomainDisks(domainName string) ([]DomainDisk, error) {
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
	return disks, nil
}

func parseDomainDisks(xmlDesc string) ([]DomainDisk, error) {
	var domainXML DomainXML
	if err := xml.Unmarshal([]byte(xmlDesc), &domainXML); err != nil {
		return nil, fmt.Errorf("unmarshal domain XML: %w", err)
	}
	return domainXML.Devices.Disks, nil
}

// SourcePath 返回磁盘源文件路径
func (d DomainDisk) SourcePath() string {
	if d.Source.File != "" {
		return d.Source.File
	}
	return d.Source.Dev
}

// IsDisk 是否为普通磁盘（排除 cdrom、floppy 等）
func (d DomainDisk) IsDisk() bool {
	return d.Device == "" || d.Device == "disk"
}
