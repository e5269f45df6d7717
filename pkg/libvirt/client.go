package libvirt

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/digitalocean/go-libvirt"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("not found")

type Client struct {
	conn *libvirt.Libvirt
}

// DomainInfo 包含域的基本信息
type DomainInfo struct {
	Name      string `json:"name"`
	UUID      string `json:"uuid"`
	State     string `json:"state"`
	MaxMemory uint64 `json:"max_memory"` // KB
	Memory    uint64 `json:"memory"`     // KB
	VCPUs     uint16 `json:"vcpus"`
	CPUTime   uint64 `json:"cpu_time"` // nanoseconds
}

// New 连接 libvirt，uri 为空时使用 qemu:///system
func New(uri string) (*Client, error) {
	if uri == "" {
		uri = string(libvirt.QEMUSystem)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse libvirt uri %s: %w", uri, err)
	}
	l, err := libvirt.ConnectToURI(u)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %v", err)
	}

	return &Client{conn: l}, nil
}

// Close 断开连接
func (c *Client) Close() error {
	return c.conn.Disconnect()
}

// GetHostname 获取 libvirt 所在主机名
func (c *Client) GetHostname() (string, error) {
	hostname, err := c.conn.ConnectGetHostname()
	if err != nil {
		return "", fmt.Errorf("get hostname: %w", err)
	}
	return hostname, nil
}

// GetLibvirtVersion 获取 libvirt 版本
func (c *Client) GetLibvirtVersion() (string, error) {
	v, err := c.conn.ConnectGetLibVersion()
	if err != nil {
		return "", fmt.Errorf("get libvirt version: %w", err)
	}
	return formatLibvirtVersion(v), nil
}

// formatLibvirtVersion converts libvirt version number to human readable format
// libvirt version is encoded as: major * 1000000 + minor * 1000 + micro
// For example: 8003000 = 8.3.0
func formatLibvirtVersion(version uint64) string {
	major := version / 1000000
	minor := (version % 1000000) / 1000
	micro := version % 1000
	return fmt.Sprintf("%d.%d.%d", major, minor, micro)
}

// GetDomainByName 按名称查找域，不存在时返回 ErrNotFound
func (c *Client) GetDomainByName(name string) (libvirt.Domain, error) {
	domain, err := c.conn.DomainLookupByName(name)
	if err != nil {
		if libvirt.IsNotFound(err) {
			return libvirt.Domain{}, fmt.Errorf("domain %s: %w", name, ErrNotFound)
		}
		return libvirt.Domain{}, fmt.Errorf("lookup domain %s: %w", name, err)
	}
	return domain, nil
}

// GetDomainInfo 获取指定域的基本信息
func (c *Client) GetDomainInfo(name string) (*DomainInfo, error) {
	domain, err := c.GetDomainByName(name)
	if err != nil {
		return nil, err
	}

	state, maxMem, memory, vcpus, cpuTime, err := c.conn.DomainGetInfo(domain)
	if err != nil {
		return nil, fmt.Errorf("failed to get domain info: %v", err)
	}

	return &DomainInfo{
		Name:      domain.Name,
		UUID:      fmt.Sprintf("%x", domain.UUID),
		State:     FormatDomainState(state),
		MaxMemory: maxMem,
		Memory:    memory,
		VCPUs:     vcpus,
		CPUTime:   cpuTime,
	}, nil
}

// FormatDomainState 将域状态数字转换为可读字符串
func FormatDomainState(state uint8) string {
	switch libvirt.DomainState(state) {
	case libvirt.DomainNostate:
		return "NoState"
	case libvirt.DomainRunning:
		return "Running"
	case libvirt.DomainBlocked:
		return "Blocked"
	case libvirt.DomainPaused:
		return "Paused"
	case libvirt.DomainShutdown:
		return "ShuttingDown"
	case libvirt.DomainShutoff:
		return "ShutOff"
	case libvirt.DomainCrashed:
		return "Crashed"
	case libvirt.DomainPmsuspended:
		return "PMSuspended"
	default:
		return fmt.Sprintf("Unknown (%d)", state)
	}
}
