package imagestore

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// ObjectInfo 对象信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store 镜像存储
type Store interface {
	// Put 上传对象，body 可以很大，内部按分片上传
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	// Exists 判断对象是否存在
	Exists(ctx context.Context, key string) (bool, error)
	// List 列出前缀下的所有对象
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// Opener 按 host:port 打开镜像存储
type Opener func(ctx context.Context, host string, port int) (Store, error)

// NewOpener 返回一个使用 base 中 bucket 和凭据的 Opener
// host 为空时使用 base.Endpoint
func NewOpener(base Config) Opener {
	return func(ctx context.Context, host string, port int) (Store, error) {
		cfg := base
		if host != "" {
			cfg.Endpoint = Endpoint(host, port)
		}
		return New(ctx, cfg)
	}
}

// Endpoint 由 host 和 port 组成 http 地址
func Endpoint(host string, port int) string {
	if port <= 0 {
		return fmt.Sprintf("http://%s", host)
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(port)))
}
