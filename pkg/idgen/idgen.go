package idgen

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"sync"
	"time"

	"github.com/sony/sonyflake"
)

// ErrUnavailable 没能创建 Sonyflake 时，生成器返回的错误
var ErrUnavailable = errors.New("id generator unavailable")

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Generator 递增 ID 生成器
// 使用 Sonyflake 算法生成全局唯一且递增的 ID
type Generator struct {
	sf *sonyflake.Sonyflake
}

var (
	defaultGenerator     *Generator
	defaultGeneratorErr  error
	defaultGeneratorOnce sync.Once
)

// DefaultGenerator 返回默认的 ID 生成器
// 创建失败时返回的生成器每次生成都报 ErrUnavailable
func DefaultGenerator() *Generator {
	defaultGeneratorOnce.Do(func() {
		defaultGenerator, defaultGeneratorErr = New()
		if defaultGeneratorErr != nil {
			defaultGenerator = &Generator{}
		}
	})
	return defaultGenerator
}

// New 创建新的 ID 生成器
// Sonyflake 默认用私有 IPv4 地址的低 16 位作为机器 ID，
// 主机没有私有 IPv4 地址时改用主机名哈希
func New() (*Generator, error) {
	return newWithFallback(nil)
}

func newWithFallback(machineID func() (uint16, error)) (*Generator, error) {
	g, err := NewWithSettings(sonyflake.Settings{MachineID: machineID})
	if err == nil {
		return g, nil
	}
	g, fallbackErr := NewWithSettings(sonyflake.Settings{MachineID: hostnameMachineID})
	if fallbackErr != nil {
		return nil, errors.Join(err, fallbackErr)
	}
	return g, nil
}

// NewWithSettings 按给定设置创建生成器，StartTime 为空时使用 2024-01-01
func NewWithSettings(st sonyflake.Settings) (*Generator, error) {
	if st.StartTime.IsZero() {
		st.StartTime = epoch
	}
	sf := sonyflake.NewSonyflake(st)
	if sf == nil {
		return nil, fmt.Errorf("create sonyflake: %w", ErrUnavailable)
	}
	return &Generator{sf: sf}, nil
}

// hostnameMachineID 主机名 FNV 哈希折叠成 16 位
func hostnameMachineID() (uint16, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return 0, fmt.Errorf("get hostname: %w", err)
	}
	h := fnv.New32a()
	h.Write([]byte(hostname))
	sum := h.Sum32()
	return uint16(sum>>16) ^ uint16(sum), nil
}

// generateIDWithPrefix 生成带前缀的 ID
func (g *Generator) generateIDWithPrefix(prefix, errorMsg string) (string, error) {
	id, err := g.GenerateID()
	if err != nil {
		return "", fmt.Errorf("%s: %w", errorMsg, err)
	}
	return fmt.Sprintf("%s-%d", prefix, id), nil
}

// GenerateSnapshotJobID 生成快照任务 ID（格式：snap-{递增 ID}）
func (g *Generator) GenerateSnapshotJobID() (string, error) {
	return g.generateIDWithPrefix("snap", "generate snapshot job ID")
}

// GenerateRequestID 生成请求 ID（格式：req-{递增 ID}），用于关联异步任务
func (g *Generator) GenerateRequestID() (string, error) {
	return g.generateIDWithPrefix("req", "generate request ID")
}

// GenerateTaskID 生成后台任务 ID（格式：task-{递增 ID}）
func (g *Generator) GenerateTaskID() (string, error) {
	return g.generateIDWithPrefix("task", "generate task ID")
}

// GenerateID 生成通用递增 ID
func (g *Generator) GenerateID() (uint64, error) {
	if g == nil || g.sf == nil {
		return 0, ErrUnavailable
	}
	return g.sf.NextID()
}

// 包级别的便捷函数，使用默认生成器

// GenerateSnapshotJobID 使用默认生成器生成快照任务 ID
func GenerateSnapshotJobID() (string, error) {
	return DefaultGenerator().GenerateSnapshotJobID()
}

// GenerateRequestID 使用默认生成器生成请求 ID
func GenerateRequestID() (string, error) {
	return DefaultGenerator().GenerateRequestID()
}

// GenerateID 使用默认生成器生成通用递增 ID
func GenerateID() (uint64, error) {
	return DefaultGenerator().GenerateID()
}
