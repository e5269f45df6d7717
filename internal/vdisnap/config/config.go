package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
	"github.com/jimyag/vdisnap/pkg/imagestore"
)

const (
	envVarPrefix = "VDISNAP"
	// ConfigFileEnv 指定 YAML 配置文件路径的环境变量
	ConfigFileEnv = "VDISNAP_CONFIG"
)

type Config struct {
	// Address HTTP 服务监听地址
	Address string `mapstructure:"address"`

	// LibvirtURI 是 libvirt 连接 URI
	// 支持以下格式：
	// - qemu:///system (本地系统连接，默认)
	// - qemu+ssh://user@host/system (SSH 远程连接)
	// - qemu+tcp://host/system (TCP 远程连接)
	// 可以通过环境变量 LIBVIRT_URI 配置
	LibvirtURI string `mapstructure:"libvirt_uri"`

	// QemuImgPath qemu-img 可执行文件
	QemuImgPath string `mapstructure:"qemu_img_path"`

	// DataDir 数据目录，保存快照任务数据库
	// 默认：~/.local/share/vdisnap
	DataDir string `mapstructure:"data_dir"`

	// WorkDir 上传前展平磁盘用的临时目录，默认 DataDir/work
	WorkDir string `mapstructure:"work_dir"`

	LogLevel string `mapstructure:"log_level"`

	Coalesce   CoalesceConfig   `mapstructure:"coalesce"`
	ImageStore ImageStoreConfig `mapstructure:"image_store"`
}

// CoalesceConfig 差分链合并等待参数
type CoalesceConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
	// MaxPolls 为 0 表示只受 MaxWait 限制
	MaxPolls int `mapstructure:"max_polls"`
}

// Options 转换为 watcher 选项
func (c CoalesceConfig) Options() []vmutil.CoalesceOption {
	opts := []vmutil.CoalesceOption{
		vmutil.WithPollInterval(c.PollInterval),
		vmutil.WithMaxWait(c.MaxWait),
	}
	if c.MaxPolls > 0 {
		opts = append(opts, vmutil.WithMaxPolls(c.MaxPolls))
	}
	return opts
}

// ImageStoreConfig 镜像存储配置
// Host/Port 会随上传请求一起交给后端插件
type ImageStoreConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PartSize        int64  `mapstructure:"part_size"`
}

// StoreConfig 转换为 imagestore 配置
func (c ImageStoreConfig) StoreConfig() imagestore.Config {
	cfg := imagestore.Config{
		Region:          c.Region,
		Bucket:          c.Bucket,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		PartSize:        c.PartSize,
	}
	if c.Host != "" {
		cfg.Endpoint = imagestore.Endpoint(c.Host, c.Port)
	}
	return cfg
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		Address:     "0.0.0.0:7780",
		LibvirtURI:  "qemu:///system",
		QemuImgPath: "qemu-img",
		DataDir:     dataDir,
		LogLevel:    "info",
		Coalesce: CoalesceConfig{
			PollInterval: vmutil.DefaultCoalescePollInterval,
			MaxWait:      vmutil.DefaultCoalesceMaxWait,
		},
		ImageStore: ImageStoreConfig{
			Port:   9000,
			Bucket: "vdisnap-images",
			Region: "us-east-1",
		},
	}
}

// New 读取配置
// 优先级：环境变量 > VDISNAP_CONFIG 指定的 YAML 文件 > 默认值
func New() (*Config, error) {
	return Load(os.Getenv(ConfigFileEnv))
}

// Load 从 path 读取 YAML 配置，path 为空时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	bindEnvVars(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = filepath.Join(cfg.DataDir, "work")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置
func (c *Config) Validate() error {
	if c.Coalesce.PollInterval <= 0 {
		return fmt.Errorf("coalesce.poll_interval must be positive, got %s", c.Coalesce.PollInterval)
	}
	if c.Coalesce.MaxWait < c.Coalesce.PollInterval {
		return fmt.Errorf("coalesce.max_wait %s is shorter than poll_interval %s", c.Coalesce.MaxWait, c.Coalesce.PollInterval)
	}
	if c.Coalesce.MaxPolls < 0 {
		return fmt.Errorf("coalesce.max_polls must not be negative, got %d", c.Coalesce.MaxPolls)
	}
	if c.ImageStore.Port < 0 || c.ImageStore.Port > 65535 {
		return fmt.Errorf("image_store.port out of range: %d", c.ImageStore.Port)
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("address", d.Address)
	v.SetDefault("libvirt_uri", d.LibvirtURI)
	v.SetDefault("qemu_img_path", d.QemuImgPath)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("work_dir", d.WorkDir)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("coalesce.poll_interval", d.Coalesce.PollInterval)
	v.SetDefault("coalesce.max_wait", d.Coalesce.MaxWait)
	v.SetDefault("coalesce.max_polls", d.Coalesce.MaxPolls)

	v.SetDefault("image_store.host", d.ImageStore.Host)
	v.SetDefault("image_store.port", d.ImageStore.Port)
	v.SetDefault("image_store.bucket", d.ImageStore.Bucket)
	v.SetDefault("image_store.region", d.ImageStore.Region)
	v.SetDefault("image_store.access_key_id", d.ImageStore.AccessKeyID)
	v.SetDefault("image_store.secret_access_key", d.ImageStore.SecretAccessKey)
	v.SetDefault("image_store.part_size", d.ImageStore.PartSize)
}

// bindEnvVars 环境变量名为 VDISNAP_ 加上大写的配置 key，层级用下划线连接
// 例如 coalesce.max_wait 对应 VDISNAP_COALESCE_MAX_WAIT
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix(envVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 兼容 libvirt 工具链通用的 LIBVIRT_URI
	_ = v.BindEnv("libvirt_uri", "VDISNAP_LIBVIRT_URI", "LIBVIRT_URI")
}

// defaultDataDir 默认数据目录
func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "vdisnap")
	}
	return filepath.Join(".", "data")
}
