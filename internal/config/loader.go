package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/maincrawl/internal/models"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigFile 默认配置文件路径
	DefaultConfigFile = "config.json"

	// MaxConfigFileSize 配置文件最大大小 (1MB)
	MaxConfigFileSize = 1 * 1024 * 1024

	// EnvPrefix 环境变量前缀, 例如 MAINCRAWL_MAX_DEPTH
	EnvPrefix = "MAINCRAWL"
)

// Loader 配置文件加载器
// 负责加载、验证和解析配置文件,文件不存在或无法解析都是致命错误
type Loader struct {
	configPath string
}

// NewLoader 创建配置文件加载器
func NewLoader(configPath string) *Loader {
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	return &Loader{configPath: configPath}
}

// Path 返回配置文件路径
func (l *Loader) Path() string {
	return l.configPath
}

// ValidateFile 检查配置文件存在且大小在限制内
func (l *Loader) ValidateFile() error {
	info, err := os.Stat(l.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &models.ConfigError{FilePath: l.configPath, Cause: fmt.Errorf("配置文件不存在: %w", err)}
		}
		return &models.ConfigError{FilePath: l.configPath, Cause: err}
	}
	if info.IsDir() {
		return &models.ConfigError{FilePath: l.configPath, Cause: fmt.Errorf("配置路径是目录")}
	}
	if info.Size() > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: l.configPath,
			Cause: fmt.Errorf("配置文件过大: %d 字节 (最大 %d 字节)",
				info.Size(), MaxConfigFileSize),
		}
	}
	return nil
}

// Load 加载配置文件
// 执行流程:
//  1. 验证文件存在且大小在限制内
//  2. 设置默认值和环境变量覆盖
//  3. 使用Viper解析(按扩展名识别JSON/YAML,默认JSON)
//  4. 绑定到Config结构体
func (l *Loader) Load() (*Config, error) {
	if err := l.ValidateFile(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(l.configPath)
	v.SetConfigType(configType(l.configPath))
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, &models.ConfigError{FilePath: l.configPath, Cause: err}
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, &models.ConfigError{
			FilePath: l.configPath,
			Cause:    fmt.Errorf("配置绑定失败: %w", err),
		}
	}

	if config.Headers == nil {
		config.Headers = make(map[string]string)
	}
	return config, nil
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("max_depth", d.MaxDepth)
	v.SetDefault("max_workers", d.MaxWorkers)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("content_format", string(d.ContentFormat))
	v.SetDefault("same_site", d.SameSite)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("insecure_skip_verify", d.InsecureSkipVerify)
	v.SetDefault("report_dir", d.ReportDir)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.log_dir", d.Logging.LogDir)
	v.SetDefault("logging.rotation.max_size", d.Logging.Rotation.MaxSize)
	v.SetDefault("logging.rotation.max_backups", d.Logging.Rotation.MaxBackups)
	v.SetDefault("logging.rotation.max_age", d.Logging.Rotation.MaxAge)
	v.SetDefault("logging.rotation.compress", d.Logging.Rotation.Compress)

	v.SetDefault("resource.safety_reserve_memory", d.Resource.SafetyReserveMemory)
	v.SetDefault("resource.safety_threshold", d.Resource.SafetyThreshold)
	v.SetDefault("resource.max_workers_limit", d.Resource.MaxWorkersLimit)
}
