package service

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"familytree_go/internal/repository"
)

// DefaultConfigFile 默认配置文件
const DefaultConfigFile = "config.yaml"

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Port      string `yaml:"port" env:"PORT" env-default:"3000"`
	Mode      string `yaml:"mode" env:"GIN_MODE" env-default:"release"`
	StaticDir string `yaml:"static_dir" env:"STATIC_DIR" env-default:"public"`
}

// Config 应用配置
type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Database  repository.Config `yaml:"database"`
	Log       LoggerConfig      `yaml:"log"`
	Upload    UploadConfig      `yaml:"upload"`
	Auth      AuthConfig        `yaml:"auth"`
	RateLimit RateLimitConfig   `yaml:"rate_limit"`
	Trace     TraceConfig       `yaml:"trace"`
	Backup    BackupConfig      `yaml:"backup"`
}

// LoadConfig 加载配置：.env -> 配置文件（可选） -> 环境变量
func LoadConfig(path string) (*Config, error) {
	// 加载环境变量
	_ = godotenv.Load()

	var cfg Config
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, NewError(ErrConfig, fmt.Sprintf("failed to read config %s", path), err)
		}
		return &cfg, nil
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, NewError(ErrConfig, fmt.Sprintf("config file %s not accessible", path), err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, NewError(ErrConfig, "failed to read environment", err)
	}
	return &cfg, nil
}
